package main

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	orbitTurn = 0.03
	zoomStep  = 0.9
)

// keyboardInput maps keys to camera and scene actions:
// arrows or WASD orbit, the wheel zooms, space spawns a sphere and R
// rescatters the decorations with the next seed.
func keyboardInput(a *app) {
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		a.orbit.Rotate(-orbitTurn, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		a.orbit.Rotate(orbitTurn, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		a.orbit.Rotate(0, -orbitTurn)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		a.orbit.Rotate(0, orbitTurn)
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		a.orbit.Zoom(math.Pow(zoomStep, dy))
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if err := a.spawn(); err != nil {
			a.log.Warn("spawn failed", "err", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.cfg.Placement.Seed++
		if _, err := a.scene.Scatter(a.cfg); err != nil {
			a.log.Warn("rescatter failed", "err", err)
		}
	}
}
