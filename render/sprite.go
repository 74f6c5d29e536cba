// Package render draws bound proxies with ebiten. Proxies are flat marks
// placed by projecting body poses through the viewport camera.
package render

import (
	"fmt"
	"image/color"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind is the mark a sprite draws.
type Kind int

const (
	Disc Kind = iota
	Quad
	Line
)

func (k Kind) String() string {
	switch k {
	case Disc:
		return "disc"
	case Quad:
		return "quad"
	case Line:
		return "line"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sprite is a visual proxy. Its pose is written by the binding registry.
type Sprite struct {
	Name        string
	Kind        Kind
	Radius      float64
	HalfExtents mgl64.Vec3
	Color       color.RGBA
	Hidden      bool

	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

func NewDisc(radius float64, c color.RGBA) *Sprite {
	return &Sprite{Kind: Disc, Radius: radius, Color: c, Orientation: mgl64.QuatIdent()}
}

func NewQuad(halfExtents mgl64.Vec3, c color.RGBA) *Sprite {
	return &Sprite{Kind: Quad, HalfExtents: halfExtents, Color: c, Orientation: mgl64.QuatIdent()}
}

// NewLine returns a segment of the given half length along local X.
func NewLine(halfLength float64, c color.RGBA) *Sprite {
	return &Sprite{Kind: Line, HalfExtents: mgl64.Vec3{halfLength, 0, 0}, Color: c, Orientation: mgl64.QuatIdent()}
}

func (s *Sprite) SetTransform(position mgl64.Vec3, orientation mgl64.Quat) {
	s.Position = position
	s.Orientation = orientation
}

// Scene is the set of sprites handed to the renderer each frame.
type Scene struct {
	sprites []*Sprite
	// HUD supplies overlay text lines; nil draws none.
	HUD func() []string
}

func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) Add(sp *Sprite) {
	if sp == nil || slices.Contains(s.sprites, sp) {
		return
	}
	s.sprites = append(s.sprites, sp)
}

func (s *Scene) Remove(sp *Sprite) bool {
	i := slices.Index(s.sprites, sp)
	if i < 0 {
		return false
	}
	s.sprites = slices.Delete(s.sprites, i, i+1)
	return true
}

func (s *Scene) Len() int {
	return len(s.sprites)
}

func (s *Scene) Sprites() []*Sprite {
	return slices.Clone(s.sprites)
}
