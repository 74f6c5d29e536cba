package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/physloop/logging"
	"github.com/milk9111/physloop/viewport"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/gofont/goregular"
)

var ErrUnsupportedScene = errors.New("render: unsupported scene type")

const (
	hudSize    = 14
	hudPadding = 8
	lineWidth  = 2
)

// Renderer draws a Scene into an offscreen image sized to the output in
// device pixels. Present copies it to the window.
type Renderer struct {
	background color.Color
	face       *text.GoTextFace

	offscreen *ebiten.Image
	width     int
	height    int
	scale     float64

	log *slog.Logger
}

func NewRenderer() (*Renderer, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("render: load hud font: %w", err)
	}
	return &Renderer{
		background: colornames.Midnightblue,
		face:       &text.GoTextFace{Source: src, Size: hudSize},
		scale:      1,
		log:        logging.For("render"),
	}, nil
}

// SetBackground sets the clear color.
func (r *Renderer) SetBackground(c color.Color) {
	r.background = c
}

// SetOutputSize reallocates the offscreen buffer at width x height logical
// pixels times pixelScale.
func (r *Renderer) SetOutputSize(width, height int, pixelScale float64) {
	pw := int(math.Ceil(float64(width) * pixelScale))
	ph := int(math.Ceil(float64(height) * pixelScale))
	r.width, r.height, r.scale = width, height, pixelScale
	if r.offscreen != nil {
		b := r.offscreen.Bounds()
		if b.Dx() == pw && b.Dy() == ph {
			return
		}
		r.offscreen.Deallocate()
	}
	r.offscreen = ebiten.NewImage(pw, ph)
	r.log.Debug("offscreen buffer allocated", "width", pw, "height", ph)
}

// Render draws scene, which must be a *Scene. Nothing is drawn until the
// output has been sized.
func (r *Renderer) Render(scene any, cam *viewport.Camera) error {
	s, ok := scene.(*Scene)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedScene, scene)
	}
	if r.offscreen == nil {
		return nil
	}

	dst := r.offscreen
	dst.Fill(r.background)
	b := dst.Bounds()
	for _, m := range Layout(s, cam, float64(b.Dx()), float64(b.Dy())) {
		drawMark(dst, m, float32(r.scale))
	}

	if s.HUD != nil {
		y := hudPadding * r.scale
		for _, line := range s.HUD() {
			op := &text.DrawOptions{}
			op.GeoM.Scale(r.scale, r.scale)
			op.GeoM.Translate(hudPadding*r.scale, y)
			op.ColorScale.ScaleWithColor(colornames.White)
			text.Draw(dst, line, r.face, op)
			y += (hudSize + 4) * r.scale
		}
	}
	return nil
}

func drawMark(dst *ebiten.Image, m Mark, scale float32) {
	switch m.Kind {
	case Disc:
		p := m.Points[0]
		vector.FillCircle(dst, p.X, p.Y, m.Radius, m.Color, true)
	case Quad, Line:
		n := len(m.Points)
		for i := 0; i < n; i++ {
			a, b := m.Points[i], m.Points[(i+1)%n]
			if m.Kind == Line && i == n-1 {
				break
			}
			vector.StrokeLine(dst, a.X, a.Y, b.X, b.Y, lineWidth*scale, m.Color, true)
		}
	}
}

// Present draws the offscreen buffer over the whole of screen.
func (r *Renderer) Present(screen *ebiten.Image) {
	if r.offscreen == nil || screen == nil {
		return
	}
	sb, ob := screen.Bounds(), r.offscreen.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(sb.Dx())/float64(ob.Dx()), float64(sb.Dy())/float64(ob.Dy()))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(r.offscreen, op)
}

// ReleaseResources frees the offscreen buffer.
func (r *Renderer) ReleaseResources() {
	if r.offscreen == nil {
		return
	}
	r.offscreen.Deallocate()
	r.offscreen = nil
	r.log.Debug("offscreen buffer released")
}
