package render

import (
	"fmt"

	"github.com/milk9111/physloop/viewport"
)

// Headless lays scenes out without drawing. It stands in for Renderer when
// no window exists.
type Headless struct {
	Width    int
	Height   int
	Scale    float64
	Frames   int
	Marks    int
	Released bool
}

func (h *Headless) SetOutputSize(width, height int, pixelScale float64) {
	h.Width, h.Height, h.Scale = width, height, pixelScale
}

func (h *Headless) Render(scene any, cam *viewport.Camera) error {
	s, ok := scene.(*Scene)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedScene, scene)
	}
	h.Frames++
	h.Marks = len(Layout(s, cam, float64(h.Width)*h.Scale, float64(h.Height)*h.Scale))
	return nil
}

func (h *Headless) ReleaseResources() {
	h.Released = true
}
