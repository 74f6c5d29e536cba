// Package viewport keeps the camera projection and the renderer's output
// buffer in step with the host surface size.
package viewport

import (
	"log/slog"

	"github.com/milk9111/physloop/logging"
)

// DefaultMaxPixelScale caps the device pixel scale.
const DefaultMaxPixelScale = 2.0

// Output is the rendering side of a resize.
type Output interface {
	SetOutputSize(width, height int, pixelScale float64)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxPixelScale sets the pixel scale ceiling.
func WithMaxPixelScale(max float64) Option {
	return func(c *Coordinator) {
		if max > 0 {
			c.maxPixelScale = max
		}
	}
}

// WithDeviceScale sets the source of the device pixel scale.
func WithDeviceScale(fn func() float64) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.deviceScale = fn
		}
	}
}

// Coordinator applies surface size changes to a camera and an output.
type Coordinator struct {
	camera        *Camera
	out           Output
	maxPixelScale float64
	deviceScale   func() float64

	applied bool
	width   int
	height  int
	scale   float64

	log *slog.Logger
}

func NewCoordinator(camera *Camera, out Output, opts ...Option) *Coordinator {
	c := &Coordinator{
		camera:        camera,
		out:           out,
		maxPixelScale: DefaultMaxPixelScale,
		deviceScale:   func() float64 { return 1 },
		log:           logging.For("viewport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnResize recomputes the camera aspect and projection and resizes the
// output. Repeating a resize to the current size and scale changes nothing.
// Non-positive sizes, as reported for minimized windows, are ignored.
func (c *Coordinator) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		c.log.Debug("ignoring degenerate surface size", "width", width, "height", height)
		return
	}
	scale := c.PixelScale()
	if c.applied && width == c.width && height == c.height && scale == c.scale {
		return
	}

	c.camera.Aspect = float64(width) / float64(height)
	c.camera.UpdateProjection()
	if c.out != nil {
		c.out.SetOutputSize(width, height, scale)
	}

	c.applied = true
	c.width, c.height, c.scale = width, height, scale
	c.log.Info("viewport resized", "width", width, "height", height, "pixel_scale", scale)
}

// PixelScale is the device pixel scale clamped to the configured maximum.
func (c *Coordinator) PixelScale() float64 {
	s := c.deviceScale()
	if s <= 0 {
		s = 1
	}
	if s > c.maxPixelScale {
		s = c.maxPixelScale
	}
	return s
}

// Size returns the last applied surface size.
func (c *Coordinator) Size() (width, height int) {
	return c.width, c.height
}

func (c *Coordinator) Camera() *Camera {
	return c.camera
}
