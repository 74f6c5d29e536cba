package viewport

import "github.com/go-gl/mathgl/mgl64"

// Camera is a perspective camera. Aspect-dependent state is owned by the
// Coordinator; position and target are driven by a Controller.
type Camera struct {
	FovY   float64 // degrees
	Near   float64
	Far    float64
	Aspect float64

	Eye    mgl64.Vec3
	Target mgl64.Vec3
	Up     mgl64.Vec3

	projection mgl64.Mat4
}

// NewCamera returns a camera looking from eye at target with +Y up.
func NewCamera(fovY, near, far float64, eye, target mgl64.Vec3) *Camera {
	c := &Camera{
		FovY:   fovY,
		Near:   near,
		Far:    far,
		Aspect: 1,
		Eye:    eye,
		Target: target,
		Up:     mgl64.Vec3{0, 1, 0},
	}
	c.UpdateProjection()
	return c
}

// UpdateProjection recomputes the projection matrix from FovY, Aspect,
// Near and Far.
func (c *Camera) UpdateProjection() {
	c.projection = mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

func (c *Camera) Projection() mgl64.Mat4 {
	return c.projection
}

func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye, c.Target, c.Up)
}

func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.projection.Mul4(c.View())
}

// Project maps a world point to output pixel coordinates for an output of
// the given size. ok is false for points behind the camera.
func (c *Camera) Project(p mgl64.Vec3, width, height float64) (x, y, w float64, ok bool) {
	clip := c.ViewProjection().Mul4x1(p.Vec4(1))
	w = clip[3]
	if w <= c.Near*1e-3 {
		return 0, 0, w, false
	}
	ndcX := clip[0] / w
	ndcY := clip[1] / w
	x = (ndcX + 1) * 0.5 * width
	y = (1 - ndcY) * 0.5 * height
	return x, y, w, true
}

// PixelsPerUnit is the screen-space size of one world unit at clip depth w
// for an output of the given height.
func (c *Camera) PixelsPerUnit(w, height float64) float64 {
	if w <= 0 {
		return 0
	}
	return c.projection[5] * 0.5 * height / w
}
