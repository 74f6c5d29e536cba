package viewport

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/physloop/common"
)

// Controller moves a camera once per frame.
type Controller interface {
	Update(camera *Camera, delta float64)
}

// Orbit circles the camera around its target. Rotation and zoom requests
// are damped over following frames.
type Orbit struct {
	// Damping is the fraction of pending rotation applied per frame, 0..1.
	// Zero applies requests immediately.
	Damping float64
	// MaxPolar limits how far the camera may swing below the zenith.
	MaxPolar    float64
	MinDistance float64
	MaxDistance float64
	// AutoRotate is an azimuth speed in radians per second.
	AutoRotate float64

	radius, theta, phi float64
	dTheta, dPhi       float64
	zoom               float64
	ready              bool
}

// NewOrbit returns an orbit controller with damping 0.05 that keeps the
// camera just above the horizon.
func NewOrbit() *Orbit {
	return &Orbit{
		Damping:     0.05,
		MaxPolar:    math.Pi/2 - 0.1,
		MinDistance: 0.5,
		MaxDistance: 500,
		zoom:        1,
	}
}

// Rotate queues an azimuth and polar rotation in radians.
func (o *Orbit) Rotate(azimuth, polar float64) {
	o.dTheta += azimuth
	o.dPhi += polar
}

// Zoom queues a distance multiplier; values below 1 move closer.
func (o *Orbit) Zoom(factor float64) {
	if factor > 0 {
		o.zoom *= factor
	}
}

func (o *Orbit) sync(camera *Camera) {
	offset := camera.Eye.Sub(camera.Target)
	o.radius = offset.Len()
	if o.radius == 0 {
		o.radius = o.MinDistance
		offset = mgl64.Vec3{0, 0, o.radius}
	}
	o.theta = math.Atan2(offset[0], offset[2])
	o.phi = math.Acos(common.Clamp(offset[1]/o.radius, -1, 1))
	o.ready = true
}

func (o *Orbit) Update(camera *Camera, delta float64) {
	if camera == nil {
		return
	}
	if !o.ready {
		o.sync(camera)
	}

	o.dTheta += o.AutoRotate * delta

	step := o.Damping
	if step <= 0 || step > 1 {
		step = 1
	}
	o.theta += o.dTheta * step
	o.phi += o.dPhi * step
	o.dTheta *= 1 - step
	o.dPhi *= 1 - step

	const eps = 1e-6
	maxPolar := o.MaxPolar
	if maxPolar <= 0 || maxPolar > math.Pi-eps {
		maxPolar = math.Pi - eps
	}
	o.phi = common.Clamp(o.phi, eps, maxPolar)

	o.radius *= o.zoom
	o.zoom = 1
	if o.MinDistance > 0 || o.MaxDistance > 0 {
		lo, hi := o.MinDistance, o.MaxDistance
		if hi <= 0 {
			hi = math.Inf(1)
		}
		o.radius = common.Clamp(o.radius, lo, hi)
	}

	sinPhi := math.Sin(o.phi)
	camera.Eye = camera.Target.Add(mgl64.Vec3{
		o.radius * sinPhi * math.Sin(o.theta),
		o.radius * math.Cos(o.phi),
		o.radius * sinPhi * math.Cos(o.theta),
	})
}

// Follow keeps the camera at a fixed offset from a moving target, easing
// toward it.
type Follow struct {
	Target func() (mgl64.Vec3, bool)
	Offset mgl64.Vec3
	// Smooth is the fraction of the remaining distance covered per frame.
	// Zero or one snaps.
	Smooth float64
}

func (f *Follow) Update(camera *Camera, delta float64) {
	if camera == nil || f.Target == nil {
		return
	}
	target, ok := f.Target()
	if !ok {
		return
	}
	if f.Smooth <= 0 || f.Smooth >= 1 {
		camera.Target = target
	} else {
		camera.Target = camera.Target.Add(target.Sub(camera.Target).Mul(f.Smooth))
	}
	camera.Eye = camera.Target.Add(f.Offset)
}
