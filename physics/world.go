// Package physics wraps a Chipmunk space behind the world adapter used by
// the render loop.
//
// Chipmunk is a 2D integrator: bodies move in the XY plane and keep their
// Z coordinate as a fixed depth layer.
package physics

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/physloop/clock"
	"github.com/milk9111/physloop/common"
	"github.com/milk9111/physloop/logging"
)

// Config holds the global simulation parameters.
type Config struct {
	Gravity  mgl64.Vec3
	Material Material
	// Iterations is the solver iteration count per sub-step.
	Iterations int
	// MaxSubStep bounds the size of one integrator sub-step in seconds.
	MaxSubStep float64
	// FixedStep, when positive, switches Step to fixed-step accumulation.
	FixedStep float64
	// MaxSubSteps limits fixed steps per Step call; 0 means unlimited.
	MaxSubSteps int
}

// DefaultConfig returns earth gravity along -Y with a mildly bouncy
// default material.
func DefaultConfig() Config {
	return Config{
		Gravity:    mgl64.Vec3{0, -9.81, 0},
		Material:   Material{Friction: 0.5, Restitution: 0.2},
		Iterations: 10,
		MaxSubStep: 1.0 / 60.0,
	}
}

// Validate reports whether c is usable by NewWorld.
func (c Config) Validate() error {
	if !finiteVec(c.Gravity) {
		return fmt.Errorf("%w: gravity %v is not finite", ErrInvalidConfig, c.Gravity)
	}
	if c.Gravity[2] != 0 {
		return fmt.Errorf("%w: gravity %v leaves the XY simulation plane", ErrInvalidConfig, c.Gravity)
	}
	if err := c.Material.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations %d", ErrInvalidConfig, c.Iterations)
	}
	if !common.Finite(c.MaxSubStep) || c.MaxSubStep <= 0 {
		return fmt.Errorf("%w: max sub-step %v", ErrInvalidConfig, c.MaxSubStep)
	}
	if !common.Finite(c.FixedStep) || c.FixedStep < 0 {
		return fmt.Errorf("%w: fixed step %v", ErrInvalidConfig, c.FixedStep)
	}
	if c.MaxSubSteps < 0 {
		return fmt.Errorf("%w: max sub-steps %d", ErrInvalidConfig, c.MaxSubSteps)
	}
	return nil
}

// World owns the Chipmunk space and every body registered with it.
type World struct {
	cfg   Config
	space *cp.Space
	store bodyStore

	acc     *clock.Accumulator
	stepped bool
	time    float64

	listeners  map[int]func(Handle)
	listenerID int

	log *slog.Logger
}

// NewWorld creates a configured world.
func NewWorld(cfg Config) (*World, error) {
	w := &World{
		space:     cp.NewSpace(),
		listeners: make(map[int]func(Handle)),
		log:       logging.For("physics"),
	}
	if err := w.Configure(cfg); err != nil {
		return nil, err
	}
	return w, nil
}

// Configure applies global parameters. It may be repeated until the first
// non-zero Step; afterwards it returns ErrConfigLocked. Bodies without a
// material override pick up the new default material.
func (w *World) Configure(cfg Config) error {
	if w.stepped {
		return ErrConfigLocked
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	w.cfg = cfg
	w.space.Iterations = uint(cfg.Iterations)
	w.space.SetGravity(cp.Vector{X: cfg.Gravity[0], Y: cfg.Gravity[1]})
	w.acc = nil
	if cfg.FixedStep > 0 {
		w.acc = clock.NewAccumulator(cfg.FixedStep, cfg.MaxSubSteps)
	}
	w.store.each(func(_ Handle, b *rigidBody) {
		if !b.custom {
			b.applyMaterial(cfg.Material)
		}
	})

	w.log.Debug("world configured", "gravity", cfg.Gravity, "friction", cfg.Material.Friction, "restitution", cfg.Material.Restitution)
	return nil
}

// Config returns the active configuration.
func (w *World) Config() Config {
	return w.cfg
}

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// AddBody validates def and registers a new body.
func (w *World) AddBody(def BodyDef) (Handle, error) {
	if err := def.validate(); err != nil {
		return 0, err
	}

	rb := newRigidBody(def, w.cfg.Material)
	w.space.AddBody(rb.body)
	for _, s := range rb.shapes {
		w.space.AddShape(s)
	}

	h := w.store.insert(rb)
	w.log.Debug("body added", "handle", h, "shape", def.Shape.Kind, "mass", def.Mass)
	return h, nil
}

// RemoveBody unregisters a body and notifies removal listeners.
func (w *World) RemoveBody(h Handle) error {
	rb := w.store.remove(h)
	if rb == nil {
		return fmt.Errorf("%w: %v", ErrUnknownBody, h)
	}
	for _, s := range rb.shapes {
		w.space.RemoveShape(s)
	}
	w.space.RemoveBody(rb.body)

	for _, fn := range w.listeners {
		fn(h)
	}
	w.log.Debug("body removed", "handle", h)
	return nil
}

// OnRemove registers fn to run after a body is removed. The returned
// function unregisters it.
func (w *World) OnRemove(fn func(Handle)) func() {
	if fn == nil {
		return func() {}
	}
	w.listenerID++
	id := w.listenerID
	w.listeners[id] = fn
	return func() { delete(w.listeners, id) }
}

// Step advances the simulation by dt seconds. A zero dt does nothing.
func (w *World) Step(dt float64) error {
	if !common.Finite(dt) || dt < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidStep, dt)
	}
	if dt == 0 {
		return nil
	}
	w.stepped = true

	if w.acc != nil {
		n := w.acc.Advance(dt)
		h := w.acc.Step()
		for i := 0; i < n; i++ {
			w.space.Step(h)
		}
		w.time += float64(n) * h
		return nil
	}

	n := int(math.Ceil(dt / w.cfg.MaxSubStep))
	if n < 1 {
		n = 1
	}
	h := dt / float64(n)
	for i := 0; i < n; i++ {
		w.space.Step(h)
	}
	w.time += dt
	return nil
}

// Time is the logical simulation time advanced so far.
func (w *World) Time() float64 {
	return w.time
}

// Stepped reports whether a non-zero Step has run.
func (w *World) Stepped() bool {
	return w.stepped
}

// Len is the number of registered bodies.
func (w *World) Len() int {
	return w.store.count
}

// Alive reports whether h refers to a registered body.
func (w *World) Alive(h Handle) bool {
	return w.store.get(h) != nil
}

func (w *World) lookup(h Handle) (*rigidBody, error) {
	rb := w.store.get(h)
	if rb == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownBody, h)
	}
	return rb, nil
}

// Transform returns the current pose of a body.
func (w *World) Transform(h Handle) (Transform, error) {
	rb, err := w.lookup(h)
	if err != nil {
		return Transform{}, err
	}
	return rb.transform(), nil
}

// Velocity returns the linear velocity of a body.
func (w *World) Velocity(h Handle) (mgl64.Vec3, error) {
	rb, err := w.lookup(h)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	v := rb.body.Velocity()
	return mgl64.Vec3{v.X, v.Y, 0}, nil
}

// SetVelocity overwrites the linear velocity of a dynamic body.
func (w *World) SetVelocity(h Handle, v mgl64.Vec3) error {
	rb, err := w.lookup(h)
	if err != nil {
		return err
	}
	if !finiteVec(v) || v[2] != 0 {
		return fmt.Errorf("%w: velocity %v", ErrInvalidBody, v)
	}
	if rb.static {
		return nil
	}
	rb.body.SetVelocity(v[0], v[1])
	return nil
}

// ApplyImpulse applies an impulse at the body's center of mass.
func (w *World) ApplyImpulse(h Handle, impulse mgl64.Vec3) error {
	rb, err := w.lookup(h)
	if err != nil {
		return err
	}
	if !finiteVec(impulse) || impulse[2] != 0 {
		return fmt.Errorf("%w: impulse %v", ErrInvalidBody, impulse)
	}
	if rb.static {
		return nil
	}
	rb.body.ApplyImpulseAtWorldPoint(cp.Vector{X: impulse[0], Y: impulse[1]}, rb.body.Position())
	return nil
}

// Handles returns every live handle in slot order.
func (w *World) Handles() []Handle {
	out := make([]Handle, 0, w.store.count)
	w.store.each(func(h Handle, _ *rigidBody) {
		out = append(out, h)
	})
	return out
}
