package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := NewWorld(DefaultConfig())
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func fallingSphere(y float64) BodyDef {
	return BodyDef{
		Mass:     1,
		Shape:    Sphere(0.5),
		Position: mgl64.Vec3{0, y, -2},
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"nan_gravity", func(c *Config) { c.Gravity[1] = math.NaN() }},
		{"out_of_plane_gravity", func(c *Config) { c.Gravity[2] = -1 }},
		{"negative_friction", func(c *Config) { c.Material.Friction = -0.1 }},
		{"restitution_above_one", func(c *Config) { c.Material.Restitution = 1.5 }},
		{"inf_restitution", func(c *Config) { c.Material.Restitution = math.Inf(1) }},
		{"zero_iterations", func(c *Config) { c.Iterations = 0 }},
		{"zero_sub_step", func(c *Config) { c.MaxSubStep = 0 }},
		{"negative_fixed_step", func(c *Config) { c.FixedStep = -1 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(&cfg)
			if _, err := NewWorld(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfigureLockedAfterStep(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.AddBody(fallingSphere(5)); err != nil {
		t.Fatalf("AddBody: %v", err)
	}

	// reconfiguring before stepping is allowed, and a zero step does not lock
	cfg := DefaultConfig()
	cfg.Material.Friction = 0.1
	if err := w.Configure(cfg); err != nil {
		t.Fatalf("Configure before step: %v", err)
	}
	if err := w.Step(0); err != nil {
		t.Fatalf("Step(0): %v", err)
	}
	if err := w.Configure(cfg); err != nil {
		t.Fatalf("Configure after zero step: %v", err)
	}

	if err := w.Step(1.0 / 60); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if err := w.Configure(cfg); !errors.Is(err, ErrConfigLocked) {
		t.Fatalf("expected ErrConfigLocked, got %v", err)
	}
}

func TestAddBodyRejectsInvalidDefinitions(t *testing.T) {
	cases := []struct {
		name string
		def  BodyDef
	}{
		{"nan_position", BodyDef{Mass: 1, Shape: Sphere(1), Position: mgl64.Vec3{math.NaN(), 0, 0}}},
		{"inf_velocity", BodyDef{Mass: 1, Shape: Sphere(1), Velocity: mgl64.Vec3{math.Inf(1), 0, 0}}},
		{"negative_mass", BodyDef{Mass: -1, Shape: Sphere(1)}},
		{"zero_radius", BodyDef{Mass: 1, Shape: Sphere(0)}},
		{"flat_box", BodyDef{Mass: 1, Shape: Box(mgl64.Vec3{1, 0, 1})}},
		{"dynamic_plane", BodyDef{Mass: 1, Shape: Plane()}},
		{"no_shape", BodyDef{Mass: 1}},
		{"z_velocity", BodyDef{Mass: 1, Shape: Sphere(1), Velocity: mgl64.Vec3{0, 0, 1}}},
		{"tilted", BodyDef{Mass: 1, Shape: Sphere(1), Orientation: mgl64.QuatRotate(0.5, mgl64.Vec3{1, 0, 0})}},
		{"bad_material", BodyDef{Mass: 1, Shape: Sphere(1), Material: &Material{Friction: -1}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newTestWorld(t)
			if _, err := w.AddBody(c.def); !errors.Is(err, ErrInvalidBody) {
				t.Fatalf("expected ErrInvalidBody, got %v", err)
			}
			if w.Len() != 0 {
				t.Fatalf("rejected body must not be inserted, have %d bodies", w.Len())
			}
		})
	}
}

func TestStepZeroIsNoOp(t *testing.T) {
	w := newTestWorld(t)
	h, err := w.AddBody(BodyDef{
		Mass:        1,
		Shape:       Box(mgl64.Vec3{0.5, 0.5, 0.5}),
		Position:    mgl64.Vec3{1, 4, 0},
		Orientation: mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1}),
		Velocity:    mgl64.Vec3{2, 0, 0},
	})
	if err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	before, _ := w.Transform(h)
	if err := w.Step(0); err != nil {
		t.Fatalf("Step(0): %v", err)
	}
	after, _ := w.Transform(h)
	if before != after {
		t.Fatalf("Step(0) moved body: %v -> %v", before, after)
	}
	if w.Stepped() || w.Time() != 0 {
		t.Fatalf("Step(0) should not advance time")
	}
}

func TestStepRejectsInvalidDurations(t *testing.T) {
	w := newTestWorld(t)
	for _, dt := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		if err := w.Step(dt); !errors.Is(err, ErrInvalidStep) {
			t.Fatalf("Step(%v): expected ErrInvalidStep, got %v", dt, err)
		}
	}
}

func TestGravityMovesDynamicBodies(t *testing.T) {
	w := newTestWorld(t)
	dyn, _ := w.AddBody(fallingSphere(10))
	static, _ := w.AddBody(BodyDef{Shape: Box(mgl64.Vec3{1, 1, 1}), Position: mgl64.Vec3{20, 0, 0}})

	for i := 0; i < 30; i++ {
		if err := w.Step(1.0 / 60); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	tr, _ := w.Transform(dyn)
	if tr.Position[1] >= 10 {
		t.Fatalf("expected body to fall, y=%v", tr.Position[1])
	}
	if tr.Position[2] != -2 {
		t.Fatalf("depth must be preserved, z=%v", tr.Position[2])
	}
	st, _ := w.Transform(static)
	if st.Position != (mgl64.Vec3{20, 0, 0}) {
		t.Fatalf("static body moved to %v", st.Position)
	}
	if math.Abs(w.Time()-0.5) > 1e-9 {
		t.Fatalf("expected 0.5s logical time, got %v", w.Time())
	}
}

func TestFloorStopsFallingBody(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.AddBody(BodyDef{Shape: Plane()}); err != nil {
		t.Fatalf("AddBody plane: %v", err)
	}
	h, _ := w.AddBody(fallingSphere(2))
	for i := 0; i < 240; i++ {
		if err := w.Step(1.0 / 60); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	tr, _ := w.Transform(h)
	if tr.Position[1] < 0.3 || tr.Position[1] > 1 {
		t.Fatalf("expected sphere resting on the floor, y=%v", tr.Position[1])
	}
}

func TestFixedStepAccumulates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FixedStep = 0.25
	cfg.MaxSubSteps = 3
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}

	steps := []struct {
		dt   float64
		want float64
	}{
		{0.125, 0},
		{0.125, 0.25},
		{2, 1.0},
	}
	for i, s := range steps {
		if err := w.Step(s.dt); err != nil {
			t.Fatalf("Step: %v", err)
		}
		if w.Time() != s.want {
			t.Fatalf("step %d: time = %v, want %v", i, w.Time(), s.want)
		}
	}
}

func TestRemoveBodyInvalidatesHandle(t *testing.T) {
	w := newTestWorld(t)
	h1, _ := w.AddBody(fallingSphere(1))

	var removed []Handle
	cancel := w.OnRemove(func(h Handle) { removed = append(removed, h) })

	if err := w.RemoveBody(h1); err != nil {
		t.Fatalf("RemoveBody: %v", err)
	}
	if w.Alive(h1) {
		t.Fatalf("removed handle still alive")
	}
	if _, err := w.Transform(h1); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("expected ErrUnknownBody, got %v", err)
	}
	if err := w.RemoveBody(h1); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("second remove: expected ErrUnknownBody, got %v", err)
	}
	if len(removed) != 1 || removed[0] != h1 {
		t.Fatalf("listener saw %v", removed)
	}

	// the freed slot is reused with a new generation
	h2, _ := w.AddBody(fallingSphere(1))
	if h2.Index() != h1.Index() || h2 == h1 {
		t.Fatalf("expected slot reuse with new generation, got %v after %v", h2, h1)
	}
	if w.Alive(h1) {
		t.Fatalf("stale handle resolved after slot reuse")
	}

	cancel()
	_ = w.RemoveBody(h2)
	if len(removed) != 1 {
		t.Fatalf("cancelled listener still called")
	}
}

func TestOrientationRoundTrip(t *testing.T) {
	w := newTestWorld(t)
	q := mgl64.QuatRotate(math.Pi/3, mgl64.Vec3{0, 0, 1})
	h, err := w.AddBody(BodyDef{Mass: 1, Shape: Sphere(1), Orientation: q})
	if err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	tr, _ := w.Transform(h)
	if !tr.Orientation.ApproxEqualThreshold(q, 1e-12) {
		t.Fatalf("orientation = %v, want %v", tr.Orientation, q)
	}
}

func TestImpulseAndVelocity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = mgl64.Vec3{}
	w, _ := NewWorld(cfg)
	h, _ := w.AddBody(BodyDef{Mass: 2, Shape: Sphere(1)})

	if err := w.ApplyImpulse(h, mgl64.Vec3{4, 0, 0}); err != nil {
		t.Fatalf("ApplyImpulse: %v", err)
	}
	v, _ := w.Velocity(h)
	if math.Abs(v[0]-2) > 1e-9 {
		t.Fatalf("expected vx=2, got %v", v)
	}
	if err := w.SetVelocity(h, mgl64.Vec3{0, 1, 0}); err != nil {
		t.Fatalf("SetVelocity: %v", err)
	}
	if err := w.ApplyImpulse(h, mgl64.Vec3{0, 0, 1}); !errors.Is(err, ErrInvalidBody) {
		t.Fatalf("expected out-of-plane impulse rejection, got %v", err)
	}
}

func TestSensorDoesNotBlock(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.AddBody(BodyDef{Shape: Box(mgl64.Vec3{5, 0.5, 1}), Position: mgl64.Vec3{0, 2, 0}, Sensor: true}); err != nil {
		t.Fatalf("AddBody sensor: %v", err)
	}
	h, _ := w.AddBody(fallingSphere(4))
	for i := 0; i < 90; i++ {
		if err := w.Step(1.0 / 60); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	tr, _ := w.Transform(h)
	if tr.Position[1] > 1 {
		t.Fatalf("sphere held up by a sensor, y=%v", tr.Position[1])
	}
}
