package placement

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newSampler(t *testing.T, cfg Config, seed int64) *Sampler {
	t.Helper()
	s, err := NewSampler(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	return s
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted_region", func(c *Config) { c.Region.Min[0] = 4 }},
		{"nan_region", func(c *Config) { c.Region.Max[1] = math.NaN() }},
		{"negative_margin", func(c *Config) { c.MarginFactor = -1 }},
		{"zero_attempts", func(c *Config) { c.MaxAttempts = 0 }},
		{"negative_failures", func(c *Config) { c.MaxConsecutiveFailures = -1 }},
		{"skip_without_ceiling", func(c *Config) { c.MaxConsecutiveFailures = 0 }},
		{"ring_without_radius", func(c *Config) { c.Policy = PolicyRing; c.RingRadius = 0 }},
		{"unknown_policy", func(c *Config) { c.Policy = 7 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(&cfg)
			if _, err := NewSampler(cfg, nil); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in   string
		want FailurePolicy
		ok   bool
	}{
		{"", PolicySkip, true},
		{"skip", PolicySkip, true},
		{"ring", PolicyRing, true},
		{"retry", 0, false},
	}
	for _, c := range cases {
		got, err := ParsePolicy(c.in)
		if (err == nil) != c.ok || (c.ok && got != c.want) {
			t.Fatalf("ParsePolicy(%q) = %v, %v", c.in, got, err)
		}
	}
}

func TestPlaceKeepsMarginFromObstacle(t *testing.T) {
	cfg := DefaultConfig()
	obstacle := Sphere{Radius: 1}
	for seed := int64(0); seed < 20; seed++ {
		s := newSampler(t, cfg, seed)
		set := NewConstraintSet(obstacle)
		p, out := s.Place(set, 0.05)
		if out != Placed {
			continue
		}
		if d := p.Len(); d < 0.05*1.5+1 {
			t.Fatalf("seed %d: point %v is %v from the obstacle center", seed, p, d)
		}
	}
}

func TestPlaceKeepsExclusionBetweenPoints(t *testing.T) {
	cfg := DefaultConfig()
	// a tiny region forces candidates close together
	cfg.Region = Cube(0.1)
	cfg.MaxAttempts = 50
	s := newSampler(t, cfg, 7)
	set := NewConstraintSet(nil)

	a, outA := s.Place(set, 0.05)
	if outA != Placed {
		t.Fatalf("first point should always fit, got %v", outA)
	}
	b, outB := s.Place(set, 0.05)
	switch outB {
	case Placed:
		if d := a.Sub(b).Len(); d < 0.125 {
			t.Fatalf("points %v and %v are %v apart", a, b, d)
		}
	case Skipped:
		if set.Len() != 1 {
			t.Fatalf("skipped point was recorded")
		}
	default:
		t.Fatalf("unexpected outcome %v", outB)
	}
}

func TestSessionEndsAfterConsecutiveFailures(t *testing.T) {
	cases := []struct {
		name      string
		requested int
	}{
		{"fewer_requested_than_ceiling", 3},
		{"more_requested_than_ceiling", 100},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Region = Cube(0.5)
			cfg.MaxAttempts = 20
			cfg.MaxConsecutiveFailures = 5
			s := newSampler(t, cfg, 1)

			// the region lies entirely inside the obstacle
			set := NewConstraintSet(Sphere{Radius: 10})
			sum := s.Run(set, c.requested, func(int) float64 { return 0.05 })

			if !sum.Terminated {
				t.Fatalf("session should terminate")
			}
			if sum.Placed != 0 || sum.Failures != 5 || sum.Skipped != c.requested {
				t.Fatalf("summary = %+v", sum)
			}
			if set.Len() != 0 {
				t.Fatalf("unsatisfiable session accepted %d points", set.Len())
			}
		})
	}
}

func TestSessionRetriesFailedPlacements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 1
	cfg.MaxConsecutiveFailures = 1000
	s := newSampler(t, cfg, 9)

	// half the region is blocked, so single attempts fail often
	set := NewConstraintSet(BoxAround(mgl64.Vec3{-1.5, 0, 0}, mgl64.Vec3{1.5, 3, 3}, 0))
	sum := s.Run(set, 40, func(int) float64 { return 0.01 })

	if sum.Terminated {
		t.Fatalf("session terminated: %+v", sum)
	}
	if sum.Placed != 40 || sum.Skipped != 0 || len(sum.Points) != 40 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Failures == 0 {
		t.Fatalf("expected some failed placements to be retried")
	}
}

func TestInvalidRadius(t *testing.T) {
	for _, r := range []float64{-0.5, math.NaN(), math.Inf(1)} {
		s := newSampler(t, DefaultConfig(), 1)
		set := NewConstraintSet(Sphere{Radius: 1})
		if _, out := s.Place(set, r); out != Skipped {
			t.Fatalf("Place(%v) = %v, want skipped", r, out)
		}
		sum := s.Run(set, 4, func(int) float64 { return r })
		if !sum.Terminated || sum.Placed != 0 || sum.Skipped != 4 || set.Len() != 0 {
			t.Fatalf("radius %v: summary = %+v", r, sum)
		}
	}
}

func TestRingFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Region = Cube(0.5)
	cfg.MaxAttempts = 10
	cfg.MaxConsecutiveFailures = 2
	cfg.Policy = PolicyRing
	cfg.RingRadius = 4
	cfg.RingHeight = 1
	s := newSampler(t, cfg, 3)

	set := NewConstraintSet(Sphere{Radius: 10})
	sum := s.Run(set, 6, func(int) float64 { return 0.05 })

	if sum.Terminated {
		t.Fatalf("ring policy must not terminate the session")
	}
	if sum.Fallbacks != 6 || len(sum.Points) != 6 || set.Len() != 6 {
		t.Fatalf("summary = %+v", sum)
	}
	for _, p := range sum.Points {
		r := math.Hypot(p[0], p[2])
		if math.Abs(r-4) > 1e-9 || p[1] != 1 {
			t.Fatalf("fallback point %v is off the ring", p)
		}
	}
	if sum.Points[0] == sum.Points[1] {
		t.Fatalf("successive fallbacks share a position")
	}
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	cfg := DefaultConfig()
	obstacle := BoxAround(mgl64.Vec3{}, mgl64.Vec3{1, 0.25, 0.1}, 0.1)
	radius := func(int) float64 { return 0.05 }

	a := newSampler(t, cfg, 42).Run(NewConstraintSet(obstacle), 40, radius)
	b := newSampler(t, cfg, 42).Run(NewConstraintSet(obstacle), 40, radius)
	if len(a.Points) != len(b.Points) {
		t.Fatalf("point counts differ: %d vs %d", len(a.Points), len(b.Points))
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("point %d differs", i)
		}
		if obstacle.IntersectsSphere(a.Points[i], 0.05*1.5) {
			t.Fatalf("point %v intersects the padded box", a.Points[i])
		}
	}
	if a.Placed != 40 {
		t.Fatalf("expected all 40 points to fit, placed %d", a.Placed)
	}
}

func TestBoxIntersectsSphere(t *testing.T) {
	b := BoxAround(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, 0.5)
	cases := []struct {
		center mgl64.Vec3
		radius float64
		want   bool
	}{
		{mgl64.Vec3{0, 0, 0}, 0.1, true},
		{mgl64.Vec3{1.4, 0, 0}, 0.01, true},
		{mgl64.Vec3{2, 0, 0}, 0.4, false},
		{mgl64.Vec3{2, 0, 0}, 0.6, true},
		{mgl64.Vec3{2, 2, 0}, 0.7, false},
	}
	for _, c := range cases {
		if got := b.IntersectsSphere(c.center, c.radius); got != c.want {
			t.Fatalf("IntersectsSphere(%v, %v) = %v, want %v", c.center, c.radius, got, c.want)
		}
	}
}

func TestConstraintSetReset(t *testing.T) {
	s := newSampler(t, DefaultConfig(), 5)
	set := NewConstraintSet(nil)
	s.Run(set, 3, nil)
	if set.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", set.Len())
	}
	pts := set.Points()
	pts[0] = mgl64.Vec3{99, 99, 99}
	if set.Points()[0] == pts[0] {
		t.Fatalf("Points must return a copy")
	}
	set.Reset()
	if set.Len() != 0 {
		t.Fatalf("Reset left %d points", set.Len())
	}
}
