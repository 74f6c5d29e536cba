// Package placement scatters points around a fixed obstacle by rejection
// sampling, keeping them apart from each other.
package placement

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/physloop/common"
	"github.com/milk9111/physloop/logging"
)

var ErrInvalidConfig = errors.New("placement: invalid config")

// FailurePolicy decides what happens when a point exhausts its attempts.
type FailurePolicy int

const (
	// PolicySkip reports the point as skipped. Consecutive skips count
	// toward session termination.
	PolicySkip FailurePolicy = iota
	// PolicyRing places the point on a ring around the origin instead.
	// Sessions never terminate early under this policy.
	PolicyRing
)

func (p FailurePolicy) String() string {
	switch p {
	case PolicySkip:
		return "skip"
	case PolicyRing:
		return "ring"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParsePolicy maps "skip" and "ring" to a FailurePolicy.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "skip":
		return PolicySkip, nil
	case "ring":
		return PolicyRing, nil
	}
	return 0, fmt.Errorf("%w: unknown failure policy %q", ErrInvalidConfig, s)
}

type Config struct {
	Region Region
	// MarginFactor scales the radius kept clear of the obstacle.
	MarginFactor float64
	// ExclusionFactor scales the new point's radius into the minimum
	// distance from every accepted point.
	ExclusionFactor float64
	MaxAttempts     int
	// MaxConsecutiveFailures ends a session once that many placements in a
	// row fail. Required under PolicySkip; PolicyRing never fails a
	// placement.
	MaxConsecutiveFailures int

	Policy     FailurePolicy
	RingRadius float64
	RingHeight float64
}

func DefaultConfig() Config {
	return Config{
		Region:                 Cube(3),
		MarginFactor:           1.5,
		ExclusionFactor:        2.5,
		MaxAttempts:            500,
		MaxConsecutiveFailures: 50,
		Policy:                 PolicySkip,
		RingRadius:             4,
	}
}

func (c Config) Validate() error {
	if !c.Region.valid() {
		return fmt.Errorf("%w: region %v..%v", ErrInvalidConfig, c.Region.Min, c.Region.Max)
	}
	if !common.Finite(c.MarginFactor, c.ExclusionFactor, c.RingRadius, c.RingHeight) {
		return fmt.Errorf("%w: non-finite factor", ErrInvalidConfig)
	}
	if c.MarginFactor < 0 || c.ExclusionFactor < 0 {
		return fmt.Errorf("%w: negative margin or exclusion factor", ErrInvalidConfig)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("%w: max consecutive failures %d", ErrInvalidConfig, c.MaxConsecutiveFailures)
	}
	switch c.Policy {
	case PolicySkip:
		if c.MaxConsecutiveFailures == 0 {
			return fmt.Errorf("%w: skip policy needs a consecutive failure ceiling", ErrInvalidConfig)
		}
	case PolicyRing:
		if c.RingRadius <= 0 {
			return fmt.Errorf("%w: ring radius %v", ErrInvalidConfig, c.RingRadius)
		}
	default:
		return fmt.Errorf("%w: policy %v", ErrInvalidConfig, c.Policy)
	}
	return nil
}

// Outcome is the result of one placement.
type Outcome int

const (
	Placed Outcome = iota
	Skipped
	Fallback
)

func (o Outcome) String() string {
	switch o {
	case Placed:
		return "placed"
	case Skipped:
		return "skipped"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Summary aggregates a session. Skipped counts requests left unplaced;
// Failures counts every placement that exhausted its attempts.
type Summary struct {
	Requested  int
	Placed     int
	Fallbacks  int
	Skipped    int
	Failures   int
	Terminated bool
	Points     []mgl64.Vec3
}

// goldenAngle spreads successive ring positions without clustering.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// Sampler draws candidates from a seeded source.
type Sampler struct {
	cfg       Config
	rng       *rand.Rand
	fallbacks int
	log       *slog.Logger
}

// NewSampler validates cfg. A nil rng is seeded from 1.
func NewSampler(cfg Config, rng *rand.Rand) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Sampler{cfg: cfg, rng: rng, log: logging.For("placement")}, nil
}

func (s *Sampler) Config() Config {
	return s.cfg
}

func (s *Sampler) candidate() mgl64.Vec3 {
	var p mgl64.Vec3
	for i := 0; i < 3; i++ {
		p[i] = common.Lerp(s.cfg.Region.Min[i], s.cfg.Region.Max[i], s.rng.Float64())
	}
	return p
}

// Place finds a position for a point of the given radius. On success the
// point joins set. Under PolicyRing an exhausted search returns a ring
// position, which also joins set. A negative or non-finite radius is
// always Skipped.
func (s *Sampler) Place(set *ConstraintSet, radius float64) (mgl64.Vec3, Outcome) {
	if !validRadius(radius) {
		return mgl64.Vec3{}, Skipped
	}
	margin := radius * s.cfg.MarginFactor
	exclusion := radius * s.cfg.ExclusionFactor

	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		p := s.candidate()
		if set.clearOfObstacle(p, margin) && set.clearOfPoints(p, exclusion) {
			set.accept(p)
			return p, Placed
		}
	}

	if s.cfg.Policy == PolicyRing {
		angle := float64(s.fallbacks) * goldenAngle
		s.fallbacks++
		p := mgl64.Vec3{
			s.cfg.RingRadius * math.Cos(angle),
			s.cfg.RingHeight,
			s.cfg.RingRadius * math.Sin(angle),
		}
		set.accept(p)
		return p, Fallback
	}
	return mgl64.Vec3{}, Skipped
}

// Run keeps placing points until requested of them are placed or the
// session terminates. A failed placement is retried for the same request.
// radius returns the radius of the i-th request; nil means every point has
// radius 0. An invalid radius ends the session.
func (s *Sampler) Run(set *ConstraintSet, requested int, radius func(i int) float64) Summary {
	sum := Summary{Requested: requested}
	consecutive := 0

	for !sum.Terminated && sum.Placed+sum.Fallbacks < requested {
		i := sum.Placed + sum.Fallbacks
		r := 0.0
		if radius != nil {
			r = radius(i)
		}
		if !validRadius(r) {
			s.log.Warn("invalid placement radius, session ended", "request", i, "radius", r)
			sum.Failures++
			sum.Terminated = true
			break
		}
		p, out := s.Place(set, r)
		switch out {
		case Placed:
			sum.Placed++
			consecutive = 0
			sum.Points = append(sum.Points, p)
		case Fallback:
			sum.Fallbacks++
			sum.Points = append(sum.Points, p)
		case Skipped:
			sum.Failures++
			consecutive++
			if consecutive >= s.cfg.MaxConsecutiveFailures {
				sum.Terminated = true
			}
		}
	}
	sum.Skipped = requested - sum.Placed - sum.Fallbacks
	if sum.Skipped < 0 {
		sum.Skipped = 0
	}

	s.log.Info("placement session finished",
		"requested", sum.Requested,
		"placed", sum.Placed,
		"fallbacks", sum.Fallbacks,
		"skipped", sum.Skipped,
		"failures", sum.Failures,
		"terminated", sum.Terminated)
	return sum
}

func validRadius(r float64) bool {
	return common.Finite(r) && r >= 0
}
