// Package config loads the YAML settings for the world, loop, viewport,
// placement and demo scene.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/physloop/common"
	"github.com/milk9111/physloop/physics"
	"github.com/milk9111/physloop/placement"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

//go:embed default.yaml
var defaultYAML []byte

// DefaultPath is the file name Load falls back to embedded defaults for.
const DefaultPath = "physloop.yaml"

type Config struct {
	World     WorldSpec     `yaml:"world"`
	Loop      LoopSpec      `yaml:"loop"`
	Window    WindowSpec    `yaml:"window"`
	Viewport  ViewportSpec  `yaml:"viewport"`
	Placement PlacementSpec `yaml:"placement"`
	Scene     SceneSpec     `yaml:"scene"`
	Script    ScriptSpec    `yaml:"script"`
}

type WorldSpec struct {
	Gravity     mgl64.Vec3 `yaml:"gravity"`
	Friction    float64    `yaml:"friction"`
	Restitution float64    `yaml:"restitution"`
	Iterations  int        `yaml:"iterations"`
	MaxSubStep  float64    `yaml:"max_sub_step"`
	FixedStep   float64    `yaml:"fixed_step"`
	MaxSubSteps int        `yaml:"max_sub_steps"`
}

type LoopSpec struct {
	MaxDelta float64 `yaml:"max_delta"`
}

type WindowSpec struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type OrbitSpec struct {
	Damping    float64 `yaml:"damping"`
	AutoRotate float64 `yaml:"auto_rotate"`
}

type ViewportSpec struct {
	Fov           float64    `yaml:"fov"`
	Near          float64    `yaml:"near"`
	Far           float64    `yaml:"far"`
	Eye           mgl64.Vec3 `yaml:"eye"`
	Target        mgl64.Vec3 `yaml:"target"`
	MaxPixelScale float64    `yaml:"max_pixel_scale"`
	Orbit         OrbitSpec  `yaml:"orbit"`
}

type RegionSpec struct {
	Min mgl64.Vec3 `yaml:"min"`
	Max mgl64.Vec3 `yaml:"max"`
}

type PlacementSpec struct {
	Region                 RegionSpec `yaml:"region"`
	MarginFactor           float64    `yaml:"margin_factor"`
	ExclusionFactor        float64    `yaml:"exclusion_factor"`
	MaxAttempts            int        `yaml:"max_attempts_per_point"`
	MaxConsecutiveFailures int        `yaml:"max_consecutive_failures"`
	Policy                 string     `yaml:"policy"`
	RingRadius             float64    `yaml:"ring_radius"`
	RingHeight             float64    `yaml:"ring_height"`
	Seed                   int64      `yaml:"seed"`
}

type FloorSpec struct {
	Y     float64 `yaml:"y"`
	Color Color   `yaml:"color"`
}

type ObstacleSpec struct {
	Position    mgl64.Vec3 `yaml:"position"`
	HalfExtents mgl64.Vec3 `yaml:"half_extents"`
	Padding     float64    `yaml:"padding"`
	Color       Color      `yaml:"color"`
}

type SpheresSpec struct {
	Count       int     `yaml:"count"`
	Radius      float64 `yaml:"radius"`
	Mass        float64 `yaml:"mass"`
	SpawnHeight float64 `yaml:"spawn_height"`
	Spread      float64 `yaml:"spread"`
	Color       Color   `yaml:"color"`
}

type DecorationsSpec struct {
	Count  int     `yaml:"count"`
	Radius float64 `yaml:"radius"`
	Color  Color   `yaml:"color"`
}

type SceneSpec struct {
	Background  Color           `yaml:"background"`
	Floor       FloorSpec       `yaml:"floor"`
	Obstacle    ObstacleSpec    `yaml:"obstacle"`
	Spheres     SpheresSpec     `yaml:"spheres"`
	Decorations DecorationsSpec `yaml:"decorations"`
}

type ScriptSpec struct {
	Path string `yaml:"path"`
}

// Default returns the embedded defaults.
func Default() Config {
	var c Config
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return c
}

// Parse decodes data over the embedded defaults and validates the result.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads path from disk. A missing file yields the embedded defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if err := c.Physics().Validate(); err != nil {
		return fmt.Errorf("%w: world: %w", ErrInvalid, err)
	}
	pc, err := c.PlacementConfig()
	if err != nil {
		return fmt.Errorf("%w: placement: %w", ErrInvalid, err)
	}
	if err := pc.Validate(); err != nil {
		return fmt.Errorf("%w: placement: %w", ErrInvalid, err)
	}
	if !common.Finite(c.Loop.MaxDelta) || c.Loop.MaxDelta < 0 {
		return fmt.Errorf("%w: loop.max_delta %v", ErrInvalid, c.Loop.MaxDelta)
	}

	v := c.Viewport
	if v.Fov <= 0 || v.Fov >= 180 {
		return fmt.Errorf("%w: viewport.fov %v", ErrInvalid, v.Fov)
	}
	if v.Near <= 0 || v.Far <= v.Near {
		return fmt.Errorf("%w: viewport near/far %v/%v", ErrInvalid, v.Near, v.Far)
	}
	if v.MaxPixelScale <= 0 {
		return fmt.Errorf("%w: viewport.max_pixel_scale %v", ErrInvalid, v.MaxPixelScale)
	}
	if v.Orbit.Damping <= 0 || v.Orbit.Damping > 1 {
		return fmt.Errorf("%w: viewport.orbit.damping %v", ErrInvalid, v.Orbit.Damping)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}

	s := c.Scene
	if s.Spheres.Count < 0 || s.Decorations.Count < 0 {
		return fmt.Errorf("%w: negative scene counts", ErrInvalid)
	}
	if s.Spheres.Count > 0 && (s.Spheres.Radius <= 0 || s.Spheres.Mass <= 0) {
		return fmt.Errorf("%w: spheres need a positive radius and mass", ErrInvalid)
	}
	if s.Decorations.Count > 0 && s.Decorations.Radius <= 0 {
		return fmt.Errorf("%w: decorations.radius %v", ErrInvalid, s.Decorations.Radius)
	}
	h := s.Obstacle.HalfExtents
	if h[0] <= 0 || h[1] <= 0 || h[2] <= 0 {
		return fmt.Errorf("%w: obstacle.half_extents %v", ErrInvalid, h)
	}
	return nil
}

// Physics converts the world section.
func (c Config) Physics() physics.Config {
	w := c.World
	return physics.Config{
		Gravity:     w.Gravity,
		Material:    physics.Material{Friction: w.Friction, Restitution: w.Restitution},
		Iterations:  w.Iterations,
		MaxSubStep:  w.MaxSubStep,
		FixedStep:   w.FixedStep,
		MaxSubSteps: w.MaxSubSteps,
	}
}

// PlacementConfig converts the placement section.
func (c Config) PlacementConfig() (placement.Config, error) {
	p := c.Placement
	policy, err := placement.ParsePolicy(p.Policy)
	if err != nil {
		return placement.Config{}, err
	}
	return placement.Config{
		Region:                 placement.Region{Min: p.Region.Min, Max: p.Region.Max},
		MarginFactor:           p.MarginFactor,
		ExclusionFactor:        p.ExclusionFactor,
		MaxAttempts:            p.MaxAttempts,
		MaxConsecutiveFailures: p.MaxConsecutiveFailures,
		Policy:                 policy,
		RingRadius:             p.RingRadius,
		RingHeight:             p.RingHeight,
	}, nil
}

// Rand returns the placement random source.
func (c Config) Rand() *rand.Rand {
	return rand.New(rand.NewSource(c.Placement.Seed))
}

// ClampDelta returns the loop delta filter, or nil when clamping is off.
func (c Config) ClampDelta() func(float64) float64 {
	max := c.Loop.MaxDelta
	if max <= 0 {
		return nil
	}
	return func(d float64) float64 {
		return common.Clamp(d, 0, max)
	}
}
