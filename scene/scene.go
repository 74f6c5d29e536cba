// Package scene builds the demo content: a floor, a fixed obstacle, a set
// of falling spheres and decorations scattered around the obstacle.
package scene

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/physloop/binding"
	"github.com/milk9111/physloop/config"
	"github.com/milk9111/physloop/logging"
	"github.com/milk9111/physloop/physics"
	"github.com/milk9111/physloop/placement"
	"github.com/milk9111/physloop/render"
)

// floorHalfLength is the drawn half length of the floor line.
const floorHalfLength = 20

// Entry is one body with its sprite.
type Entry struct {
	Name   string
	Body   physics.Handle
	Sprite *render.Sprite
}

type Scene struct {
	cfg      config.SceneSpec
	world    *physics.World
	bindings *binding.Registry
	view     *render.Scene

	floor       Entry
	obstacle    Entry
	spheres     []Entry
	decorations []Entry
	summary     placement.Summary

	log *slog.Logger
}

// Build populates world, bindings and view from cfg and scatters the
// decorations.
func Build(cfg config.Config, world *physics.World, bindings *binding.Registry, view *render.Scene) (*Scene, error) {
	s := &Scene{
		cfg:      cfg.Scene,
		world:    world,
		bindings: bindings,
		view:     view,
		log:      logging.For("scene"),
	}

	floor, err := s.add("floor", physics.BodyDef{
		Shape:    physics.Plane(),
		Position: mgl64.Vec3{0, cfg.Scene.Floor.Y, 0},
	}, render.NewLine(floorHalfLength, cfg.Scene.Floor.Color.RGBA))
	if err != nil {
		return nil, err
	}
	s.floor = floor

	ob := cfg.Scene.Obstacle
	obstacle, err := s.add("obstacle", physics.BodyDef{
		Shape:    physics.Box(ob.HalfExtents),
		Position: ob.Position,
	}, render.NewQuad(ob.HalfExtents, ob.Color.RGBA))
	if err != nil {
		return nil, err
	}
	s.obstacle = obstacle

	sp := cfg.Scene.Spheres
	for i := 0; i < sp.Count; i++ {
		if _, err := s.Spawn(fmt.Sprintf("sphere-%d", i), spawnPosition(sp, i)); err != nil {
			return nil, err
		}
	}

	if _, err := s.Scatter(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func spawnPosition(sp config.SpheresSpec, i int) mgl64.Vec3 {
	x := 0.0
	if sp.Count > 1 {
		x = -sp.Spread/2 + sp.Spread*float64(i)/float64(sp.Count-1)
	}
	return mgl64.Vec3{x, sp.SpawnHeight + float64(i)*sp.Radius*1.5, 0}
}

func (s *Scene) add(name string, def physics.BodyDef, sprite *render.Sprite) (Entry, error) {
	h, err := s.world.AddBody(def)
	if err != nil {
		return Entry{}, fmt.Errorf("scene: add %s: %w", name, err)
	}
	sprite.Name = name
	tr, _ := s.world.Transform(h)
	sprite.SetTransform(tr.Position, tr.Orientation)
	if _, err := s.bindings.Bind(h, sprite); err != nil {
		_ = s.world.RemoveBody(h)
		return Entry{}, fmt.Errorf("scene: bind %s: %w", name, err)
	}
	s.view.Add(sprite)
	return Entry{Name: name, Body: h, Sprite: sprite}, nil
}

func (s *Scene) remove(e Entry) {
	if err := s.world.RemoveBody(e.Body); err != nil {
		s.log.Warn("remove body", "name", e.Name, "err", err)
	}
	s.view.Remove(e.Sprite)
}

// Spawn adds a dynamic sphere at position.
func (s *Scene) Spawn(name string, position mgl64.Vec3) (Entry, error) {
	sp := s.cfg.Spheres
	e, err := s.add(name, physics.BodyDef{
		Mass:     sp.Mass,
		Shape:    physics.Sphere(sp.Radius),
		Position: position,
	}, render.NewDisc(sp.Radius, sp.Color.RGBA))
	if err != nil {
		return Entry{}, err
	}
	s.spheres = append(s.spheres, e)
	return e, nil
}

// Scatter replaces the decorations with a fresh placement session using
// cfg's placement and decoration settings.
func (s *Scene) Scatter(cfg config.Config) (placement.Summary, error) {
	pc, err := cfg.PlacementConfig()
	if err != nil {
		return placement.Summary{}, err
	}
	sampler, err := placement.NewSampler(pc, cfg.Rand())
	if err != nil {
		return placement.Summary{}, err
	}

	for _, e := range s.decorations {
		s.remove(e)
	}
	s.decorations = s.decorations[:0]
	s.cfg.Decorations = cfg.Scene.Decorations

	ob := s.cfg.Obstacle
	set := placement.NewConstraintSet(placement.BoxAround(ob.Position, ob.HalfExtents, ob.Padding))
	dec := cfg.Scene.Decorations
	sum := sampler.Run(set, dec.Count, func(int) float64 { return dec.Radius })

	for i, p := range sum.Points {
		e, err := s.add(fmt.Sprintf("decoration-%d", i), physics.BodyDef{
			Shape:    physics.Sphere(dec.Radius),
			Position: p,
			Sensor:   true,
		}, render.NewDisc(dec.Radius, dec.Color.RGBA))
		if err != nil {
			return sum, err
		}
		s.decorations = append(s.decorations, e)
	}
	s.summary = sum
	return sum, nil
}

func (s *Scene) Spheres() []Entry {
	out := make([]Entry, len(s.spheres))
	copy(out, s.spheres)
	return out
}

func (s *Scene) Decorations() []Entry {
	out := make([]Entry, len(s.decorations))
	copy(out, s.decorations)
	return out
}

func (s *Scene) Obstacle() Entry {
	return s.obstacle
}

// Placement is the summary of the last scatter.
func (s *Scene) Placement() placement.Summary {
	return s.summary
}

// HUD returns overlay lines describing the scene.
func (s *Scene) HUD() []string {
	sum := s.summary
	return []string{
		fmt.Sprintf("bodies: %d  bindings: %d  sim time: %.2fs", s.world.Len(), s.bindings.Len(), s.world.Time()),
		fmt.Sprintf("decorations: %d/%d placed, %d fallback, %d skipped", sum.Placed, sum.Requested, sum.Fallbacks, sum.Skipped),
	}
}
