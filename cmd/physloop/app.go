package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/physloop/binding"
	"github.com/milk9111/physloop/clock"
	"github.com/milk9111/physloop/config"
	"github.com/milk9111/physloop/logging"
	"github.com/milk9111/physloop/loop"
	"github.com/milk9111/physloop/physics"
	"github.com/milk9111/physloop/render"
	"github.com/milk9111/physloop/scene"
	"github.com/milk9111/physloop/script"
	"github.com/milk9111/physloop/viewport"
)

// platform is what the app needs from its window or a headless stand-in.
type platform struct {
	scheduler   loop.Scheduler
	clock       *clock.Clock
	resize      loop.ResizeSource
	renderer    loop.Renderer
	deviceScale func() float64
	// input runs before the script each frame; nil in headless mode
	input func(a *app)
}

type app struct {
	cfgPath string
	cfg     config.Config

	world    *physics.World
	bindings *binding.Registry
	view     *render.Scene
	scene    *scene.Scene
	camera   *viewport.Camera
	orbit    *viewport.Orbit
	hook     *script.Hook
	watcher  *config.Watcher
	driver   *loop.Driver
	input    func(a *app)

	coordinator *viewport.Coordinator

	spawned int
	log     *slog.Logger
}

func newApp(cfgPath string, cfg config.Config, h platform) (*app, error) {
	a := &app{
		cfgPath: cfgPath,
		cfg:     cfg,
		input:   h.input,
		log:     logging.For("app"),
	}

	var err error
	a.world, err = physics.NewWorld(cfg.Physics())
	if err != nil {
		return nil, err
	}
	a.bindings = binding.NewRegistry(a.world)
	a.view = render.NewScene()
	a.scene, err = scene.Build(cfg, a.world, a.bindings, a.view)
	if err != nil {
		return nil, err
	}
	a.view.HUD = a.scene.HUD

	v := cfg.Viewport
	a.camera = viewport.NewCamera(v.Fov, v.Near, v.Far, v.Eye, v.Target)
	a.orbit = viewport.NewOrbit()
	a.orbit.Damping = v.Orbit.Damping
	a.orbit.AutoRotate = v.Orbit.AutoRotate

	src, err := script.LoadSource(cfg.Script.Path)
	if err != nil {
		return nil, err
	}
	a.hook, err = script.New(a.world, cfg.Script.Path, src)
	if err != nil {
		return nil, err
	}
	for _, e := range a.scene.Spheres() {
		a.hook.Expose(e.Name, e.Body)
	}

	a.coordinator = viewport.NewCoordinator(a.camera, h.renderer,
		viewport.WithMaxPixelScale(v.MaxPixelScale),
		viewport.WithDeviceScale(h.deviceScale))

	a.driver, err = loop.New(loop.Options{
		Scheduler:   h.scheduler,
		Clock:       h.clock,
		World:       a.world,
		Bindings:    a.bindings,
		Renderer:    h.renderer,
		Scene:       a.view,
		Camera:      a.camera,
		Resize:      h.resize,
		Resizer:     a.coordinator,
		Hook:        a.frame,
		Controller:  a.orbit,
		DeltaFilter: cfg.ClampDelta(),
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// watch starts reloading the config file and the script on change.
func (a *app) watch() error {
	dirs := map[string]bool{}
	for _, p := range []string{a.cfgPath, a.cfg.Script.Path} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			dirs[filepath.Dir(p)] = true
		}
	}
	if len(dirs) == 0 {
		a.log.Warn("nothing on disk to watch")
		return nil
	}
	list := make([]string, 0, len(dirs))
	for d := range dirs {
		list = append(list, d)
	}
	w, err := config.NewWatcher(list...)
	if err != nil {
		return fmt.Errorf("watch %v: %w", list, err)
	}
	a.watcher = w
	a.log.Info("watching for changes", "dirs", list)
	return nil
}

func (a *app) frame(delta, elapsed float64) error {
	if a.watcher != nil {
		for _, path := range a.watcher.Drain() {
			a.reload(path)
		}
	}
	if a.input != nil {
		a.input(a)
	}
	return a.hook.Run(delta, elapsed)
}

func samePath(a, b string) bool {
	pa, errA := filepath.Abs(a)
	pb, errB := filepath.Abs(b)
	return errA == nil && errB == nil && pa == pb
}

func (a *app) reload(path string) {
	switch {
	case config.IsConfigFile(path) && samePath(path, a.cfgPath):
		cfg, err := config.Load(a.cfgPath)
		if err != nil {
			a.log.Warn("config reload rejected", "path", path, "err", err)
			return
		}
		a.cfg.Placement = cfg.Placement
		a.cfg.Scene.Decorations = cfg.Scene.Decorations
		sum, err := a.scene.Scatter(a.cfg)
		if err != nil {
			a.log.Warn("rescatter failed", "err", err)
			return
		}
		a.log.Info("config reloaded", "placed", sum.Placed, "requested", sum.Requested)
	case config.IsScriptFile(path) && samePath(path, a.cfg.Script.Path):
		src, err := script.LoadSource(path)
		if err != nil {
			a.log.Warn("script read failed", "path", path, "err", err)
			return
		}
		if err := a.hook.Reload(src); err != nil {
			a.log.Warn("script reload rejected", "path", path, "err", err)
			return
		}
		a.log.Info("script reloaded", "path", path)
	}
}

// spawn drops an extra sphere above the scene and hands it to the script.
func (a *app) spawn() error {
	name := fmt.Sprintf("spawned-%d", a.spawned)
	sp := a.cfg.Scene.Spheres
	x := float64(a.spawned%5-2) * sp.Radius * 2
	e, err := a.scene.Spawn(name, mgl64.Vec3{x, sp.SpawnHeight, 0})
	if err != nil {
		return err
	}
	a.spawned++
	a.hook.Expose(e.Name, e.Body)
	return nil
}

func (a *app) close() {
	a.driver.Dispose()
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
}
