package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/physloop/clock"
	"github.com/milk9111/physloop/config"
	"github.com/milk9111/physloop/host"
	"github.com/milk9111/physloop/logging"
	"github.com/milk9111/physloop/loop"
	"github.com/milk9111/physloop/render"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "path to the YAML config; embedded defaults when missing")
	headless := flag.Bool("headless", false, "run without a window")
	frames := flag.Int("frames", 600, "frames to simulate in headless mode")
	watch := flag.Bool("watch", false, "reload the config and script when they change on disk")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	if *headless {
		err = runHeadless(*cfgPath, cfg, *frames, *watch)
	} else {
		err = runWindow(*cfgPath, cfg, *watch)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// fixedSurface reports one size to every subscriber.
type fixedSurface struct {
	width, height int
}

func (s fixedSurface) OnResize(fn func(width, height int)) func() {
	fn(s.width, s.height)
	return func() {}
}

// stepTime advances by a fixed interval on every read.
type stepTime struct {
	t    time.Time
	step time.Duration
}

func (s *stepTime) now() time.Time {
	s.t = s.t.Add(s.step)
	return s.t
}

func runHeadless(cfgPath string, cfg config.Config, frames int, watch bool) error {
	sched := loop.NewManualScheduler()
	renderer := &render.Headless{}
	ts := &stepTime{t: time.Unix(0, 0), step: time.Second / 60}

	a, err := newApp(cfgPath, cfg, platform{
		scheduler: sched,
		clock:     clock.New(ts.now),
		resize:    fixedSurface{cfg.Window.Width, cfg.Window.Height},
		renderer:  renderer,
	})
	if err != nil {
		return err
	}
	defer a.close()
	if watch {
		if err := a.watch(); err != nil {
			return err
		}
	}

	if err := a.driver.Start(); err != nil {
		return err
	}
	for i := 0; i < frames; i++ {
		if _, err := sched.RunFrame(); err != nil {
			return err
		}
	}

	sum := a.scene.Placement()
	a.log.Info("headless run finished",
		"frames", renderer.Frames,
		"sim_time", a.world.Time(),
		"bodies", a.world.Len(),
		"placed", sum.Placed,
		"requested", sum.Requested)
	return nil
}

func runWindow(cfgPath string, cfg config.Config, watch bool) error {
	renderer, err := render.NewRenderer()
	if err != nil {
		return err
	}
	renderer.SetBackground(cfg.Scene.Background.RGBA)

	var a *app
	game := host.New(
		host.WithPresenter(renderer.Present),
		host.WithPixelScale(func() float64 {
			if a == nil {
				return 1
			}
			return a.coordinator.PixelScale()
		}),
	)

	a, err = newApp(cfgPath, cfg, platform{
		scheduler:   game,
		resize:      game,
		renderer:    renderer,
		deviceScale: host.DeviceScale,
		input: func(a *app) {
			keyboardInput(a)
			if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
				game.Close()
			}
		},
	})
	if err != nil {
		return err
	}
	defer a.close()
	if watch {
		if err := a.watch(); err != nil {
			return err
		}
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := a.driver.Start(); err != nil {
		return err
	}
	return ebiten.RunGame(game)
}
