// Package loop drives the per-frame sequence: tick the clock, step the
// world, synchronize bindings, run the hook, move the camera, draw.
package loop

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/milk9111/physloop/clock"
	"github.com/milk9111/physloop/logging"
	"github.com/milk9111/physloop/viewport"
)

var (
	ErrDisposed          = errors.New("loop: driver disposed")
	ErrMissingDependency = errors.New("loop: missing dependency")
)

// World is the simulation stepped each frame.
type World interface {
	Step(dt float64) error
}

// Bindings copies simulation state onto visuals.
type Bindings interface {
	Synchronize() error
	Clear()
}

// Renderer is the rendering collaborator. scene is an opaque handle owned
// by the renderer.
type Renderer interface {
	viewport.Output
	Render(scene any, camera *viewport.Camera) error
	ReleaseResources()
}

// Resizer reacts to surface size changes.
type Resizer interface {
	OnResize(width, height int)
}

// Hook is an optional per-frame extension called after synchronization.
type Hook func(delta, elapsed float64) error

// State is the driver lifecycle state.
type State int

const (
	Stopped State = iota
	Running
	Disposed
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Options struct {
	Scheduler Scheduler
	World     World
	Bindings  Bindings
	Renderer  Renderer
	Scene     any
	Camera    *viewport.Camera

	// Clock defaults to a wall clock.
	Clock *clock.Clock
	// Resize and Resizer are wired together on Start. A nil Resizer with a
	// non-nil Resize gets a viewport.Coordinator for Camera and Renderer.
	Resize  ResizeSource
	Resizer Resizer

	Hook       Hook
	Controller viewport.Controller
	// DeltaFilter lets the caller clamp or rescale the frame delta before
	// it reaches the world. The driver applies no policy of its own.
	DeltaFilter func(delta float64) float64
}

// Driver owns the render loop lifecycle.
type Driver struct {
	opts  Options
	clock *clock.Clock

	state       State
	token       Token
	pending     bool
	unsubscribe func()
	frames      uint64
	err         error

	log *slog.Logger
}

func New(opts Options) (*Driver, error) {
	switch {
	case opts.Scheduler == nil:
		return nil, fmt.Errorf("%w: scheduler", ErrMissingDependency)
	case opts.World == nil:
		return nil, fmt.Errorf("%w: world", ErrMissingDependency)
	case opts.Bindings == nil:
		return nil, fmt.Errorf("%w: bindings", ErrMissingDependency)
	case opts.Renderer == nil:
		return nil, fmt.Errorf("%w: renderer", ErrMissingDependency)
	case opts.Camera == nil:
		return nil, fmt.Errorf("%w: camera", ErrMissingDependency)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New(nil)
	}
	if opts.Resize != nil && opts.Resizer == nil {
		opts.Resizer = viewport.NewCoordinator(opts.Camera, opts.Renderer)
	}
	return &Driver{
		opts:  opts,
		clock: opts.Clock,
		state: Stopped,
		log:   logging.For("loop"),
	}, nil
}

// Start begins requesting frames. Starting a running driver does nothing.
func (d *Driver) Start() error {
	switch d.state {
	case Disposed:
		return ErrDisposed
	case Running:
		return nil
	}

	d.err = nil
	d.clock.Reset()
	if d.opts.Resize != nil && d.unsubscribe == nil {
		d.unsubscribe = d.opts.Resize.OnResize(d.opts.Resizer.OnResize)
	}
	d.state = Running
	d.request()
	d.log.Info("render loop started")
	return nil
}

// Stop cancels the pending frame. The driver can be started again.
func (d *Driver) Stop() {
	if d.state != Running {
		return
	}
	d.cancel()
	d.state = Stopped
	d.log.Info("render loop stopped", "frames", d.frames)
}

// Dispose cancels the pending frame, detaches from resize notifications,
// releases renderer resources and clears all bindings. It is safe to call
// in any state and more than once.
func (d *Driver) Dispose() {
	if d.state == Disposed {
		return
	}
	d.cancel()
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.opts.Renderer.ReleaseResources()
	d.opts.Bindings.Clear()
	d.state = Disposed
	d.log.Info("render loop disposed", "frames", d.frames)
}

func (d *Driver) request() {
	d.token = d.opts.Scheduler.RequestFrame(d.frame)
	d.pending = true
}

func (d *Driver) cancel() {
	if !d.pending {
		return
	}
	d.opts.Scheduler.CancelFrame(d.token)
	d.pending = false
}

func (d *Driver) frame() error {
	d.pending = false
	if d.state != Running {
		return nil
	}
	if err := d.step(); err != nil {
		d.err = err
		if d.state == Running {
			d.state = Stopped
		}
		d.log.Error("frame failed, loop stopped", "frame", d.frames+1, "err", err)
		return err
	}
	// the hook may have stopped or disposed the driver
	if d.state != Running {
		return nil
	}
	d.frames++
	if !d.pending {
		d.request()
	}
	return nil
}

func (d *Driver) step() error {
	st := d.clock.Tick()
	delta := st.Delta
	if d.opts.DeltaFilter != nil {
		delta = d.opts.DeltaFilter(delta)
	}

	if err := d.opts.World.Step(delta); err != nil {
		return fmt.Errorf("loop: step world: %w", err)
	}
	if err := d.opts.Bindings.Synchronize(); err != nil {
		return fmt.Errorf("loop: synchronize: %w", err)
	}
	if d.opts.Hook != nil {
		if err := d.opts.Hook(delta, st.Elapsed); err != nil {
			return fmt.Errorf("loop: frame hook: %w", err)
		}
		if d.state != Running {
			return nil
		}
	}
	if d.opts.Controller != nil {
		d.opts.Controller.Update(d.opts.Camera, delta)
	}
	if d.state != Running {
		return nil
	}
	if err := d.opts.Renderer.Render(d.opts.Scene, d.opts.Camera); err != nil {
		return fmt.Errorf("loop: render: %w", err)
	}
	return nil
}

func (d *Driver) State() State {
	return d.state
}

// Frames is the number of completed frames.
func (d *Driver) Frames() uint64 {
	return d.frames
}

// Err is the error that stopped the loop, if any.
func (d *Driver) Err() error {
	return d.err
}
