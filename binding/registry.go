// Package binding tracks which visual proxy represents which rigid body and
// copies body poses onto proxies once per frame.
package binding

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/physloop/logging"
	"github.com/milk9111/physloop/physics"
)

var (
	ErrDuplicateBinding = errors.New("binding: duplicate binding")
	ErrStaleBinding     = errors.New("binding: bound body no longer exists")
	ErrNilProxy         = errors.New("binding: proxy is nil")
)

// Proxy is the renderable side of a binding. Implementations must be
// comparable, in practice pointer types.
type Proxy interface {
	SetTransform(position mgl64.Vec3, orientation mgl64.Quat)
}

// Binding associates one body with one proxy. It owns neither.
type Binding struct {
	Body  physics.Handle
	Proxy Proxy
}

// Result tags the outcome of Bind.
type Result int

const (
	Bound Result = iota
	DuplicateBody
	DuplicateProxy
)

func (r Result) String() string {
	switch r {
	case Bound:
		return "bound"
	case DuplicateBody:
		return "duplicate-body"
	case DuplicateProxy:
		return "duplicate-proxy"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Registry holds one-to-one body/proxy bindings for a World.
type Registry struct {
	world   *physics.World
	byBody  sparseSet[Binding]
	byProxy map[Proxy]physics.Handle
	cancel  func()
	log     *slog.Logger
}

// NewRegistry returns a registry for world. Bodies removed from the world
// are unbound in the same call.
func NewRegistry(world *physics.World) *Registry {
	r := &Registry{
		world:   world,
		byProxy: make(map[Proxy]physics.Handle),
		log:     logging.For("binding"),
	}
	r.cancel = world.OnRemove(func(h physics.Handle) {
		r.Unbind(h)
	})
	return r
}

// Bind associates body and proxy. Either side already being bound is a
// caller bug and is reported both as a Result and as ErrDuplicateBinding.
func (r *Registry) Bind(body physics.Handle, proxy Proxy) (Result, error) {
	if proxy == nil {
		return Bound, ErrNilProxy
	}
	if !r.world.Alive(body) {
		return Bound, fmt.Errorf("binding: bind %v: %w", body, physics.ErrUnknownBody)
	}
	if r.byBody.has(body.Index()) {
		return DuplicateBody, fmt.Errorf("%w: body %v is already bound", ErrDuplicateBinding, body)
	}
	if other, ok := r.byProxy[proxy]; ok {
		return DuplicateProxy, fmt.Errorf("%w: proxy is already bound to body %v", ErrDuplicateBinding, other)
	}

	r.byBody.set(body.Index(), Binding{Body: body, Proxy: proxy})
	r.byProxy[proxy] = body
	return Bound, nil
}

// Unbind removes the binding of body, reporting whether one existed.
func (r *Registry) Unbind(body physics.Handle) bool {
	b, ok := r.byBody.get(body.Index())
	if !ok || b.Body != body {
		return false
	}
	r.byBody.remove(body.Index())
	delete(r.byProxy, b.Proxy)
	return true
}

// UnbindProxy removes the binding of proxy, reporting whether one existed.
func (r *Registry) UnbindProxy(proxy Proxy) bool {
	if proxy == nil {
		return false
	}
	body, ok := r.byProxy[proxy]
	if !ok {
		return false
	}
	return r.Unbind(body)
}

// Lookup returns the proxy bound to body.
func (r *Registry) Lookup(body physics.Handle) (Proxy, bool) {
	b, ok := r.byBody.get(body.Index())
	if !ok || b.Body != body {
		return nil, false
	}
	return b.Proxy, true
}

// RemoveBody unbinds body and removes it from the world as one operation.
func (r *Registry) RemoveBody(body physics.Handle) error {
	r.Unbind(body)
	return r.world.RemoveBody(body)
}

// Synchronize copies every bound body's pose onto its proxy. It must run
// once per frame, after the world step and before drawing.
func (r *Registry) Synchronize() error {
	for _, b := range r.byBody.values() {
		tr, err := r.world.Transform(b.Body)
		if err != nil {
			return fmt.Errorf("%w: %v: %v", ErrStaleBinding, b.Body, err)
		}
		b.Proxy.SetTransform(tr.Position, tr.Orientation)
	}
	return nil
}

// Bindings returns a snapshot of the active bindings.
func (r *Registry) Bindings() []Binding {
	return append([]Binding(nil), r.byBody.values()...)
}

// Len is the number of active bindings.
func (r *Registry) Len() int {
	return r.byBody.len()
}

// Clear drops every binding without touching bodies or proxies.
func (r *Registry) Clear() {
	n := r.byBody.len()
	r.byBody.clear()
	clear(r.byProxy)
	if n > 0 {
		r.log.Debug("bindings cleared", "count", n)
	}
}

// Close clears the registry and stops listening for body removal.
func (r *Registry) Close() {
	r.Clear()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
