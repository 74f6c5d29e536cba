package binding

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/physloop/physics"
)

type fakeProxy struct {
	name        string
	position    mgl64.Vec3
	orientation mgl64.Quat
	updates     int
}

func (p *fakeProxy) SetTransform(position mgl64.Vec3, orientation mgl64.Quat) {
	p.position = position
	p.orientation = orientation
	p.updates++
}

func newWorld(t *testing.T) *physics.World {
	t.Helper()
	w, err := physics.NewWorld(physics.DefaultConfig())
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func addSphere(t *testing.T, w *physics.World, x, y float64) physics.Handle {
	t.Helper()
	h, err := w.AddBody(physics.BodyDef{
		Mass:            1,
		Shape:           physics.Sphere(0.25),
		Position:        mgl64.Vec3{x, y, 1},
		Velocity:        mgl64.Vec3{0.5, 0, 0},
		AngularVelocity: mgl64.Vec3{0, 0, 2},
	})
	if err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	return h
}

func TestBindDuplicates(t *testing.T) {
	w := newWorld(t)
	r := NewRegistry(w)
	b1 := addSphere(t, w, 0, 5)
	b2 := addSphere(t, w, 3, 5)
	p1 := &fakeProxy{name: "p1"}
	p2 := &fakeProxy{name: "p2"}

	cases := []struct {
		name    string
		body    physics.Handle
		proxy   Proxy
		want    Result
		wantErr bool
	}{
		{"first", b1, p1, Bound, false},
		{"same_body", b1, p2, DuplicateBody, true},
		{"same_proxy", b2, p1, DuplicateProxy, true},
		{"second", b2, p2, Bound, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := r.Bind(c.body, c.proxy)
			if got != c.want {
				t.Fatalf("Bind result = %v, want %v", got, c.want)
			}
			if c.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if c.wantErr && !errors.Is(err, ErrDuplicateBinding) {
				t.Fatalf("expected ErrDuplicateBinding, got %v", err)
			}
		})
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 bindings, got %d", r.Len())
	}
}

func TestBindRejectsUnknownBodyAndNilProxy(t *testing.T) {
	w := newWorld(t)
	r := NewRegistry(w)
	h := addSphere(t, w, 0, 0)
	if err := w.RemoveBody(h); err != nil {
		t.Fatalf("RemoveBody: %v", err)
	}
	if _, err := r.Bind(h, &fakeProxy{}); !errors.Is(err, physics.ErrUnknownBody) {
		t.Fatalf("expected ErrUnknownBody, got %v", err)
	}
	live := addSphere(t, w, 0, 0)
	if _, err := r.Bind(live, nil); !errors.Is(err, ErrNilProxy) {
		t.Fatalf("expected ErrNilProxy, got %v", err)
	}
}

func TestUnbindIsIdempotent(t *testing.T) {
	w := newWorld(t)
	r := NewRegistry(w)
	h := addSphere(t, w, 0, 0)
	p := &fakeProxy{}
	if _, err := r.Bind(h, p); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if !r.Unbind(h) {
		t.Fatalf("first Unbind should report a removed binding")
	}
	if r.Unbind(h) {
		t.Fatalf("second Unbind should be a no-op")
	}
	if r.UnbindProxy(p) {
		t.Fatalf("UnbindProxy on unbound proxy should be a no-op")
	}

	// the proxy is free again
	if _, err := r.Bind(h, p); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if !r.UnbindProxy(p) || r.Len() != 0 {
		t.Fatalf("UnbindProxy should remove the binding")
	}
}

func TestSynchronizeCopiesTransformsExactly(t *testing.T) {
	w := newWorld(t)
	r := NewRegistry(w)
	if _, err := w.AddBody(physics.BodyDef{Shape: physics.Plane()}); err != nil {
		t.Fatalf("AddBody plane: %v", err)
	}

	proxies := map[physics.Handle]*fakeProxy{}
	for i := 0; i < 4; i++ {
		h := addSphere(t, w, float64(i), 3+float64(i))
		p := &fakeProxy{}
		if _, err := r.Bind(h, p); err != nil {
			t.Fatalf("Bind: %v", err)
		}
		proxies[h] = p
	}

	for frame := 0; frame < 20; frame++ {
		if err := w.Step(1.0 / 60); err != nil {
			t.Fatalf("Step: %v", err)
		}
		if err := r.Synchronize(); err != nil {
			t.Fatalf("Synchronize: %v", err)
		}
		for h, p := range proxies {
			tr, err := w.Transform(h)
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if p.position != tr.Position || p.orientation != tr.Orientation {
				t.Fatalf("frame %d: proxy %v/%v != body %v/%v", frame, p.position, p.orientation, tr.Position, tr.Orientation)
			}
		}
	}
}

func TestRemovingBodyDropsBinding(t *testing.T) {
	w := newWorld(t)
	r := NewRegistry(w)
	keep := addSphere(t, w, 0, 0)
	gone := addSphere(t, w, 2, 0)
	pk, pg := &fakeProxy{}, &fakeProxy{}
	_, _ = r.Bind(keep, pk)
	_, _ = r.Bind(gone, pg)

	if err := w.RemoveBody(gone); err != nil {
		t.Fatalf("RemoveBody: %v", err)
	}
	if _, ok := r.Lookup(gone); ok {
		t.Fatalf("binding survived body removal")
	}
	if err := r.Synchronize(); err != nil {
		t.Fatalf("Synchronize after removal: %v", err)
	}
	if pg.updates != 0 {
		t.Fatalf("removed body's proxy was updated")
	}

	if err := r.RemoveBody(keep); err != nil {
		t.Fatalf("RemoveBody via registry: %v", err)
	}
	if r.Len() != 0 || w.Len() != 0 {
		t.Fatalf("expected empty registry and world, got %d/%d", r.Len(), w.Len())
	}
}

func TestSynchronizeReportsStaleBinding(t *testing.T) {
	w := newWorld(t)
	r := NewRegistry(w)
	h := addSphere(t, w, 0, 0)
	_, _ = r.Bind(h, &fakeProxy{})

	// detach the removal listener to simulate a caller removing the body
	// behind the registry's back
	r.cancel()
	if err := w.RemoveBody(h); err != nil {
		t.Fatalf("RemoveBody: %v", err)
	}
	if err := r.Synchronize(); !errors.Is(err, ErrStaleBinding) {
		t.Fatalf("expected ErrStaleBinding, got %v", err)
	}
}

func TestClear(t *testing.T) {
	w := newWorld(t)
	r := NewRegistry(w)
	for i := 0; i < 3; i++ {
		_, _ = r.Bind(addSphere(t, w, float64(i), 0), &fakeProxy{})
	}
	r.Close()
	if r.Len() != 0 || len(r.Bindings()) != 0 {
		t.Fatalf("expected no bindings after Close")
	}
	if w.Len() != 3 {
		t.Fatalf("Clear must not remove bodies, world has %d", w.Len())
	}
}
