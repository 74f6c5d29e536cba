// Package script runs a tengo per-frame hook with access to named bodies.
package script

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/physloop/logging"
	"github.com/milk9111/physloop/physics"
)

// Engine is the part of the world scripts may touch.
type Engine interface {
	ApplyImpulse(h physics.Handle, impulse mgl64.Vec3) error
	Transform(h physics.Handle) (physics.Transform, error)
}

const dispatchScript = `
update(__engine, __state, __delta, __elapsed)
`

// Hook runs a script's update function once per frame. Scripts define
//
//	update := func(engine, state, delta, elapsed) { ... }
//
// state persists across frames and reloads.
type Hook struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
	engine   Engine
	bodies   map[string]physics.Handle
	log      *slog.Logger
}

// New compiles src. name is used in log lines and errors.
func New(engine Engine, name string, src []byte) (*Hook, error) {
	h := &Hook{
		name:   name,
		state:  &tengo.Map{Value: map[string]tengo.Object{}},
		engine: engine,
		bodies: map[string]physics.Handle{},
		log:    logging.For("script").With("script", name),
	}
	compiled, err := compile(src)
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	h.compiled = compiled
	return h, nil
}

func compile(src []byte) (*tengo.Compiled, error) {
	full := string(src) + "\n" + dispatchScript
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__state", map[string]any{})
	_ = s.Add("__delta", 0.0)
	_ = s.Add("__elapsed", 0.0)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	return s.Compile()
}

// Reload swaps in src. A source that fails to compile leaves the current
// script running.
func (h *Hook) Reload(src []byte) error {
	compiled, err := compile(src)
	if err != nil {
		return fmt.Errorf("script: compile %s: %w", h.name, err)
	}
	h.compiled = compiled
	return nil
}

// Expose makes a body reachable from the script under name.
func (h *Hook) Expose(name string, body physics.Handle) {
	h.bodies[name] = body
}

// Forget removes a named body.
func (h *Hook) Forget(name string) {
	delete(h.bodies, name)
}

// State returns a script state value converted to Go.
func (h *Hook) State(key string) any {
	v, ok := h.state.Value[key]
	if !ok {
		return nil
	}
	return objectToAny(v)
}

// Run executes one update. It has the loop.Hook signature.
func (h *Hook) Run(delta, elapsed float64) error {
	if err := h.compiled.Set("__engine", h.engineMap()); err != nil {
		return err
	}
	if err := h.compiled.Set("__state", h.state); err != nil {
		return err
	}
	if err := h.compiled.Set("__delta", delta); err != nil {
		return err
	}
	if err := h.compiled.Set("__elapsed", elapsed); err != nil {
		return err
	}
	if err := h.compiled.Run(); err != nil {
		return fmt.Errorf("script: %s: %w", h.name, err)
	}
	return nil
}

func (h *Hook) names() []string {
	out := make([]string, 0, len(h.bodies))
	for name := range h.bodies {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (h *Hook) engineMap() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["bodies"] = &tengo.UserFunction{Name: "bodies", Value: func(args ...tengo.Object) (tengo.Object, error) {
		names := h.names()
		arr := make([]tengo.Object, 0, len(names))
		for _, n := range names {
			arr = append(arr, &tengo.String{Value: n})
		}
		return &tengo.Array{Value: arr}, nil
	}}

	values["apply_impulse"] = &tengo.UserFunction{Name: "apply_impulse", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return tengo.FalseValue, nil
		}
		body, ok := h.bodies[objectAsString(args[0])]
		if !ok {
			return tengo.FalseValue, nil
		}
		x, okX := tengo.ToFloat64(args[1])
		y, okY := tengo.ToFloat64(args[2])
		if !okX || !okY {
			return tengo.FalseValue, nil
		}
		if err := h.engine.ApplyImpulse(body, mgl64.Vec3{x, y, 0}); err != nil {
			h.log.Debug("apply_impulse failed", "body", objectAsString(args[0]), "err", err)
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.UndefinedValue, nil
		}
		body, ok := h.bodies[objectAsString(args[0])]
		if !ok {
			return tengo.UndefinedValue, nil
		}
		tr, err := h.engine.Transform(body)
		if err != nil {
			return tengo.UndefinedValue, nil
		}
		p := tr.Position
		return &tengo.Array{Value: []tengo.Object{
			&tengo.Float{Value: p[0]},
			&tengo.Float{Value: p[1]},
			&tengo.Float{Value: p[2]},
		}}, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		h.log.Info(strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
