// Package dispatch interprets action descriptors against a set of effect handlers.
//
// Resolution for one action is an ordered chain: a custom handler registered for
// the type, then the built-in table, then the unknown-type no-op. SEQUENCE,
// API_CALL and CONDITIONAL recurse through Dispatch, so nested steps see the
// handler set that is current when each step starts.
package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/AaronLay10/SentientUI/internal/action"
	"github.com/AaronLay10/SentientUI/internal/condition"
	"github.com/AaronLay10/SentientUI/internal/events"
)

// Func dispatches one action.
type Func func(ctx context.Context, a action.Action) error

// Callback is a zero-argument trigger synthesized from an action.
type Callback = func() error

// CustomHandler fully replaces built-in handling for one action type.
type CustomHandler func(ctx context.Context, a action.Action) error

// Handlers are the host's effect callbacks. Any of them may be nil, in which case
// the matching action is a no-op. Arguments follow the wire field order.
type Handlers struct {
	Navigate           func(ctx context.Context, screen string, params map[string]any) error
	GoBack             func(ctx context.Context) error
	OpenURL            func(ctx context.Context, url string, external bool) error
	AddToCart          func(ctx context.Context, productID string, quantity int) error
	UpdateCartQuantity func(ctx context.Context, productID string, quantity int) error
	RemoveFromCart     func(ctx context.Context, productID string) error
	ToggleFavorite     func(ctx context.Context, productID string) error
	APICall            func(ctx context.Context, endpoint, method string, body any) (any, error)
	ShowToast          func(ctx context.Context, message, status string, duration int) error
	ShowModal          func(ctx context.Context, modalID string, props map[string]any) error
	CloseModal         func(ctx context.Context, modalID string) error
	Share              func(ctx context.Context, title, message, url string) error
	TrackEvent         func(ctx context.Context, event string, properties map[string]any) error
	Refresh            func(ctx context.Context, sectionID string) error

	// Custom overrides built-in handling per type, including types the
	// built-in table does not know.
	Custom map[action.Type]CustomHandler
}

func (h Handlers) clone() *Handlers {
	cpy := h
	if h.Custom != nil {
		cpy.Custom = make(map[action.Type]CustomHandler, len(h.Custom))
		for t, fn := range h.Custom {
			cpy.Custom[t] = fn
		}
	}
	return &cpy
}

// ConditionEvaluator decides CONDITIONAL branches.
type ConditionEvaluator interface {
	Eval(expr string, ctx *condition.EvalContext) (bool, error)
}

// StateFunc supplies the condition state for one dispatch.
type StateFunc func(ctx context.Context) map[string]any

// Dispatcher executes actions. It holds no per-dispatch state and is safe for
// concurrent use.
type Dispatcher struct {
	handlers   atomic.Pointer[Handlers]
	conditions ConditionEvaluator
	state      StateFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConditions enables CONDITIONAL branching. Without it CONDITIONAL is a no-op.
func WithConditions(ev ConditionEvaluator, state StateFunc) Option {
	return func(d *Dispatcher) {
		d.conditions = ev
		d.state = state
	}
}

// New creates a dispatcher over h.
func New(h Handlers, opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	d.handlers.Store(h.clone())
	for _, o := range opts {
		o(d)
	}
	return d
}

// SetHandlers replaces the handler set. Steps of a SEQUENCE or API_CALL chain
// that start after the swap use the new set.
func (d *Dispatcher) SetHandlers(h Handlers) {
	d.handlers.Store(h.clone())
}

// Dispatch executes a. Unknown types and missing handlers are no-ops; handler
// errors are returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, a action.Action) error {
	h := d.handlers.Load()
	events.Emit("debug", "action.dispatched", "", map[string]interface{}{
		"action_type": string(a.Type),
	})
	return d.resolve(h, a.Type)(ctx, a)
}

// Func returns Dispatch as a Func value.
func (d *Dispatcher) Func() Func {
	return d.Dispatch
}

// MapActionsToProps synthesizes one callback per action through d.
func (d *Dispatcher) MapActionsToProps(ctx context.Context, actions map[string]action.Action) map[string]Callback {
	return MapActionsToProps(ctx, d.Dispatch, actions)
}

// MapActionsToProps turns a property-name -> action map into property-name ->
// callback. Each callback dispatches its action through fn when invoked. A nil
// or empty map, or a nil fn, yields an empty map.
func MapActionsToProps(ctx context.Context, fn Func, actions map[string]action.Action) map[string]Callback {
	out := make(map[string]Callback, len(actions))
	if fn == nil {
		return out
	}
	for name, a := range actions {
		out[name] = func() error {
			return fn(ctx, a)
		}
	}
	return out
}

type step func(ctx context.Context, a action.Action) error

func (d *Dispatcher) resolve(h *Handlers, t action.Type) step {
	if custom, ok := h.Custom[t]; ok && custom != nil {
		return step(custom)
	}
	if run, ok := builtins[t]; ok {
		return func(ctx context.Context, a action.Action) error {
			return run(d, h, ctx, a)
		}
	}
	return unknown
}

func unknown(_ context.Context, a action.Action) error {
	events.Emit("warn", "action.unknown", "unknown action type", map[string]interface{}{
		"action_type": string(a.Type),
	})
	return nil
}
