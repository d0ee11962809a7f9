package dispatch

import (
	"context"

	"github.com/AaronLay10/SentientUI/internal/action"
	"github.com/AaronLay10/SentientUI/internal/condition"
	"github.com/AaronLay10/SentientUI/internal/events"
)

type builtin func(d *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error

// builtins is filled in init because the control-flow entries call back into
// Dispatch, which reads this table.
var builtins map[action.Type]builtin

func init() {
	builtins = map[action.Type]builtin{
		action.TypeNavigate: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.Navigate == nil {
				return nil
			}
			return h.Navigate(ctx, a.Screen, a.Params)
		},
		action.TypeGoBack: func(_ *Dispatcher, h *Handlers, ctx context.Context, _ action.Action) error {
			if h.GoBack == nil {
				return nil
			}
			return h.GoBack(ctx)
		},
		action.TypeOpenURL: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.OpenURL == nil {
				return nil
			}
			return h.OpenURL(ctx, a.URL, a.External)
		},
		action.TypeAddToCart: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.AddToCart == nil {
				return nil
			}
			return h.AddToCart(ctx, a.ProductID, a.Quantity)
		},
		action.TypeUpdateCartQuantity: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.UpdateCartQuantity == nil {
				return nil
			}
			return h.UpdateCartQuantity(ctx, a.ProductID, a.Quantity)
		},
		action.TypeRemoveFromCart: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.RemoveFromCart == nil {
				return nil
			}
			return h.RemoveFromCart(ctx, a.ProductID)
		},
		action.TypeToggleFavorite: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.ToggleFavorite == nil {
				return nil
			}
			return h.ToggleFavorite(ctx, a.ProductID)
		},
		action.TypeShowToast: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.ShowToast == nil {
				return nil
			}
			return h.ShowToast(ctx, a.Message, a.Status, a.Duration)
		},
		action.TypeShowModal: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.ShowModal == nil {
				return nil
			}
			return h.ShowModal(ctx, a.ModalID, a.Props)
		},
		action.TypeCloseModal: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.CloseModal == nil {
				return nil
			}
			return h.CloseModal(ctx, a.ModalID)
		},
		action.TypeShare: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.Share == nil {
				return nil
			}
			return h.Share(ctx, a.Title, a.Message, a.URL)
		},
		action.TypeTrackEvent: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.TrackEvent == nil {
				return nil
			}
			return h.TrackEvent(ctx, a.Event, a.Properties)
		},
		action.TypeRefresh: func(_ *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
			if h.Refresh == nil {
				return nil
			}
			return h.Refresh(ctx, a.SectionID)
		},
		action.TypeAPICall:     runAPICall,
		action.TypeSequence:    runSequence,
		action.TypeConditional: runConditional,
		action.TypeNoop: func(*Dispatcher, *Handlers, context.Context, action.Action) error {
			return nil
		},
	}
}

// runAPICall never returns the network error: a failure runs onError when present
// and is otherwise dropped. Errors from the continuations themselves propagate.
func runAPICall(d *Dispatcher, h *Handlers, ctx context.Context, a action.Action) error {
	if h.APICall == nil {
		return nil
	}
	if _, err := h.APICall(ctx, a.Endpoint, a.Method, a.Body); err != nil {
		events.Emit("warn", "action.api_call_failed", err.Error(), map[string]interface{}{
			"endpoint":  a.Endpoint,
			"method":    a.Method,
			"has_error": a.OnError != nil,
		})
		if a.OnError != nil {
			return d.Dispatch(ctx, *a.OnError)
		}
		return nil
	}
	if a.OnSuccess != nil {
		return d.Dispatch(ctx, *a.OnSuccess)
	}
	return nil
}

// runSequence runs steps strictly in order and stops at the first error.
func runSequence(d *Dispatcher, _ *Handlers, ctx context.Context, a action.Action) error {
	for _, next := range a.Actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Dispatch(ctx, next); err != nil {
			return err
		}
	}
	return nil
}

// runConditional is a no-op unless the dispatcher was built WithConditions.
func runConditional(d *Dispatcher, _ *Handlers, ctx context.Context, a action.Action) error {
	if d.conditions == nil {
		return nil
	}

	var state map[string]any
	if d.state != nil {
		state = d.state(ctx)
	}
	ok, err := d.conditions.Eval(a.Condition, &condition.EvalContext{State: state})
	if err != nil {
		events.Emit("warn", "action.condition_error", err.Error(), map[string]interface{}{
			"condition": a.Condition,
		})
		return nil
	}

	switch {
	case ok && a.OnTrue != nil:
		return d.Dispatch(ctx, *a.OnTrue)
	case !ok && a.OnFalse != nil:
		return d.Dispatch(ctx, *a.OnFalse)
	}
	return nil
}
