// Package effects performs the side effects actions describe, against a
// per-user Session.
package effects

import (
	"context"
	"errors"
	"fmt"

	"github.com/AaronLay10/SentientUI/internal/action"
	"github.com/AaronLay10/SentientUI/internal/condition"
	"github.com/AaronLay10/SentientUI/internal/dispatch"
	"github.com/AaronLay10/SentientUI/internal/events"
)

const (
	DefaultQuantity      = 1
	DefaultToastDuration = 3000
)

// Fetcher performs the network call behind API_CALL.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint, method string, body any) (any, error)
}

// AnalyticsSink receives TRACK_EVENT payloads.
type AnalyticsSink interface {
	Track(ctx context.Context, sessionID, event string, properties map[string]interface{}) error
}

// SessionHandler handles one action type against a session.
type SessionHandler func(ctx context.Context, s *Session, a action.Action) error

// Host builds handler sets bound to sessions.
type Host struct {
	fetcher Fetcher
	sinks   []AnalyticsSink
	custom  map[action.Type]SessionHandler
}

type Option func(*Host)

// WithFetcher enables API_CALL. Without a fetcher API_CALL is a no-op.
func WithFetcher(f Fetcher) Option {
	return func(h *Host) { h.fetcher = f }
}

// WithAnalytics adds TRACK_EVENT sinks.
func WithAnalytics(sinks ...AnalyticsSink) Option {
	return func(h *Host) { h.sinks = append(h.sinks, sinks...) }
}

// WithCustom routes actions of type t to fn, ahead of any built-in handling.
// t need not be one of the built-in types.
func WithCustom(t action.Type, fn SessionHandler) Option {
	return func(h *Host) {
		if h.custom == nil {
			h.custom = make(map[action.Type]SessionHandler)
		}
		h.custom[t] = fn
	}
}

func NewHost(opts ...Option) *Host {
	h := &Host{}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Dispatcher returns a dispatcher over s. A non-nil ev enables CONDITIONAL
// against the session state.
func (h *Host) Dispatcher(s *Session, ev *condition.Evaluator) *dispatch.Dispatcher {
	var opts []dispatch.Option
	if ev != nil {
		opts = append(opts, dispatch.WithConditions(ev, func(context.Context) map[string]any {
			return s.State()
		}))
	}
	return dispatch.New(h.Handlers(s), opts...)
}

// Handlers binds every effect to s. Each effect emits an effect.* event.
func (h *Host) Handlers(s *Session) dispatch.Handlers {
	emit := func(name string, fields map[string]interface{}) {
		fields["session_id"] = s.ID
		events.Emit("info", name, "", fields)
	}

	hs := dispatch.Handlers{
		Navigate: func(_ context.Context, screen string, params map[string]any) error {
			s.Navigate(screen, params)
			emit("effect.navigate", map[string]interface{}{"screen": screen})
			return nil
		},
		GoBack: func(context.Context) error {
			popped := s.GoBack()
			emit("effect.go_back", map[string]interface{}{
				"popped": popped,
				"screen": s.Current().Screen,
			})
			return nil
		},
		OpenURL: func(_ context.Context, url string, external bool) error {
			s.OpenURL(OpenedURL{URL: url, External: external})
			emit("effect.open_url", map[string]interface{}{"url": url, "external": external})
			return nil
		},
		AddToCart: func(_ context.Context, productID string, quantity int) error {
			if quantity <= 0 {
				quantity = DefaultQuantity
			}
			total := s.AddToCart(productID, quantity)
			emit("effect.cart_updated", map[string]interface{}{
				"op":         "add",
				"product_id": productID,
				"quantity":   total,
			})
			return nil
		},
		UpdateCartQuantity: func(_ context.Context, productID string, quantity int) error {
			s.SetCartQuantity(productID, quantity)
			emit("effect.cart_updated", map[string]interface{}{
				"op":         "update",
				"product_id": productID,
				"quantity":   quantity,
			})
			return nil
		},
		RemoveFromCart: func(_ context.Context, productID string) error {
			s.RemoveFromCart(productID)
			emit("effect.cart_updated", map[string]interface{}{
				"op":         "remove",
				"product_id": productID,
			})
			return nil
		},
		ToggleFavorite: func(_ context.Context, productID string) error {
			on := s.ToggleFavorite(productID)
			emit("effect.favorite_toggled", map[string]interface{}{
				"product_id": productID,
				"favorite":   on,
			})
			return nil
		},
		ShowToast: func(_ context.Context, message, status string, duration int) error {
			if duration <= 0 {
				duration = DefaultToastDuration
			}
			s.PushToast(Toast{Message: message, Status: status, DurationMS: duration})
			emit("effect.toast", map[string]interface{}{"message": message, "status": status})
			return nil
		},
		ShowModal: func(_ context.Context, modalID string, props map[string]any) error {
			s.ShowModal(Modal{ID: modalID, Props: props})
			emit("effect.modal_shown", map[string]interface{}{"modal_id": modalID})
			return nil
		},
		CloseModal: func(_ context.Context, modalID string) error {
			closed := s.CloseModal(modalID)
			emit("effect.modal_closed", map[string]interface{}{"modal_id": modalID, "closed": closed})
			return nil
		},
		Share: func(_ context.Context, title, message, url string) error {
			s.Share(ShareRecord{Title: title, Message: message, URL: url})
			emit("effect.share", map[string]interface{}{"title": title, "url": url})
			return nil
		},
		TrackEvent: func(ctx context.Context, event string, properties map[string]any) error {
			emit("effect.track", map[string]interface{}{"event": event})
			return h.track(ctx, s.ID, event, properties)
		},
		Refresh: func(_ context.Context, sectionID string) error {
			s.RequestRefresh(sectionID)
			emit("effect.refresh", map[string]interface{}{"section_id": sectionID})
			return nil
		},
	}

	if h.fetcher != nil {
		hs.APICall = func(ctx context.Context, endpoint, method string, body any) (any, error) {
			res, err := h.fetcher.Fetch(ctx, endpoint, method, body)
			fields := map[string]interface{}{"endpoint": endpoint, "method": method, "ok": err == nil}
			emit("effect.api_call", fields)
			return res, err
		}
	}
	if len(h.custom) > 0 {
		hs.Custom = make(map[action.Type]dispatch.CustomHandler, len(h.custom))
		for t, fn := range h.custom {
			hs.Custom[t] = func(ctx context.Context, a action.Action) error {
				return fn(ctx, s, a)
			}
		}
	}
	return hs
}

// track fans out to every sink. All sinks run; their errors are joined.
func (h *Host) track(ctx context.Context, sessionID, event string, properties map[string]any) error {
	var errs []error
	for _, sink := range h.sinks {
		if err := sink.Track(ctx, sessionID, event, properties); err != nil {
			errs = append(errs, fmt.Errorf("analytics sink: %w", err))
		}
	}
	return errors.Join(errs...)
}
