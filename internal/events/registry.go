package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// registry
	"registry.built": {},

	// render
	"render.completed":         {},
	"render.unknown_component": {},
	"render.condition_error":   {},
	"render.props_invalid":     {},

	// action
	"action.dispatched":      {},
	"action.unknown":         {},
	"action.failed":          {},
	"action.api_call_failed": {},
	"action.condition_error": {},

	// effect
	"effect.navigate":         {},
	"effect.go_back":          {},
	"effect.open_url":         {},
	"effect.cart_updated":     {},
	"effect.favorite_toggled": {},
	"effect.api_call":         {},
	"effect.toast":            {},
	"effect.modal_shown":      {},
	"effect.modal_closed":     {},
	"effect.share":            {},
	"effect.track":            {},
	"effect.refresh":          {},

	// screen
	"screen.received": {},
	"screen.rejected": {},

	// session
	"session.created": {},
	"session.expired": {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
