package action

import (
	"fmt"
)

// ValidationResult contains the outcome of validating an action tree.
// Warnings never affect Valid.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Err returns the first validation error, or nil if valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid action: %s", r.Errors[0])
}

// Validate checks required variant fields for a and every nested action.
// The dispatcher never calls this; it is meant for payloads entering the host.
func Validate(a Action) *ValidationResult {
	result := &ValidationResult{Valid: true}
	validateInto(a, "action", result)
	return result
}

func validateInto(a Action, path string, result *ValidationResult) {
	fail := func(format string, args ...any) {
		result.Valid = false
		result.Errors = append(result.Errors, path+": "+fmt.Sprintf(format, args...))
	}

	if a.Type == "" {
		fail("missing type")
		return
	}
	if !Known(a.Type) {
		// Dispatch treats unknown types as no-ops or hands them to custom handlers.
		result.Warnings = append(result.Warnings, path+": unknown type "+string(a.Type))
		return
	}

	switch a.Type {
	case TypeNavigate:
		if a.Screen == "" {
			fail("NAVIGATE requires screen")
		}
	case TypeOpenURL:
		if a.URL == "" {
			fail("OPEN_URL requires url")
		}
	case TypeAddToCart, TypeRemoveFromCart, TypeToggleFavorite:
		if a.ProductID == "" {
			fail("%s requires productId", a.Type)
		}
	case TypeUpdateCartQuantity:
		if a.ProductID == "" {
			fail("UPDATE_CART_QUANTITY requires productId")
		}
	case TypeAPICall:
		if a.Endpoint == "" {
			fail("API_CALL requires endpoint")
		}
		if a.OnSuccess != nil {
			validateInto(*a.OnSuccess, path+".onSuccess", result)
		}
		if a.OnError != nil {
			validateInto(*a.OnError, path+".onError", result)
		}
	case TypeShowToast:
		if a.Message == "" {
			fail("SHOW_TOAST requires message")
		}
	case TypeShowModal:
		if a.ModalID == "" {
			fail("SHOW_MODAL requires modalId")
		}
	case TypeTrackEvent:
		if a.Event == "" {
			fail("TRACK_EVENT requires event")
		}
	case TypeSequence:
		for i, nested := range a.Actions {
			validateInto(nested, fmt.Sprintf("%s.actions[%d]", path, i), result)
		}
	case TypeConditional:
		if a.Condition == "" {
			fail("CONDITIONAL requires condition")
		}
		if a.OnTrue == nil {
			fail("CONDITIONAL requires onTrue")
		} else {
			validateInto(*a.OnTrue, path+".onTrue", result)
		}
		if a.OnFalse != nil {
			validateInto(*a.OnFalse, path+".onFalse", result)
		}
	}
}
