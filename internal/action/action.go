package action

import (
	"encoding/json"
	"fmt"
)

// Type is the discriminator carried in every action's "type" field.
type Type string

const (
	TypeNavigate           Type = "NAVIGATE"
	TypeGoBack             Type = "GO_BACK"
	TypeOpenURL            Type = "OPEN_URL"
	TypeAddToCart          Type = "ADD_TO_CART"
	TypeUpdateCartQuantity Type = "UPDATE_CART_QUANTITY"
	TypeRemoveFromCart     Type = "REMOVE_FROM_CART"
	TypeToggleFavorite     Type = "TOGGLE_FAVORITE"
	TypeAPICall            Type = "API_CALL"
	TypeShowToast          Type = "SHOW_TOAST"
	TypeShowModal          Type = "SHOW_MODAL"
	TypeCloseModal         Type = "CLOSE_MODAL"
	TypeShare              Type = "SHARE"
	TypeTrackEvent         Type = "TRACK_EVENT"
	TypeRefresh            Type = "REFRESH"
	TypeSequence           Type = "SEQUENCE"
	TypeConditional        Type = "CONDITIONAL"
	TypeNoop               Type = "NOOP"
)

var knownTypes = map[Type]struct{}{
	TypeNavigate:           {},
	TypeGoBack:             {},
	TypeOpenURL:            {},
	TypeAddToCart:          {},
	TypeUpdateCartQuantity: {},
	TypeRemoveFromCart:     {},
	TypeToggleFavorite:     {},
	TypeAPICall:            {},
	TypeShowToast:          {},
	TypeShowModal:          {},
	TypeCloseModal:         {},
	TypeShare:              {},
	TypeTrackEvent:         {},
	TypeRefresh:            {},
	TypeSequence:           {},
	TypeConditional:        {},
	TypeNoop:               {},
}

// Known reports whether t is one of the built-in action types.
func Known(t Type) bool {
	_, ok := knownTypes[t]
	return ok
}

// Action is a serializable intent sent by the server.
// Only the fields documented for the action's Type are meaningful; the rest stay zero.
// Message, URL and Title are shared between SHOW_TOAST, OPEN_URL and SHARE.
type Action struct {
	Type Type `json:"type"`

	// NAVIGATE
	Screen string         `json:"screen,omitempty"`
	Params map[string]any `json:"params,omitempty"`

	// OPEN_URL, SHARE
	URL      string `json:"url,omitempty"`
	External bool   `json:"external,omitempty"`

	// cart and favorites
	ProductID string `json:"productId,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`

	// API_CALL
	Endpoint  string  `json:"endpoint,omitempty"`
	Method    string  `json:"method,omitempty"`
	Body      any     `json:"body,omitempty"`
	OnSuccess *Action `json:"onSuccess,omitempty"`
	OnError   *Action `json:"onError,omitempty"`

	// SHOW_TOAST, SHARE
	Message  string `json:"message,omitempty"`
	Status   string `json:"status,omitempty"`
	Duration int    `json:"duration,omitempty"`

	// SHOW_MODAL, CLOSE_MODAL
	ModalID string         `json:"modalId,omitempty"`
	Props   map[string]any `json:"props,omitempty"`

	// SHARE
	Title string `json:"title,omitempty"`

	// TRACK_EVENT
	Event      string         `json:"event,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`

	// REFRESH
	SectionID string `json:"sectionId,omitempty"`

	// SEQUENCE
	Actions []Action `json:"actions,omitempty"`

	// CONDITIONAL
	Condition string  `json:"condition,omitempty"`
	OnTrue    *Action `json:"onTrue,omitempty"`
	OnFalse   *Action `json:"onFalse,omitempty"`
}

// Parse decodes a single action from JSON. It does not validate variant fields.
func Parse(data []byte) (*Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid action JSON: %w", err)
	}
	if a.Type == "" {
		return nil, fmt.Errorf("action type is required")
	}
	return &a, nil
}

func Navigate(screen string, params map[string]any) Action {
	return Action{Type: TypeNavigate, Screen: screen, Params: params}
}

func GoBack() Action { return Action{Type: TypeGoBack} }

func OpenURL(url string, external bool) Action {
	return Action{Type: TypeOpenURL, URL: url, External: external}
}

func AddToCart(productID string, quantity int) Action {
	return Action{Type: TypeAddToCart, ProductID: productID, Quantity: quantity}
}

func UpdateCartQuantity(productID string, quantity int) Action {
	return Action{Type: TypeUpdateCartQuantity, ProductID: productID, Quantity: quantity}
}

func RemoveFromCart(productID string) Action {
	return Action{Type: TypeRemoveFromCart, ProductID: productID}
}

func ToggleFavorite(productID string) Action {
	return Action{Type: TypeToggleFavorite, ProductID: productID}
}

// APICall builds an API_CALL. Continuations may be nil.
func APICall(endpoint, method string, body any, onSuccess, onError *Action) Action {
	return Action{Type: TypeAPICall, Endpoint: endpoint, Method: method, Body: body, OnSuccess: onSuccess, OnError: onError}
}

func ShowToast(message, status string, duration int) Action {
	return Action{Type: TypeShowToast, Message: message, Status: status, Duration: duration}
}

func ShowModal(modalID string, props map[string]any) Action {
	return Action{Type: TypeShowModal, ModalID: modalID, Props: props}
}

func CloseModal(modalID string) Action {
	return Action{Type: TypeCloseModal, ModalID: modalID}
}

func Share(title, message, url string) Action {
	return Action{Type: TypeShare, Title: title, Message: message, URL: url}
}

func TrackEvent(event string, properties map[string]any) Action {
	return Action{Type: TypeTrackEvent, Event: event, Properties: properties}
}

func Refresh(sectionID string) Action {
	return Action{Type: TypeRefresh, SectionID: sectionID}
}

func Sequence(actions ...Action) Action {
	return Action{Type: TypeSequence, Actions: actions}
}

func Conditional(condition string, onTrue, onFalse *Action) Action {
	return Action{Type: TypeConditional, Condition: condition, OnTrue: onTrue, OnFalse: onFalse}
}

func Noop() Action { return Action{Type: TypeNoop} }

// Ptr returns a pointer to a copy of a, for continuation fields.
func Ptr(a Action) *Action { return &a }
