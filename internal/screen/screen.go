// Package screen holds the server-sent descriptors: components, sections and
// screens, plus the envelope they travel in.
package screen

import (
	"encoding/json"
	"fmt"

	"github.com/AaronLay10/SentientUI/internal/action"
)

// Node is one component descriptor in the server tree.
type Node struct {
	Type      string                   `json:"type"`
	Props     map[string]any           `json:"props,omitempty"`
	Actions   map[string]action.Action `json:"actions,omitempty"`
	Key       string                   `json:"key,omitempty"`
	Children  []Node                   `json:"children,omitempty"`
	Condition string                   `json:"condition,omitempty"`
	Style     map[string]any           `json:"style,omitempty"`
}

// Section is a named, ordered group of components.
type Section struct {
	ID            string         `json:"id"`
	Type          string         `json:"type,omitempty"`
	Title         string         `json:"title,omitempty"`
	Components    []Node         `json:"components"`
	ColorProps    map[string]any `json:"colorProps,omitempty"`
	Style         map[string]any `json:"style,omitempty"`
	Collapsible   bool           `json:"collapsible,omitempty"`
	Collapsed     bool           `json:"collapsed,omitempty"`
	OnHeaderPress *action.Action `json:"onHeaderPress,omitempty"`
	SeeAllAction  *action.Action `json:"seeAllAction,omitempty"`
}

// Screen is an ordered list of sections plus optional header and footer.
type Screen struct {
	ID            string         `json:"id"`
	Title         string         `json:"title,omitempty"`
	Sections      []Section      `json:"sections"`
	Header        *Node          `json:"header,omitempty"`
	Footer        *Node          `json:"footer,omitempty"`
	OnRefresh     *action.Action `json:"onRefresh,omitempty"`
	Background    string         `json:"background,omitempty"`
	AnalyticsName string         `json:"analyticsName,omitempty"`
}

// Envelope wraps a screen with the protocol version it was written against.
type Envelope struct {
	ProtocolVersion string `json:"protocolVersion"`
	Screen          Screen `json:"screen"`
}

// DecodeEnvelope parses an envelope. It checks only that a screen id is present.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse screen envelope: %w", err)
	}
	if env.Screen.ID == "" {
		return nil, fmt.Errorf("screen id is required")
	}
	return &env, nil
}
