// Package vdom holds the rendered output tree and the component contract.
package vdom

import (
	"encoding/json"
	"sort"
)

// Props is the property bag handed to a component.
type Props map[string]any

// String returns props[key] if it is a string, otherwise "".
func (p Props) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Bool returns props[key] if it is a bool, otherwise false.
func (p Props) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Map returns props[key] if it is an object, otherwise nil.
func (p Props) Map(key string) map[string]any {
	switch m := p[key].(type) {
	case map[string]any:
		return m
	case Props:
		return m
	}
	return nil
}

// Handler returns props[key] if it is a callback, otherwise nil.
func (p Props) Handler(key string) func() error {
	f, _ := p[key].(func() error)
	return f
}

// Clone returns a shallow copy of p. Nil stays nil.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Component is any renderable unit: it takes a property bag and nested content
// and returns one node, or nil to render nothing.
type Component interface {
	Render(props Props, children []*VNode) *VNode
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(props Props, children []*VNode) *VNode

func (f ComponentFunc) Render(props Props, children []*VNode) *VNode {
	return f(props, children)
}

// VNode is one node of rendered output. An empty Tag is a text node when Text is
// set and a fragment otherwise.
type VNode struct {
	Tag      string                  `json:"tag,omitempty"`
	Key      string                  `json:"key,omitempty"`
	Attrs    map[string]any          `json:"attrs,omitempty"`
	Handlers map[string]func() error `json:"-"`
	Text     string                  `json:"text,omitempty"`
	Children []*VNode                `json:"children,omitempty"`
}

// Element builds a node from a property bag. Callback props move to Handlers so
// they never end up as attributes. Nil children are dropped.
func Element(tag string, props Props, children ...*VNode) *VNode {
	n := &VNode{Tag: tag}
	for k, v := range props {
		if f, ok := v.(func() error); ok {
			if f == nil {
				continue
			}
			if n.Handlers == nil {
				n.Handlers = make(map[string]func() error)
			}
			n.Handlers[k] = f
			continue
		}
		if n.Attrs == nil {
			n.Attrs = make(map[string]any)
		}
		n.Attrs[k] = v
	}
	n.Children = Compact(children)
	return n
}

// Text creates a text node.
func Text(s string) *VNode {
	return &VNode{Text: s}
}

// Fragment groups nodes without a wrapping element.
func Fragment(children ...*VNode) *VNode {
	return &VNode{Children: Compact(children)}
}

// Compact drops nil entries, returning nil for an all-nil input.
func Compact(nodes []*VNode) []*VNode {
	var out []*VNode
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// HandlerNames returns the sorted handler names on n.
func (n *VNode) HandlerNames() []string {
	names := make([]string, 0, len(n.Handlers))
	for k := range n.Handlers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (n *VNode) MarshalJSON() ([]byte, error) {
	type plain VNode
	return json.Marshal(struct {
		*plain
		Handlers []string `json:"handlers,omitempty"`
	}{
		plain:    (*plain)(n),
		Handlers: n.HandlerNames(),
	})
}

// Find returns the first node with the given key, depth first.
func Find(nodes []*VNode, key string) *VNode {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Key == key {
			return n
		}
		if found := Find(n.Children, key); found != nil {
			return found
		}
	}
	return nil
}
