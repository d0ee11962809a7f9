// Package render turns component descriptors into vdom trees.
//
// The renderer keeps no state between calls. Everything it needs (registry
// snapshot, dispatch function, fallback, wrappers) arrives per call, so any
// number of trees can render concurrently over one snapshot.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/AaronLay10/SentientUI/internal/action"
	"github.com/AaronLay10/SentientUI/internal/condition"
	"github.com/AaronLay10/SentientUI/internal/dispatch"
	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/AaronLay10/SentientUI/internal/registry"
	"github.com/AaronLay10/SentientUI/internal/screen"
	"github.com/AaronLay10/SentientUI/internal/vdom"
)

// Options carries the per-call collaborators. The zero value renders without
// callbacks, fallback or wrappers.
type Options struct {
	// Dispatch backs the synthesized action callbacks. Nil leaves literal props alone.
	Dispatch dispatch.Func
	// Fallback renders unregistered types. It receives the unknown type name.
	Fallback func(typeName string) *vdom.VNode
	// SectionWrapper wraps the rendered content of one section.
	SectionWrapper func(sec screen.Section, content []*vdom.VNode) *vdom.VNode
	// Conditions enables node conditions, evaluated against State.
	Conditions dispatch.ConditionEvaluator
	State      map[string]any
	// StrictProps validates literal props against each entry's PropsSchema.
	StrictProps bool
}

// Node renders one component descriptor. It returns nil when nothing renders.
func Node(ctx context.Context, reg registry.Snapshot, n screen.Node, opts Options) *vdom.VNode {
	return renderNode(ctx, reg, n, n.Key, opts)
}

// Nodes renders descriptors in order. Each node is keyed by its own key, or by
// its index when it has none. Nodes that render nothing are dropped.
func Nodes(ctx context.Context, reg registry.Snapshot, nodes []screen.Node, opts Options) []*vdom.VNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*vdom.VNode, 0, len(nodes))
	for i, n := range nodes {
		key := n.Key
		if key == "" {
			key = strconv.Itoa(i)
		}
		out = append(out, renderNode(ctx, reg, n, key, opts))
	}
	return vdom.Compact(out)
}

func renderNode(ctx context.Context, reg registry.Snapshot, n screen.Node, key string, opts Options) *vdom.VNode {
	if !visible(n, opts) {
		return nil
	}

	entry, ok := reg.Lookup(n.Type)
	if !ok {
		events.Emit("warn", "render.unknown_component", "", map[string]interface{}{
			"type": n.Type,
			"key":  key,
		})
		if opts.Fallback == nil {
			return nil
		}
		return withKey(opts.Fallback(n.Type), key)
	}

	props, ok := mergeProps(ctx, reg, entry, n, opts)
	if !ok {
		return nil
	}

	var children []*vdom.VNode
	if len(n.Children) > 0 {
		children = Nodes(ctx, reg, n.Children, opts)
	}

	return withKey(entry.Component.Render(props, children), key)
}

// MergeProps computes the property bag a registered component receives for n.
// Later layers win: defaults, literal props, qualifying action callbacks, then
// the style override merged onto any existing style.
func MergeProps(ctx context.Context, reg registry.Snapshot, entry registry.Entry, n screen.Node, opts Options) vdom.Props {
	props, _ := mergeProps(ctx, reg, entry, n, opts)
	return props
}

func mergeProps(ctx context.Context, reg registry.Snapshot, entry registry.Entry, n screen.Node, opts Options) (vdom.Props, bool) {
	props := make(vdom.Props, len(entry.DefaultProps)+len(n.Props)+len(n.Actions))
	for k, v := range entry.DefaultProps {
		props[k] = v
	}
	for k, v := range n.Props {
		props[k] = v
	}

	if opts.StrictProps && entry.PropsSchema != nil {
		if err := validateProps(entry.PropsSchema, props); err != nil {
			events.Emit("warn", "render.props_invalid", err.Error(), map[string]interface{}{
				"type": n.Type,
				"key":  n.Key,
			})
			return nil, false
		}
	}

	for _, name := range entry.ChildrenProps {
		if v, ok := props[name]; ok {
			props[name] = renderDescriptorProp(ctx, reg, name, v, opts)
		}
	}

	qualifying := make(map[string]action.Action, len(n.Actions))
	for name, a := range n.Actions {
		if entry.IsActionProp(name) {
			qualifying[name] = a
		}
	}
	for name, cb := range dispatch.MapActionsToProps(ctx, opts.Dispatch, qualifying) {
		props[name] = cb
	}

	if len(n.Style) > 0 {
		style := make(map[string]any)
		for k, v := range props.Map("style") {
			style[k] = v
		}
		for k, v := range n.Style {
			style[k] = v
		}
		props["style"] = style
	}

	return props, true
}

// renderDescriptorProp renders a prop holding one descriptor or a list of them.
// Values that are not descriptors are passed through untouched.
func renderDescriptorProp(ctx context.Context, reg registry.Snapshot, name string, v any, opts Options) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []screen.Node
		if err := json.Unmarshal(raw, &list); err != nil {
			return v
		}
		return Nodes(ctx, reg, list, opts)
	}

	var n screen.Node
	if err := json.Unmarshal(raw, &n); err != nil || n.Type == "" {
		return v
	}
	key := n.Key
	if key == "" {
		key = name
	}
	return renderNode(ctx, reg, n, key, opts)
}

func visible(n screen.Node, opts Options) bool {
	if opts.Conditions == nil || n.Condition == "" {
		return true
	}
	ok, err := opts.Conditions.Eval(n.Condition, &condition.EvalContext{State: opts.State})
	if err != nil {
		events.Emit("warn", "render.condition_error", err.Error(), map[string]interface{}{
			"type":      n.Type,
			"condition": n.Condition,
		})
		return false
	}
	return ok
}

func validateProps(schema *jsonschema.Schema, props vdom.Props) error {
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

// withKey returns a keyed copy of n so shared nodes (a fallback placeholder, say)
// are never mutated.
func withKey(n *vdom.VNode, key string) *vdom.VNode {
	if n == nil || key == "" || n.Key == key {
		return n
	}
	cpy := *n
	cpy.Key = key
	return &cpy
}
