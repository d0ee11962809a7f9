// Package registry maps component type names to renderable implementations.
//
// A Builder is mutated during startup and frozen with Build. Every Build returns a
// structural copy, so later registrations never leak into snapshots that
// renderers already hold.
package registry

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/AaronLay10/SentientUI/internal/vdom"
)

// HandlerPrefix is the conventional prefix of event-handler property names.
// A name qualifies when an upper-case letter follows it.
const HandlerPrefix = "on"

// Entry is one registered component and its metadata.
type Entry struct {
	Component     vdom.Component
	DefaultProps  vdom.Props
	ActionProps   []string
	ChildrenProps []string
	// StrictActionProps disables the HandlerPrefix heuristic for this entry.
	StrictActionProps bool
	// PropsSchema validates the merged literal props when the renderer runs strict.
	PropsSchema *jsonschema.Schema
}

// IsActionProp reports whether an action bound to name should become a callback.
func (e Entry) IsActionProp(name string) bool {
	for _, p := range e.ActionProps {
		if p == name {
			return true
		}
	}
	if e.StrictActionProps {
		return false
	}
	return isHandlerName(name)
}

// isHandlerName matches "on" followed by an upper-case letter, as in onPress.
func isHandlerName(name string) bool {
	rest, ok := strings.CutPrefix(name, HandlerPrefix)
	if !ok || rest == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(r)
}

// IsChildrenProp reports whether props[name] holds nested component descriptors.
func (e Entry) IsChildrenProp(name string) bool {
	for _, p := range e.ChildrenProps {
		if p == name {
			return true
		}
	}
	return false
}

func (e Entry) clone() Entry {
	cpy := e
	if e.DefaultProps != nil {
		cpy.DefaultProps = deepCopy(map[string]any(e.DefaultProps)).(map[string]any)
	}
	cpy.ActionProps = append([]string(nil), e.ActionProps...)
	cpy.ChildrenProps = append([]string(nil), e.ChildrenProps...)
	return cpy
}

// deepCopy copies JSON-shaped values so nested maps in default props are not shared.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case vdom.Props:
		return vdom.Props(deepCopy(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

// Option configures a registration.
type Option func(*Entry)

// WithDefaultProps sets the lowest-priority property values.
func WithDefaultProps(props vdom.Props) Option {
	return func(e *Entry) { e.DefaultProps = props.Clone() }
}

// WithActionProps declares property names that accept action descriptors.
func WithActionProps(names ...string) Option {
	return func(e *Entry) { e.ActionProps = append(e.ActionProps, names...) }
}

// WithChildrenProps declares property names whose values are component descriptors.
func WithChildrenProps(names ...string) Option {
	return func(e *Entry) { e.ChildrenProps = append(e.ChildrenProps, names...) }
}

// WithStrictActionProps limits action synthesis to the declared ActionProps.
func WithStrictActionProps() Option {
	return func(e *Entry) { e.StrictActionProps = true }
}

// WithPropsSchema attaches a compiled JSON schema for the component's props.
func WithPropsSchema(schema *jsonschema.Schema) Option {
	return func(e *Entry) { e.PropsSchema = schema }
}

// CompilePropsSchema compiles a JSON schema for a component's props.
func CompilePropsSchema(typeName, src string) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://sdui.schemas.local/components/%s.schema.json", typeName)
	if err := c.AddResource(schemaURL, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("%s props schema load failed: %w", typeName, err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("%s props schema compile failed: %w", typeName, err)
	}
	return compiled, nil
}

// Builder accumulates registrations. It is safe for concurrent use.
type Builder struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		entries: make(map[string]Entry),
	}
}

// Register binds typeName to component. Re-registering a name replaces the
// previous binding. Returns the builder for chaining.
func (b *Builder) Register(typeName string, component vdom.Component, opts ...Option) *Builder {
	e := Entry{Component: component}
	for _, o := range opts {
		o(&e)
	}

	b.mu.Lock()
	b.entries[typeName] = e
	b.mu.Unlock()
	return b
}

// RegisterFunc is Register for a plain render function.
func (b *Builder) RegisterFunc(typeName string, fn vdom.ComponentFunc, opts ...Option) *Builder {
	return b.Register(typeName, fn, opts...)
}

// Build returns a snapshot of every registration.
func (b *Builder) Build() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := make(Snapshot, len(b.entries))
	for name, e := range b.entries {
		snap[name] = e.clone()
	}
	return snap
}

// Snapshot is an immutable-by-convention view of a built registry. It is safe
// to share across goroutines as long as nobody writes to it.
type Snapshot map[string]Entry

// Lookup returns the entry for typeName. Absence is not an error.
func (s Snapshot) Lookup(typeName string) (Entry, bool) {
	e, ok := s[typeName]
	return e, ok
}

// Types returns the registered type names in no particular order.
func (s Snapshot) Types() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	return out
}
