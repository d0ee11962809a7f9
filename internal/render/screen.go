package render

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/AaronLay10/SentientUI/internal/registry"
	"github.com/AaronLay10/SentientUI/internal/screen"
	"github.com/AaronLay10/SentientUI/internal/vdom"
)

// ListKind says how a raw descriptor list should be read.
type ListKind int

const (
	// Auto infers the kind from the first element.
	Auto ListKind = iota
	Components
	Sections
)

func (k ListKind) String() string {
	switch k {
	case Components:
		return "components"
	case Sections:
		return "sections"
	default:
		return "auto"
	}
}

// Section renders every component of sec in order. With a SectionWrapper the
// content is wrapped; otherwise it is returned as a fragment keyed by the section id.
func Section(ctx context.Context, reg registry.Snapshot, sec screen.Section, opts Options) *vdom.VNode {
	content := Nodes(ctx, reg, sec.Components, opts)
	if opts.SectionWrapper != nil {
		return withKey(opts.SectionWrapper(sec, content), sec.ID)
	}
	if len(content) == 0 {
		return nil
	}
	frag := vdom.Fragment(content...)
	frag.Key = sec.ID
	return frag
}

// SectionList renders sections in order, dropping the ones that render nothing.
func SectionList(ctx context.Context, reg registry.Snapshot, sections []screen.Section, opts Options) []*vdom.VNode {
	if len(sections) == 0 {
		return nil
	}
	out := make([]*vdom.VNode, 0, len(sections))
	for _, sec := range sections {
		out = append(out, Section(ctx, reg, sec, opts))
	}
	return vdom.Compact(out)
}

// List renders a raw list of either component or section descriptors. With Auto
// the list holds sections when its first element has a "components" field. Mixed
// lists are not detected. An empty list renders nothing.
func List(ctx context.Context, reg registry.Snapshot, items []json.RawMessage, kind ListKind, opts Options) ([]*vdom.VNode, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if kind == Auto {
		kind = Detect(items)
	}

	switch kind {
	case Sections:
		sections := make([]screen.Section, len(items))
		for i, raw := range items {
			if err := json.Unmarshal(raw, &sections[i]); err != nil {
				return nil, fmt.Errorf("section %d: %w", i, err)
			}
		}
		return SectionList(ctx, reg, sections, opts), nil
	default:
		nodes := make([]screen.Node, len(items))
		for i, raw := range items {
			if err := json.Unmarshal(raw, &nodes[i]); err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
		}
		return Nodes(ctx, reg, nodes, opts), nil
	}
}

// Detect applies the list heuristic: Sections when the first element carries a
// "components" field, Components otherwise.
func Detect(items []json.RawMessage) ListKind {
	if len(items) == 0 {
		return Components
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &probe); err != nil {
		return Components
	}
	if _, ok := probe["components"]; ok {
		return Sections
	}
	return Components
}

// Screen renders the header, every section and the footer, in that order.
func Screen(ctx context.Context, reg registry.Snapshot, scr *screen.Screen, opts Options) []*vdom.VNode {
	var out []*vdom.VNode
	if scr.Header != nil {
		out = append(out, renderNode(ctx, reg, *scr.Header, keyOr(scr.Header.Key, "header"), opts))
	}
	out = append(out, SectionList(ctx, reg, scr.Sections, opts)...)
	if scr.Footer != nil {
		out = append(out, renderNode(ctx, reg, *scr.Footer, keyOr(scr.Footer.Key, "footer"), opts))
	}
	out = vdom.Compact(out)

	events.Emit("debug", "render.completed", "", map[string]interface{}{
		"screen_id": scr.ID,
		"sections":  len(scr.Sections),
		"nodes":     len(out),
	})
	return out
}

func keyOr(key, fallback string) string {
	if key != "" {
		return key
	}
	return fallback
}
