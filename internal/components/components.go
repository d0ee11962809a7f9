// Package components is the host's built-in component library. Every component
// renders to plain HTML-shaped vdom nodes.
package components

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AaronLay10/SentientUI/internal/action"
	"github.com/AaronLay10/SentientUI/internal/dispatch"
	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/AaronLay10/SentientUI/internal/registry"
	"github.com/AaronLay10/SentientUI/internal/screen"
	"github.com/AaronLay10/SentientUI/internal/vdom"
)

var propsSchemas = map[string]string{
	"Button": `{"type":"object","required":["label"],"properties":{"label":{"type":"string"},"disabled":{"type":"boolean"}}}`,
	"Image":  `{"type":"object","required":["src"],"properties":{"src":{"type":"string"},"alt":{"type":"string"}}}`,
	"Card":   `{"type":"object","properties":{"title":{"type":"string"},"subtitle":{"type":"string"}}}`,
	"Badge":  `{"type":"object","properties":{"count":{"type":"integer","minimum":0}}}`,
}

// Register adds the built-in library to b.
func Register(b *registry.Builder) error {
	schemas := make(map[string]registry.Option, len(propsSchemas))
	for name, src := range propsSchemas {
		s, err := registry.CompilePropsSchema(name, src)
		if err != nil {
			return err
		}
		schemas[name] = registry.WithPropsSchema(s)
	}

	b.RegisterFunc("Text", Text).
		RegisterFunc("Button", Button,
			registry.WithActionProps("onPress", "onLongPress"),
			schemas["Button"],
		).
		RegisterFunc("Card", Card,
			registry.WithDefaultProps(vdom.Props{"variant": "elevated"}),
			registry.WithChildrenProps("footer", "media"),
			schemas["Card"],
		).
		RegisterFunc("Stack", Stack,
			registry.WithDefaultProps(vdom.Props{"direction": "vertical", "gap": 8}),
		).
		RegisterFunc("Image", Image, schemas["Image"]).
		RegisterFunc("Badge", Badge,
			registry.WithDefaultProps(vdom.Props{"status": "info"}),
			schemas["Badge"],
		)
	return nil
}

// Library builds a snapshot holding only the built-in components.
func Library() (registry.Snapshot, error) {
	b := registry.NewBuilder()
	if err := Register(b); err != nil {
		return nil, err
	}
	snap := b.Build()
	events.Emit("info", "registry.built", "", map[string]interface{}{
		"components": len(snap),
	})
	return snap, nil
}

func without(props vdom.Props, keys ...string) vdom.Props {
	out := props.Clone()
	if out == nil {
		out = vdom.Props{}
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func Text(props vdom.Props, children []*vdom.VNode) *vdom.VNode {
	content := []*vdom.VNode{}
	if s := props.String("text"); s != "" {
		content = append(content, vdom.Text(s))
	}
	return vdom.Element("span", without(props, "text"), append(content, children...)...)
}

func Button(props vdom.Props, children []*vdom.VNode) *vdom.VNode {
	attrs := without(props, "label")
	attrs["type"] = "button"
	content := []*vdom.VNode{vdom.Text(props.String("label"))}
	return vdom.Element("button", attrs, append(content, children...)...)
}

// Card renders title, subtitle, an optional media node, children and an
// optional footer node, in that order.
func Card(props vdom.Props, children []*vdom.VNode) *vdom.VNode {
	attrs := without(props, "title", "subtitle", "media", "footer", "variant")
	attrs["class"] = "card"
	if v := props.String("variant"); v != "" {
		attrs["class"] = "card card-" + v
	}

	var content []*vdom.VNode
	if media, ok := props["media"].(*vdom.VNode); ok {
		content = append(content, media)
	}
	if title := props.String("title"); title != "" {
		content = append(content, vdom.Element("h3", nil, vdom.Text(title)))
	}
	if subtitle := props.String("subtitle"); subtitle != "" {
		content = append(content, vdom.Element("p", vdom.Props{"class": "subtitle"}, vdom.Text(subtitle)))
	}
	content = append(content, children...)
	switch footer := props["footer"].(type) {
	case *vdom.VNode:
		content = append(content, vdom.Element("footer", nil, footer))
	case []*vdom.VNode:
		content = append(content, vdom.Element("footer", nil, footer...))
	}
	return vdom.Element("article", attrs, content...)
}

func Stack(props vdom.Props, children []*vdom.VNode) *vdom.VNode {
	attrs := without(props, "direction", "gap")
	attrs["class"] = "stack stack-" + props.String("direction")
	if gap, ok := props["gap"]; ok {
		attrs["data-gap"] = fmt.Sprint(gap)
	}
	return vdom.Element("div", attrs, children...)
}

func Image(props vdom.Props, _ []*vdom.VNode) *vdom.VNode {
	return vdom.Element("img", props)
}

// Badge shows count when set, label otherwise.
func Badge(props vdom.Props, _ []*vdom.VNode) *vdom.VNode {
	attrs := without(props, "label", "count", "status")
	attrs["class"] = "badge badge-" + props.String("status")

	text := props.String("label")
	switch n := props["count"].(type) {
	case int:
		text = strconv.Itoa(n)
	case float64:
		text = strconv.Itoa(int(n))
	}
	return vdom.Element("span", attrs, vdom.Text(text))
}

// Fallback renders a visible placeholder for unregistered types.
func Fallback(typeName string) *vdom.VNode {
	return vdom.Element("div", vdom.Props{
		"class":     "sdui-unknown",
		"data-type": typeName,
	})
}

// SectionWrapper returns a wrapper that renders a section with its header. The
// header and "see all" actions become callbacks through fn.
func SectionWrapper(ctx context.Context, fn dispatch.Func) func(screen.Section, []*vdom.VNode) *vdom.VNode {
	return func(sec screen.Section, content []*vdom.VNode) *vdom.VNode {
		sectionActions := map[string]action.Action{}
		if sec.OnHeaderPress != nil {
			sectionActions["onHeaderPress"] = *sec.OnHeaderPress
		}
		if sec.SeeAllAction != nil {
			sectionActions["onSeeAll"] = *sec.SeeAllAction
		}
		callbacks := dispatch.MapActionsToProps(ctx, fn, sectionActions)

		attrs := vdom.Props{"class": "section", "data-section-id": sec.ID}
		if sec.Type != "" {
			attrs["data-section-type"] = sec.Type
		}
		if sec.Collapsible {
			attrs["data-collapsible"] = true
			attrs["data-collapsed"] = sec.Collapsed
		}
		if len(sec.Style) > 0 {
			attrs["style"] = sec.Style
		}
		for k, v := range sec.ColorProps {
			attrs["data-color-"+k] = fmt.Sprint(v)
		}

		var header []*vdom.VNode
		if sec.Title != "" {
			headerProps := vdom.Props{}
			if cb, ok := callbacks["onHeaderPress"]; ok {
				headerProps["onPress"] = cb
			}
			header = append(header, vdom.Element("h2", headerProps, vdom.Text(sec.Title)))
		}
		if cb, ok := callbacks["onSeeAll"]; ok {
			header = append(header, vdom.Element("button", vdom.Props{"class": "see-all", "onPress": cb}, vdom.Text("See all")))
		}

		var body []*vdom.VNode
		if len(header) > 0 {
			body = append(body, vdom.Element("header", nil, header...))
		}
		if !(sec.Collapsible && sec.Collapsed) {
			body = append(body, content...)
		}
		return vdom.Element("section", attrs, body...)
	}
}
