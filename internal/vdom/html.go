package vdom

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderHTML writes nodes as HTML. Handlers cannot be serialized, so their names
// are exposed through data-sdui-on together with the node key in data-sdui-key.
func RenderHTML(w io.Writer, nodes ...*VNode) error {
	for _, n := range nodes {
		for _, hn := range toHTML(n) {
			if err := html.Render(w, hn); err != nil {
				return fmt.Errorf("render html: %w", err)
			}
		}
	}
	return nil
}

// toHTML converts one VNode; fragments expand to their children.
func toHTML(n *VNode) []*html.Node {
	if n == nil {
		return nil
	}
	if n.Tag == "" {
		if n.Text != "" {
			return []*html.Node{{Type: html.TextNode, Data: n.Text}}
		}
		var out []*html.Node
		for _, c := range n.Children {
			out = append(out, toHTML(c)...)
		}
		return out
	}

	el := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
		Attr:     attributes(n),
	}
	if n.Text != "" {
		el.AppendChild(&html.Node{Type: html.TextNode, Data: n.Text})
	}
	for _, c := range n.Children {
		for _, hc := range toHTML(c) {
			el.AppendChild(hc)
		}
	}
	return []*html.Node{el}
}

func attributes(n *VNode) []html.Attribute {
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var attrs []html.Attribute
	for _, k := range keys {
		val, ok := attrValue(n.Attrs[k])
		if !ok {
			continue
		}
		attrs = append(attrs, html.Attribute{Key: k, Val: val})
	}
	if n.Key != "" {
		attrs = append(attrs, html.Attribute{Key: "data-sdui-key", Val: n.Key})
	}
	if len(n.Handlers) > 0 {
		attrs = append(attrs, html.Attribute{Key: "data-sdui-on", Val: strings.Join(n.HandlerNames(), " ")})
	}
	return attrs
}

// attrValue formats an attribute; false and nil mean "omit".
func attrValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return "", t
	case map[string]any:
		return styleString(t), true
	default:
		return fmt.Sprint(t), true
	}
}

func styleString(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, m[k]))
	}
	return strings.Join(parts, "; ")
}
