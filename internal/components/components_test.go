package components

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AaronLay10/SentientUI/internal/action"
	"github.com/AaronLay10/SentientUI/internal/render"
	"github.com/AaronLay10/SentientUI/internal/screen"
	"github.com/AaronLay10/SentientUI/internal/vdom"
)

func renderHTML(t *testing.T, nodes ...*vdom.VNode) string {
	t.Helper()
	var buf bytes.Buffer
	if err := vdom.RenderHTML(&buf, nodes...); err != nil {
		t.Fatalf("render html: %v", err)
	}
	return buf.String()
}

func TestLibrary_Types(t *testing.T) {
	lib, err := Library()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"Text", "Button", "Card", "Stack", "Image", "Badge"} {
		if _, ok := lib.Lookup(name); !ok {
			t.Errorf("expected %s to be registered", name)
		}
	}
	if entry, _ := lib.Lookup("Button"); entry.PropsSchema == nil {
		t.Error("expected Button props schema")
	}
}

func TestCard_HTML(t *testing.T) {
	lib, err := Library()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := screen.Node{
		Type: "Card",
		Key:  "c1",
		Props: map[string]any{
			"title":  "Running shoes",
			"footer": map[string]any{"type": "Badge", "props": map[string]any{"count": 3}},
		},
		Children: []screen.Node{{Type: "Text", Props: map[string]any{"text": "On sale"}}},
	}
	got := renderHTML(t, render.Node(context.Background(), lib, n, render.Options{}))
	want := `<article class="card card-elevated" data-sdui-key="c1">` +
		`<h3>Running shoes</h3>` +
		`<span data-sdui-key="0">On sale</span>` +
		`<footer><span class="badge badge-info" data-sdui-key="footer">3</span></footer>` +
		`</article>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("html mismatch (-want +got):\n%s", diff)
	}
}

func TestButton_Handlers(t *testing.T) {
	lib, err := Library()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var dispatched []action.Type
	fn := func(_ context.Context, a action.Action) error {
		dispatched = append(dispatched, a.Type)
		return nil
	}
	n := screen.Node{
		Type:    "Button",
		Key:     "buy",
		Props:   map[string]any{"label": "Buy"},
		Actions: map[string]action.Action{"onPress": action.AddToCart("sku-1", 1)},
	}
	out := render.Node(context.Background(), lib, n, render.Options{Dispatch: fn})

	if diff := cmp.Diff([]string{"onPress"}, out.HandlerNames()); diff != "" {
		t.Errorf("handlers mismatch (-want +got):\n%s", diff)
	}
	if err := out.Handlers["onPress"](); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dispatched) != 1 || dispatched[0] != action.TypeAddToCart {
		t.Errorf("expected ADD_TO_CART dispatch, got %v", dispatched)
	}

	got := renderHTML(t, out)
	want := `<button type="button" data-sdui-key="buy" data-sdui-on="onPress">Buy</button>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestButton_StrictSchema(t *testing.T) {
	lib, err := Library()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := screen.Node{Type: "Button", Props: map[string]any{"label": 5}}
	if out := render.Node(context.Background(), lib, n, render.Options{StrictProps: true}); out != nil {
		t.Errorf("expected non-string label to be rejected, got %+v", out)
	}
}

func TestStack_Defaults(t *testing.T) {
	out := Stack(vdom.Props{"direction": "horizontal", "gap": 4}, []*vdom.VNode{vdom.Text("a")})
	if out.Attrs["class"] != "stack stack-horizontal" || out.Attrs["data-gap"] != "4" {
		t.Errorf("unexpected attrs %v", out.Attrs)
	}
}

func TestBadge_LabelAndCount(t *testing.T) {
	if got := Badge(vdom.Props{"label": "New", "status": "success"}, nil); got.Children[0].Text != "New" {
		t.Errorf("expected label text, got %+v", got.Children)
	}
	if got := Badge(vdom.Props{"label": "New", "count": 2.0}, nil); got.Children[0].Text != "2" {
		t.Errorf("expected count text, got %+v", got.Children)
	}
}

func TestFallback(t *testing.T) {
	got := renderHTML(t, Fallback("Carousel"))
	want := `<div class="sdui-unknown" data-type="Carousel"></div>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSectionWrapper(t *testing.T) {
	var dispatched []string
	fn := func(_ context.Context, a action.Action) error {
		dispatched = append(dispatched, a.Screen)
		return nil
	}
	wrap := SectionWrapper(context.Background(), fn)

	sec := screen.Section{
		ID:            "recs",
		Title:         "For you",
		OnHeaderPress: action.Ptr(action.Navigate("/recs", nil)),
		SeeAllAction:  action.Ptr(action.Navigate("/recs/all", nil)),
		ColorProps:    map[string]any{"accent": "#f00"},
	}
	out := wrap(sec, []*vdom.VNode{vdom.Text("body")})

	if out.Tag != "section" || out.Attrs["data-section-id"] != "recs" || out.Attrs["data-color-accent"] != "#f00" {
		t.Fatalf("unexpected section %+v", out)
	}
	header := out.Children[0]
	if header.Tag != "header" || len(header.Children) != 2 {
		t.Fatalf("unexpected header %+v", header)
	}
	if err := header.Children[0].Handlers["onPress"](); err != nil {
		t.Fatal(err)
	}
	if err := header.Children[1].Handlers["onPress"](); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/recs", "/recs/all"}, dispatched); diff != "" {
		t.Errorf("dispatch mismatch (-want +got):\n%s", diff)
	}
	if out.Children[1].Text != "body" {
		t.Errorf("expected content after header, got %+v", out.Children[1])
	}
}

func TestSectionWrapper_Collapsed(t *testing.T) {
	wrap := SectionWrapper(context.Background(), nil)
	out := wrap(screen.Section{ID: "s", Collapsible: true, Collapsed: true}, []*vdom.VNode{vdom.Text("hidden")})
	if len(out.Children) != 0 {
		t.Errorf("expected collapsed section to hide content, got %d children", len(out.Children))
	}
}
