package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AaronLay10/SentientUI/internal/action"
	"github.com/AaronLay10/SentientUI/internal/components"
	"github.com/AaronLay10/SentientUI/internal/effects"
	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/AaronLay10/SentientUI/internal/idgen"
	"github.com/AaronLay10/SentientUI/internal/screen"
)

const shopScreen = `{
  "protocolVersion": "1.0.0",
  "screen": {
    "id": "shop",
    "sections": [
      {
        "id": "deals",
        "title": "Deals",
        "components": [
          {"type": "Text", "key": "headline", "props": {"text": "Today only"}},
          {
            "type": "Button",
            "key": "buy",
            "props": {"label": "Buy"},
            "actions": {
              "onPress": {
                "type": "SEQUENCE",
                "actions": [
                  {"type": "ADD_TO_CART", "productId": "sku-1"},
                  {"type": "SHOW_TOAST", "message": "Added"}
                ]
              }
            }
          }
        ]
      }
    ]
  }
}`

func newTestServer(t *testing.T, limiter *RateLimiter) *Server {
	t.Helper()
	resetAuth()

	reg, err := components.Library()
	if err != nil {
		t.Fatalf("failed to build library: %v", err)
	}
	v, err := screen.NewValidator()
	if err != nil {
		t.Fatalf("failed to compile validator: %v", err)
	}
	intake, err := screen.NewIntake(screen.NewStore(), v, "")
	if err != nil {
		t.Fatalf("failed to create intake: %v", err)
	}
	return NewServer(Deps{
		Registry:  reg,
		Intake:    intake,
		Validator: v,
		Sessions:  effects.NewSessionStore(idgen.NewSequence("sess-"), "/home"),
		Host:      effects.NewHost(),
		Limiter:   limiter,
	})
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestPutScreen(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, "POST", "/screens", shopScreen)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp ScreenResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ScreenID != "shop" || resp.ProtocolVersion != "1.0.0" {
		t.Errorf("unexpected response: %+v", resp)
	}

	w = do(t, s, "GET", "/screens", "")
	if !strings.Contains(w.Body.String(), `"shop"`) {
		t.Errorf("expected shop in screen list, got %s", w.Body.String())
	}
}

func TestPutScreen_Rejected(t *testing.T) {
	s := newTestServer(t, nil)
	events.Clear()

	w := do(t, s, "POST", "/screens", `{"protocolVersion": "0.9.0", "screen": {"id": "old", "sections": []}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if len(events.Find("screen.rejected")) != 1 {
		t.Error("expected screen.rejected event")
	}
	if s.store.Len() != 0 {
		t.Errorf("expected empty store, got %d screens", s.store.Len())
	}
}

func TestGetScreen_JSON(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, "POST", "/screens", shopScreen)

	first := do(t, s, "GET", "/screens/shop", "")
	id := first.Header().Get(SessionHeader)

	w := do(t, s, "GET", "/screens/shop?format=json&session="+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get(SessionHeader); got != id {
		t.Errorf("expected session header %q, got %q", id, got)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"key":"buy"`) {
		t.Errorf("expected rendered buy node, got %s", body)
	}
	if !strings.Contains(body, `"handlers":["onPress"]`) {
		t.Errorf("expected onPress handler on buy node, got %s", body)
	}
}

func TestGetScreen_HTMLCreatesSession(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, "POST", "/screens", shopScreen)

	w := do(t, s, "GET", "/screens/shop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}
	if got := w.Header().Get(SessionHeader); got != "sess-1" {
		t.Errorf("expected generated session 'sess-1', got %q", got)
	}
	if !strings.Contains(w.Body.String(), "Today only") {
		t.Errorf("expected headline text in HTML, got %s", w.Body.String())
	}
}

func TestGetScreen_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, "GET", "/screens/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestRender_ComponentList(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, "POST", "/render?format=html", `[{"type": "Button", "key": "go", "props": {"label": "Go"}}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `<button type="button" data-sdui-key="go">Go</button>`) {
		t.Errorf("unexpected HTML: %s", w.Body.String())
	}
}

func TestRender_SectionList(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, "POST", "/render?format=json", `[{"id": "top", "components": [{"type": "Text", "props": {"text": "hi"}}]}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"key":"top"`) {
		t.Errorf("expected section keyed 'top', got %s", w.Body.String())
	}
}

func TestRender_Envelope(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, "POST", "/render", shopScreen)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if s.store.Len() != 0 {
		t.Error("ad-hoc render should not store the screen")
	}
}

func TestRender_Invalid(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"bad format", "/render?format=xml", `[]`},
		{"list item without type", "/render", `[{"props": {}}]`},
		{"envelope without screen", "/render", `{"protocolVersion": "1.0.0"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, "POST", tt.target, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, "POST", "/dispatch", `{"action": {"type": "ADD_TO_CART", "productId": "sku-9", "quantity": 1}}`)
	id := w.Header().Get(SessionHeader)
	if id != "sess-1" {
		t.Fatalf("expected generated session 'sess-1', got %q", id)
	}

	w = do(t, s, "POST", "/dispatch", `{"session": "`+id+`", "action": {"type": "ADD_TO_CART", "productId": "sku-9", "quantity": 1}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeSession(t, w)
	if !resp.OK {
		t.Errorf("expected ok, got error %q", resp.Error)
	}
	if resp.Session.Cart["sku-9"] != 2 {
		t.Errorf("expected quantity 2, got %v", resp.Session.Cart)
	}

	w = do(t, s, "GET", "/sessions/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var st effects.SessionState
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if st.CartCount != 2 {
		t.Errorf("expected cart count 2, got %d", st.CartCount)
	}
}

func TestDispatch_UnknownSessionIsNotExposed(t *testing.T) {
	s := newTestServer(t, nil)
	enableAuth(t)

	owned := s.deps.Sessions.GetOrCreate("")
	owned.AddToCart("secret-sku", 1)

	if w := do(t, s, "GET", "/sessions/"+owned.ID, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}

	w := do(t, s, "POST", "/dispatch", `{"session": "victim", "action": {"type": "NOOP"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret-sku") {
		t.Errorf("response leaked another session: %s", w.Body.String())
	}
	resp := decodeSession(t, w)
	if resp.Session.ID == "victim" || resp.Session.ID == owned.ID {
		t.Errorf("expected a freshly generated session, got %q", resp.Session.ID)
	}
	if _, ok := s.deps.Sessions.Get("victim"); ok {
		t.Error("expected caller-chosen id to never be stored")
	}
}

func TestDispatch_Invalid(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{`},
		{"missing action", `{"session": "x"}`},
		{"missing type", `{"action": {"screen": "/home"}}`},
		{"missing variant field", `{"action": {"type": "NAVIGATE"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, "POST", "/dispatch", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
	if s.deps.Sessions.Len() != 0 {
		t.Errorf("rejected dispatches should not create sessions, got %d", s.deps.Sessions.Len())
	}
}

func TestDispatch_UnknownTypeIsNoop(t *testing.T) {
	s := newTestServer(t, nil)
	events.Clear()

	w := do(t, s, "POST", "/dispatch", `{"action": {"type": "TELEPORT"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeSession(t, w)
	if !resp.OK || len(resp.Warnings) != 1 {
		t.Errorf("expected ok with one warning, got %+v", resp)
	}
	if n := len(events.Find("action.unknown")); n != 1 {
		t.Errorf("expected 1 action.unknown event, got %d", n)
	}
}

func TestDispatch_CustomType(t *testing.T) {
	s := newTestServer(t, nil)
	s.deps.Host = effects.NewHost(effects.WithCustom("APPLY_COUPON", func(_ context.Context, sess *effects.Session, _ action.Action) error {
		sess.AddToCart("coupon", 1)
		return nil
	}))

	w := do(t, s, "POST", "/dispatch", `{"action": {"type": "APPLY_COUPON"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decodeSession(t, w); resp.Session.Cart["coupon"] != 1 {
		t.Errorf("expected custom handler to run, got %v", resp.Session.Cart)
	}
}

func TestTrigger(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, "POST", "/screens", shopScreen)

	w := do(t, s, "POST", "/trigger", `{"session": "carol", "screen": "shop", "key": "buy"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeSession(t, w)
	if resp.Session.Cart["sku-1"] != 1 {
		t.Errorf("expected default quantity 1, got %v", resp.Session.Cart)
	}
	if len(resp.Session.Toasts) != 1 || resp.Session.Toasts[0].Message != "Added" {
		t.Errorf("expected one toast, got %+v", resp.Session.Toasts)
	}
}

func TestTrigger_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, "POST", "/screens", shopScreen)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing key", `{"screen": "shop"}`, http.StatusBadRequest},
		{"unknown screen", `{"screen": "nope", "key": "buy"}`, http.StatusNotFound},
		{"unknown key", `{"screen": "shop", "key": "nope"}`, http.StatusNotFound},
		{"node without handler", `{"screen": "shop", "key": "headline"}`, http.StatusNotFound},
		{"wrong handler", `{"screen": "shop", "key": "buy", "handler": "onLongPress"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, "POST", "/trigger", tt.body)
			if w.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestGetSession_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, "GET", "/sessions/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestDispatch_RateLimited(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	defer limiter.Stop()
	s := newTestServer(t, limiter)

	body := `{"session": "dave", "action": {"type": "NOOP"}}`
	if w := do(t, s, "POST", "/dispatch", body); w.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", w.Code)
	}
	if w := do(t, s, "POST", "/dispatch", body); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", w.Code)
	}
	// health is never limited
	if w := do(t, s, "GET", "/health", ""); w.Code != http.StatusOK {
		t.Errorf("expected health 200, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	InitMetrics()
	SetAppID("shop")
	do(t, s, "POST", "/screens", shopScreen)
	do(t, s, "POST", "/dispatch", `{"session": "erin", "action": {"type": "NOOP"}}`)

	w := do(t, s, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`sdui_screens_cached{app="shop"`,
		`sdui_sessions_active{app="shop"`,
		"# TYPE sdui_dispatches_total counter",
		"# TYPE sdui_registry_components gauge",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
	if !strings.Contains(body, "} 1\n") {
		t.Errorf("expected a metric with value 1, got:\n%s", body)
	}
}
