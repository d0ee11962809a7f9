package effects

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcher_JSON(t *testing.T) {
	var gotMethod, gotPath, gotType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"orderId":"o-1"}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/", time.Second)
	res, err := f.Fetch(context.Background(), "orders", "post", map[string]any{"sku": "A1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/orders" || gotType != "application/json" {
		t.Errorf("unexpected request %s %s (%s)", gotMethod, gotPath, gotType)
	}
	if gotBody["sku"] != "A1" {
		t.Errorf("unexpected body %v", gotBody)
	}
	if m, ok := res.(map[string]any); !ok || m["orderId"] != "o-1" {
		t.Errorf("unexpected result %#v", res)
	}
}

func TestHTTPFetcher_DefaultsToGET(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res, err := NewHTTPFetcher(srv.URL, 0).Fetch(context.Background(), "/ping", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodGet || res != nil {
		t.Errorf("expected GET with no result, got %s %v", gotMethod, res)
	}
}

func TestHTTPFetcher_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sold out", http.StatusConflict)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(context.Background(), "/orders", "POST", nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", se.Code)
	}
}

func TestHTTPFetcher_AbsoluteEndpointOnBaseHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("pong"))
	}))
	defer srv.Close()

	res, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(context.Background(), srv.URL+"/ping", "GET", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "pong" {
		t.Errorf("expected pong, got %#v", res)
	}
}

func TestHTTPFetcher_RejectsOtherHosts(t *testing.T) {
	var hits int
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer other.Close()

	f := NewHTTPFetcher("https://api.example.com", time.Second)
	for _, endpoint := range []string{
		other.URL + "/latest/meta-data",
		"//" + other.Listener.Addr().String() + "/x",
		"file:///etc/passwd",
	} {
		if _, err := f.Fetch(context.Background(), endpoint, "GET", nil); !errors.Is(err, ErrHostNotAllowed) {
			t.Errorf("%s: expected ErrHostNotAllowed, got %v", endpoint, err)
		}
	}
	if hits != 0 {
		t.Errorf("expected no requests to leave, got %d", hits)
	}
}

func TestHTTPFetcher_AllowedHosts(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer cdn.Close()

	host := cdn.Listener.Addr().String()
	f := NewHTTPFetcher("https://api.example.com", time.Second, host)
	res, err := f.Fetch(context.Background(), cdn.URL+"/assets", "GET", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m, ok := res.(map[string]any); !ok || m["ok"] != true {
		t.Errorf("unexpected result %#v", res)
	}
}

func TestHTTPFetcher_RedirectToOtherHost(t *testing.T) {
	var hits int
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer other.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, other.URL+"/internal", http.StatusFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(context.Background(), "/go", "GET", nil)
	if !errors.Is(err, ErrHostNotAllowed) {
		t.Errorf("expected ErrHostNotAllowed, got %v", err)
	}
	if hits != 0 {
		t.Errorf("expected redirect target to be skipped, got %d hits", hits)
	}
}

func TestHTTPFetcher_RelativeWithoutBase(t *testing.T) {
	if _, err := NewHTTPFetcher("", time.Second).Fetch(context.Background(), "/orders", "GET", nil); err == nil {
		t.Error("expected error for relative endpoint without base URL")
	}
}

func TestHTTPFetcher_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(ctx, "/x", "GET", nil); err == nil {
		t.Error("expected error for canceled context")
	}
}
