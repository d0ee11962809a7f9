package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetAuth() {
	auth = nil
}

// enableAuth configures admin and operator credentials for one test.
func enableAuth(t *testing.T) {
	t.Helper()
	auth = &authConfig{
		adminUser:    "admin",
		adminPass:    "secret",
		operatorUser: "operator",
		operatorPass: "opsecret",
		enabled:      true,
	}
	t.Cleanup(resetAuth)
}

func TestRouteRoles(t *testing.T) {
	type creds struct{ user, pass string }
	var (
		none     = creds{}
		admin    = creds{"admin", "secret"}
		operator = creds{"operator", "opsecret"}
		wrong    = creds{"admin", "nope"}
	)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		creds  creds
		want   int
	}{
		{"events anonymous", "GET", "/events", "", none, http.StatusUnauthorized},
		{"events operator", "GET", "/events", "", operator, http.StatusOK},
		{"events wrong password", "GET", "/events", "", wrong, http.StatusUnauthorized},
		{"put screen operator", "POST", "/screens", shopScreen, operator, http.StatusForbidden},
		{"put screen admin", "POST", "/screens", shopScreen, admin, http.StatusCreated},
		{"session anonymous", "GET", "/sessions/sess-1", "", none, http.StatusUnauthorized},
		{"session operator", "GET", "/sessions/sess-1", "", operator, http.StatusNotFound},
		{"health anonymous", "GET", "/health", "", none, http.StatusOK},
		{"render anonymous", "POST", "/render", `[]`, none, http.StatusOK},
		{"dispatch anonymous", "POST", "/dispatch", `{"action": {"type": "NOOP"}}`, none, http.StatusOK},
	}

	s := newTestServer(t, nil)
	enableAuth(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.creds != none {
				req.SetBasicAuth(tt.creds.user, tt.creds.pass)
			}
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
			if w.Code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
		})
	}
}

func TestAuthDisabledGrantsAdmin(t *testing.T) {
	resetAuth()
	req := httptest.NewRequest("GET", "/", nil)
	if role := authenticate(req); role != RoleAdmin {
		t.Errorf("expected admin without auth configured, got %q", role)
	}
}

func TestAuthWithoutOperator(t *testing.T) {
	auth = &authConfig{adminUser: "admin", adminPass: "secret", enabled: true}
	t.Cleanup(resetAuth)

	req := httptest.NewRequest("GET", "/", nil)
	req.SetBasicAuth("", "")
	if role := authenticate(req); role != "" {
		t.Errorf("expected empty operator credentials to be rejected, got %q", role)
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("test", "test") {
		t.Error("identical strings should match")
	}
	if secureCompare("test", "Test") || secureCompare("", "test") {
		t.Error("different strings should not match")
	}
}

func TestInitAuth_FromEnv(t *testing.T) {
	resetAuth()
	t.Cleanup(resetAuth)
	t.Setenv("SDUI_ADMIN_USER", "admin")
	t.Setenv("SDUI_ADMIN_PASS", "secret")
	t.Setenv("SDUI_OPERATOR_USER", "")
	t.Setenv("SDUI_OPERATOR_PASS", "")

	if err := InitAuth(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsAuthEnabled() {
		t.Error("auth should be enabled with admin credentials")
	}
}

func TestInitAuth_FileSecret(t *testing.T) {
	resetAuth()
	t.Cleanup(resetAuth)
	path := filepath.Join(t.TempDir(), "admin_pass")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SDUI_ADMIN_USER", "admin")
	t.Setenv("SDUI_ADMIN_PASS_FILE", path)

	if err := InitAuth(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.adminPass != "from-file" {
		t.Errorf("expected password from file, got %q", auth.adminPass)
	}
}

func TestInitAuth_UnreadableFile(t *testing.T) {
	resetAuth()
	t.Setenv("SDUI_ADMIN_USER_FILE", filepath.Join(t.TempDir(), "missing"))

	if err := InitAuth(); err == nil {
		t.Error("expected error for unreadable secret file")
	}
}

func TestInitAuth_Disabled(t *testing.T) {
	resetAuth()
	t.Cleanup(resetAuth)
	t.Setenv("SDUI_ADMIN_USER", "")
	t.Setenv("SDUI_ADMIN_PASS", "")

	if err := InitAuth(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if IsAuthEnabled() {
		t.Error("auth should be disabled without admin credentials")
	}
}
