package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/AaronLay10/SentientUI/internal/condition"
	"github.com/AaronLay10/SentientUI/internal/effects"
	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/AaronLay10/SentientUI/internal/registry"
	"github.com/AaronLay10/SentientUI/internal/screen"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "sduihost",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(filterFromQuery(r).apply(events.Snapshot()))
}

// Deps are the collaborators behind the HTTP surface. Conditions and Limiter
// may be nil.
type Deps struct {
	Registry    registry.Snapshot
	Intake      *screen.Intake
	Validator   *screen.Validator
	Sessions    *effects.SessionStore
	Host        *effects.Host
	Conditions  *condition.Evaluator
	Limiter     *RateLimiter
	StrictProps bool
}

// Server serves the host API.
type Server struct {
	deps  Deps
	store *screen.Store

	httpServer *http.Server
}

// NewServer creates a server over d.
func NewServer(d Deps) *Server {
	return &Server{deps: d, store: d.Intake.Store()}
}

func (s *Server) limit(h http.HandlerFunc) http.HandlerFunc {
	if s.deps.Limiter == nil {
		return h
	}
	return s.deps.Limiter.Limit(h)
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.HandleFunc("/events", RequireAnyRole(eventsHandler))
	mux.HandleFunc("/ws/events", RequireAnyRole(wsEventsHandler))

	mux.HandleFunc("GET /screens", s.listScreensHandler)
	mux.HandleFunc("POST /screens", RequireAdmin(s.putScreenHandler))
	mux.HandleFunc("GET /screens/{id}", s.limit(s.getScreenHandler))
	mux.HandleFunc("POST /render", s.limit(s.renderHandler))
	mux.HandleFunc("POST /dispatch", s.limit(s.dispatchHandler))
	mux.HandleFunc("POST /trigger", s.limit(s.triggerHandler))
	mux.HandleFunc("GET /sessions/{id}", RequireAnyRole(s.getSessionHandler))
	return mux
}

func (s *Server) prepare(port int) *http.Server {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		TLSConfig:         LoadTLSConfig(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer
}

func serve(srv *http.Server) error {
	if srv.TLSConfig != nil {
		log.Printf("API listening on %s (TLS)\n", srv.Addr)
		return srv.ListenAndServeTLS("", "")
	}
	log.Printf("API listening on %s\n", srv.Addr)
	return srv.ListenAndServe()
}

// ListenAndServe starts the API server on the given port, over TLS when
// certificates are configured. It blocks until the server exits.
func (s *Server) ListenAndServe(port int) error {
	return serve(s.prepare(port))
}

// Start starts the API server in a goroutine.
// Errors are logged but do not stop the caller.
func (s *Server) Start(port int) {
	srv := s.prepare(port)
	go func() {
		if err := serve(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("api server error: %v", err)
		}
	}()
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
