package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/AaronLay10/SentientUI/internal/action"
	"github.com/AaronLay10/SentientUI/internal/components"
	"github.com/AaronLay10/SentientUI/internal/effects"
	"github.com/AaronLay10/SentientUI/internal/render"
	"github.com/AaronLay10/SentientUI/internal/screen"
	"github.com/AaronLay10/SentientUI/internal/vdom"
)

const maxBodyBytes = 1 << 20

// SessionHeader carries the session a render was bound to.
const SessionHeader = "X-SDUI-Session"

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type ScreenResponse struct {
	OK              bool   `json:"ok"`
	ScreenID        string `json:"screen_id"`
	ProtocolVersion string `json:"protocol_version"`
}

// DispatchRequest runs one action. Session must be an id the host issued;
// anything else starts a new session.
type DispatchRequest struct {
	Session string          `json:"session"`
	Action  json.RawMessage `json:"action"`
}

type TriggerRequest struct {
	Session string `json:"session"`
	Screen  string `json:"screen"`
	Key     string `json:"key"`
	Handler string `json:"handler"`
}

// SessionResponse reports the session after an action ran. Error is set when
// the dispatch failed part way.
type SessionResponse struct {
	OK       bool                 `json:"ok"`
	Error    string               `json:"error,omitempty"`
	Warnings []string             `json:"warnings,omitempty"`
	Session  effects.SessionState `json:"session"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{OK: false, Error: msg})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return nil, false
	}
	return body, true
}

// renderOptions binds the renderer to sess: callbacks dispatch into the
// session, conditions see its state.
func (s *Server) renderOptions(ctx context.Context, sess *effects.Session) render.Options {
	fn := s.deps.Host.Dispatcher(sess, s.deps.Conditions).Func()
	opts := render.Options{
		Dispatch:       fn,
		Fallback:       components.Fallback,
		SectionWrapper: components.SectionWrapper(ctx, fn),
		StrictProps:    s.deps.StrictProps,
	}
	if s.deps.Conditions != nil {
		opts.Conditions = s.deps.Conditions
		opts.State = sess.State()
	}
	return opts
}

func writeNodes(w http.ResponseWriter, format string, nodes []*vdom.VNode) {
	switch format {
	case "json":
		if nodes == nil {
			nodes = []*vdom.VNode{}
		}
		writeJSON(w, http.StatusOK, nodes)
	case "", "html":
		var buf bytes.Buffer
		if err := vdom.RenderHTML(&buf, nodes...); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
}

func validFormat(format string) bool {
	return format == "" || format == "html" || format == "json"
}

func (s *Server) listScreensHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.IDs())
}

func (s *Server) putScreenHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	env, err := s.deps.Intake.Accept(body, "http")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ScreenResponse{
		OK:              true,
		ScreenID:        env.Screen.ID,
		ProtocolVersion: env.ProtocolVersion,
	})
}

func (s *Server) getScreenHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if !validFormat(format) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}
	scr := s.store.Get(r.PathValue("id"))
	if scr == nil {
		writeError(w, http.StatusNotFound, "screen not found")
		return
	}

	sess := s.deps.Sessions.GetOrCreate(r.URL.Query().Get("session"))
	nodes := render.Screen(r.Context(), s.deps.Registry, scr, s.renderOptions(r.Context(), sess))
	metricsState.renders.Add(1)

	w.Header().Set(SessionHeader, sess.ID)
	writeNodes(w, format, nodes)
}

// renderHandler renders an ad-hoc body: a screen envelope, or a bare list of
// component or section descriptors.
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if !validFormat(format) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	sess := s.deps.Sessions.GetOrCreate(r.URL.Query().Get("session"))
	opts := s.renderOptions(r.Context(), sess)

	var nodes []*vdom.VNode
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := s.deps.Validator.ValidateList(body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var err error
		nodes, err = render.List(r.Context(), s.deps.Registry, items, render.Auto, opts)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if err := s.deps.Validator.Validate(body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		env, err := screen.DecodeEnvelope(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		nodes = render.Screen(r.Context(), s.deps.Registry, &env.Screen, opts)
	}
	metricsState.renders.Add(1)

	w.Header().Set(SessionHeader, sess.ID)
	writeNodes(w, format, nodes)
}

func (s *Server) dispatchHandler(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Action) == 0 {
		writeError(w, http.StatusBadRequest, "action required")
		return
	}
	a, err := action.Parse(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result := action.Validate(*a)
	if err := result.Err(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.deps.Sessions.GetOrCreate(req.Session)
	err = s.deps.Host.Dispatcher(sess, s.deps.Conditions).Dispatch(r.Context(), *a)
	s.respondSession(w, sess, err, result.Warnings...)
}

// triggerHandler renders a stored screen for the session and invokes one
// synthesized callback, as a renderer client would on a tap.
func (s *Server) triggerHandler(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Screen == "" || req.Key == "" {
		writeError(w, http.StatusBadRequest, "screen and key required")
		return
	}
	if req.Handler == "" {
		req.Handler = "onPress"
	}

	scr := s.store.Get(req.Screen)
	if scr == nil {
		writeError(w, http.StatusNotFound, "screen not found")
		return
	}

	sess := s.deps.Sessions.GetOrCreate(req.Session)
	nodes := render.Screen(r.Context(), s.deps.Registry, scr, s.renderOptions(r.Context(), sess))
	metricsState.renders.Add(1)

	node := vdom.Find(nodes, req.Key)
	if node == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no node with key %q", req.Key))
		return
	}
	cb, ok := node.Handlers[req.Handler]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("node %q has no %s handler", req.Key, req.Handler))
		return
	}
	s.respondSession(w, sess, cb())
}

func (s *Server) respondSession(w http.ResponseWriter, sess *effects.Session, err error, warnings ...string) {
	metricsState.dispatches.Add(1)
	w.Header().Set(SessionHeader, sess.ID)
	resp := SessionResponse{OK: true, Warnings: warnings, Session: sess.Snapshot()}
	status := http.StatusOK
	if err != nil {
		metricsState.dispatchErrors.Add(1)
		resp.OK = false
		resp.Error = err.Error()
		status = http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.deps.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}
