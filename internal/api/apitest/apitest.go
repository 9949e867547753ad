// Package apitest provides an in-process fake of the analysis service.
// Replies are scripted per endpoint; unscripted calls get realistic
// defaults, and history is kept per session the way the real service does.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sprite-ai/coderefine/internal/api"
)

// maxHistory mirrors the service's per-session cap.
const maxHistory = 20

// Reply scripts one response.
type Reply struct {
	Status int
	// Body is marshaled as JSON. json.RawMessage and string are written
	// verbatim; nil writes no body.
	Body any
	// Gate, when non-nil, holds the reply until it is closed or receives.
	Gate <-chan struct{}
}

// Request is a recorded call.
type Request struct {
	Method    string
	Path      string
	SessionID string
	Body      []byte
}

// Decode unmarshals the recorded body.
func (r Request) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Server is the fake service.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	scripts  map[string][]Reply
	requests []Request
	history  map[string][]map[string]any
	now      func() time.Time
}

// New starts a fake service and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		scripts: map[string][]Reply{},
		history: map[string][]map[string]any{},
		now:     time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post(api.PathAnalyze, s.handleAnalyze)
	r.Post(api.PathRewrite, s.handleRewrite)
	r.Get(api.PathHistory, s.handleHistory)
	r.Delete(api.PathHistory, s.handleClearHistory)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func key(method, path string) string { return method + " " + path }

// OnAnalyze queues replies for POST /api/analyze.
func (s *Server) OnAnalyze(replies ...Reply) { s.script(http.MethodPost, api.PathAnalyze, replies) }

// OnRewrite queues replies for POST /api/rewrite.
func (s *Server) OnRewrite(replies ...Reply) { s.script(http.MethodPost, api.PathRewrite, replies) }

// OnHistory queues replies for GET /api/history.
func (s *Server) OnHistory(replies ...Reply) { s.script(http.MethodGet, api.PathHistory, replies) }

// OnClearHistory queues replies for DELETE /api/history.
func (s *Server) OnClearHistory(replies ...Reply) {
	s.script(http.MethodDelete, api.PathHistory, replies)
}

func (s *Server) script(method, path string, replies []Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(method, path)
	s.scripts[k] = append(s.scripts[k], replies...)
}

// Requests returns recorded calls to method+path, oldest first.
func (s *Server) Requests(method, path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of calls to method+path.
func (s *Server) Count(method, path string) int {
	return len(s.Requests(method, path))
}

// SeedHistory replaces a session's stored history.
func (s *Server) SeedHistory(sessionID string, entries ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[sessionID] = append([]map[string]any(nil), entries...)
}

// record logs the call and pops the next scripted reply, if any.
func (s *Server) record(r *http.Request) (Request, *Reply) {
	body, _ := io.ReadAll(r.Body)
	req := Request{
		Method:    r.Method,
		Path:      r.URL.Path,
		SessionID: r.Header.Get(api.HeaderSessionID),
		Body:      body,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	k := key(r.Method, r.URL.Path)
	queue := s.scripts[k]
	if len(queue) == 0 {
		return req, nil
	}
	reply := queue[0]
	s.scripts[k] = queue[1:]
	return req, &reply
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, reply := s.record(r)
	if reply == nil {
		reply = &Reply{Status: http.StatusOK, Body: map[string]any{
			"success":   true,
			"sessionId": req.SessionID,
			"analysis":  json.RawMessage(SampleAnalysisJSON),
		}}
	}
	if ok := s.write(w, r, reply); ok && reply.Status < 300 {
		s.remember(req)
	}
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	_, reply := s.record(r)
	if reply == nil {
		reply = &Reply{Status: http.StatusOK, Body: map[string]any{
			"success": true,
			"rewrite": json.RawMessage(SampleRewriteJSON),
		}}
	}
	s.write(w, r, reply)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	req, reply := s.record(r)
	if reply == nil {
		s.mu.Lock()
		entries := append([]map[string]any{}, s.history[req.SessionID]...)
		s.mu.Unlock()
		reply = &Reply{Status: http.StatusOK, Body: map[string]any{
			"success":   true,
			"sessionId": req.SessionID,
			"history":   entries,
			"total":     len(entries),
		}}
	}
	s.write(w, r, reply)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	req, reply := s.record(r)
	if reply == nil {
		reply = &Reply{Status: http.StatusOK, Body: map[string]any{
			"success": true,
			"message": "History cleared",
		}}
	}
	if ok := s.write(w, r, reply); ok && reply.Status < 300 {
		s.mu.Lock()
		delete(s.history, req.SessionID)
		s.mu.Unlock()
	}
}

// remember stores a history entry for a successful analysis.
func (s *Server) remember(req Request) {
	var in struct {
		Language string `json:"language"`
	}
	_ = req.Decode(&in)

	entry := map[string]any{
		"language":   in.Language,
		"score":      72,
		"grade":      "B",
		"summary":    "Mostly solid with a few issues.",
		"issueCount": 3,
		"timestamp":  s.now().UTC().Format("2006-01-02T15:04:05.000000"),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := append([]map[string]any{entry}, s.history[req.SessionID]...)
	if len(list) > maxHistory {
		list = list[:maxHistory]
	}
	s.history[req.SessionID] = list
}

// write waits on the reply gate, then writes it. It reports false when the
// client went away first.
func (s *Server) write(w http.ResponseWriter, r *http.Request, reply *Reply) bool {
	if reply.Gate != nil {
		select {
		case <-reply.Gate:
		case <-r.Context().Done():
			return false
		}
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	switch body := reply.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	case json.RawMessage:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	return true
}

// Detail builds the service's failure body.
func Detail(msg string) map[string]any {
	return map[string]any{"detail": msg}
}
