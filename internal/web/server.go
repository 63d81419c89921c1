// Package web serves the HTTP API: the options proxy, realtime session negotiation, the
// selection wizard and practice transcripts.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/p-n-ai/pai-speak/internal/ai"
	"github.com/p-n-ai/pai-speak/internal/curriculum"
	"github.com/p-n-ai/pai-speak/internal/options"
	"github.com/p-n-ai/pai-speak/internal/practice"
	"github.com/p-n-ai/pai-speak/internal/selector"
	"github.com/p-n-ai/pai-speak/internal/topics"
)

const (
	maxBodyBytes     = 1 << 20
	maxMessagesBytes = 8 << 20
	readyTimeout     = 2 * time.Second
)

// HealthChecker is a dependency /readyz pings.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the collaborators of a Server. Options, Wizards and Realtime are required.
type Deps struct {
	Options        options.Source
	Wizards        *selector.Registry
	Curriculum     *curriculum.Loader
	Realtime       ai.Provider
	Practice       practice.Store
	Events         practice.EventLogger
	Checks         map[string]HealthChecker
	SampleSize     int
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	Deps
	allowed        map[string]struct{}
	originPatterns []string
}

// New creates a server, filling optional dependencies with in-memory defaults.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Practice == nil {
		d.Practice = practice.NewMemoryStore()
	}
	if d.Events == nil {
		d.Events = practice.NopEventLogger{}
	}
	if d.Curriculum == nil {
		d.Curriculum, _ = curriculum.NewLoader("")
	}
	if d.SampleSize <= 0 {
		d.SampleSize = topics.SampleSize
	}

	s := &Server{Deps: d, allowed: make(map[string]struct{}, len(d.AllowedOrigins))}
	for _, o := range d.AllowedOrigins {
		s.allowed[o] = struct{}{}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			s.originPatterns = append(s.originPatterns, u.Host)
		}
	}
	return s
}

// Routes registers every endpoint.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/options", s.handleOptions)
	mux.HandleFunc("POST /api/session", s.handleSession)

	mux.HandleFunc("POST /api/wizards", s.handleCreateWizard)
	mux.HandleFunc("GET /api/wizards/{id}", s.handleGetWizard)
	mux.HandleFunc("PUT /api/wizards/{id}", s.handleRetargetWizard)
	mux.HandleFunc("DELETE /api/wizards/{id}", s.handleDeleteWizard)
	mux.HandleFunc("POST /api/wizards/{id}/events", s.handleWizardEvent)
	mux.HandleFunc("GET /api/wizards/{id}/ws", s.handleWizardSocket)

	mux.HandleFunc("GET /api/practice/{id}", s.handleGetPractice)
	mux.HandleFunc("POST /api/practice/{id}/end", s.handleEndPractice)
	mux.HandleFunc("POST /api/practice/{id}/messages", s.handleAppendMessages)
	mux.HandleFunc("GET /api/practice/{id}/messages", s.handleListMessages)
	mux.HandleFunc("GET /api/practice/{id}/messages.xlsx", s.handleExportMessages)
	return mux
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Routes()
	h = CORS(s.allowed, h)
	h = Recover(s.Logger, h)
	h = AccessLog(s.Logger, h)
	return RequestID(h)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, c := range s.Checks {
		if err := c.HealthCheck(ctx); err != nil {
			s.Logger.Warn("readiness check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Options.Fetch(r.Context())
	if err != nil {
		s.Logger.Error("options fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to fetch options")
		return
	}
	etag := snap.ETag
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(snap.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLookupError maps unknown ids to 404 and everything else to 500.
func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, practice.ErrNotFound):
		writeError(w, http.StatusNotFound, "practice session not found")
	case errors.Is(err, selector.ErrUnknownWizard):
		writeError(w, http.StatusNotFound, "wizard not found")
	default:
		s.Logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(dst)
}
