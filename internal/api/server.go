// Package api exposes the poll interval service over HTTP for remote TUIs and
// the CLI.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youhavemail/yhm/internal/core"
	"github.com/youhavemail/yhm/internal/interval"
	"github.com/youhavemail/yhm/internal/metrics"
	"github.com/youhavemail/yhm/internal/utils"
)

// HeartbeatInterval is how often an idle event stream gets a comment line.
const HeartbeatInterval = 15 * time.Second

// Server routes HTTP requests to a PollIntervalService.
type Server struct {
	service core.PollIntervalService
	metrics *metrics.Metrics
	version string
	router  chi.Router

	heartbeat time.Duration
}

// NewServer creates the router. m may be nil, in which case /metrics is not served.
func NewServer(service core.PollIntervalService, m *metrics.Metrics, version string) *Server {
	s := &Server{
		service:   service,
		metrics:   m,
		version:   version,
		router:    chi.NewRouter(),
		heartbeat: HeartbeatInterval,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	s.router.Get("/intervals", s.handleIntervals)
	s.router.Get("/poll-interval", s.handleGetPollInterval)
	s.router.With(middleware.AllowContentType("application/json")).
		Put("/poll-interval", s.handleSetPollInterval)
	s.router.Get("/events", s.handleEvents)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleIntervals(w http.ResponseWriter, r *http.Request) {
	out := make([]core.PollIntervalStatus, 0, interval.Len())
	for _, iv := range interval.Catalog() {
		out = append(out, core.PollIntervalStatus{Seconds: iv.Seconds()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPollInterval(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.PollIntervalStatus{Seconds: s.service.PollInterval()})
}

func (s *Server) handleSetPollInterval(w http.ResponseWriter, r *http.Request) {
	var req core.PollIntervalStatus
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	err := s.service.SetPollInterval(r.Context(), req.Seconds)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, core.PollIntervalStatus{Seconds: req.Seconds})
	case errors.Is(err, interval.ErrNotInCatalog):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrServiceClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		utils.Error("set poll interval failed: %v", err)
		http.Error(w, "Failed to update poll interval", http.StatusInternalServerError)
	}
}

// handleEvents streams poll interval changes as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates, cancel, err := s.service.Subscribe(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case seconds, ok := <-updates:
			if !ok {
				return
			}
			data, _ := json.Marshal(core.PollIntervalStatus{Seconds: seconds})
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", core.EventPollInterval, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		utils.Debug("%s %s -> %d (%s) [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}
