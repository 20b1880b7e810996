// Package httpapi exposes sourced nodes, the last run report and metrics
// over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// Server holds the HTTP handler dependencies.
type Server struct {
	store    driven.NodeStore
	gatherer prometheus.Gatherer

	mu      sync.RWMutex
	report  *domain.SourceReport
	lastErr error
}

// New creates a server reading nodes from store. gatherer may be nil, in
// which case /metrics is not mounted.
func New(store driven.NodeStore, gatherer prometheus.Gatherer) *Server {
	return &Server{store: store, gatherer: gatherer}
}

// SetReport records the outcome of the latest sourcing run.
func (s *Server) SetReport(report *domain.SourceReport, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
	s.lastErr = err
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)
	r.Get("/report", s.Report)
	r.Get("/nodes", s.ListNodes)
	r.Get("/nodes/{id}", s.GetNode)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReportResponse is the body of GET /report.
type ReportResponse struct {
	Families  []domain.ContentFamily `json:"families"`
	Nodes     map[string]int         `json:"nodes"`
	Total     int                    `json:"total"`
	StartedAt time.Time              `json:"startedAt"`
	Duration  string                 `json:"duration"`
	Error     string                 `json:"error,omitempty"`
}

// Report handles GET /report. It returns 404 until a run has finished.
func (s *Server) Report(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	report, lastErr := s.report, s.lastErr
	s.mu.RUnlock()

	if report == nil {
		http.Error(w, "no sourcing run has completed", http.StatusNotFound)
		return
	}

	resp := ReportResponse{
		Families:  report.Families,
		Nodes:     report.Nodes,
		Total:     report.Total(),
		StartedAt: report.StartedAt,
		Duration:  report.Duration.String(),
	}
	if lastErr != nil {
		resp.Error = lastErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListNodes handles GET /nodes. The optional type query parameter
// filters by node type.
func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store.ListNodes(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if nodes == nil {
		nodes = []domain.Node{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

// GetNode handles GET /nodes/{id}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := s.store.GetNode(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response: %v", err)
	}
}
