package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server serves listener statistics
type Server struct {
	stats   SnapshotProvider
	metrics *Metrics
	config  ServerConfig
}

// NewServer creates a stats server. metrics may be nil, in which case
// /metrics is not routed.
func NewServer(stats SnapshotProvider, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		stats:   stats,
		metrics: metrics,
		config:  config,
	}
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.stats.Snapshot()
	sendSuccess(w, HealthStatus{Status: "ok", Uptime: snap.Uptime})
}

// handleStats returns the current counters
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, s.stats.Snapshot())
}

// handleEventStats returns the decoded count for one event name
func (s *Server) handleEventStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	snap := s.stats.Snapshot()
	n, ok := snap.Events[name]
	if !ok {
		sendError(w, "Event not seen", http.StatusNotFound)
		return
	}
	sendSuccess(w, map[string]interface{}{"event": name, "count": n})
}
