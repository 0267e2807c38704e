package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rdelgado/meraki-snipeit-sync/internal/models"
)

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListRuns returns all sync runs, most recent first.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.Runs.List()
	if runs == nil {
		runs = []*models.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one run with its statistics and log output.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run := s.Runs.Get(id)
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// RunSync triggers a sync run outside the schedule.
func (s *Server) RunSync(w http.ResponseWriter, r *http.Request) {
	if s.TriggerSync == nil {
		writeError(w, http.StatusServiceUnavailable, "manual sync not available")
		return
	}
	if !s.TriggerSync() {
		writeError(w, http.StatusConflict, "a sync run is already in progress")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
