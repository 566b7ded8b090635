package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"extraction":  s.deps.Orchestrator.Stats().Snapshot(),
		"suggestion":  s.deps.Suggester.Stats().Snapshot(),
		"queue_depth": s.deps.Orchestrator.QueueDepth(),
		"sessions":    s.deps.Orchestrator.SessionCount(),
	})
}
