package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	emails, err := s.orchestrator.Store().ListEmails(r.Context())
	if err != nil {
		s.log.Error("list reports", "error", err)
		jsonError(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"reports": emails})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reportID"), 10, 64)
	if err != nil {
		jsonError(w, "invalid report id", http.StatusBadRequest)
		return
	}

	rep, err := s.orchestrator.Store().GetReport(r.Context(), id)
	if err != nil {
		jsonError(w, "report not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}
