package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/compose"
)

type classifyRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res := s.classifier.Classify(req.Name)
	s.stats.Record(res)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (s *Server) handleClassifierStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.stats.Snapshot())
}

// handleCompose renders a stored report as an outbound digest, plain
// text by default or HTML with ?format=html. Sector filters come from
// repeated include/exclude query parameters.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
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

	opts := compose.Options{
		Include: r.URL.Query()["include"],
		Exclude: r.URL.Query()["exclude"],
	}

	if r.URL.Query().Get("format") == "html" {
		out, err := s.composer.ComposeHTML(rep, opts)
		if err != nil {
			s.log.Error("compose html", "report_id", id, "error", err)
			jsonError(w, "composition failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(out)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.composer.Compose(rep, opts)))
}
