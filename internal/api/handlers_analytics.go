package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/analytics"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/store"
)

// periodRange resolves the period query parameter. A nil error means
// start/end are ready to pass to the store.
func periodRange(r *http.Request) (string, string, string, error) {
	period := r.URL.Query().Get("period")
	start, end, err := analytics.ParsePeriod(period, time.Now())
	return period, start, end, err
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	sum, err := s.calculator.Summarize(r.Context(), period, time.Now())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sum)
}

func (s *Server) handleAnalyticsSectors(w http.ResponseWriter, r *http.Request) {
	s.groupedCounts(w, r, s.calculator.DealsBySector, "sectors")
}

func (s *Server) handleAnalyticsGrades(w http.ResponseWriter, r *http.Request) {
	s.groupedCounts(w, r, s.calculator.DealsByGrade, "grades")
}

func (s *Server) handleAnalyticsRegions(w http.ResponseWriter, r *http.Request) {
	s.groupedCounts(w, r, s.calculator.DealsByRegion, "regions")
}

func (s *Server) groupedCounts(w http.ResponseWriter, r *http.Request,
	query func(ctx context.Context, start, end string) ([]store.CountRow, error), key string) {
	period, start, end, err := periodRange(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := query(r.Context(), start, end)
	if err != nil {
		s.log.Error("analytics query", "group", key, "error", err)
		jsonError(w, "analytics query failed", http.StatusInternalServerError)
		return
	}
	if period == "" {
		period = analytics.PeriodAll
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"period": period, key: rows})
}

func (s *Server) handleAnalyticsFirms(w http.ResponseWriter, r *http.Request) {
	period, start, end, err := periodRange(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	firms, err := s.calculator.TopFirms(r.Context(), start, end, limit)
	if err != nil {
		s.log.Error("top firms query", "error", err)
		jsonError(w, "analytics query failed", http.StatusInternalServerError)
		return
	}
	if period == "" {
		period = analytics.PeriodAll
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"period": period, "firms": firms})
}
