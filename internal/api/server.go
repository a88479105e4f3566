package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/analytics"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/classify"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/compose"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/config"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/pipeline"
)

// Server is the HTTP API for the intelligence service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	calculator   *analytics.Calculator
	classifier   *classify.Classifier
	stats        *classify.Stats
	composer     *compose.Composer
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, calc *analytics.Calculator,
	cls *classify.Classifier, stats *classify.Stats, comp *compose.Composer,
	log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		calculator:   calc,
		classifier:   cls,
		stats:        stats,
		composer:     comp,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)

		r.Get("/api/reports", s.handleListReports)
		r.Get("/api/reports/{reportID}", s.handleGetReport)

		r.Get("/api/analytics/summary", s.handleAnalyticsSummary)
		r.Get("/api/analytics/sectors", s.handleAnalyticsSectors)
		r.Get("/api/analytics/firms", s.handleAnalyticsFirms)
		r.Get("/api/analytics/grades", s.handleAnalyticsGrades)
		r.Get("/api/analytics/regions", s.handleAnalyticsRegions)

		r.Post("/api/classify", s.handleClassify)
		r.Get("/api/compose/{reportID}", s.handleCompose)
		r.Get("/api/stats/classifier", s.handleClassifierStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
