package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/analytics"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/api"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/classify"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/compose"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/config"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/extract"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/pipeline"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.VocabPath != "" {
		vocab, err := config.LoadVocabulary(cfg.VocabPath)
		if err != nil {
			log.Error("failed to load vocabulary", "path", cfg.VocabPath, "error", err)
			os.Exit(1)
		}
		cfg.Sections = vocab.Sections
		cfg.RelevantSectors = vocab.RelevantSectors
		cfg.InvestorKeys = vocab.InvestorKeys
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage.
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.Init(ctx); err != nil {
		log.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	// Classifier: trained table when training data is available, the
	// built-in fallback table otherwise.
	var classifier *classify.Classifier
	if cfg.TrainingDataPath != "" {
		scores, err := classify.LoadWordScores(cfg.TrainingDataPath)
		if err != nil {
			log.Warn("training data unavailable, using fallback word table",
				"path", cfg.TrainingDataPath, "error", err)
			classifier = classify.NewFallback()
		} else {
			classifier = classify.New(scores)
			log.Info("classifier trained", "path", cfg.TrainingDataPath, "words", len(scores))
		}
	} else {
		log.Warn("no training data configured, using fallback word table")
		classifier = classify.NewFallback()
	}

	stats := classify.NewStats(time.Hour)
	stats.SetDegraded(classifier.Degraded)

	extractor := extract.NewExtractor(cfg.InvestorKeys)
	composer := compose.NewComposer(cfg.RelevantSectors)

	// Pipeline.
	orch := pipeline.NewOrchestrator(cfg, st, extractor, classifier, composer, stats, log)
	orch.Start(ctx)

	// Spool watcher.
	var spool *pipeline.SpoolWatcher
	if cfg.SpoolDir != "" {
		spool = pipeline.NewSpoolWatcher(cfg.SpoolDir, orch, log)
		if err := spool.Start(); err != nil {
			log.Error("failed to start spool watcher", "dir", cfg.SpoolDir, "error", err)
			os.Exit(1)
		}
		log.Info("watching spool directory", "dir", cfg.SpoolDir)
	}

	// Scheduled composition.
	scheduler, err := pipeline.NewScheduler(cfg.ComposeSchedule, orch, log)
	if err != nil {
		log.Error("invalid compose schedule", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// HTTP server.
	calc := analytics.NewCalculator(st, extractor, classifier)
	srv := api.NewServer(orch, calc, classifier, stats, composer, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Ingest sources first, then the HTTP server, and the pipeline
		// last so in-flight requests can still submit jobs.
		scheduler.Stop()
		if spool != nil {
			spool.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting intelligence service", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
