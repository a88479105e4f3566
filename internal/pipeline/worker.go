package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/classify"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/compose"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/extract"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/parser"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/store"
)

// Worker processes a single digest job through the parse, store,
// analyze and compose phases.
type Worker struct {
	store      *store.Store
	extractor  *extract.Extractor
	classifier *classify.Classifier
	composer   *compose.Composer
	stats      *classify.Stats
	log        *slog.Logger

	sections  []string
	outputDir string
}

func NewWorker(s *store.Store, e *extract.Extractor, c *classify.Classifier,
	cp *compose.Composer, st *classify.Stats, log *slog.Logger,
	sections []string, outputDir string) *Worker {
	return &Worker{
		store:      s,
		extractor:  e,
		classifier: c,
		composer:   cp,
		stats:      st,
		log:        log,
		sections:   sections,
		outputDir:  outputDir,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.sections)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	raw := job.RawData()
	job.ContentHash = ContentHashHex(raw)

	rep, err := p.Parse(bytes.NewReader(raw))
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	totalItems := rep.TotalItems()
	job.SetParsed(len(rep.Sections), totalItems)
	log.Info("parsed digest", "sections", len(rep.Sections), "items", totalItems)

	if totalItems == 0 {
		log.Warn("no items parsed")
		job.AddError("no recognizable digest content")
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Store
	job.SetStatus(StatusStoring, "storing")
	summary, err := w.store.ImportReport(ctx, rep)
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	job.SetStored(summary.EmailID, summary.NewDeals, summary.SkippedDeals)
	log.Info("stored report", "email_id", summary.EmailID,
		"new_deals", summary.NewDeals, "skipped_deals", summary.SkippedDeals)

	if summary.NewDeals == 0 && summary.SkippedDeals > 0 {
		log.Info("duplicate digest, skipping analysis")
		job.SetStatus(StatusDupSkipped, "storing")
		return
	}

	// Phase 3: Analyze
	job.SetStatus(StatusAnalyzing, "analyzing")
	firms := w.analyzeFirms(rep)
	job.SetFirmsIdentified(len(firms))
	log.Info("analysis complete", "pe_firms", len(firms))

	// Phase 4: Compose
	hadErrors := false
	job.SetStatus(StatusComposing, "composing")
	if w.outputDir != "" {
		if err := w.writeComposed(rep, summary.EmailID); err != nil {
			log.Error("compose failed", "error", err)
			job.AddError(fmt.Sprintf("compose: %s", err))
			hadErrors = true
		}
	}

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// analyzeFirms runs extraction and classification over every deal in
// the report and returns the distinct PE firms found.
func (w *Worker) analyzeFirms(rep *digest.Report) []string {
	seen := make(map[string]bool)
	var firms []string
	for _, sec := range rep.Sections {
		for _, item := range sec.Items {
			body := ""
			metadata := map[string]string{}
			if item.Details != nil {
				body = item.Details.Body
				if item.Details.Metadata != nil {
					for _, key := range item.Details.Metadata.Keys() {
						v, _ := item.Details.Metadata.Get(key)
						metadata[key] = v
					}
				}
			}
			for _, name := range w.extractor.Firms(body, metadata) {
				if seen[name] {
					continue
				}
				seen[name] = true
				res := w.classifier.Classify(name)
				w.stats.Record(res)
				if res.IsPE() {
					firms = append(firms, name)
				}
			}
		}
	}
	return firms
}

func (w *Worker) writeComposed(rep *digest.Report, emailID int64) error {
	content := w.composer.Compose(rep, compose.Options{})
	name := fmt.Sprintf("digest_%d_%s.txt", emailID, time.Now().Format("20060102_150405"))
	path := filepath.Join(w.outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write composed digest: %w", err)
	}
	return nil
}
