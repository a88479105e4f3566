package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/classify"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/compose"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/config"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/extract"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/store"
)

// Orchestrator manages the digest ingestion pipeline.
type Orchestrator struct {
	jobs       *JobStore
	queue      chan *Job
	store      *store.Store
	extractor  *extract.Extractor
	classifier *classify.Classifier
	composer   *compose.Composer
	stats      *classify.Stats
	log        *slog.Logger
	cfg        config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, s *store.Store, e *extract.Extractor,
	c *classify.Classifier, cp *compose.Composer, st *classify.Stats,
	log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:       NewJobStore(cfg.JobTTL),
		queue:      make(chan *Job, cfg.MaxQueueSize),
		store:      s,
		extractor:  e,
		classifier: c,
		composer:   cp,
		stats:      st,
		log:        log,
		cfg:        cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.store, o.extractor, o.classifier, o.composer,
				o.stats, o.log, o.cfg.Sections, o.cfg.OutputDir)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. Safe to call more than once;
// Submit refuses new jobs from the first call on.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Lock()
	if !o.stopped {
		o.stopped = true
		close(o.queue)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// Submit queues a new job for processing. The queue mutex covers the
// send so a concurrent Stop cannot close the channel under it.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return fmt.Errorf("pipeline is shutting down")
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the report store for direct use by API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// ComposeLatest re-composes the most recently ingested digest and writes
// it to the output directory. The scheduler calls this.
func (o *Orchestrator) ComposeLatest(ctx context.Context) error {
	emails, err := o.store.ListEmails(ctx)
	if err != nil {
		return fmt.Errorf("list emails: %w", err)
	}
	if len(emails) == 0 {
		o.log.Info("no stored digests to compose")
		return nil
	}

	rep, err := o.store.GetReport(ctx, emails[0].ID)
	if err != nil {
		return fmt.Errorf("load report %d: %w", emails[0].ID, err)
	}

	w := NewWorker(o.store, o.extractor, o.classifier, o.composer,
		o.stats, o.log, o.cfg.Sections, o.cfg.OutputDir)
	if err := w.writeComposed(rep, emails[0].ID); err != nil {
		return err
	}
	o.log.Info("composed latest digest", "email_id", emails[0].ID)
	return nil
}
