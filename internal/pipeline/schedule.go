package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler re-composes the latest digest on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewScheduler wires ComposeLatest onto the given cron expression
// (standard five-field syntax). An empty expression disables scheduling.
func NewScheduler(expr string, o *Orchestrator, log *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{log: log}
	if expr == "" {
		return s, nil
	}

	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		if err := o.ComposeLatest(context.Background()); err != nil {
			log.Error("scheduled composition failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid compose schedule %q: %w", expr, err)
	}
	s.cron = c
	return s, nil
}

func (s *Scheduler) Start() {
	if s.cron != nil {
		s.cron.Start()
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
