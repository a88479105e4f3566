package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/fsnotify.v1"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/parser"
)

// SpoolWatcher submits digest files dropped into a spool directory as
// ingest jobs. Processed files move to a done/ subdirectory so a
// restart never re-ingests them.
type SpoolWatcher struct {
	dir          string
	orchestrator *Orchestrator
	log          *slog.Logger

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
}

func NewSpoolWatcher(dir string, o *Orchestrator, log *slog.Logger) *SpoolWatcher {
	return &SpoolWatcher{
		dir:          dir,
		orchestrator: o,
		log:          log,
	}
}

// Start scans the directory for existing files, then watches for new
// ones.
func (s *SpoolWatcher) Start() error {
	if err := os.MkdirAll(filepath.Join(s.dir, "done"), 0o755); err != nil {
		return fmt.Errorf("create spool done dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch spool dir %s: %w", s.dir, err)
	}
	s.watcher = watcher
	s.stopChan = make(chan struct{})

	go s.watchLoop()

	// Pick up files already present.
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("scan spool dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s.submitFile(filepath.Join(s.dir, entry.Name()))
	}

	return nil
}

// Stop shuts the watcher down.
func (s *SpoolWatcher) Stop() {
	if s.stopChan != nil {
		close(s.stopChan)
	}
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *SpoolWatcher) watchLoop() {
	for {
		select {
		case <-s.stopChan:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			// Writers may still be flushing when Create fires.
			time.Sleep(200 * time.Millisecond)
			s.submitFile(event.Name)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Error("spool watcher error", "error", err)
		}
	}
}

func (s *SpoolWatcher) submitFile(path string) {
	name := filepath.Base(path)
	if !parser.IsSupportedExtension(name) {
		s.log.Warn("ignoring unsupported spool file", "file", name)
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Error("read spool file", "file", name, "error", err)
		return
	}

	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetRawData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		s.log.Error("submit spool job", "file", name, "error", err)
		return
	}
	s.log.Info("queued spool file", "file", name, "job_id", job.ID)

	done := filepath.Join(s.dir, "done", name)
	if err := os.Rename(path, done); err != nil {
		s.log.Warn("move processed spool file", "file", name, "error", err)
	}
}
