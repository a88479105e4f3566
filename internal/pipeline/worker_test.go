package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/classify"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/compose"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/extract"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/store"
)

const sampleDigestText = `Subject: Daily intelligence (05/11/2024 09:30:00)

Automotive

1. Supplier buyout agreed

Computer software

2. Vendor explores options

1. Supplier buyout agreed

The business is backed by Nordic Capital Partners.

Source: Company Press Release
Intelligence ID: INT-5001
Grade: Confirmed


2. Vendor explores options

Advisers have been appointed for a sale process.

Intelligence ID: INT-5002
`

func testWorker(t *testing.T, outputDir string) (*Worker, *store.Store) {
	t.Helper()

	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWorker(s, extract.NewExtractor(nil), classify.NewFallback(),
		compose.NewComposer(nil), classify.NewStats(time.Hour), log, nil, outputDir)
	return w, s
}

func newTestJob(filename, content string) *Job {
	job := &Job{
		ID:        "job-1",
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetRawData([]byte(content))
	return job
}

func TestWorker_ProcessCompletes(t *testing.T) {
	outDir := t.TempDir()
	w, s := testWorker(t, outDir)

	job := newTestJob("digest.txt", sampleDigestText)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Sections != 2 || snap.Progress.Deals != 2 {
		t.Errorf("unexpected parse counters %+v", snap.Progress)
	}
	if snap.Progress.NewDeals != 2 {
		t.Errorf("expected 2 new deals, got %d", snap.Progress.NewDeals)
	}
	if snap.Progress.FirmsIdentified == 0 {
		t.Error("expected at least one PE firm identified")
	}

	n, err := s.CountDeals(context.Background(), "", "")
	if err != nil {
		t.Fatalf("count deals: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 stored deals, got %d", n)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one composed file, got %d", len(entries))
	}
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	w, _ := testWorker(t, "")

	first := newTestJob("digest.txt", sampleDigestText)
	w.Process(context.Background(), first)
	if first.Snapshot().Status != StatusCompleted {
		t.Fatalf("first run should complete, got %s", first.Snapshot().Status)
	}

	second := newTestJob("digest.txt", sampleDigestText)
	second.ID = "job-2"
	w.Process(context.Background(), second)

	snap := second.Snapshot()
	if snap.Status != StatusDupSkipped {
		t.Errorf("expected duplicate_skipped, got %s", snap.Status)
	}
	if snap.Progress.SkippedDeals != 2 {
		t.Errorf("expected 2 skipped deals, got %d", snap.Progress.SkippedDeals)
	}
}

func TestWorker_UnsupportedExtension(t *testing.T) {
	w, _ := testWorker(t, "")
	job := newTestJob("digest.pdf", "binary")
	w.Process(context.Background(), job)
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected failed, got %s", job.Snapshot().Status)
	}
}

func TestWorker_EmptyDigestFails(t *testing.T) {
	w, _ := testWorker(t, "")
	job := newTestJob("digest.txt", "just some prose\nwith no structure\n")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed for empty parse, got %s", snap.Status)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected an error message")
	}
}
