package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusStoring    JobStatus = "storing"
	StatusAnalyzing  JobStatus = "analyzing"
	StatusComposing  JobStatus = "composing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single digest ingestion.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	// EmailID is the stored email row once the storing phase completes.
	EmailID int64 `json:"email_id,omitempty"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	rawData []byte
	errors  []string
}

// Progress tracks per-phase counters.
type Progress struct {
	Sections        int      `json:"sections"`
	Deals           int      `json:"deals"`
	NewDeals        int      `json:"new_deals"`
	SkippedDeals    int      `json:"skipped_deals"`
	FirmsIdentified int      `json:"firms_identified"`
	Errors          []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetParsed records the parse-phase counters.
func (j *Job) SetParsed(sections, deals int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Sections = sections
	j.Progress.Deals = deals
	j.UpdatedAt = time.Now()
}

// SetStored records the store-phase outcome.
func (j *Job) SetStored(emailID int64, newDeals, skipped int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.EmailID = emailID
	j.Progress.NewDeals = newDeals
	j.Progress.SkippedDeals = skipped
	j.UpdatedAt = time.Now()
}

// SetFirmsIdentified records how many PE firms the analyze phase found.
func (j *Job) SetFirmsIdentified(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FirmsIdentified = n
	j.UpdatedAt = time.Now()
}

// SetRawData sets the raw digest bytes for processing.
func (j *Job) SetRawData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rawData = data
}

// RawData returns the raw digest bytes.
func (j *Job) RawData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rawData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	EmailID  int64     `json:"email_id,omitempty"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		EmailID:  j.EmailID,
		Progress: Progress{
			Sections:        j.Progress.Sections,
			Deals:           j.Progress.Deals,
			NewDeals:        j.Progress.NewDeals,
			SkippedDeals:    j.Progress.SkippedDeals,
			FirmsIdentified: j.Progress.FirmsIdentified,
			Errors:          errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
