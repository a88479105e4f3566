package classify

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp time.Time
	tier      Tier
	score     float64
}

// StatsSnapshot is a point-in-time aggregate of recent classifications.
type StatsSnapshot struct {
	Count    int              `json:"count"`
	Tiers    map[Tier]int     `json:"tiers"`
	MinScore float64          `json:"min_score"`
	MaxScore float64          `json:"max_score"`
	AvgScore float64          `json:"avg_score"`
	P50Score float64          `json:"p50_score"`
	P95Score float64          `json:"p95_score"`
	Degraded bool             `json:"degraded"`
}

// Stats tracks classification outcomes within a rolling window.
type Stats struct {
	mu       sync.Mutex
	samples  []sample
	maxAge   time.Duration
	degraded bool
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// SetDegraded marks that the classifier runs on the fallback word table.
func (s *Stats) SetDegraded(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = v
}

func (s *Stats) Record(res Result) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp: now,
		tier:      res.Classification,
		score:     res.Score,
	})
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{
		Tiers:    make(map[Tier]int),
		Degraded: s.degraded,
	}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]float64, 0, len(s.samples))
	var sum float64
	for _, sm := range s.samples {
		values = append(values, sm.score)
		sum += sm.score
		snap.Tiers[sm.tier]++
	}
	sort.Float64s(values)

	snap.Count = len(values)
	snap.MinScore = values[0]
	snap.MaxScore = values[len(values)-1]
	snap.AvgScore = sum / float64(len(values))
	snap.P50Score = percentile(values, 50)
	snap.P95Score = percentile(values, 95)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}
