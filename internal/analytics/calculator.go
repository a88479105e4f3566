// Package analytics aggregates stored deals into summary figures and
// ranks the PE firms the extractor and classifier surface from deal
// text.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/classify"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/extract"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/store"
)

// Period names accepted by ParsePeriod, besides "start,end" ranges.
const (
	PeriodAll          = "all"
	PeriodCurrentMonth = "current_month"
	PeriodYTD          = "ytd"
)

// ParsePeriod resolves a period expression into a [start, end] pair of
// date strings matching the stored parsed_date format. Empty strings
// mean no filtering.
func ParsePeriod(period string, now time.Time) (string, string, error) {
	switch period {
	case "", PeriodAll:
		return "", "", nil
	case PeriodCurrentMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start.Format("2006-01-02T15:04:05"), now.Format("2006-01-02T15:04:05"), nil
	case PeriodYTD:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return start.Format("2006-01-02T15:04:05"), now.Format("2006-01-02T15:04:05"), nil
	}

	parts := strings.SplitN(period, ",", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid period %q", period)
	}
	start, err := time.Parse("2006-01-02", strings.TrimSpace(parts[0]))
	if err != nil {
		return "", "", fmt.Errorf("invalid period start: %w", err)
	}
	end, err := time.Parse("2006-01-02", strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", fmt.Errorf("invalid period end: %w", err)
	}
	if end.Before(start) {
		return "", "", fmt.Errorf("period end before start")
	}
	// End day is inclusive.
	end = end.Add(24*time.Hour - time.Second)
	return start.Format("2006-01-02T15:04:05"), end.Format("2006-01-02T15:04:05"), nil
}

// FirmCount is one ranked PE firm with its mention count.
type FirmCount struct {
	Name           string  `json:"name"`
	Count          int     `json:"count"`
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
}

// Summary is the aggregate view served by /api/analytics/summary.
type Summary struct {
	Period     string           `json:"period"`
	TotalDeals int              `json:"total_deals"`
	BySector   []store.CountRow `json:"by_sector"`
	ByGrade    []store.CountRow `json:"by_grade"`
	ByRegion   []store.CountRow `json:"by_region"`
	TopFirms   []FirmCount      `json:"top_firms"`
}

// Calculator answers analytics queries over the store.
type Calculator struct {
	store      *store.Store
	extractor  *extract.Extractor
	classifier *classify.Classifier
}

func NewCalculator(s *store.Store, e *extract.Extractor, c *classify.Classifier) *Calculator {
	return &Calculator{store: s, extractor: e, classifier: c}
}

func (c *Calculator) TotalDeals(ctx context.Context, start, end string) (int, error) {
	return c.store.CountDeals(ctx, start, end)
}

func (c *Calculator) DealsBySector(ctx context.Context, start, end string) ([]store.CountRow, error) {
	return c.store.DealsBySector(ctx, start, end)
}

func (c *Calculator) DealsByGrade(ctx context.Context, start, end string) ([]store.CountRow, error) {
	return c.store.DealsByGrade(ctx, start, end)
}

func (c *Calculator) DealsByRegion(ctx context.Context, start, end string) ([]store.CountRow, error) {
	return c.store.DealsByRegion(ctx, start, end)
}

// TopFirms extracts candidate names from every deal in the window,
// classifies them, keeps the PE tiers, and ranks by mention count.
// Ties break alphabetically so the ranking is stable.
func (c *Calculator) TopFirms(ctx context.Context, start, end string, limit int) ([]FirmCount, error) {
	texts, err := c.store.DealTexts(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load deal texts: %w", err)
	}

	counts := make(map[string]int)
	results := make(map[string]classify.Result)
	for _, dt := range texts {
		for _, name := range c.extractor.Firms(dt.Body, dt.Metadata) {
			res, seen := results[name]
			if !seen {
				res = c.classifier.Classify(name)
				results[name] = res
			}
			if res.IsPE() {
				counts[name]++
			}
		}
	}

	firms := make([]FirmCount, 0, len(counts))
	for name, n := range counts {
		res := results[name]
		firms = append(firms, FirmCount{
			Name:           name,
			Count:          n,
			Classification: string(res.Classification),
			Confidence:     res.Confidence,
		})
	}
	sort.Slice(firms, func(i, j int) bool {
		if firms[i].Count != firms[j].Count {
			return firms[i].Count > firms[j].Count
		}
		return firms[i].Name < firms[j].Name
	})

	if limit > 0 && len(firms) > limit {
		firms = firms[:limit]
	}
	return firms, nil
}

// Summarize builds the full summary for one period expression.
func (c *Calculator) Summarize(ctx context.Context, period string, now time.Time) (*Summary, error) {
	start, end, err := ParsePeriod(period, now)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = PeriodAll
	}

	total, err := c.TotalDeals(ctx, start, end)
	if err != nil {
		return nil, err
	}
	bySector, err := c.DealsBySector(ctx, start, end)
	if err != nil {
		return nil, err
	}
	byGrade, err := c.DealsByGrade(ctx, start, end)
	if err != nil {
		return nil, err
	}
	byRegion, err := c.DealsByRegion(ctx, start, end)
	if err != nil {
		return nil, err
	}
	topFirms, err := c.TopFirms(ctx, start, end, 10)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Period:     period,
		TotalDeals: total,
		BySector:   bySector,
		ByGrade:    byGrade,
		ByRegion:   byRegion,
		TopFirms:   topFirms,
	}, nil
}
