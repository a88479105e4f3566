package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/classify"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/extract"
	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/store"
)

func TestParsePeriod(t *testing.T) {
	now := time.Date(2024, 11, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		period    string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{"all", "", "", false},
		{"", "", "", false},
		{"current_month", "2024-11-01T00:00:00", "2024-11-15T12:00:00", false},
		{"ytd", "2024-01-01T00:00:00", "2024-11-15T12:00:00", false},
		{"2024-03-01,2024-03-31", "2024-03-01T00:00:00", "2024-03-31T23:59:59", false},
		{"2024-03-31,2024-03-01", "", "", true},
		{"bogus", "", "", true},
		{"2024-03-01", "", "", true},
	}
	for _, tc := range cases {
		start, end, err := ParsePeriod(tc.period, now)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePeriod(%q): expected error", tc.period)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePeriod(%q): unexpected error %v", tc.period, err)
			continue
		}
		if start != tc.wantStart || end != tc.wantEnd {
			t.Errorf("ParsePeriod(%q) = (%q, %q), want (%q, %q)",
				tc.period, start, end, tc.wantStart, tc.wantEnd)
		}
	}
}

func testCalculator(t *testing.T) (*Calculator, context.Context) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Init(ctx); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	ts := time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)
	meta := digest.NewMetadata()
	meta.Set("Intelligence ID", "INT-9001")
	meta.Set("Grade", "Strong evidence")
	meta.Set("Investor", "Silver Lake Partners")

	rep := &digest.Report{
		Email: &digest.EmailMetadata{
			Subject:    "Digest (05/11/2024 09:00:00)",
			Timestamp:  "05/11/2024 09:00:00",
			ParsedDate: &ts,
		},
		Sections: []digest.Section{
			{
				Name: "Automotive",
				Items: []digest.Item{
					{
						Title: "1. Supplier buyout",
						Details: &digest.DetailBlock{
							Body:     "The business is backed by Nordic Capital Partners.",
							Metadata: meta,
						},
					},
				},
			},
			{
				Name: "Energy",
				Items: []digest.Item{
					{
						Title: "2. Grid stake sale",
						Details: &digest.DetailBlock{
							Body:     "Advisers appointed for the process.",
							Metadata: digest.NewMetadata(),
						},
					},
				},
			},
		},
	}
	if _, err := s.ImportReport(ctx, rep); err != nil {
		t.Fatalf("import: %v", err)
	}

	return NewCalculator(s, extract.NewExtractor(nil), classify.NewFallback()), ctx
}

func TestTopFirms(t *testing.T) {
	calc, ctx := testCalculator(t)

	firms, err := calc.TopFirms(ctx, "", "", 10)
	if err != nil {
		t.Fatalf("top firms: %v", err)
	}
	if len(firms) == 0 {
		t.Fatal("expected at least one firm")
	}
	names := map[string]bool{}
	for _, f := range firms {
		names[f.Name] = true
		if f.Classification != string(classify.TierDefinitePE) && f.Classification != string(classify.TierLikelyPE) {
			t.Errorf("non-PE tier %q leaked into top firms", f.Classification)
		}
	}
	if !names["Nordic Capital Partners"] {
		t.Errorf("expected Nordic Capital Partners, got %v", firms)
	}
	if !names["Silver Lake Partners"] {
		t.Errorf("expected metadata investor Silver Lake Partners, got %v", firms)
	}
}

func TestSummarize(t *testing.T) {
	calc, ctx := testCalculator(t)
	now := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)

	sum, err := calc.Summarize(ctx, "current_month", now)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalDeals != 2 {
		t.Errorf("expected 2 deals, got %d", sum.TotalDeals)
	}
	if len(sum.BySector) != 2 {
		t.Errorf("expected 2 sectors, got %v", sum.BySector)
	}
	if sum.Period != "current_month" {
		t.Errorf("unexpected period echo %q", sum.Period)
	}

	empty, err := calc.Summarize(ctx, "2023-01-01,2023-01-31", now)
	if err != nil {
		t.Fatalf("summarize past window: %v", err)
	}
	if empty.TotalDeals != 0 {
		t.Errorf("expected no deals in 2023 window, got %d", empty.TotalDeals)
	}
}

func TestSummarize_InvalidPeriod(t *testing.T) {
	calc, ctx := testCalculator(t)
	if _, err := calc.Summarize(ctx, "last_tuesday", time.Now()); err == nil {
		t.Error("expected error for unknown period")
	}
}
