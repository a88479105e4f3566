package compose

import (
	"strings"
	"testing"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"
)

func metaFrom(pairs ...string) *digest.Metadata {
	m := digest.NewMetadata()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func sampleReport() *digest.Report {
	return &digest.Report{
		Email: &digest.EmailMetadata{
			Subject:   "Daily digest",
			Timestamp: "05/11/2024 09:30:00",
		},
		Sections: []digest.Section{
			{
				Name: "Automotive",
				Items: []digest.Item{
					{
						Title: "1. Truck makers merge software units",
						Details: &digest.DetailBlock{
							Bullets:  []string{"Joint venture announced"},
							Body:     "The two truck makers will pool their software units.",
							Links:    []string{"https://example.com/a"},
							Metadata: metaFrom("Value", "1.5bn", "Grade", "Confirmed", "Intelligence ID", "INT-1"),
						},
					},
					{
						Title: "2. Supplier explores sale",
						Details: &digest.DetailBlock{
							Body:     "Advisers have been appointed.",
							Metadata: metaFrom("Size", "250m"),
						},
					},
				},
			},
			{
				Name: "Leisure",
				Items: []digest.Item{
					{Title: "3. Resort operator refinances"},
				},
			},
		},
	}
}

func TestFilterSections_RelevantOnly(t *testing.T) {
	c := NewComposer(nil)
	kept := c.FilterSections(sampleReport(), Options{})
	if len(kept) != 1 || kept[0].Name != "Automotive" {
		t.Fatalf("expected only Automotive to survive, got %v", sectionNames(kept))
	}
}

func TestFilterSections_IncludeExactFold(t *testing.T) {
	c := NewComposer(nil)
	kept := c.FilterSections(sampleReport(), Options{Include: []string{"automotive"}})
	if len(kept) != 1 || kept[0].Name != "Automotive" {
		t.Fatalf("expected case-insensitive include match, got %v", sectionNames(kept))
	}

	kept = c.FilterSections(sampleReport(), Options{Include: []string{"Auto"}})
	if len(kept) != 0 {
		t.Errorf("include must match the full sector name, got %v", sectionNames(kept))
	}
}

func TestFilterSections_ExcludeSubstring(t *testing.T) {
	c := NewComposer(nil)
	kept := c.FilterSections(sampleReport(), Options{Exclude: []string{"auto"}})
	if len(kept) != 0 {
		t.Errorf("expected substring exclude to drop Automotive, got %v", sectionNames(kept))
	}
}

func sectionNames(secs []digest.Section) []string {
	names := make([]string, 0, len(secs))
	for _, s := range secs {
		names = append(names, s.Name)
	}
	return names
}

func TestExtractDealValue(t *testing.T) {
	cases := []struct {
		value string
		want  float64
	}{
		{"1.5bn", 1500},
		{"250m", 250},
		{"2 billion", 2000},
		{"100 million", 100},
		{"500", 500},
		{"1,200m", 1200},
		{"-", 0},
		{"", 0},
		{"undisclosed", 0},
	}
	for _, tc := range cases {
		got := ExtractDealValue(metaFrom("Value", tc.value))
		if got != tc.want {
			t.Errorf("ExtractDealValue(%q) = %.1f, want %.1f", tc.value, got, tc.want)
		}
	}

	// Size is the fallback key.
	if got := ExtractDealValue(metaFrom("Size", "300m")); got != 300 {
		t.Errorf("expected Size fallback 300, got %.1f", got)
	}
	if got := ExtractDealValue(nil); got != 0 {
		t.Errorf("expected 0 for nil metadata, got %.1f", got)
	}
}

func TestCompose_Sections(t *testing.T) {
	c := NewComposer(nil)
	out := c.Compose(sampleReport(), Options{})

	for _, want := range []string{
		"Subject: Daily digest",
		"DEALS BY SECTOR",
		"Total Deals: 2",
		"Total Deal Volume: 1750.0M",
		"NEWS SUMMARY",
		"Total: 2 news items across 1 sectors",
		"1. Truck makers merge software units",
		"DETAILED PRESS RELEASES",
		"🚗 AUTOMOTIVE",
		"Key Points:",
		"• Joint venture announced",
		"• Grade: Confirmed",
		"• ID: INT-1",
		"https://example.com/a",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("composed email missing %q", want)
		}
	}
	if strings.Contains(out, "Resort operator") {
		t.Error("filtered-out sector leaked into output")
	}
}

func TestCompose_NoMatches(t *testing.T) {
	c := NewComposer(nil)
	out := c.Compose(sampleReport(), Options{Include: []string{"Gaming"}})
	if out != "No news items found with the specified filters." {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCollectLinks_SplitURLRepair(t *testing.T) {
	d := &digest.DetailBlock{
		Metadata: metaFrom("Link to source ( https", "//example.com/x"),
	}
	links := collectLinks(d)
	if len(links) != 1 || links[0] != "Link to source: https://example.com/x" {
		t.Errorf("expected repaired split URL, got %v", links)
	}
}

func TestComposeHTML(t *testing.T) {
	c := NewComposer(nil)
	out, err := c.ComposeHTML(sampleReport(), Options{})
	if err != nil {
		t.Fatalf("compose html: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"<h1>Daily digest</h1>",
		"<h2>Deals by Sector</h2>",
		"Truck makers merge software units",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html output missing %q", want)
		}
	}
}
