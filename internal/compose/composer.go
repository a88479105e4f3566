// Package compose renders a parsed digest back into an outbound email
// body: a statistics header, a per-sector news summary, and the full
// press-release details. Plain text is the primary format; an HTML
// variant is rendered from Markdown.
package compose

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"
)

// DefaultRelevantSectors are the sector names kept when no include
// filter is given. Matching is substring-based in both directions.
var DefaultRelevantSectors = []string{
	"automotive",
	"computer software",
	"consumer: foods",
	"consumer: other",
	"consumer: retail",
	"defense",
	"financial services",
	"industrial automation",
	"industrial products and services",
	"industrial: electronics",
	"services (other)",
}

var sectorEmoji = map[string]string{
	"automotive":                       "🚗",
	"computer software":                "💻",
	"consumer: foods":                  "🍕",
	"consumer: other":                  "🛍️",
	"consumer: retail":                 "🏪",
	"defense":                          "🛡️",
	"financial services":               "💰",
	"industrial automation":            "🤖",
	"industrial products and services": "🏭",
	"industrial: electronics":          "⚡",
	"services (other)":                 "🔧",
	"energy":                           "⚡",
	"telecommunications: carriers":     "📡",
	"real estate":                      "🏢",
	"media":                            "📺",
	"transportation":                   "🚚",
	"construction":                     "🏗️",
	"chemicals and materials":          "⚗️",
	"internet / ecommerce":             "🌐",
	"leisure":                          "🎯",
}

func emojiFor(sector string) string {
	if e, ok := sectorEmoji[strings.ToLower(sector)]; ok {
		return e
	}
	return "📋"
}

var dealValueRE = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(m|bn|million|billion)?`)

// ExtractDealValue reads a deal value in millions from the Value or
// Size metadata keys. Unparseable or absent values return 0.
func ExtractDealValue(meta *digest.Metadata) float64 {
	if meta == nil {
		return 0
	}
	raw, _ := meta.Get("Value")
	if raw == "" {
		raw, _ = meta.Get("Size")
	}
	if raw == "" || raw == "-" {
		return 0
	}

	cleaned := strings.ToLower(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	m := dealValueRE.FindStringSubmatch(cleaned)
	if m == nil {
		return 0
	}
	var number float64
	if _, err := fmt.Sscanf(m[1], "%f", &number); err != nil {
		return 0
	}
	switch m[2] {
	case "bn", "billion":
		return number * 1000
	default:
		return number
	}
}

// Options adjusts the sector filter. Include keeps only exact
// (case-insensitive) sector names; Exclude drops sectors containing any
// of the given substrings. An empty Options applies the relevant-sector
// list alone.
type Options struct {
	Include []string
	Exclude []string
}

// Composer renders outbound digests.
type Composer struct {
	relevantSectors []string
}

// NewComposer builds a composer. A nil sector list uses
// DefaultRelevantSectors.
func NewComposer(relevantSectors []string) *Composer {
	if relevantSectors == nil {
		relevantSectors = DefaultRelevantSectors
	}
	return &Composer{relevantSectors: relevantSectors}
}

// FilterSections returns the sections that survive the relevance filter
// and the include/exclude overrides, in report order.
func (c *Composer) FilterSections(rep *digest.Report, opts Options) []digest.Section {
	var kept []digest.Section
	for _, sec := range rep.Sections {
		lower := strings.ToLower(sec.Name)

		keep := false
		for _, rel := range c.relevantSectors {
			if strings.Contains(lower, rel) || strings.Contains(rel, lower) {
				keep = true
				break
			}
		}

		if keep && len(opts.Include) > 0 {
			keep = false
			for _, inc := range opts.Include {
				if strings.EqualFold(inc, sec.Name) {
					keep = true
					break
				}
			}
		}
		if keep && len(opts.Exclude) > 0 {
			for _, exc := range opts.Exclude {
				if strings.Contains(lower, strings.ToLower(exc)) {
					keep = false
					break
				}
			}
		}

		if keep {
			kept = append(kept, sec)
		}
	}
	return kept
}

type sectorStats struct {
	name           string
	count          int
	volume         float64
	dealsWithValue int
}

func collectStats(sections []digest.Section) []sectorStats {
	stats := make([]sectorStats, 0, len(sections))
	for _, sec := range sections {
		st := sectorStats{name: sec.Name, count: len(sec.Items)}
		for _, item := range sec.Items {
			if item.Details == nil {
				continue
			}
			if v := ExtractDealValue(item.Details.Metadata); v > 0 {
				st.volume += v
				st.dealsWithValue++
			}
		}
		stats = append(stats, st)
	}
	return stats
}

// Compose renders the plain-text email for a report.
func (c *Composer) Compose(rep *digest.Report, opts Options) string {
	sections := c.FilterSections(rep, opts)
	if len(sections) == 0 {
		return "No news items found with the specified filters."
	}

	var b strings.Builder

	if rep.Email != nil {
		subject := rep.Email.Subject
		if subject == "" {
			subject = "News Alert"
		}
		fmt.Fprintf(&b, "Subject: %s\n", subject)
		fmt.Fprintf(&b, "Date: %s\n\n", rep.Email.Timestamp)
	}

	c.writeStatistics(&b, sections)
	c.writeSummary(&b, sections)
	b.WriteString("\n")
	c.writeDetails(&b, sections)

	return b.String()
}

const rule = "=================================================="

func (c *Composer) writeStatistics(b *strings.Builder, sections []digest.Section) {
	stats := collectStats(sections)

	totalDeals, dealsWithValue := 0, 0
	totalVolume := 0.0
	for _, st := range stats {
		totalDeals += st.count
		totalVolume += st.volume
		dealsWithValue += st.dealsWithValue
	}
	avg := 0.0
	if dealsWithValue > 0 {
		avg = totalVolume / float64(dealsWithValue)
	}

	fmt.Fprintf(b, "DEALS BY SECTOR\n%s\n\n", rule)
	fmt.Fprintf(b, "Total Deals: %d\n", totalDeals)
	fmt.Fprintf(b, "Total Deal Volume: %.1fM\n", totalVolume)
	fmt.Fprintf(b, "Average Deal Volume: %.1fM (based on %d deals with disclosed values)\n\n", avg, dealsWithValue)

	b.WriteString("Breakdown by Sector:\n")
	for _, st := range stats {
		sectorAvg := 0.0
		if st.dealsWithValue > 0 {
			sectorAvg = st.volume / float64(st.dealsWithValue)
		}
		fmt.Fprintf(b, "%s %s: %d deals, %.1fM volume, %.1fM avg\n",
			emojiFor(st.name), st.name, st.count, st.volume, sectorAvg)
	}
	b.WriteString("\n")
}

func (c *Composer) writeSummary(b *strings.Builder, sections []digest.Section) {
	totalItems := 0
	for _, sec := range sections {
		totalItems += len(sec.Items)
	}

	fmt.Fprintf(b, "NEWS SUMMARY\n%s\n", rule)
	fmt.Fprintf(b, "Total: %d news items across %d sectors\n\n", totalItems, len(sections))

	for _, sec := range sections {
		if len(sec.Items) == 0 {
			continue
		}
		fmt.Fprintf(b, "%s %s (%d items)\n", emojiFor(sec.Name), sec.Name, len(sec.Items))
		for _, item := range sec.Items {
			fmt.Fprintf(b, "  %s\n", item.Title)
		}
		b.WriteString("\n")
	}
}

func (c *Composer) writeDetails(b *strings.Builder, sections []digest.Section) {
	fmt.Fprintf(b, "DETAILED PRESS RELEASES\n%s\n\n", rule)

	for _, sec := range sections {
		if len(sec.Items) == 0 {
			continue
		}
		fmt.Fprintf(b, "%s %s\n\n", emojiFor(sec.Name), strings.ToUpper(sec.Name))

		for _, item := range sec.Items {
			fmt.Fprintf(b, "%s\n\n", item.Title)
			writeItemDetails(b, item.Details)
			b.WriteString("---\n\n")
		}

		fmt.Fprintf(b, "%s\n\n", rule)
	}
}

func writeItemDetails(b *strings.Builder, d *digest.DetailBlock) {
	if d == nil {
		return
	}

	if len(d.Bullets) > 0 {
		b.WriteString("Key Points:\n")
		for _, bullet := range d.Bullets {
			fmt.Fprintf(b, "• %s\n", bullet)
		}
		b.WriteString("\n")
	}

	if d.Body != "" {
		fmt.Fprintf(b, "Details:\n%s\n\n", d.Body)
	}

	if d.Metadata != nil && d.Metadata.Len() > 0 {
		b.WriteString("Metadata:\n")
		for _, field := range []string{"Size", "Value", "Stake Value", "Grade", "Source"} {
			if v, ok := d.Metadata.Get(field); ok && v != "" {
				fmt.Fprintf(b, "• %s: %s\n", field, v)
			}
		}
		if id, ok := d.Metadata.Get("Intelligence ID"); ok && id != "" {
			fmt.Fprintf(b, "• ID: %s\n", id)
		}
		b.WriteString("\n")
	}

	links := collectLinks(d)
	if len(links) > 0 {
		b.WriteString("Links:\n")
		for _, link := range links {
			fmt.Fprintf(b, "• %s\n", link)
		}
		b.WriteString("\n")
	}
}

// collectLinks merges the block's direct links with link-bearing
// metadata entries, repairing URLs the line parser split at "https".
func collectLinks(d *digest.DetailBlock) []string {
	links := append([]string(nil), d.Links...)

	if d.Metadata == nil {
		return links
	}
	for _, key := range d.Metadata.Keys() {
		value, _ := d.Metadata.Get(key)
		switch {
		case strings.HasSuffix(key, "( https") && strings.HasPrefix(value, "//"):
			cleanKey := strings.Replace(key, " ( https", "", 1)
			links = append(links, fmt.Sprintf("%s: https:%s", cleanKey, value))
		case strings.Contains(value, "http"):
			links = append(links, fmt.Sprintf("%s: %s", key, value))
		case strings.Contains(key, "http"):
			links = append(links, fmt.Sprintf("%s: %s", key, value))
		}
	}
	return links
}

// ComposeHTML renders the email as HTML by building a Markdown
// rendition and converting it.
func (c *Composer) ComposeHTML(rep *digest.Report, opts Options) ([]byte, error) {
	sections := c.FilterSections(rep, opts)
	if len(sections) == 0 {
		return []byte("<p>No news items found with the specified filters.</p>"), nil
	}

	md := c.composeMarkdown(rep, sections)

	var out bytes.Buffer
	if err := goldmark.Convert([]byte(md), &out); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return out.Bytes(), nil
}

func (c *Composer) composeMarkdown(rep *digest.Report, sections []digest.Section) string {
	var b strings.Builder

	if rep.Email != nil {
		subject := rep.Email.Subject
		if subject == "" {
			subject = "News Alert"
		}
		fmt.Fprintf(&b, "# %s\n\n", subject)
		if rep.Email.Timestamp != "" {
			fmt.Fprintf(&b, "*%s*\n\n", rep.Email.Timestamp)
		}
	}

	stats := collectStats(sections)
	totalDeals, dealsWithValue := 0, 0
	totalVolume := 0.0
	for _, st := range stats {
		totalDeals += st.count
		totalVolume += st.volume
		dealsWithValue += st.dealsWithValue
	}

	b.WriteString("## Deals by Sector\n\n")
	fmt.Fprintf(&b, "**Total Deals:** %d  \n", totalDeals)
	fmt.Fprintf(&b, "**Total Deal Volume:** %.1fM\n\n", totalVolume)
	for _, st := range stats {
		fmt.Fprintf(&b, "- %s %s: %d deals, %.1fM volume\n", emojiFor(st.name), st.name, st.count, st.volume)
	}
	b.WriteString("\n## News Summary\n\n")
	for _, sec := range sections {
		if len(sec.Items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s %s (%d items)\n\n", emojiFor(sec.Name), sec.Name, len(sec.Items))
		for _, item := range sec.Items {
			fmt.Fprintf(&b, "- %s\n", item.Title)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Detailed Press Releases\n\n")
	for _, sec := range sections {
		for _, item := range sec.Items {
			fmt.Fprintf(&b, "### %s\n\n", item.Title)
			d := item.Details
			if d == nil {
				continue
			}
			for _, bullet := range d.Bullets {
				fmt.Fprintf(&b, "- %s\n", bullet)
			}
			if len(d.Bullets) > 0 {
				b.WriteString("\n")
			}
			if d.Body != "" {
				fmt.Fprintf(&b, "%s\n\n", d.Body)
			}
			if d.Metadata != nil {
				for _, field := range []string{"Size", "Value", "Stake Value", "Grade", "Source", "Intelligence ID"} {
					if v, ok := d.Metadata.Get(field); ok && v != "" {
						fmt.Fprintf(&b, "**%s:** %s  \n", field, v)
					}
				}
			}
			for _, link := range collectLinks(d) {
				fmt.Fprintf(&b, "- %s\n", link)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
