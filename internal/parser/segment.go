package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// itemRE matches a numbered item line like "14. Something happened".
var itemRE = regexp.MustCompile(`^\s*(\d+)\.\s+(.*\S)\s*$`)

func isItemLine(line string) bool {
	return itemRE.MatchString(line)
}

// detailBoundary returns the index of the first numbered line whose
// ordinal was already seen earlier in the document. The digest lists
// every item once in an overview and then repeats the same ordinals with
// expanded content, so the first repeat marks where the detail region
// begins. Returns len(lines) when no ordinal repeats.
func detailBoundary(lines []string) int {
	seen := make(map[int]bool)
	for i, line := range lines {
		m := itemRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if seen[n] {
			return i
		}
		seen[n] = true
	}
	return len(lines)
}

// sectionRange is a named half-open line range in the overview region.
type sectionRange struct {
	name  string
	start int
	end   int
}

// sectionRanges splits the overview region (lines before boundary) into
// section ranges. Lines before the first heading belong to no section.
func sectionRanges(lines []string, boundary int, isHeading func(string) bool) []sectionRange {
	var ranges []sectionRange
	current := ""
	start := 0
	for i := 0; i < boundary; i++ {
		if !isHeading(lines[i]) {
			continue
		}
		if current != "" {
			ranges = append(ranges, sectionRange{name: current, start: start, end: i})
		}
		current = strings.TrimSpace(lines[i])
		start = i + 1
	}
	if current != "" {
		ranges = append(ranges, sectionRange{name: current, start: start, end: boundary})
	}
	return ranges
}

// sectionIndex holds the items of one section: titles in first-seen
// order and every line position each title occurs at.
type sectionIndex struct {
	name      string
	order     []string
	positions map[string][]int
}

// indexItems collects item titles per section from the overview region,
// then attributes detail-region occurrences back to the section of each
// title's first appearance. The title→section binding is built in full
// before the detail region is scanned, and the first occurrence wins.
func indexItems(lines []string, boundary int, ranges []sectionRange) []sectionIndex {
	indexed := make([]sectionIndex, 0, len(ranges))
	titleSection := make(map[string]int) // title -> index into indexed

	for _, sr := range ranges {
		idx := sectionIndex{name: sr.name, positions: make(map[string][]int)}
		for i := sr.start; i < sr.end; i++ {
			if !isItemLine(lines[i]) {
				continue
			}
			title := strings.TrimSpace(lines[i])
			if _, ok := idx.positions[title]; !ok {
				idx.order = append(idx.order, title)
			}
			idx.positions[title] = append(idx.positions[title], i)
			if _, ok := titleSection[title]; !ok {
				titleSection[title] = len(indexed)
			}
		}
		indexed = append(indexed, idx)
	}

	// Detail-region occurrences append to the owning item. Titles never
	// seen in the overview have no section and are ignored.
	for i := boundary; i < len(lines); i++ {
		if !isItemLine(lines[i]) {
			continue
		}
		title := strings.TrimSpace(lines[i])
		si, ok := titleSection[title]
		if !ok {
			continue
		}
		indexed[si].positions[title] = append(indexed[si].positions[title], i)
	}

	return indexed
}
