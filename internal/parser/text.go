package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"
)

// TextParser handles plain-text digest bodies (.txt and .eml inputs).
type TextParser struct {
	sections map[string]bool
}

// NewTextParser builds a parser over the given section allow-list.
// A nil slice uses DefaultSections.
func NewTextParser(sections []string) *TextParser {
	if sections == nil {
		sections = DefaultSections
	}
	set := make(map[string]bool, len(sections))
	for _, s := range sections {
		set[s] = true
	}
	return &TextParser{sections: set}
}

func (p *TextParser) isHeading(line string) bool {
	return p.sections[strings.TrimSpace(line)]
}

func (p *TextParser) Parse(r io.Reader) (*digest.Report, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p.ParseLines(lines), nil
}

// ParseLines runs the full structural parse over an in-memory line
// sequence. The transform is pure: the same lines always produce an
// identical report.
func (p *TextParser) ParseLines(lines []string) *digest.Report {
	report := &digest.Report{Email: extractEmailMetadata(lines)}

	boundary := detailBoundary(lines)
	ranges := sectionRanges(lines, boundary, p.isHeading)
	indexed := indexItems(lines, boundary, ranges)

	for _, idx := range indexed {
		if len(idx.order) == 0 {
			continue
		}
		sec := digest.Section{Name: idx.name}
		for _, title := range idx.order {
			positions := idx.positions[title]
			item := digest.Item{Title: title, Positions: positions}
			if len(positions) >= 2 {
				start, end := sliceDetail(lines, positions[1], p.isHeading)
				item.Details = parseDetailBlock(lines[start:end])
			}
			sec.Items = append(sec.Items, item)
		}
		report.Sections = append(report.Sections, sec)
	}

	return report
}
