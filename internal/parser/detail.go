package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"
)

var (
	// A URL inside parentheses, tolerating one stray ')' inside the capture.
	urlInParensRE = regexp.MustCompile(`\((\s*https?://[^\s)]+(?:\)[^)]*)?)\)`)

	// "Key: Value" metadata lines (e.g. "Source: Company Press Release").
	metaRE = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z\s/()&-]*?):\s*(.*?)\s*$`)
)

// sliceDetail returns the half-open line range of the block owned by the
// detail header at headerIdx: from the line after the header up to the
// next numbered item line, the next section heading, or end of document.
func sliceDetail(lines []string, headerIdx int, isHeading func(string) bool) (int, int) {
	for i := headerIdx + 1; i < len(lines); i++ {
		if isHeading(lines[i]) || isItemLine(lines[i]) {
			return headerIdx + 1, i
		}
	}
	return headerIdx + 1, len(lines)
}

// parseDetailBlock decomposes a detail block into bullets, body, links,
// and key/value metadata. URLs are collected from every line regardless
// of how the line is otherwise classified; bullet and metadata tests are
// applied in that order, and anything left over is body text with blank
// runs collapsed.
func parseDetailBlock(block []string) *digest.DetailBlock {
	var bullets []string
	var links []string
	meta := digest.NewMetadata()
	var remaining []string

	for _, raw := range block {
		line := strings.TrimRightFunc(raw, unicode.IsSpace)

		// URL collection never consumes the line: it still classifies as
		// bullet, metadata, or body below.
		for _, m := range urlInParensRE.FindAllStringSubmatch(line, -1) {
			url := strings.TrimSpace(m[1])
			// Truncate at the first stray ')' inside the capture.
			if i := strings.IndexByte(url, ')'); i >= 0 {
				url = url[:i]
			}
			links = append(links, url)
		}

		ls := strings.TrimLeftFunc(line, unicode.IsSpace)
		if strings.HasPrefix(ls, "* ") {
			bullets = append(bullets, strings.TrimSpace(strings.TrimPrefix(ls, "* ")))
			continue
		}
		if strings.HasPrefix(ls, "• ") {
			bullets = append(bullets, strings.TrimSpace(strings.TrimPrefix(ls, "• ")))
			continue
		}

		if m := metaRE.FindStringSubmatch(line); m != nil {
			meta.Set(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
			continue
		}

		remaining = append(remaining, line)
	}

	// Collapse consecutive blank lines to a single separator and drop
	// leading/trailing blanks.
	var cleaned []string
	prevBlank := false
	for _, ln := range remaining {
		if strings.TrimSpace(ln) == "" {
			if !prevBlank && len(cleaned) > 0 {
				cleaned = append(cleaned, "")
			}
			prevBlank = true
		} else {
			cleaned = append(cleaned, ln)
			prevBlank = false
		}
	}
	body := strings.TrimSpace(strings.Join(cleaned, "\n"))

	return &digest.DetailBlock{
		Bullets:  bullets,
		Body:     body,
		Links:    links,
		Metadata: meta,
	}
}
