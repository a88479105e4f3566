package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"
)

var subjectTimestampRE = regexp.MustCompile(`\((\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2})\)`)

const subjectTimestampLayout = "02/01/2006 15:04:05"

// extractEmailMetadata looks for a "Subject:" line in the first five
// lines and pulls the "(DD/MM/YYYY HH:MM:SS)" timestamp out of it. A
// timestamp that fails to parse keeps the raw string with a nil parsed
// form. Returns nil when no subject line is found.
func extractEmailMetadata(lines []string) *digest.EmailMetadata {
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "Subject:") {
			continue
		}
		meta := &digest.EmailMetadata{Subject: trimmed}
		if m := subjectTimestampRE.FindStringSubmatch(trimmed); m != nil {
			meta.Timestamp = m[1]
			if ts, err := time.Parse(subjectTimestampLayout, m[1]); err == nil {
				meta.ParsedDate = &ts
			}
		}
		return meta
	}
	return nil
}
