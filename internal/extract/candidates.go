// Package extract pulls candidate private-equity firm names out of deal
// text and metadata. Extraction is best-effort: anything failing
// validation is silently dropped.
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultInvestorKeys are the metadata keys whose values name investors.
var DefaultInvestorKeys = []string{
	"Investor", "Investors", "Acquirer", "Buyer", "Owner", "Backed by",
}

// Anchored phrase patterns. Each caps the captured name at a few words
// so a match never swallows a whole sentence; anchors and keyword
// suffixes match case-insensitively but the name itself must start with
// an uppercase letter.
var candidatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:backed by )(?i:private equity (?:firm )?)?([A-Z][\w&]+(?:\s+[\w&]+){0,3}\s+(?i:Capital|Partners|Equity|Ventures|Investments))`),
	regexp.MustCompile(`(?i:owned by )(?i:private equity (?:firm )?)?([A-Z][\w&]+(?:\s+[\w&]+){0,3}\s+(?i:Capital|Partners|Equity|Ventures|Investments))`),
	regexp.MustCompile(`(?i:portfolio company of )([A-Z][\w&]+(?:\s+[\w&]+){0,3}\s+(?i:Capital|Partners|Equity|Ventures|Investments))`),
	regexp.MustCompile(`([A-Z][\w&]+(?:\s+[\w&]+){1,3}\s+(?i:Capital|Partners|Equity|Ventures|Investments))`),
	regexp.MustCompile(`([A-Z][\w&]+\s+(?i:Holdco|Topco|Bidco|Acquico|Newco))`),
	regexp.MustCompile(`([A-Z][\w&]+(?:\s+[\w&]+){1,2}\s+(?i:Holdings?))`),
}

var (
	trailingClauseRE = regexp.MustCompile(`(?i)\s+(in|at|on|by|to|from|with|for|and|or)\s+\w+.*$`)
	auxClauseRE      = regexp.MustCompile(`(?i)\s+(was|is|has|have|had)\s+.*$`)
	ownerPrefixRE    = regexp.MustCompile(`(?i)^.+\s+owner\s+([A-Z][\w\s&]+(?:Capital|Partners|Equity|Ventures))$`)
)

// Whole strings rejected case-insensitively: generic phrases and
// institutions that the phrase patterns keep capturing.
var rejectedNames = map[string]bool{
	"executive management": true, "link to": true, "link to original": true,
	"source": true, "group sold": true, "company owned": true,
	"firm acquired": true, "was acquired": true, "in late": true,
	"https": true, "http": true, "www": true, "com": true,
	"original source": true, "press release": true, "company press": true,
	"edited": true, "he added": true, "she added": true, "they added": true,
	"this capital": true, "that capital": true, "its capital": true,
	"project capital": true, "working capital": true, "share capital": true,
	"own capital": true, "foundation": true, "partenaires": true,
	"partners": true, "cie": true, "eutelsat": true,
	"investment director": true, "managing director": true,
	"executive director": true, "via": true, "santander": true,
	"bank": true, "metro bank": true,
}

var invalidSingleWords = map[string]bool{
	"foundation": true, "partenaires": true, "partners": true, "cie": true,
	"eutelsat": true, "capital": true, "equity": true, "ventures": true,
	"investments": true, "holdings": true, "management": true,
	"herman": true, "business": true, "group": true, "company": true,
}

var invalidPrefixes = map[string]bool{
	"he": true, "she": true, "they": true, "this": true, "that": true,
	"its": true, "the": true, "a": true, "an": true, "project": true,
	"working": true, "share": true, "own": true, "our": true,
	"their": true, "his": true, "her": true,
}

var transactionVerbs = map[string]bool{
	"sells": true, "sold": true, "advise": true, "advised": true,
	"buys": true, "bought": true, "acquired": true, "acquires": true,
	"owns": true, "owned": true, "manages": true,
}

var personTitles = map[string]bool{
	"chairman": true, "ceo": true, "cfo": true, "director": true,
	"president": true, "manager": true, "officer": true,
}

var peKeywords = []string{
	"capital", "partners", "equity", "ventures", "investments",
	"holdings", "management", "holdco", "bidco", "topco", "private equity",
}

// Extractor scans deal bodies and metadata for candidate firm names.
// Investor keys are kept ordered so output order is deterministic.
type Extractor struct {
	investorKeys []string
}

// NewExtractor builds an extractor. A nil key list uses
// DefaultInvestorKeys.
func NewExtractor(investorKeys []string) *Extractor {
	if investorKeys == nil {
		investorKeys = DefaultInvestorKeys
	}
	return &Extractor{investorKeys: investorKeys}
}

// Firms returns the validated, deduplicated firm names found in a deal's
// body text and metadata, in first-seen order.
func (e *Extractor) Firms(body string, metadata map[string]string) []string {
	var candidates []string

	if body != "" {
		for _, re := range candidatePatterns {
			for _, m := range re.FindAllStringSubmatch(body, -1) {
				if m[1] != "" {
					candidates = append(candidates, strings.TrimSpace(m[1]))
				}
			}
		}
	}

	for _, key := range e.investorKeys {
		value := metadata[key]
		if value == "" {
			continue
		}
		lower := strings.ToLower(value)
		if strings.Contains(lower, "http") || strings.Contains(value, "://") {
			continue
		}
		for _, part := range strings.Split(value, ",") {
			candidates = append(candidates, strings.TrimSpace(part))
		}
	}

	var validated []string
	for _, c := range candidates {
		if firm, ok := validate(c); ok {
			validated = append(validated, firm)
		}
	}

	return dedupeLongest(validated)
}

// validate applies the rejection chain to one raw candidate and returns
// the cleaned name. Order matters: length and URL checks come before the
// clause trimming, keyword and capitalization checks after.
func validate(raw string) (string, bool) {
	firm := strings.TrimSpace(raw)
	if len(firm) < 3 || len(firm) > 60 {
		return "", false
	}

	lower := strings.ToLower(firm)
	if strings.Contains(lower, "http") || strings.Contains(firm, "://") || strings.Contains(lower, ".com") {
		return "", false
	}

	r, _ := utf8.DecodeRuneInString(firm)
	if !unicode.IsUpper(r) {
		return "", false
	}

	// A conjunction means an un-splittable list, not a single firm.
	if strings.Contains(lower, " and ") || strings.Contains(lower, " or ") {
		return "", false
	}

	words := strings.Fields(firm)
	if len(words) == 0 {
		return "", false
	}
	if invalidPrefixes[strings.ToLower(words[0])] {
		return "", false
	}
	if rejectedNames[lower] {
		return "", false
	}

	firm = trailingClauseRE.ReplaceAllString(firm, "")
	firm = auxClauseRE.ReplaceAllString(firm, "")
	firm = ownerPrefixRE.ReplaceAllString(firm, "$1")
	firm = strings.TrimSpace(firm)
	if firm == "" {
		return "", false
	}
	lower = strings.ToLower(firm)

	hasKeyword := false
	for _, kw := range peKeywords {
		if strings.Contains(lower, kw) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return "", false
	}

	words = strings.Fields(firm)
	if len(words) == 1 && invalidSingleWords[lower] {
		return "", false
	}

	for _, w := range words {
		wl := strings.ToLower(w)
		if transactionVerbs[wl] || personTitles[wl] {
			return "", false
		}
	}

	capitalized := 0
	for _, w := range words {
		wr, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(wr) {
			capitalized++
		}
	}
	if float64(capitalized) < float64(len(words))*0.6 {
		return "", false
	}

	return firm, true
}

// dedupeLongest collapses case-insensitive duplicates, keeping the
// longest surface form and first-seen order.
func dedupeLongest(firms []string) []string {
	var order []string
	best := make(map[string]string)
	for _, f := range firms {
		key := strings.ToLower(f)
		if cur, ok := best[key]; ok {
			if len(f) > len(cur) {
				best[key] = f
			}
			continue
		}
		order = append(order, key)
		best[key] = f
	}
	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}
