// Package classify scores candidate names as private-equity firms using
// a trained per-word table, multilingual keyword overrides, structural
// naming patterns, and heuristic bonuses.
package classify

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Tier is one of the four ordered classification outcomes.
type Tier string

const (
	TierDefinitePE Tier = "definite_pe"
	TierLikelyPE   Tier = "likely_pe"
	TierUncertain  Tier = "uncertain"
	TierNotPE      Tier = "not_pe"
)

// Score thresholds per tier, in descending order.
const (
	thresholdDefinitePE = 2.0
	thresholdLikelyPE   = 1.0
	thresholdUncertain  = 0.0
)

// Result is the outcome of classifying one candidate name.
type Result struct {
	Name           string   `json:"name"`
	Score          float64  `json:"score"`
	Classification Tier     `json:"classification"`
	Confidence     float64  `json:"confidence"`
	FundType       string   `json:"fund_type"`
	Reasons        []string `json:"reasons"`
}

// IsPE reports whether the result lands in a PE tier.
func (r Result) IsPE() bool {
	return r.Classification == TierDefinitePE || r.Classification == TierLikelyPE
}

// Classifier holds the immutable lookup tables built once at startup.
// Classify is safe for concurrent use.
type Classifier struct {
	wordScores map[string]float64
	phrases    []phraseScore

	// Degraded marks that the fallback word table is in use because the
	// training data could not be loaded.
	Degraded bool
}

// New builds a classifier over a trained word-score table, merging in
// the predefined multilingual keywords. On conflict the entry with the
// larger absolute value wins.
func New(trained map[string]float64) *Classifier {
	words := make(map[string]float64, len(trained)+len(predefinedWords))
	for w, s := range trained {
		words[w] = s
	}
	for w, s := range predefinedWords {
		if math.Abs(s) > math.Abs(words[w]) {
			words[w] = s
		}
	}
	return &Classifier{wordScores: words, phrases: predefinedPhrases}
}

// NewFallback builds a classifier on the built-in word table.
func NewFallback() *Classifier {
	c := New(FallbackWordScores())
	c.Degraded = true
	return c
}

var (
	seriesSuffixRE = regexp.MustCompile(`\b[ivx0-9]+\s*$`)
	yearRE         = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	numericTokenRE = regexp.MustCompile(`\d+`)
)

var fundAbbrevs = []string{"lp", "llc", "ltd", "gp", "mgmt"}

// Classify scores a single candidate name. It never rejects input:
// empty or sentinel names fall to not_pe with zero confidence, and
// unknown names fall through to the lowest matching tier.
func (c *Classifier) Classify(name string) Result {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "missing") {
		return Result{
			Name:           name,
			Classification: TierNotPE,
			FundType:       "unknown",
			Reasons:        []string{"Empty or invalid name"},
		}
	}

	lower := strings.ToLower(trimmed)
	total := 0.0
	var reasons []string
	fundType := "unknown"

	wordScore, wordReasons := c.scoreWords(lower)
	total += wordScore
	reasons = append(reasons, wordReasons...)

	patternScore, patternReasons, detectedType := scorePatterns(lower)
	total += patternScore
	reasons = append(reasons, patternReasons...)
	if detectedType != "" {
		fundType = detectedType
	}

	specialScore, specialReasons := specialRules(trimmed, lower)
	total += specialScore
	reasons = append(reasons, specialReasons...)

	if fundType == "unknown" {
		fundType = determineFundType(lower, reasons)
	}

	// Every candidate originates from an M&A intelligence corpus.
	const contextBonus = 0.3
	total += contextBonus
	reasons = append(reasons, fmt.Sprintf("PE Database Context Bonus (+%.1f)", contextBonus))

	var tier Tier
	var confidence float64
	switch {
	case total >= thresholdDefinitePE:
		tier = TierDefinitePE
		confidence = min(0.99, 0.7+total/10)
	case total >= thresholdLikelyPE:
		tier = TierLikelyPE
		confidence = min(0.88, 0.5+total/8)
	case total >= thresholdUncertain:
		tier = TierUncertain
		confidence = min(0.65, 0.3+total/6)
	default:
		tier = TierNotPE
		confidence = max(0.1, 0.6+total/5)
	}

	if len(reasons) == 0 {
		reasons = []string{"No clear PE indicators found"}
	}

	return Result{
		Name:           trimmed,
		Score:          total,
		Classification: tier,
		Confidence:     confidence,
		FundType:       fundType,
		Reasons:        reasons,
	}
}

type contribution struct {
	term  string
	score float64
}

// scoreWords applies multi-word phrase overrides first, marking their
// character spans as consumed, then scores the remaining words against
// the merged table.
func (c *Classifier) scoreWords(lower string) (float64, []string) {
	total := 0.0
	consumed := make([]bool, len(lower))
	var contributions []contribution

	for _, ps := range c.phrases {
		idx := strings.Index(lower, ps.phrase)
		if idx < 0 {
			continue
		}
		total += ps.score
		contributions = append(contributions, contribution{ps.phrase, ps.score})
		for i := idx; i < idx+len(ps.phrase) && i < len(consumed); i++ {
			consumed[i] = true
		}
	}

	for _, word := range tokenize(lower) {
		pos := strings.Index(lower, word)
		if pos >= 0 && spanConsumed(consumed, pos, pos+len(word)) {
			continue
		}
		if score, ok := c.wordScores[word]; ok {
			total += score
			contributions = append(contributions, contribution{word, score})
		}
	}

	var reasons []string
	var positive, negative []contribution
	for _, ct := range contributions {
		if ct.score > 0 {
			positive = append(positive, ct)
		} else if ct.score < 0 {
			negative = append(negative, ct)
		}
	}

	if len(positive) > 0 {
		sort.SliceStable(positive, func(i, j int) bool { return positive[i].score > positive[j].score })
		reasons = append(reasons, "Positive terms: "+formatContributions(positive, 3, "+"))
	}
	if len(negative) > 0 {
		sort.SliceStable(negative, func(i, j int) bool { return negative[i].score < negative[j].score })
		reasons = append(reasons, "Negative terms: "+formatContributions(negative, 3, ""))
	}

	return total, reasons
}

func formatContributions(cs []contribution, limit int, sign string) string {
	if len(cs) > limit {
		cs = cs[:limit]
	}
	parts := make([]string, 0, len(cs))
	for _, ct := range cs {
		parts = append(parts, fmt.Sprintf("'%s' (%s%.2f)", ct.term, sign, ct.score))
	}
	return strings.Join(parts, ", ")
}

func spanConsumed(consumed []bool, start, end int) bool {
	for i := start; i < end && i < len(consumed); i++ {
		if consumed[i] {
			return true
		}
	}
	return false
}

// scorePatterns applies the first matching structural pattern only.
func scorePatterns(lower string) (float64, []string, string) {
	for _, fp := range fundPatterns {
		if fp.re.MatchString(lower) {
			reason := fmt.Sprintf("Fund Pattern: %s (+%.1f)", fp.description, fp.score)
			return fp.score, []string{reason}, fp.fundType
		}
	}
	return 0, nil, ""
}

func specialRules(name, lower string) (float64, []string) {
	total := 0.0
	var reasons []string

	if seriesSuffixRE.MatchString(lower) {
		total += 0.5
		reasons = append(reasons, "Fund Series Numbering (+0.5)")
	}

	if yearRE.MatchString(lower) {
		total += 0.3
		reasons = append(reasons, "Contains Year (+0.3)")
	}

	if name == strings.ToUpper(name) && name != lower && len(strings.Fields(name)) <= 3 {
		total += 0.2
		reasons = append(reasons, "All Caps Short Name (+0.2)")
	}

	for _, abbrev := range fundAbbrevs {
		if strings.Contains(lower, abbrev) {
			total += 0.3
			reasons = append(reasons, fmt.Sprintf("Fund Abbreviation: %s (+0.3)", abbrev))
			break
		}
	}

	distinct := make(map[string]bool)
	for _, tok := range numericTokenRE.FindAllString(lower, -1) {
		distinct[tok] = true
	}
	if len(distinct) >= 2 {
		total += 0.4
		reasons = append(reasons, "Multiple Numeric Indicators (+0.4)")
	}

	return total, reasons
}

func determineFundType(lower string, reasons []string) string {
	for _, reason := range reasons {
		rl := strings.ToLower(reason)
		if strings.Contains(rl, "spv") || strings.Contains(rl, "co-invest") {
			return "special_purpose"
		}
	}
	for _, reason := range reasons {
		rl := strings.ToLower(reason)
		if strings.Contains(rl, "bid") || strings.Contains(rl, "top") {
			return "pe_acquisition"
		}
	}
	switch {
	case strings.Contains(lower, "venture"):
		return "venture_capital"
	case strings.Contains(lower, "growth"):
		return "growth_capital"
	case strings.Contains(lower, "buyout"):
		return "buyout"
	case strings.Contains(lower, "real estate"), strings.Contains(lower, "reit"):
		return "real_estate"
	case strings.Contains(lower, "infrastructure"), strings.Contains(lower, "energy"):
		return "infrastructure"
	default:
		return "general_pe"
	}
}

