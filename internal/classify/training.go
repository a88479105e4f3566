package classify

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// structureFloors are manual score floors for acquisition-vehicle terms.
// They apply regardless of how rare the terms are in the training set.
var structureFloors = map[string]float64{
	"holdco": 12.0, "topco": 12.0, "bidco": 12.0, "acquico": 12.0,
	"newco": 12.0, "finco": 12.0, "propco": 12.0,
}

// Word characters cover all scripts: the keyword tables carry accented
// and umlauted terms.
var nonWordRE = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// LoadWordScores reads the training CSV (columns NAME and IS_PE with
// YES/NO values) and returns the trained per-word score table.
func LoadWordScores(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()
	return Train(f)
}

// Train computes per-word scores from labeled fund names: smoothed
// log-odds of word frequency in PE vs non-PE names, down-weighted for
// rare words, with the structure-term floors applied last.
func Train(r io.Reader) (map[string]float64, error) {
	peNames, nonPENames, err := readTrainingRows(r)
	if err != nil {
		return nil, err
	}
	if len(peNames) == 0 || len(nonPENames) == 0 {
		return nil, fmt.Errorf("training data has %d PE and %d non-PE names; need both classes", len(peNames), len(nonPENames))
	}

	peCounts := wordCounts(peNames)
	nonPECounts := wordCounts(nonPENames)

	scores := make(map[string]float64)
	peTotal := float64(len(peNames))
	nonPETotal := float64(len(nonPENames))

	for word := range union(peCounts, nonPECounts) {
		peCount := float64(peCounts[word])
		nonPECount := float64(nonPECounts[word])

		// Words this rare carry no signal.
		if peCount+nonPECount < 3 {
			continue
		}

		const smooth = 1e-6
		peProb := (peCount + smooth) / (peTotal + 2*smooth)
		nonPEProb := (nonPECount + smooth) / (nonPETotal + 2*smooth)
		logOdds := math.Log(peProb / nonPEProb)

		totalFreq := (peCount + nonPECount) / (peTotal + nonPETotal)
		weight := math.Min(1.0, totalFreq*1000)

		scores[word] = logOdds * weight
	}

	for term, floor := range structureFloors {
		if scores[term] < floor {
			scores[term] = floor
		}
	}

	return scores, nil
}

func readTrainingRows(r io.Reader) (pe, nonPE []string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read training header: %w", err)
	}
	nameCol, isPECol := -1, -1
	for i, h := range header {
		switch strings.ToUpper(strings.TrimSpace(h)) {
		case "NAME":
			nameCol = i
		case "IS_PE":
			isPECol = i
		}
	}
	if nameCol < 0 || isPECol < 0 {
		return nil, nil, fmt.Errorf("training data missing NAME/IS_PE columns")
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read training row: %w", err)
		}
		if nameCol >= len(rec) || isPECol >= len(rec) {
			continue
		}
		name := strings.TrimSpace(rec[nameCol])
		if name == "" {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(rec[isPECol])) {
		case "YES":
			pe = append(pe, name)
		case "NO":
			nonPE = append(nonPE, name)
		}
	}
	return pe, nonPE, nil
}

// wordCounts tokenizes names into lowercase words of length >= 2,
// excluding pure numbers, and counts occurrences.
func wordCounts(names []string) map[string]int {
	counts := make(map[string]int)
	for _, name := range names {
		for _, w := range tokenize(strings.ToLower(name)) {
			counts[w]++
		}
	}
	return counts
}

func tokenize(lower string) []string {
	clean := nonWordRE.ReplaceAllString(lower, " ")
	var words []string
	for _, w := range strings.Fields(clean) {
		if utf8.RuneCountInString(w) < 2 || isDigits(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func union(a, b map[string]int) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// FallbackWordScores is the built-in table used when training data is
// unavailable. Loading failure degrades capability; it is never fatal.
func FallbackWordScores() map[string]float64 {
	return map[string]float64{
		"fund": 2.0, "capital": 1.8, "equity": 1.6, "ventures": 1.5,
		"partners": 1.4, "investment": 1.3, "management": 1.2,
		"advisors": 1.1, "venture": 1.5, "opportunities": 1.0,
		"private": 1.8, "buyout": 1.6, "growth": 1.2, "spv": 1.4,
		"holdco": 12.0, "topco": 12.0, "bidco": 12.0, "acquico": 12.0,
		"newco": 12.0, "invest": 1.2, "holding": 1.1, "seed": 1.4,
		"series": 1.3, "emerging": 1.1, "impact": 1.0,
		"tech": 0.5, "healthcare": 0.5, "energy": 0.5, "industrial": 0.5,
		"gmbh": -2.0, "ag": -1.5, "bank": -1.8, "insurance": -1.6,
		"pension": -1.4, "foundation": -1.3, "stiftung": -1.5,
		"gastro": -2.0, "restaurant": -1.8, "baeckerei": -1.6,
		"cafe": -1.5, "rewe": -1.8, "food": -1.2, "markt": -1.4,
	}
}
