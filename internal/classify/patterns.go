package classify

import "regexp"

// fundPattern is one structural naming pattern. Patterns are checked in
// order and only the first match scores.
type fundPattern struct {
	name        string
	re          *regexp.Regexp
	score       float64
	description string
	fundType    string // "" leaves the type to the fallback heuristics
}

var fundPatterns = []fundPattern{
	{
		name:        "numeric_fund",
		re:          regexp.MustCompile(`^\d+.*(?:fund|capital|ventures?|equity|partners)`),
		score:       1.2,
		description: "Numeric prefix with fund terms",
		fundType:    "modern_fund",
	},
	{
		name:        "year_based_fund",
		re:          regexp.MustCompile(`\b(19|20)\d{2}\s*(?:fund|capital|ventures?)`),
		score:       1.0,
		description: "Year-based fund naming",
	},
	{
		name:        "roman_numeral_series",
		re:          regexp.MustCompile(`\b[ivxlcdm]+\s*$`),
		score:       0.8,
		description: "Roman numeral series",
		fundType:    "series_fund",
	},
	{
		name:        "fund_series_pattern",
		re:          regexp.MustCompile(`(?:fund|capital|ventures?)\s+[ivx0-9]+\s*$`),
		score:       1.0,
		description: "Fund series pattern",
		fundType:    "series_fund",
	},
	{
		name:        "co_investment_pattern",
		re:          regexp.MustCompile(`co[\s\-]?invest`),
		score:       0.9,
		description: "Co-investment structure",
		fundType:    "special_purpose",
	},
	{
		name:        "spv_pattern",
		re:          regexp.MustCompile(`\bspv\b`),
		score:       0.8,
		description: "Special Purpose Vehicle",
		fundType:    "special_purpose",
	},
	{
		name:        "short_branded_name",
		re:          regexp.MustCompile(`^[a-z0-9&+.]{2,8}(?:\s+[ivx0-9]+)?$`),
		score:       0.6,
		description: "Short branded fund name",
	},
	{
		name:        "fund_suffix",
		re:          regexp.MustCompile(`(?:fund|capital|ventures?|equity|partners|lp|llc|ltd)\s*$`),
		score:       0.8,
		description: "Fund structure suffix",
	},
	{
		name:        "bid_top_pattern",
		re:          regexp.MustCompile(`\b(?:bid|top)[a-z]*\b`),
		score:       5.0,
		description: "BID/TOP PE indicator pattern",
		fundType:    "pe_acquisition",
	},
	{
		name:        "pe_structure_pattern",
		re:          regexp.MustCompile(`\b(?:holdco|topco|bidco|acquico|newco|finco|propco)\b`),
		score:       8.0,
		description: "PE acquisition structure entities",
	},
}
