package classify

// phraseScore is one multi-word override entry. Phrases are matched as
// substrings before word scoring, and their spans are excluded from the
// per-word pass.
type phraseScore struct {
	phrase string
	score  float64
}

// predefinedPhrases holds the multi-word multilingual overrides in tier
// order (PE-specific 10, strong 8, moderate 6, negative -8). Order is
// fixed so repeated classifications produce identical span consumption.
var predefinedPhrases = []phraseScore{
	// PE-specific terms.
	{"private equity", 10.0},
	{"leveraged buyout", 10.0},
	{"growth equity", 10.0},
	{"pe fund", 10.0},
	{"private equity fund", 10.0},
	{"portfolio company", 10.0},
	{"portfolio companies", 10.0},
	{"capital privado", 10.0},
	{"fondo de capital privado", 10.0},
	{"compra apalancada", 10.0},
	{"capital riesgo", 10.0},
	{"empresa en cartera", 10.0},
	{"empresas en cartera", 10.0},
	{"capital investissement", 10.0},
	{"capital développement", 10.0},
	{"fonds de capital investissement", 10.0},
	{"rachat avec effet de levier", 10.0},
	{"société de portefeuille", 10.0},
	{"sociétés en portefeuille", 10.0},

	// Strong indicators.
	{"buyout fund", 8.0},
	{"growth capital", 8.0},
	{"management buyout", 8.0},
	{"investment firm", 8.0},
	{"alternative investment", 8.0},
	{"distressed debt", 8.0},
	{"fondo de adquisición", 8.0},
	{"capital de crecimiento", 8.0},
	{"compra por gestión", 8.0},
	{"firma de inversión", 8.0},
	{"inversión alternativa", 8.0},
	{"deuda en dificultades", 8.0},
	{"alternative anlagen", 8.0},
	{"fonds de rachat", 8.0},
	{"capital croissance", 8.0},
	{"rachat par la direction", 8.0},
	{"société d'investissement", 8.0},
	{"investissement alternatif", 8.0},
	{"dette en difficulté", 8.0},
	{"alternatieve belegging", 8.0},

	// Moderate indicators.
	{"eigen vermogen", 6.0},

	// Negative indicators.
	{"mutual fund", -8.0},
	{"exchange traded", -8.0},
	{"index fund", -8.0},
	{"fondo mutuo", -8.0},
	{"fondo índice", -8.0},
	{"fonds commun", -8.0},
	{"fonds indiciel", -8.0},
}

// predefinedWords holds the single-word multilingual overrides. When a
// word also appears in the trained table, the entry with the larger
// absolute value wins.
var predefinedWords = map[string]float64{
	// PE-specific terms.
	"buyout": 10.0, "lbo": 10.0,
	"beteiligungskapital": 10.0, "beteiligungsgesellschaft": 10.0,
	"wachstumskapital": 10.0, "portfoliounternehmen": 10.0,
	"beteiligungsfonds": 10.0,
	"participatiemaatschappij": 10.0, "durfkapitaal": 10.0,
	"groeikapitaal": 10.0, "portfoliobedrijf": 10.0,
	"portfoliobedrijven": 10.0, "participatiefonds": 10.0,

	// Strong indicators.
	"acquisition": 8.0, "acquisitions": 8.0, "mbo": 8.0, "mezzanine": 8.0,
	"adquisición": 8.0, "adquisiciones": 8.0,
	"akquisition": 8.0, "akquisitionen": 8.0, "übernahme": 8.0,
	"übernahmen": 8.0, "wachstumsfinanzierung": 8.0, "investmentfirma": 8.0,
	"mezzanine-kapital": 8.0,
	"acquisitie": 8.0, "acquisities": 8.0, "overname": 8.0,
	"overnames": 8.0, "groeifinanciering": 8.0,
	"investeringsmaatschappij": 8.0, "mezzaninefinanciering": 8.0,

	// Moderate indicators.
	"capital": 6.0, "equity": 6.0, "fund": 6.0, "partners": 6.0,
	"investments": 6.0, "holdings": 6.0, "ventures": 6.0, "assets": 6.0,
	"equidad": 6.0, "patrimonio": 6.0, "fondo": 6.0, "socios": 6.0,
	"inversiones": 6.0, "participaciones": 6.0, "activos": 6.0,
	"kapital": 6.0, "eigenkapital": 6.0, "fonds": 6.0, "partner": 6.0,
	"investitionen": 6.0, "beteiligungen": 6.0, "vermögenswerte": 6.0,
	"anlagen": 6.0,
	"équité": 6.0, "partenaires": 6.0, "investissements": 6.0,
	"participations": 6.0, "actifs": 6.0,
	"kapitaal": 6.0, "investeringen": 6.0, "participaties": 6.0,
	"activa": 6.0, "vermogen": 6.0,

	// Context enhancers.
	"management": 4.0, "strategic": 4.0, "financial": 4.0, "advisory": 4.0,
	"global": 4.0, "international": 4.0,
	"gestión": 4.0, "estratégico": 4.0, "financiero": 4.0, "asesoría": 4.0,
	"internacional": 4.0,
	"strategisch": 4.0, "finanziell": 4.0, "beratung": 4.0,
	"gestion": 4.0, "stratégique": 4.0, "financier": 4.0, "conseil": 4.0,
	"beheer": 4.0, "financieel": 4.0, "advies": 4.0, "globaal": 4.0,
	"internationaal": 4.0,

	// Negative indicators.
	"public": -8.0, "listed": -8.0, "traded": -8.0, "etf": -8.0,
	"bank": -8.0, "insurance": -8.0, "retail": -8.0,
	"público": -8.0, "cotizado": -8.0, "negociado": -8.0, "banco": -8.0,
	"seguro": -8.0, "minorista": -8.0,
	"öffentlich": -8.0, "börsennotiert": -8.0, "gehandelt": -8.0,
	"investmentfonds": -8.0, "indexfonds": -8.0, "versicherung": -8.0,
	"einzelhandel": -8.0,
	"coté": -8.0, "négocié": -8.0, "banque": -8.0, "assurance": -8.0,
	"détail": -8.0,
	"publiek": -8.0, "beursgenoteerd": -8.0, "verhandeld": -8.0,
	"beleggingsfonds": -8.0, "verzekering": -8.0, "detailhandel": -8.0,
}
