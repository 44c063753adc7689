package analyzer

import "golang-market-news-bot/internal/models"

var globalTerms = []string{
	"market", "stock", "equity", "trade", "investor", "economy",
	"bull", "bear", "volatile", "rally", "correction", "crash",
	"investment", "dividend", "yield", "bond", "treasury", "etf",
	"index", "portfolio", "fund", "asset", "derivative", "hedge",
	"inflation", "recession", "growth", "interest rate", "fed", "central bank",
}

var countryTerms = map[string][]string{
	models.CountryUS: {
		"dow", "nasdaq", "s&p", "s&p 500", "djia", "nyse", "wall street",
		"russell", "ftse", "dax", "federal reserve", "fed", "powell",
		"treasury", "yellen", "sec", "wall st",
	},
	models.CountryIndia: {
		"sensex", "nifty", "bse", "nse", "rbi", "sebi", "dalal street",
		"bombay stock exchange", "national stock exchange", "reserve bank of india",
	},
}

type termName struct {
	term string
	name string
}

// indexNames is ordered: movement extraction reports indices in this order.
var indexNames = []termName{
	{"dow", "Dow Jones"},
	{"djia", "Dow Jones"},
	{"nasdaq", "NASDAQ"},
	{"s&p 500", "S&P 500"},
	{"s&p", "S&P 500"},
	{"nyse", "NYSE"},
	{"russell", "Russell"},
	{"sensex", "Sensex"},
	{"nifty", "Nifty"},
	{"bse", "BSE"},
	{"nse", "NSE"},
	{"rbi", "RBI"},
	{"sebi", "SEBI"},
	{"federal reserve", "Federal Reserve"},
	{"fed", "Federal Reserve"},
	{"wall street", "Wall Street"},
	{"wall st", "Wall Street"},
	{"dalal street", "Dalal Street"},
}

var countryIndices = map[string][]string{
	models.CountryUS:    {"dow", "nasdaq", "s&p", "s&p 500", "djia"},
	models.CountryIndia: {"sensex", "nifty", "bse", "nse"},
}

var (
	reasonIndicators   = []string{"as", "after", "due to", "following", "amid", "on", "because of"}
	positiveIndicators = []string{"boosted by", "lifted by", "supported by", "driven by"}
	negativeIndicators = []string{"dragged by", "pressured by", "weighed by", "hit by"}
	fallingWords       = []string{"fell", "falls", "fall", "down", "drop", "drops", "dropped", "decline", "declines", "declined", "slip", "slips", "slipped", "lose", "loses", "lost", "tumble", "tumbles", "tumbled", "plunge", "plunges", "plunged", "slump", "slumps", "slumped", "sheds", "shed", "lower", "crash", "crashes", "sink", "sinks", "sank"}
)

var themeStopwords = map[string]struct{}{
	"with": {}, "from": {}, "that": {}, "this": {}, "after": {}, "amid": {},
	"over": {}, "into": {}, "what": {}, "when": {}, "will": {}, "have": {},
	"says": {}, "said": {}, "more": {}, "than": {}, "today": {}, "their": {},
}

func displayName(term string) string {
	for _, tn := range indexNames {
		if tn.term == term {
			return tn.name
		}
	}
	return titleCase(term)
}
