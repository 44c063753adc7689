package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"golang-market-news-bot/internal/models"
)

// RuleSpec maps a country or topic tag to the words that select it.
type RuleSpec struct {
	Name     string   `mapstructure:"name"`
	Keywords []string `mapstructure:"keywords"`
}

// LexiconSpec is the editable form of the keyword tables. Order of Countries
// and Topics is significant: the first matching rule wins.
type LexiconSpec struct {
	MarketKeywords   []string   `mapstructure:"market_keywords"`
	MarketPhrases    []string   `mapstructure:"market_phrases"`
	Instruments      []string   `mapstructure:"instruments"`
	QuestionStarters []string   `mapstructure:"question_starters"`
	GreetingPatterns []string   `mapstructure:"greeting_patterns"`
	ShortGreetings   []string   `mapstructure:"short_greetings"`
	Countries        []RuleSpec `mapstructure:"countries"`
	Topics           []RuleSpec `mapstructure:"topics"`
}

type rule struct {
	name     string
	keywords []string
	re       *regexp.Regexp
}

// Lexicon is the compiled, read-only form of LexiconSpec. It is safe for
// concurrent use.
type Lexicon struct {
	marketKeywords   []string
	marketPhrases    []string
	instruments      *regexp.Regexp
	questionStarters map[string]struct{}
	greetings        []*regexp.Regexp
	shortGreetings   map[string]struct{}
	countries        []rule
	topics           []rule
}

func DefaultLexiconSpec() LexiconSpec {
	return LexiconSpec{
		MarketKeywords: []string{
			"market", "stock", "share", "price", "investor", "trading", "index",
			"sensex", "nifty", "dow", "nasdaq", "s&p", "djia", "bull", "bear",
			"rally", "crash", "correction", "economy", "economic", "finance",
			"financial", "investment", "commodity", "gold", "silver", "oil",
			"currency", "forex", "dollar", "rupee", "euro", "trade", "fed",
			"inflation", "gdp", "growth", "recession", "interest rate",
			"news", "update", "analysis", "report", "forecast",
			"bazaar", "bajar", "share bazaar", "sebi", "sona", "chandi", "rupaya",
			"sharebazaar", "sharemarket", "dalal street", "rbi", "reserve bank",
			"paisa", "paise", "arthvyavastha", "arthik", "nivesh", "niveshak",
			"vyapar", "munaafa", "ghaata", "mehangai", "bse", "nse",
		},
		MarketPhrases: []string{
			"share market", "market kya hal", "market me kya", "market me aaj",
			"sensex kitna", "nifty kitna", "share price", "bazaar me kya",
			"kya invest karu", "best shares", "invest kaise kare", "paise kaha lagaye",
			"stocks kaunse", "aaj ka market", "market news batao", "stocks ke baare",
			"market trend", "market update", "bazaar ka haal", "stocks ke bare me",
		},
		Instruments: []string{"nifty", "sensex", "bse", "nse", "dow", "nasdaq", "s&p", "ftse", "dax"},
		QuestionStarters: []string{
			"what", "when", "where", "who", "whom", "which", "whose",
			"why", "how", "is", "are", "am", "was", "were", "will", "do",
			"does", "did", "can", "could", "should", "would", "may", "might",
			"kya", "kab", "kahan", "kaun", "kaise", "kyun", "kyu", "kahaan",
		},
		GreetingPatterns: []string{
			`\b(hi|hello|hey|good morning|good afternoon|good evening|howdy|sup|yo|hola)\b`,
			`^(hi|hello|hey)[\s\W]*$`,
			`\b(namaste|namaskar|jai hind|kaise ho|kya hal hai|kya hal chal|kaise hain|kya chal raha hai)\b`,
			`\b(kidhar ho|kidhar hai|kya kar rahe ho|kya ho raha hai|ram ram|jai shree ram)\b`,
		},
		ShortGreetings: []string{"haan", "ji", "haanji", "hmm", "hm", "ok", "okay", "thik", "theek", "yes", "no", "nahi"},
		Countries: []RuleSpec{
			{Name: models.CountryIndia, Keywords: []string{"india", "indian", "nifty", "sensex", "bharat", "bharatiya", "hindustani"}},
			{Name: models.CountryUS, Keywords: []string{"us", "usa", "american", "dow", "nasdaq", "s&p", "wall street", "america"}},
			{Name: models.CountryGlobal, Keywords: []string{"global", "world", "international", "duniya"}},
		},
		Topics: []RuleSpec{
			{Name: models.TopicCommodities, Keywords: []string{"gold", "silver", "oil", "commodity", "commodities", "sona", "chandi", "tel"}},
			{Name: models.TopicCrypto, Keywords: []string{"crypto", "bitcoin", "ethereum", "blockchain", "btc", "eth"}},
			{Name: models.TopicForex, Keywords: []string{"currency", "forex", "dollar", "rupee", "euro", "rupaya", "rupaiya", "paisa"}},
			{Name: models.TopicMergers, Keywords: []string{"merger", "acquisition", "takeover", "adhigrahan"}},
			{Name: models.TopicIPO, Keywords: []string{"ipo", "listing", "public offering", "nayi company"}},
			{Name: models.TopicEarnings, Keywords: []string{"earning", "earnings", "profit", "revenue", "quarterly", "financial result", "munafa", "kamai"}},
			{Name: models.TopicBreaking, Keywords: []string{"breaking", "latest", "urgent", "alert", "abhi", "turant", "taza"}},
			{Name: models.TopicTechnical, Keywords: []string{"technical", "chart", "pattern", "support", "resistance", "moving average", "macd", "rsi", "indicator"}},
		},
	}
}

// DefaultLexicon compiles DefaultLexiconSpec. The built-in tables always compile.
func DefaultLexicon() *Lexicon {
	lex, err := NewLexicon(DefaultLexiconSpec())
	if err != nil {
		panic(err)
	}
	return lex
}

func NewLexicon(spec LexiconSpec) (*Lexicon, error) {
	lex := &Lexicon{
		marketKeywords:   normalizeWords(spec.MarketKeywords),
		marketPhrases:    normalizeWords(spec.MarketPhrases),
		questionStarters: toSet(spec.QuestionStarters),
		shortGreetings:   toSet(spec.ShortGreetings),
	}

	if len(spec.Instruments) > 0 {
		lex.instruments = wordPattern(spec.Instruments)
	}

	for _, p := range spec.GreetingPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid greeting pattern %q: %w", p, err)
		}
		lex.greetings = append(lex.greetings, re)
	}

	var err error
	if lex.countries, err = compileRules(spec.Countries); err != nil {
		return nil, fmt.Errorf("countries: %w", err)
	}
	if lex.topics, err = compileRules(spec.Topics); err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	return lex, nil
}

// LoadLexicon reads a YAML/JSON/TOML file whose keys override the defaults.
// Lists present in the file replace the default list entirely.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read lexicon file %s: %w", path, err)
	}

	spec := DefaultLexiconSpec()
	if err := v.Unmarshal(&spec); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon file %s: %w", path, err)
	}
	return NewLexicon(spec)
}

// TopicTerms returns the keywords configured for a topic or country tag.
func (l *Lexicon) TopicTerms(name string) []string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, rules := range [][]rule{l.topics, l.countries} {
		for _, r := range rules {
			if r.name == name {
				return append([]string(nil), r.keywords...)
			}
		}
	}
	return nil
}

// Topics lists the configured topic tags in match order.
func (l *Lexicon) Topics() []string {
	return lo.Map(l.topics, func(r rule, _ int) string { return r.name })
}

func compileRules(specs []RuleSpec) ([]rule, error) {
	rules := make([]rule, 0, len(specs))
	for _, s := range specs {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		words := normalizeWords(s.Keywords)
		if name == "" {
			return nil, fmt.Errorf("rule without a name")
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("rule %q has no keywords", name)
		}
		rules = append(rules, rule{name: name, keywords: words, re: wordPattern(words)})
	}
	return rules, nil
}

// wordPattern builds \b(a|b|c)\b over quoted words.
func wordPattern(words []string) *regexp.Regexp {
	quoted := lo.Map(words, func(w string, _ int) string { return regexp.QuoteMeta(strings.ToLower(w)) })
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

func normalizeWords(words []string) []string {
	out := lo.FilterMap(words, func(w string, _ int) (string, bool) {
		w = strings.ToLower(strings.TrimSpace(w))
		return w, w != ""
	})
	return lo.Uniq(out)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range normalizeWords(words) {
		set[w] = struct{}{}
	}
	return set
}
