package classifier

import (
	"strings"
	"unicode"

	"golang-market-news-bot/internal/models"
)

// Classifier decides whether a chat message asks about markets. It holds
// only the immutable Lexicon it was built with.
type Classifier struct {
	lex *Lexicon
}

func New(lex *Lexicon) *Classifier {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Classifier{lex: lex}
}

func (c *Classifier) Lexicon() *Lexicon {
	return c.lex
}

// Classify runs the market check first; greeting detection only applies to
// messages that are not market queries.
func (c *Classifier) Classify(text string) models.ClassificationResult {
	norm := strings.ToLower(strings.TrimSpace(text))
	result := models.ClassificationResult{Category: models.CategoryNone}
	if norm == "" {
		return result
	}

	result.IsQuestion = c.isQuestion(norm)
	if c.isMarketRelated(norm, result.IsQuestion) {
		result.IsMarketQuery = true
		result.Country = firstMatch(c.lex.countries, norm)
		result.Topic = firstMatch(c.lex.topics, norm)
		result.Category = category(result.Country, result.Topic)
		return result
	}

	result.IsGreeting = c.isGreeting(norm)
	return result
}

func (c *Classifier) IsMarketRelated(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	return c.isMarketRelated(norm, c.isQuestion(norm))
}

func (c *Classifier) IsGreeting(text string) bool {
	return c.isGreeting(strings.ToLower(strings.TrimSpace(text)))
}

func (c *Classifier) IsQuestion(text string) bool {
	return c.isQuestion(strings.ToLower(strings.TrimSpace(text)))
}

// DetectCountry returns the first configured country named in text, or "".
func (c *Classifier) DetectCountry(text string) string {
	return firstMatch(c.lex.countries, strings.ToLower(text))
}

// DetectTopic returns the first configured topic named in text, or "".
func (c *Classifier) DetectTopic(text string) string {
	return firstMatch(c.lex.topics, strings.ToLower(text))
}

func (c *Classifier) isMarketRelated(norm string, question bool) bool {
	hits := 0
	for _, kw := range c.lex.marketKeywords {
		if strings.Contains(norm, kw) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}

	for _, phrase := range c.lex.marketPhrases {
		if strings.Contains(norm, phrase) {
			return true
		}
	}

	if question && hits >= 1 {
		return true
	}

	return c.lex.instruments != nil && c.lex.instruments.MatchString(norm)
}

func (c *Classifier) isGreeting(norm string) bool {
	for _, re := range c.lex.greetings {
		if re.MatchString(norm) {
			return true
		}
	}

	if len(strings.Fields(norm)) <= 2 && len(norm) < 15 {
		if _, ok := c.lex.shortGreetings[norm]; ok {
			return true
		}
	}
	return false
}

func (c *Classifier) isQuestion(norm string) bool {
	if strings.Contains(norm, "?") {
		return true
	}
	fields := strings.Fields(norm)
	if len(fields) == 0 {
		return false
	}
	first := strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	_, ok := c.lex.questionStarters[first]
	return ok
}

func firstMatch(rules []rule, norm string) string {
	for _, r := range rules {
		if r.re.MatchString(norm) {
			return r.name
		}
	}
	return ""
}

func category(country, topic string) string {
	switch {
	case country != "":
		return models.CategoryCountry
	case topic == models.TopicTechnical:
		return models.CategoryTechnical
	case topic != "":
		return models.CategoryTopic
	default:
		return models.CategoryGeneral
	}
}
