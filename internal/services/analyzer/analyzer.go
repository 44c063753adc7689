package analyzer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"golang-market-news-bot/internal/models"
	"golang-market-news-bot/internal/utils"
)

const (
	maxSummaryLen     = 280
	maxMovements      = 3
	maxThemes         = 3
	maxFocusTerms     = 5
	maxTrendingTopics = 5
	maxKeyPoints      = 3
	movementWindow    = 50
	maxReasonWords    = 8

	NoInsightsText = "No significant market insights detected from recent news."
	NoDataText     = "No recent market data available for insights."
	NoArticlesText = "No articles available for analysis."
	LatestText     = "Here's the latest from the financial markets:"
)

var (
	percentPattern  = regexp.MustCompile(`([+-]?\d+(?:\.\d+)?)\s*%`)
	sentenceEnd     = regexp.MustCompile(`[.!?]\s+`)
	titleWordTrim   = func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) }
	termPatterns    = map[string]*regexp.Regexp{}
	fallingPatterns []*regexp.Regexp
)

func init() {
	all := append([]string{}, globalTerms...)
	for _, terms := range countryTerms {
		all = append(all, terms...)
	}
	for _, tn := range indexNames {
		all = append(all, tn.term)
	}
	all = append(all, reasonIndicators...)
	all = append(all, positiveIndicators...)
	all = append(all, negativeIndicators...)
	for _, term := range lo.Uniq(all) {
		termPatterns[term] = wordPattern(term)
	}
	fallingPatterns = lo.Map(fallingWords, func(w string, _ int) *regexp.Regexp { return wordPattern(w) })
}

func wordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
}

// InsightGenerator produces free-form market commentary for a set of headlines.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, items []models.NewsItem, country string) (string, error)
}

type AnalyzerService interface {
	SummarizeItem(item models.NewsItem) string
	KeyPoints(items []models.NewsItem) []string
	TrendingTopics(items []models.NewsItem) []string
	MarketInsight(ctx context.Context, items []models.NewsItem, country string) string
	Analyze(ctx context.Context, items []models.NewsItem, query, country string) *models.NewsAnalysis
}

type analyzerService struct {
	generator InsightGenerator
	logger    *logrus.Logger
}

// NewAnalyzerService builds the extractive analyzer. generator may be nil.
func NewAnalyzerService(generator InsightGenerator, logger *logrus.Logger) AnalyzerService {
	return &analyzerService{generator: generator, logger: logger}
}

// SummarizeItem returns the first two or three sentences of the item body.
// Items without a body have no summary.
func (a *analyzerService) SummarizeItem(item models.NewsItem) string {
	content := utils.CollapseSpaces(item.Content)
	if content == "" {
		return ""
	}

	sentences := splitSentences(content)
	n := 2
	if len(sentences) >= 3 && len(strings.Join(sentences[:3], " ")) < 200 {
		n = 3
	}
	if n > len(sentences) {
		n = len(sentences)
	}
	summary := strings.Join(sentences[:n], " ")
	if len(summary) > maxSummaryLen {
		summary = strings.TrimSpace(cutBytes(summary, maxSummaryLen-3)) + "..."
	}
	return summary
}

func (a *analyzerService) KeyPoints(items []models.NewsItem) []string {
	points := make([]string, 0, maxKeyPoints)
	seen := make(map[string]struct{})
	for _, item := range items {
		title := strings.TrimSpace(strings.ReplaceAll(item.Title, "...", ""))
		if title == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(title)]; ok {
			continue
		}
		seen[strings.ToLower(title)] = struct{}{}
		points = append(points, title)
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}

func (a *analyzerService) TrendingTopics(items []models.NewsItem) []string {
	terms := topTerms(items, globalTerms, maxTrendingTopics)
	return lo.Map(terms, func(t string, _ int) string { return displayName(t) })
}

// MarketInsight asks the generator first and falls back to extracted
// index movements, recurring themes and the most mentioned terms.
func (a *analyzerService) MarketInsight(ctx context.Context, items []models.NewsItem, country string) string {
	if len(items) == 0 {
		return NoDataText
	}

	if a.generator != nil {
		text, err := a.generator.GenerateInsight(ctx, items, country)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		if err != nil {
			a.logger.WithError(err).Warn("AI insight failed, using extractive insight", logrus.Fields{
				"country": country,
				"items":   len(items),
			})
		}
	}

	return extractiveInsight(items, country)
}

func (a *analyzerService) Analyze(ctx context.Context, items []models.NewsItem, query, country string) *models.NewsAnalysis {
	if len(items) == 0 {
		return &models.NewsAnalysis{
			Summary:        NoArticlesText,
			Insights:       NoDataText,
			KeyPoints:      []string{},
			TrendingTopics: []string{},
		}
	}

	trending := a.TrendingTopics(items)
	summary := LatestText
	switch {
	case strings.TrimSpace(query) != "":
		summary = fmt.Sprintf("Here's what I found about '%s':", strings.TrimSpace(query))
	case len(trending) > 0:
		summary = fmt.Sprintf("Current market focus is on %s.", strings.Join(lo.Slice(trending, 0, 3), ", "))
	}

	return &models.NewsAnalysis{
		Summary:        summary,
		Insights:       a.MarketInsight(ctx, items, country),
		KeyPoints:      a.KeyPoints(items),
		TrendingTopics: trending,
	}
}

func extractiveInsight(items []models.NewsItem, country string) string {
	var parts []string
	parts = append(parts, marketMovements(items, country)...)

	if themes := recurringThemes(items); len(themes) > 0 {
		parts = append(parts, fmt.Sprintf("Key themes: %s.", strings.Join(themes, ", ")))
	}

	terms := append([]string{}, globalTerms...)
	if ct, ok := countryTerms[country]; ok {
		terms = append(terms, ct...)
	} else {
		terms = append(terms, countryTerms[models.CountryUS]...)
		terms = append(terms, countryTerms[models.CountryIndia]...)
	}
	focus := lo.Uniq(lo.Map(topTerms(items, lo.Uniq(terms), maxFocusTerms), func(t string, _ int) string {
		return displayName(t)
	}))
	if len(focus) > 0 {
		parts = append(parts, fmt.Sprintf("Market focus: %s.", strings.Join(focus, ", ")))
	}

	if len(parts) == 0 {
		return NoInsightsText
	}
	return strings.Join(parts, " ")
}

func marketMovements(items []models.NewsItem, country string) []string {
	allowed := countryIndices[country]
	var movements []string
	reported := make(map[string]struct{})

	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Content)
		for _, tn := range indexNames {
			if len(movements) == maxMovements {
				return movements
			}
			if len(allowed) > 0 && !lo.Contains(allowed, tn.term) {
				continue
			}
			if _, ok := reported[tn.name]; ok {
				continue
			}
			loc := termPatterns[tn.term].FindStringIndex(text)
			if loc == nil {
				continue
			}
			start := max(0, loc[0]-movementWindow)
			end := min(len(text), loc[1]+movementWindow)
			window := strings.ToValidUTF8(text[start:end], "")

			m := percentPattern.FindStringSubmatch(window)
			if m == nil {
				continue
			}
			change, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			falling := change < 0 || lo.SomeBy(fallingPatterns, func(p *regexp.Regexp) bool { return p.MatchString(window) })
			pct := strconv.FormatFloat(math.Abs(change), 'f', -1, 64)
			reason := extractReason(window, !falling)

			reported[tn.name] = struct{}{}
			movements = append(movements, describeMovement(tn.name, pct, reason, falling))
		}
	}
	return movements
}

func describeMovement(name, pct, reason string, falling bool) string {
	switch {
	case falling && reason != "":
		return fmt.Sprintf("%s fell %s%% %s.", name, pct, reason)
	case falling:
		return fmt.Sprintf("%s is down %s%%.", name, pct)
	case reason != "":
		return fmt.Sprintf("%s gained %s%% %s.", name, pct, reason)
	default:
		return fmt.Sprintf("%s is up %s%%.", name, pct)
	}
}

// extractReason returns the indicator plus up to eight following words.
func extractReason(window string, rising bool) string {
	indicators := append([]string{}, reasonIndicators...)
	if rising {
		indicators = append(indicators, positiveIndicators...)
	} else {
		indicators = append(indicators, negativeIndicators...)
	}

	for _, ind := range indicators {
		loc := termPatterns[ind].FindStringIndex(window)
		if loc == nil {
			continue
		}
		words := strings.Fields(window[loc[1]:])
		if len(words) == 0 {
			continue
		}
		words = lo.Slice(words, 0, maxReasonWords)
		reason := strings.TrimRight(strings.Join(words, " "), ".,;:")
		if reason == "" {
			continue
		}
		return ind + " " + reason
	}
	return ""
}

func recurringThemes(items []models.NewsItem) []string {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		for _, w := range strings.Fields(strings.ToLower(item.Title)) {
			w = strings.TrimFunc(w, titleWordTrim)
			if len([]rune(w)) <= 3 {
				continue
			}
			if _, stop := themeStopwords[w]; stop {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	themes := lo.Filter(order, func(w string, _ int) bool { return counts[w] >= 2 })
	sort.SliceStable(themes, func(i, j int) bool { return counts[themes[i]] > counts[themes[j]] })
	return lo.Slice(themes, 0, maxThemes)
}

// topTerms ranks terms by how many items mention them.
func topTerms(items []models.NewsItem, terms []string, limit int) []string {
	texts := lo.Map(items, func(item models.NewsItem, _ int) string {
		return strings.ToLower(item.Title + " " + item.Content)
	})

	counts := make(map[string]int)
	for _, term := range terms {
		p, ok := termPatterns[term]
		if !ok {
			p = wordPattern(term)
		}
		counts[term] = lo.CountBy(texts, func(t string) bool { return p.MatchString(t) })
	}

	found := lo.Filter(terms, func(t string, _ int) bool { return counts[t] > 0 })
	sort.SliceStable(found, func(i, j int) bool { return counts[found[i]] > counts[found[j]] })
	return lo.Slice(found, 0, limit)
}

func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[last : loc[0]+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func cutBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = utils.CapitalizeSentence(w)
	}
	return strings.Join(words, " ")
}
