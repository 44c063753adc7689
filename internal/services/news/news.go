package news

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"golang-market-news-bot/internal/config"
	"golang-market-news-bot/internal/models"
	"golang-market-news-bot/internal/services/analyzer"
	"golang-market-news-bot/internal/services/classifier"
	"golang-market-news-bot/internal/services/news_providers"
	"golang-market-news-bot/pkg/cache"
)

const (
	TechnicalTitle = "📊 Technical Analysis"
	USNewsTitle    = "🇺🇸 US Market News"
	IndiaNewsTitle = "🇮🇳 Indian Market News"
)

var countryAliases = map[string]string{
	"us":            models.CountryUS,
	"usa":           models.CountryUS,
	"united states": models.CountryUS,
	"america":       models.CountryUS,
	"wall street":   models.CountryUS,
	"dow":           models.CountryUS,
	"nasdaq":        models.CountryUS,
	"s&p":           models.CountryUS,
	"india":         models.CountryIndia,
	"sensex":        models.CountryIndia,
	"nifty":         models.CountryIndia,
	"bse":           models.CountryIndia,
	"nse":           models.CountryIndia,
}

var queryStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "about": {},
	"what": {}, "is": {}, "are": {}, "how": {}, "why": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "news": {}, "latest": {}, "today": {}, "me": {}, "tell": {},
	"kya": {}, "hai": {}, "ka": {}, "ki": {}, "ke": {}, "mein": {}, "aaj": {}, "abhi": {},
	"kaise": {}, "batao": {}, "kitna": {},
}

type NewsService interface {
	// GetMarketNews searches all sources for query. An empty query
	// returns the global market digest.
	GetMarketNews(ctx context.Context, query string) (*models.NewsDigest, error)
	GetCountryNews(ctx context.Context, country string) (*models.NewsDigest, error)
	GetTopicNews(ctx context.Context, topic string) (*models.NewsDigest, error)
	GetTechnicalAnalysis(ctx context.Context) (*models.NewsDigest, error)
	Search(ctx context.Context, filter models.NewsFilter) ([]models.NewsItem, error)
}

type newsService struct {
	cfg       *config.NewsConfig
	providers []news_providers.Provider
	lexicon   *classifier.Lexicon
	analyzer  analyzer.AnalyzerService
	cache     cache.Cache
	logger    *logrus.Logger
	now       func() time.Time
}

func NewNewsService(
	cfg *config.NewsConfig,
	providers []news_providers.Provider,
	lexicon *classifier.Lexicon,
	analyzer analyzer.AnalyzerService,
	cache cache.Cache,
	logger *logrus.Logger,
) NewsService {
	if lexicon == nil {
		lexicon = classifier.DefaultLexicon()
	}
	return &newsService{
		cfg:       cfg,
		providers: providers,
		lexicon:   lexicon,
		analyzer:  analyzer,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// CountryAlias maps free text such as "wall street" or "nifty" to a country tag.
func CountryAlias(text string) (string, bool) {
	country, ok := countryAliases[strings.ToLower(strings.TrimSpace(text))]
	return country, ok
}

func (s *newsService) GetMarketNews(ctx context.Context, query string) (*models.NewsDigest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.GetCountryNews(ctx, models.CountryGlobal)
	}
	return s.digest(ctx, fmt.Sprintf("🔍 Market News - %s", query), models.NewsFilter{Query: query})
}

func (s *newsService) GetCountryNews(ctx context.Context, country string) (*models.NewsDigest, error) {
	country = strings.ToLower(strings.TrimSpace(country))
	if country == "" {
		country = models.CountryGlobal
	}
	return s.digest(ctx, fmt.Sprintf("📰 Market News - %s", strings.ToUpper(country)), models.NewsFilter{Country: country})
}

func (s *newsService) GetTopicNews(ctx context.Context, topic string) (*models.NewsDigest, error) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return s.GetCountryNews(ctx, models.CountryGlobal)
	}
	if country, ok := CountryAlias(topic); ok {
		title := USNewsTitle
		if country == models.CountryIndia {
			title = IndiaNewsTitle
		}
		return s.digest(ctx, title, models.NewsFilter{Country: country})
	}
	return s.digest(ctx, fmt.Sprintf("📈 %s News", titleCase(topic)), models.NewsFilter{Topic: topic})
}

func (s *newsService) GetTechnicalAnalysis(ctx context.Context) (*models.NewsDigest, error) {
	return s.digest(ctx, TechnicalTitle, models.NewsFilter{
		Topic: models.TopicTechnical,
		Limit: s.cfg.TechnicalLimit,
	})
}

func (s *newsService) digest(ctx context.Context, title string, filter models.NewsFilter) (*models.NewsDigest, error) {
	items, err := s.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	d := &models.NewsDigest{
		Title:       title,
		Items:       items,
		GeneratedAt: s.now(),
	}
	if s.analyzer != nil && len(items) > 0 {
		d.Analysis = s.analyzer.Analyze(ctx, items, filter.Query, filter.Country)
	}
	return d, nil
}

// Search fetches, merges, filters and caps items for filter. Provider
// failures only shrink the result; an error is returned only when ctx ends.
func (s *newsService) Search(ctx context.Context, filter models.NewsFilter) ([]models.NewsItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = s.cfg.Limit
	}
	key := fmt.Sprintf("%s|%d", filter.CacheKey(), limit)

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	terms := termPatterns(s.relevanceTerms(filter))
	results := s.fetchAll(ctx, filter)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("news search cancelled: %w", err)
	}

	var merged []models.NewsItem
	for _, r := range results {
		if len(terms) == 0 {
			merged = append(merged, r.items...)
			continue
		}
		for _, item := range r.items {
			item.Relevance = score(item, terms)
			// search providers already matched the query upstream
			if item.Relevance == 0 && !r.searched {
				continue
			}
			merged = append(merged, item)
		}
	}

	items := dedupe(merged)
	sortByPublished(items)
	if len(terms) > 0 {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Relevance > items[j].Relevance })
	}
	if len(items) > limit {
		items = items[:limit]
	}

	for i := range items {
		if items[i].Summary == "" && s.analyzer != nil {
			items[i].Summary = s.analyzer.SummarizeItem(items[i])
		}
		if items[i].Topic == "" {
			items[i].Topic = filter.Topic
		}
	}

	s.logger.Debug("News search finished", logrus.Fields{
		"filter": key,
		"items":  len(items),
	})

	if len(items) > 0 {
		s.toCache(ctx, key, items)
	}
	return items, nil
}

type providerResult struct {
	items    []models.NewsItem
	searched bool
}

func (s *newsService) fetchAll(ctx context.Context, filter models.NewsFilter) []providerResult {
	providers := s.providersFor(filter.Country)
	results := make([]providerResult, len(providers))

	var g errgroup.Group
	if s.cfg.MaxConcurrentFetch > 0 {
		g.SetLimit(s.cfg.MaxConcurrentFetch)
	}

	for i, p := range providers {
		g.Go(func() error {
			start := time.Now()
			items, err := p.Fetch(ctx, filter)
			if err != nil {
				s.logger.WithError(err).Warn("Provider fetch failed", logrus.Fields{
					"provider": p.Name(),
					"duration": time.Since(start).String(),
				})
				items = nil
			}
			results[i] = providerResult{items: items, searched: p.Region() == ""}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// providersFor keeps search providers plus the regional ones for india/us.
func (s *newsService) providersFor(country string) []news_providers.Provider {
	if country != models.CountryIndia && country != models.CountryUS {
		return s.providers
	}
	return lo.Filter(s.providers, func(p news_providers.Provider, _ int) bool {
		return p.Region() == "" || p.Region() == country
	})
}

func (s *newsService) relevanceTerms(filter models.NewsFilter) []string {
	if q := strings.TrimSpace(filter.Query); q != "" {
		return queryTerms(q)
	}
	if filter.Topic == "" {
		return nil
	}
	if terms := s.lexicon.TopicTerms(filter.Topic); len(terms) > 0 {
		return terms
	}
	return queryTerms(filter.Topic)
}

func (s *newsService) fromCache(ctx context.Context, key string) ([]models.NewsItem, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached models.CachedNews
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read news cache", logrus.Fields{"key": key})
		return nil, false
	}
	if !ok || len(cached.Items) == 0 {
		return nil, false
	}
	return cached.Items, true
}

func (s *newsService) toCache(ctx context.Context, key string, items []models.NewsItem) {
	if s.cache == nil {
		return
	}
	value := models.CachedNews{Key: key, Items: items, CachedAt: s.now()}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to write news cache", logrus.Fields{"key": key})
	}
}

func queryTerms(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	return lo.Uniq(lo.FilterMap(words, func(w string, _ int) (string, bool) {
		w = strings.Trim(w, "?!.,;:'\"()")
		if len(w) < 2 {
			return "", false
		}
		_, stop := queryStopwords[w]
		return w, !stop
	}))
}

func termPatterns(terms []string) []*regexp.Regexp {
	return lo.Map(terms, func(t string, _ int) *regexp.Regexp {
		return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(t)) + `\b`)
	})
}

// score counts the terms found in the item title and body.
func score(item models.NewsItem, terms []*regexp.Regexp) float64 {
	text := strings.ToLower(item.Title + " " + item.Summary + " " + item.Content)
	return float64(lo.CountBy(terms, func(p *regexp.Regexp) bool { return p.MatchString(text) }))
}

// dedupe keeps the first item for each lowercase title and each URL.
func dedupe(items []models.NewsItem) []models.NewsItem {
	seenTitles := make(map[string]struct{}, len(items))
	seenURLs := make(map[string]struct{}, len(items))
	out := make([]models.NewsItem, 0, len(items))

	for _, item := range items {
		key := item.DedupeKey()
		if key == "" {
			continue
		}
		if _, ok := seenTitles[key]; ok {
			continue
		}
		if item.URL != "" {
			if _, ok := seenURLs[item.URL]; ok {
				continue
			}
			seenURLs[item.URL] = struct{}{}
		}
		seenTitles[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// sortByPublished orders newest first; undated items keep their order at the end.
func sortByPublished(items []models.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.After(b)
	})
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "ipo" {
			words[i] = "IPO"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
