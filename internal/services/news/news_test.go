package news

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-market-news-bot/internal/config"
	"golang-market-news-bot/internal/models"
	"golang-market-news-bot/internal/services/analyzer"
	"golang-market-news-bot/internal/services/news_providers"
	"golang-market-news-bot/pkg/cache"
)

type fakeProvider struct {
	name   string
	region string
	items  []models.NewsItem
	err    error

	mu      sync.Mutex
	calls   int
	filters []models.NewsFilter
}

func (f *fakeProvider) Name() string   { return f.name }
func (f *fakeProvider) Region() string { return f.region }

func (f *fakeProvider) Fetch(_ context.Context, filter models.NewsFilter) ([]models.NewsItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.filters = append(f.filters, filter)
	return f.items, f.err
}

type failingCache struct{}

func (failingCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("redis down")
}

func (failingCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("redis down")
}

var base = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func item(title, url string, age time.Duration) models.NewsItem {
	it := models.NewsItem{Title: title, URL: url, Source: "test"}
	if age >= 0 {
		it.PublishedAt = base.Add(-age)
	}
	return it
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.NewsConfig {
	return &config.NewsConfig{
		Limit:              10,
		TechnicalLimit:     7,
		CacheTTL:           time.Minute,
		MaxConcurrentFetch: 2,
	}
}

func newService(c cache.Cache, providers ...news_providers.Provider) *newsService {
	svc := NewNewsService(testConfig(), providers, nil, analyzer.NewAnalyzerService(nil, testLogger()), c, testLogger())
	return svc.(*newsService)
}

func TestSearchFailingProviderDoesNotHideOthers(t *testing.T) {
	ok := &fakeProvider{name: "ok", items: []models.NewsItem{item("Sensex rallies", "u1", time.Hour)}}
	broken := &fakeProvider{name: "broken", region: models.CountryIndia, err: errors.New("503")}

	svc := newService(nil, broken, ok)
	items, err := svc.Search(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sensex rallies", items[0].Title)
}

func TestSearchAllProvidersFail(t *testing.T) {
	svc := newService(nil,
		&fakeProvider{name: "a", err: errors.New("timeout")},
		&fakeProvider{name: "b", region: models.CountryUS, err: errors.New("404")},
		&fakeProvider{name: "c", region: models.CountryIndia, err: errors.New("connection reset by peer")},
	)
	items, err := svc.Search(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)

	digest, err := svc.GetCountryNews(context.Background(), models.CountryUS)
	require.NoError(t, err)
	assert.True(t, digest.Empty())
	assert.Nil(t, digest.Analysis)
}

func TestSearchDedupeSortAndCap(t *testing.T) {
	p1 := &fakeProvider{name: "google", items: []models.NewsItem{
		item("Older headline", "u1", 3*time.Hour),
		item("Undated headline", "u2", -1),
		item("Newest headline", "u3", time.Minute),
	}}
	p2 := &fakeProvider{name: "site", region: models.CountryIndia, items: []models.NewsItem{
		item("NEWEST HEADLINE ", "other", 0),
		item("Different title same link", "u1", 0),
		item("Middle headline", "u4", time.Hour),
		item("", "u5", 0),
	}}

	svc := newService(nil, p1, p2)
	items, err := svc.Search(context.Background(), models.NewsFilter{Limit: 3})
	require.NoError(t, err)

	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"Newest headline", "Middle headline", "Older headline"}, titles)

	all, err := svc.Search(context.Background(), models.NewsFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Undated headline", all[3].Title)
}

func TestProviderSelection(t *testing.T) {
	google := &fakeProvider{name: "google"}
	india := &fakeProvider{name: "et", region: models.CountryIndia}
	us := &fakeProvider{name: "cnbc", region: models.CountryUS}
	svc := newService(nil, google, india, us)

	names := func(ps []news_providers.Provider) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.Name())
		}
		return out
	}

	assert.Equal(t, []string{"google", "et"}, names(svc.providersFor(models.CountryIndia)))
	assert.Equal(t, []string{"google", "cnbc"}, names(svc.providersFor(models.CountryUS)))
	assert.Equal(t, []string{"google", "et", "cnbc"}, names(svc.providersFor(models.CountryGlobal)))
	assert.Equal(t, []string{"google", "et", "cnbc"}, names(svc.providersFor("")))
}

func TestSearchTopicRelevance(t *testing.T) {
	google := &fakeProvider{name: "google", items: []models.NewsItem{
		item("Markets open higher", "g1", time.Minute),
		item("Gold and silver climb", "g2", time.Hour),
	}}
	site := &fakeProvider{name: "site", region: models.CountryUS, items: []models.NewsItem{
		item("Oil prices jump", "s1", 2*time.Minute),
		item("Hotel chain expands", "s2", 0),
	}}

	svc := newService(nil, google, site)
	items, err := svc.Search(context.Background(), models.NewsFilter{Topic: models.TopicCommodities})
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "Gold and silver climb", items[0].Title)
	assert.Equal(t, float64(2), items[0].Relevance)
	assert.Equal(t, "Oil prices jump", items[1].Title)
	assert.Equal(t, "Markets open higher", items[2].Title)
	assert.Equal(t, models.TopicCommodities, items[2].Topic)
}

func TestSearchUsesCache(t *testing.T) {
	p := &fakeProvider{name: "google", items: []models.NewsItem{item("Rupee firms", "u1", time.Minute)}}
	svc := newService(cache.NewMemoryCache(), p)
	ctx := context.Background()

	first, err := svc.Search(ctx, models.NewsFilter{Country: models.CountryIndia})
	require.NoError(t, err)
	second, err := svc.Search(ctx, models.NewsFilter{Country: models.CountryIndia})
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, first[0].Title, second[0].Title)

	_, err = svc.Search(ctx, models.NewsFilter{Country: models.CountryUS})
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestSearchEmptyResultsNotCached(t *testing.T) {
	p := &fakeProvider{name: "google"}
	svc := newService(cache.NewMemoryCache(), p)

	for i := 0; i < 2; i++ {
		_, err := svc.Search(context.Background(), models.NewsFilter{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, p.calls)
}

func TestSearchIgnoresCacheErrors(t *testing.T) {
	p := &fakeProvider{name: "google", items: []models.NewsItem{item("Rupee firms", "u1", time.Minute)}}
	svc := newService(failingCache{}, p)

	items, err := svc.Search(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSearchCancelledContext(t *testing.T) {
	svc := newService(nil, &fakeProvider{name: "google"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, models.NewsFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDigestTitles(t *testing.T) {
	p := &fakeProvider{name: "google", items: []models.NewsItem{item("Stock market rally continues", "u1", time.Minute)}}
	svc := newService(nil, p)
	ctx := context.Background()

	tests := []struct {
		name   string
		get    func() (*models.NewsDigest, error)
		title  string
		filter models.NewsFilter
	}{
		{
			name:   "country",
			get:    func() (*models.NewsDigest, error) { return svc.GetCountryNews(ctx, "India") },
			title:  "📰 Market News - INDIA",
			filter: models.NewsFilter{Country: models.CountryIndia},
		},
		{
			name:   "market news without query",
			get:    func() (*models.NewsDigest, error) { return svc.GetMarketNews(ctx, "  ") },
			title:  "📰 Market News - GLOBAL",
			filter: models.NewsFilter{Country: models.CountryGlobal},
		},
		{
			name:   "market news with query",
			get:    func() (*models.NewsDigest, error) { return svc.GetMarketNews(ctx, "stock rally") },
			title:  "🔍 Market News - stock rally",
			filter: models.NewsFilter{Query: "stock rally"},
		},
		{
			name:   "topic alias to US",
			get:    func() (*models.NewsDigest, error) { return svc.GetTopicNews(ctx, "Wall Street") },
			title:  USNewsTitle,
			filter: models.NewsFilter{Country: models.CountryUS},
		},
		{
			name:   "topic alias to India",
			get:    func() (*models.NewsDigest, error) { return svc.GetTopicNews(ctx, "nifty") },
			title:  IndiaNewsTitle,
			filter: models.NewsFilter{Country: models.CountryIndia},
		},
		{
			name:   "plain topic",
			get:    func() (*models.NewsDigest, error) { return svc.GetTopicNews(ctx, "ipo") },
			title:  "📈 IPO News",
			filter: models.NewsFilter{Topic: models.TopicIPO},
		},
		{
			name:   "technical",
			get:    func() (*models.NewsDigest, error) { return svc.GetTechnicalAnalysis(ctx) },
			title:  TechnicalTitle,
			filter: models.NewsFilter{Topic: models.TopicTechnical, Limit: 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.get()
			require.NoError(t, err)
			assert.Equal(t, tt.title, d.Title)
			assert.Equal(t, tt.filter, p.filters[len(p.filters)-1])
			require.NotNil(t, d.Analysis)
			assert.NotEmpty(t, d.Analysis.Summary)
		})
	}
}

func TestQueryTerms(t *testing.T) {
	assert.Equal(t, []string{"gold", "price"}, queryTerms("What is the gold price today?"))
	assert.Equal(t, []string{"sensex"}, queryTerms("sensex kitna hai abhi"))
	assert.Empty(t, queryTerms("a ?"))
}

func TestCountryAlias(t *testing.T) {
	c, ok := CountryAlias(" S&P ")
	assert.True(t, ok)
	assert.Equal(t, models.CountryUS, c)

	_, ok = CountryAlias("crypto")
	assert.False(t, ok)
}
