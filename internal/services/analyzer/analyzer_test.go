package analyzer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-market-news-bot/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateInsight(_ context.Context, _ []models.NewsItem, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func titles(ts ...string) []models.NewsItem {
	items := make([]models.NewsItem, 0, len(ts))
	for _, t := range ts {
		items = append(items, models.NewsItem{Title: t})
	}
	return items
}

func TestMarketInsightExtractive(t *testing.T) {
	a := NewAnalyzerService(nil, testLogger())
	ctx := context.Background()

	tests := []struct {
		name    string
		items   []models.NewsItem
		country string
		want    string
	}{
		{
			name:    "rise with reason",
			items:   titles("Sensex gains 1.5% as banks rally"),
			country: models.CountryIndia,
			want:    "Sensex gained 1.5% as banks rally. Market focus: Rally, Sensex.",
		},
		{
			name:    "fall with reason",
			items:   titles("Nasdaq falls 2.3% after weak tech earnings"),
			country: models.CountryUS,
			want:    "NASDAQ fell 2.3% after weak tech earnings. Market focus: NASDAQ.",
		},
		{
			name:    "signed change without reason",
			items:   titles("Dow -0.8% in early session"),
			country: models.CountryUS,
			want:    "Dow Jones is down 0.8%. Market focus: Dow Jones.",
		},
		{
			name:  "recurring themes",
			items: titles("Gold prices surge", "Gold demand rises", "Oil prices steady"),
			want:  "Key themes: gold, prices.",
		},
		{
			name:  "nothing to say",
			items: titles("Hello world"),
			want:  NoInsightsText,
		},
		{
			name: "no items",
			want: NoDataText,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.MarketInsight(ctx, tt.items, tt.country))
		})
	}
}

func TestMarketInsightRespectsCountryIndices(t *testing.T) {
	a := NewAnalyzerService(nil, testLogger())
	got := a.MarketInsight(context.Background(), titles("Nasdaq up 1% while Nifty adds 0.4%"), models.CountryIndia)
	assert.NotContains(t, got, "NASDAQ gained")
	assert.NotContains(t, got, "NASDAQ is up")
	assert.Contains(t, got, "Nifty")
}

func TestMarketInsightCapsMovements(t *testing.T) {
	a := NewAnalyzerService(nil, testLogger())
	items := titles(
		"Dow up 1%",
		"Nasdaq up 2%",
		"NYSE composite up 3%",
		"Russell 2000 up 4%",
	)
	got := a.MarketInsight(context.Background(), items, "")
	assert.Equal(t, 3, strings.Count(got, " is up "))
}

func TestMarketInsightGenerator(t *testing.T) {
	items := titles("Sensex gains 1.5% as banks rally")

	gen := &fakeGenerator{text: "  Banks led the rally.  "}
	a := NewAnalyzerService(gen, testLogger())
	assert.Equal(t, "Banks led the rally.", a.MarketInsight(context.Background(), items, models.CountryIndia))
	assert.Equal(t, 1, gen.calls)

	failing := &fakeGenerator{err: errors.New("quota exceeded")}
	a = NewAnalyzerService(failing, testLogger())
	assert.Contains(t, a.MarketInsight(context.Background(), items, models.CountryIndia), "Sensex gained 1.5%")

	blank := &fakeGenerator{text: "   "}
	a = NewAnalyzerService(blank, testLogger())
	assert.Contains(t, a.MarketInsight(context.Background(), items, models.CountryIndia), "Sensex gained 1.5%")
}

func TestSummarizeItem(t *testing.T) {
	a := NewAnalyzerService(nil, testLogger())
	long := strings.Repeat("word ", 15)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no body", content: "", want: ""},
		{name: "three short sentences", content: "One. Two!  Three? Four.", want: "One. Two! Three?"},
		{name: "single sentence", content: "Markets closed flat", want: "Markets closed flat"},
		{
			name:    "long sentences keep two",
			content: long + "first. " + long + "second. " + long + "third.",
			want:    strings.TrimSpace(long) + " first. " + strings.TrimSpace(long) + " second.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.SummarizeItem(models.NewsItem{Title: "t", Content: tt.content}))
		})
	}
}

func TestSummarizeItemTruncates(t *testing.T) {
	a := NewAnalyzerService(nil, testLogger())
	got := a.SummarizeItem(models.NewsItem{Content: strings.Repeat("a", 400)})
	assert.Len(t, got, 280)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestKeyPoints(t *testing.T) {
	a := NewAnalyzerService(nil, testLogger())
	got := a.KeyPoints(titles("Rally continues...", "rally continues", "", "Rupee firms", "Gold flat", "Oil up"))
	assert.Equal(t, []string{"Rally continues", "Rupee firms", "Gold flat"}, got)
}

func TestTrendingTopics(t *testing.T) {
	a := NewAnalyzerService(nil, testLogger())
	got := a.TrendingTopics(titles("Stock market rally", "Market dips as Fed holds"))
	assert.Equal(t, []string{"Market", "Stock", "Rally", "Federal Reserve"}, got)
}

func TestAnalyze(t *testing.T) {
	a := NewAnalyzerService(nil, testLogger())
	ctx := context.Background()

	empty := a.Analyze(ctx, nil, "", "")
	assert.Equal(t, NoArticlesText, empty.Summary)
	assert.Equal(t, NoDataText, empty.Insights)
	assert.Empty(t, empty.KeyPoints)

	items := titles("Stock market rally", "Market dips as Fed holds")
	withQuery := a.Analyze(ctx, items, " fed ", models.CountryUS)
	assert.Equal(t, "Here's what I found about 'fed':", withQuery.Summary)
	assert.Len(t, withQuery.KeyPoints, 2)
	assert.NotEmpty(t, withQuery.Insights)

	noQuery := a.Analyze(ctx, items, "", "")
	assert.Equal(t, "Current market focus is on Market, Stock, Rally.", noQuery.Summary)

	plain := a.Analyze(ctx, titles("Hello world"), "", "")
	require.NotNil(t, plain)
	assert.Equal(t, LatestText, plain.Summary)
}
