package news_providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"golang-market-news-bot/internal/models"
)

// SearchQueries are the Google News queries used when the caller gives no
// free-text query.
var SearchQueries = map[string]string{
	models.CountryIndia:     "India stock market OR Sensex OR Nifty",
	models.CountryUS:        "US stock market OR Dow Jones OR Nasdaq OR S&P 500 OR Wall Street",
	models.CountryGlobal:    "global stock market OR international finance OR world economy",
	models.TopicCommodities: "gold price OR crude oil price OR commodity markets",
	models.TopicBreaking:    "breaking market news OR stock market latest",
	models.TopicChina:       "China stock market OR Shanghai OR Hang Seng",
	models.TopicEarnings:    "company earnings OR quarterly results OR financial performance",
	models.TopicCrypto:      "cryptocurrency OR bitcoin OR ethereum OR blockchain",
	models.TopicForex:       "forex OR currency exchange OR dollar OR rupee",
	models.TopicIPO:         "IPO OR initial public offering OR new listing",
	models.TopicMergers:     "mergers OR acquisitions OR takeover",
	models.TopicTechnical:   "stock market technical analysis chart pattern support resistance",
}

// QueryFor picks the search text: explicit query, then topic, then country.
func QueryFor(filter models.NewsFilter) string {
	if q := strings.TrimSpace(filter.Query); q != "" {
		return q
	}
	if q, ok := SearchQueries[strings.ToLower(filter.Topic)]; ok {
		return q
	}
	if filter.Topic != "" {
		return filter.Topic + " stock market"
	}
	if q, ok := SearchQueries[strings.ToLower(filter.Country)]; ok {
		return q
	}
	return SearchQueries[models.CountryGlobal]
}

type GoogleNewsProvider struct {
	baseURL  string
	client   *http.Client
	maxItems int
	logger   *logrus.Logger
}

func NewGoogleNewsProvider(baseURL string, client *http.Client, maxItems int, logger *logrus.Logger) *GoogleNewsProvider {
	return &GoogleNewsProvider{
		baseURL:  baseURL,
		client:   client,
		maxItems: maxItems,
		logger:   logger,
	}
}

func (p *GoogleNewsProvider) Name() string   { return "Google News" }
func (p *GoogleNewsProvider) Region() string { return "" }

func (p *GoogleNewsProvider) Fetch(ctx context.Context, filter models.NewsFilter) ([]models.NewsItem, error) {
	query := QueryFor(filter)
	requestURL := p.searchURL(query, filter.Country)

	p.logger.Debug("Fetching Google News", logrus.Fields{"query": query, "url": requestURL})

	body, err := fetchPage(ctx, p.client, requestURL, "application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Google News feed: %w", err)
	}

	seen := make(map[string]struct{})
	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if p.maxItems > 0 && len(items) >= p.maxItems {
			break
		}
		item, ok := p.toNewsItem(entry, filter)
		if !ok {
			continue
		}
		if _, dup := seen[item.Title]; dup {
			continue
		}
		seen[item.Title] = struct{}{}
		items = append(items, item)
	}
	return items, nil
}

func (p *GoogleNewsProvider) searchURL(query, country string) string {
	region, lang := "US", "en-US"
	if country == models.CountryIndia {
		region, lang = "IN", "en-IN"
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", lang)
	params.Set("gl", region)
	params.Set("ceid", region+":en")
	return p.baseURL + "?" + params.Encode()
}

func (p *GoogleNewsProvider) toNewsItem(entry *gofeed.Item, filter models.NewsFilter) (models.NewsItem, bool) {
	if entry == nil {
		return models.NewsItem{}, false
	}
	title, source := splitTitleSource(cleanText(entry.Title))
	if title == "" || entry.Link == "" {
		return models.NewsItem{}, false
	}
	if source == "" {
		source = p.Name()
	}

	item := models.NewsItem{
		Title:   title,
		Source:  source,
		URL:     entry.Link,
		Country: filter.Country,
		Topic:   filter.Topic,
	}
	if entry.PublishedParsed != nil {
		item.PublishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		item.PublishedAt = *entry.UpdatedParsed
	}

	// Google descriptions mostly repeat the headline and source.
	desc := cleanText(entry.Description)
	if desc != "" && !strings.HasPrefix(desc, title) {
		item.Content = desc
	}
	return item, true
}

// splitTitleSource splits "Headline - Publisher" on the last separator.
func splitTitleSource(raw string) (title, source string) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, " - ")
	if idx <= 0 {
		return raw, ""
	}
	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+3:])
}
