package models

import (
	"strings"
	"time"
)

// Country tags understood by providers and the classifier.
const (
	CountryIndia  = "india"
	CountryUS     = "us"
	CountryGlobal = "global"
)

// Topic tags.
const (
	TopicCommodities = "commodities"
	TopicCrypto      = "crypto"
	TopicForex       = "forex"
	TopicMergers     = "mergers"
	TopicIPO         = "ipo"
	TopicEarnings    = "earnings"
	TopicBreaking    = "breaking"
	TopicTechnical   = "technical"
	TopicChina       = "china"
)

// Query categories produced by the classifier.
const (
	CategoryNone      = "none"
	CategoryGeneral   = "general"
	CategoryCountry   = "country"
	CategoryTopic     = "topic"
	CategoryTechnical = "technical"
)

// NewsItem is a single headline gathered from a provider.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary,omitempty"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	TimeText    string    `json:"time_text,omitempty"`
	Country     string    `json:"country,omitempty"`
	Topic       string    `json:"topic,omitempty"`
	Relevance   float64   `json:"relevance,omitempty"`
}

// DedupeKey identifies a headline regardless of casing or surrounding spaces.
func (n NewsItem) DedupeKey() string {
	return strings.ToLower(strings.TrimSpace(n.Title))
}

// NewsFilter narrows what providers and the news service return.
type NewsFilter struct {
	Country string `json:"country,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Query   string `json:"query,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// CacheKey is stable for equal filters.
func (f NewsFilter) CacheKey() string {
	return "news:" + strings.Join([]string{
		strings.ToLower(f.Country),
		strings.ToLower(f.Topic),
		strings.ToLower(strings.TrimSpace(f.Query)),
	}, "|")
}

// ClassificationResult is derived from a single chat message.
type ClassificationResult struct {
	IsMarketQuery bool   `json:"is_market_query"`
	IsGreeting    bool   `json:"is_greeting"`
	IsQuestion    bool   `json:"is_question"`
	Country       string `json:"country,omitempty"`
	Topic         string `json:"topic,omitempty"`
	Category      string `json:"category"`
}

// NewsAnalysis is the extractive (or generated) commentary attached to a digest.
type NewsAnalysis struct {
	Summary        string   `json:"summary"`
	Insights       string   `json:"insights"`
	KeyPoints      []string `json:"key_points"`
	TrendingTopics []string `json:"trending_topics"`
}

// NewsDigest is what the bot renders for a news request.
type NewsDigest struct {
	Title       string        `json:"title"`
	Items       []NewsItem    `json:"items"`
	Analysis    *NewsAnalysis `json:"analysis,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

func (d *NewsDigest) Empty() bool {
	return d == nil || len(d.Items) == 0
}
