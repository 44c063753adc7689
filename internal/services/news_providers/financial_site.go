package news_providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"golang-market-news-bot/internal/models"
	"golang-market-news-bot/internal/utils"
)

// SiteConfig describes how to scrape headlines from one financial site.
type SiteConfig struct {
	Key             string
	Name            string
	Region          string
	URLs            []string
	ArticleSelector string
	TitleSelector   string
	LinkSelector    string
	TimeSelector    string
	// ExtraFallbacks are tried after the generic fallback selectors.
	ExtraFallbacks []string
}

var genericFallbackSelectors = []string{
	"article", "div.article", "div.story", "div.news-item", "li.story",
	"div.card", ".newsItem", "div.item", ".article-card", ".content-card",
	".news-card", ".news-article", ".market-news", ".financial-news",
	"div.headline", "div.story-card", "ul li.clearfix", "li.list-item",
}

// DefaultSites lists the scraped sites in the order they are queried.
func DefaultSites() []SiteConfig {
	return []SiteConfig{
		{
			Key:    "moneycontrol",
			Name:   "MoneyControl",
			Region: models.CountryIndia,
			URLs: []string{
				"https://www.moneycontrol.com/",
				"https://www.moneycontrol.com/stocksmarketsindia/",
			},
			ArticleSelector: ".article-list li, .clearfix, .top-news li, .hmpage_left li, .mid-contener-1 li",
			TitleSelector:   "h2 a, h2.headline, h3 a, a.arial11_summ, .article a",
			LinkSelector:    "h2 a, h2.headline a, h3 a, a.arial11_summ, .article a",
			TimeSelector:    ".article_schedule span",
			ExtraFallbacks:  []string{"li.clearfix", ".article_box", ".common_newslist", ".mid_section li", ".story_list li"},
		},
		{
			Key:    "financial_express",
			Name:   "Financial Express",
			Region: models.CountryIndia,
			URLs: []string{
				"https://www.financialexpress.com/market/",
				"https://www.financialexpress.com/market/stock-market/",
			},
			ArticleSelector: ".articles-list article, .market-news-wrap li",
			TitleSelector:   "h2.title a, h2.m-news-titile a",
			LinkSelector:    "h2.title a, h2.m-news-titile a",
			TimeSelector:    ".date-time, .time-stamp",
			ExtraFallbacks:  []string{".content-grid .articles", ".main-content .article", "div.posts-list div.post-item", ".ie-stories-list li"},
		},
		{
			Key:    "economic_times",
			Name:   "Economic Times",
			Region: models.CountryIndia,
			URLs: []string{
				"https://economictimes.indiatimes.com/markets/stocks/news",
				"https://economictimes.indiatimes.com/markets/stocks",
			},
			ArticleSelector: ".eachStory, .story-box",
			TitleSelector:   "h3 a, .story-title",
			LinkSelector:    "h3 a, .story-title a",
			TimeSelector:    ".date-format, .story-date",
		},
		{
			Key:    "yahoo_finance",
			Name:   "Yahoo Finance",
			Region: models.CountryUS,
			URLs: []string{
				"https://finance.yahoo.com/news/",
				"https://finance.yahoo.com/topic/stock-market-news/",
			},
			ArticleSelector: `li.js-stream-content, div.Ov\(h\), ul.My\(0\) li`,
			TitleSelector:   "h3, a[data-test='mega-item-header'], h4",
			LinkSelector:    "a[href^='/news'], a[href^='/finance'], a[data-test='mega-item-image']",
			TimeSelector:    `time, span.C\(\#959595\), span.Fz\(12px\)`,
			ExtraFallbacks:  []string{"li.js-stream-content", `div.Ov\(h\)`, "div[data-test='mrt-node-Card']", "div.mega-item", `div.Mt\(30px\)`},
		},
		{
			Key:    "cnbc",
			Name:   "CNBC",
			Region: models.CountryUS,
			URLs: []string{
				"https://www.cnbc.com/world-markets/",
				"https://www.cnbc.com/markets/",
			},
			ArticleSelector: ".Card-standardBreakerCard, .Card-card, .RiverPlusCard-riverPlusCard",
			TitleSelector:   ".Card-title, h3.Card-title, a.Card-title",
			LinkSelector:    "a.Card-title, a.Card-mediaContainer",
			TimeSelector:    ".Card-time, time",
		},
		{
			Key:    "marketwatch",
			Name:   "MarketWatch",
			Region: models.CountryUS,
			URLs: []string{
				"https://www.marketwatch.com/markets",
				"https://www.marketwatch.com/latest-news",
			},
			ArticleSelector: ".article__content, .element--article, .card",
			TitleSelector:   ".article__headline, .card__headline, h3.headline",
			LinkSelector:    "a.link, a.headline__link",
			TimeSelector:    ".article__timestamp, .card__timestamp, .timestamp",
		},
	}
}

type FinancialSiteProvider struct {
	site     SiteConfig
	client   *http.Client
	maxItems int
	logger   *logrus.Logger
}

func NewFinancialSiteProvider(site SiteConfig, client *http.Client, maxItems int, logger *logrus.Logger) *FinancialSiteProvider {
	return &FinancialSiteProvider{
		site:     site,
		client:   client,
		maxItems: maxItems,
		logger:   logger,
	}
}

func (p *FinancialSiteProvider) Name() string   { return p.site.Name }
func (p *FinancialSiteProvider) Region() string { return p.site.Region }

// Fetch scrapes every configured URL. The query in filter is not used since
// the pages are fixed listings. It only fails when no URL could be read.
func (p *FinancialSiteProvider) Fetch(ctx context.Context, filter models.NewsFilter) ([]models.NewsItem, error) {
	var (
		items []models.NewsItem
		errs  []error
	)
	seen := make(map[string]struct{})

	for _, pageURL := range p.site.URLs {
		if p.maxItems > 0 && len(items) >= p.maxItems {
			break
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		body, err := fetchPage(ctx, p.client, pageURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		if err != nil {
			p.logger.WithError(err).Warn("Failed to fetch financial site page", logrus.Fields{"site": p.site.Name, "url": pageURL})
			errs = append(errs, err)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse %s: %w", pageURL, err))
			continue
		}

		for _, item := range p.parse(doc, pageURL) {
			if p.maxItems > 0 && len(items) >= p.maxItems {
				break
			}
			key := item.DedupeKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			items = append(items, item)
		}
	}

	if len(items) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", p.site.Name, errors.Join(errs...))
	}
	return items, nil
}

func (p *FinancialSiteProvider) parse(doc *goquery.Document, pageURL string) []models.NewsItem {
	articles := doc.Find(p.site.ArticleSelector)
	if articles.Length() == 0 {
		articles = p.fallbackArticles(doc)
		p.logger.Debug("Used fallback selectors", logrus.Fields{"site": p.site.Name, "found": articles.Length()})
	}

	var items []models.NewsItem
	articles.Each(func(_ int, s *goquery.Selection) {
		title, link := extractTitleAndLink(s, p.site.TitleSelector, p.site.LinkSelector, pageURL)
		if title == "" || link == "" {
			title, link = extractAnyHeadline(s, pageURL)
		}
		if title == "" || link == "" {
			return
		}

		item := models.NewsItem{
			Title:   title,
			Source:  p.site.Name,
			URL:     link,
			Country: p.site.Region,
		}
		if p.site.TimeSelector != "" {
			item.TimeText = cleanText(s.Find(p.site.TimeSelector).First().Text())
		}
		items = append(items, item)
	})
	return items
}

func (p *FinancialSiteProvider) fallbackArticles(doc *goquery.Document) *goquery.Selection {
	selectors := append(append([]string(nil), genericFallbackSelectors...), p.site.ExtraFallbacks...)
	for _, sel := range selectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}

	// Last resort: parents of headings that carry a link.
	return doc.Find("h1, h2, h3, h4").FilterFunction(func(_ int, h *goquery.Selection) bool {
		return h.Find("a").Length() > 0 || h.Parent().Find("a").Length() > 0
	}).Parent()
}

func extractTitleAndLink(s *goquery.Selection, titleSel, linkSel, base string) (string, string) {
	title := cleanText(s.Find(titleSel).First().Text())
	href, _ := s.Find(linkSel).First().Attr("href")
	return title, utils.ResolveURL(base, href)
}

func extractAnyHeadline(s *goquery.Selection, base string) (string, string) {
	if heading := s.Find("h1, h2, h3, h4, h5").First(); heading.Length() > 0 {
		title := cleanText(heading.Text())
		link := heading.Find("a").First()
		if link.Length() == 0 {
			link = heading.Parent().Find("a").First()
		}
		if href, ok := link.Attr("href"); ok && title != "" {
			return title, utils.ResolveURL(base, href)
		}
	}

	var title, link string
	s.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := cleanText(a.Text())
		href, ok := a.Attr("href")
		if text == "" || !ok || strings.TrimSpace(href) == "" {
			return true
		}
		title, link = text, utils.ResolveURL(base, href)
		return false
	})
	return title, link
}
