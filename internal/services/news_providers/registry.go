package news_providers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"golang-market-news-bot/internal/config"
)

// NewDefaultProviders wires Google News followed by the scraped sites.
func NewDefaultProviders(cfg *config.NewsConfig, client *http.Client, logger *logrus.Logger) []Provider {
	providers := []Provider{
		NewGoogleNewsProvider(cfg.GoogleNewsBaseURL, client, cfg.ProviderMaxItems, logger),
	}
	for _, site := range DefaultSites() {
		providers = append(providers, NewFinancialSiteProvider(site, client, cfg.ProviderMaxItems, logger))
	}
	return providers
}
