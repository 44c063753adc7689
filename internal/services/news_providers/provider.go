package news_providers

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	sanitize "github.com/mrz1836/go-sanitize"

	"golang-market-news-bot/internal/models"
	"golang-market-news-bot/internal/utils"
)

// Provider fetches a bounded list of headlines from one external source.
type Provider interface {
	Name() string
	// Region is the country tag the source covers, or "" for a global source.
	Region() string
	Fetch(ctx context.Context, filter models.NewsFilter) ([]models.NewsItem, error)
}

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes     = 5 << 20
)

// NewHTTPClient returns the client shared by providers. Timeout applies to
// each call as a whole.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// fetchPage GETs url with browser-like headers and returns the body. Any
// status other than 200 is an error.
func fetchPage(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Connection", "keep-alive")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status: %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// cleanText strips markup and entities and squashes whitespace.
func cleanText(s string) string {
	return utils.CollapseSpaces(html.UnescapeString(sanitize.HTML(s)))
}
