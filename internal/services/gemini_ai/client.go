package gemini_ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"golang-market-news-bot/internal/config"
	"golang-market-news-bot/internal/models"
)

const maxPromptHeadlines = 15

var ErrEmptyResponse = errors.New("empty response from Gemini AI")

// contentGenerator is satisfied by genai.Client.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	config    *config.GeminiConfig
	logger    *logrus.Logger
	generator contentGenerator
}

func NewClient(cfg *config.GeminiConfig, logger *logrus.Logger, genClient *genai.Client) *Client {
	return &Client{
		config:    cfg,
		logger:    logger,
		generator: genClient.Models,
	}
}

// GenerateInsight asks the model for a short plain-text market commentary
// based only on the given headlines.
func (c *Client) GenerateInsight(ctx context.Context, items []models.NewsItem, country string) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyResponse
	}

	prompt := buildInsightPrompt(items, country)
	resp, err := c.generator.GenerateContent(ctx, c.config.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(c.config.RequestTemperature)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get insight from Gemini AI: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("Gemini insight generated", logrus.Fields{
		"country":   country,
		"headlines": len(items),
		"length":    len(text),
	})
	return stripMarkdown(text), nil
}

func buildInsightPrompt(items []models.NewsItem, country string) string {
	market := "global"
	switch country {
	case models.CountryIndia:
		market = "Indian"
	case models.CountryUS:
		market = "US"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a market analyst. Using only the %s market headlines below, ", market)
	sb.WriteString("write 2 to 4 short sentences on what is moving the market and why. ")
	sb.WriteString("Mention index moves with percentages only when they appear in the headlines. ")
	sb.WriteString("Reply in plain text without markdown, lists or investment advice.\n\nHeadlines:\n")

	for i, item := range items {
		if i == maxPromptHeadlines {
			break
		}
		fmt.Fprintf(&sb, "- %s", item.Title)
		if item.Source != "" {
			fmt.Fprintf(&sb, " (%s)", item.Source)
		}
		sb.WriteString("\n")
		if item.Summary != "" {
			fmt.Fprintf(&sb, "  %s\n", item.Summary)
		}
	}
	return sb.String()
}

func stripMarkdown(text string) string {
	replacer := strings.NewReplacer("**", "", "__", "", "`", "", "### ", "", "## ", "", "# ", "")
	return replacer.Replace(text)
}
