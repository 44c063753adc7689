package telegram_bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultAPIURL = "https://api.telegram.org"

// SecretTokenHeader carries the webhook secret on every update Telegram pushes.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

var (
	ErrEmptyWebhookURL     = errors.New("webhook url is required")
	ErrMissingToken        = errors.New("bot token is required")
	ErrInvalidToken        = errors.New("bot token does not match the configured bot")
	ErrWebhookSecretNotSet = errors.New("webhook secret is not configured")
)

// SetWebhook calls setWebhook directly with a form post and returns the raw
// Telegram response body. A non-empty secret is registered as secret_token.
func SetWebhook(ctx context.Context, client *http.Client, apiURL, token, webhookURL, secret string) ([]byte, error) {
	if strings.TrimSpace(webhookURL) == "" {
		return nil, ErrEmptyWebhookURL
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	data := url.Values{}
	data.Set("url", webhookURL)
	if secret != "" {
		data.Set("secret_token", secret)
	}

	endpoint := fmt.Sprintf("%s/bot%s/setWebhook", strings.TrimRight(apiURL, "/"), token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Telegram API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return body, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
