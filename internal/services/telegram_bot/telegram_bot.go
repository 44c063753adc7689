package telegram_bot

import (
	"context"
	"crypto/subtle"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"golang-market-news-bot/internal/config"
	"golang-market-news-bot/internal/services/access"
	"golang-market-news-bot/internal/services/classifier"
	"golang-market-news-bot/internal/services/news"
	"golang-market-news-bot/internal/services/subscription"
	"golang-market-news-bot/pkg/ratelimit"
)

type TelegramBotService struct {
	bot         *telebot.Bot
	config      *config.TelegramConfig
	schedule    *config.ScheduleConfig
	logger      *logrus.Logger
	rateLimiter *ratelimit.TelegramRateLimiter
	classifier  *classifier.Classifier
	access      access.AccessService
	news        news.NewsService
	subs        subscription.Store
	httpClient  *http.Client
	ctx         context.Context
	cancel      context.CancelFunc
	polling     atomic.Bool
	pick        func(n int) int
	now         func() time.Time
}

// NewBotSettings builds the telebot settings. Webhook mode keeps the long
// poller configured but it is never started.
func NewBotSettings(cfg *config.TelegramConfig, logger *logrus.Logger) telebot.Settings {
	timeout := cfg.PollTimeout
	if cfg.LongPolling {
		timeout = cfg.LongPollTimeout
	}
	settings := telebot.Settings{
		Token:  cfg.BotToken,
		Poller: &telebot.LongPoller{Timeout: timeout},
		OnError: func(err error, c telebot.Context) {
			logger.WithError(err).Error("Telegram bot error")
		},
	}
	if cfg.APIURL != "" {
		settings.URL = cfg.APIURL
	}
	return settings
}

func NewTelegramBotService(
	ctx context.Context,
	cfg *config.TelegramConfig,
	scheduleCfg *config.ScheduleConfig,
	logger *logrus.Logger,
	bot *telebot.Bot,
	rateLimiter *ratelimit.TelegramRateLimiter,
	textClassifier *classifier.Classifier,
	accessService access.AccessService,
	newsService news.NewsService,
	subs subscription.Store,
) *TelegramBotService {
	ctx, cancel := context.WithCancel(ctx)

	t := &TelegramBotService{
		bot:         bot,
		config:      cfg,
		schedule:    scheduleCfg,
		logger:      logger,
		rateLimiter: rateLimiter,
		classifier:  textClassifier,
		access:      accessService,
		news:        newsService,
		subs:        subs,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		ctx:         ctx,
		cancel:      cancel,
		pick:        rand.IntN,
		now:         time.Now,
	}

	if bot != nil {
		t.RegisterMiddleware()
		t.registerHandlers()
	}
	return t
}

// Start registers the webhook when one is configured. Otherwise it removes
// any stale webhook and blocks in the long poller until Stop.
func (t *TelegramBotService) Start() {
	if t.config.WebhookURL != "" {
		t.logger.WithField("webhook_url", t.config.WebhookURL).Info("Setting up webhook...")
		body, err := SetWebhook(t.ctx, t.httpClient, t.config.APIURL, t.config.BotToken, t.config.WebhookURL, t.config.WebhookSecret)
		if err != nil {
			t.logger.WithError(err).Error("Failed to set webhook")
			return
		}
		t.logger.WithField("response", string(body)).Info("Webhook set successfully")
		return
	}

	if err := t.bot.RemoveWebhook(); err != nil {
		t.logger.WithError(err).Warn("Failed to remove webhook before polling")
	}

	timeout := t.config.PollTimeout
	if t.config.LongPolling {
		timeout = t.config.LongPollTimeout
	}
	t.logger.Info("No webhook URL configured, using long polling", logrus.Fields{
		"timeout":      timeout.String(),
		"long_polling": t.config.LongPolling,
	})

	t.polling.Store(true)
	t.bot.Start()
}

func (t *TelegramBotService) Stop() {
	t.logger.Info("Stopping Telegram bot...")
	t.cancel()

	if !t.polling.Load() {
		t.logger.Info("Telegram bot shutdown completed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopDone := make(chan struct{})
	go func() {
		t.bot.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
		t.logger.Info("Telegram bot stopped successfully")
	case <-ctx.Done():
		t.logger.Warn("Timeout while stopping bot, forcing shutdown")
	}
}

// ProcessUpdate feeds an update received on the webhook route to the bot.
func (t *TelegramBotService) ProcessUpdate(update telebot.Update) {
	t.bot.ProcessUpdate(update)
}

// Webhook returns the registration Telegram currently holds for the bot.
func (t *TelegramBotService) Webhook() (*telebot.Webhook, error) {
	return t.bot.Webhook()
}

// SetWebhook registers url for the configured bot. The caller must present
// the bot's own token, and the webhook is always bound to the configured secret.
func (t *TelegramBotService) SetWebhook(ctx context.Context, token, url string) ([]byte, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(t.config.BotToken)) != 1 {
		return nil, ErrInvalidToken
	}
	if t.config.WebhookSecret == "" {
		return nil, ErrWebhookSecretNotSet
	}
	return SetWebhook(ctx, t.httpClient, t.config.APIURL, token, url, t.config.WebhookSecret)
}

// VerifyWebhookSecret reports whether secret matches the configured webhook
// secret. Without a configured secret every update is refused.
func (t *TelegramBotService) VerifyWebhookSecret(secret string) bool {
	if t.config.WebhookSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(t.config.WebhookSecret)) == 1
}
