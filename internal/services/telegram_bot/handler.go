package telegram_bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"golang-market-news-bot/internal/models"
)

func (t *TelegramBotService) registerHandlers() {
	// Command handlers
	t.bot.Handle("/start", t.WithContext(t.handleStart))
	t.bot.Handle("/help", t.WithContext(t.handleHelp))
	t.bot.Handle("/news", t.WithContext(t.handleNews))
	t.bot.Handle("/topicnews", t.WithContext(t.handleTopicNews))
	t.bot.Handle("/technical", t.WithContext(t.handleTechnical))
	t.bot.Handle("/news_india", t.WithContext(t.countryCommand(models.CountryIndia)))
	t.bot.Handle("/news_us", t.WithContext(t.countryCommand(models.CountryUS)))
	t.bot.Handle("/news_global", t.WithContext(t.countryCommand(models.CountryGlobal)))
	t.bot.Handle("/news_commodities", t.WithContext(t.topicCommand(models.TopicCommodities)))
	t.bot.Handle("/news_breaking", t.WithContext(t.topicCommand(models.TopicBreaking)))
	t.bot.Handle("/subscribe", t.WithContext(t.handleSubscribe))
	t.bot.Handle("/unsubscribe", t.WithContext(t.handleUnsubscribe))

	// Callback handlers for inline buttons
	t.bot.Handle(&btnNewsIndia, t.WithContext(t.handleBtnNews))
	t.bot.Handle(&btnNewsUS, t.WithContext(t.handleBtnNews))
	t.bot.Handle(&btnNewsGlobal, t.WithContext(t.handleBtnNews))
	t.bot.Handle(&btnNewsCommodities, t.WithContext(t.handleBtnNews))
	t.bot.Handle(&btnNewsBreaking, t.WithContext(t.handleBtnNews))
	t.bot.Handle(&btnNewsAll, t.WithContext(t.handleBtnNews))

	// Free text goes through the classifier
	t.bot.Handle(telebot.OnText, t.WithContext(t.handleText))
}

func (t *TelegramBotService) handleStart(ctx context.Context, c telebot.Context) error {
	if !t.authorize(ctx, c) {
		return nil
	}

	if chat := c.Chat(); chat != nil && t.subs.Add(chat.ID) {
		t.logger.Info("Chat subscribed to daily updates", logrus.Fields{"chat_id": chat.ID})
	}

	name := models.ToRequestUserTelegram(c.Sender()).DisplayName()
	return t.rateLimiter.Send(ctx, c, fmt.Sprintf(messageStart, name), mainMenu())
}

func (t *TelegramBotService) handleHelp(ctx context.Context, c telebot.Context) error {
	if !t.authorize(ctx, c) {
		return nil
	}
	return t.rateLimiter.Send(ctx, c, messageHelp, telebot.ModeHTML)
}

func (t *TelegramBotService) handleNews(ctx context.Context, c telebot.Context) error {
	if !t.authorize(ctx, c) {
		return nil
	}
	query := strings.TrimSpace(strings.Join(c.Args(), " "))
	return t.replyWithNews(ctx, c, messageNoNewsCommand, t.marketNews(query))
}

func (t *TelegramBotService) handleTopicNews(ctx context.Context, c telebot.Context) error {
	if !t.authorize(ctx, c) {
		return nil
	}
	topic := strings.TrimSpace(strings.Join(c.Args(), " "))
	if topic == "" {
		return t.rateLimiter.Send(ctx, c, messageTopicUsage)
	}
	return t.replyWithNews(ctx, c, messageNoNewsCommand, t.topicNews(topic))
}

func (t *TelegramBotService) handleTechnical(ctx context.Context, c telebot.Context) error {
	if !t.authorize(ctx, c) {
		return nil
	}
	return t.replyWithNews(ctx, c, messageNoNewsCommand, t.news.GetTechnicalAnalysis)
}

type newsFetcher func(ctx context.Context) (*models.NewsDigest, error)

func (t *TelegramBotService) countryNews(country string) newsFetcher {
	return func(ctx context.Context) (*models.NewsDigest, error) {
		return t.news.GetCountryNews(ctx, country)
	}
}

func (t *TelegramBotService) topicNews(topic string) newsFetcher {
	return func(ctx context.Context) (*models.NewsDigest, error) {
		return t.news.GetTopicNews(ctx, topic)
	}
}

func (t *TelegramBotService) marketNews(query string) newsFetcher {
	return func(ctx context.Context) (*models.NewsDigest, error) {
		return t.news.GetMarketNews(ctx, query)
	}
}

func (t *TelegramBotService) countryCommand(country string) func(ctx context.Context, c telebot.Context) error {
	return func(ctx context.Context, c telebot.Context) error {
		if !t.authorize(ctx, c) {
			return nil
		}
		return t.replyWithNews(ctx, c, messageNoNewsCommand, t.countryNews(country))
	}
}

func (t *TelegramBotService) topicCommand(topic string) func(ctx context.Context, c telebot.Context) error {
	return func(ctx context.Context, c telebot.Context) error {
		if !t.authorize(ctx, c) {
			return nil
		}
		return t.replyWithNews(ctx, c, messageNoNewsCommand, t.topicNews(topic))
	}
}

func (t *TelegramBotService) handleSubscribe(ctx context.Context, c telebot.Context) error {
	if !t.authorize(ctx, c) {
		return nil
	}
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	msg := messageAlreadySub
	if t.subs.Add(chat.ID) {
		msg = messageSubscribed
		t.logger.Info("Chat subscribed to daily updates", logrus.Fields{"chat_id": chat.ID})
	}
	return t.rateLimiter.Send(ctx, c, fmt.Sprintf(msg, t.schedule.DailyUpdateTime, t.schedule.Timezone))
}

func (t *TelegramBotService) handleUnsubscribe(ctx context.Context, c telebot.Context) error {
	if !t.authorize(ctx, c) {
		return nil
	}
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	if !t.subs.Remove(chat.ID) {
		return t.rateLimiter.Send(ctx, c, messageNotSub)
	}
	t.logger.Info("Chat unsubscribed from daily updates", logrus.Fields{"chat_id": chat.ID})
	return t.rateLimiter.Send(ctx, c, messageUnsubscribed)
}

// handleBtnNews serves every main menu button; the callback's unique id
// selects the news.
func (t *TelegramBotService) handleBtnNews(ctx context.Context, c telebot.Context) error {
	if err := t.rateLimiter.Respond(ctx, c, &telebot.CallbackResponse{}); err != nil {
		t.logger.WithError(err).Warn("Failed to answer callback")
	}
	if !t.authorize(ctx, c) {
		return nil
	}

	menu := map[string]newsFetcher{
		btnNewsIndia.Unique:       t.countryNews(models.CountryIndia),
		btnNewsUS.Unique:          t.countryNews(models.CountryUS),
		btnNewsGlobal.Unique:      t.countryNews(models.CountryGlobal),
		btnNewsCommodities.Unique: t.topicNews(models.TopicCommodities),
		btnNewsBreaking.Unique:    t.topicNews(models.TopicBreaking),
	}

	fetch := t.marketNews("")
	if cb := c.Callback(); cb != nil {
		if f, ok := menu[cb.Unique]; ok {
			fetch = f
		}
	}
	return t.replyWithNews(ctx, c, messageNoNewsCommand, fetch)
}

// handleText answers market questions and greetings. Anything else is
// ignored without a reply.
func (t *TelegramBotService) handleText(ctx context.Context, c telebot.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	result := t.classifier.Classify(text)
	t.logger.Debug("Classified message", logrus.Fields{
		"user_id":  senderID(c),
		"market":   result.IsMarketQuery,
		"greeting": result.IsGreeting,
		"country":  result.Country,
		"topic":    result.Topic,
		"category": result.Category,
	})

	switch {
	case result.IsMarketQuery:
		if !t.authorize(ctx, c) {
			return nil
		}
		return t.replyWithNews(ctx, c, t.noResultsReply(text), func(ctx context.Context) (*models.NewsDigest, error) {
			return t.newsFor(ctx, result, text)
		})
	case result.IsGreeting:
		return t.rateLimiter.Send(ctx, c, t.greetingReply(c))
	default:
		return nil
	}
}

func (t *TelegramBotService) newsFor(ctx context.Context, result models.ClassificationResult, text string) (*models.NewsDigest, error) {
	switch result.Category {
	case models.CategoryCountry:
		return t.news.GetCountryNews(ctx, result.Country)
	case models.CategoryTechnical:
		return t.news.GetTechnicalAnalysis(ctx)
	case models.CategoryTopic:
		return t.news.GetTopicNews(ctx, result.Topic)
	default:
		return t.news.GetMarketNews(ctx, text)
	}
}

// SendDigest delivers the daily update to a subscribed chat.
func (t *TelegramBotService) SendDigest(ctx context.Context, chatID int64, header string, digest *models.NewsDigest) error {
	return t.rateLimiter.SendTo(ctx, chatID, FormatDailyUpdate(header, digest, t.now()), &telebot.SendOptions{
		ParseMode:             telebot.ModeHTML,
		DisableWebPagePreview: true,
	})
}
