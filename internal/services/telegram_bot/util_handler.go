package telegram_bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"golang-market-news-bot/internal/models"
	"golang-market-news-bot/internal/services/access"
)

func (t *TelegramBotService) WithContext(handler func(ctx context.Context, c telebot.Context) error) func(c telebot.Context) error {
	return func(c telebot.Context) error {
		timeout := t.config.HandlerTimeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		ctx, cancel := context.WithTimeout(t.ctx, timeout)
		defer cancel()

		return handler(ctx, c)
	}
}

// authorize runs the access check. The warning goes out only on the first
// refusal of a sender; later refusals are dropped without a reply.
func (t *TelegramBotService) authorize(ctx context.Context, c telebot.Context) bool {
	sender := c.Sender()
	if sender == nil {
		return false
	}

	decision := t.access.Check(sender.ID)
	switch decision {
	case access.Allowed:
		return true
	case access.DeniedWithWarning:
		if err := t.rateLimiter.Send(ctx, c, access.WarningMessage); err != nil {
			t.logger.WithError(err).Warn("Failed to send access warning", logrus.Fields{"user_id": sender.ID})
		}
	}

	t.logger.Info("Access denied", logrus.Fields{
		"user_id":  sender.ID,
		"decision": decision.String(),
		"message":  c.Text(),
	})
	return false
}

// replyWithNews fetches a digest with a typing indicator and replies with it,
// a "no news" message or a generic error.
func (t *TelegramBotService) replyWithNews(ctx context.Context, c telebot.Context, emptyReply string, fetch newsFetcher) error {
	if err := c.Notify(telebot.Typing); err != nil {
		t.logger.WithError(err).Debug("Failed to send typing action")
	}

	digest, err := fetch(ctx)
	if err != nil {
		t.logger.WithError(err).Error("Failed to fetch news", logrus.Fields{
			"user_id": senderID(c),
			"message": c.Text(),
		})
		return t.rateLimiter.Send(ctx, c, messageProcessingError)
	}

	if digest.Empty() {
		return t.rateLimiter.Send(ctx, c, emptyReply)
	}

	return t.rateLimiter.Send(ctx, c, FormatDigest(digest, t.now()), &telebot.SendOptions{
		ParseMode:             telebot.ModeHTML,
		DisableWebPagePreview: true,
	})
}

// noResultsReply picks one of the "nothing found" replies for free text.
func (t *TelegramBotService) noResultsReply(query string) string {
	reply := noResultsReplies[t.pick(len(noResultsReplies))]
	if !strings.Contains(reply, "%s") {
		return reply
	}
	if query == "" {
		query = "is topic"
	}
	return fmt.Sprintf(reply, query)
}

func (t *TelegramBotService) greetingReply(c telebot.Context) string {
	name := models.ToRequestUserTelegram(c.Sender()).DisplayName()
	return fmt.Sprintf(greetingReplies[t.pick(len(greetingReplies))], name)
}
