package telegram_bot

import (
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func (t *TelegramBotService) RegisterMiddleware() {
	t.bot.Use(t.LoggingMiddleware)
	t.bot.Use(t.RecoverMiddleware())
}

func (t *TelegramBotService) LoggingMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)
		t.logger.Debug("Processed message from user", logrus.Fields{
			"user_id":  senderID(c),
			"chat_id":  chatID(c),
			"error":    err,
			"duration": time.Since(start).String(),
			"message":  c.Text(),
		})
		return err
	}
}

func (t *TelegramBotService) RecoverMiddleware() telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error("Recovered from panic: ", logrus.Fields{
						"user_id": senderID(c),
						"error":   r,
						"message": c.Text(),
					})
					_ = c.Send(messageProcessingError)
				}
			}()
			return next(c)
		}
	}
}

func senderID(c telebot.Context) int64 {
	if s := c.Sender(); s != nil {
		return s.ID
	}
	return 0
}

func chatID(c telebot.Context) int64 {
	if ch := c.Chat(); ch != nil {
		return ch.ID
	}
	return 0
}
