package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"golang-market-news-bot/internal/services/telegram_bot"
)

// BotService is the part of the Telegram bot exposed over HTTP.
type BotService interface {
	SetWebhook(ctx context.Context, token, url string) ([]byte, error)
	Webhook() (*telebot.Webhook, error)
	ProcessUpdate(update telebot.Update)
	VerifyWebhookSecret(secret string) bool
}

type TelegramHandler struct {
	telegramService BotService
	logger          *logrus.Logger
}

func NewTelegramHandler(telegramService BotService, logger *logrus.Logger) *TelegramHandler {
	return &TelegramHandler{
		telegramService: telegramService,
		logger:          logger,
	}
}

// HealthCheck checks if the Telegram bot is running
func (h *TelegramHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "telegram-bot",
		"message": "Telegram bot is running",
	})
}

// Webhook receives updates pushed by Telegram. Updates without the
// registered secret token are refused.
func (h *TelegramHandler) Webhook(c *gin.Context) {
	if !h.telegramService.VerifyWebhookSecret(c.GetHeader(telegram_bot.SecretTokenHeader)) {
		h.logger.WithField("remote_addr", c.ClientIP()).Warn("Rejected webhook update with invalid secret token")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid secret token",
		})
		return
	}

	var update telebot.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.WithError(err).Warn("Invalid telegram update")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid update",
			"message": err.Error(),
		})
		return
	}

	h.telegramService.ProcessUpdate(update)
	c.Status(http.StatusOK)
}

// SetWebhook registers the webhook URL with Telegram.
func (h *TelegramHandler) SetWebhook(c *gin.Context) {
	var request struct {
		Token string `json:"token" binding:"required"`
		URL   string `json:"url" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Error("Invalid webhook request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	body, err := h.telegramService.SetWebhook(c.Request.Context(), request.Token, request.URL)
	if errors.Is(err, telegram_bot.ErrInvalidToken) || errors.Is(err, telegram_bot.ErrMissingToken) {
		h.logger.WithField("remote_addr", c.ClientIP()).Warn("Rejected webhook registration with invalid token")
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Invalid bot token",
		})
		return
	}
	if errors.Is(err, telegram_bot.ErrWebhookSecretNotSet) {
		h.logger.WithError(err).Error("Webhook registration refused")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Webhook registration unavailable",
			"message": err.Error(),
		})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("webhook_url", request.URL).Error("Failed to set webhook")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to set webhook",
			"message": err.Error(),
		})
		return
	}

	h.logger.WithField("webhook_url", request.URL).Info("Webhook URL set")

	var telegramResponse interface{}
	if err := json.Unmarshal(body, &telegramResponse); err != nil {
		telegramResponse = string(body)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Webhook URL set successfully",
		"url":      request.URL,
		"response": telegramResponse,
	})
}

// WebhookInfo returns the webhook Telegram currently holds.
func (h *TelegramHandler) WebhookInfo(c *gin.Context) {
	webhook, err := h.telegramService.Webhook()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get webhook info")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to get webhook info",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":               "success",
		"url":                  webhook.Listen,
		"pending_update_count": webhook.PendingUpdates,
		"last_error_message":   webhook.ErrorMessage,
		"max_connections":      webhook.MaxConnections,
	})
}

// GetBotInfo returns information about the Telegram bot
func (h *TelegramHandler) GetBotInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"service": "telegram-bot",
		"features": []string{
			"Market news for India, US and global markets",
			"Hinglish and English market questions",
			"Topic news for commodities, crypto, forex, IPOs and earnings",
			"Extractive market insights and trending topics",
			"Daily market update for subscribed chats",
		},
		"commands": []gin.H{
			{"command": "/start", "description": "Start the bot and show the main menu"},
			{"command": "/help", "description": "Show help and available commands"},
			{"command": "/news [query]", "description": "Latest market news, optionally about a query"},
			{"command": "/news_india", "description": "Indian market news"},
			{"command": "/news_us", "description": "US market news"},
			{"command": "/news_global", "description": "Global market news"},
			{"command": "/news_commodities", "description": "Commodities news"},
			{"command": "/news_breaking", "description": "Breaking market news"},
			{"command": "/technical", "description": "Technical analysis headlines"},
			{"command": "/topicnews <topic>", "description": "News about a specific topic"},
			{"command": "/subscribe", "description": "Receive the daily market update"},
			{"command": "/unsubscribe", "description": "Stop the daily market update"},
		},
	})
}
