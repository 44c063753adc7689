package routes

import (
	"github.com/gin-gonic/gin"

	"golang-market-news-bot/internal/api/handlers"
)

func SetupRoutes(router *gin.Engine, keepAliveHandler *handlers.KeepAliveHandler, telegramHandler *handlers.TelegramHandler) {
	// Keep-alive probes
	router.GET("/", keepAliveHandler.Home)
	router.GET("/health", keepAliveHandler.HealthCheck)

	// Webhook endpoints
	telegram := router.Group("/telegram")
	{
		telegram.POST("/webhook", telegramHandler.Webhook)
		telegram.POST("/set-webhook", telegramHandler.SetWebhook)
		telegram.GET("/webhook-info", telegramHandler.WebhookInfo)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		bot := v1.Group("/telegram")
		{
			bot.GET("/health", telegramHandler.HealthCheck)
			bot.GET("/info", telegramHandler.GetBotInfo)
		}
	}
}
