package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"google.golang.org/genai"
	"gopkg.in/telebot.v3"

	"golang-market-news-bot/internal/api/handlers"
	"golang-market-news-bot/internal/api/routes"
	"golang-market-news-bot/internal/config"
	"golang-market-news-bot/internal/services/access"
	"golang-market-news-bot/internal/services/analyzer"
	"golang-market-news-bot/internal/services/classifier"
	"golang-market-news-bot/internal/services/gemini_ai"
	"golang-market-news-bot/internal/services/news"
	"golang-market-news-bot/internal/services/news_providers"
	"golang-market-news-bot/internal/services/scheduler"
	"golang-market-news-bot/internal/services/subscription"
	"golang-market-news-bot/internal/services/telegram_bot"
	"golang-market-news-bot/pkg/cache"
	"golang-market-news-bot/pkg/ratelimit"
	"golang-market-news-bot/pkg/redis"
)

func main() {
	ctxCancel, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logger.WithError(err).Fatal("Failed to parse flags")
	}

	// Load configuration
	cfg, err := config.LoadConfig(flags)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	logrusLevel, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.WithError(err).Fatal("Failed to parse log level")
	}

	logger.SetLevel(logrusLevel)

	// Set Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Setup CORS
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Classifier and access control
	lexicon, err := classifier.LoadLexicon(cfg.News.LexiconFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load lexicon")
	}
	textClassifier := classifier.New(lexicon)
	accessService := access.NewAccessService(&cfg.Access, logger)

	// News cache: Redis when configured, process memory otherwise
	var newsCache cache.Cache = cache.NewMemoryCache()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.NewClient(ctxCancel, cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Redis client")
		}
		defer redisClient.Close()
		newsCache = cache.NewRedisCache(redisClient, "market-news-bot:")
	}

	// Optional generated insights
	var insightGenerator analyzer.InsightGenerator
	if cfg.Gemini.APIKey != "" {
		genClient, err := genai.NewClient(ctxCancel, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Gemini client")
		}
		insightGenerator = gemini_ai.NewClient(&cfg.Gemini, logger, genClient)
	}

	// Initialize services
	httpClient := news_providers.NewHTTPClient(cfg.News.HTTPTimeout)
	providers := news_providers.NewDefaultProviders(&cfg.News, httpClient, logger)
	analyzerService := analyzer.NewAnalyzerService(insightGenerator, logger)
	newsService := news.NewNewsService(&cfg.News, providers, lexicon, analyzerService, newsCache, logger)

	bot, err := telebot.NewBot(telegram_bot.NewBotSettings(&cfg.Telegram, logger))
	if err != nil {
		logger.WithError(err).Fatal("failed to create telegram bot")
	}
	telegramRateLimiter := ratelimit.NewTelegramRateLimiter(&cfg.Telegram, logger, bot)
	telegramRateLimiter.StartCleanupExpired(ctxCancel)

	subscriptions := subscription.NewMemoryStore()
	telegramService := telegram_bot.NewTelegramBotService(
		ctxCancel,
		&cfg.Telegram,
		&cfg.Schedule,
		logger,
		bot,
		telegramRateLimiter,
		textClassifier,
		accessService,
		newsService,
		subscriptions,
	)

	dailyScheduler, err := scheduler.NewDailyScheduler(&cfg.Schedule, newsService, subscriptions, telegramService, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create daily scheduler")
	}
	dailyScheduler.Start(ctxCancel)

	// Initialize handlers
	keepAliveHandler := handlers.NewKeepAliveHandler()
	telegramHandler := handlers.NewTelegramHandler(telegramService, logger)

	// Setup routes
	routes.SetupRoutes(router, keepAliveHandler, telegramHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start Telegram bot in a goroutine
	go func() {
		logger.Info("Starting Telegram bot...")
		telegramService.Start()
	}()

	// Start server in a goroutine when a platform, webhook or flag needs it
	serveHTTP := cfg.ServeHTTP()
	if serveHTTP {
		go func() {
			logger.WithField("port", cfg.Server.Port).Info("Starting server")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("Failed to start server")
			}
		}()
	} else {
		logger.Info("HTTP server disabled, use --keep-alive to enable it")
	}

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Stop background work
	cancel()

	telegramRateLimiter.StopCleanupExpired()
	// Stop Telegram bot with timeout
	logger.Info("Stopping Telegram bot...")
	telegramDone := make(chan struct{})
	go func() {
		telegramService.Stop()
		close(telegramDone)
	}()

	select {
	case <-telegramDone:
		logger.Info("Telegram bot stopped successfully")
	case <-time.After(15 * time.Second):
		logger.Warn("Timeout waiting for Telegram bot to stop, proceeding with server shutdown")
	}

	if serveHTTP {
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server forced to shutdown")
		} else {
			logger.Info("HTTP server shutdown completed successfully")
		}
	}

	logger.Info("Server exited")
}
