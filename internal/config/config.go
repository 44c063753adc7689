package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"golang-market-news-bot/pkg/redis"
)

var (
	ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingAdminID  = errors.New("ADMIN_USER_ID is required")

	ErrMissingWebhookSecret = errors.New("TELEGRAM_WEBHOOK_SECRET is required in webhook mode")
	ErrInvalidWebhookSecret = errors.New("TELEGRAM_WEBHOOK_SECRET must be 1-256 characters of A-Z, a-z, 0-9, _ or -")
)

var webhookSecretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Access   AccessConfig   `mapstructure:"access"`
	News     NewsConfig     `mapstructure:"news"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Redis    redis.Config   `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Port string
	Env  string
	// KeepAlive starts the HTTP liveness server even in polling mode.
	KeepAlive bool
	// Hosted is true when the platform exposes PORT or RENDER.
	Hosted bool
}

type TelegramConfig struct {
	BotToken                  string
	WebhookURL                string
	WebhookSecret             string
	APIURL                    string
	PollTimeout               time.Duration
	LongPollTimeout           time.Duration
	LongPolling               bool
	HandlerTimeout            time.Duration
	MaxGlobalRequestPerSecond int
	MaxUserRequestPerSecond   int
	MaxChatRequestPerSecond   int
	RateLimitCleanupDuration  time.Duration
	RatelimitExpireDuration   time.Duration
}

type AccessConfig struct {
	AdminUserID        int64
	WhitelistedUserIDs []int64
	AllowAllUsers      bool
}

type NewsConfig struct {
	Limit              int
	TechnicalLimit     int
	ProviderMaxItems   int
	CacheTTL           time.Duration
	MaxConcurrentFetch int
	HTTPTimeout        time.Duration
	GoogleNewsBaseURL  string
	LexiconFile        string
}

type ScheduleConfig struct {
	Timezone        string
	DailyUpdateTime string
}

type GeminiConfig struct {
	APIKey             string
	Model              string
	RequestTemperature float64
}

// Flags registers the command line switches understood by the server.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("market-news-bot", pflag.ContinueOnError)
	fs.Bool("keep-alive", false, "start the HTTP keep-alive server")
	fs.Bool("long-polling", false, "use long polling tuned for low-resource hosts")
	fs.Bool("debug", false, "enable debug logging")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("TELEGRAM_API_URL", "https://api.telegram.org")
	v.SetDefault("TELEGRAM_POLL_TIMEOUT", "10s")
	v.SetDefault("TELEGRAM_LONG_POLL_TIMEOUT", "60s")
	v.SetDefault("TELEGRAM_HANDLER_TIMEOUT", "2m")
	v.SetDefault("TELEGRAM_MAX_GLOBAL_REQUEST_PER_SECOND", 30)
	v.SetDefault("TELEGRAM_MAX_USER_REQUEST_PER_SECOND", 1)
	v.SetDefault("TELEGRAM_MAX_CHAT_REQUEST_PER_SECOND", 1)
	v.SetDefault("TELEGRAM_RATE_LIMIT_CLEANUP_DURATION", "10m")
	v.SetDefault("TELEGRAM_RATE_LIMIT_EXPIRE_DURATION", "30m")

	v.SetDefault("TIMEZONE", "Asia/Kolkata")
	v.SetDefault("DAILY_UPDATE_TIME", "09:00")

	v.SetDefault("NEWS_LIMIT", 10)
	v.SetDefault("NEWS_TECHNICAL_LIMIT", 7)
	v.SetDefault("NEWS_PROVIDER_MAX_ITEMS", 10)
	v.SetDefault("NEWS_CACHE_TTL", "5m")
	v.SetDefault("NEWS_MAX_CONCURRENT_FETCH", 4)
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("HTTP_LOW_RESOURCE_TIMEOUT", "8s")
	v.SetDefault("GOOGLE_NEWS_BASE_URL", "https://news.google.com/rss/search")

	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_REQUEST_TEMPERATURE", 0.3)
}

// LoadConfig reads .env (when present) and the environment. Flags, when not
// nil, override the matching environment keys.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("Failed to read config file .env config try read from environment variables")
	}

	if flags != nil {
		for key, flag := range map[string]string{
			"KEEP_ALIVE":   "keep-alive",
			"LONG_POLLING": "long-polling",
		} {
			if f := flags.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
				}
			}
		}
		if debug, err := flags.GetBool("debug"); err == nil && debug {
			v.Set("LOG_LEVEL", "debug")
		}
	}

	whitelist, err := parseUserIDs(v.GetString("WHITELISTED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid WHITELISTED_USER_IDS: %w", err)
	}

	adminID, err := parseAdminID(v.GetString("ADMIN_USER_ID"))
	if err != nil {
		return nil, err
	}

	_, portFromEnv := os.LookupEnv("PORT")

	longPolling := v.GetBool("LONG_POLLING")
	httpTimeout := v.GetDuration("HTTP_TIMEOUT")
	if longPolling {
		httpTimeout = v.GetDuration("HTTP_LOW_RESOURCE_TIMEOUT")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetString("PORT"),
			Env:       v.GetString("ENV"),
			KeepAlive: v.GetBool("KEEP_ALIVE"),
			Hosted:    portFromEnv || v.InConfig("port") || v.GetString("RENDER") != "",
		},
		Telegram: TelegramConfig{
			BotToken:                  v.GetString("TELEGRAM_BOT_TOKEN"),
			WebhookURL:                v.GetString("TELEGRAM_WEBHOOK_URL"),
			WebhookSecret:             v.GetString("TELEGRAM_WEBHOOK_SECRET"),
			APIURL:                    strings.TrimRight(v.GetString("TELEGRAM_API_URL"), "/"),
			PollTimeout:               v.GetDuration("TELEGRAM_POLL_TIMEOUT"),
			LongPollTimeout:           v.GetDuration("TELEGRAM_LONG_POLL_TIMEOUT"),
			LongPolling:               longPolling,
			HandlerTimeout:            v.GetDuration("TELEGRAM_HANDLER_TIMEOUT"),
			MaxGlobalRequestPerSecond: v.GetInt("TELEGRAM_MAX_GLOBAL_REQUEST_PER_SECOND"),
			MaxUserRequestPerSecond:   v.GetInt("TELEGRAM_MAX_USER_REQUEST_PER_SECOND"),
			MaxChatRequestPerSecond:   v.GetInt("TELEGRAM_MAX_CHAT_REQUEST_PER_SECOND"),
			RateLimitCleanupDuration:  v.GetDuration("TELEGRAM_RATE_LIMIT_CLEANUP_DURATION"),
			RatelimitExpireDuration:   v.GetDuration("TELEGRAM_RATE_LIMIT_EXPIRE_DURATION"),
		},
		Access: AccessConfig{
			AdminUserID:        adminID,
			WhitelistedUserIDs: whitelist,
			AllowAllUsers:      v.GetBool("ALLOW_ALL_USERS"),
		},
		News: NewsConfig{
			Limit:              v.GetInt("NEWS_LIMIT"),
			TechnicalLimit:     v.GetInt("NEWS_TECHNICAL_LIMIT"),
			ProviderMaxItems:   v.GetInt("NEWS_PROVIDER_MAX_ITEMS"),
			CacheTTL:           v.GetDuration("NEWS_CACHE_TTL"),
			MaxConcurrentFetch: v.GetInt("NEWS_MAX_CONCURRENT_FETCH"),
			HTTPTimeout:        httpTimeout,
			GoogleNewsBaseURL:  v.GetString("GOOGLE_NEWS_BASE_URL"),
			LexiconFile:        v.GetString("LEXICON_FILE"),
		},
		Schedule: ScheduleConfig{
			Timezone:        v.GetString("TIMEZONE"),
			DailyUpdateTime: v.GetString("DAILY_UPDATE_TIME"),
		},
		Gemini: GeminiConfig{
			APIKey:             v.GetString("GEMINI_API_KEY"),
			Model:              v.GetString("GEMINI_MODEL"),
			RequestTemperature: v.GetFloat64("GEMINI_REQUEST_TEMPERATURE"),
		},
		Redis: redis.Config{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}

// Validate reports configuration that makes the bot unable to start.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return ErrMissingBotToken
	}
	if c.Access.AdminUserID == 0 {
		return ErrMissingAdminID
	}
	if c.Telegram.WebhookSecret != "" && !webhookSecretPattern.MatchString(c.Telegram.WebhookSecret) {
		return ErrInvalidWebhookSecret
	}
	if c.WebhookMode() && c.Telegram.WebhookSecret == "" {
		return ErrMissingWebhookSecret
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Schedule.Timezone, err)
	}
	if _, _, err := ParseClock(c.Schedule.DailyUpdateTime); err != nil {
		return fmt.Errorf("invalid DAILY_UPDATE_TIME: %w", err)
	}
	if c.News.Limit <= 0 {
		return fmt.Errorf("NEWS_LIMIT must be positive, got %d", c.News.Limit)
	}
	return nil
}

// WebhookMode is true when updates arrive through the HTTP webhook route.
func (c *Config) WebhookMode() bool {
	return c.Telegram.WebhookURL != ""
}

// ServeHTTP decides whether the gin server has to run.
func (c *Config) ServeHTTP() bool {
	return c.Server.KeepAlive || c.Server.Hosted || c.WebhookMode()
}

// ParseClock parses an "HH:MM" wall clock time.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func parseAdminID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ADMIN_USER_ID %q: %w", raw, err)
	}
	return id, nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a user id: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
