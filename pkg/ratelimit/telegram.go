package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"

	"golang-market-news-bot/internal/config"
	"golang-market-news-bot/internal/utils"
)

// botSender is the part of *telebot.Bot used for messages without an
// incoming update, such as the daily digest.
type botSender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// TelegramRateLimiter keeps outgoing messages under Telegram's global,
// per-user and per-chat limits.
type TelegramRateLimiter struct {
	cfg           *config.TelegramConfig
	log           *logrus.Logger
	bot           botSender
	globalLimiter *rate.Limiter
	userLimiters  map[int64]*limiterEntry
	chatLimiters  map[int64]*limiterEntry
	mu            sync.Mutex
	wg            sync.WaitGroup
}

func NewTelegramRateLimiter(cfg *config.TelegramConfig, log *logrus.Logger, bot botSender) *TelegramRateLimiter {
	return &TelegramRateLimiter{
		cfg:           cfg,
		log:           log,
		bot:           bot,
		globalLimiter: newLimiter(cfg.MaxGlobalRequestPerSecond),
		userLimiters:  make(map[int64]*limiterEntry),
		chatLimiters:  make(map[int64]*limiterEntry),
	}
}

func newLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}

// Send replies in the chat of the incoming update.
func (t *TelegramRateLimiter) Send(ctx context.Context, c telebot.Context, what interface{}, opts ...interface{}) error {
	var userID int64
	if c.Sender() != nil {
		userID = c.Sender().ID
	}
	var chatID int64
	if c.Chat() != nil {
		chatID = c.Chat().ID
	}

	if err := t.wait(ctx, userID, chatID); err != nil {
		return err
	}
	if err := c.Send(what, opts...); err != nil {
		t.log.WithError(err).Error("Failed to send message", logrus.Fields{
			"chat_id": chatID,
		})
		return err
	}
	return nil
}

// SendTo pushes a message to chatID outside of an update.
func (t *TelegramRateLimiter) SendTo(ctx context.Context, chatID int64, what interface{}, opts ...interface{}) error {
	if err := t.wait(ctx, 0, chatID); err != nil {
		return err
	}
	_, err := t.bot.Send(telebot.ChatID(chatID), what, opts...)
	return err
}

func (t *TelegramRateLimiter) Respond(ctx context.Context, c telebot.Context, resp ...*telebot.CallbackResponse) error {
	var userID int64
	if c.Sender() != nil {
		userID = c.Sender().ID
	}
	if err := t.wait(ctx, userID, 0); err != nil {
		return err
	}
	return c.Respond(resp...)
}

func (t *TelegramRateLimiter) entry(m map[int64]*limiterEntry, id int64, perSecond int) *limiterEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := m[id]; ok {
		e.lastAccess = time.Now()
		return e
	}
	e := &limiterEntry{limiter: newLimiter(perSecond), lastAccess: time.Now()}
	m[id] = e
	return e
}

// wait blocks on the chat, global and user limiters in that order. Zero ids
// skip their limiter.
func (t *TelegramRateLimiter) wait(ctx context.Context, userID, chatID int64) error {
	if chatID != 0 {
		chat := t.entry(t.chatLimiters, chatID, t.cfg.MaxChatRequestPerSecond)
		if err := chat.limiter.Wait(ctx); err != nil {
			t.log.WithError(err).Error("Failed to wait for chat rate limit")
			return err
		}
	}
	if err := t.globalLimiter.Wait(ctx); err != nil {
		t.log.WithError(err).Error("Failed to wait for global rate limit")
		return err
	}
	if userID != 0 {
		user := t.entry(t.userLimiters, userID, t.cfg.MaxUserRequestPerSecond)
		if err := user.limiter.Wait(ctx); err != nil {
			t.log.WithError(err).Error("Failed to wait for user rate limit")
			return err
		}
	}
	return nil
}

func (t *TelegramRateLimiter) StartCleanupExpired(ctx context.Context) {
	if t.cfg.RateLimitCleanupDuration <= 0 {
		return
	}
	t.wg.Add(1)
	utils.SafeGo(func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.cfg.RateLimitCleanupDuration)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				t.log.Info("Received signal to stop Telegram rate limiter cleanup expired")
				return
			case <-ticker.C:
				t.cleanup(time.Now())
			}
		}
	})
}

func (t *TelegramRateLimiter) cleanup(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range []map[int64]*limiterEntry{t.userLimiters, t.chatLimiters} {
		for id, e := range m {
			if now.Sub(e.lastAccess) > t.cfg.RatelimitExpireDuration {
				delete(m, id)
			}
		}
	}
}

func (t *TelegramRateLimiter) StopCleanupExpired() {
	t.wg.Wait()
	t.log.Info("Telegram rate limiter stopped")
}
