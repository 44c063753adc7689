package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"golang-market-news-bot/internal/config"
	"golang-market-news-bot/internal/models"
	"golang-market-news-bot/internal/services/news"
	"golang-market-news-bot/internal/services/subscription"
	"golang-market-news-bot/internal/utils"
)

// Notifier delivers a digest to a single chat.
type Notifier interface {
	SendDigest(ctx context.Context, chatID int64, header string, digest *models.NewsDigest) error
}

// DailyScheduler sends the market digest to every subscriber once a day.
type DailyScheduler struct {
	news     news.NewsService
	subs     subscription.Store
	notifier Notifier
	logger   *logrus.Logger
	loc      *time.Location
	hour     int
	minute   int
	now      func() time.Time
}

func NewDailyScheduler(cfg *config.ScheduleConfig, newsService news.NewsService, subs subscription.Store, notifier Notifier, logger *logrus.Logger) (*DailyScheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	hour, minute, err := config.ParseClock(cfg.DailyUpdateTime)
	if err != nil {
		return nil, err
	}

	return &DailyScheduler{
		news:     newsService,
		subs:     subs,
		notifier: notifier,
		logger:   logger,
		loc:      loc,
		hour:     hour,
		minute:   minute,
		now:      time.Now,
	}, nil
}

// Start runs the schedule in the background until ctx is done.
func (s *DailyScheduler) Start(ctx context.Context) {
	s.logger.Info("Daily update scheduler started", logrus.Fields{
		"time":     fmt.Sprintf("%02d:%02d", s.hour, s.minute),
		"timezone": s.loc.String(),
	})
	utils.SafeGo(func() { s.run(ctx) })
}

func (s *DailyScheduler) run(ctx context.Context) {
	for {
		wait := s.NextRun().Sub(s.now())
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Daily update scheduler stopped")
			return
		case <-timer.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.WithError(err).Error("Daily update failed")
			}
		}
	}
}

// NextRun is the next daily update time in the configured timezone.
func (s *DailyScheduler) NextRun() time.Time {
	return utils.NextDailyRun(s.now().In(s.loc), s.hour, s.minute)
}

// Header is the first line of the daily message for now.
func (s *DailyScheduler) Header() string {
	return fmt.Sprintf("📅 DAILY MARKET UPDATE - %s 📅", utils.PrettyDate(s.now().In(s.loc)))
}

// RunOnce fetches the market digest and sends it to all subscribers.
// Chats that blocked the bot are unsubscribed.
func (s *DailyScheduler) RunOnce(ctx context.Context) error {
	chats := s.subs.List()
	if len(chats) == 0 {
		s.logger.Info("No users subscribed to daily updates")
		return nil
	}

	digest, err := s.news.GetMarketNews(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to prepare daily update: %w", err)
	}

	header := s.Header()
	sent := 0
	for _, chatID := range chats {
		if stop, err := utils.ShouldStopCtx(ctx, s.logger); stop {
			return err
		}

		if err := s.notifier.SendDigest(ctx, chatID, header, digest); err != nil {
			s.logger.WithError(err).Error("Failed to send daily update", logrus.Fields{
				"chat_id": chatID,
			})
			if IsUnreachable(err) {
				s.subs.Remove(chatID)
				s.logger.Info("Removed unreachable chat from subscriptions", logrus.Fields{
					"chat_id": chatID,
				})
			}
			continue
		}
		sent++
	}

	s.logger.Info("Daily update sent", logrus.Fields{
		"sent":        sent,
		"subscribers": len(chats),
	})
	return nil
}

// IsUnreachable reports Telegram errors meaning the chat will never accept
// messages again.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "blocked") ||
		strings.Contains(msg, "chat not found") ||
		strings.Contains(msg, "deactivated")
}
