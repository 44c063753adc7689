package access

import (
	"sync"

	"github.com/sirupsen/logrus"

	"golang-market-news-bot/internal/config"
)

// Decision is the outcome of an access check.
type Decision int

const (
	Allowed Decision = iota
	// DeniedWithWarning is returned the first time a sender is refused.
	DeniedWithWarning
	// DeniedSilently is returned for every later refusal of the same sender.
	DeniedSilently
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedWithWarning:
		return "denied_with_warning"
	case DeniedSilently:
		return "denied_silently"
	default:
		return "unknown"
	}
}

const WarningMessage = "Sorry, this command is restricted to the bot administrator only."

type AccessService interface {
	Check(userID int64) Decision
	IsAuthorized(userID int64) bool
	IsAdmin(userID int64) bool
}

type accessService struct {
	adminID   int64
	whitelist map[int64]struct{}
	allowAll  bool
	logger    *logrus.Logger

	mu     sync.Mutex
	warned map[int64]struct{}
}

// NewAccessService snapshots the admin id and whitelist; later config changes
// are not observed.
func NewAccessService(cfg *config.AccessConfig, logger *logrus.Logger) AccessService {
	whitelist := make(map[int64]struct{}, len(cfg.WhitelistedUserIDs))
	for _, id := range cfg.WhitelistedUserIDs {
		whitelist[id] = struct{}{}
	}
	return &accessService{
		adminID:   cfg.AdminUserID,
		whitelist: whitelist,
		allowAll:  cfg.AllowAllUsers,
		logger:    logger,
		warned:    make(map[int64]struct{}),
	}
}

func (s *accessService) IsAdmin(userID int64) bool {
	return s.adminID != 0 && userID == s.adminID
}

func (s *accessService) IsAuthorized(userID int64) bool {
	if s.allowAll || s.IsAdmin(userID) {
		return true
	}
	_, ok := s.whitelist[userID]
	return ok
}

// Check allows the admin and whitelisted users. A refused sender is warned
// once per process lifetime and ignored afterwards.
func (s *accessService) Check(userID int64) Decision {
	if s.IsAuthorized(userID) {
		return Allowed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.warned[userID]; ok {
		s.logger.Debug("Ignoring unauthorized user", logrus.Fields{"user_id": userID})
		return DeniedSilently
	}
	s.warned[userID] = struct{}{}
	s.logger.Warn("Unauthorized access attempt", logrus.Fields{"user_id": userID})
	return DeniedWithWarning
}
