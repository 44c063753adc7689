package access

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"golang-market-news-bot/internal/config"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCheck(t *testing.T) {
	svc := NewAccessService(&config.AccessConfig{
		AdminUserID:        1,
		WhitelistedUserIDs: []int64{2, 3},
	}, testLogger())

	assert.Equal(t, Allowed, svc.Check(1))
	assert.Equal(t, Allowed, svc.Check(2))
	assert.Equal(t, Allowed, svc.Check(3))

	assert.Equal(t, DeniedWithWarning, svc.Check(99))
	assert.Equal(t, DeniedSilently, svc.Check(99))
	assert.Equal(t, DeniedSilently, svc.Check(99))

	// Warning state is per sender.
	assert.Equal(t, DeniedWithWarning, svc.Check(100))

	assert.True(t, svc.IsAdmin(1))
	assert.False(t, svc.IsAdmin(2))
}

func TestCheckAllowAll(t *testing.T) {
	svc := NewAccessService(&config.AccessConfig{AdminUserID: 1, AllowAllUsers: true}, testLogger())
	assert.Equal(t, Allowed, svc.Check(12345))
}

func TestZeroAdminIsNotAdmin(t *testing.T) {
	svc := NewAccessService(&config.AccessConfig{}, testLogger())
	assert.False(t, svc.IsAdmin(0))
	assert.Equal(t, DeniedWithWarning, svc.Check(0))
}

func TestCheckWarnsExactlyOnceUnderConcurrency(t *testing.T) {
	svc := NewAccessService(&config.AccessConfig{AdminUserID: 1}, testLogger())

	const workers = 50
	results := make(chan Decision, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Check(7)
		}()
	}
	wg.Wait()
	close(results)

	warnings := 0
	for d := range results {
		if d == DeniedWithWarning {
			warnings++
		} else {
			assert.Equal(t, DeniedSilently, d)
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "denied_with_warning", DeniedWithWarning.String())
	assert.Equal(t, "denied_silently", DeniedSilently.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
