package utils

import (
	"context"
	"log"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
)

func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[SafeGo] recovered from panic: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

func ShouldStopCtx(ctx context.Context, log *logrus.Logger) (bool, error) {
	select {
	case <-ctx.Done():
		log.Debug("Context done signal received",
			logrus.Fields{
				"caller": callerName(2),
				"error":  ctx.Err(),
			},
		)
		return true, ctx.Err()
	default:
		return false, nil
	}
}

func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	parts := strings.Split(fn.Name(), "/")
	return parts[len(parts)-1]
}
