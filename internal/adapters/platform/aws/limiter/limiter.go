package limiter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/olusolaa/site-provisioner/internal/core/ports"
)

const (
	DefaultRateLimitRPS = 10
	minRateLimitRPS     = 1
	maxRateLimitRPS     = 100
)

var (
	apiLimiter  atomic.Pointer[rate.Limiter]
	limiterOnce sync.Once
	rpsUsed     atomic.Int32
)

// Initialize sets up the process-wide AWS API limiter. Only the first call has
// any effect; out-of-range values fall back to the default.
func Initialize(rps int, logger ports.Logger) {
	limiterOnce.Do(func() {
		limitValue := DefaultRateLimitRPS
		logMsg := "Initializing global AWS API rate limiter"
		if rps >= minRateLimitRPS && rps <= maxRateLimitRPS {
			limitValue = rps
			logMsg = fmt.Sprintf("%s with configured rate", logMsg)
		} else if rps != 0 {
			logger.Warnf(context.Background(), "Invalid AWS API RPS configured (%d), using default %d RPS. Valid range: %d-%d.", rps, DefaultRateLimitRPS, minRateLimitRPS, maxRateLimitRPS)
			logMsg = fmt.Sprintf("%s with default rate (invalid config)", logMsg)
		} else {
			logMsg = fmt.Sprintf("%s with default rate", logMsg)
		}

		rpsUsed.Store(int32(limitValue))
		apiLimiter.Store(rate.NewLimiter(rate.Limit(limitValue), limitValue))
		logger.Debugf(context.Background(), "%s: %d RPS", logMsg, limitValue)
	})
}

// RPS reports the rate the limiter was initialized with.
func RPS() int {
	if rps := rpsUsed.Load(); rps > 0 {
		return int(rps)
	}
	return DefaultRateLimitRPS
}

func Wait(ctx context.Context, logger ports.Logger) error {
	l := apiLimiter.Load()
	if l == nil {
		logger.Warnf(ctx, "AWS API rate limiter accessed before initialization, using default rate")
		Initialize(DefaultRateLimitRPS, logger)
		l = apiLimiter.Load()
	}
	if err := l.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			logger.Warnf(ctx, "Error waiting for AWS API rate limiter: %v", err)
		}
		return err
	}
	return nil
}

// DefaultRateLimiter implements shared.RateLimiter with the process-wide limiter.
type DefaultRateLimiter struct{}

func (DefaultRateLimiter) Wait(ctx context.Context, logger ports.Logger) error {
	return Wait(ctx, logger)
}
