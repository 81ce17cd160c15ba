// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/store/oauthstate"
	"github.com/dalemusser/schoolsuite/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// OAuthStateCleanupJob removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// SignInLimiterSweepJob drops expired sign-in rate-limit windows so the
// limiter's memory tracks active clients only.
func SignInLimiterSweepJob(limiter *ratelimit.SignInLimiter, logger *zap.Logger) Job {
	interval := 2 * limiter.Window()
	if interval < time.Minute {
		interval = time.Minute
	}
	return Job{
		Name:     "signin-limiter-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if n := limiter.Sweep(); n > 0 {
				logger.Debug("swept sign-in rate-limit windows", zap.Int("count", n))
			}
			return nil
		},
	}
}
