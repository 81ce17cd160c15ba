package tasks

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

func TestSignInLimiterSweepJob_Interval(t *testing.T) {
	short := SignInLimiterSweepJob(ratelimit.NewSignInLimiter(5, time.Second), zap.NewNop())
	if short.Interval != time.Minute {
		t.Errorf("short window interval = %v, want 1m", short.Interval)
	}
	long := SignInLimiterSweepJob(ratelimit.NewSignInLimiter(5, 10*time.Minute), zap.NewNop())
	if long.Interval != 20*time.Minute {
		t.Errorf("long window interval = %v, want 20m", long.Interval)
	}
}

func TestSignInLimiterSweepJob_Runs(t *testing.T) {
	limiter := ratelimit.NewSignInLimiter(5, time.Millisecond)
	limiter.Check(httptest.NewRequest("POST", "/auth/session", nil), "uid-1")
	time.Sleep(5 * time.Millisecond)

	job := SignInLimiterSweepJob(limiter, zap.NewNop())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := limiter.Sweep(); n != 0 {
		t.Errorf("windows left after job run: %d", n)
	}
}
