package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func fixedClock(l *Limiter, t0 time.Time) *time.Time {
	now := t0
	l.now = func() time.Time { return now }
	return &now
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("4th hit should be limited")
	}
	if !l.Allow("other") {
		t.Error("keys are independent")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, time.Minute)
	now := fixedClock(l, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second hit should be limited")
	}
	if d := l.RetryAfter("k"); d != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", d)
	}

	*now = now.Add(61 * time.Second)
	if !l.Allow("k") {
		t.Error("hit after the window should be allowed")
	}
}

func TestLimiter_SweepDropsExpired(t *testing.T) {
	l := New(1, time.Minute)
	now := fixedClock(l, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	l.Allow("a")
	*now = now.Add(2 * time.Minute)
	l.sweep()

	if len(l.windows) != 0 {
		t.Errorf("expected sweep to drop expired windows, have %d", len(l.windows))
	}
}

func TestSignInLimiter_PerUID(t *testing.T) {
	sl := NewSignInLimiter(2, time.Minute)

	r1 := httptest.NewRequest("POST", "/auth/session", nil)
	r1.RemoteAddr = "10.0.0.1:1234"
	r2 := httptest.NewRequest("POST", "/auth/session", nil)
	r2.RemoteAddr = "10.0.0.2:1234"

	sl.Check(r1, "uid-1")
	sl.Check(r2, "uid-1")
	if ok, wait := sl.Check(r1, "uid-1"); ok || wait <= 0 {
		t.Errorf("third attempt for uid-1 should be limited, got ok=%v wait=%v", ok, wait)
	}

	sl.Succeeded("uid-1")
	r3 := httptest.NewRequest("POST", "/auth/session", nil)
	r3.RemoteAddr = "10.0.0.3:1234"
	if ok, _ := sl.Check(r3, "uid-1"); !ok {
		t.Error("uid window should reset after success")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	if got := ClientIP(r); got != "192.0.2.7" {
		t.Errorf("ClientIP = %q", got)
	}
	r.RemoteAddr = "192.0.2.8"
	if got := ClientIP(r); got != "192.0.2.8" {
		t.Errorf("ClientIP without port = %q", got)
	}
}

func TestSignInLimiter_SweepCountsBothLimiters(t *testing.T) {
	sl := NewSignInLimiter(3, time.Minute)
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	ipNow := fixedClock(sl.byIP, start)
	uidNow := fixedClock(sl.byUID, start)

	sl.Check(httptest.NewRequest("POST", "/auth/session", nil), "uid-1")
	if n := sl.Sweep(); n != 0 {
		t.Errorf("fresh windows swept: %d", n)
	}

	*ipNow = start.Add(2 * time.Minute)
	*uidNow = start.Add(2 * time.Minute)
	if n := sl.Sweep(); n != 2 {
		t.Errorf("Sweep = %d, want 2", n)
	}
}
