// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter is a fixed-window counter per key. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit hits per key per duration.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// RetryAfter is how long until key's window resets; zero when not limited.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || w.count < l.limit {
		return 0
	}
	if d := w.expiresAt.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Window is the limiter's counting period.
func (l *Limiter) Window() time.Duration { return l.duration }

func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	dropped := 0
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
			dropped++
		}
	}
	return dropped
}

// ClientIP returns the host part of RemoteAddr. chi's RealIP middleware
// runs first and has already applied X-Forwarded-For / X-Real-IP.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SignInLimiter counts sign-in attempts per client IP and per Google account.
type SignInLimiter struct {
	byIP  *Limiter
	byUID *Limiter
}

// NewSignInLimiter allows limit attempts per IP and per uid within window.
func NewSignInLimiter(limit int, window time.Duration) *SignInLimiter {
	return &SignInLimiter{
		byIP:  New(limit, window),
		byUID: New(limit, window),
	}
}

// Check records an attempt and reports whether it may proceed, with the
// wait before the next one when it may not.
func (sl *SignInLimiter) Check(r *http.Request, uid string) (bool, time.Duration) {
	ip := ClientIP(r)
	if !sl.byIP.Allow(ip) {
		return false, sl.byIP.RetryAfter(ip)
	}
	if uid = strings.TrimSpace(uid); uid != "" && !sl.byUID.Allow(uid) {
		return false, sl.byUID.RetryAfter(uid)
	}
	return true, 0
}

// Succeeded clears the uid window after a completed sign-in.
func (sl *SignInLimiter) Succeeded(uid string) {
	if uid = strings.TrimSpace(uid); uid != "" {
		sl.byUID.Reset(uid)
	}
}

// Window is the counting period shared by both limiters.
func (sl *SignInLimiter) Window() time.Duration { return sl.byIP.Window() }

// Sweep drops expired windows from both limiters and returns how many were
// removed. The background job calls it periodically.
func (sl *SignInLimiter) Sweep() int {
	return sl.byIP.sweep() + sl.byUID.sweep()
}
