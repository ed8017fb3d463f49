// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hakbangquest/hakbangweb/internal/app/system/normalize"
	"golang.org/x/time/rate"
)

// Limiter is a keyed token-bucket limiter. Each key gets its own bucket that
// refills at limit tokens per duration and holds at most limit tokens.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration // buckets unused this long are dropped
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing limit requests per duration for each key.
func New(limit int, duration time.Duration) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(duration / time.Duration(limit)),
		burst:   limit,
		idle:    duration * 2,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *Limiter) get(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// Allow reports whether a request for key may proceed, consuming a token
// when it may.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	return l.get(key, now).lim.AllowN(now, 1)
}

// Remaining returns how many whole tokens key has left right now.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		return l.burst
	}
	n := int(b.lim.TokensAt(time.Now()))
	if n < 0 {
		return 0
	}
	return n
}

// Reset refills the bucket for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Stop ends the background cleanup goroutine.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// cleanupLoop periodically drops idle buckets to bound memory.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-l.idle)
			for key, b := range l.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (comma-separated list, first is client)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// Limit types reported by LoginLimiter.Check.
const (
	LimitIP    = "ip"
	LimitEmail = "email"
)

// LoginLimiter throttles admin login attempts per client IP and per email,
// which covers both spraying from one address and targeting one account.
type LoginLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
}

// NewLoginLimiter creates a limiter with the defaults: perMinute attempts per
// IP per minute, and 5 attempts per email per 5 minutes.
func NewLoginLimiter(perMinute int) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return NewLoginLimiterWithConfig(perMinute, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipDuration time.Duration, emailLimit int, emailDuration time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:    New(ipLimit, ipDuration),
		emailLimiter: New(emailLimit, emailDuration),
	}
}

// Check reports whether a login attempt may proceed. When it may not,
// limitType is LimitIP or LimitEmail.
func (ll *LoginLimiter) Check(r *http.Request, email string) (allowed bool, limitType string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, LimitIP
	}
	if key := normalize.Email(email); key != "" {
		if !ll.emailLimiter.Allow(key) {
			return false, LimitEmail
		}
	}
	return true, ""
}

// ResetEmail clears the email bucket after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := normalize.Email(email); key != "" {
		ll.emailLimiter.Reset(key)
	}
}

// Stop ends both limiters' cleanup goroutines.
func (ll *LoginLimiter) Stop() {
	ll.ipLimiter.Stop()
	ll.emailLimiter.Stop()
}
