package middleware

import (
	"net/http"
	"sync"
	"time"

	"dealerstock/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// windowEntry tracks request counts for one client within a fixed window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// windowLimiter counts requests per key in fixed windows.
type windowLimiter struct {
	name    string
	limit   int
	window  time.Duration
	mu      sync.Mutex
	entries map[string]*windowEntry
}

func newWindowLimiter(name string, limit int, window time.Duration) *windowLimiter {
	l := &windowLimiter{name: name, limit: limit, window: window, entries: make(map[string]*windowEntry)}
	registerForPurge(l)
	return l
}

// allow records one request for key and reports whether it is within the
// limit. When it is not, retryAt is the end of the current window.
func (l *windowLimiter) allow(key string, now time.Time) (ok bool, retryAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, exists := l.entries[key]
	if !exists || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

func (l *windowLimiter) purge(now time.Time) (purged, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, k)
			purged++
		}
	}
	return purged, len(l.entries)
}

func (l *windowLimiter) middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAt := l.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", retryAt.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// ── Login rate limiter ────────────────────────────────────────────────────────

var loginLimiter = newWindowLimiter("login", 20, time.Minute)

// LoginRateLimiter limits login, refresh and password-request attempts to 20
// per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return loginLimiter.middleware("too many login attempts, try again in a minute")
}

// ── General API rate limiter ──────────────────────────────────────────────────

// RateLimiter returns a fixed-window limiter of limit requests per window per IP.
// Each call gets its own counters.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter("api", limit, window).middleware("too many requests, try again shortly")
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Periodically drops expired entries so IPs that never return do not pile up.

const purgeInterval = 5 * time.Minute

var (
	limitersMu sync.Mutex
	limiters   []*windowLimiter
	purgeOnce  sync.Once
)

func registerForPurge(l *windowLimiter) {
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	purgeOnce.Do(func() { go purgeExpiredEntries() })
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		limitersMu.Lock()
		current := append([]*windowLimiter(nil), limiters...)
		limitersMu.Unlock()

		for _, l := range current {
			purged, remaining := l.purge(now)
			if purged > 0 {
				log.Debug().
					Str("limiter", l.name).
					Int("entries_purged", purged).
					Int("entries_remaining", remaining).
					Msg("rate limiter entries purged")
			}
		}
	}
}
