package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 1000
)

// throttleScope picks which budget a request draws from.
type throttleScope int

const (
	scopeNone throttleScope = iota
	scopeGeneral
	scopeAuth
)

type clientLimiter struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware throttles per client address. The auth budget applies
// to credential endpoints; everything else under the API shares the general
// budget. A non-positive general rate disables general throttling.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int
	mu         sync.Mutex
	clients    map[string]*clientLimiter
	now        func() time.Time
}

func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if authRPM <= 0 {
		authRPM = 10
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		clients:    map[string]*clientLimiter{},
		now:        time.Now,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := classify(r.URL.Path)
		if scope == scopeNone {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.limiterFor(ClientIP(r), scope)
		if limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		reservation := limiter.ReserveN(m.now(), 1)
		if delay := reservation.DelayFrom(m.now()); delay > 0 {
			reservation.CancelAt(m.now())
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Request was throttled.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func classify(rawPath string) throttleScope {
	path := strings.ToLower(rawPath)
	switch {
	case path == "/health", strings.HasPrefix(path, "/media/"):
		return scopeNone
	case strings.HasPrefix(path, "/api/v1/auth/"):
		return scopeAuth
	default:
		return scopeGeneral
	}
}

func (m *RateLimitMiddleware) limiterFor(clientIP string, scope throttleScope) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, exists := m.clients[clientIP]
	if !exists {
		entry = &clientLimiter{auth: perMinute(m.authRPM)}
		if m.generalRPM > 0 {
			entry.general = perMinute(m.generalRPM)
		}
		m.clients[clientIP] = entry
	}
	entry.lastSeen = now

	if len(m.clients) >= limiterSweepSize {
		m.sweepLocked(now)
	}

	if scope == scopeAuth {
		return entry.auth
	}
	return entry.general
}

func perMinute(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (m *RateLimitMiddleware) sweepLocked(now time.Time) {
	cutoff := now.Add(-limiterIdleTTL)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

// ClientIP prefers proxy headers over the socket address.
func ClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	if remote == "" {
		return "unknown"
	}
	return remote
}
