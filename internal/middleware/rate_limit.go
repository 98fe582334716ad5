package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Per-IP token buckets for the read API. Buckets idle for more than an hour
// are pruned so the map does not grow with every scraper that ever connected.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	ipLimiters   = make(map[string]*ipLimiter)
	ipLimitersMu sync.Mutex
	lastPrune    time.Time
)

const (
	requestsPerSecond = 5
	burstSize         = 10
	limiterIdleExpiry = time.Hour
)

func limiterFor(ip string, now time.Time) *rate.Limiter {
	ipLimitersMu.Lock()
	defer ipLimitersMu.Unlock()

	if now.Sub(lastPrune) > limiterIdleExpiry {
		for addr, l := range ipLimiters {
			if now.Sub(l.lastSeen) > limiterIdleExpiry {
				delete(ipLimiters, addr)
			}
		}
		lastPrune = now
	}

	if l, ok := ipLimiters[ip]; ok {
		l.lastSeen = now
		return l.limiter
	}
	l := &ipLimiter{
		limiter:  rate.NewLimiter(requestsPerSecond, burstSize),
		lastSeen: now,
	}
	ipLimiters[ip] = l
	return l.limiter
}

func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		// The local dashboard poller hits /stats every few seconds.
		if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
			next.ServeHTTP(w, r)
			return
		}

		if !limiterFor(host, time.Now()).Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
