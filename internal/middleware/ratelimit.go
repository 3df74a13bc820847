// Package middleware holds the per-IP admission limits for the websocket
// endpoint: a cap on simultaneous connections and a token bucket on
// message rate.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type visitor struct {
	connections int
	tokens      int
	lastRefill  time.Time
}

// IPRateLimiter tracks per-IP connection counts and message rates.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	maxConnsPerIP int
	msgRate       int
	window        time.Duration
}

// NewIPRateLimiter creates a limiter allowing maxConnsPerIP simultaneous
// connections and msgRate messages per window from each IP.
func NewIPRateLimiter(maxConnsPerIP, msgRate int, window time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		visitors:      make(map[string]*visitor),
		maxConnsPerIP: maxConnsPerIP,
		msgRate:       msgRate,
		window:        window,
	}
	go rl.cleanup()
	return rl
}

// ConnectAllowed reports whether ip may open another connection and, if
// so, counts it.
func (rl *IPRateLimiter) ConnectAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v := rl.visitor(ip)
	if v.connections >= rl.maxConnsPerIP {
		return false
	}
	v.connections++
	return true
}

// Disconnect releases one connection slot for ip.
func (rl *IPRateLimiter) Disconnect(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.visitors[ip]; ok && v.connections > 0 {
		v.connections--
	}
}

// MessageAllowed consumes one message token for ip, refilling the bucket
// for every full window elapsed since the last refill.
func (rl *IPRateLimiter) MessageAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v := rl.visitor(ip)

	now := time.Now()
	if elapsed := now.Sub(v.lastRefill); elapsed >= rl.window {
		windows := int(elapsed / rl.window)
		v.tokens += windows * rl.msgRate
		if v.tokens > rl.msgRate {
			v.tokens = rl.msgRate
		}
		v.lastRefill = v.lastRefill.Add(time.Duration(windows) * rl.window)
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// visitor returns the tracked entry for ip, creating a full-bucket one if
// needed. Callers must hold the mutex.
func (rl *IPRateLimiter) visitor(ip string) *visitor {
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{tokens: rl.msgRate, lastRefill: time.Now()}
		rl.visitors[ip] = v
	}
	return v
}

// cleanup drops idle entries so the map does not grow with every IP ever
// seen.
func (rl *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if v.connections <= 0 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RealIP extracts the client IP, honoring X-Forwarded-For set by a reverse
// proxy.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if comma := strings.Index(xff, ","); comma > 0 {
			return strings.TrimSpace(xff[:comma])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
