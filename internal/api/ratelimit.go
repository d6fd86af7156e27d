package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the IP-based rate limiter
type RateLimitConfig struct {
	RequestsPerSecond float64       // Requests allowed per second per IP
	Burst             int           // Maximum burst size
	CleanupInterval   time.Duration // How often idle IP buckets are swept
}

// DefaultRateLimitConfig returns production-safe defaults
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 10,              // 10 requests per second per IP
	Burst:             20,              // Allow burst of 20
	CleanupInterval:   5 * time.Minute, // Sweep idle IPs every 5 minutes
}

// InputRateConfig bounds how fast one websocket client may push input
type InputRateConfig struct {
	EventsPerSecond float64
	Burst           int
}

// DefaultInputRateConfig covers key edges plus pointer deltas at 60 Hz
var DefaultInputRateConfig = InputRateConfig{
	EventsPerSecond: 240,
	Burst:           120,
}

// newInputLimiter returns a limiter for one client connection
func newInputLimiter(cfg InputRateConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.EventsPerSecond), cfg.Burst)
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter applies a token bucket per client IP. Buckets idle for two
// cleanup intervals are swept on the request path, so there is no goroutine
// to start or stop.
type IPRateLimiter struct {
	config RateLimitConfig
	now    func() time.Time

	mu        sync.Mutex
	limiters  map[string]*ipLimiterEntry
	lastSweep time.Time

	rejectedCount atomic.Uint64
	allowedCount  atomic.Uint64
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig.CleanupInterval
	}
	return &IPRateLimiter{
		config:   cfg,
		now:      time.Now,
		limiters: make(map[string]*ipLimiterEntry),
	}
}

// Allow checks if a request from the given IP should be allowed
func (rl *IPRateLimiter) Allow(ip string) bool {
	now := rl.now()

	rl.mu.Lock()
	rl.sweepLocked(now)
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
		}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now
	allowed := entry.limiter.AllowN(now, 1)
	rl.mu.Unlock()

	if allowed {
		rl.allowedCount.Add(1)
	} else {
		rl.rejectedCount.Add(1)
	}
	return allowed
}

// sweepLocked drops idle buckets at most once per cleanup interval
func (rl *IPRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.config.CleanupInterval {
		return
	}
	rl.lastSweep = now
	cutoff := now.Add(-2 * rl.config.CleanupInterval)
	for ip, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

// Tracked returns how many IPs currently hold a bucket
func (rl *IPRateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware returns an HTTP middleware for rate limiting
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStats returns rate limiter statistics
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"allowed":  rl.allowedCount.Load(),
		"rejected": rl.rejectedCount.Load(),
	}
}

// GetClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// the peer address. Proxy headers are trusted as sent.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// WebSocketRateLimiter caps concurrent websocket connections per IP. An IP
// is forgotten when its last connection is released.
type WebSocketRateLimiter struct {
	mu          sync.Mutex
	connections map[string]int
	maxPerIP    int

	rejectedCount atomic.Uint64
}

// NewWebSocketRateLimiter creates a WebSocket connection limiter
func NewWebSocketRateLimiter(maxPerIP int) *WebSocketRateLimiter {
	return &WebSocketRateLimiter{
		connections: make(map[string]int),
		maxPerIP:    maxPerIP,
	}
}

// Allow reserves a connection slot for ip if one is free
func (wrl *WebSocketRateLimiter) Allow(ip string) bool {
	wrl.mu.Lock()
	defer wrl.mu.Unlock()
	if wrl.connections[ip] >= wrl.maxPerIP {
		wrl.rejectedCount.Add(1)
		return false
	}
	wrl.connections[ip]++
	return true
}

// Release frees a slot taken by Allow
func (wrl *WebSocketRateLimiter) Release(ip string) {
	wrl.mu.Lock()
	defer wrl.mu.Unlock()
	switch n := wrl.connections[ip]; {
	case n > 1:
		wrl.connections[ip] = n - 1
	case n == 1:
		delete(wrl.connections, ip)
	}
}

// GetConnectionCount returns current connection count for an IP
func (wrl *WebSocketRateLimiter) GetConnectionCount(ip string) int {
	wrl.mu.Lock()
	defer wrl.mu.Unlock()
	return wrl.connections[ip]
}

// GetStats returns WebSocket rate limiter statistics
func (wrl *WebSocketRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"rejected": wrl.rejectedCount.Load(),
		"ips":      uint64(wrl.trackedIPs()),
	}
}

func (wrl *WebSocketRateLimiter) trackedIPs() int {
	wrl.mu.Lock()
	defer wrl.mu.Unlock()
	return len(wrl.connections)
}

// DefaultAllowedOrigins is used when the server config names none. Any
// localhost port is also accepted.
var DefaultAllowedOrigins = []string{
	"http://localhost",
	"http://127.0.0.1",
}

// OriginPolicy decides which browser origins may use CORS and websockets
type OriginPolicy struct {
	exact    map[string]bool
	suffixes []string // From "https://*.example.com" entries
}

// NewOriginPolicy builds a policy from exact origins and "*." wildcards.
// nil selects DefaultAllowedOrigins.
func NewOriginPolicy(origins []string) *OriginPolicy {
	if origins == nil {
		origins = DefaultAllowedOrigins
	}
	p := &OriginPolicy{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		if i := strings.Index(o, "://*."); i >= 0 {
			p.suffixes = append(p.suffixes, o[i+4:])
			continue
		}
		p.exact[o] = true
	}
	return p
}

// Allowed checks if an origin passes the policy
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return false
	}

	// Allow localhost with any port
	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
		return true
	}

	if p.exact[origin] {
		return true
	}

	// Allow configured subdomain wildcards
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(origin, suffix) {
			return true
		}
	}

	return false
}

// CORSOrigins returns the patterns handed to the CORS middleware
func (p *OriginPolicy) CORSOrigins() []string {
	out := []string{"http://localhost:*", "http://127.0.0.1:*"}
	for o := range p.exact {
		out = append(out, o)
	}
	for _, s := range p.suffixes {
		out = append(out, "https://*"+s)
	}
	return out
}
