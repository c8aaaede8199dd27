package httputil

import (
	"encoding/json"
	"net/http"
	"sync"
)

// DefaultMaxTotal caps concurrent requests across all clients.
const DefaultMaxTotal = 1000

// Limiter tracks concurrent in-flight requests per client IP and globally.
type Limiter struct {
	mu       sync.Mutex
	inFlight map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewLimiter creates a limiter allowing maxPerIP concurrent requests per IP.
func NewLimiter(maxPerIP, maxTotal int) *Limiter {
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotal
	}
	return &Limiter{
		inFlight: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// Acquire registers a request for ip. It returns false if the IP or global
// limit has been reached.
func (l *Limiter) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal {
		return false
	}
	if l.inFlight[ip] >= l.maxPerIP {
		return false
	}

	l.inFlight[ip]++
	l.total++
	return true
}

// Release ends a request previously admitted by Acquire.
func (l *Limiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight[ip]--
	l.total--
	if l.inFlight[ip] <= 0 {
		delete(l.inFlight, ip)
	}
}

// Count returns the number of in-flight requests for ip.
func (l *Limiter) Count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[ip]
}

// Limit wraps next so each client IP holds at most maxPerIP requests at once.
// Excess requests get 429 with a JSON failure body.
func (l *Limiter) Limit(trustProxy bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, trustProxy)
		if !l.Acquire(ip) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "too many concurrent requests",
			})
			return
		}
		defer l.Release(ip)
		next.ServeHTTP(w, r)
	})
}
