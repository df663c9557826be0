package fetch

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// limiter applies per-domain rate limiting so a burst of candidates against
// the same official source never hammers it
type limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiter(requestsPerSecond float64, burst int) *limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 3
	}
	return &limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// wait blocks until the URL's domain has rate-limit clearance
func (l *limiter) wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return l.get(parsed.Host).Wait(ctx)
}

func (l *limiter) get(domain string) *rate.Limiter {
	l.mu.RLock()
	lim, exists := l.limiters[domain]
	l.mu.RUnlock()
	if exists {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, exists := l.limiters[domain]; exists {
		return lim
	}
	lim = rate.NewLimiter(l.rate, l.burst)
	l.limiters[domain] = lim
	return lim
}
