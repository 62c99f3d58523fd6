package shopify

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	callLimitHeader = "X-Shopify-Shop-Api-Call-Limit"
	// REST leaky bucket drain rate for standard plans
	leakPerSecond = 2.0
	maxPause      = 10 * time.Second
)

// Pacer spaces requests according to the last rate-limit headers seen.
type Pacer struct {
	mu         sync.Mutex
	seen       bool
	used       int
	limit      int
	retryAfter time.Duration
}

func NewPacer() *Pacer {
	return &Pacer{}
}

// Observe records the rate-limit headers of a response
func (p *Pacer) Observe(h http.Header) {
	used, limit, okLimit := ParseCallLimit(h.Get(callLimitHeader))
	retryAfter, okRetry := ParseRetryAfter(h.Get("Retry-After"))

	p.mu.Lock()
	defer p.mu.Unlock()
	if okLimit {
		p.seen = true
		p.used = used
		p.limit = limit
	}
	if okRetry {
		p.seen = true
		p.retryAfter = retryAfter
	} else {
		p.retryAfter = 0
	}
}

// Delay returns how long to wait before the next request
func (p *Pacer) Delay(fallback time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.seen {
		return fallback
	}
	if p.retryAfter > 0 {
		return minDuration(p.retryAfter, maxPause)
	}
	if p.limit == 0 {
		return fallback
	}
	half := p.limit / 2
	if p.used <= half {
		return 0
	}
	excess := float64(p.used - half)
	return minDuration(time.Duration(excess/leakPerSecond*float64(time.Second)), maxPause)
}

// Wait sleeps for Delay(fallback) or until ctx is done
func (p *Pacer) Wait(ctx context.Context, fallback time.Duration) error {
	return sleep(ctx, p.Delay(fallback))
}

// ParseCallLimit parses "used/limit"
func ParseCallLimit(v string) (used, limit int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(v), "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	used, err1 := strconv.Atoi(parts[0])
	limit, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || limit <= 0 {
		return 0, 0, false
	}
	return used, limit, true
}

// ParseRetryAfter accepts seconds (Shopify sends "2.0") or an HTTP date
func ParseRetryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
