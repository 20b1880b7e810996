package shopify

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"

	// DefaultThrottleDelay applies when a throttled response has no
	// usable Retry-After header.
	DefaultThrottleDelay = 2 * time.Second

	// StatusShopLocked is Shopify's non-standard throttling status.
	StatusShopLocked = 430
)

// RateLimiter throttles requests to the storefront API.
// It combines a token bucket with waiting out throttle responses.
type RateLimiter struct {
	mu        sync.Mutex
	blocked   time.Time     // From Retry-After
	bucket    *rate.Limiter // Proactive throttling, nil when disabled
	throttled int
	now       func() time.Time
}

// NewRateLimiter creates a rate limiter allowing rps requests per second.
// A non-positive rps disables proactive throttling.
func NewRateLimiter(rps float64) *RateLimiter {
	r := &RateLimiter{now: time.Now}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		r.bucket = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return r
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.bucket != nil {
		if err := r.bucket.Wait(ctx); err != nil {
			return err
		}
	}

	r.mu.Lock()
	blocked := r.blocked
	now := r.now()
	r.mu.Unlock()

	if now.Before(blocked) {
		timer := time.NewTimer(blocked.Sub(now))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Observe records a throttle response so later requests wait it out.
// It reports whether resp was throttled.
func (r *RateLimiter) Observe(resp *http.Response) bool {
	if resp == nil || !isThrottled(resp.StatusCode) {
		return false
	}

	delay := DefaultThrottleDelay
	if retryAfter := resp.Header.Get(HeaderRetryAfter); retryAfter != "" {
		if seconds, err := strconv.ParseFloat(retryAfter, 64); err == nil && seconds >= 0 {
			delay = time.Duration(seconds * float64(time.Second))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	until := r.now().Add(delay)
	if until.After(r.blocked) {
		r.blocked = until
	}
	r.throttled++
	return true
}

// BlockedUntil returns the time before which requests wait.
func (r *RateLimiter) BlockedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blocked
}

// Throttled returns the number of throttle responses observed.
func (r *RateLimiter) Throttled() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.throttled
}

func isThrottled(status int) bool {
	return status == http.StatusTooManyRequests || status == StatusShopLocked
}
