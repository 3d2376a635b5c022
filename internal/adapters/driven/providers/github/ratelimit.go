package github

import (
	"context"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/time/rate"
)

const (
	// SearchRateLimit is the authenticated search quota per minute.
	SearchRateLimit = 30

	// DefaultRequestsPerSecond keeps a steady caller under the search quota.
	DefaultRequestsPerSecond = 0.5
)

// RateLimiter throttles search calls with a token bucket and backs off
// when the API reports the quota is spent.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetTime time.Time
	bucket    *rate.Limiter
	now       func() time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests on average.
func NewRateLimiter(perSecond float64) *RateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRequestsPerSecond
	}
	return &RateLimiter{
		remaining: SearchRateLimit,
		limit:     SearchRateLimit,
		bucket:    rate.NewLimiter(rate.Limit(perSecond), 1),
		now:       time.Now,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining, resetTime := r.remaining, r.resetTime
	now := r.now()
	r.mu.Unlock()

	if remaining > 0 || !now.Before(resetTime) {
		return nil
	}
	timer := time.NewTimer(resetTime.Sub(now))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Update records the quota reported with a response.
func (r *RateLimiter) Update(rt gh.Rate) {
	if rt.Limit == 0 && rt.Reset.IsZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = rt.Limit
	r.remaining = rt.Remaining
	r.resetTime = rt.Reset.Time
}

// Remaining returns the last reported remaining requests.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// ResetTime returns when the quota resets.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}
