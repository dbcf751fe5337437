package chain

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limit is one endpoint's request budget: a sustained rate plus the burst
// allowed on top of it.
type Limit struct {
	PerSecond float64
	Burst     int
}

// RateLimiter places per-endpoint token buckets in front of the explorer
// backend. Write-style endpoints (broadcast, notification registration) get
// their own, stricter budgets; endpoints without an explicit limit share
// the fallback budget.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	limits   map[string]Limit
	fallback Limit
}

// NewRateLimiter creates a limiter with the given fallback budget and
// per-endpoint overrides. The override map is copied; it may be nil.
func NewRateLimiter(fallback Limit, perEndpoint map[string]Limit) *RateLimiter {
	limits := make(map[string]Limit, len(perEndpoint))
	for endpoint, l := range perEndpoint {
		limits[endpoint] = l
	}
	return &RateLimiter{
		buckets:  make(map[string]*rate.Limiter),
		limits:   limits,
		fallback: fallback,
	}
}

// Allow reports whether a request to the endpoint may proceed now.
func (r *RateLimiter) Allow(endpoint string) bool {
	return r.bucket(endpoint).Allow()
}

// Wait blocks until the endpoint's budget admits a request or the context
// is canceled.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	return r.bucket(endpoint).Wait(ctx)
}

// LimitFor returns the budget governing an endpoint.
func (r *RateLimiter) LimitFor(endpoint string) Limit {
	if l, ok := r.limits[endpoint]; ok {
		return l
	}
	return r.fallback
}

// bucket returns the endpoint's token bucket, creating it on first use.
func (r *RateLimiter) bucket(endpoint string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.buckets[endpoint]; ok {
		return b
	}

	l := r.LimitFor(endpoint)
	b := rate.NewLimiter(rate.Limit(l.PerSecond), l.Burst)
	r.buckets[endpoint] = b
	return b
}
