package chain_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/satsend/internal/chain"
)

// TestRateLimiter_PerEndpointBudgets tests that overridden endpoints get
// their own budget while the rest share the fallback.
func TestRateLimiter_PerEndpointBudgets(t *testing.T) {
	t.Parallel()

	limiter := chain.NewRateLimiter(
		chain.Limit{PerSecond: 1, Burst: 2},
		map[string]chain.Limit{"broadcast": {PerSecond: 1, Burst: 1}},
	)

	// Broadcast has a single-request burst
	assert.True(t, limiter.Allow("broadcast"))
	assert.False(t, limiter.Allow("broadcast"))

	// Fallback endpoints burst to two, independently of each other
	assert.True(t, limiter.Allow("balance"))
	assert.True(t, limiter.Allow("balance"))
	assert.False(t, limiter.Allow("balance"))
	assert.True(t, limiter.Allow("unspent"))
}

// TestRateLimiter_LimitFor tests budget resolution.
func TestRateLimiter_LimitFor(t *testing.T) {
	t.Parallel()

	fallback := chain.Limit{PerSecond: 5, Burst: 10}
	limiter := chain.NewRateLimiter(fallback,
		map[string]chain.Limit{"broadcast": {PerSecond: 1, Burst: 1}})

	assert.Equal(t, chain.Limit{PerSecond: 1, Burst: 1}, limiter.LimitFor("broadcast"))
	assert.Equal(t, fallback, limiter.LimitFor("fees"))
}

// TestRateLimiter_Wait tests that an exhausted budget delays the next
// request instead of rejecting it.
func TestRateLimiter_Wait(t *testing.T) {
	t.Parallel()

	limiter := chain.NewRateLimiter(chain.Limit{PerSecond: 50, Burst: 1}, nil)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "fees"))
	require.NoError(t, limiter.Wait(ctx, "fees"))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

// TestRateLimiter_WaitContextCanceled tests that Wait honors cancellation
// while blocked.
func TestRateLimiter_WaitContextCanceled(t *testing.T) {
	t.Parallel()

	limiter := chain.NewRateLimiter(chain.Limit{PerSecond: 0.1, Burst: 1}, nil)
	require.True(t, limiter.Allow("balance"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, limiter.Wait(ctx, "balance"))
}

// TestRateLimiter_Concurrent tests concurrent use across endpoints.
func TestRateLimiter_Concurrent(t *testing.T) {
	t.Parallel()

	limiter := chain.NewRateLimiter(chain.Limit{PerSecond: 100, Burst: 100}, nil)
	endpoints := []string{"balance", "unspent", "fees", "ticker", "orders"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()
			limiter.Allow(endpoint)
		}(endpoints[i%len(endpoints)])
	}
	wg.Wait()
}
