package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/satsend/internal/chain"
)

// TestBalanceCache_GetSet tests the basic store and retrieve path.
func TestBalanceCache_GetSet(t *testing.T) {
	t.Parallel()

	c := NewBalanceCache()

	_, exists, _ := c.Get("xpub1")
	assert.False(t, exists)

	c.Set("xpub1", chain.Balance{Total: 500_000, Spendable: 400_000, Pending: 100_000})

	balance, exists, age := c.Get("xpub1")
	require.True(t, exists)
	assert.Equal(t, chain.Balance{Total: 500_000, Spendable: 400_000, Pending: 100_000}, balance)
	assert.Less(t, age, time.Second)
	assert.Equal(t, 1, c.Size())
}

// TestBalanceCache_Staleness tests the refresh heuristic.
func TestBalanceCache_Staleness(t *testing.T) {
	t.Parallel()

	c := NewBalanceCache()

	// Missing entries are always stale
	assert.True(t, c.IsStale("xpub1"))

	c.Set("xpub1", chain.Balance{Total: 100})
	assert.False(t, c.IsStale("xpub1"))

	// With a zero staleness window any age counts as stale
	time.Sleep(2 * time.Millisecond)
	assert.True(t, c.IsStaleWithDuration("xpub1", 0))
	assert.False(t, c.IsStaleWithDuration("xpub1", time.Minute))
}

// TestBalanceCache_Decrement tests the optimistic post-broadcast adjustment.
func TestBalanceCache_Decrement(t *testing.T) {
	t.Parallel()

	c := NewBalanceCache()
	c.Set("xpub1", chain.Balance{Total: 500_000, Spendable: 500_000})

	c.Decrement("xpub1", 200_000)
	balance, _, _ := c.Get("xpub1")
	assert.Equal(t, chain.Balance{Total: 300_000, Spendable: 300_000}, balance)

	// Over-decrement floors at zero rather than going negative
	c.Decrement("xpub1", 999_999_999)
	balance, _, _ = c.Get("xpub1")
	assert.Equal(t, chain.Balance{Total: 0, Spendable: 0}, balance)

	// Decrementing an absent key is a no-op
	c.Decrement("missing", 100)
	assert.Equal(t, 1, c.Size())
}

// TestBalanceCache_InvalidateAndClear tests eviction.
func TestBalanceCache_InvalidateAndClear(t *testing.T) {
	t.Parallel()

	c := NewBalanceCache()
	c.Set("a", chain.Balance{Total: 1})
	c.Set("b", chain.Balance{Total: 2})

	c.Invalidate("a")
	_, exists, _ := c.Get("a")
	assert.False(t, exists)
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}
