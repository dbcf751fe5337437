// Package cache provides balance caching with optimistic adjustment after
// a broadcast.
package cache

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/mrz1836/satsend/internal/chain"
)

// DefaultStaleness is the duration after which cached balances are
// considered stale and re-fetched.
const DefaultStaleness = 5 * time.Minute

// entry is one cached account balance.
type entry struct {
	balance   chain.Balance
	updatedAt time.Time
}

// BalanceCache stores per-account balance snapshots. Keys are the account's
// identifying address (default xpub for HD accounts, raw address for
// imported ones).
type BalanceCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewBalanceCache creates an empty balance cache.
func NewBalanceCache() *BalanceCache {
	return &BalanceCache{
		entries: make(map[string]entry),
	}
}

// Get retrieves a cached balance. Returns the balance, whether it exists,
// and its age.
func (c *BalanceCache) Get(key string) (chain.Balance, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists {
		return chain.Balance{}, false, 0
	}
	return e.balance, true, time.Since(e.updatedAt)
}

// Set stores a balance snapshot.
func (c *BalanceCache) Set(key string, balance chain.Balance) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{balance: balance, updatedAt: time.Now()}
}

// IsStale reports whether the cached balance should be re-fetched.
func (c *BalanceCache) IsStale(key string) bool {
	return c.IsStaleWithDuration(key, DefaultStaleness)
}

// IsStaleWithDuration checks staleness with a custom duration.
func (c *BalanceCache) IsStaleWithDuration(key string, staleness time.Duration) bool {
	_, exists, age := c.Get(key)
	if !exists {
		return true
	}
	return age > staleness
}

// Decrement optimistically reduces a cached balance by a spent amount plus
// fee, immediately after a successful broadcast. The cache shows the spend
// before the explorer does. Floors at zero; the next refresh reconciles.
func (c *BalanceCache) Decrement(key string, spent btcutil.Amount) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return
	}

	e.balance.Total = floorZero(e.balance.Total - spent)
	e.balance.Spendable = floorZero(e.balance.Spendable - spent)
	c.entries[key] = e
}

// Invalidate removes one cached balance, forcing the next read to fetch.
func (c *BalanceCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear removes all cached balances.
func (c *BalanceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// Size returns the number of cached balances.
func (c *BalanceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func floorZero(a btcutil.Amount) btcutil.Amount {
	if a < 0 {
		return 0
	}
	return a
}
