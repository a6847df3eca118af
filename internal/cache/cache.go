// Package cache memoizes computed balances per budget.
//
// Entries are keyed by (budget, generation). Every ledger append bumps the
// budget's generation, so readers that loaded the logs before the append can
// only populate a key nobody asks for again.
package cache

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mmynk/budgetshare/internal/calculator"
)

// BalanceCache is a bounded cache of computed budget balances.
type BalanceCache struct {
	cache *ristretto.Cache[string, []calculator.MemberBalance]

	mu          sync.Mutex
	generations map[string]uint64
}

// New creates a BalanceCache. maxCost bounds the total number of member
// balances held across all budgets.
func New(maxCost int64) (*BalanceCache, error) {
	if maxCost <= 0 {
		return nil, fmt.Errorf("max cost must be positive, got %d", maxCost)
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []calculator.MemberBalance]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,

		// Costs count member balances, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create balance cache: %w", err)
	}
	return &BalanceCache{
		cache:       c,
		generations: make(map[string]uint64),
	}, nil
}

// Generation returns the budget's current generation. Read it before loading
// the ledger and pass it to Set afterwards.
func (c *BalanceCache) Generation(budgetID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[budgetID]
}

// Invalidate bumps the budget's generation.
func (c *BalanceCache) Invalidate(budgetID string) {
	c.mu.Lock()
	c.generations[budgetID]++
	c.mu.Unlock()
}

// Get returns a copy of the balances cached for the budget at generation gen.
func (c *BalanceCache) Get(budgetID string, gen uint64) ([]calculator.MemberBalance, bool) {
	balances, ok := c.cache.Get(key(budgetID, gen))
	if !ok {
		return nil, false
	}
	out := make([]calculator.MemberBalance, len(balances))
	copy(out, balances)
	return out, true
}

// Set caches balances computed from a ledger read at generation gen.
// Sets for an outdated generation are ignored.
func (c *BalanceCache) Set(budgetID string, gen uint64, balances []calculator.MemberBalance) {
	if gen != c.Generation(budgetID) {
		return
	}
	stored := make([]calculator.MemberBalance, len(balances))
	copy(stored, balances)
	c.cache.Set(key(budgetID, gen), stored, int64(max(len(stored), 1)))
}

// Wait blocks until pending Sets are visible to Get.
func (c *BalanceCache) Wait() {
	c.cache.Wait()
}

// Close stops the cache's background goroutines.
func (c *BalanceCache) Close() {
	c.cache.Close()
}

func key(budgetID string, gen uint64) string {
	return fmt.Sprintf("%s/%d", budgetID, gen)
}
