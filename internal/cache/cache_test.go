package cache

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/budgetshare/internal/calculator"
)

func newTestCache(t *testing.T) *BalanceCache {
	t.Helper()
	c, err := New(1000)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func sampleBalances() []calculator.MemberBalance {
	return []calculator.MemberBalance{
		{MemberID: "alice", Net: decimal.NewFromInt(50)},
		{MemberID: "bob", Net: decimal.NewFromInt(-50)},
	}
}

func TestNew_RejectsNonPositiveCost(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("expected error for zero max cost")
	}
}

func TestBalanceCache_SetGet(t *testing.T) {
	c := newTestCache(t)

	gen := c.Generation("b1")
	c.Set("b1", gen, sampleBalances())
	c.Wait()

	got, ok := c.Get("b1", gen)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].MemberID != "alice" || !got[1].Net.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("Get = %+v", got)
	}

	if _, ok := c.Get("b2", 0); ok {
		t.Error("expected miss for unknown budget")
	}
}

func TestBalanceCache_InvalidateBumpsGeneration(t *testing.T) {
	c := newTestCache(t)

	gen := c.Generation("b1")
	c.Set("b1", gen, sampleBalances())
	c.Wait()

	c.Invalidate("b1")

	next := c.Generation("b1")
	if next != gen+1 {
		t.Fatalf("Generation = %d, want %d", next, gen+1)
	}
	if _, ok := c.Get("b1", next); ok {
		t.Error("expected miss after invalidation")
	}
	if c.Generation("b2") != 0 {
		t.Error("invalidating one budget should not touch another")
	}
}

func TestBalanceCache_StaleSetIgnored(t *testing.T) {
	c := newTestCache(t)

	// A reader loads the ledger at gen 0, then an append lands.
	stale := c.Generation("b1")
	c.Invalidate("b1")

	c.Set("b1", stale, sampleBalances())
	c.Wait()

	if _, ok := c.Get("b1", stale); ok {
		t.Error("stale set should not be cached")
	}
	if _, ok := c.Get("b1", c.Generation("b1")); ok {
		t.Error("stale set should not be visible at the current generation")
	}
}

func TestBalanceCache_ReturnsCopies(t *testing.T) {
	c := newTestCache(t)

	in := sampleBalances()
	c.Set("b1", 0, in)
	c.Wait()
	in[0].MemberID = "mutated"

	got, ok := c.Get("b1", 0)
	if !ok {
		t.Fatal("expected cache hit")
	}
	got[1].MemberID = "mutated"

	again, _ := c.Get("b1", 0)
	if again[0].MemberID != "alice" || again[1].MemberID != "bob" {
		t.Errorf("cached value was mutated: %+v", again)
	}
}
