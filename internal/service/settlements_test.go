package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/mmynk/budgetshare/internal/cache"
	"github.com/mmynk/budgetshare/internal/calculator"
	"github.com/mmynk/budgetshare/internal/metrics"
)

func netByMember(balances []calculator.MemberBalance) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		out[b.MemberID] = b.Net
	}
	return out
}

func netOf(t *testing.T, svc *LedgerService, caller, budgetID string) map[string]decimal.Decimal {
	t.Helper()
	balances, err := svc.ComputeBalances(context.Background(), caller, budgetID)
	if err != nil {
		t.Fatalf("ComputeBalances failed: %v", err)
	}
	return netByMember(balances)
}

func TestScenarioA(t *testing.T) {
	svc, _ := newTestService(t)
	budget := createBudget(t, svc, "alice", "bob")
	addExpense(t, svc, budget.ID, "100", "alice", "alice", "bob")

	net := netOf(t, svc, "alice", budget.ID)
	if !net["alice"].Equal(d("50")) || !net["bob"].Equal(d("-50")) {
		t.Errorf("balances = %v, want alice +50 bob -50", net)
	}

	transfers, err := svc.PlanTransfers(context.Background(), "bob", budget.ID)
	if err != nil {
		t.Fatalf("PlanTransfers failed: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("transfers = %+v, want 1", transfers)
	}
	if tr := transfers[0]; tr.From != "bob" || tr.To != "alice" || !tr.Amount.Equal(d("50")) {
		t.Errorf("transfer = %+v, want bob -> alice 50", tr)
	}
}

func TestScenarioB(t *testing.T) {
	svc, _ := newTestService(t)
	budget := createBudget(t, svc, "alice", "bob", "carol")
	addExpense(t, svc, budget.ID, "90", "alice", "alice", "bob", "carol")
	addExpense(t, svc, budget.ID, "30", "bob", "bob", "carol")

	balances, err := svc.ComputeBalances(context.Background(), "carol", budget.ID)
	if err != nil {
		t.Fatalf("ComputeBalances failed: %v", err)
	}
	if balances[0].MemberID != "alice" || balances[2].MemberID != "carol" {
		t.Errorf("balances not in membership order: %+v", balances)
	}
	net := netByMember(balances)
	if !net["alice"].Equal(d("60")) || !net["bob"].Equal(d("-15")) || !net["carol"].Equal(d("-45")) {
		t.Errorf("balances = %v, want alice +60 bob -15 carol -45", net)
	}
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b.Net)
	}
	if !calculator.IsSettled(sum) {
		t.Errorf("sum = %s, want ~0", sum)
	}

	transfers, err := svc.PlanTransfers(context.Background(), "alice", budget.ID)
	if err != nil {
		t.Fatalf("PlanTransfers failed: %v", err)
	}
	total := decimal.Zero
	for _, tr := range transfers {
		if tr.To != "alice" {
			t.Errorf("transfer %+v should go to alice", tr)
		}
		total = total.Add(tr.Amount)
	}
	if !total.Equal(d("60")) {
		t.Errorf("transfers total %s, want 60", total)
	}
}

func TestRecordSettlement(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	budget := createBudget(t, svc, "alice", "bob", "carol")
	addExpense(t, svc, budget.ID, "90", "alice", "alice", "bob", "carol")
	addExpense(t, svc, budget.ID, "30", "bob", "bob", "carol")

	transfers, err := svc.PlanTransfers(ctx, "alice", budget.ID)
	if err != nil {
		t.Fatalf("PlanTransfers failed: %v", err)
	}
	for _, tr := range transfers {
		settlement, err := svc.RecordSettlement(ctx, RecordSettlementInput{
			CallerID: "carol",
			BudgetID: budget.ID,
			From:     tr.From,
			To:       tr.To + "@example.com",
			Amount:   tr.Amount,
			Note:     " bank transfer ",
		})
		if err != nil {
			t.Fatalf("RecordSettlement failed: %v", err)
		}
		if settlement.CreatedBy != "carol" || settlement.ToUserID != tr.To || settlement.Note != "bank transfer" {
			t.Errorf("settlement = %+v", settlement)
		}
	}

	for member, net := range netOf(t, svc, "alice", budget.ID) {
		if !calculator.IsSettled(net) {
			t.Errorf("%s not settled after applying plan: %s", member, net)
		}
	}

	after, err := svc.PlanTransfers(ctx, "alice", budget.ID)
	if err != nil {
		t.Fatalf("PlanTransfers failed: %v", err)
	}
	if after == nil || len(after) != 0 {
		t.Errorf("plan after settling = %+v, want empty", after)
	}

	recorded, err := svc.ListSettlements(ctx, "bob", budget.ID)
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(recorded) != len(transfers) {
		t.Errorf("recorded settlements = %d, want %d", len(recorded), len(transfers))
	}
}

func TestRecordSettlement_Preconditions(t *testing.T) {
	svc, store := newTestService(t)
	budget := createBudget(t, svc, "alice", "bob")

	tests := []struct {
		name    string
		input   RecordSettlementInput
		wantErr error
	}{
		{
			name:    "caller not a member",
			input:   RecordSettlementInput{CallerID: "dave", From: "bob", To: "alice", Amount: d("5")},
			wantErr: ErrNotFound,
		},
		{
			name:    "zero amount",
			input:   RecordSettlementInput{CallerID: "alice", From: "bob", To: "alice", Amount: d("0")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "amount with huge exponent",
			input:   RecordSettlementInput{CallerID: "alice", From: "bob", To: "alice", Amount: d("1e20000000")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "amount with nine decimal places",
			input:   RecordSettlementInput{CallerID: "alice", From: "bob", To: "alice", Amount: d("0.000000001")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "non-member sender",
			input:   RecordSettlementInput{CallerID: "alice", From: "dave", To: "alice", Amount: d("5")},
			wantErr: ErrInvalidMember,
		},
		{
			name:    "non-member receiver",
			input:   RecordSettlementInput{CallerID: "alice", From: "bob", To: "dave@example.com", Amount: d("5")},
			wantErr: ErrInvalidMember,
		},
		{
			name:    "same member both sides",
			input:   RecordSettlementInput{CallerID: "alice", From: "bob", To: "bob@example.com", Amount: d("5")},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.BudgetID = budget.ID
			_, err := svc.RecordSettlement(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordSettlement() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	settlements, err := store.ListSettlements(context.Background(), budget.ID)
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(settlements) != 0 {
		t.Errorf("rejected settlements left %d rows", len(settlements))
	}
}

func TestPlanTransfers_MatchOrderOption(t *testing.T) {
	// carol owes 10, bob owes 30: magnitude order pays bob first, listed order carol.
	setup := func(t *testing.T, order calculator.MatchOrder) []calculator.Transfer {
		svc, _ := newTestService(t, WithMatchOrder(order))
		budget := createBudget(t, svc, "alice", "carol", "bob")
		addExpense(t, svc, budget.ID, "10", "alice", "carol")
		addExpense(t, svc, budget.ID, "30", "alice", "bob")

		transfers, err := svc.PlanTransfers(context.Background(), "alice", budget.ID)
		if err != nil {
			t.Fatalf("PlanTransfers failed: %v", err)
		}
		if len(transfers) != 2 {
			t.Fatalf("transfers = %+v, want 2", transfers)
		}
		return transfers
	}

	if got := setup(t, calculator.MatchByMagnitude); got[0].From != "bob" {
		t.Errorf("magnitude order starts with %s, want bob", got[0].From)
	}
	if got := setup(t, calculator.MatchAsListed); got[0].From != "carol" {
		t.Errorf("listed order starts with %s, want carol", got[0].From)
	}
}

func TestComputeBalances_Cache(t *testing.T) {
	balanceCache, err := cache.New(1000)
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	t.Cleanup(balanceCache.Close)
	m := metrics.New(prometheus.NewRegistry())
	svc, _ := newTestService(t, WithBalanceCache(balanceCache), WithMetrics(m))

	budget := createBudget(t, svc, "alice", "bob")
	addExpense(t, svc, budget.ID, "100", "alice", "alice", "bob")

	first := netOf(t, svc, "alice", budget.ID)
	balanceCache.Wait()
	second := netOf(t, svc, "bob", budget.ID)
	if !first["bob"].Equal(second["bob"]) {
		t.Errorf("cached balance differs: %s vs %s", first["bob"], second["bob"])
	}

	if got := testutil.ToFloat64(m.BalanceComputations.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BalanceComputations.WithLabelValues("hit")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}

	// An append must be visible on the next read.
	addExpense(t, svc, budget.ID, "40", "bob", "alice", "bob")
	third := netOf(t, svc, "alice", budget.ID)
	if !third["alice"].Equal(d("30")) || !third["bob"].Equal(d("-30")) {
		t.Errorf("balances after append = %v, want alice +30 bob -30", third)
	}

	if _, err := svc.RecordSettlement(context.Background(), RecordSettlementInput{
		CallerID: "bob", BudgetID: budget.ID, From: "bob", To: "alice", Amount: d("30"),
	}); err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	for member, net := range netOf(t, svc, "alice", budget.ID) {
		if !net.IsZero() {
			t.Errorf("%s = %s after settling, want 0", member, net)
		}
	}
}

func TestComputeBalances_NonMember(t *testing.T) {
	svc, _ := newTestService(t)
	budget := createBudget(t, svc, "alice", "bob")

	if _, err := svc.ComputeBalances(context.Background(), "dave", budget.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("ComputeBalances error = %v, want ErrNotFound", err)
	}
	if _, err := svc.PlanTransfers(context.Background(), "dave", budget.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("PlanTransfers error = %v, want ErrNotFound", err)
	}
}
