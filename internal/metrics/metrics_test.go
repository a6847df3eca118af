package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ExpensesRecorded.Inc()
	m.BalanceComputations.WithLabelValues("hit").Inc()
	m.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()

	if got := testutil.ToFloat64(m.ExpensesRecorded); got != 1 {
		t.Errorf("expenses_recorded_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BalanceComputations.WithLabelValues("hit")); got != 1 {
		t.Errorf("balance_computations_total{cache=hit} = %v, want 1", got)
	}

	count, err := testutil.GatherAndCount(reg, "budgetshare_http_requests_total")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("http_requests_total series = %d, want 1", count)
	}
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected second registration on the same registry to panic")
		}
	}()
	New(reg)
}

func TestNewRegistry(t *testing.T) {
	reg, m := NewRegistry()
	m.BudgetsCreated.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var sawRuntime, sawOwn bool
	for _, f := range families {
		switch f.GetName() {
		case "go_goroutines":
			sawRuntime = true
		case "budgetshare_budgets_created_total":
			sawOwn = true
		}
	}
	if !sawRuntime || !sawOwn {
		t.Errorf("runtime collectors = %v, own collectors = %v; want both", sawRuntime, sawOwn)
	}
}
