// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "budgetshare"

// Metrics holds every collector the server records to.
type Metrics struct {
	BudgetsCreated      prometheus.Counter
	ExpensesRecorded    prometheus.Counter
	SettlementsRecorded prometheus.Counter

	// BalanceComputations counts balance requests by cache result (hit, miss, disabled).
	BalanceComputations *prometheus.CounterVec
	TransfersPlanned    prometheus.Histogram
	EventPublishErrors  *prometheus.CounterVec

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BudgetsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budgets_created_total",
			Help:      "Shared budgets created.",
		}),
		ExpensesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Expenses appended to budget ledgers.",
		}),
		SettlementsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_recorded_total",
			Help:      "Settlements appended to budget ledgers.",
		}),
		BalanceComputations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_computations_total",
			Help:      "Balance requests by cache result.",
		}, []string{"cache"}),
		TransfersPlanned: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfers_planned",
			Help:      "Number of transfers in each suggested settlement plan.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		EventPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Domain events that could not be published.",
		}, []string{"type"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors
// plus the server's own collectors.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, New(reg)
}
