// Package service implements the shared-budget ledger: budgets and their
// members, the expense and settlement logs, and the balances and transfer
// plans derived from them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/budgetshare/internal/cache"
	"github.com/mmynk/budgetshare/internal/calculator"
	"github.com/mmynk/budgetshare/internal/events"
	"github.com/mmynk/budgetshare/internal/identity"
	"github.com/mmynk/budgetshare/internal/metrics"
	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/storage"
)

// DefaultCategory is used for expenses recorded without a category.
const DefaultCategory = "shared"

// budgetFanOut bounds concurrent ledger reads when listing budgets.
const budgetFanOut = 8

// LedgerService is the transport-neutral core used by the REST and RPC surfaces.
type LedgerService struct {
	store      storage.Store
	resolver   *identity.Resolver
	balances   *cache.BalanceCache
	publisher  events.Publisher
	metrics    *metrics.Metrics
	matchOrder calculator.MatchOrder
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithBalanceCache memoizes computed balances.
func WithBalanceCache(c *cache.BalanceCache) Option {
	return func(s *LedgerService) { s.balances = c }
}

// WithPublisher publishes domain events after every committed append.
func WithPublisher(p events.Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithMetrics records ledger activity to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) { s.metrics = m }
}

// WithMatchOrder selects how the transfer planner walks debtors and creditors.
func WithMatchOrder(order calculator.MatchOrder) Option {
	return func(s *LedgerService) { s.matchOrder = order }
}

// NewLedgerService creates a LedgerService backed by store. Without options
// it recomputes balances on every call, publishes nothing and records metrics
// to a private registry.
func NewLedgerService(store storage.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:      store,
		resolver:   identity.NewResolver(store),
		publisher:  events.Noop{},
		matchOrder: calculator.MatchByMagnitude,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	return s
}

// loadBudget returns the budget if it exists and callerID is a member of it.
// Non-members get ErrNotFound so budget IDs are not disclosed.
func (s *LedgerService) loadBudget(ctx context.Context, callerID, budgetID string) (*models.Budget, error) {
	budget, err := s.store.GetBudget(ctx, budgetID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: budget %s", ErrNotFound, budgetID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	if !budget.HasMember(callerID) {
		return nil, fmt.Errorf("%w: budget %s", ErrNotFound, budgetID)
	}
	return budget, nil
}

// publish sends an event after a committed append. Failures are logged, not
// returned: the ledger row is already durable.
func (s *LedgerService) publish(ctx context.Context, eventType, budgetID, actorID string, payload any) {
	ev, err := events.New(eventType, budgetID, actorID, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		s.metrics.EventPublishErrors.WithLabelValues(eventType).Inc()
		slog.WarnContext(ctx, "Failed to publish event",
			"type", eventType,
			"budget_id", budgetID,
			"error", err,
		)
	}
}

// invalidate marks cached balances of the budget as stale.
func (s *LedgerService) invalidate(budgetID string) {
	if s.balances != nil {
		s.balances.Invalidate(budgetID)
	}
}

func sumExpenses(expenses []*models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func checkAmount(field string, amount decimal.Decimal) error {
	if err := calculator.CheckBounds(amount); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, field, err)
	}
	return nil
}

// resolveMemberError maps resolver failures onto the service's categories.
func resolveMemberError(field string, err error) error {
	if errors.Is(err, identity.ErrNotMember) || errors.Is(err, identity.ErrEmptyIdentifier) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidMember, field, err)
	}
	return fmt.Errorf("failed to resolve %s: %w", field, err)
}
