package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/budgetshare/internal/events"
	"github.com/mmynk/budgetshare/internal/identity"
	"github.com/mmynk/budgetshare/internal/models"
)

// CreateBudgetInput describes a new shared budget.
type CreateBudgetInput struct {
	CallerID    string
	Name        string
	TotalAmount decimal.Decimal
	// Members are user IDs or emails. The caller is always included as owner.
	Members    []string
	Categories []string
}

// BudgetOverview is a budget together with its spending so far.
type BudgetOverview struct {
	Budget    *models.Budget
	Spent     decimal.Decimal
	Remaining decimal.Decimal
}

func newOverview(budget *models.Budget, spent decimal.Decimal) BudgetOverview {
	return BudgetOverview{
		Budget:    budget,
		Spent:     spent,
		Remaining: budget.TotalAmount.Sub(spent),
	}
}

// CreateBudget creates a budget owned by the caller. Every member identifier
// must name a known user.
func (s *LedgerService) CreateBudget(ctx context.Context, in CreateBudgetInput) (*models.Budget, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: total amount cannot be negative", ErrInvalidInput)
	}
	if err := checkAmount("totalAmount", in.TotalAmount); err != nil {
		return nil, err
	}

	ownerID, err := s.resolveUser(ctx, identity.FromID(in.CallerID))
	if err != nil {
		return nil, err
	}

	budget := &models.Budget{
		Name:        name,
		TotalAmount: in.TotalAmount,
		CreatedBy:   ownerID,
		IsActive:    true,
		Members:     []models.Member{{UserID: ownerID, Role: models.RoleOwner}},
	}

	seen := map[string]bool{ownerID: true}
	for _, raw := range in.Members {
		id, err := identity.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: member %q: %v", ErrInvalidInput, raw, err)
		}
		userID, err := s.resolveUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if seen[userID] {
			continue
		}
		seen[userID] = true
		budget.Members = append(budget.Members, models.Member{UserID: userID, Role: models.RoleMember})
	}

	categorySeen := make(map[string]bool, len(in.Categories))
	for _, c := range in.Categories {
		c = strings.TrimSpace(c)
		if c == "" || categorySeen[c] {
			continue
		}
		categorySeen[c] = true
		budget.CategoryIDs = append(budget.CategoryIDs, c)
	}

	if err := s.store.CreateBudget(ctx, budget); err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}

	s.metrics.BudgetsCreated.Inc()
	slog.InfoContext(ctx, "Budget created",
		"budget_id", budget.ID,
		"owner", ownerID,
		"members_count", len(budget.Members),
	)
	s.publish(ctx, events.TypeBudgetCreated, budget.ID, ownerID, events.BudgetCreated{
		Name:        budget.Name,
		TotalAmount: budget.TotalAmount.String(),
		Members:     budget.MemberIDs(),
	})

	return budget, nil
}

func (s *LedgerService) resolveUser(ctx context.Context, id identity.Identifier) (string, error) {
	userID, err := s.resolver.ResolveUser(ctx, id)
	if errors.Is(err, identity.ErrUnknownUser) {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// ListBudgetsForUser returns every budget the caller belongs to with its
// spending, newest first.
func (s *LedgerService) ListBudgetsForUser(ctx context.Context, callerID string) ([]BudgetOverview, error) {
	budgets, err := s.store.ListBudgetsForUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	overviews := make([]BudgetOverview, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(budgetFanOut)
	for i, budget := range budgets {
		g.Go(func() error {
			expenses, err := s.store.ListExpenses(gctx, budget.ID)
			if err != nil {
				return fmt.Errorf("failed to list expenses for budget %s: %w", budget.ID, err)
			}
			overviews[i] = newOverview(budget, sumExpenses(expenses))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return overviews, nil
}

// GetBudget returns one budget the caller belongs to, with its spending.
func (s *LedgerService) GetBudget(ctx context.Context, callerID, budgetID string) (BudgetOverview, error) {
	budget, err := s.loadBudget(ctx, callerID, budgetID)
	if err != nil {
		return BudgetOverview{}, err
	}
	expenses, err := s.store.ListExpenses(ctx, budget.ID)
	if err != nil {
		return BudgetOverview{}, fmt.Errorf("failed to list expenses: %w", err)
	}
	return newOverview(budget, sumExpenses(expenses)), nil
}
