package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/storage"
)

const budgetColumns = `b.id, b.name, b.total_amount::text, b.created_by, b.is_active, b.created_at`

// CreateBudget persists a budget, its members and its categories atomically.
func (s *PostgresStore) CreateBudget(ctx context.Context, budget *models.Budget) error {
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	if budget.CreatedAt == 0 {
		budget.CreatedAt = time.Now().Unix()
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO budgets (id, name, total_amount, created_by, is_active, created_at)
			 VALUES ($1, $2, $3::numeric, $4, $5, $6)`,
			budget.ID, budget.Name, budget.TotalAmount.String(), budget.CreatedBy, budget.IsActive, budget.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert budget: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range budget.Members {
			m := &budget.Members[i]
			m.BudgetID = budget.ID
			batch.Queue(
				`INSERT INTO budget_members (budget_id, user_id, role, position) VALUES ($1, $2, $3, $4)`,
				budget.ID, m.UserID, string(m.Role), i,
			)
		}
		for _, category := range budget.CategoryIDs {
			batch.Queue(
				`INSERT INTO budget_categories (budget_id, category_id) VALUES ($1, $2)`,
				budget.ID, category,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert members and categories: %w", err)
		}
		return nil
	})
}

// GetBudget retrieves a budget by ID, including members and categories.
func (s *PostgresStore) GetBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	budget, err := scanBudget(s.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets b WHERE b.id = $1`, budgetID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("budget %s: %w", budgetID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	if err := s.loadBudgetDetails(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// ListBudgetsForUser returns the budgets the user is a member of, newest first.
func (s *PostgresStore) ListBudgetsForUser(ctx context.Context, userID string) ([]*models.Budget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+budgetColumns+`
		 FROM budgets b
		 JOIN budget_members m ON m.budget_id = b.id
		 WHERE m.user_id = $1
		 ORDER BY b.created_at DESC, b.seq DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	budgets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Budget, error) {
		return scanBudget(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan budgets: %w", err)
	}

	for _, budget := range budgets {
		if err := s.loadBudgetDetails(ctx, budget); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

func scanBudget(row pgx.Row) (*models.Budget, error) {
	budget := &models.Budget{}
	err := row.Scan(&budget.ID, &budget.Name, &budget.TotalAmount, &budget.CreatedBy, &budget.IsActive, &budget.CreatedAt)
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *PostgresStore) loadBudgetDetails(ctx context.Context, budget *models.Budget) error {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, role FROM budget_members WHERE budget_id = $1 ORDER BY position`,
		budget.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Member, error) {
		m := models.Member{BudgetID: budget.ID}
		var role string
		err := row.Scan(&m.UserID, &role)
		m.Role = models.Role(role)
		return m, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan members: %w", err)
	}
	budget.Members = members

	rows, err = s.pool.Query(ctx,
		`SELECT category_id FROM budget_categories WHERE budget_id = $1 ORDER BY category_id`,
		budget.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to scan categories: %w", err)
	}
	if len(categories) > 0 {
		budget.CategoryIDs = categories
	}
	return nil
}
