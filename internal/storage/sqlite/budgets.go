package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/storage"
)

// CreateBudget persists a budget, its members and its categories atomically.
func (s *SQLiteStore) CreateBudget(ctx context.Context, budget *models.Budget) error {
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	if budget.CreatedAt == 0 {
		budget.CreatedAt = time.Now().Unix()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, name, total_amount, created_by, is_active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			budget.ID, budget.Name, budget.TotalAmount, budget.CreatedBy, budget.IsActive, budget.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert budget: %w", err)
		}

		for i := range budget.Members {
			m := &budget.Members[i]
			m.BudgetID = budget.ID
			_, err = tx.ExecContext(ctx,
				"INSERT INTO budget_members (budget_id, user_id, role, position) VALUES (?, ?, ?, ?)",
				budget.ID, m.UserID, string(m.Role), i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert member: %w", err)
			}
		}

		for _, category := range budget.CategoryIDs {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO budget_categories (budget_id, category_id) VALUES (?, ?)",
				budget.ID, category,
			)
			if err != nil {
				return fmt.Errorf("failed to insert category: %w", err)
			}
		}
		return nil
	})
}

// GetBudget retrieves a budget by ID, including members and categories.
func (s *SQLiteStore) GetBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	budget, err := scanBudget(s.db.QueryRowContext(ctx,
		`SELECT id, name, total_amount, created_by, is_active, created_at FROM budgets WHERE id = ?`,
		budgetID,
	))
	if errors.Is(err, sql.ErrNoRows) {
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
func (s *SQLiteStore) ListBudgetsForUser(ctx context.Context, userID string) ([]*models.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.name, b.total_amount, b.created_by, b.is_active, b.created_at
		 FROM budgets b
		 JOIN budget_members m ON m.budget_id = b.id
		 WHERE m.user_id = ?
		 ORDER BY b.created_at DESC, b.rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	var budgets []*models.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, budget)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}
	rows.Close()

	for _, budget := range budgets {
		if err := s.loadBudgetDetails(ctx, budget); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

func scanBudget(row scanner) (*models.Budget, error) {
	budget := &models.Budget{}
	err := row.Scan(&budget.ID, &budget.Name, &budget.TotalAmount, &budget.CreatedBy, &budget.IsActive, &budget.CreatedAt)
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *SQLiteStore) loadBudgetDetails(ctx context.Context, budget *models.Budget) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, role FROM budget_members WHERE budget_id = ? ORDER BY position",
		budget.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := models.Member{BudgetID: budget.ID}
		var role string
		if err := rows.Scan(&m.UserID, &role); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = models.Role(role)
		budget.Members = append(budget.Members, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}

	catRows, err := s.db.QueryContext(ctx,
		"SELECT category_id FROM budget_categories WHERE budget_id = ? ORDER BY category_id",
		budget.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get categories: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var category string
		if err := catRows.Scan(&category); err != nil {
			return fmt.Errorf("failed to scan category: %w", err)
		}
		budget.CategoryIDs = append(budget.CategoryIDs, category)
	}
	if err := catRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate categories: %w", err)
	}
	return nil
}
