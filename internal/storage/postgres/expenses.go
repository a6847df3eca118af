package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/storage"
)

const transactionColumns = `t.id, t.user_id, t.budget_id, t.amount::text, t.category, t.description, t.date, t.source`

// AppendExpense writes the companion transaction, the expense and its split
// in a single transaction.
func (s *PostgresStore) AppendExpense(ctx context.Context, expense *models.Expense, txn *models.Transaction) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.Date == 0 {
		txn.Date = expense.CreatedAt
	}
	txn.BudgetID = expense.BudgetID
	expense.TransactionID = txn.ID

	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO transactions (id, user_id, budget_id, amount, category, description, date, source)
			 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
			txn.ID, txn.UserID, txn.BudgetID, txn.Amount.String(), txn.Category, txn.Description, txn.Date, txn.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO expenses (id, budget_id, amount, paid_by, transaction_id, created_at)
			 VALUES ($1, $2, $3::numeric, $4, $5, $6)`,
			expense.ID, expense.BudgetID, expense.Amount.String(), expense.PaidBy, expense.TransactionID, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		splits := make([][]any, len(expense.SplitAmong))
		for i, member := range expense.SplitAmong {
			splits[i] = []any{expense.ID, member, i}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"expense_splits"},
			[]string{"expense_id", "member_id", "position"},
			pgx.CopyFromRows(splits),
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
		return nil
	})
}

// ListExpenses retrieves all expenses for a budget, newest first.
func (s *PostgresStore) ListExpenses(ctx context.Context, budgetID string) ([]*models.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.id, e.budget_id, e.amount::text, e.paid_by, e.transaction_id, e.created_at,
		        COALESCE(array_agg(s.member_id ORDER BY s.position) FILTER (WHERE s.member_id IS NOT NULL), '{}')
		 FROM expenses e
		 LEFT JOIN expense_splits s ON s.expense_id = e.id
		 WHERE e.budget_id = $1
		 GROUP BY e.seq, e.id
		 ORDER BY e.created_at DESC, e.seq DESC`,
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Expense, error) {
		e := &models.Expense{}
		err := row.Scan(&e.ID, &e.BudgetID, &e.Amount, &e.PaidBy, &e.TransactionID, &e.CreatedAt, &e.SplitAmong)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan expenses: %w", err)
	}
	return expenses, nil
}

// GetTransaction retrieves a companion transaction by ID.
func (s *PostgresStore) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	txn, err := scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions t WHERE t.id = $1`, transactionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// ListLinkedTransactions returns the companion transactions of a budget's
// expenses within the given date bounds, oldest first.
func (s *PostgresStore) ListLinkedTransactions(ctx context.Context, budgetID string, from, to *int64) ([]*models.Transaction, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + transactionColumns + `
		 FROM transactions t
		 JOIN expenses e ON e.transaction_id = t.id
		 WHERE e.budget_id = $1`)
	args := []any{budgetID}
	if from != nil {
		args = append(args, *from)
		fmt.Fprintf(&query, " AND t.date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		fmt.Fprintf(&query, " AND t.date <= $%d", len(args))
	}
	query.WriteString(" ORDER BY t.date, t.id")

	rows, err := s.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	txns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}
	return txns, nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var budgetID *string
	err := row.Scan(&txn.ID, &txn.UserID, &budgetID, &txn.Amount, &txn.Category, &txn.Description, &txn.Date, &txn.Source)
	if err != nil {
		return nil, err
	}
	if budgetID != nil {
		txn.BudgetID = *budgetID
	}
	return txn, nil
}
