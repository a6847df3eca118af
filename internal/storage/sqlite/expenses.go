package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/storage"
)

// AppendExpense writes the companion transaction, the expense and its split
// in a single transaction.
func (s *SQLiteStore) AppendExpense(ctx context.Context, expense *models.Expense, txn *models.Transaction) error {
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

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, user_id, budget_id, amount, category, description, date, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.ID, txn.UserID, txn.BudgetID, txn.Amount, txn.Category, txn.Description, txn.Date, txn.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO expenses (id, budget_id, amount, paid_by, transaction_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.BudgetID, expense.Amount, expense.PaidBy, expense.TransactionID, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i, member := range expense.SplitAmong {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_splits (expense_id, member_id, position) VALUES (?, ?, ?)",
				expense.ID, member, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert expense split: %w", err)
			}
		}
		return nil
	})
}

// ListExpenses retrieves all expenses for a budget, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, budgetID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, budget_id, amount, paid_by, transaction_id, created_at
		 FROM expenses WHERE budget_id = ? ORDER BY created_at DESC, rowid DESC`,
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e := &models.Expense{}
		if err := rows.Scan(&e.ID, &e.BudgetID, &e.Amount, &e.PaidBy, &e.TransactionID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	splitRows, err := s.db.QueryContext(ctx,
		`SELECT s.expense_id, s.member_id
		 FROM expense_splits s
		 JOIN expenses e ON e.id = s.expense_id
		 WHERE e.budget_id = ?
		 ORDER BY s.expense_id, s.position`,
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var expenseID, memberID string
		if err := splitRows.Scan(&expenseID, &memberID); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.SplitAmong = append(e.SplitAmong, memberID)
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}

	return expenses, nil
}

// GetTransaction retrieves a companion transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	txn, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, budget_id, amount, category, description, date, source
		 FROM transactions WHERE id = ?`,
		transactionID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// ListLinkedTransactions returns the companion transactions of a budget's
// expenses within the given date bounds, oldest first.
func (s *SQLiteStore) ListLinkedTransactions(ctx context.Context, budgetID string, from, to *int64) ([]*models.Transaction, error) {
	var query strings.Builder
	query.WriteString(`SELECT t.id, t.user_id, t.budget_id, t.amount, t.category, t.description, t.date, t.source
		 FROM transactions t
		 JOIN expenses e ON e.transaction_id = t.id
		 WHERE e.budget_id = ?`)
	args := []any{budgetID}
	if from != nil {
		query.WriteString(" AND t.date >= ?")
		args = append(args, *from)
	}
	if to != nil {
		query.WriteString(" AND t.date <= ?")
		args = append(args, *to)
	}
	query.WriteString(" ORDER BY t.date, t.id")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var budgetID sql.NullString
	err := row.Scan(&txn.ID, &txn.UserID, &budgetID, &txn.Amount, &txn.Category, &txn.Description, &txn.Date, &txn.Source)
	if err != nil {
		return nil, err
	}
	txn.BudgetID = budgetID.String
	return txn, nil
}
