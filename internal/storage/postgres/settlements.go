package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/budgetshare/internal/models"
)

// AppendSettlement persists a new settlement.
func (s *PostgresStore) AppendSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	var note *string
	if settlement.Note != "" {
		note = &settlement.Note
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO settlements (id, budget_id, from_user_id, to_user_id, amount, created_at, created_by, note)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)`,
		settlement.ID, settlement.BudgetID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount.String(), settlement.CreatedAt, settlement.CreatedBy, note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlements retrieves all settlements for a budget, newest first.
func (s *PostgresStore) ListSettlements(ctx context.Context, budgetID string) ([]*models.Settlement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, budget_id, from_user_id, to_user_id, amount::text, created_at, created_by, COALESCE(note, '')
		 FROM settlements WHERE budget_id = $1 ORDER BY created_at DESC, seq DESC`,
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by budget: %w", err)
	}
	settlements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Settlement, error) {
		st := &models.Settlement{}
		err := row.Scan(&st.ID, &st.BudgetID, &st.FromUserID, &st.ToUserID,
			&st.Amount, &st.CreatedAt, &st.CreatedBy, &st.Note)
		return st, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan settlements: %w", err)
	}
	return settlements, nil
}
