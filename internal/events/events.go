// Package events publishes ledger domain events after each committed append.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types, also used as routing keys.
const (
	TypeBudgetCreated      = "budget.created"
	TypeExpenseRecorded    = "expense.recorded"
	TypeSettlementRecorded = "settlement.recorded"
)

// Event is the JSON envelope published for every ledger change.
type Event struct {
	Type      string          `json:"type"`
	BudgetID  string          `json:"budget_id"`
	ActorID   string          `json:"actor_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// New builds an event with payload marshaled to JSON.
func New(eventType, budgetID, actorID string, payload any) (Event, error) {
	ev := Event{
		Type:      eventType,
		BudgetID:  budgetID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		ev.Payload = raw
	}
	return ev, nil
}

// ExpenseRecorded is the payload of TypeExpenseRecorded.
type ExpenseRecorded struct {
	ExpenseID     string   `json:"expense_id"`
	TransactionID string   `json:"transaction_id"`
	Amount        string   `json:"amount"`
	PaidBy        string   `json:"paid_by"`
	SplitAmong    []string `json:"split_among"`
}

// SettlementRecorded is the payload of TypeSettlementRecorded.
type SettlementRecorded struct {
	SettlementID string `json:"settlement_id"`
	FromUserID   string `json:"from_user_id"`
	ToUserID     string `json:"to_user_id"`
	Amount       string `json:"amount"`
}

// BudgetCreated is the payload of TypeBudgetCreated.
type BudgetCreated struct {
	Name        string   `json:"name"`
	TotalAmount string   `json:"total_amount"`
	Members     []string `json:"members"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }
