package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/service"
)

func TestAddExpenseRequest_DecodesAmounts(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"number", `{"amount": 12.34}`, "12.34"},
		{"string", `{"amount": "0.1"}`, "0.1"},
		{"integer", `{"amount": 100}`, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AddExpenseRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if !req.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Amount = %s, want %s", req.Amount, tt.want)
			}
		})
	}
}

func TestNewBudget(t *testing.T) {
	o := service.BudgetOverview{
		Budget: &models.Budget{
			ID:          "b1",
			Name:        "Flat",
			TotalAmount: decimal.RequireFromString("100.50"),
			CreatedBy:   "alice",
			IsActive:    true,
			Members: []models.Member{
				{UserID: "alice", Role: models.RoleOwner},
				{UserID: "bob", Role: models.RoleMember},
			},
		},
		Spent:     decimal.RequireFromString("40.25"),
		Remaining: decimal.RequireFromString("60.25"),
	}

	b := NewBudget(o)
	if b.TotalAmount != 100.5 || b.Spent != 40.25 || b.Remaining != 60.25 {
		t.Errorf("amounts = %v %v %v", b.TotalAmount, b.Spent, b.Remaining)
	}
	if len(b.Members) != 2 || b.Members[0].Role != "owner" {
		t.Errorf("members = %+v", b.Members)
	}

	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]any
	json.Unmarshal(raw, &decoded)
	if cats, ok := decoded["categories"].([]any); !ok || len(cats) != 0 {
		t.Errorf("categories = %v, want empty array", decoded["categories"])
	}
}

func TestNewSummary_NullPeriod(t *testing.T) {
	raw, err := json.Marshal(NewSummary(&service.Summary{ByCategory: map[string]decimal.Decimal{}}))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]any
	json.Unmarshal(raw, &decoded)
	if v, ok := decoded["period"]; !ok || v != nil {
		t.Errorf("period = %v, want explicit null", v)
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("%w: budget b1", service.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("%w: amount", service.ErrInvalidInput), http.StatusBadRequest, CodeInvalidInput},
		{fmt.Errorf("%w: paidBy", service.ErrInvalidMember), http.StatusBadRequest, CodeInvalidMember},
		{errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			status, body := ErrorFor(tt.err)
			if status != tt.wantStatus || body.Code != tt.wantCode {
				t.Errorf("ErrorFor(%v) = %d %s, want %d %s", tt.err, status, body.Code, tt.wantStatus, tt.wantCode)
			}
			if tt.wantCode == CodeInternal && body.Error != internalMessage {
				t.Errorf("internal error leaked: %q", body.Error)
			}
		})
	}
}
