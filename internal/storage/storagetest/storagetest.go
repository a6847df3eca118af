// Package storagetest provides a conformance suite for storage.Store
// implementations.
package storagetest

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/storage"
)

// Run exercises every storage.Store operation against stores built by newStore.
// Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("Expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("ExpenseAtomicity", func(t *testing.T) { testExpenseAtomicity(t, newStore(t)) })
	t.Run("Settlements", func(t *testing.T) { testSettlements(t, newStore(t)) })
	t.Run("LinkedTransactions", func(t *testing.T) { testLinkedTransactions(t, newStore(t)) })
}

func testUsers(t *testing.T, store storage.Store) {
	ctx := context.Background()

	user := &models.User{Email: "  Alice@Example.com ", DisplayName: "Alice"}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected user ID to be generated")
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized alice@example.com", byID.Email)
	}

	byEmail, err := store.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("GetUserByEmail ID = %s, want %s", byEmail.ID, user.ID)
	}

	if _, err := store.GetUserByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing id, got %v", err)
	}
	if _, err := store.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing email, got %v", err)
	}

	dup := &models.User{Email: "alice@example.com"}
	if err := store.CreateUser(ctx, dup); err == nil {
		t.Error("expected error for duplicate email")
	}
}

// NewBudget returns an unsaved budget owned by owner with the given members.
func NewBudget(name, total, owner string, members ...string) *models.Budget {
	budget := &models.Budget{
		Name:        name,
		TotalAmount: decimal.RequireFromString(total),
		CreatedBy:   owner,
		IsActive:    true,
		Members:     []models.Member{{UserID: owner, Role: models.RoleOwner}},
	}
	for _, m := range members {
		budget.Members = append(budget.Members, models.Member{UserID: m, Role: models.RoleMember})
	}
	return budget
}

func testBudgets(t *testing.T, store storage.Store) {
	ctx := context.Background()

	budget := NewBudget("Flat", "1500.50", "alice", "bob", "carol")
	budget.CategoryIDs = []string{"rent", "groceries"}
	if err := store.CreateBudget(ctx, budget); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}
	if budget.ID == "" || budget.CreatedAt == 0 {
		t.Fatalf("Expected ID and CreatedAt to be set, got %+v", budget)
	}

	got, err := store.GetBudget(ctx, budget.ID)
	if err != nil {
		t.Fatalf("GetBudget failed: %v", err)
	}
	if got.Name != "Flat" || !got.TotalAmount.Equal(decimal.RequireFromString("1500.50")) {
		t.Errorf("GetBudget = %+v", got)
	}
	if !got.IsActive {
		t.Error("Expected budget to be active")
	}
	if len(got.Members) != 3 {
		t.Fatalf("Members count = %d, want 3", len(got.Members))
	}
	if got.Members[0].UserID != "alice" || got.Members[0].Role != models.RoleOwner {
		t.Errorf("first member = %+v, want alice as owner", got.Members[0])
	}
	if got.Members[2].UserID != "carol" || got.Members[2].Role != models.RoleMember {
		t.Errorf("third member = %+v, want carol as member", got.Members[2])
	}
	if len(got.CategoryIDs) != 2 {
		t.Errorf("CategoryIDs = %v, want 2 entries", got.CategoryIDs)
	}

	other := NewBudget("Trip", "300", "bob", "dave")
	if err := store.CreateBudget(ctx, other); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}

	forBob, err := store.ListBudgetsForUser(ctx, "bob")
	if err != nil {
		t.Fatalf("ListBudgetsForUser failed: %v", err)
	}
	if len(forBob) != 2 {
		t.Fatalf("bob budgets = %d, want 2", len(forBob))
	}
	for _, b := range forBob {
		if len(b.Members) == 0 {
			t.Errorf("budget %s listed without members", b.ID)
		}
	}

	forCarol, err := store.ListBudgetsForUser(ctx, "carol")
	if err != nil {
		t.Fatalf("ListBudgetsForUser failed: %v", err)
	}
	if len(forCarol) != 1 || forCarol[0].ID != budget.ID {
		t.Errorf("carol budgets = %+v, want only %s", forCarol, budget.ID)
	}

	forNobody, err := store.ListBudgetsForUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListBudgetsForUser failed: %v", err)
	}
	if len(forNobody) != 0 {
		t.Errorf("expected no budgets, got %d", len(forNobody))
	}

	if _, err := store.GetBudget(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func appendExpense(t *testing.T, store storage.Store, budgetID, paidBy, amount string, createdAt int64, split ...string) *models.Expense {
	t.Helper()
	expense := &models.Expense{
		BudgetID:   budgetID,
		Amount:     decimal.RequireFromString(amount),
		PaidBy:     paidBy,
		SplitAmong: split,
		CreatedAt:  createdAt,
	}
	txn := &models.Transaction{
		UserID:      paidBy,
		Amount:      expense.Amount,
		Category:    "groceries",
		Description: "weekly shop",
		Source:      models.TransactionSourceSharedBudget,
	}
	if err := store.AppendExpense(context.Background(), expense, txn); err != nil {
		t.Fatalf("AppendExpense failed: %v", err)
	}
	return expense
}

func testExpenses(t *testing.T, store storage.Store) {
	ctx := context.Background()

	budget := NewBudget("Flat", "1000", "alice", "bob", "carol")
	if err := store.CreateBudget(ctx, budget); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}

	first := appendExpense(t, store, budget.ID, "alice", "100.3333", 1000, "carol", "alice", "bob")
	second := appendExpense(t, store, budget.ID, "bob", "30", 2000, "bob", "carol")

	if first.ID == "" || first.TransactionID == "" {
		t.Fatalf("Expected IDs to be generated, got %+v", first)
	}

	expenses, err := store.ListExpenses(ctx, budget.ID)
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expenses = %d, want 2", len(expenses))
	}
	if expenses[0].ID != second.ID {
		t.Errorf("expected newest first, got %s", expenses[0].ID)
	}

	got := expenses[1]
	if !got.Amount.Equal(decimal.RequireFromString("100.3333")) {
		t.Errorf("Amount = %s, want 100.3333", got.Amount)
	}
	want := []string{"carol", "alice", "bob"}
	if len(got.SplitAmong) != len(want) {
		t.Fatalf("SplitAmong = %v, want %v", got.SplitAmong, want)
	}
	for i := range want {
		if got.SplitAmong[i] != want[i] {
			t.Errorf("SplitAmong[%d] = %s, want %s", i, got.SplitAmong[i], want[i])
		}
	}

	txn, err := store.GetTransaction(ctx, got.TransactionID)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if txn.BudgetID != budget.ID || txn.UserID != "alice" || txn.Source != models.TransactionSourceSharedBudget {
		t.Errorf("companion transaction = %+v", txn)
	}
	if txn.Date != 1000 {
		t.Errorf("transaction date = %d, want expense created_at 1000", txn.Date)
	}

	empty, err := store.ListExpenses(ctx, "missing")
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no expenses, got %d", len(empty))
	}
}

func testExpenseAtomicity(t *testing.T, store storage.Store) {
	ctx := context.Background()

	budget := NewBudget("Flat", "1000", "alice", "bob")
	if err := store.CreateBudget(ctx, budget); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}
	existing := appendExpense(t, store, budget.ID, "alice", "10", 1000, "alice", "bob")

	// Reusing the expense ID makes the expense insert fail after the
	// companion transaction insert succeeded.
	dup := &models.Expense{
		ID:         existing.ID,
		BudgetID:   budget.ID,
		Amount:     decimal.NewFromInt(20),
		PaidBy:     "bob",
		SplitAmong: []string{"alice", "bob"},
	}
	txn := &models.Transaction{
		ID:       "txn-should-roll-back",
		UserID:   "bob",
		Amount:   dup.Amount,
		Category: "misc",
		Source:   models.TransactionSourceSharedBudget,
	}
	if err := store.AppendExpense(ctx, dup, txn); err == nil {
		t.Fatal("expected AppendExpense to fail on duplicate expense ID")
	}

	if _, err := store.GetTransaction(ctx, "txn-should-roll-back"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("companion transaction survived a failed append: %v", err)
	}

	expenses, err := store.ListExpenses(ctx, budget.ID)
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(expenses) != 1 {
		t.Errorf("expenses = %d, want 1", len(expenses))
	}
}

func testSettlements(t *testing.T, store storage.Store) {
	ctx := context.Background()

	budget := NewBudget("Flat", "1000", "alice", "bob")
	if err := store.CreateBudget(ctx, budget); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}

	first := &models.Settlement{
		BudgetID:   budget.ID,
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     decimal.RequireFromString("12.34"),
		CreatedBy:  "bob",
		Note:       "cash",
		CreatedAt:  1000,
	}
	if err := store.AppendSettlement(ctx, first); err != nil {
		t.Fatalf("AppendSettlement failed: %v", err)
	}
	second := &models.Settlement{
		BudgetID:   budget.ID,
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     decimal.NewFromInt(5),
		CreatedBy:  "alice",
		CreatedAt:  2000,
	}
	if err := store.AppendSettlement(ctx, second); err != nil {
		t.Fatalf("AppendSettlement failed: %v", err)
	}
	if first.ID == "" {
		t.Error("Expected settlement ID to be generated")
	}

	settlements, err := store.ListSettlements(ctx, budget.ID)
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(settlements) != 2 {
		t.Fatalf("settlements = %d, want 2", len(settlements))
	}
	if settlements[0].ID != second.ID {
		t.Errorf("expected newest first, got %s", settlements[0].ID)
	}
	got := settlements[1]
	if got.Note != "cash" || !got.Amount.Equal(decimal.RequireFromString("12.34")) || got.CreatedBy != "bob" {
		t.Errorf("settlement = %+v", got)
	}
	if settlements[0].Note != "" {
		t.Errorf("expected empty note, got %q", settlements[0].Note)
	}
}

func testLinkedTransactions(t *testing.T, store storage.Store) {
	ctx := context.Background()

	budget := NewBudget("Flat", "1000", "alice", "bob")
	if err := store.CreateBudget(ctx, budget); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}
	other := NewBudget("Other", "1000", "alice", "bob")
	if err := store.CreateBudget(ctx, other); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}

	appendExpense(t, store, budget.ID, "alice", "10", 1000, "alice", "bob")
	appendExpense(t, store, budget.ID, "bob", "20", 2000, "alice", "bob")
	appendExpense(t, store, budget.ID, "alice", "30", 3000, "alice", "bob")
	appendExpense(t, store, budget.ID, "bob", "5", -500, "alice", "bob")
	appendExpense(t, store, other.ID, "alice", "99", 2000, "alice")

	all, err := store.ListLinkedTransactions(ctx, budget.ID, nil, nil)
	if err != nil {
		t.Fatalf("ListLinkedTransactions failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("transactions = %d, want 4", len(all))
	}
	if all[0].Date != -500 || all[3].Date != 3000 {
		t.Errorf("expected oldest first, got %d..%d", all[0].Date, all[3].Date)
	}

	tests := []struct {
		name     string
		from, to *int64
		want     []int64
	}{
		{name: "closed range", from: unix(1500), to: unix(2500), want: []int64{2000}},
		{name: "from epoch", from: unix(0), want: []int64{1000, 2000, 3000}},
		{name: "to epoch", to: unix(0), want: []int64{-500}},
		{name: "open start", to: unix(2000), want: []int64{-500, 1000, 2000}},
		{name: "open end", from: unix(2000), want: []int64{2000, 3000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListLinkedTransactions(ctx, budget.ID, tt.from, tt.to)
			if err != nil {
				t.Fatalf("ListLinkedTransactions failed: %v", err)
			}
			dates := make([]int64, len(got))
			for i, txn := range got {
				dates[i] = txn.Date
			}
			if !slices.Equal(dates, tt.want) {
				t.Errorf("dates = %v, want %v", dates, tt.want)
			}
		})
	}
}

func unix(v int64) *int64 {
	return &v
}
