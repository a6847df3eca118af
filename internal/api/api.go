// Package api defines the JSON messages shared by the REST endpoints and the
// Connect RPC surface, and their conversions from service types.
//
// Requests accept amounts as JSON numbers (or numeric strings) and decode
// them losslessly into decimals; responses carry plain JSON numbers.
package api

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/budgetshare/internal/calculator"
	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/service"
)

type CreateBudgetRequest struct {
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Members     []string        `json:"members"`
	Categories  []string        `json:"categories"`
}

type ListBudgetsRequest struct{}

type ListBudgetsResponse struct {
	Budgets []Budget `json:"budgets"`
}

// BudgetRequest addresses a single budget over RPC. REST takes the ID from the path.
type BudgetRequest struct {
	BudgetID string `json:"budgetId"`
}

type Member struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type Budget struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TotalAmount float64  `json:"totalAmount"`
	Spent       float64  `json:"spent"`
	Remaining   float64  `json:"remaining"`
	CreatedBy   string   `json:"createdBy"`
	IsActive    bool     `json:"isActive"`
	Categories  []string `json:"categories"`
	Members     []Member `json:"members"`
	CreatedAt   int64    `json:"createdAt"`
}

type AddExpenseRequest struct {
	BudgetID    string          `json:"budgetId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	PaidBy      string          `json:"paidBy"`
	SplitAmong  []string        `json:"splitAmong"`
}

type AddExpenseResponse struct {
	ExpenseID     string   `json:"expenseId"`
	TransactionID string   `json:"transactionId"`
	PaidBy        string   `json:"paidBy"`
	SplitAmong    []string `json:"splitAmong"`
	PerPerson     float64  `json:"perPerson"`
}

type Expense struct {
	ID            string   `json:"id"`
	BudgetID      string   `json:"budgetId"`
	Amount        float64  `json:"amount"`
	PaidBy        string   `json:"paidBy"`
	SplitAmong    []string `json:"splitAmong"`
	TransactionID string   `json:"transactionId"`
	CreatedAt     int64    `json:"createdAt"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type Balance struct {
	MemberID string  `json:"memberId"`
	Net      float64 `json:"net"`
	Paid     float64 `json:"paid"`
	Owed     float64 `json:"owed"`
}

type GetBalancesResponse struct {
	Balances []Balance `json:"balances"`
}

type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type PlanTransfersResponse struct {
	Transfers []Transfer `json:"transfers"`
}

type RecordSettlementRequest struct {
	BudgetID   string          `json:"budgetId,omitempty"`
	FromUserID string          `json:"fromUserId"`
	ToUserID   string          `json:"toUserId"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
}

type Settlement struct {
	ID         string  `json:"id"`
	BudgetID   string  `json:"budgetId"`
	FromUserID string  `json:"fromUserId"`
	ToUserID   string  `json:"toUserId"`
	Amount     float64 `json:"amount"`
	Note       string  `json:"note,omitempty"`
	CreatedBy  string  `json:"createdBy"`
	CreatedAt  int64   `json:"createdAt"`
}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

type SummaryRequest struct {
	BudgetID string `json:"budgetId,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Summary struct {
	TotalSpent       float64            `json:"totalSpent"`
	ByCategory       map[string]float64 `json:"byCategory"`
	TransactionCount int                `json:"transactionCount"`
	Period           *Period            `json:"period"`
}

// ErrorResponse is the body of every failed REST call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewBudget(o service.BudgetOverview) Budget {
	b := o.Budget
	members := make([]Member, len(b.Members))
	for i, m := range b.Members {
		members[i] = Member{UserID: m.UserID, Role: string(m.Role)}
	}
	categories := b.CategoryIDs
	if categories == nil {
		categories = []string{}
	}
	return Budget{
		ID:          b.ID,
		Name:        b.Name,
		TotalAmount: b.TotalAmount.InexactFloat64(),
		Spent:       o.Spent.InexactFloat64(),
		Remaining:   o.Remaining.InexactFloat64(),
		CreatedBy:   b.CreatedBy,
		IsActive:    b.IsActive,
		Categories:  categories,
		Members:     members,
		CreatedAt:   b.CreatedAt,
	}
}

func NewBudgets(overviews []service.BudgetOverview) []Budget {
	out := make([]Budget, len(overviews))
	for i, o := range overviews {
		out[i] = NewBudget(o)
	}
	return out
}

func NewAddExpenseResponse(res *service.AddExpenseResult) AddExpenseResponse {
	return AddExpenseResponse{
		ExpenseID:     res.Expense.ID,
		TransactionID: res.Expense.TransactionID,
		PaidBy:        res.Expense.PaidBy,
		SplitAmong:    res.Expense.SplitAmong,
		PerPerson:     res.PerPerson.InexactFloat64(),
	}
}

func NewExpenses(expenses []*models.Expense) []Expense {
	out := make([]Expense, len(expenses))
	for i, e := range expenses {
		out[i] = Expense{
			ID:            e.ID,
			BudgetID:      e.BudgetID,
			Amount:        e.Amount.InexactFloat64(),
			PaidBy:        e.PaidBy,
			SplitAmong:    e.SplitAmong,
			TransactionID: e.TransactionID,
			CreatedAt:     e.CreatedAt,
		}
	}
	return out
}

func NewBalances(balances []calculator.MemberBalance) []Balance {
	out := make([]Balance, len(balances))
	for i, b := range balances {
		out[i] = Balance{
			MemberID: b.MemberID,
			Net:      b.Net.InexactFloat64(),
			Paid:     b.Paid.InexactFloat64(),
			Owed:     b.Owed.InexactFloat64(),
		}
	}
	return out
}

func NewTransfers(transfers []calculator.Transfer) []Transfer {
	out := make([]Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = Transfer{From: t.From, To: t.To, Amount: t.Amount.InexactFloat64()}
	}
	return out
}

func NewSettlement(s *models.Settlement) Settlement {
	return Settlement{
		ID:         s.ID,
		BudgetID:   s.BudgetID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount.InexactFloat64(),
		Note:       s.Note,
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt,
	}
}

func NewSettlements(settlements []*models.Settlement) []Settlement {
	out := make([]Settlement, len(settlements))
	for i, s := range settlements {
		out[i] = NewSettlement(s)
	}
	return out
}

func NewSummary(s *service.Summary) Summary {
	byCategory := make(map[string]float64, len(s.ByCategory))
	for category, amount := range s.ByCategory {
		byCategory[category] = amount.InexactFloat64()
	}
	out := Summary{
		TotalSpent:       s.TotalSpent.InexactFloat64(),
		ByCategory:       byCategory,
		TransactionCount: s.TransactionCount,
	}
	if s.Period != nil {
		out.Period = &Period{From: s.Period.From, To: s.Period.To}
	}
	return out
}
