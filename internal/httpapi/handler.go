// Package httpapi serves the shared-budget ledger over JSON REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/budgetshare/internal/api"
	"github.com/mmynk/budgetshare/internal/middleware"
	"github.com/mmynk/budgetshare/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler implements the /shared-budgets routes.
type Handler struct {
	svc *service.LedgerService
}

func NewHandler(svc *service.LedgerService) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the handler on r. Callers must already be authenticated.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.createBudget)
	r.Get("/", h.listBudgets)
	r.Route("/{budgetID}", func(r chi.Router) {
		r.Get("/", h.getBudget)
		r.Post("/expenses", h.addExpense)
		r.Get("/expenses", h.listExpenses)
		r.Get("/summary", h.summary)
		r.Get("/balances", h.balances)
		r.Get("/settlements", h.planTransfers)
		r.Get("/payments", h.listPayments)
		r.Post("/settle", h.settle)
	})
}

func (h *Handler) createBudget(w http.ResponseWriter, r *http.Request) {
	var req api.CreateBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	budget, err := h.svc.CreateBudget(r.Context(), service.CreateBudgetInput{
		CallerID:    middleware.GetUserID(r.Context()),
		Name:        req.Name,
		TotalAmount: req.TotalAmount,
		Members:     req.Members,
		Categories:  req.Categories,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.NewBudget(service.BudgetOverview{
		Budget:    budget,
		Remaining: budget.TotalAmount,
	}))
}

func (h *Handler) listBudgets(w http.ResponseWriter, r *http.Request) {
	overviews, err := h.svc.ListBudgetsForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewBudgets(overviews))
}

func (h *Handler) getBudget(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.GetBudget(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewBudget(overview))
}

func (h *Handler) addExpense(w http.ResponseWriter, r *http.Request) {
	var req api.AddExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.AddExpense(r.Context(), service.AddExpenseInput{
		CallerID:    middleware.GetUserID(r.Context()),
		BudgetID:    chi.URLParam(r, "budgetID"),
		Amount:      req.Amount,
		PaidBy:      req.PaidBy,
		SplitAmong:  req.SplitAmong,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.NewAddExpenseResponse(res))
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.svc.ListExpenses(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewExpenses(expenses))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	summary, err := h.svc.Summary(r.Context(), service.SummaryInput{
		CallerID: middleware.GetUserID(r.Context()),
		BudgetID: chi.URLParam(r, "budgetID"),
		From:     query.Get("from"),
		To:       query.Get("to"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewSummary(summary))
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.svc.ComputeBalances(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewBalances(balances))
}

func (h *Handler) planTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.svc.PlanTransfers(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewTransfers(transfers))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.svc.ListSettlements(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewSettlements(settlements))
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	var req api.RecordSettlementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settlement, err := h.svc.RecordSettlement(r.Context(), service.RecordSettlementInput{
		CallerID: middleware.GetUserID(r.Context()),
		BudgetID: chi.URLParam(r, "budgetID"),
		From:     req.FromUserID,
		To:       req.ToUserID,
		Amount:   req.Amount,
		Note:     req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewSettlement(settlement))
}

// decodeJSON reads the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, fmt.Errorf("%w: malformed request body: %v", service.ErrInvalidInput, err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := api.ErrorFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else if !errors.Is(err, service.ErrNotFound) {
		slog.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}
