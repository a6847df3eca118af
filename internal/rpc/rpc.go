// Package rpc exposes the ledger as the Connect service
// budgetshare.v1.LedgerService, using JSON messages from internal/api.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/budgetshare/internal/api"
	"github.com/mmynk/budgetshare/internal/auth"
	"github.com/mmynk/budgetshare/internal/middleware"
	"github.com/mmynk/budgetshare/internal/service"
)

// ServiceName is the fully-qualified name of the ledger service.
const ServiceName = "budgetshare.v1.LedgerService"

// Procedure paths.
const (
	CreateBudgetProcedure     = "/" + ServiceName + "/CreateBudget"
	ListBudgetsProcedure      = "/" + ServiceName + "/ListBudgets"
	GetBudgetProcedure        = "/" + ServiceName + "/GetBudget"
	AddExpenseProcedure       = "/" + ServiceName + "/AddExpense"
	ListExpensesProcedure     = "/" + ServiceName + "/ListExpenses"
	GetBalancesProcedure      = "/" + ServiceName + "/GetBalances"
	PlanTransfersProcedure    = "/" + ServiceName + "/PlanTransfers"
	RecordSettlementProcedure = "/" + ServiceName + "/RecordSettlement"
	ListSettlementsProcedure  = "/" + ServiceName + "/ListSettlements"
	GetSummaryProcedure       = "/" + ServiceName + "/GetSummary"
)

// Server adapts LedgerService to Connect.
type Server struct {
	svc *service.LedgerService
}

func NewServer(svc *service.LedgerService) *Server {
	return &Server{svc: svc}
}

// NewHandler builds the HTTP handler for every procedure. Calls must carry a
// bearer token and are logged once authenticated.
func NewHandler(svc *service.LedgerService, jwtManager *auth.JWTManager, opts ...connect.HandlerOption) (string, http.Handler) {
	s := NewServer(svc)
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor()),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateBudgetProcedure, connect.NewUnaryHandler(CreateBudgetProcedure, s.CreateBudget, opts...))
	mux.Handle(ListBudgetsProcedure, connect.NewUnaryHandler(ListBudgetsProcedure, s.ListBudgets, opts...))
	mux.Handle(GetBudgetProcedure, connect.NewUnaryHandler(GetBudgetProcedure, s.GetBudget, opts...))
	mux.Handle(AddExpenseProcedure, connect.NewUnaryHandler(AddExpenseProcedure, s.AddExpense, opts...))
	mux.Handle(ListExpensesProcedure, connect.NewUnaryHandler(ListExpensesProcedure, s.ListExpenses, opts...))
	mux.Handle(GetBalancesProcedure, connect.NewUnaryHandler(GetBalancesProcedure, s.GetBalances, opts...))
	mux.Handle(PlanTransfersProcedure, connect.NewUnaryHandler(PlanTransfersProcedure, s.PlanTransfers, opts...))
	mux.Handle(RecordSettlementProcedure, connect.NewUnaryHandler(RecordSettlementProcedure, s.RecordSettlement, opts...))
	mux.Handle(ListSettlementsProcedure, connect.NewUnaryHandler(ListSettlementsProcedure, s.ListSettlements, opts...))
	mux.Handle(GetSummaryProcedure, connect.NewUnaryHandler(GetSummaryProcedure, s.GetSummary, opts...))
	return "/" + ServiceName + "/", mux
}

func (s *Server) CreateBudget(ctx context.Context, req *connect.Request[api.CreateBudgetRequest]) (*connect.Response[api.Budget], error) {
	budget, err := s.svc.CreateBudget(ctx, service.CreateBudgetInput{
		CallerID:    middleware.GetUserID(ctx),
		Name:        req.Msg.Name,
		TotalAmount: req.Msg.TotalAmount,
		Members:     req.Msg.Members,
		Categories:  req.Msg.Categories,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	out := api.NewBudget(service.BudgetOverview{
		Budget:    budget,
		Remaining: budget.TotalAmount,
	})
	return connect.NewResponse(&out), nil
}

func (s *Server) ListBudgets(ctx context.Context, _ *connect.Request[api.ListBudgetsRequest]) (*connect.Response[api.ListBudgetsResponse], error) {
	overviews, err := s.svc.ListBudgetsForUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListBudgetsResponse{Budgets: api.NewBudgets(overviews)}), nil
}

func (s *Server) GetBudget(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.Budget], error) {
	overview, err := s.svc.GetBudget(ctx, middleware.GetUserID(ctx), req.Msg.BudgetID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(ptr(api.NewBudget(overview))), nil
}

func (s *Server) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	res, err := s.svc.AddExpense(ctx, service.AddExpenseInput{
		CallerID:    middleware.GetUserID(ctx),
		BudgetID:    req.Msg.BudgetID,
		Amount:      req.Msg.Amount,
		PaidBy:      req.Msg.PaidBy,
		SplitAmong:  req.Msg.SplitAmong,
		Category:    req.Msg.Category,
		Description: req.Msg.Description,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(ptr(api.NewAddExpenseResponse(res))), nil
}

func (s *Server) ListExpenses(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	expenses, err := s.svc.ListExpenses(ctx, middleware.GetUserID(ctx), req.Msg.BudgetID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: api.NewExpenses(expenses)}), nil
}

func (s *Server) GetBalances(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	balances, err := s.svc.ComputeBalances(ctx, middleware.GetUserID(ctx), req.Msg.BudgetID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetBalancesResponse{Balances: api.NewBalances(balances)}), nil
}

func (s *Server) PlanTransfers(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.PlanTransfersResponse], error) {
	transfers, err := s.svc.PlanTransfers(ctx, middleware.GetUserID(ctx), req.Msg.BudgetID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.PlanTransfersResponse{Transfers: api.NewTransfers(transfers)}), nil
}

func (s *Server) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.Settlement], error) {
	settlement, err := s.svc.RecordSettlement(ctx, service.RecordSettlementInput{
		CallerID: middleware.GetUserID(ctx),
		BudgetID: req.Msg.BudgetID,
		From:     req.Msg.FromUserID,
		To:       req.Msg.ToUserID,
		Amount:   req.Msg.Amount,
		Note:     req.Msg.Note,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(ptr(api.NewSettlement(settlement))), nil
}

func (s *Server) ListSettlements(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	settlements, err := s.svc.ListSettlements(ctx, middleware.GetUserID(ctx), req.Msg.BudgetID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: api.NewSettlements(settlements)}), nil
}

func (s *Server) GetSummary(ctx context.Context, req *connect.Request[api.SummaryRequest]) (*connect.Response[api.Summary], error) {
	summary, err := s.svc.Summary(ctx, service.SummaryInput{
		CallerID: middleware.GetUserID(ctx),
		BudgetID: req.Msg.BudgetID,
		From:     req.Msg.From,
		To:       req.Msg.To,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(ptr(api.NewSummary(summary))), nil
}

// toConnectError maps service errors to Connect codes. Unexpected errors are
// logged and replaced with an opaque message.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidMember):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		slog.Error("Unexpected service error", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal server error"))
	}
}

func ptr[T any](v T) *T {
	return &v
}
