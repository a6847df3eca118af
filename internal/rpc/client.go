package rpc

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/budgetshare/internal/api"
)

// Client calls LedgerService over Connect with the JSON codec.
type Client struct {
	createBudget     *connect.Client[api.CreateBudgetRequest, api.Budget]
	listBudgets      *connect.Client[api.ListBudgetsRequest, api.ListBudgetsResponse]
	getBudget        *connect.Client[api.BudgetRequest, api.Budget]
	addExpense       *connect.Client[api.AddExpenseRequest, api.AddExpenseResponse]
	listExpenses     *connect.Client[api.BudgetRequest, api.ListExpensesResponse]
	getBalances      *connect.Client[api.BudgetRequest, api.GetBalancesResponse]
	planTransfers    *connect.Client[api.BudgetRequest, api.PlanTransfersResponse]
	recordSettlement *connect.Client[api.RecordSettlementRequest, api.Settlement]
	listSettlements  *connect.Client[api.BudgetRequest, api.ListSettlementsResponse]
	getSummary       *connect.Client[api.SummaryRequest, api.Summary]
}

// NewClient returns a client for the service at baseURL, e.g. http://localhost:8080.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		createBudget:     connect.NewClient[api.CreateBudgetRequest, api.Budget](httpClient, baseURL+CreateBudgetProcedure, opts...),
		listBudgets:      connect.NewClient[api.ListBudgetsRequest, api.ListBudgetsResponse](httpClient, baseURL+ListBudgetsProcedure, opts...),
		getBudget:        connect.NewClient[api.BudgetRequest, api.Budget](httpClient, baseURL+GetBudgetProcedure, opts...),
		addExpense:       connect.NewClient[api.AddExpenseRequest, api.AddExpenseResponse](httpClient, baseURL+AddExpenseProcedure, opts...),
		listExpenses:     connect.NewClient[api.BudgetRequest, api.ListExpensesResponse](httpClient, baseURL+ListExpensesProcedure, opts...),
		getBalances:      connect.NewClient[api.BudgetRequest, api.GetBalancesResponse](httpClient, baseURL+GetBalancesProcedure, opts...),
		planTransfers:    connect.NewClient[api.BudgetRequest, api.PlanTransfersResponse](httpClient, baseURL+PlanTransfersProcedure, opts...),
		recordSettlement: connect.NewClient[api.RecordSettlementRequest, api.Settlement](httpClient, baseURL+RecordSettlementProcedure, opts...),
		listSettlements:  connect.NewClient[api.BudgetRequest, api.ListSettlementsResponse](httpClient, baseURL+ListSettlementsProcedure, opts...),
		getSummary:       connect.NewClient[api.SummaryRequest, api.Summary](httpClient, baseURL+GetSummaryProcedure, opts...),
	}
}

func (c *Client) CreateBudget(ctx context.Context, req *connect.Request[api.CreateBudgetRequest]) (*connect.Response[api.Budget], error) {
	return c.createBudget.CallUnary(ctx, req)
}

func (c *Client) ListBudgets(ctx context.Context, req *connect.Request[api.ListBudgetsRequest]) (*connect.Response[api.ListBudgetsResponse], error) {
	return c.listBudgets.CallUnary(ctx, req)
}

func (c *Client) GetBudget(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.Budget], error) {
	return c.getBudget.CallUnary(ctx, req)
}

func (c *Client) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *Client) ListExpenses(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *Client) GetBalances(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *Client) PlanTransfers(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.PlanTransfersResponse], error) {
	return c.planTransfers.CallUnary(ctx, req)
}

func (c *Client) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.Settlement], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *Client) ListSettlements(ctx context.Context, req *connect.Request[api.BudgetRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *Client) GetSummary(ctx context.Context, req *connect.Request[api.SummaryRequest]) (*connect.Response[api.Summary], error) {
	return c.getSummary.CallUnary(ctx, req)
}

// BearerToken returns a client interceptor that authenticates every call.
func BearerToken(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}
