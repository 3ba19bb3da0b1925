package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/handlers/v1/httperr"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// ListTransactionsInput is the Huma input for listing an account's transactions.
type ListTransactionsInput struct {
	AccountID string `path:"accountID" doc:"Account UUID"`
	Limit     int    `query:"limit" minimum:"0" maximum:"1000" doc:"Page size, defaults to 100"`
	Offset    int    `query:"offset" minimum:"0" doc:"Number of transactions to skip"`
}

// ListTransactionsResponseBody is the response body for listing transactions.
type ListTransactionsResponseBody struct {
	Transactions []Transaction `json:"transactions" doc:"Page of transactions, newest first"`
	Limit        int           `json:"limit" doc:"Page size used"`
	Offset       int           `json:"offset" doc:"Offset used"`
}

type ListTransactionsOutput struct {
	Body ListTransactionsResponseBody
}

type transactionLister interface {
	ListAccountTransactions(ctx context.Context, accountID uuid.UUID, page service.Page) ([]service.Transaction, error)
}

// ListTransactionsHandler handles GET /v1/accounts/{accountID}/transactions.
type ListTransactionsHandler struct {
	TransactionService transactionLister
}

func NewListTransactionsHandler(svc transactionLister) *ListTransactionsHandler {
	return &ListTransactionsHandler{TransactionService: svc}
}

func (h *ListTransactionsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-account-transactions",
		Method:      http.MethodGet,
		Path:        "/v1/accounts/{accountID}/transactions",
		Summary:     "List account transactions",
		Description: "Returns the account's transactions, most recent first, paginated by limit and offset.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

func (h *ListTransactionsHandler) handle(ctx context.Context, input *ListTransactionsInput) (*ListTransactionsOutput, error) {
	logData := logging.GetLogData(ctx)
	accountID, err := parseID("accountID", input.AccountID)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("listTransactionsMs")
	}
	page := service.Page{Limit: input.Limit, Offset: input.Offset}
	transactions, err := h.TransactionService.ListAccountTransactions(ctx, accountID, page)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, httperr.FromLedger(err)
	}

	if logData != nil {
		logData.AddData("transactionCount", len(transactions))
	}

	limit := page.Limit
	if limit == 0 {
		limit = service.DefaultLimit
	}
	resp := ListTransactionsResponseBody{
		Transactions: make([]Transaction, len(transactions)),
		Limit:        limit,
		Offset:       page.Offset,
	}
	for i := range transactions {
		resp.Transactions[i] = fromService(&transactions[i])
	}

	return &ListTransactionsOutput{Body: resp}, nil
}
