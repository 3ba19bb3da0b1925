package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// SingleAccountBody is the request body for deposits and withdrawals.
type SingleAccountBody struct {
	AccountID   string  `json:"accountID" required:"true" doc:"Account UUID"`
	Amount      string  `json:"amount" required:"true" doc:"Positive decimal amount, at most 4 fractional digits"`
	Currency    string  `json:"currency" required:"true" minLength:"3" maxLength:"3" doc:"3-letter currency code of the account"`
	Description *string `json:"description,omitempty" maxLength:"500" doc:"Free text description"`
}

type DepositInput struct {
	Body SingleAccountBody
}

type depositor interface {
	Deposit(ctx context.Context, req service.DepositRequest) (*service.Transaction, error)
}

// DepositHandler handles POST /v1/transactions/deposit.
type DepositHandler struct {
	TransactionService depositor
}

func NewDepositHandler(svc depositor) *DepositHandler {
	return &DepositHandler{TransactionService: svc}
}

func (h *DepositHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "deposit",
		Method:        http.MethodPost,
		Path:          "/v1/transactions/deposit",
		Summary:       "Deposit into an account",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func (h *DepositHandler) handle(ctx context.Context, input *DepositInput) (*TransactionOutput, error) {
	accountID, err := parseID("accountID", input.Body.AccountID)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(ctx, input.Body.Amount)
	if err != nil {
		return nil, err
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		defer logData.AddTiming("depositMs")()
	}
	return respond(h.TransactionService.Deposit(ctx, service.DepositRequest{
		AccountID:   accountID,
		Amount:      amount,
		Currency:    input.Body.Currency,
		Description: input.Body.Description,
	}))
}
