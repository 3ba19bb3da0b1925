package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

type WithdrawInput struct {
	Body SingleAccountBody
}

type withdrawer interface {
	Withdraw(ctx context.Context, req service.WithdrawalRequest) (*service.Transaction, error)
}

// WithdrawHandler handles POST /v1/transactions/withdraw.
type WithdrawHandler struct {
	TransactionService withdrawer
}

func NewWithdrawHandler(svc withdrawer) *WithdrawHandler {
	return &WithdrawHandler{TransactionService: svc}
}

func (h *WithdrawHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "withdraw",
		Method:        http.MethodPost,
		Path:          "/v1/transactions/withdraw",
		Summary:       "Withdraw from an account",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func (h *WithdrawHandler) handle(ctx context.Context, input *WithdrawInput) (*TransactionOutput, error) {
	accountID, err := parseID("accountID", input.Body.AccountID)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(ctx, input.Body.Amount)
	if err != nil {
		return nil, err
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		defer logData.AddTiming("withdrawMs")()
	}
	return respond(h.TransactionService.Withdraw(ctx, service.WithdrawalRequest{
		AccountID:   accountID,
		Amount:      amount,
		Currency:    input.Body.Currency,
		Description: input.Body.Description,
	}))
}
