package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// TransferBody is the request body for a transfer.
type TransferBody struct {
	SenderAccountID   string  `json:"senderAccountID" required:"true" doc:"Account UUID to debit"`
	ReceiverAccountID string  `json:"receiverAccountID" required:"true" doc:"Account UUID to credit"`
	Amount            string  `json:"amount" required:"true" doc:"Positive decimal amount, at most 4 fractional digits"`
	Currency          string  `json:"currency" required:"true" minLength:"3" maxLength:"3" doc:"3-letter currency code of both accounts"`
	Description       *string `json:"description,omitempty" maxLength:"500" doc:"Free text description"`
}

type TransferInput struct {
	Body TransferBody
}

type transferer interface {
	Transfer(ctx context.Context, req service.TransferRequest) (*service.Transaction, error)
}

// TransferHandler handles POST /v1/transactions/transfer.
type TransferHandler struct {
	TransactionService transferer
}

func NewTransferHandler(svc transferer) *TransferHandler {
	return &TransferHandler{TransactionService: svc}
}

func (h *TransferHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "transfer",
		Method:        http.MethodPost,
		Path:          "/v1/transactions/transfer",
		Summary:       "Transfer between accounts",
		Description:   "Atomically moves an amount from one account to another account of the same currency.",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseTransferInput(ctx context.Context, input *TransferInput) (service.TransferRequest, error) {
	sender, err := parseID("senderAccountID", input.Body.SenderAccountID)
	if err != nil {
		return service.TransferRequest{}, err
	}
	receiver, err := parseID("receiverAccountID", input.Body.ReceiverAccountID)
	if err != nil {
		return service.TransferRequest{}, err
	}
	amount, err := parseAmount(ctx, input.Body.Amount)
	if err != nil {
		return service.TransferRequest{}, err
	}
	return service.TransferRequest{
		SenderAccountID:   sender,
		ReceiverAccountID: receiver,
		Amount:            amount,
		Currency:          input.Body.Currency,
		Description:       input.Body.Description,
	}, nil
}

func (h *TransferHandler) handle(ctx context.Context, input *TransferInput) (*TransactionOutput, error) {
	req, err := parseTransferInput(ctx, input)
	if err != nil {
		return nil, err
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		defer logData.AddTiming("transferMs")()
	}
	return respond(h.TransactionService.Transfer(ctx, req))
}
