package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/handlers/v1/httperr"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/service"
)

// CreateTransactionBody names the transaction kind explicitly. Which account
// fields are required depends on the kind.
type CreateTransactionBody struct {
	Type              string  `json:"transactionType" required:"true" doc:"TRANSFER, DEPOSIT or WITHDRAWAL"`
	SenderAccountID   string  `json:"senderAccountID,omitempty" doc:"Account UUID to debit; transfers and withdrawals only"`
	ReceiverAccountID string  `json:"receiverAccountID,omitempty" doc:"Account UUID to credit; transfers and deposits only"`
	Amount            string  `json:"amount" required:"true" doc:"Positive decimal amount, at most 4 fractional digits"`
	Currency          string  `json:"currency" required:"true" minLength:"3" maxLength:"3" doc:"3-letter currency code"`
	Description       *string `json:"description,omitempty" maxLength:"500" doc:"Free text description"`
}

type CreateTransactionInput struct {
	Body CreateTransactionBody
}

type transactionCreator interface {
	CreateTransaction(ctx context.Context, req service.CreateTransactionRequest) (*service.Transaction, error)
}

// CreateTransactionHandler handles POST /v1/transactions.
type CreateTransactionHandler struct {
	TransactionService transactionCreator
}

func NewCreateTransactionHandler(svc transactionCreator) *CreateTransactionHandler {
	return &CreateTransactionHandler{TransactionService: svc}
}

func (h *CreateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-transaction",
		Method:        http.MethodPost,
		Path:          "/v1/transactions",
		Summary:       "Create transaction",
		Description:   "Creates a transfer, deposit or withdrawal named by transactionType.",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseCreateTransactionInput(ctx context.Context, input *CreateTransactionInput) (service.CreateTransactionRequest, error) {
	kind, err := ledger.ParseKind(input.Body.Type)
	if err != nil {
		return service.CreateTransactionRequest{}, httperr.FromLedger(err)
	}
	sender, err := parseOptionalID("senderAccountID", input.Body.SenderAccountID)
	if err != nil {
		return service.CreateTransactionRequest{}, err
	}
	receiver, err := parseOptionalID("receiverAccountID", input.Body.ReceiverAccountID)
	if err != nil {
		return service.CreateTransactionRequest{}, err
	}
	amount, err := parseAmount(ctx, input.Body.Amount)
	if err != nil {
		return service.CreateTransactionRequest{}, err
	}
	return service.CreateTransactionRequest{
		Kind:              kind,
		SenderAccountID:   sender,
		ReceiverAccountID: receiver,
		Amount:            amount,
		Currency:          input.Body.Currency,
		Description:       input.Body.Description,
	}, nil
}

func (h *CreateTransactionHandler) handle(ctx context.Context, input *CreateTransactionInput) (*TransactionOutput, error) {
	req, err := parseCreateTransactionInput(ctx, input)
	if err != nil {
		return nil, err
	}
	return respond(h.TransactionService.CreateTransaction(ctx, req))
}
