package transaction

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/handlers/v1/httperr"
	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/service"
)

// Transaction is the API response model for a transaction.
type Transaction struct {
	ID                string  `json:"id" doc:"Transaction UUID"`
	SenderAccountID   *string `json:"senderAccountID,omitempty" doc:"Debited account UUID, absent for deposits"`
	ReceiverAccountID *string `json:"receiverAccountID,omitempty" doc:"Credited account UUID, absent for withdrawals"`
	Amount            string  `json:"amount" doc:"Decimal amount with 4 fractional digits"`
	Currency          string  `json:"currency" doc:"3-letter currency code"`
	Type              string  `json:"transactionType" enum:"TRANSFER,DEPOSIT,WITHDRAWAL" doc:"Transaction kind"`
	Status            string  `json:"status" enum:"PENDING,COMPLETED,FAILED" doc:"Transaction status"`
	Description       *string `json:"description,omitempty" doc:"Free text description"`
	CreatedAt         string  `json:"createdAt" doc:"RFC3339 creation time"`
}

// TransactionOutput wraps a single transaction.
type TransactionOutput struct {
	Body Transaction
}

func fromService(tx *service.Transaction) Transaction {
	out := Transaction{
		ID:          tx.ID.String(),
		Amount:      tx.Amount.String(),
		Currency:    tx.Currency,
		Type:        tx.Kind.String(),
		Status:      tx.Status.String(),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339Nano),
	}
	if tx.SenderAccountID.Valid {
		id := tx.SenderAccountID.UUID.String()
		out.SenderAccountID = &id
	}
	if tx.ReceiverAccountID.Valid {
		id := tx.ReceiverAccountID.UUID.String()
		out.ReceiverAccountID = &id
	}
	return out
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, huma.NewError(http.StatusBadRequest, "invalid "+field, err)
	}
	return id, nil
}

// parseOptionalID treats an empty string as absent.
func parseOptionalID(field, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	return parseID(field, raw)
}

// parseAmount rejects malformed amounts. Failures the engine would treat as
// unexpected, such as AmountOverflow, never reach the operator, so they are
// logged here with the same fields.
func parseAmount(ctx context.Context, raw string) (money.Amount, error) {
	amount, err := money.Parse(raw)
	if err == nil {
		return amount, nil
	}
	if ledgererr.IsUnexpected(err) {
		entry := logrus.NewEntry(logrus.StandardLogger())
		if logData := logging.GetLogData(ctx); logData != nil {
			entry = logData.Log()
		}
		entry.WithError(err).
			WithField("error_code", ledgererr.CodeOf(err).String()).
			Error("Handler.ParseAmount.Unexpected")
	}
	return money.Amount{}, httperr.FromLedger(err)
}

func respond(tx *service.Transaction, err error) (*TransactionOutput, error) {
	if err != nil {
		return nil, httperr.FromLedger(err)
	}
	return &TransactionOutput{Body: fromService(tx)}, nil
}
