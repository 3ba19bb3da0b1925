package service

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Transaction represents a ledger transaction in the service layer.
type Transaction struct {
	ID                uuid.UUID
	SenderAccountID   uuid.NullUUID
	ReceiverAccountID uuid.NullUUID
	Amount            money.Amount
	Currency          string
	Kind              ledger.Kind
	Status            ledger.Status
	Description       *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type TransferRequest struct {
	SenderAccountID   uuid.UUID
	ReceiverAccountID uuid.UUID
	Amount            money.Amount
	Currency          string
	Description       *string
}

type DepositRequest struct {
	AccountID   uuid.UUID
	Amount      money.Amount
	Currency    string
	Description *string
}

type WithdrawalRequest struct {
	AccountID   uuid.UUID
	Amount      money.Amount
	Currency    string
	Description *string
}

// CreateTransactionRequest names the kind explicitly. uuid.Nil marks an
// absent side; which sides must be present depends on Kind.
type CreateTransactionRequest struct {
	Kind              ledger.Kind
	SenderAccountID   uuid.UUID
	ReceiverAccountID uuid.UUID
	Amount            money.Amount
	Currency          string
	Description       *string
}

// Page is a limit/offset window over a newest-first listing.
type Page struct {
	Limit  int
	Offset int
}

func transactionFromStorage(row *transaction.Transaction) *Transaction {
	return &Transaction{
		ID:                row.ID,
		SenderAccountID:   row.SenderAccountID,
		ReceiverAccountID: row.ReceiverAccountID,
		Amount:            row.Amount,
		Currency:          row.Currency,
		Kind:              row.Kind,
		Status:            row.Status,
		Description:       row.Description.Ptr(),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
