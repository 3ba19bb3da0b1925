package transaction

import (
	"context"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/money"
)

// TableName is the transactions table.
const TableName = "transactions"

var columns = []string{
	"id", "sender_account_id", "receiver_account_id", "amount", "currency",
	"transaction_type", "status", "description", "created_at", "updated_at",
}

// Transaction represents a transaction record. Sender and receiver are
// NULL when the kind does not reference that side.
type Transaction struct {
	ID                uuid.UUID        `db:"id"`
	SenderAccountID   uuid.NullUUID    `db:"sender_account_id"`
	ReceiverAccountID uuid.NullUUID    `db:"receiver_account_id"`
	Amount            money.Amount     `db:"amount"`
	Currency          string           `db:"currency"`
	Kind              ledger.Kind      `db:"transaction_type"`
	Status            ledger.Status    `db:"status"`
	Description       null.Val[string] `db:"description"`
	CreatedAt         time.Time        `db:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at"`
}

// TransactionCreate is the input for inserting a transaction row.
// uuid.Nil for sender or receiver is stored as NULL.
type TransactionCreate struct {
	ID                uuid.UUID
	SenderAccountID   uuid.UUID
	ReceiverAccountID uuid.UUID
	Amount            money.Amount
	Currency          string
	Kind              ledger.Kind
	Status            ledger.Status
	Description       *string
}

// TransactionFilter specifies filters for listing transactions.
type TransactionFilter struct {
	AccountID *uuid.UUID
	Limit     int
	Offset    int
}

// ITransactionReader defines read-only transaction access.
//
//go:generate mockery --name ITransactionReader --output mock_ITransactionReader.go
type ITransactionReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	List(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error)
}

// ITransactionWriter defines transaction writes inside a unit of work.
// UpdateStatus only moves a PENDING row to a terminal status.
//
//go:generate mockery --name ITransactionWriter --output mock_ITransactionWriter.go
type ITransactionWriter interface {
	Insert(ctx context.Context, create *TransactionCreate) (*Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ledger.Status) (*Transaction, error)
}

// NullID converts an optional account reference to its column value.
func NullID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
