package account

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/money"
)

// TableName is the accounts table.
const TableName = "accounts"

var columns = []string{"id", "user_id", "balance", "currency", "created_at", "updated_at"}

// Account represents an account record.
type Account struct {
	ID        uuid.UUID    `db:"id"`
	UserID    uuid.UUID    `db:"user_id"`
	Balance   money.Amount `db:"balance"`
	Currency  string       `db:"currency"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// AccountCreate is the input for creating a new account. Balances always start at zero.
type AccountCreate struct {
	UserID   uuid.UUID
	Currency string
}

// IAccountReader defines read-only account access outside a unit of work.
//
//go:generate mockery --name IAccountReader --output mock_IAccountReader.go
type IAccountReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Account, error)
}

// IAccountWriter defines account access inside a unit of work.
// FindByIDForUpdate holds the row exclusively until the unit of work ends.
//
//go:generate mockery --name IAccountWriter --output mock_IAccountWriter.go
type IAccountWriter interface {
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance money.Amount) error
	Create(ctx context.Context, create *AccountCreate) (*Account, error)
}
