package service

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage/account"
)

// Account represents an account in the service layer.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Balance   money.Amount
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func accountFromStorage(row *account.Account) *Account {
	return &Account{
		ID:        row.ID,
		UserID:    row.UserID,
		Balance:   row.Balance,
		Currency:  row.Currency,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
