package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
)

// CreateAccount opens a zero balance account for an existing user.
type CreateAccount struct {
	UserID   uuid.UUID
	Currency string

	Created *account.Account
}

func (c *CreateAccount) Name() string {
	return "create_account"
}

func (c *CreateAccount) Perform(ctx context.Context, writer *storage.Writer) error {
	created, err := writer.Accounts.Create(ctx, &account.AccountCreate{
		UserID:   c.UserID,
		Currency: c.Currency,
	})
	if err != nil {
		return err
	}

	c.Created = created
	return nil
}
