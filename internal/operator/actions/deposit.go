package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// Deposit credits AccountID with money entering the ledger.
type Deposit struct {
	AccountID   uuid.UUID
	Amount      money.Amount
	Currency    string
	Description *string

	record
}

func (d *Deposit) Name() string {
	return "deposit"
}

func (d *Deposit) Kind() ledger.Kind {
	return ledger.KindDeposit
}

func (d *Deposit) Perform(ctx context.Context, writer *storage.Writer) error {
	return perform(ctx, writer, d, &d.record)
}

func (d *Deposit) legs() legs {
	return legs{
		receiver:    d.AccountID,
		amount:      d.Amount,
		currency:    d.Currency,
		description: d.Description,
	}
}
