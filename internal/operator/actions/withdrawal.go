package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// Withdrawal debits AccountID with money leaving the ledger.
type Withdrawal struct {
	AccountID   uuid.UUID
	Amount      money.Amount
	Currency    string
	Description *string

	record
}

func (w *Withdrawal) Name() string {
	return "withdrawal"
}

func (w *Withdrawal) Kind() ledger.Kind {
	return ledger.KindWithdrawal
}

func (w *Withdrawal) Perform(ctx context.Context, writer *storage.Writer) error {
	return perform(ctx, writer, w, &w.record)
}

func (w *Withdrawal) legs() legs {
	return legs{
		sender:      w.AccountID,
		amount:      w.Amount,
		currency:    w.Currency,
		description: w.Description,
	}
}
