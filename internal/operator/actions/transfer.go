package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// Transfer moves Amount from SenderAccountID to ReceiverAccountID.
type Transfer struct {
	SenderAccountID   uuid.UUID
	ReceiverAccountID uuid.UUID
	Amount            money.Amount
	Currency          string
	Description       *string

	record
}

func (t *Transfer) Name() string {
	return "transfer"
}

func (t *Transfer) Kind() ledger.Kind {
	return ledger.KindTransfer
}

func (t *Transfer) Perform(ctx context.Context, writer *storage.Writer) error {
	return perform(ctx, writer, t, &t.record)
}

func (t *Transfer) legs() legs {
	return legs{
		sender:      t.SenderAccountID,
		receiver:    t.ReceiverAccountID,
		amount:      t.Amount,
		currency:    t.Currency,
		description: t.Description,
	}
}
