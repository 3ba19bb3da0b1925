package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// IAction is one unit of work run by the operator. Perform must only touch
// the store through writer; the operator commits or rolls back afterwards.
type IAction interface {
	Name() string
	Perform(ctx context.Context, writer *storage.Writer) error
}

// IRecordedAction is an action that writes a transaction row. Recorded
// returns nil until the row has been inserted, which tells the operator
// whether a failure must be persisted as FAILED.
type IRecordedAction interface {
	IAction
	Recorded() *transaction.TransactionCreate
}
