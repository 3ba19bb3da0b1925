package storage

import (
	"context"
	"sync"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/sqlerr"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Committer ends a unit of work.
type Committer interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

var errAlreadyEnded = ledgererr.New(ledgererr.CodeInternal, "unit of work already ended")

// Writer is one atomic unit of work. Nothing written through Accounts or
// Transactions is visible to anyone else until Commit succeeds, and Rollback
// discards all of it.
type Writer struct {
	tx           Committer
	endOnce      sync.Once
	Accounts     account.IAccountWriter
	Transactions transaction.ITransactionWriter
}

func NewWriter(tx Committer, accounts account.IAccountWriter, transactions transaction.ITransactionWriter) *Writer {
	return &Writer{
		tx:           tx,
		Accounts:     accounts,
		Transactions: transactions,
	}
}

// Commit durably persists the unit of work. A failed commit leaves no effect.
func (w *Writer) Commit(ctx context.Context) error {
	var err error = errAlreadyEnded
	w.endOnce.Do(func() {
		err = sqlerr.Translate(w.tx.Commit(ctx), nil)
	})
	return err
}

// Rollback discards the unit of work. It is a no-op once the unit of work
// has already been committed or rolled back.
func (w *Writer) Rollback(ctx context.Context) error {
	var err error
	w.endOnce.Do(func() {
		err = sqlerr.Translate(w.tx.Rollback(ctx), nil)
	})
	return err
}
