package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Movement is the closed set of balance-changing actions: *Transfer,
// *Deposit and *Withdrawal. The unexported legs method keeps other packages
// from adding kinds the protocol does not know about.
type Movement interface {
	IRecordedAction
	Kind() ledger.Kind
	Result() *transaction.Transaction
	legs() legs
}

// legs describes which accounts a movement debits and credits. uuid.Nil
// means the side is absent.
type legs struct {
	sender      uuid.UUID
	receiver    uuid.UUID
	amount      money.Amount
	currency    string
	description *string
}

// record carries protocol state between phases.
type record struct {
	create *transaction.TransactionCreate
	result *transaction.Transaction
}

func (r *record) Recorded() *transaction.TransactionCreate {
	return r.create
}

func (r *record) Result() *transaction.Transaction {
	return r.result
}

// perform runs prepare, record, mutate and finalize inside writer. Any error
// leaves the unit of work for the operator to roll back.
func perform(ctx context.Context, writer *storage.Writer, m Movement, rec *record) error {
	kind := m.Kind()
	l := m.legs()

	currency, err := ledger.NormalizeCurrency(l.currency)
	if err != nil {
		return err
	}
	l.currency = currency

	held, err := prepare(ctx, writer, kind, l)
	if err != nil {
		return err
	}

	if err := rec.insertPending(ctx, writer, kind, l); err != nil {
		return err
	}

	if err := mutate(ctx, writer, held, l); err != nil {
		return err
	}

	result, err := writer.Transactions.UpdateStatus(ctx, rec.create.ID, ledger.StatusCompleted)
	if err != nil {
		return err
	}
	rec.result = result
	return nil
}

// prepare validates what it can without the store, takes the exclusive holds
// in lock order, then validates against balances read under those holds.
func prepare(ctx context.Context, writer *storage.Writer, kind ledger.Kind, l legs) (map[uuid.UUID]*account.Account, error) {
	if err := ledger.CheckAmount(l.amount); err != nil {
		return nil, err
	}
	if err := ledger.CheckPattern(kind, l.sender, l.receiver); err != nil {
		return nil, err
	}

	held := make(map[uuid.UUID]*account.Account, 2)
	for _, id := range ledger.LockOrder(l.sender, l.receiver) {
		acc, err := writer.Accounts.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		held[id] = acc
	}

	for _, id := range []uuid.UUID{l.sender, l.receiver} {
		if id == uuid.Nil {
			continue
		}
		if err := ledger.CheckCurrency(kind, l.currency, held[id].Currency, id); err != nil {
			return nil, err
		}
	}

	if l.sender != uuid.Nil {
		if err := ledger.CheckSufficientFunds(l.sender, held[l.sender].Balance, l.amount); err != nil {
			return nil, err
		}
	}
	return held, nil
}

func (r *record) insertPending(ctx context.Context, writer *storage.Writer, kind ledger.Kind, l legs) error {
	id, err := uuid.NewV4()
	if err != nil {
		return ledgererr.Wrap(ledgererr.CodeInternal, err, "generate transaction id")
	}

	create := &transaction.TransactionCreate{
		ID:                id,
		SenderAccountID:   l.sender,
		ReceiverAccountID: l.receiver,
		Amount:            l.amount,
		Currency:          l.currency,
		Kind:              kind,
		Status:            ledger.StatusPending,
		Description:       l.description,
	}
	if _, err := writer.Transactions.Insert(ctx, create); err != nil {
		return err
	}
	r.create = create
	return nil
}

func mutate(ctx context.Context, writer *storage.Writer, held map[uuid.UUID]*account.Account, l legs) error {
	if l.sender != uuid.Nil {
		balance, err := held[l.sender].Balance.Sub(l.amount)
		if err != nil {
			return err
		}
		if err := writer.Accounts.UpdateBalance(ctx, l.sender, balance); err != nil {
			return err
		}
	}

	if l.receiver != uuid.Nil {
		balance, err := held[l.receiver].Balance.Add(l.amount)
		if err != nil {
			return err
		}
		if err := writer.Accounts.UpdateBalance(ctx, l.receiver, balance); err != nil {
			return err
		}
	}
	return nil
}
