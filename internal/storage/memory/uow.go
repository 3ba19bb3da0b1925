package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

var errEnded = ledgererr.New(ledgererr.CodeInternal, "unit of work already ended")

// unitOfWork buffers every write until commit. held lists the rows this unit
// of work owns; they are released on commit or rollback.
type unitOfWork struct {
	store *Store

	mu       sync.Mutex
	ended    bool
	held     map[uuid.UUID]struct{}
	balances map[uuid.UUID]money.Amount
	created  map[uuid.UUID]account.Account
	inserted map[uuid.UUID]transaction.Transaction
	// statuses holds status changes to rows committed by earlier units of work.
	statuses map[uuid.UUID]transaction.Transaction
}

func (u *unitOfWork) acquire(ctx context.Context, id uuid.UUID) error {
	if _, ok := u.held[id]; ok {
		return nil
	}

	ch := u.store.hold(id)
	timer := time.NewTimer(u.store.lockTimeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		u.held[id] = struct{}{}
		return nil
	case <-timer.C:
		return ledgererr.New(ledgererr.CodeLockTimeout, "lock timeout waiting for %s", id)
	case <-ctx.Done():
		return ledgererr.Wrap(ledgererr.CodeStoreUnavailable, ctx.Err(), "lock wait abandoned")
	}
}

func (u *unitOfWork) release() {
	for id := range u.held {
		<-u.store.hold(id)
	}
	u.held = nil
}

// account returns the account as this unit of work sees it.
func (u *unitOfWork) account(id uuid.UUID) (account.Account, bool) {
	if acc, ok := u.created[id]; ok {
		if bal, ok := u.balances[id]; ok {
			acc.Balance = bal
		}
		return acc, true
	}
	acc, ok := u.store.committedAccount(id)
	if !ok {
		return account.Account{}, false
	}
	if bal, ok := u.balances[id]; ok {
		acc.Balance = bal
	}
	return acc, true
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ended {
		return errEnded
	}
	u.ended = true
	defer u.release()

	if err := ctx.Err(); err != nil {
		return ledgererr.Wrap(ledgererr.CodeStoreUnavailable, err, "commit abandoned")
	}
	if err := u.store.fault(OpCommit); err != nil {
		return err
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// validate everything before applying anything so a rejected commit
	// leaves no trace
	for id, row := range u.statuses {
		current, ok := s.transactions[id]
		if !ok || current.Status != ledger.StatusPending {
			return ledgererr.New(ledgererr.CodeConstraintViolation, "transaction %s is not pending", row.ID)
		}
	}
	for id := range u.inserted {
		if _, ok := s.transactions[id]; ok {
			return ledgererr.New(ledgererr.CodeConstraintViolation, "transaction %s already exists", id)
		}
	}
	for id, bal := range u.balances {
		if err := ledger.CheckBalance(id, bal); err != nil {
			return err
		}
	}

	now := s.stampLocked()
	for id, acc := range u.created {
		s.accounts[id] = acc
	}
	for id, bal := range u.balances {
		acc := s.accounts[id]
		acc.Balance = bal
		acc.UpdatedAt = now
		s.accounts[id] = acc
	}
	for id, row := range u.inserted {
		s.transactions[id] = row
	}
	for id, row := range u.statuses {
		s.transactions[id] = row
	}
	return nil
}

func (u *unitOfWork) Rollback(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ended {
		return nil
	}
	u.ended = true
	u.release()
	return nil
}

type accountWriter struct {
	uow *unitOfWork
}

func (w *accountWriter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	u := w.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ended {
		return nil, errEnded
	}
	if err := u.store.fault(OpLock); err != nil {
		return nil, err
	}
	if _, ok := u.account(id); !ok {
		return nil, ledgererr.ErrAccountNotFound
	}
	if _, ok := u.created[id]; !ok {
		if err := u.acquire(ctx, id); err != nil {
			return nil, err
		}
	}

	acc, _ := u.account(id)
	return &acc, nil
}

func (w *accountWriter) UpdateBalance(ctx context.Context, id uuid.UUID, balance money.Amount) error {
	u := w.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ended {
		return errEnded
	}
	if err := u.store.fault(OpUpdateBalance); err != nil {
		return err
	}
	if _, ok := u.account(id); !ok {
		return ledgererr.ErrAccountNotFound
	}
	if _, ok := u.created[id]; !ok {
		if err := u.acquire(ctx, id); err != nil {
			return err
		}
	}
	if err := ledger.CheckBalance(id, balance); err != nil {
		return err
	}

	u.balances[id] = balance
	return nil
}

func (w *accountWriter) Create(_ context.Context, create *account.AccountCreate) (*account.Account, error) {
	u := w.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ended {
		return nil, errEnded
	}
	if _, err := ledger.NormalizeCurrency(create.Currency); err != nil {
		return nil, ledgererr.Wrap(ledgererr.CodeConstraintViolation, err, "accounts_currency_format")
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[create.UserID]; !ok {
		return nil, ledgererr.ErrUserNotFound
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.CodeInternal, err, "generate account id")
	}
	now := s.stampLocked()
	acc := account.Account{
		ID:        id,
		UserID:    create.UserID,
		Balance:   money.Zero,
		Currency:  create.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.created[id] = acc
	return &acc, nil
}

type transactionWriter struct {
	uow *unitOfWork
}

func (w *transactionWriter) Insert(_ context.Context, create *transaction.TransactionCreate) (*transaction.Transaction, error) {
	u := w.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ended {
		return nil, errEnded
	}
	if err := u.store.fault(OpInsert); err != nil {
		return nil, err
	}
	if err := ledger.CheckRecord(create.Kind, create.SenderAccountID, create.ReceiverAccountID, create.Amount, create.Currency); err != nil {
		return nil, err
	}
	for _, ref := range []uuid.UUID{create.SenderAccountID, create.ReceiverAccountID} {
		if ref == uuid.Nil {
			continue
		}
		acc, ok := u.account(ref)
		if !ok {
			return nil, ledgererr.ErrAccountNotFound
		}
		if acc.Currency != create.Currency {
			return nil, ledgererr.New(ledgererr.CodeConstraintViolation,
				"transaction currency %s does not match account %s currency %s", create.Currency, ref, acc.Currency)
		}
	}
	if _, ok := u.inserted[create.ID]; ok {
		return nil, ledgererr.New(ledgererr.CodeConstraintViolation, "transaction %s already exists", create.ID)
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[create.ID]; ok {
		return nil, ledgererr.New(ledgererr.CodeConstraintViolation, "transaction %s already exists", create.ID)
	}

	now := s.stampLocked()
	row := transaction.Transaction{
		ID:                create.ID,
		SenderAccountID:   transaction.NullID(create.SenderAccountID),
		ReceiverAccountID: transaction.NullID(create.ReceiverAccountID),
		Amount:            create.Amount,
		Currency:          create.Currency,
		Kind:              create.Kind,
		Status:            create.Status,
		Description:       null.FromPtr(create.Description),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	u.inserted[row.ID] = row
	return &row, nil
}

func (w *transactionWriter) UpdateStatus(ctx context.Context, id uuid.UUID, status ledger.Status) (*transaction.Transaction, error) {
	u := w.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ended {
		return nil, errEnded
	}
	if err := ledger.ValidateTransition(ledger.StatusPending, status); err != nil {
		return nil, err
	}
	if err := u.store.fault(OpUpdateStatus); err != nil {
		return nil, err
	}

	if row, ok := u.inserted[id]; ok {
		if row.Status != ledger.StatusPending {
			return nil, ledgererr.New(ledgererr.CodeConstraintViolation, "transaction %s is not pending", id)
		}
		row.Status = status
		row.UpdatedAt = u.stamp()
		u.inserted[id] = row
		return &row, nil
	}

	row, ok := u.statuses[id]
	if !ok {
		if err := u.acquire(ctx, id); err != nil {
			return nil, err
		}
		u.store.mu.RLock()
		row, ok = u.store.transactions[id]
		u.store.mu.RUnlock()
		if !ok {
			return nil, ledgererr.ErrTransactionNotFound
		}
	}
	if row.Status != ledger.StatusPending {
		return nil, ledgererr.New(ledgererr.CodeConstraintViolation, "transaction %s is not pending", id)
	}
	row.Status = status
	row.UpdatedAt = u.stamp()
	u.statuses[id] = row
	return &row, nil
}

func (u *unitOfWork) stamp() time.Time {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	return u.store.stampLocked()
}
