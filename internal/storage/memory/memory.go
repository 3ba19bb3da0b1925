// Package memory is an in-process implementation of the ledger store.
//
// It behaves like the Postgres store where the engine's correctness depends
// on it: an account hold taken by FindByIDForUpdate blocks every other unit
// of work until commit or rollback, waits are bounded by the lock timeout,
// writes are invisible until commit, and the schema's CHECK constraints are
// enforced on every write.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Op names a store call that a fault injector can fail.
type Op string

const (
	OpBegin         Op = "begin"
	OpLock          Op = "lock"
	OpUpdateBalance Op = "update_balance"
	OpInsert        Op = "insert"
	OpUpdateStatus  Op = "update_status"
	OpCommit        Op = "commit"
)

// FaultInjector returns a non-nil error to make the named call fail.
type FaultInjector func(op Op) error

type Option func(*Store)

// WithLockTimeout bounds how long FindByIDForUpdate waits for a hold.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// WithFaultInjector installs a hook consulted before every write call.
func WithFaultInjector(f FaultInjector) Option {
	return func(s *Store) {
		s.faults = f
	}
}

// Store holds committed state plus one exclusive hold per account.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]struct{}
	accounts     map[uuid.UUID]account.Account
	transactions map[uuid.UUID]transaction.Transaction
	holds        map[uuid.UUID]chan struct{}
	lastStamp    time.Time

	lockTimeout time.Duration
	faults      FaultInjector
	reader      *storage.Reader
}

var _ storage.IStorage = (*Store)(nil)

func NewStore(opts ...Option) *Store {
	s := &Store{
		users:        make(map[uuid.UUID]struct{}),
		accounts:     make(map[uuid.UUID]account.Account),
		transactions: make(map[uuid.UUID]transaction.Transaction),
		holds:        make(map[uuid.UUID]chan struct{}),
		lockTimeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reader = &storage.Reader{
		Accounts:     &accountReader{store: s},
		Transactions: &transactionReader{store: s},
	}
	return s
}

// AddUser registers an account owner.
func (s *Store) AddUser(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = struct{}{}
}

// Seed stores an account as committed state, bypassing the engine. It exists
// for fixtures; the engine never calls it.
func (s *Store) Seed(acc account.Account) error {
	if err := ledger.CheckBalance(acc.ID, acc.Balance); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = s.stampLocked()
		acc.UpdatedAt = acc.CreatedAt
	}
	s.users[acc.UserID] = struct{}{}
	s.accounts[acc.ID] = acc
	return nil
}

func (s *Store) Read() *storage.Reader {
	return s.reader
}

func (s *Store) Write(ctx context.Context) (*storage.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, ledgererr.Wrap(ledgererr.CodeStoreUnavailable, err, "begin abandoned")
	}
	if err := s.fault(OpBegin); err != nil {
		return nil, err
	}

	u := &unitOfWork{
		store:    s,
		held:     make(map[uuid.UUID]struct{}),
		balances: make(map[uuid.UUID]money.Amount),
		created:  make(map[uuid.UUID]account.Account),
		inserted: make(map[uuid.UUID]transaction.Transaction),
		statuses: make(map[uuid.UUID]transaction.Transaction),
	}
	return storage.NewWriter(u, &accountWriter{uow: u}, &transactionWriter{uow: u}), nil
}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) fault(op Op) error {
	if s.faults == nil {
		return nil
	}
	return s.faults(op)
}

func (s *Store) hold(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.holds[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.holds[id] = ch
	}
	return ch
}

// stampLocked returns a strictly increasing timestamp so creation order is
// total even when the wall clock does not advance between calls.
func (s *Store) stampLocked() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

func (s *Store) committedAccount(id uuid.UUID) (account.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	return acc, ok
}

// -- read side --

type accountReader struct {
	store *Store
}

func (r *accountReader) FindByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	acc, ok := r.store.committedAccount(id)
	if !ok {
		return nil, ledgererr.ErrAccountNotFound
	}
	return &acc, nil
}

func (r *accountReader) ListByUser(_ context.Context, userID uuid.UUID) ([]*account.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*account.Account
	for _, acc := range r.store.accounts {
		if acc.UserID == userID {
			acc := acc
			out = append(out, &acc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

type transactionReader struct {
	store *Store
}

func (r *transactionReader) FindByID(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	row, ok := r.store.transactions[id]
	if !ok {
		return nil, ledgererr.ErrTransactionNotFound
	}
	return &row, nil
}

func (r *transactionReader) List(_ context.Context, filter *transaction.TransactionFilter) ([]*transaction.Transaction, error) {
	r.store.mu.RLock()
	rows := make([]*transaction.Transaction, 0, len(r.store.transactions))
	for _, row := range r.store.transactions {
		if filter != nil && filter.AccountID != nil && !references(row, *filter.AccountID) {
			continue
		}
		row := row
		rows = append(rows, &row)
	}
	r.store.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return bytes.Compare(rows[i].ID[:], rows[j].ID[:]) > 0
	})

	if filter == nil {
		return rows, nil
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(rows) {
			return []*transaction.Transaction{}, nil
		}
		rows = rows[filter.Offset:]
	}
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}

func references(row transaction.Transaction, accountID uuid.UUID) bool {
	return (row.SenderAccountID.Valid && row.SenderAccountID.UUID == accountID) ||
		(row.ReceiverAccountID.Valid && row.ReceiverAccountID.UUID == accountID)
}
