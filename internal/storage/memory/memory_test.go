package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

func seedAccount(t *testing.T, s *Store, balance, currency string) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	require.NoError(t, s.Seed(account.Account{
		ID:       id,
		UserID:   uuid.Must(uuid.NewV4()),
		Balance:  money.MustParse(balance),
		Currency: currency,
	}))
	return id
}

func balanceOf(t *testing.T, s *Store, id uuid.UUID) money.Amount {
	t.Helper()
	acc, err := s.Read().Accounts.FindByID(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance
}

func depositCreate(receiver uuid.UUID, amount string) *transaction.TransactionCreate {
	return &transaction.TransactionCreate{
		ID:                uuid.Must(uuid.NewV4()),
		ReceiverAccountID: receiver,
		Amount:            money.MustParse(amount),
		Currency:          "USD",
		Kind:              ledger.KindDeposit,
		Status:            ledger.StatusPending,
	}
}

func TestWrite_InvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := seedAccount(t, s, "10", "USD")

	w, err := s.Write(ctx)
	require.NoError(t, err)

	_, err = w.Accounts.FindByIDForUpdate(ctx, id)
	require.NoError(t, err)
	require.NoError(t, w.Accounts.UpdateBalance(ctx, id, money.MustParse("25")))
	create := depositCreate(id, "15")
	_, err = w.Transactions.Insert(ctx, create)
	require.NoError(t, err)

	assert.True(t, balanceOf(t, s, id).Equal(money.MustParse("10")))
	_, err = s.Read().Transactions.FindByID(ctx, create.ID)
	assert.ErrorIs(t, err, ledgererr.ErrTransactionNotFound)

	require.NoError(t, w.Commit(ctx))

	assert.True(t, balanceOf(t, s, id).Equal(money.MustParse("25")))
	row, err := s.Read().Transactions.FindByID(ctx, create.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, row.Status)
}

func TestRollback_DiscardsEverything(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := seedAccount(t, s, "10", "USD")

	w, err := s.Write(ctx)
	require.NoError(t, err)
	_, err = w.Accounts.FindByIDForUpdate(ctx, id)
	require.NoError(t, err)
	require.NoError(t, w.Accounts.UpdateBalance(ctx, id, money.MustParse("0")))
	create := depositCreate(id, "1")
	_, err = w.Transactions.Insert(ctx, create)
	require.NoError(t, err)

	require.NoError(t, w.Rollback(ctx))
	assert.NoError(t, w.Rollback(ctx), "second rollback is a no-op")
	assert.Error(t, w.Commit(ctx), "commit after rollback")

	assert.True(t, balanceOf(t, s, id).Equal(money.MustParse("10")))
	_, err = s.Read().Transactions.FindByID(ctx, create.ID)
	assert.ErrorIs(t, err, ledgererr.ErrTransactionNotFound)
}

func TestFindByIDForUpdate_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	w, err := s.Write(ctx)
	require.NoError(t, err)
	defer w.Rollback(ctx)

	_, err = w.Accounts.FindByIDForUpdate(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ledgererr.ErrAccountNotFound)
}

func TestHold_BlocksUntilRelease(t *testing.T) {
	ctx := context.Background()
	s := NewStore(WithLockTimeout(2 * time.Second))
	id := seedAccount(t, s, "10", "USD")

	first, err := s.Write(ctx)
	require.NoError(t, err)
	_, err = first.Accounts.FindByIDForUpdate(ctx, id)
	require.NoError(t, err)

	acquired := make(chan money.Amount)
	go func() {
		second, err := s.Write(ctx)
		if err != nil {
			close(acquired)
			return
		}
		defer second.Rollback(ctx)
		acc, err := second.Accounts.FindByIDForUpdate(ctx, id)
		if err != nil {
			close(acquired)
			return
		}
		acquired <- acc.Balance
	}()

	select {
	case <-acquired:
		t.Fatal("second unit of work acquired a held account")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Accounts.UpdateBalance(ctx, id, money.MustParse("4")))
	require.NoError(t, first.Commit(ctx))

	select {
	case balance, ok := <-acquired:
		require.True(t, ok)
		assert.True(t, balance.Equal(money.MustParse("4")), "reads the committed balance under hold")
	case <-time.After(time.Second):
		t.Fatal("hold was not released on commit")
	}
}

func TestHold_LockTimeout(t *testing.T) {
	ctx := context.Background()
	s := NewStore(WithLockTimeout(20 * time.Millisecond))
	id := seedAccount(t, s, "10", "USD")

	first, err := s.Write(ctx)
	require.NoError(t, err)
	defer first.Rollback(ctx)
	_, err = first.Accounts.FindByIDForUpdate(ctx, id)
	require.NoError(t, err)

	second, err := s.Write(ctx)
	require.NoError(t, err)
	defer second.Rollback(ctx)

	_, err = second.Accounts.FindByIDForUpdate(ctx, id)
	assert.ErrorIs(t, err, ledgererr.ErrLockTimeout)
	assert.True(t, ledgererr.IsRetryable(err))
}

func TestHold_ContextCancelled(t *testing.T) {
	s := NewStore(WithLockTimeout(time.Minute))
	id := seedAccount(t, s, "10", "USD")

	first, err := s.Write(context.Background())
	require.NoError(t, err)
	defer first.Rollback(context.Background())
	_, err = first.Accounts.FindByIDForUpdate(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	second, err := s.Write(ctx)
	require.NoError(t, err)
	defer second.Rollback(ctx)

	_, err = second.Accounts.FindByIDForUpdate(ctx, id)
	assert.ErrorIs(t, err, ledgererr.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUpdateBalance_NegativeIsConstraintViolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := seedAccount(t, s, "10", "USD")

	w, err := s.Write(ctx)
	require.NoError(t, err)
	defer w.Rollback(ctx)
	_, err = w.Accounts.FindByIDForUpdate(ctx, id)
	require.NoError(t, err)

	err = w.Accounts.UpdateBalance(ctx, id, money.MustParse("-0.0001"))
	assert.ErrorIs(t, err, ledgererr.ErrConstraintViolation)
}

func TestInsert_StoreBoundaryChecks(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	usd := seedAccount(t, s, "10", "USD")
	eur := seedAccount(t, s, "10", "EUR")

	w, err := s.Write(ctx)
	require.NoError(t, err)
	defer w.Rollback(ctx)

	zero := depositCreate(usd, "0")
	_, err = w.Transactions.Insert(ctx, zero)
	assert.ErrorIs(t, err, ledgererr.ErrConstraintViolation)

	pattern := depositCreate(usd, "1")
	pattern.SenderAccountID = eur
	_, err = w.Transactions.Insert(ctx, pattern)
	assert.ErrorIs(t, err, ledgererr.ErrConstraintViolation)

	currency := depositCreate(eur, "1")
	_, err = w.Transactions.Insert(ctx, currency)
	assert.ErrorIs(t, err, ledgererr.ErrConstraintViolation)

	missing := depositCreate(uuid.Must(uuid.NewV4()), "1")
	_, err = w.Transactions.Insert(ctx, missing)
	assert.ErrorIs(t, err, ledgererr.ErrAccountNotFound)

	ok := depositCreate(usd, "1")
	_, err = w.Transactions.Insert(ctx, ok)
	require.NoError(t, err)
	_, err = w.Transactions.Insert(ctx, ok)
	assert.ErrorIs(t, err, ledgererr.ErrConstraintViolation, "duplicate id")
}

func TestUpdateStatus_OnlyFromPending(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := seedAccount(t, s, "10", "USD")

	w, err := s.Write(ctx)
	require.NoError(t, err)
	create := depositCreate(id, "1")
	_, err = w.Transactions.Insert(ctx, create)
	require.NoError(t, err)

	_, err = w.Transactions.UpdateStatus(ctx, create.ID, ledger.StatusPending)
	assert.ErrorIs(t, err, ledgererr.ErrConstraintViolation)

	row, err := w.Transactions.UpdateStatus(ctx, create.ID, ledger.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, row.Status)

	_, err = w.Transactions.UpdateStatus(ctx, create.ID, ledger.StatusFailed)
	assert.ErrorIs(t, err, ledgererr.ErrConstraintViolation, "terminal status never changes")
	require.NoError(t, w.Commit(ctx))

	w, err = s.Write(ctx)
	require.NoError(t, err)
	defer w.Rollback(ctx)
	_, err = w.Transactions.UpdateStatus(ctx, create.ID, ledger.StatusFailed)
	assert.ErrorIs(t, err, ledgererr.ErrConstraintViolation)
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	userID := uuid.Must(uuid.NewV4())

	w, err := s.Write(ctx)
	require.NoError(t, err)
	_, err = w.Accounts.Create(ctx, &account.AccountCreate{UserID: userID, Currency: "USD"})
	assert.ErrorIs(t, err, ledgererr.ErrUserNotFound)
	require.NoError(t, w.Rollback(ctx))

	s.AddUser(userID)
	w, err = s.Write(ctx)
	require.NoError(t, err)
	created, err := w.Accounts.Create(ctx, &account.AccountCreate{UserID: userID, Currency: "USD"})
	require.NoError(t, err)
	assert.True(t, created.Balance.IsZero())
	require.NoError(t, w.Commit(ctx))

	accounts, err := s.Read().Accounts.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, created.ID, accounts[0].ID)
}

func TestList_NewestFirstWithPaging(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := seedAccount(t, s, "0", "USD")
	other := seedAccount(t, s, "0", "USD")

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		w, err := s.Write(ctx)
		require.NoError(t, err)
		create := depositCreate(id, "1")
		_, err = w.Transactions.Insert(ctx, create)
		require.NoError(t, err)
		require.NoError(t, w.Commit(ctx))
		ids = append(ids, create.ID)
	}
	w, err := s.Write(ctx)
	require.NoError(t, err)
	_, err = w.Transactions.Insert(ctx, depositCreate(other, "1"))
	require.NoError(t, err)
	require.NoError(t, w.Commit(ctx))

	rows, err := s.Read().Transactions.List(ctx, &transaction.TransactionFilter{AccountID: &id, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ids[3], rows[0].ID)
	assert.Equal(t, ids[2], rows[1].ID)

	rows, err = s.Read().Transactions.List(ctx, &transaction.TransactionFilter{AccountID: &id, Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFaultInjector(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s := NewStore(WithFaultInjector(func(op Op) error {
		if op == OpCommit {
			return boom
		}
		return nil
	}))
	id := seedAccount(t, s, "10", "USD")

	w, err := s.Write(ctx)
	require.NoError(t, err)
	_, err = w.Accounts.FindByIDForUpdate(ctx, id)
	require.NoError(t, err)
	require.NoError(t, w.Accounts.UpdateBalance(ctx, id, money.MustParse("1")))

	assert.Error(t, w.Commit(ctx))
	assert.True(t, balanceOf(t, s, id).Equal(money.MustParse("10")))

	// the failed commit released the hold
	s.faults = nil
	w, err = s.Write(ctx)
	require.NoError(t, err)
	defer w.Rollback(ctx)
	_, err = w.Accounts.FindByIDForUpdate(ctx, id)
	assert.NoError(t, err)
}

func TestHold_ConcurrentIncrementsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := seedAccount(t, s, "0", "USD")
	one := money.MustParse("1")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := s.Write(ctx)
			if !assert.NoError(t, err) {
				return
			}
			defer w.Rollback(ctx)
			acc, err := w.Accounts.FindByIDForUpdate(ctx, id)
			if !assert.NoError(t, err) {
				return
			}
			next, err := acc.Balance.Add(one)
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, w.Accounts.UpdateBalance(ctx, id, next))
			assert.NoError(t, w.Commit(ctx))
		}()
	}
	wg.Wait()

	assert.True(t, balanceOf(t, s, id).Equal(money.MustParse("50")))
}
