package service

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
)

func TestCreateAccount_ZeroBalance(t *testing.T) {
	svc, store := newEngine(t, 1)
	userID := uuid.Must(uuid.NewV4())
	store.AddUser(userID)
	ctx := context.Background()

	acc, err := svc.Account.CreateAccount(ctx, userID, "jpy")
	require.NoError(t, err)
	assert.Equal(t, "JPY", acc.Currency)
	assert.Equal(t, userID, acc.UserID)
	assert.True(t, acc.Balance.IsZero())

	fetched, err := svc.Account.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, fetched.ID)
}

func TestCreateAccount_UnknownUser(t *testing.T) {
	svc, _ := newEngine(t, 1)

	_, err := svc.Account.CreateAccount(context.Background(), uuid.Must(uuid.NewV4()), "USD")
	assert.ErrorIs(t, err, ledgererr.ErrUserNotFound)
}

func TestCreateAccount_InvalidCurrencyNeverReachesOperator(t *testing.T) {
	proc := new(mockProcessor)
	svc := NewAccountService(proc, memory.NewStore())

	_, err := svc.CreateAccount(context.Background(), uuid.Must(uuid.NewV4()), "dollars")
	assert.ErrorIs(t, err, ledgererr.ErrInvalidCurrency)
	proc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestListUserAccounts(t *testing.T) {
	svc, store := newEngine(t, 1)
	userID := uuid.Must(uuid.NewV4())
	store.AddUser(userID)
	ctx := context.Background()

	usd, err := svc.Account.CreateAccount(ctx, userID, "USD")
	require.NoError(t, err)
	eur, err := svc.Account.CreateAccount(ctx, userID, "EUR")
	require.NoError(t, err)

	accounts, err := svc.Account.ListUserAccounts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, usd.ID, accounts[0].ID)
	assert.Equal(t, eur.ID, accounts[1].ID)

	none, err := svc.Account.ListUserAccounts(ctx, uuid.Must(uuid.NewV4()))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetAccount_NotFound(t *testing.T) {
	svc, _ := newEngine(t, 1)

	_, err := svc.Account.GetAccount(context.Background(), uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ledgererr.ErrAccountNotFound)
}
