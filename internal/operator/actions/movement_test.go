package actions

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
)

func newStore(t *testing.T, balances map[string]string) (*memory.Store, map[string]uuid.UUID) {
	t.Helper()
	s := memory.NewStore()
	ids := make(map[string]uuid.UUID, len(balances))
	for name, balance := range balances {
		currency := "USD"
		if name == "eur" {
			currency = "EUR"
		}
		id := uuid.Must(uuid.NewV4())
		require.NoError(t, s.Seed(account.Account{
			ID:       id,
			UserID:   uuid.Must(uuid.NewV4()),
			Balance:  money.MustParse(balance),
			Currency: currency,
		}))
		ids[name] = id
	}
	return s, ids
}

// run performs action in one unit of work and commits only on success.
func run(t *testing.T, s *memory.Store, action IAction) error {
	t.Helper()
	ctx := context.Background()
	w, err := s.Write(ctx)
	require.NoError(t, err)
	if err := action.Perform(ctx, w); err != nil {
		require.NoError(t, w.Rollback(ctx))
		return err
	}
	return w.Commit(ctx)
}

func balance(t *testing.T, s *memory.Store, id uuid.UUID) string {
	t.Helper()
	acc, err := s.Read().Accounts.FindByID(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance.String()
}

func TestTransfer_MovesExactAmount(t *testing.T) {
	s, ids := newStore(t, map[string]string{"x": "100", "y": "5"})
	note := "rent"

	action := &Transfer{
		SenderAccountID:   ids["x"],
		ReceiverAccountID: ids["y"],
		Amount:            money.MustParse("30.1234"),
		Currency:          "usd",
		Description:       &note,
	}
	require.NoError(t, run(t, s, action))

	assert.Equal(t, "69.8766", balance(t, s, ids["x"]))
	assert.Equal(t, "35.1234", balance(t, s, ids["y"]))

	result := action.Result()
	require.NotNil(t, result)
	assert.Equal(t, ledger.StatusCompleted, result.Status)
	assert.Equal(t, ledger.KindTransfer, result.Kind)
	assert.Equal(t, "USD", result.Currency)
	assert.Equal(t, ids["x"], result.SenderAccountID.UUID)
	assert.Equal(t, ids["y"], result.ReceiverAccountID.UUID)
	assert.Equal(t, "rent", result.Description.GetOrZero())
	assert.Equal(t, action.Recorded().ID, result.ID)
}

func TestDepositAndWithdrawal(t *testing.T) {
	s, ids := newStore(t, map[string]string{"x": "100"})

	require.NoError(t, run(t, s, &Withdrawal{AccountID: ids["x"], Amount: money.MustParse("40.00"), Currency: "USD"}))
	assert.Equal(t, "60.0000", balance(t, s, ids["x"]))

	err := run(t, s, &Withdrawal{AccountID: ids["x"], Amount: money.MustParse("1000.00"), Currency: "USD"})
	assert.ErrorIs(t, err, ledgererr.ErrInsufficientFunds)
	assert.Equal(t, "60.0000", balance(t, s, ids["x"]))

	deposit := &Deposit{AccountID: ids["x"], Amount: money.MustParse("0.0001"), Currency: "USD"}
	require.NoError(t, run(t, s, deposit))
	assert.Equal(t, "60.0001", balance(t, s, ids["x"]))
	assert.False(t, deposit.Result().SenderAccountID.Valid)
	assert.Equal(t, ids["x"], deposit.Result().ReceiverAccountID.UUID)
}

func TestPrepare_ValidationFailuresRecordNothing(t *testing.T) {
	s, ids := newStore(t, map[string]string{"x": "10", "y": "10", "eur": "10"})
	missing := uuid.Must(uuid.NewV4())

	tests := []struct {
		name   string
		action Movement
		want   error
	}{
		{"zero amount", &Deposit{AccountID: ids["x"], Amount: money.Zero, Currency: "USD"}, ledgererr.ErrInvalidAmount},
		{"negative amount", &Withdrawal{AccountID: ids["x"], Amount: money.MustParse("-1"), Currency: "USD"}, ledgererr.ErrInvalidAmount},
		{"self transfer", &Transfer{SenderAccountID: ids["x"], ReceiverAccountID: ids["x"], Amount: money.MustParse("1"), Currency: "USD"}, ledgererr.ErrInvalidAccountPattern},
		{"missing receiver", &Transfer{SenderAccountID: ids["x"], Amount: money.MustParse("1"), Currency: "USD"}, ledgererr.ErrInvalidAccountPattern},
		{"deposit without account", &Deposit{Amount: money.MustParse("1"), Currency: "USD"}, ledgererr.ErrInvalidAccountPattern},
		{"bad currency", &Deposit{AccountID: ids["x"], Amount: money.MustParse("1"), Currency: "US"}, ledgererr.ErrInvalidCurrency},
		{"currency mismatch", &Transfer{SenderAccountID: ids["x"], ReceiverAccountID: ids["eur"], Amount: money.MustParse("1"), Currency: "USD"}, ledgererr.ErrCurrencyMismatch},
		{"unknown account", &Deposit{AccountID: missing, Amount: money.MustParse("1"), Currency: "USD"}, ledgererr.ErrAccountNotFound},
		{"insufficient funds", &Transfer{SenderAccountID: ids["x"], ReceiverAccountID: ids["y"], Amount: money.MustParse("10.0001"), Currency: "USD"}, ledgererr.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, s, tt.action)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, tt.action.Recorded())
			assert.Nil(t, tt.action.Result())
		})
	}

	assert.Equal(t, "10.0000", balance(t, s, ids["x"]))
	assert.Equal(t, "10.0000", balance(t, s, ids["y"]))
	rows, err := s.Read().Transactions.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMutate_OverflowAfterRecord(t *testing.T) {
	s, ids := newStore(t, map[string]string{"x": "999999999999999.9999"})

	action := &Deposit{AccountID: ids["x"], Amount: money.MustParse("1"), Currency: "USD"}
	err := run(t, s, action)

	assert.ErrorIs(t, err, ledgererr.ErrAmountOverflow)
	assert.NotNil(t, action.Recorded(), "failed after the record step")
	assert.Nil(t, action.Result())
	assert.Equal(t, "999999999999999.9999", balance(t, s, ids["x"]))
}

func TestCreateAccount_Perform(t *testing.T) {
	s := memory.NewStore()
	userID := uuid.Must(uuid.NewV4())
	s.AddUser(userID)

	action := &CreateAccount{UserID: userID, Currency: "GBP"}
	require.NoError(t, run(t, s, action))

	require.NotNil(t, action.Created)
	assert.Equal(t, "GBP", action.Created.Currency)
	assert.True(t, action.Created.Balance.IsZero())
}
