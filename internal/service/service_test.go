package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
)

// newEngine wires the services to a real operator over the in-memory store.
func newEngine(t *testing.T, workers int, opts ...memory.Option) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(opts...)
	logger, _ := logtest.NewNullLogger()
	logger.SetLevel(logrus.WarnLevel)

	op, err := operator.NewOperatorDelegator(store, workers, 5*time.Second, logger)
	require.NoError(t, err)
	op.Start()
	t.Cleanup(op.Stop)

	return NewService(op, store), store
}

func seedAccount(t *testing.T, store *memory.Store, balance, currency string) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	require.NoError(t, store.Seed(account.Account{
		ID:       id,
		UserID:   uuid.Must(uuid.NewV4()),
		Balance:  money.MustParse(balance),
		Currency: currency,
	}))
	return id
}

func balanceOf(t *testing.T, svc *Service, id uuid.UUID) string {
	t.Helper()
	acc, err := svc.Account.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance.String()
}
