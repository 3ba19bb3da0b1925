package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// AccountService handles account business logic. It never changes balances.
type AccountService struct {
	operator Processor
	storage  storage.IStorage
}

// NewAccountService creates a new AccountService.
func NewAccountService(op Processor, store storage.IStorage) *AccountService {
	return &AccountService{operator: op, storage: store}
}

// CreateAccount opens a zero balance account for userID.
func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, currency string) (*Account, error) {
	code, err := ledger.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	action := &actions.CreateAccount{UserID: userID, Currency: code}
	if err := s.operator.Process(ctx, action); err != nil {
		return nil, err
	}
	return accountFromStorage(action.Created), nil
}

// GetAccount retrieves an account by ID.
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	row, err := s.storage.Read().Accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return accountFromStorage(row), nil
}

// ListUserAccounts returns every account owned by userID, oldest first.
func (s *AccountService) ListUserAccounts(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	rows, err := s.storage.Read().Accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	converted := make([]Account, len(rows))
	for i, row := range rows {
		converted[i] = *accountFromStorage(row)
	}
	return converted, nil
}
