package service

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// Processor runs one action in its own unit of work.
//
//go:generate mockery --name Processor --output mock_Processor.go
type Processor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// Service holds all business logic services.
type Service struct {
	Transaction *TransactionService
	Account     *AccountService
}

// NewService creates a new Service. Writes go through op, reads straight to store.
func NewService(op Processor, store storage.IStorage) *Service {
	return &Service{
		Transaction: NewTransactionService(op, store),
		Account:     NewAccountService(op, store),
	}
}
