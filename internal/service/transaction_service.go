package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// TransactionService handles transaction business logic.
type TransactionService struct {
	operator Processor
	storage  storage.IStorage
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(op Processor, store storage.IStorage) *TransactionService {
	return &TransactionService{operator: op, storage: store}
}

// Transfer moves money between two accounts of the same currency.
func (s *TransactionService) Transfer(ctx context.Context, req TransferRequest) (*Transaction, error) {
	return s.run(ctx, &actions.Transfer{
		SenderAccountID:   req.SenderAccountID,
		ReceiverAccountID: req.ReceiverAccountID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		Description:       req.Description,
	})
}

// Deposit adds money to an account from outside the ledger.
func (s *TransactionService) Deposit(ctx context.Context, req DepositRequest) (*Transaction, error) {
	return s.run(ctx, &actions.Deposit{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	})
}

// Withdraw takes money out of an account and out of the ledger.
func (s *TransactionService) Withdraw(ctx context.Context, req WithdrawalRequest) (*Transaction, error) {
	return s.run(ctx, &actions.Withdrawal{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	})
}

// CreateTransaction is the explicit-kind entry point. It rejects a side that
// the kind does not take instead of ignoring it, then forwards to the typed
// operation.
func (s *TransactionService) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*Transaction, error) {
	if err := ledger.CheckPattern(req.Kind, req.SenderAccountID, req.ReceiverAccountID); err != nil {
		return nil, err
	}

	switch req.Kind {
	case ledger.KindTransfer:
		return s.Transfer(ctx, TransferRequest{
			SenderAccountID:   req.SenderAccountID,
			ReceiverAccountID: req.ReceiverAccountID,
			Amount:            req.Amount,
			Currency:          req.Currency,
			Description:       req.Description,
		})
	case ledger.KindDeposit:
		return s.Deposit(ctx, DepositRequest{
			AccountID:   req.ReceiverAccountID,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Description: req.Description,
		})
	case ledger.KindWithdrawal:
		return s.Withdraw(ctx, WithdrawalRequest{
			AccountID:   req.SenderAccountID,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Description: req.Description,
		})
	}
	return nil, ledgererr.New(ledgererr.CodeInvalidAccountPattern, "invalid transaction type: %s", req.Kind)
}

func (s *TransactionService) run(ctx context.Context, action actions.Movement) (*Transaction, error) {
	if err := s.operator.Process(ctx, action); err != nil {
		return nil, err
	}
	result := action.Result()
	if result == nil {
		return nil, ledgererr.New(ledgererr.CodeInternal, "%s completed without a result", action.Name())
	}
	return transactionFromStorage(result), nil
}

// GetTransaction returns one transaction by id.
func (s *TransactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	row, err := s.storage.Read().Transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return transactionFromStorage(row), nil
}

// ListAccountTransactions returns the account's transactions newest first.
// A zero limit means DefaultLimit.
func (s *TransactionService) ListAccountTransactions(ctx context.Context, accountID uuid.UUID, page Page) ([]Transaction, error) {
	limit, err := normalizePage(page)
	if err != nil {
		return nil, err
	}

	if _, err := s.storage.Read().Accounts.FindByID(ctx, accountID); err != nil {
		return nil, err
	}

	rows, err := s.storage.Read().Transactions.List(ctx, &transaction.TransactionFilter{
		AccountID: &accountID,
		Limit:     limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return nil, err
	}

	converted := make([]Transaction, len(rows))
	for i, row := range rows {
		converted[i] = *transactionFromStorage(row)
	}
	return converted, nil
}

func normalizePage(page Page) (int, error) {
	if page.Offset < 0 {
		return 0, ledgererr.New(ledgererr.CodeInvalidPage, "offset must be non-negative, got %d", page.Offset)
	}
	switch {
	case page.Limit == 0:
		return DefaultLimit, nil
	case page.Limit < 0 || page.Limit > MaxLimit:
		return 0, ledgererr.New(ledgererr.CodeInvalidPage, "limit must be between 1 and %d, got %d", MaxLimit, page.Limit)
	}
	return page.Limit, nil
}
