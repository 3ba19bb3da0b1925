package ledger

import (
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/money"
)

// CheckAmount enforces amount > 0.
func CheckAmount(amount money.Amount) error {
	if !amount.IsPositive() {
		return ledgererr.New(ledgererr.CodeInvalidAmount, "amount must be positive, got %s", amount)
	}
	return nil
}

// CheckPattern enforces the sender/receiver presence rule for a kind:
// transfers need two distinct accounts, deposits only a receiver and
// withdrawals only a sender. uuid.Nil means absent.
func CheckPattern(kind Kind, sender, receiver uuid.UUID) error {
	hasSender := sender != uuid.Nil
	hasReceiver := receiver != uuid.Nil

	switch kind {
	case KindTransfer:
		if !hasSender || !hasReceiver {
			return ledgererr.New(ledgererr.CodeInvalidAccountPattern, "sender and receiver account IDs are required for transfers")
		}
		if sender == receiver {
			return ledgererr.New(ledgererr.CodeInvalidAccountPattern, "cannot transfer to the same account")
		}
	case KindDeposit:
		if hasSender || !hasReceiver {
			return ledgererr.New(ledgererr.CodeInvalidAccountPattern, "deposits take a receiver account and no sender")
		}
	case KindWithdrawal:
		if !hasSender || hasReceiver {
			return ledgererr.New(ledgererr.CodeInvalidAccountPattern, "withdrawals take a sender account and no receiver")
		}
	default:
		return ledgererr.New(ledgererr.CodeInvalidAccountPattern, "invalid transaction type: %s", kind)
	}
	return nil
}

// CheckCurrency enforces that an account is denominated in the transaction currency.
func CheckCurrency(kind Kind, want, accountCurrency string, accountID uuid.UUID) error {
	if want != accountCurrency {
		return ledgererr.New(ledgererr.CodeCurrencyMismatch,
			"%s in %s does not match account %s denominated in %s", kindLabel(kind), want, accountID, accountCurrency)
	}
	return nil
}

// CheckSufficientFunds enforces balance - amount >= 0.
func CheckSufficientFunds(accountID uuid.UUID, balance, amount money.Amount) error {
	if balance.LessThan(amount) {
		return ledgererr.New(ledgererr.CodeInsufficientFunds,
			"account %s has %s, needs %s", accountID, balance, amount)
	}
	return nil
}

// CheckBalance enforces the committed-state invariant balance >= 0. It is the
// store boundary backstop, so a violation is a ConstraintViolation.
func CheckBalance(accountID uuid.UUID, balance money.Amount) error {
	if balance.IsNegative() {
		return ledgererr.New(ledgererr.CodeConstraintViolation, "account %s balance %s is negative", accountID, balance)
	}
	return nil
}

// CheckRecord validates a transaction row as the store would: positive
// amount, well-formed currency and a valid account pattern. Violations are
// ConstraintViolation because in-engine checks should have caught them first.
func CheckRecord(kind Kind, sender, receiver uuid.UUID, amount money.Amount, currency string) error {
	if err := CheckAmount(amount); err != nil {
		return ledgererr.Wrap(ledgererr.CodeConstraintViolation, err, "transactions_amount_positive")
	}
	if err := CheckPattern(kind, sender, receiver); err != nil {
		return ledgererr.Wrap(ledgererr.CodeConstraintViolation, err, "transactions_account_pattern")
	}
	if _, err := NormalizeCurrency(currency); err != nil {
		return ledgererr.Wrap(ledgererr.CodeConstraintViolation, err, "transactions_currency_format")
	}
	return nil
}
