// Package ledger holds the vocabulary shared by every layer of the engine:
// transaction kinds and statuses, currency codes, the lock ordering rule and
// the invariant checks run before any balance is touched.
package ledger

import (
	"strings"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
)

// Kind is the closed set of balance-affecting events.
type Kind string

const (
	KindTransfer   Kind = "TRANSFER"
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
)

// ParseKind accepts the persisted text form, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindTransfer, KindDeposit, KindWithdrawal:
		return k, nil
	}
	return "", ledgererr.New(ledgererr.CodeInvalidAccountPattern, "invalid transaction type: %s", s)
}

func (k Kind) String() string {
	return string(k)
}

// Status is the lifecycle of a persisted transaction.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition allows exactly Pending -> Completed and Pending -> Failed.
func (s Status) CanTransition(to Status) bool {
	return s == StatusPending && to.Terminal()
}

// ValidateTransition returns an error for any transition other than
// Pending to a terminal status.
func ValidateTransition(from, to Status) error {
	if !from.CanTransition(to) {
		return ledgererr.New(ledgererr.CodeConstraintViolation, "illegal status transition %s -> %s", from, to)
	}
	return nil
}

// NormalizeCurrency upper-cases a 3-letter currency code and rejects anything else.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", ledgererr.New(ledgererr.CodeInvalidCurrency, "currency %q must be a 3-letter code", code)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", ledgererr.New(ledgererr.CodeInvalidCurrency, "currency %q must be a 3-letter code", code)
		}
	}
	return c, nil
}

func kindLabel(k Kind) string {
	return strings.ToLower(string(k))
}
