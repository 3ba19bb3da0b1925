package ledgererr

import (
	"errors"
	"fmt"
)

// Code classifies a ledger failure. Callers branch on the code, never on the message.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidAmount
	CodeCurrencyMismatch
	CodeInvalidCurrency
	CodeInsufficientFunds
	CodeInvalidAccountPattern
	CodeAccountNotFound
	CodeTransactionNotFound
	CodeUserNotFound
	CodeLockTimeout
	CodeStoreUnavailable
	CodeAmountOverflow
	CodeConstraintViolation
	CodeInvalidPage
)

func (c Code) String() string {
	switch c {
	case CodeInvalidAmount:
		return "INVALID_AMOUNT"
	case CodeCurrencyMismatch:
		return "CURRENCY_MISMATCH"
	case CodeInvalidCurrency:
		return "INVALID_CURRENCY"
	case CodeInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case CodeInvalidAccountPattern:
		return "INVALID_ACCOUNT_PATTERN"
	case CodeAccountNotFound:
		return "ACCOUNT_NOT_FOUND"
	case CodeTransactionNotFound:
		return "TRANSACTION_NOT_FOUND"
	case CodeUserNotFound:
		return "USER_NOT_FOUND"
	case CodeLockTimeout:
		return "LOCK_TIMEOUT"
	case CodeStoreUnavailable:
		return "STORE_UNAVAILABLE"
	case CodeAmountOverflow:
		return "AMOUNT_OVERFLOW"
	case CodeConstraintViolation:
		return "CONSTRAINT_VIOLATION"
	case CodeInvalidPage:
		return "INVALID_PAGE"
	default:
		return "INTERNAL"
	}
}

// Error is the single error type surfaced by the ledger engine.
//
// Two errors are considered equal by errors.Is when their codes match, so the
// package sentinels can be compared against errors that carry extra context.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalidAmount         = &Error{Code: CodeInvalidAmount, Message: "invalid amount"}
	ErrCurrencyMismatch      = &Error{Code: CodeCurrencyMismatch, Message: "currency mismatch"}
	ErrInvalidCurrency       = &Error{Code: CodeInvalidCurrency, Message: "currency must be a 3-letter code"}
	ErrInsufficientFunds     = &Error{Code: CodeInsufficientFunds, Message: "insufficient funds"}
	ErrInvalidAccountPattern = &Error{Code: CodeInvalidAccountPattern, Message: "invalid account pattern for transaction kind"}
	ErrAccountNotFound       = &Error{Code: CodeAccountNotFound, Message: "account not found"}
	ErrTransactionNotFound   = &Error{Code: CodeTransactionNotFound, Message: "transaction not found"}
	ErrUserNotFound          = &Error{Code: CodeUserNotFound, Message: "user not found"}
	ErrLockTimeout           = &Error{Code: CodeLockTimeout, Message: "timed out acquiring account lock"}
	ErrStoreUnavailable      = &Error{Code: CodeStoreUnavailable, Message: "ledger store unavailable"}
	ErrAmountOverflow        = &Error{Code: CodeAmountOverflow, Message: "amount exceeds storage precision"}
	ErrConstraintViolation   = &Error{Code: CodeConstraintViolation, Message: "store rejected ledger invariant"}
	ErrInternal              = &Error{Code: CodeInternal, Message: "internal ledger failure"}
	ErrInvalidPage           = &Error{Code: CodeInvalidPage, Message: "invalid page request"}
)

// New returns an error of the given code with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code of the first *Error in err's chain. Errors that
// carry no code are internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the whole operation may be retried from scratch.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeLockTimeout, CodeStoreUnavailable:
		return true
	}
	return false
}

// IsValidation reports expected, caller-attributable failures.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidAmount, CodeCurrencyMismatch, CodeInvalidCurrency, CodeInsufficientFunds,
		CodeInvalidAccountPattern, CodeAccountNotFound, CodeTransactionNotFound, CodeUserNotFound,
		CodeInvalidPage:
		return true
	}
	return false
}

// IsUnexpected reports failures that indicate an engine defect and must be logged.
func IsUnexpected(err error) bool {
	if err == nil {
		return false
	}
	return !IsValidation(err) && !IsRetryable(err)
}
