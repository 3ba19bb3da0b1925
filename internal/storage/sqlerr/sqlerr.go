// Package sqlerr maps database driver failures onto the ledger error taxonomy
// so a store-boundary rejection looks the same to callers as an in-engine one.
package sqlerr

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"

	"github.com/lib/pq"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
)

// Postgres SQLSTATE codes the ledger reacts to.
const (
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeRaiseException      = "P0001"
	codeSerialization       = "40001"
	codeDeadlockDetected    = "40P01"
	codeLockNotAvailable    = "55P03"
	codeQueryCanceled       = "57014"
	codeTooManyConnections  = "53300"
	codeCannotConnectNow    = "57P03"
	codeAdminShutdown       = "57P01"
)

// Translate converts err into a *ledgererr.Error. notFound is the error to
// report for sql.ErrNoRows, which differs between account and transaction
// lookups. Errors that already carry a ledger code pass through unchanged.
func Translate(err error, notFound *ledgererr.Error) error {
	if err == nil {
		return nil
	}

	var ledgerErr *ledgererr.Error
	if errors.As(err, &ledgerErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		if notFound == nil {
			notFound = ledgererr.ErrInternal
		}
		return ledgererr.Wrap(notFound.Code, err, notFound.Message)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return translatePQ(pqErr)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ledgererr.Wrap(ledgererr.CodeStoreUnavailable, err, "store call abandoned")
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return ledgererr.Wrap(ledgererr.CodeStoreUnavailable, err, "store connection lost")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ledgererr.Wrap(ledgererr.CodeStoreUnavailable, err, "store network failure")
	}

	return ledgererr.Wrap(ledgererr.CodeInternal, err, "store failure")
}

func translatePQ(err *pq.Error) error {
	switch string(err.Code) {
	case codeCheckViolation, codeNotNullViolation, codeRaiseException, codeUniqueViolation:
		return ledgererr.Wrap(ledgererr.CodeConstraintViolation, err, "store rejected write ("+err.Constraint+")")
	case codeForeignKeyViolation:
		if err.Constraint == "accounts_user_id_fkey" {
			return ledgererr.Wrap(ledgererr.CodeUserNotFound, err, ledgererr.ErrUserNotFound.Message)
		}
		return ledgererr.Wrap(ledgererr.CodeAccountNotFound, err, ledgererr.ErrAccountNotFound.Message)
	case codeLockNotAvailable, codeDeadlockDetected, codeSerialization, codeQueryCanceled:
		return ledgererr.Wrap(ledgererr.CodeLockTimeout, err, ledgererr.ErrLockTimeout.Message)
	case codeTooManyConnections, codeCannotConnectNow, codeAdminShutdown:
		return ledgererr.Wrap(ledgererr.CodeStoreUnavailable, err, ledgererr.ErrStoreUnavailable.Message)
	}
	return ledgererr.Wrap(ledgererr.CodeInternal, err, "store failure")
}
