// Package httperr maps ledger errors to HTTP problem responses.
package httperr

import (
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
)

// RetryAfterSeconds is sent with every retryable failure.
const RetryAfterSeconds = 1

// Status returns the HTTP status for a ledger error.
func Status(err error) int {
	switch ledgererr.CodeOf(err) {
	case ledgererr.CodeInvalidAmount, ledgererr.CodeInvalidCurrency,
		ledgererr.CodeInvalidAccountPattern, ledgererr.CodeInvalidPage:
		return http.StatusBadRequest
	case ledgererr.CodeAccountNotFound, ledgererr.CodeTransactionNotFound, ledgererr.CodeUserNotFound:
		return http.StatusNotFound
	case ledgererr.CodeCurrencyMismatch, ledgererr.CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case ledgererr.CodeLockTimeout, ledgererr.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// FromLedger converts err into a huma error. Unexpected failures only
// expose a generic message; the operator has already logged the detail.
func FromLedger(err error) error {
	code := ledgererr.CodeOf(err)
	status := Status(err)
	detail := &huma.ErrorDetail{Location: "code", Value: code.String()}

	switch {
	case status == http.StatusInternalServerError:
		return huma.NewError(status, "internal error", detail)
	case ledgererr.IsRetryable(err):
		return huma.ErrorWithHeaders(
			huma.NewError(status, err.Error(), detail),
			http.Header{"Retry-After": {strconv.Itoa(RetryAfterSeconds)}},
		)
	}
	return huma.NewError(status, err.Error(), detail)
}
