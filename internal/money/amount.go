// Package money holds the exact monetary value used for every balance and
// transaction amount in the ledger. There is no floating point anywhere in
// this package: values are parsed from decimal strings or integer minor units
// and are kept at a fixed scale of four fractional digits.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
)

const (
	// Scale is the number of fractional digits every Amount carries.
	Scale = 4
	// Precision is the total number of digits the store can hold, NUMERIC(19,4).
	Precision = 19
)

// maxInputLen bounds the text Parse will look at. The widest valid amount,
// sign and point included, is far shorter.
const maxInputLen = 64

// limit is the first magnitude that no longer fits NUMERIC(Precision, Scale).
var limit = decimal.New(1, Precision-Scale)

// Amount is an exact, fixed-scale monetary quantity.
type Amount struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Amount{}

// Parse builds an Amount from its decimal string form, e.g. "40.00".
// Strings with more than Scale significant fractional digits are rejected
// instead of rounded. Exponent notation is not accepted.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ledgererr.New(ledgererr.CodeInvalidAmount, "amount is empty")
	}
	if len(s) > maxInputLen {
		return Amount{}, ledgererr.New(ledgererr.CodeInvalidAmount, "amount %q... is longer than %d characters", s[:maxInputLen], maxInputLen)
	}
	if strings.ContainsAny(s, "eE") {
		return Amount{}, ledgererr.New(ledgererr.CodeInvalidAmount, "amount %q must not use exponent notation", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ledgererr.Wrap(ledgererr.CodeInvalidAmount, err, fmt.Sprintf("amount %q is not a decimal number", s))
	}
	a, err := FromDecimal(d)
	if err != nil {
		return Amount{}, ledgererr.Wrap(ledgererr.CodeOf(err), err, fmt.Sprintf("amount %q", s))
	}
	return a, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromMinorUnits builds an Amount from an integer count of 10^-Scale units,
// so FromMinorUnits(12345) is 1.2345.
func FromMinorUnits(units int64) (Amount, error) {
	return checked(decimal.New(units, -Scale))
}

// FromDecimal validates an existing decimal against the scale and precision
// rules. Magnitude is judged from the digit count and exponent before any
// rescaling so an extreme exponent costs nothing.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsZero() {
		return Zero, nil
	}
	coef := d.Coefficient()
	digits := int64(len(coef.Abs(coef).String()))
	exp := int64(d.Exponent())
	if digits+exp > Precision-Scale {
		return Amount{}, ledgererr.New(ledgererr.CodeAmountOverflow, "amount exceeds NUMERIC(%d,%d)", Precision, Scale)
	}
	// every significant digit lies past the last allowed fractional place
	if -exp-Scale >= digits || !d.Equal(d.Round(Scale)) {
		return Amount{}, ledgererr.New(ledgererr.CodeInvalidAmount, "amount has more than %d fractional digits", Scale)
	}
	return checked(d)
}

func checked(d decimal.Decimal) (Amount, error) {
	if d.Abs().Cmp(limit) >= 0 {
		return Amount{}, ledgererr.New(ledgererr.CodeAmountOverflow, "amount exceeds NUMERIC(%d,%d)", Precision, Scale)
	}
	return Amount{d: d.Round(Scale)}, nil
}

// Add returns a+b, failing with AmountOverflow instead of wrapping.
func (a Amount) Add(b Amount) (Amount, error) {
	return checked(a.d.Add(b.d))
}

// Sub returns a-b, failing with AmountOverflow instead of wrapping.
func (a Amount) Sub(b Amount) (Amount, error) {
	return checked(a.d.Sub(b.d))
}

func (a Amount) Neg() Amount {
	return Amount{d: a.d.Neg()}
}

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// MinorUnits returns the value as an integer count of 10^-Scale units.
// Values beyond the int64 range are AmountOverflow.
func (a Amount) MinorUnits() (int64, error) {
	units := a.d.Shift(Scale).BigInt()
	if !units.IsInt64() {
		return 0, ledgererr.New(ledgererr.CodeAmountOverflow, "amount does not fit in int64 minor units")
	}
	return units.Int64(), nil
}

// Decimal exposes the underlying exact value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String always renders Scale fractional digits, e.g. "60.0000".
func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// bare JSON numbers are accepted but never routed through float64
		s = string(data)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer using the exact text form.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (a *Amount) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("money: scan amount: %w", err)
	}
	parsed, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
