// Package money holds the ledger's canonical amount representation: integer
// minor units (cents), parsed from and rendered to decimals.
package money

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "orusbank/internal/errors"
)

// Scale is the number of fractional digits an Amount carries.
const Scale = 2

// Amount is a quantity of money in minor units.
type Amount int64

// Zero is the opening balance of every account.
const Zero Amount = 0

// FromDecimal converts a strictly positive decimal with at most Scale
// fractional digits into an Amount.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !bounded(d) {
		return 0, apperrors.ErrInvalidAmount.WithMessage("invalid amount, value out of range")
	}
	if !d.IsPositive() {
		return 0, apperrors.ErrInvalidAmount.WithMessage("invalid amount, please enter a positive number")
	}
	if !d.Equal(d.Truncate(Scale)) {
		return 0, apperrors.ErrInvalidAmount.WithMessage("invalid amount, at most %d decimal places allowed", Scale)
	}
	minor := d.Shift(Scale)
	if !minor.IsInteger() || minor.Cmp(decimal.NewFromInt(maxMinor)) > 0 {
		return 0, apperrors.ErrInvalidAmount.WithMessage("invalid amount, value out of range")
	}
	return Amount(minor.IntPart()), nil
}

// maxMinor caps a single amount.
const maxMinor = int64(1) << 52

// MaxBalance caps any stored balance. Credits that would pass it are refused,
// so balance arithmetic stays far from int64 overflow.
const MaxBalance Amount = 1 << 62

// CanCredit reports whether delta can be added to balance without passing
// MaxBalance. Debits always can.
func CanCredit(balance, delta Amount) bool {
	return delta <= 0 || balance <= MaxBalance-delta
}

// Decimals with exponents or coefficients past these bounds are rejected
// before any rescaling, which is linear in the exponent.
const (
	maxExponent        = 24
	maxCoefficientBits = 128
)

func bounded(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -maxExponent || exp > maxExponent {
		return false
	}
	return d.Coefficient().BitLen() <= maxCoefficientBits
}

const maxInputLength = 64

// Parse reads a decimal string such as "12.50" into a positive Amount.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperrors.ErrInvalidAmount.WithMessage("amount is required")
	}
	if len(s) > maxInputLength {
		return 0, apperrors.ErrInvalidAmount.WithMessage("invalid amount, value out of range")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, apperrors.ErrInvalidAmount.WithMessage("invalid amount, please enter a positive number")
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and numeric strings. It does not
// enforce positivity, so stored balances (including zero) round-trip.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	if !bounded(d) {
		return fmt.Errorf("money: %s out of range", b)
	}
	if !d.Equal(d.Truncate(Scale)) {
		return fmt.Errorf("money: %s has more than %d decimal places", d, Scale)
	}
	*a = Amount(d.Shift(Scale).IntPart())
	return nil
}

// Value stores the amount as its minor-unit integer.
func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

// Scan reads a minor-unit integer column.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*a = Amount(v)
	case int32:
		*a = Amount(v)
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("money: scan %q: %w", v, err)
		}
		*a = Amount(d.IntPart())
	case nil:
		*a = 0
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}
