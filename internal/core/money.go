// Package core declares the ledger's record types, validation rules, and
// error taxonomy. Amounts are signed fixed-point decimals with two
// fractional digits: positive values are income, negative values expenses.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountAbs bounds amounts to NUMERIC(10,2): fewer than 9 integer digits.
var maxAmountAbs = decimal.New(1, 8)

// ParseAmount converts a decimal string to a signed amount with two
// fractional digits. Both dot (12.34) and comma (12,34) separators are
// accepted, and a third fractional digit rounds half away from zero.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("-40")    -> -40.00
//	ParseAmount("12.345") -> 12.35 (rounds up)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks that d fits the stored precision: at most two
// fractional digits and an absolute value below 10^8.
func ValidateAmount(d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return ErrInvalidAmount
	}
	if d.Abs().GreaterThanOrEqual(maxAmountAbs) {
		return ErrInvalidAmount
	}
	return nil
}
