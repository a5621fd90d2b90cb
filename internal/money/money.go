// Package money implements whole-peso CLP arithmetic and formatting.
//
// Amounts are int64 pesos. Fractional intermediates (percentages) are computed
// exactly with decimals and rounded half-up to the nearest peso before they
// leave this package.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"settlement-engine/internal/apperr"

	"github.com/shopspring/decimal"
)

const (
	// Currency is the ISO 4217 code of every amount handled here.
	Currency = "CLP"

	currencySymbol    = "$"
	thousandSeparator = "."
)

// RoundHalfUp rounds d to a whole peso, halves away from zero.
func RoundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// MulRate multiplies a peso amount by a fractional rate and rounds the result.
func MulRate(amount int64, rate decimal.Decimal) int64 {
	return RoundHalfUp(decimal.NewFromInt(amount).Mul(rate))
}

// FromFloat converts a float peso amount (as received from loosely typed
// sources) into whole pesos.
func FromFloat(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", apperr.ErrInvalidAmount, v)
	}
	if math.Abs(v) > math.MaxInt64/2 {
		return 0, fmt.Errorf("%w: %v is out of range", apperr.ErrInvalidAmount, v)
	}
	return RoundHalfUp(decimal.NewFromFloat(v)), nil
}

// FormatCurrency renders a non-negative peso amount in Chilean format,
// e.g. 1234567 -> "$1.234.567".
func FormatCurrency(amount int64) (string, error) {
	if amount < 0 {
		return "", fmt.Errorf("%w: negative amount %d", apperr.ErrInvalidAmount, amount)
	}
	return currencySymbol + group(strconv.FormatInt(amount, 10)), nil
}

// MustFormat formats amounts that are non-negative by construction, such as
// ledger amounts and their sums. Invalid amounts render as an empty string.
func MustFormat(amount int64) string {
	s, err := FormatCurrency(amount)
	if err != nil {
		return ""
	}
	return s
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(thousandSeparator)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
