package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every stored amount.
const Scale = 2

var ErrInvalidAmount = errors.New("invalid amount")

// RoundAmount rounds half away from zero to Scale digits. Amounts are only
// positive at the boundaries, so this is round-half-up.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// ParseAmount parses a decimal string and rounds it to Scale digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return RoundAmount(d), nil
}

// Sum adds amounts exactly; no rounding is applied.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Remaining is the outstanding balance, amount - totalPaid. It may be
// negative for overpaid invoices created before payments were capped.
func Remaining(amount, totalPaid decimal.Decimal) decimal.Decimal {
	return amount.Sub(totalPaid)
}

// FormatAmount renders d with exactly Scale fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
