package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaisePerRupee is the fixed INR subunit factor.
const PaisePerRupee int64 = 100

// ParseAmount converts a decimal rupee string ("1500.50") into paise.
// Rejects non-positive amounts and sub-paise precision.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	paise := d.Mul(decimal.NewFromInt(PaisePerRupee))
	if !paise.IsInteger() {
		return 0, fmt.Errorf("amount %q has sub-paise precision", s)
	}
	if !paise.IsPositive() {
		return 0, fmt.Errorf("amount must be positive, got %s", s)
	}
	return paise.IntPart(), nil
}

// ToRupees converts paise to a decimal rupee value.
func ToRupees(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Div(decimal.NewFromInt(PaisePerRupee))
}

// FormatPaise renders a paise amount as a rupee string with two places.
func FormatPaise(paise int64) string {
	return "₹" + ToRupees(paise).StringFixed(2)
}
