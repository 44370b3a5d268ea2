// Package core provides money rounding helpers.
//
// Projection math runs in float64 so that compounding formulas can use
// math.Pow and math.Exp directly. Rounding to cents happens only at output
// boundaries, through shopspring/decimal to avoid binary rounding surprises
// such as 1.005 rounding down.
package core

import (
	"github.com/shopspring/decimal"
)

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatAmount renders v with exactly two decimals, for tables and CSV.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Cents converts v to integer cents after rounding.
func Cents(v float64) int64 {
	return decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()
}
