// Package money centralizes monetary arithmetic so every price, discount and
// total in the system is computed and rounded the same way.
package money

import "github.com/shopspring/decimal"

// Round2 rounds to two decimal places, halves away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns amount * pct / 100 rounded to two decimal places.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(decimal.NewFromInt(100)))
}

// Cents converts a two-decimal amount to an integer number of cents.
// Penny-exact allocation works in cents to avoid fractional drift.
func Cents(d decimal.Decimal) int64 {
	return Round2(d).Mul(decimal.NewFromInt(100)).IntPart()
}

// FromCents converts an integer number of cents back to a decimal amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// ClampFloor returns d, or floor when d is below it.
func ClampFloor(d, floor decimal.Decimal) decimal.Decimal {
	if d.LessThan(floor) {
		return floor
	}
	return d
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}
