// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits kept for currency amounts.
const MoneyScale int32 = 2

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Price wraps an amount as a present optional value.
func Price(m Money) decimal.NullDecimal {
	return decimal.NewNullDecimal(m)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds to currency precision using round-half-up
// (half away from zero; ledger amounts are never negative).
func RoundMoney(m Money) Money {
	return m.Round(MoneyScale)
}

// HasMoneyPrecision reports whether m fits in currency precision without rounding.
func HasMoneyPrecision(m Money) bool {
	return m.Equal(m.Truncate(MoneyScale))
}

// Sum adds amounts starting from zero.
func Sum(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
