// Package core provides money parsing and handling utilities.
//
// This file converts between the floating point amounts produced by the
// expense form and the integer cents stored by the backends.
package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// MoneyFromFloat converts an amount in euros to cents with half-up rounding.
//
// Returns ErrInvalidAmount for NaN, infinities, and values that round to
// zero or below.
//
// Examples:
//
//	MoneyFromFloat(19.99)  -> Money{Cents: 1999}, nil
//	MoneyFromFloat(0.005)  -> Money{Cents: 1}, nil
//	MoneyFromFloat(0.004)  -> Money{}, ErrInvalidAmount
func MoneyFromFloat(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, ErrInvalidAmount
	}
	d := decimal.NewFromFloat(v).Round(2).Shift(2)
	if !d.IsInteger() || d.Cmp(decimal.NewFromInt(math.MaxInt64/2)) > 0 {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Cents: d.IntPart()}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Decimal returns the amount in euros as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Euros returns the euro value as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Euros() float64 {
	return m.Decimal().InexactFloat64()
}

// String renders the amount without trailing zeros ("19.99", "20", "19.9"),
// the same text a form shows when editing an existing expense.
func (m Money) String() string {
	return m.Decimal().String()
}
