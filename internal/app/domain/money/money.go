// Package money represents monetary values as integer minor units so that
// comparisons and arithmetic never accumulate floating-point drift.
package money

import (
	"fmt"
	"math"
)

// Amount is a sum of money in cents.
type Amount int64

// FromFloat converts a wire-level decimal number to cents, rounding half
// away from zero.
func FromFloat(v float64) Amount {
	return Amount(math.Round(v * 100))
}

// Float64 converts the amount back to the wire-level decimal number.
func (a Amount) Float64() float64 {
	return float64(a) / 100
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a < 0 }

// String renders the amount with two decimals.
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
