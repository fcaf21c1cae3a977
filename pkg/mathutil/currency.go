// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/shopspring/decimal"
)

// RoundTo rounds half away from zero to the given number of decimal places.
// NaN and infinities are returned unchanged.
func RoundTo(val float64, places int) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	return decimal.NewFromFloat(val).Round(int32(places)).InexactFloat64()
}

// Dollars rounds a monetary value to whole dollars.
func Dollars(val float64) float64 {
	return RoundTo(val, constants.MoneyPlaces)
}

// Rate rounds a rate or ratio to four decimals.
func Rate(val float64) float64 {
	return RoundTo(val, constants.RatePlaces)
}

// Multiple rounds an equity multiple to two decimals.
func Multiple(val float64) float64 {
	return RoundTo(val, constants.MultiplePlaces)
}

// Cents rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Cents(val float64) float64 {
	return RoundTo(val, 2)
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Sum adds all values.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean, or false for an empty slice.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return Sum(values) / float64(len(values)), true
}
