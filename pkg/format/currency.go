// Package format renders engine values for people: currency with separators,
// percentages and multiples. Nil values render as "n/a".
package format

import (
	"fmt"
	"math"
	"strings"
)

// NotAvailable is printed for metrics the inputs could not support.
const NotAvailable = "n/a"

// Currency returns a whole-dollar string with a dollar sign and thousands separators (e.g., "-$1,235").
func Currency(amount float64) string {
	formatted := formatPositive(math.Abs(amount), 0)
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a whole-dollar string without a currency symbol but with separators (e.g., "-1,235").
func NumericCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + formatPositive(math.Abs(amount), 0)
}

// CurrencyPtr formats a nullable amount.
func CurrencyPtr(amount *float64) string {
	if amount == nil {
		return NotAvailable
	}
	return Currency(*amount)
}

// Percent renders a ratio as a percentage with two decimals (0.0525 -> "5.25%").
func Percent(ratio *float64) string {
	if ratio == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *ratio*100)
}

// Multiple renders an equity multiple or coverage ratio (1.8 -> "1.80x").
func Multiple(value *float64) string {
	if value == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2fx", *value)
}

// Number renders a plain metric with separators and the given decimals.
func Number(value *float64, places int) string {
	if value == nil {
		return NotAvailable
	}
	sign := ""
	if *value < 0 {
		sign = "-"
	}
	return sign + formatPositive(math.Abs(*value), places)
}

func formatPositive(value float64, places int) string {
	formatted := fmt.Sprintf("%.*f", places, value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
