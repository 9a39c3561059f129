package moneyfmt

import (
	"github.com/shopspring/decimal"
)

// Rupees formats an amount as a rupee string for user-facing messages.
// Example: 600 -> "₹600", 600.50 -> "₹600.50".
func Rupees(amount decimal.Decimal) string {
	return "₹" + amount.String()
}

// WithPrecision formats an amount rounded to the given number of places.
func WithPrecision(amount decimal.Decimal, precision int) string {
	return amount.Round(int32(precision)).String()
}
