package exporter

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal
// places, rounding halves away from zero on the shortest decimal form.
func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
