// Package utils provides common utility functions for InvestLens.
package utils

import (
	"fmt"
	"math"
)

// FormatUSDCompact formats a dollar amount with a magnitude suffix.
// e.g., 2.85e12 → "$2.85T", 394328000000 → "$394.33B", 1500 → "$1.50K".
// Values under a thousand keep comma grouping: 847.5 → "$847.50".
// A nil value renders as "N/A".
func FormatUSDCompact(value *float64) string {
	if value == nil {
		return "N/A"
	}
	v := *value
	abs := math.Abs(v)

	switch {
	case abs >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.2fK", v/1e3)
	default:
		return "$" + formatGrouped(v)
	}
}

// FormatPercent renders a percentage value as "12.34%", or "N/A" when nil.
func FormatPercent(value *float64) string {
	if value == nil {
		return "N/A"
	}
	return fmt.Sprintf("%v%%", *value)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatGrouped formats a number with thousands separators and 2 decimals.
func formatGrouped(v float64) string {
	negative := v < 0
	v = math.Abs(v)

	cents := int64(math.Round(v * 100))
	s := fmt.Sprintf("%d", cents/100)

	// Group digits in threes from the right.
	grouped := ""
	for len(s) > 3 {
		grouped = "," + s[len(s)-3:] + grouped
		s = s[:len(s)-3]
	}
	grouped = s + grouped

	result := fmt.Sprintf("%s.%02d", grouped, cents%100)
	if negative {
		return "-" + result
	}
	return result
}
