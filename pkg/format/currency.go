// Package format renders money and metric values for display.
package format

import (
	"fmt"
	"strings"

	"github.com/iwvelando/initiative-sim/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a budget amount in millions with a dollar sign and
// thousands separators (e.g., "-$1,234.50M").
func Currency(amount decimal.Decimal) string {
	formatted := formatPositive(amount.Abs())
	if amount.IsNegative() {
		return "-$" + formatted + "M"
	}
	return "$" + formatted + "M"
}

// NumericCurrency returns a currency string without a symbol or unit but with
// separators (e.g., "-1,234.50").
func NumericCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return sign + formatPositive(amount.Abs())
}

// Metric renders a metric level with at most two decimals and no trailing zeros.
func Metric(value float64) string {
	s := fmt.Sprintf("%.2f", value)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func formatPositive(value decimal.Decimal) string {
	formatted := value.StringFixed(constants.CurrencyPlaces)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

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

	return intPart + "." + decPart
}
