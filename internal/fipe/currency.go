package fipe

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCurrency converts a Brazilian-format currency string such as
// "R$ 24.510,00" into its decimal value: the currency symbol and thousands
// separators are stripped and the decimal comma becomes a decimal point.
// Unparseable or empty input yields ok=false, never an error.
func ParseCurrency(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
