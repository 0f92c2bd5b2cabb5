package fipe

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"R$ 24.510,00", "24510.00", true},
		{"R$ 1.234.567,89", "1234567.89", true},
		{"R$ 950,50", "950.50", true},
		{"24510,00", "24510.00", true},
		{"", "", false},
		{"   ", "", false},
		{"garbage", "", false},
		{"R$ abc", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseCurrency(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseCurrency(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if !ok {
			continue
		}
		want := decimal.RequireFromString(tc.want)
		if !got.Equal(want) {
			t.Errorf("ParseCurrency(%q) = %s, want %s", tc.in, got, want)
		}
	}
}
