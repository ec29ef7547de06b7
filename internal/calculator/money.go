package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is the symbol used when none is configured.
const DefaultCurrencySymbol = "R$"

// FormatMoney renders an amount the way notification copy shows it:
// symbol, thousands grouped with '.', two decimals after ','.
//
//	FormatMoney(decimal.NewFromInt(1000), "R$") == "R$ 1.000,00"
func FormatMoney(amount decimal.Decimal, symbol string) string {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}

	fixed := amount.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() && !amount.Round(2).IsZero() {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	b.WriteByte(' ')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(cents)
	return b.String()
}
