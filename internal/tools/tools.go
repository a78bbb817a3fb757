package tools

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundCurrency rounds an euro amount to two decimal places, half away
// from zero. The tax math rounds intermediate sums, not just the final
// figure, so every accumulation point goes through this one function.
func RoundCurrency(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// RoundEuro rounds to a whole euro, half away from zero.
func RoundEuro(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(0).Float64()
	return f
}

// FormatEUR formats an amount as "€12.500" with dots as thousands
// separators, the way Dutch listings print their prices.
func FormatEUR(amount float64) string {
	whole := decimal.NewFromFloat(amount).Round(0).IntPart()

	neg := whole < 0
	if neg {
		whole = -whole
	}

	s := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	if neg {
		return "€-" + b.String()
	}
	return "€" + b.String()
}
