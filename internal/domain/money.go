package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Scale2 normalizes a monetary amount to two decimal places, half-up.
func Scale2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ZeroBalances returns a balance map with every supported currency
// eagerly initialized to zero. A wallet is only considered initialized
// once it carries the full map.
func ZeroBalances() map[Currency]decimal.Decimal {
	balances := make(map[Currency]decimal.Decimal, len(currencies))
	for _, c := range currencies {
		balances[c] = decimal.Zero
	}
	return balances
}

// FormatAmount renders an amount with thousands separators and two
// decimal places, e.g. 2500000 -> "2,500,000.00".
func FormatAmount(d decimal.Decimal) string {
	fixed := Scale2(d).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	if negative {
		fixed = fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
