package domain

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code from the platform's closed set.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	NGN Currency = "NGN"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
	CHF Currency = "CHF"
	CNY Currency = "CNY"
	INR Currency = "INR"
)

var currencies = []Currency{USD, EUR, NGN, GBP, JPY, AUD, CAD, CHF, CNY, INR}

// Currencies returns the supported set in a stable order.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

// ParseCurrency resolves a currency code case-insensitively.
func ParseCurrency(code string) (Currency, error) {
	normalized := Currency(strings.ToUpper(strings.TrimSpace(code)))
	for _, c := range currencies {
		if c == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported currency: %q", code)
}

func (c Currency) String() string {
	return string(c)
}
