package valueobject

import (
	"fmt"
	"sort"
	"strings"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	CAD Currency = "CAD" // Canadian Dollar
	AUD Currency = "AUD" // Australian Dollar
	JPY Currency = "JPY" // Japanese Yen
	NGN Currency = "NGN" // Nigerian Naira
)

// DefaultCurrency is the base currency catalog prices are stored in
const DefaultCurrency = USD

// minor unit exponents per ISO 4217
var currencyExponents = map[Currency]int32{
	USD: 2,
	EUR: 2,
	GBP: 2,
	CAD: 2,
	AUD: 2,
	JPY: 0,
	NGN: 2,
}

// ParseCurrency normalizes and validates a currency code
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.IsSupported() {
		return "", fmt.Errorf("unsupported currency: %q", code)
	}
	return c, nil
}

// SupportedCurrencies returns every supported currency in code order
func SupportedCurrencies() []Currency {
	out := make([]Currency, 0, len(currencyExponents))
	for c := range currencyExponents {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsSupported reports whether the currency is known
func (c Currency) IsSupported() bool {
	_, ok := currencyExponents[c]
	return ok
}

// MinorUnitExponent returns the number of decimal places of the minor unit
func (c Currency) MinorUnitExponent() int32 {
	if exp, ok := currencyExponents[c]; ok {
		return exp
	}
	return 2
}

// Lower returns the lowercase code, as payment providers expect
func (c Currency) Lower() string {
	return strings.ToLower(string(c))
}

func (c Currency) String() string {
	return string(c)
}
