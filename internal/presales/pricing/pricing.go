// Package pricing converts line amounts into the IDR base currency.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CurrencyIDR = "IDR"
	CurrencyUSD = "USD"
)

// DefaultUSDRate applies when no rate is configured.
var DefaultUSDRate = decimal.NewFromInt(16500)

// Converter turns USD amounts into IDR using a static rate. Some brands are quoted
// at a discount off list price before conversion.
type Converter struct {
	rate      decimal.Decimal
	discounts map[string]decimal.Decimal
}

// NewConverter builds a converter. discounts maps brand to the fraction paid, e.g.
// Cisco: 0.5. Brand keys are matched case-insensitively.
func NewConverter(rate float64, discounts map[string]float64) *Converter {
	r := decimal.NewFromFloat(rate)
	if !r.IsPositive() {
		r = DefaultUSDRate
	}
	d := make(map[string]decimal.Decimal, len(discounts))
	for brand, factor := range discounts {
		d[strings.ToLower(brand)] = decimal.NewFromFloat(factor)
	}
	return &Converter{rate: r, discounts: d}
}

func (c *Converter) Rate() decimal.Decimal {
	return c.rate
}

// ToIDR converts amount in currency to whole rupiah, rounding half away from zero.
func (c *Converter) ToIDR(amount decimal.Decimal, currency, brand string) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative")
	}
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "", CurrencyIDR:
		return amount.Round(0).IntPart(), nil
	case CurrencyUSD:
		usd := amount
		if factor, ok := c.discounts[strings.ToLower(brand)]; ok {
			usd = usd.Mul(factor)
		}
		return usd.Mul(c.rate).Round(0).IntPart(), nil
	default:
		return 0, fmt.Errorf("unsupported currency %q", currency)
	}
}
