// Package types provides the money type shared by catalog, sales, expenses and analytics.
package types

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, as the till UI sends them.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money is a single-currency amount kept as an exact decimal.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits amounts are rounded to.
const MoneyScale = 2

// NewMoney creates Money from whole currency units.
func NewMoney(units int64) Money {
	return decimal.NewFromInt(units)
}

// NewMoneyFromString parses a decimal string such as "1250.50".
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney parses s and panics on error. Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Zero() Money {
	return decimal.Zero
}

// Round rounds to MoneyScale using banker's-free half-up rounding.
func Round(m Money) Money {
	return m.Round(MoneyScale)
}

// ClampZero returns m, or zero when m is negative.
func ClampZero(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// Sum adds amounts.
func Sum(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// LineTotal is price multiplied by a unit count.
func LineTotal(price Money, quantity int) Money {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// Percent returns part as a percentage of whole, rounded to two places.
// A zero whole yields zero.
func Percent(part, whole Money) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
