package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount in minor units (kuruş). All shift summation
// goes through this type so no floating-point rounding enters the pipeline.
type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount + o.Amount, Currency: m.currencyOr(o)}
}

func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount - o.Amount, Currency: m.currencyOr(o)}
}

// MulVolume multiplies a per-litre unit price by a volume in millilitres,
// rounding half-up to the nearest minor unit.
func (m Money) MulVolume(volumeMilli int64) Money {
	price := decimal.New(m.Amount, 0)
	litres := decimal.New(volumeMilli, -3)
	return Money{
		Amount:   price.Mul(litres).Round(0).IntPart(),
		Currency: m.Currency,
	}
}

func (m Money) Abs() Money {
	if m.Amount < 0 {
		return Money{Amount: -m.Amount, Currency: m.Currency}
	}
	return m
}

func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Cmp returns -1, 0 or 1 comparing amounts.
func (m Money) Cmp(o Money) int {
	switch {
	case m.Amount < o.Amount:
		return -1
	case m.Amount > o.Amount:
		return 1
	default:
		return 0
	}
}

// Decimal returns the amount in major units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -2)
}

// String formats as major units, e.g. 125050 -> "1250.50 TRY".
func (m Money) String() string {
	if m.Currency == "" {
		return m.Decimal().StringFixed(2)
	}
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(2), m.Currency)
}

func (m Money) currencyOr(o Money) string {
	if m.Currency != "" {
		return m.Currency
	}
	return o.Currency
}
