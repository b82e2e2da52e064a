// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents so that every ledger fold is exact;
// decimal strings coming from operators or imports go through decimal.Decimal.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in euro cents. It may be negative (a deficit balance).
type Money struct {
	Cents int64
}

// Euros builds a Money from a whole number of euros.
func Euros(e int64) Money {
	return Money{Cents: e * 100}
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Times multiplies the amount by a unit count.
func (m Money) Times(n int) Money { return Money{Cents: m.Cents * int64(n)} }

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// ValidateNonNegative rejects negative amounts (costs and prices).
func (m Money) ValidateNonNegative() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Float returns the euro value as a float64 for display and spreadsheet cells.
// Use cents for calculations.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Decimal returns the amount as an exact decimal in euros.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount as "12,34 €" (French convention).
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	rem := cents % 100
	s := strconv.FormatInt(cents/100, 10) + "," + strconv.FormatInt(rem/10, 10) + strconv.FormatInt(rem%10, 10) + " €"
	if neg {
		return "-" + s
	}
	return s
}

// ParseAmount converts a decimal string to Money with half-up rounding to the cent.
//
// Both dot (12.34) and comma (12,34) separators are accepted, as is a trailing
// euro sign. Negative values are accepted only when allowNegative is set.
//
//	ParseAmount("12,34", false)  -> 1234 cents
//	ParseAmount("12.345", false) -> 1235 cents
//	ParseAmount("-5", true)      -> -500 cents
func ParseAmount(s string, allowNegative bool) (Money, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "€"))
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() && !allowNegative {
		return Money{}, ErrNegativeAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.Shift(-2).Abs().LessThan(decimal.New(1, 15)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Ratio returns num/den, or 0 when den is zero. Every derived ratio goes
// through here so a zero revenue or cost never divides.
func Ratio(num, den Money) float64 {
	if den.Cents == 0 {
		return 0
	}
	r, _ := decimal.New(num.Cents, 0).DivRound(decimal.New(den.Cents, 0), 4).Float64()
	return r
}
