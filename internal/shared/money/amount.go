package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned when an amount would fall below zero.
var ErrNegativeAmount = errors.New("amount cannot be negative")

var hundred = decimal.NewFromInt(100)

// Amount is an exact, non-negative monetary value stored as integer cents.
// The zero value is a valid zero amount.
type Amount struct {
	cents int64
}

// FromCents creates an Amount from integer cents.
func FromCents(cents int64) (Amount, error) {
	if cents < 0 {
		return Amount{}, fmt.Errorf("%w: %d", ErrNegativeAmount, cents)
	}
	return Amount{cents: cents}, nil
}

// MustFromCents is FromCents for trusted values such as persisted rows.
func MustFromCents(cents int64) Amount {
	a, err := FromCents(cents)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal converts a decimal value (e.g. 19.99) to an Amount, rounding to the nearest cent.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	return FromCents(d.Mul(hundred).Round(0).IntPart())
}

// ParseDecimal parses a decimal string such as "25.00".
func ParseDecimal(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// Cents returns the amount in integer cents.
func (a Amount) Cents() int64 { return a.cents }

// Decimal returns the amount as a two-place decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.cents, -2)
}

// Add returns the sum of two amounts.
func (a Amount) Add(other Amount) Amount {
	return Amount{cents: a.cents + other.cents}
}

// Multiply returns the amount multiplied by a non-negative quantity.
func (a Amount) Multiply(quantity int) Amount {
	if quantity <= 0 {
		return Amount{}
	}
	return Amount{cents: a.cents * int64(quantity)}
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.cents == 0 }

// Equals reports whether two amounts are equal.
func (a Amount) Equals(other Amount) bool { return a.cents == other.cents }

// String formats the amount with two decimal places.
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}
