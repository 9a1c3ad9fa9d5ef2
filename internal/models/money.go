package models

import "fmt"

// Cents is a fixed-point currency amount in US cents.
type Cents int64

func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// CentsFromDollars converts a decimal dollar amount, rounding half away from zero.
func CentsFromDollars(d float64) Cents {
	if d < 0 {
		return Cents(d*100 - 0.5)
	}
	return Cents(d*100 + 0.5)
}
