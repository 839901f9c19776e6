package domain

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero to cents. Amounts in this domain are
// never negative, so this is round-half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Cents builds an amount from an integer number of cents.
func Cents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
