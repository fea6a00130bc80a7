package utils

import "math"

// ToCents converts a decimal currency amount from a request body into integer
// cents. Rounding to nearest keeps 19.99 from becoming 1998.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts integer cents back to a decimal amount for responses.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
