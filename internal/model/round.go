package model

import "math"

// RoundTo rounds half away from zero to the given number of decimals.
// Only output boundaries (reports, stored prices) round; the core keeps
// full precision.
func RoundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Round2 rounds to 2 decimals, the precision of PLN amounts.
func Round2(x float64) float64 {
	return RoundTo(x, 2)
}
