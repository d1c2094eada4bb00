// README: Euro amount helpers shared by pricing and booking.
package types

import "math"

// RoundMoney rounds a non-negative euro amount half-up to two decimals.
// The small bias absorbs binary representation error (e.g. 7.7399999 -> 7.74).
func RoundMoney(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Floor(v*100+0.5+1e-9) / 100
}

// RoundKm rounds a distance to one decimal place.
func RoundKm(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Floor(v*10+0.5+1e-9) / 10
}
