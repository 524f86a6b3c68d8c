package poisson

import "math"

// Lambda converts a rate in Hz into the expected event count for one step of
// stepMS milliseconds. Negative or non-finite results are treated as 0.
func Lambda(rateHz, stepMS float64) float64 {
	lambda := stepMS * rateHz * 1e-3
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) || lambda < 0 {
		return 0
	}
	return lambda
}
