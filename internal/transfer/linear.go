package transfer

import "fmt"

// ClampedLinear maps current linearly onto [MinRate, MaxRate] inside the
// [MinCurrent, MaxCurrent] window and clamps outside it.
type ClampedLinear struct {
	MinRate    float64
	MaxRate    float64
	MinCurrent float64
	MaxCurrent float64
}

// DefaultClampedLinear returns the reference defaults: 1-10 Hz over 0-1 nA.
func DefaultClampedLinear() ClampedLinear {
	return ClampedLinear{
		MinRate:    1.0,
		MaxRate:    10.0,
		MinCurrent: 0.0,
		MaxCurrent: 1.0,
	}
}

func (ClampedLinear) Kind() Kind { return KindClampedLinear }

func (f ClampedLinear) Rate(current float64) float64 {
	if current <= f.MinCurrent {
		return f.MinRate
	}
	if current >= f.MaxCurrent {
		return f.MaxRate
	}
	// Unreachable for a zero-width or inverted window, kept explicit so the
	// division below never sees a non-positive width.
	width := f.MaxCurrent - f.MinCurrent
	if width <= 0 {
		return f.MaxRate
	}
	return f.MinRate + (current-f.MinCurrent)/width*(f.MaxRate-f.MinRate)
}

// Validate checks rate and current windows.
func (f ClampedLinear) Validate() error {
	if err := validateRates(f.MinRate, f.MaxRate); err != nil {
		return err
	}
	if !finite(f.MinCurrent) || !finite(f.MaxCurrent) {
		return fmt.Errorf("current window must be finite: min_current=%g max_current=%g", f.MinCurrent, f.MaxCurrent)
	}
	if f.MinCurrent > f.MaxCurrent {
		return fmt.Errorf("min_current must not exceed max_current: min_current=%g max_current=%g", f.MinCurrent, f.MaxCurrent)
	}
	return nil
}

func validateRates(minRate, maxRate float64) error {
	if !finite(minRate) || !finite(maxRate) {
		return fmt.Errorf("rates must be finite: min_rate=%g max_rate=%g", minRate, maxRate)
	}
	if minRate < 0 || maxRate < 0 {
		return fmt.Errorf("the min_rate and max_rate parameters cannot be negative: min_rate=%g max_rate=%g", minRate, maxRate)
	}
	if minRate > maxRate {
		return fmt.Errorf("min_rate must not exceed max_rate: min_rate=%g max_rate=%g", minRate, maxRate)
	}
	return nil
}
