package transfer

import (
	"fmt"
	"math"
)

// GaussianBump peaks at MaxRate when the input equals MeanCurrent and decays
// towards MinRate with width SigmaCurrent.
type GaussianBump struct {
	MinRate      float64
	MaxRate      float64
	MeanCurrent  float64
	SigmaCurrent float64
}

// DefaultGaussianBump returns the reference defaults: 1-10 Hz centred on 0 nA
// with a 1 nA width.
func DefaultGaussianBump() GaussianBump {
	return GaussianBump{
		MinRate:      1.0,
		MaxRate:      10.0,
		MeanCurrent:  0.0,
		SigmaCurrent: 1.0,
	}
}

func (GaussianBump) Kind() Kind { return KindGaussianBump }

// Rate evaluates the bump at the slice-average current.
func (f GaussianBump) Rate(average float64) float64 {
	d := average - f.MeanCurrent
	gaussian := math.Exp(-(d * d) / (2 * f.SigmaCurrent * f.SigmaCurrent))
	return f.MinRate + gaussian*(f.MaxRate-f.MinRate)
}

// Validate checks the rate window and rejects a zero or negative width.
func (f GaussianBump) Validate() error {
	if err := validateRates(f.MinRate, f.MaxRate); err != nil {
		return err
	}
	if !finite(f.MeanCurrent) || !finite(f.SigmaCurrent) {
		return fmt.Errorf("mean_current and sigma_current must be finite: mean_current=%g sigma_current=%g", f.MeanCurrent, f.SigmaCurrent)
	}
	if f.SigmaCurrent <= 0 {
		return fmt.Errorf("sigma_current must be > 0: sigma_current=%g", f.SigmaCurrent)
	}
	return nil
}
