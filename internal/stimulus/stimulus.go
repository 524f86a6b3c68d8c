// Package stimulus provides current sources that drive generator devices.
package stimulus

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Source returns the current amplitude at time tMS.
type Source interface {
	At(tMS float64) float64
}

// Constant is a DC source.
type Constant float64

func (c Constant) At(float64) float64 { return float64(c) }

// StepCurrent holds Amplitudes[i] from TimesMS[i] until the next change time.
// It is 0 before the first change time.
type StepCurrent struct {
	timesMS    []float64
	amplitudes []float64
}

func NewStepCurrent(timesMS, amplitudes []float64) (*StepCurrent, error) {
	if len(timesMS) != len(amplitudes) {
		return nil, fmt.Errorf("times and amplitudes must have equal length: %d vs %d", len(timesMS), len(amplitudes))
	}
	for i, t := range timesMS {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("time %d is not finite", i)
		}
		if i > 0 && t <= timesMS[i-1] {
			return nil, errors.New("times must be strictly increasing")
		}
	}
	return &StepCurrent{
		timesMS:    append([]float64(nil), timesMS...),
		amplitudes: append([]float64(nil), amplitudes...),
	}, nil
}

func (s *StepCurrent) At(tMS float64) float64 {
	i := sort.SearchFloat64s(s.timesMS, tMS)
	if i < len(s.timesMS) && s.timesMS[i] == tMS {
		return s.amplitudes[i]
	}
	if i == 0 {
		return 0
	}
	return s.amplitudes[i-1]
}

// Sinusoid is Offset + Amplitude*sin(2*pi*FrequencyHz*t + Phase).
type Sinusoid struct {
	Offset      float64
	Amplitude   float64
	FrequencyHz float64
	PhaseRad    float64
}

func (s Sinusoid) At(tMS float64) float64 {
	return s.Offset + s.Amplitude*math.Sin(2*math.Pi*s.FrequencyHz*tMS*1e-3+s.PhaseRad)
}
