package device

import (
	"fmt"
	"math"

	"spikegen/internal/dict"
	"spikegen/internal/transfer"
)

const (
	KeyMinRate      = "min_rate"
	KeyMaxRate      = "max_rate"
	KeyMinCurrent   = "min_current"
	KeyMaxCurrent   = "max_current"
	KeyMeanCurrent  = "mean_current"
	KeySigmaCurrent = "sigma_current"
	KeyRate         = "rate"
	KeyInputCurrent = "input_current"

	KeyModel       = "model"
	KeyRecordables = "recordables"
	KeyPhase       = "phase"
	KeyThread      = "thread"
)

// GetStatus returns parameters, state and device metadata.
func (d *Device) GetStatus() dict.Dict {
	out := dict.Dict{
		KeyModel:       d.model,
		KeyRecordables: d.Recordables(),
		KeyPhase:       d.phase.String(),
		KeyThread:      d.thread,
	}
	getParams(d.params, out)
	getState(d.params.Kind, d.state, out)
	return out
}

// SetStatus applies the recognised keys of in. Parameters and state are
// changed on copies and only committed when every value is valid, so a failed
// call leaves the device untouched. A successful call requires recalibration
// before the next Update.
func (d *Device) SetStatus(in dict.Dict) error {
	ptmp := d.params
	if err := setParams(&ptmp, in); err != nil {
		return err
	}
	if err := ptmp.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProperty, err)
	}

	stmp := d.state
	if err := setState(ptmp.Kind, &stmp, in); err != nil {
		return err
	}

	d.params = ptmp
	d.state = stmp
	d.phase = PhaseUninitialized
	return nil
}

func getParams(p transfer.Params, out dict.Dict) {
	switch p.Kind {
	case transfer.KindClampedLinear:
		out[KeyMinRate] = p.Linear.MinRate
		out[KeyMaxRate] = p.Linear.MaxRate
		out[KeyMinCurrent] = p.Linear.MinCurrent
		out[KeyMaxCurrent] = p.Linear.MaxCurrent
	case transfer.KindGaussianBump:
		out[KeyMinRate] = p.Gaussian.MinRate
		out[KeyMaxRate] = p.Gaussian.MaxRate
		out[KeyMeanCurrent] = p.Gaussian.MeanCurrent
		out[KeySigmaCurrent] = p.Gaussian.SigmaCurrent
	}
}

func setParams(p *transfer.Params, in dict.Dict) error {
	var fields map[string]*float64
	switch p.Kind {
	case transfer.KindClampedLinear:
		fields = map[string]*float64{
			KeyMinRate:    &p.Linear.MinRate,
			KeyMaxRate:    &p.Linear.MaxRate,
			KeyMinCurrent: &p.Linear.MinCurrent,
			KeyMaxCurrent: &p.Linear.MaxCurrent,
		}
	case transfer.KindGaussianBump:
		fields = map[string]*float64{
			KeyMinRate:      &p.Gaussian.MinRate,
			KeyMaxRate:      &p.Gaussian.MaxRate,
			KeyMeanCurrent:  &p.Gaussian.MeanCurrent,
			KeySigmaCurrent: &p.Gaussian.SigmaCurrent,
		}
	default:
		return fmt.Errorf("%w: %s", transfer.ErrUnknownKind, p.Kind)
	}
	for _, key := range dict.Keys(in) {
		dst, ok := fields[key]
		if !ok {
			continue
		}
		if _, err := dict.UpdateFloat64(in, key, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProperty, err)
		}
	}
	return nil
}

func getState(kind transfer.Kind, s State, out dict.Dict) {
	out[KeyRate] = s.Rate
	if kind == transfer.KindClampedLinear {
		out[KeyInputCurrent] = s.InputCurrent
	}
}

func setState(kind transfer.Kind, s *State, in dict.Dict) error {
	if _, err := dict.UpdateFloat64(in, KeyRate, &s.Rate); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProperty, err)
	}
	if math.IsNaN(s.Rate) || math.IsInf(s.Rate, 0) || s.Rate < 0 {
		return fmt.Errorf("%w: rate must be finite and >= 0: %g", ErrInvalidProperty, s.Rate)
	}
	if kind != transfer.KindClampedLinear {
		return nil
	}
	if _, err := dict.UpdateFloat64(in, KeyInputCurrent, &s.InputCurrent); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProperty, err)
	}
	if math.IsNaN(s.InputCurrent) || math.IsInf(s.InputCurrent, 0) {
		return fmt.Errorf("%w: input_current must be finite: %g", ErrInvalidProperty, s.InputCurrent)
	}
	return nil
}
