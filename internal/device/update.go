package device

import (
	"fmt"
	"math/rand/v2"

	"spikegen/internal/transfer"
)

// Update advances the device over steps [from, to) of the slice starting at
// absolute step origin. src is the calling worker's random source; it is only
// borrowed for this call.
func (d *Device) Update(origin, from, to int64, src rand.Source, sink EventSink) error {
	if d.phase == PhaseUninitialized {
		return ErrNotCalibrated
	}
	if from < 0 || from >= to || to > d.buf.minDelay {
		return fmt.Errorf("%w: from=%d to=%d slice=%d", ErrBadSlice, from, to, d.buf.minDelay)
	}
	d.phase = PhaseRunning

	switch d.params.Kind {
	case transfer.KindClampedLinear:
		d.updateClampedLinear(origin, from, to, src, sink)
	case transfer.KindGaussianBump:
		d.updateGaussianBump(origin, from, to, sink)
	default:
		return fmt.Errorf("%w: %s", transfer.ErrUnknownKind, d.params.Kind)
	}
	return nil
}

func (d *Device) updateClampedLinear(origin, from, to int64, src rand.Source, sink EventSink) {
	for lag := from; lag < to; lag++ {
		current := d.buf.currents.Value(lag)

		// The rate only moves when the input does.
		if current != d.state.InputCurrent {
			d.state.InputCurrent = current
			rate := d.params.Linear.Rate(current)
			if rate != d.state.Rate {
				d.state.Rate = rate
				d.refreshLambda()
			}
		}

		if d.state.Rate > 0 {
			if n := d.sampler.Draw(src); n > 0 {
				sink.Send(SpikeEvent{Sender: d.id, Step: origin + lag, Multiplicity: n})
			}
		}

		d.buf.logger.Record(origin + lag)
	}
}

// updateGaussianBump defers every per-step spike decision: the rate for this
// slice is only known once the slice-average current is.
func (d *Device) updateGaussianBump(origin, from, to int64, sink EventSink) {
	sum := 0.0
	for lag := from; lag < to; lag++ {
		sum += d.buf.currents.Value(lag)
		sink.Defer(DeferredSpike{Sender: d.id, Step: origin + lag})
		d.buf.logger.Record(origin + lag)
	}

	average := sum / float64(to-from)
	d.state.Rate = d.params.Gaussian.Rate(average)
	d.refreshLambda()
}

// Resolve draws the multiplicity of a deferred spike with the intensity of the
// slice that emitted it. ok is false when no spike should be delivered.
func (d *Device) Resolve(req DeferredSpike, src rand.Source) (SpikeEvent, bool) {
	n := d.sampler.Draw(src)
	if n <= 0 {
		return SpikeEvent{}, false
	}
	return SpikeEvent{Sender: req.Sender, Step: req.Step, Multiplicity: n}, true
}
