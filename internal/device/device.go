// Package device implements current-driven Poisson spike generators.
//
// A Device reads the weighted input current accumulated for each step of a
// slice, maps it to a firing rate through its transfer function and emits
// spike events whose per-step counts are Poisson distributed with intensity
// step_ms*rate*1e-3. Two variants exist: cd_poisson_generator recomputes the
// rate whenever the per-step current changes, rbf_poisson_generator computes
// it once per slice from the slice-average current and resolves the spike
// counts of that slice afterwards.
package device

import (
	"fmt"

	"spikegen/internal/poisson"
	"spikegen/internal/recording"
	"spikegen/internal/ringbuffer"
	"spikegen/internal/transfer"
)

const defaultRate = 5.0 // Hz

// Phase is the device lifecycle position.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseCalibrated
	PhaseRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseCalibrated:
		return "calibrated"
	case PhaseRunning:
		return "running"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State holds the quantities that evolve during simulation. InputCurrent is
// only tracked by the clamped-linear variant.
type State struct {
	Rate         float64
	InputCurrent float64
}

type buffers struct {
	currents *ringbuffer.RingBuffer
	logger   recording.Logger
	stepMS   float64
	minDelay int64
}

type Device struct {
	model  string
	id     int
	thread int

	params  transfer.Params
	state   State
	sampler *poisson.Sampler
	buf     buffers

	observables *recording.Registry
	phase       Phase
}

func newDevice(model string, params transfer.Params) *Device {
	d := &Device{
		model:   model,
		params:  params,
		state:   State{Rate: defaultRate},
		sampler: poisson.NewSampler(0),
	}
	d.observables = d.buildObservables()
	return d
}

func (d *Device) buildObservables() *recording.Registry {
	reg := recording.NewRegistry()
	reg.MustRegister(KeyRate, func() float64 { return d.state.Rate })
	if d.params.Kind == transfer.KindClampedLinear {
		reg.MustRegister(KeyInputCurrent, func() float64 { return d.state.InputCurrent })
	}
	return reg
}

// Clone copies parameters and state into a new device with fresh buffers.
func (d *Device) Clone() *Device {
	c := newDevice(d.model, d.params)
	c.state = d.state
	return c
}

func (d *Device) Model() string           { return d.model }
func (d *Device) Kind() transfer.Kind     { return d.params.Kind }
func (d *Device) Params() transfer.Params { return d.params }
func (d *Device) State() State            { return d.state }
func (d *Device) Phase() Phase            { return d.phase }
func (d *Device) Lambda() float64         { return d.sampler.Lambda() }
func (d *Device) StepMS() float64         { return d.buf.stepMS }

func (d *Device) ID() int         { return d.id }
func (d *Device) SetID(id int)    { d.id = id }
func (d *Device) Thread() int     { return d.thread }
func (d *Device) SetThread(t int) { d.thread = t }

// Observable returns the accessor registered under name.
func (d *Device) Observable(name string) (recording.Accessor, bool) {
	return d.observables.Lookup(name)
}

// Recordables lists the observables this device exposes.
func (d *Device) Recordables() []string {
	return d.observables.Names()
}

// Currents exposes the input accumulator to the host, which advances and
// clears it between slices.
func (d *Device) Currents() *ringbuffer.RingBuffer {
	return d.buf.currents
}

// InitState copies the state of proto, which must be the same model.
func (d *Device) InitState(proto *Device) error {
	if proto.model != d.model {
		return fmt.Errorf("%w: %s vs %s", ErrModelMismatch, proto.model, d.model)
	}
	d.state = proto.state
	return nil
}

// InitBuffers resets the current accumulator and logged data and caches the
// step size for the coming calibration epoch.
func (d *Device) InitBuffers(cfg BufferConfig) error {
	if !(cfg.ResolutionMS > 0) {
		return fmt.Errorf("resolution must be > 0 ms: %g", cfg.ResolutionMS)
	}
	if cfg.MinDelaySteps < 1 {
		return fmt.Errorf("min delay must be >= 1 step: %d", cfg.MinDelaySteps)
	}
	if cfg.MaxDelaySteps < cfg.MinDelaySteps {
		return fmt.Errorf("max delay %d must be >= min delay %d", cfg.MaxDelaySteps, cfg.MinDelaySteps)
	}
	if d.buf.currents == nil || int64(d.buf.currents.Len()) != cfg.MinDelaySteps+cfg.MaxDelaySteps {
		currents, err := ringbuffer.New(int(cfg.MinDelaySteps + cfg.MaxDelaySteps))
		if err != nil {
			return err
		}
		d.buf.currents = currents
	} else {
		d.buf.currents.Clear()
	}
	d.buf.logger.Reset()
	d.buf.stepMS = cfg.ResolutionMS
	d.buf.minDelay = cfg.MinDelaySteps
	return nil
}

// Calibrate derives the rate and intensity used by the next run. The
// clamped-linear variant recomputes the rate from the last input current; the
// Gaussian variant keeps its rate until the first slice average is known.
func (d *Device) Calibrate() error {
	if d.buf.currents == nil || d.buf.stepMS <= 0 {
		return ErrBuffersNotReady
	}
	if d.params.Kind == transfer.KindClampedLinear {
		d.state.Rate = d.params.Linear.Rate(d.state.InputCurrent)
	}
	d.refreshLambda()
	d.phase = PhaseCalibrated
	return nil
}

func (d *Device) refreshLambda() {
	d.sampler.SetLambda(poisson.Lambda(d.state.Rate, d.buf.stepMS))
}

// HandlesCurrent reports whether a current connection on receptor is accepted.
func (d *Device) HandlesCurrent(receptor int) error {
	if receptor != 0 {
		return fmt.Errorf("%w: %d for %s", ErrUnknownReceptor, receptor, d.model)
	}
	return nil
}

// HandleCurrent accumulates weight*current for the step the event is
// delivered at, relative to sliceOrigin.
func (d *Device) HandleCurrent(ev CurrentEvent, sliceOrigin int64) error {
	if err := d.HandlesCurrent(ev.Receptor); err != nil {
		return err
	}
	if ev.DelaySteps <= 0 {
		return fmt.Errorf("%w: %d", ErrBadDelay, ev.DelaySteps)
	}
	if d.buf.currents == nil {
		return ErrBuffersNotReady
	}
	return d.buf.currents.AddValue(ev.DeliveryStep-sliceOrigin, ev.Weight*ev.Current)
}

// ConnectLogger attaches a data logger on receptor 0 sampling names every
// interval steps. Empty names records every observable.
func (d *Device) ConnectLogger(receptor int, names []string, interval int64) error {
	if receptor != 0 {
		return fmt.Errorf("%w: %d for %s", ErrUnknownReceptor, receptor, d.model)
	}
	for _, name := range names {
		if _, ok := d.observables.Lookup(name); !ok {
			return fmt.Errorf("%w: %s for %s", ErrUnknownRecordable, name, d.model)
		}
	}
	return d.buf.logger.Connect(d.observables, names, interval)
}

// RecordedNames lists the columns of rows returned by DrainRecords.
func (d *Device) RecordedNames() []string {
	return d.buf.logger.Names()
}

// DrainRecords hands logged rows to the host.
func (d *Device) DrainRecords() []recording.Row {
	return d.buf.logger.Drain()
}
