// Package kernel drives generator devices through simulated time the way a
// host simulator would: fixed resolution, min-delay slices, one random source
// per worker and delivery of spikes to every target of a device.
package kernel

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"spikegen/internal/device"
	"spikegen/internal/model"
	"spikegen/internal/poisson"
	"spikegen/internal/stimulus"
)

var (
	ErrNoDevices     = errors.New("no devices registered")
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrUnknownDevice = errors.New("unknown device")
)

type Config struct {
	ResolutionMS  float64
	SliceSteps    int64
	MaxDelaySteps int64
	Workers       int
	Seed          uint64
	Targets       int
}

func DefaultConfig() Config {
	return Config{
		ResolutionMS:  0.1,
		SliceSteps:    10,
		MaxDelaySteps: 10,
		Workers:       1,
		Seed:          1,
		Targets:       1,
	}
}

func (c Config) Validate() error {
	switch {
	case !(c.ResolutionMS > 0):
		return fmt.Errorf("%w: resolution_ms=%g", ErrInvalidConfig, c.ResolutionMS)
	case c.SliceSteps < 1:
		return fmt.Errorf("%w: slice_steps=%d", ErrInvalidConfig, c.SliceSteps)
	case c.MaxDelaySteps < c.SliceSteps:
		return fmt.Errorf("%w: max_delay_steps=%d < slice_steps=%d", ErrInvalidConfig, c.MaxDelaySteps, c.SliceSteps)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers=%d", ErrInvalidConfig, c.Workers)
	case c.Targets < 1:
		return fmt.Errorf("%w: targets=%d", ErrInvalidConfig, c.Targets)
	}
	return nil
}

// Input connects a current source to a device.
type Input struct {
	Source     stimulus.Source
	Weight     float64
	DelaySteps int64
	Receptor   int
}

// Result collects the events produced by one Run. Spikes are ordered by step,
// sender and target; samples by step and sender.
type Result struct {
	FromStep int64
	Steps    int64
	Spikes   []model.SpikeRecord
	Samples  []model.SampleRecord
}

type Simulation struct {
	cfg     Config
	devices []*device.Device
	ready   []bool
	inputs  [][]Input
	sources []rand.Source
	clock   int64
}

func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sources := make([]rand.Source, cfg.Workers)
	for w := range sources {
		sources[w] = poisson.NewSource(cfg.Seed, uint64(w))
	}
	return &Simulation{cfg: cfg, sources: sources}, nil
}

func (s *Simulation) Config() Config { return s.cfg }
func (s *Simulation) Clock() int64   { return s.clock }

func (s *Simulation) Devices() []*device.Device {
	return append([]*device.Device(nil), s.devices...)
}

// Add registers dev, assigns its id and worker, and returns the id.
func (s *Simulation) Add(dev *device.Device) int {
	id := len(s.devices)
	dev.SetID(id)
	dev.SetThread(id % s.cfg.Workers)
	s.devices = append(s.devices, dev)
	s.ready = append(s.ready, false)
	s.inputs = append(s.inputs, nil)
	return id
}

func (s *Simulation) device(id int) (*device.Device, error) {
	if id < 0 || id >= len(s.devices) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDevice, id)
	}
	return s.devices[id], nil
}

// Connect feeds in into device id on every step from now on.
func (s *Simulation) Connect(id int, in Input) error {
	dev, err := s.device(id)
	if err != nil {
		return err
	}
	if in.Source == nil {
		return fmt.Errorf("%w: nil current source", ErrInvalidConfig)
	}
	if err := dev.HandlesCurrent(in.Receptor); err != nil {
		return err
	}
	if in.DelaySteps < 1 || in.DelaySteps > s.cfg.MaxDelaySteps {
		return fmt.Errorf("%w: %d not in [1, %d]", device.ErrBadDelay, in.DelaySteps, s.cfg.MaxDelaySteps)
	}
	s.inputs[id] = append(s.inputs[id], in)
	return nil
}

// Record attaches a data logger to device id.
func (s *Simulation) Record(id int, names []string, interval int64) error {
	dev, err := s.device(id)
	if err != nil {
		return err
	}
	return dev.ConnectLogger(0, names, interval)
}

// Run advances the simulation by steps. Buffers are initialized on a
// device's first run and every device is recalibrated before each run. When
// ctx is cancelled between slices the events so far are returned with the
// context error.
func (s *Simulation) Run(ctx context.Context, steps int64) (Result, error) {
	res := Result{FromStep: s.clock}
	if len(s.devices) == 0 {
		return res, ErrNoDevices
	}
	if steps < 1 {
		return res, fmt.Errorf("%w: steps=%d", ErrInvalidConfig, steps)
	}
	if err := s.prepare(); err != nil {
		return res, err
	}

	end := s.clock + steps
	for s.clock < end {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n := min(s.cfg.SliceSteps, end-s.clock)
		if err := s.deliverInputs(s.clock, n); err != nil {
			return res, err
		}
		if err := s.updateSlice(s.clock, n, &res); err != nil {
			return res, err
		}
		for _, dev := range s.devices {
			dev.Currents().Advance(n)
		}
		s.clock += n
		res.Steps += n
	}
	return res, nil
}

func (s *Simulation) prepare() error {
	bufCfg := device.BufferConfig{
		ResolutionMS:  s.cfg.ResolutionMS,
		MinDelaySteps: s.cfg.SliceSteps,
		MaxDelaySteps: s.cfg.MaxDelaySteps,
	}
	for i, dev := range s.devices {
		if !s.ready[i] {
			if err := dev.InitBuffers(bufCfg); err != nil {
				return fmt.Errorf("device %d: %w", i, err)
			}
			s.ready[i] = true
		}
		if err := dev.Calibrate(); err != nil {
			return fmt.Errorf("device %d: %w", i, err)
		}
	}
	return nil
}

// deliverInputs writes the current every input emitted DelaySteps earlier
// into the slice [origin, origin+n).
func (s *Simulation) deliverInputs(origin, n int64) error {
	for id, inputs := range s.inputs {
		dev := s.devices[id]
		for _, in := range inputs {
			for lag := int64(0); lag < n; lag++ {
				delivery := origin + lag
				emitted := delivery - in.DelaySteps
				if emitted < 0 {
					continue
				}
				ev := device.CurrentEvent{
					Current:      in.Source.At(s.timeMS(emitted)),
					Weight:       in.Weight,
					DelaySteps:   in.DelaySteps,
					DeliveryStep: delivery,
					Receptor:     in.Receptor,
				}
				if err := dev.HandleCurrent(ev, origin); err != nil {
					return fmt.Errorf("device %d: %w", id, err)
				}
			}
		}
	}
	return nil
}

func (s *Simulation) updateSlice(origin, n int64, res *Result) error {
	type result struct {
		spikes  []model.SpikeRecord
		samples []model.SampleRecord
		err     error
	}

	results := make([]result, s.cfg.Workers)
	var wg sync.WaitGroup
	wg.Add(s.cfg.Workers)
	for w := 0; w < s.cfg.Workers; w++ {
		go func() {
			defer wg.Done()
			out := &results[w]
			src := s.sources[w]
			sink := &sliceSink{}
			for _, dev := range s.devices {
				if dev.Thread() != w {
					continue
				}
				sink.reset()
				if err := dev.Update(origin, 0, n, src, sink); err != nil {
					out.err = fmt.Errorf("device %d: %w", dev.ID(), err)
					return
				}
				out.spikes = s.deliver(dev, sink, src, out.spikes)
				for _, row := range dev.DrainRecords() {
					out.samples = append(out.samples, model.SampleRecord{
						Sender: dev.ID(),
						Step:   row.Step,
						TimeMS: s.timeMS(row.Step + 1),
						Values: row.Values,
					})
				}
			}
		}()
	}
	wg.Wait()

	var spikes []model.SpikeRecord
	var samples []model.SampleRecord
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
		spikes = append(spikes, r.spikes...)
		samples = append(samples, r.samples...)
	}
	slices.SortStableFunc(spikes, func(a, b model.SpikeRecord) int {
		return cmp.Or(cmp.Compare(a.Step, b.Step), cmp.Compare(a.Sender, b.Sender), cmp.Compare(a.Target, b.Target))
	})
	slices.SortStableFunc(samples, func(a, b model.SampleRecord) int {
		return cmp.Or(cmp.Compare(a.Step, b.Step), cmp.Compare(a.Sender, b.Sender))
	})
	res.Spikes = append(res.Spikes, spikes...)
	res.Samples = append(res.Samples, samples...)
	return nil
}

// deliver fans the events of one device update out to its targets. Sent
// spikes reach every target with the same multiplicity; deferred spikes are
// drawn independently per target.
func (s *Simulation) deliver(dev *device.Device, sink *sliceSink, src rand.Source, out []model.SpikeRecord) []model.SpikeRecord {
	for _, ev := range sink.sent {
		for t := 0; t < s.cfg.Targets; t++ {
			out = append(out, s.spikeRecord(ev, t))
		}
	}
	for _, req := range sink.deferred {
		for t := 0; t < s.cfg.Targets; t++ {
			if ev, ok := dev.Resolve(req, src); ok {
				out = append(out, s.spikeRecord(ev, t))
			}
		}
	}
	return out
}

func (s *Simulation) spikeRecord(ev device.SpikeEvent, target int) model.SpikeRecord {
	return model.SpikeRecord{
		Sender:       ev.Sender,
		Target:       target,
		Step:         ev.Step,
		TimeMS:       s.timeMS(ev.Step + 1),
		Multiplicity: ev.Multiplicity,
	}
}

func (s *Simulation) timeMS(step int64) float64 {
	return float64(step) * s.cfg.ResolutionMS
}

type sliceSink struct {
	sent     []device.SpikeEvent
	deferred []device.DeferredSpike
}

func (s *sliceSink) Send(ev device.SpikeEvent)      { s.sent = append(s.sent, ev) }
func (s *sliceSink) Defer(req device.DeferredSpike) { s.deferred = append(s.deferred, req) }

func (s *sliceSink) reset() {
	s.sent = s.sent[:0]
	s.deferred = s.deferred[:0]
}
