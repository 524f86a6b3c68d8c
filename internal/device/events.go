package device

// SpikeEvent carries Multiplicity logically simultaneous spikes emitted by
// Sender at absolute step Step. Multiplicity is always > 0.
type SpikeEvent struct {
	Sender       int
	Step         int64
	Multiplicity int64
}

// DeferredSpike is a placeholder emitted during a slice whose multiplicity is
// drawn later, once per target, through Device.Resolve.
type DeferredSpike struct {
	Sender int
	Step   int64
}

// CurrentEvent delivers Weight*Current to the receiving device at absolute
// step DeliveryStep. DelaySteps is the connection delay it travelled with.
type CurrentEvent struct {
	Current      float64
	Weight       float64
	DelaySteps   int64
	DeliveryStep int64
	Receptor     int
}

// EventSink receives events produced during Update.
type EventSink interface {
	Send(ev SpikeEvent)
	Defer(req DeferredSpike)
}

// BufferConfig carries the host timing needed by InitBuffers.
type BufferConfig struct {
	ResolutionMS  float64
	MinDelaySteps int64
	MaxDelaySteps int64
}
