package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord describes one recorded simulation run.
type RunRecord struct {
	VersionedRecord
	ID            string             `json:"id"`
	CreatedAtUTC  string             `json:"created_at_utc"`
	Model         string             `json:"model"`
	ResolutionMS  float64            `json:"resolution_ms"`
	SliceSteps    int64              `json:"slice_steps"`
	MaxDelaySteps int64              `json:"max_delay_steps"`
	DurationMS    float64            `json:"duration_ms"`
	Steps         int64              `json:"steps"`
	Seed          uint64             `json:"seed"`
	Workers       int                `json:"workers"`
	Devices       int                `json:"devices"`
	Targets       int                `json:"targets"`
	Params        map[string]float64 `json:"params"`
	Recordables   []string           `json:"recordables"`
	Stimulus      StimulusRecord     `json:"stimulus"`
	Summary       SpikeSummary       `json:"summary"`
}

// StimulusRecord describes the step current that drove every device.
type StimulusRecord struct {
	TimesMS    []float64 `json:"times_ms"`
	Amplitudes []float64 `json:"amplitudes"`
	Weight     float64   `json:"weight"`
	DelaySteps int64     `json:"delay_steps"`
}

// SpikeRecord is one delivered spike event.
type SpikeRecord struct {
	Sender       int     `json:"sender"`
	Target       int     `json:"target"`
	Step         int64   `json:"step"`
	TimeMS       float64 `json:"time_ms"`
	Multiplicity int64   `json:"multiplicity"`
}

// SampleRecord is one logged row; Values follow RunRecord.Recordables.
type SampleRecord struct {
	Sender int       `json:"sender"`
	Step   int64     `json:"step"`
	TimeMS float64   `json:"time_ms"`
	Values []float64 `json:"values"`
}

// SpikeSummary holds spike train statistics for a run.
type SpikeSummary struct {
	Events          int     `json:"events"`
	Spikes          int64   `json:"spikes"`
	MeanRateHz      float64 `json:"mean_rate_hz"`
	MeanISIMS       float64 `json:"mean_isi_ms"`
	CVISI           float64 `json:"cv_isi"`
	FanoFactor      float64 `json:"fano_factor"`
	MaxMultiplicity int64   `json:"max_multiplicity"`
}
