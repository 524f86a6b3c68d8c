package storage

import "spikegen/internal/model"

func sampleRun(id, created string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		CreatedAtUTC:    created,
		Model:           "cd_poisson_generator",
		ResolutionMS:    0.1,
		SliceSteps:      10,
		MaxDelaySteps:   10,
		DurationMS:      100,
		Steps:           1000,
		Seed:            42,
		Workers:         2,
		Devices:         4,
		Targets:         1,
		Params:          map[string]float64{"min_rate": 1, "max_rate": 10},
		Recordables:     []string{"rate", "input_current"},
		Stimulus: model.StimulusRecord{
			TimesMS:    []float64{10, 50},
			Amplitudes: []float64{0.5, 1},
			Weight:     1,
			DelaySteps: 1,
		},
	}
}

func sampleSpikes() []model.SpikeRecord {
	return []model.SpikeRecord{
		{Sender: 0, Target: 0, Step: 3, TimeMS: 0.4, Multiplicity: 1},
		{Sender: 1, Target: 0, Step: 7, TimeMS: 0.8, Multiplicity: 2},
	}
}

func sampleSamples() []model.SampleRecord {
	return []model.SampleRecord{
		{Sender: 0, Step: 0, TimeMS: 0.1, Values: []float64{1, 0}},
		{Sender: 0, Step: 1, TimeMS: 0.2, Values: []float64{5.5, 0.5}},
	}
}
