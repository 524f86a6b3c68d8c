package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"spikegen/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	spikes      map[string][]model.SpikeRecord
	samples     map[string][]model.SampleRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.spikes = make(map[string][]model.SpikeRecord)
	s.samples = make(map[string][]model.SampleRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return err
	}
	s.runs[run.ID] = copyRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.RunRecord{}, false, ErrNotInitialized
	}
	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	return copyRun(run), true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, copyRun(run))
	}
	slices.SortFunc(runs, func(a, b model.RunRecord) int {
		return cmp.Or(cmp.Compare(a.CreatedAtUTC, b.CreatedAtUTC), cmp.Compare(a.ID, b.ID))
	})
	return runs, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	delete(s.runs, id)
	delete(s.spikes, id)
	delete(s.samples, id)
	return nil
}

func (s *MemoryStore) SaveSpikes(_ context.Context, runID string, spikes []model.SpikeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.spikes[runID] = append([]model.SpikeRecord(nil), spikes...)
	return nil
}

func (s *MemoryStore) GetSpikes(_ context.Context, runID string) ([]model.SpikeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	spikes, ok := s.spikes[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.SpikeRecord(nil), spikes...), true, nil
}

func (s *MemoryStore) SaveSamples(_ context.Context, runID string, samples []model.SampleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.samples[runID] = copySamples(samples)
	return nil
}

func (s *MemoryStore) GetSamples(_ context.Context, runID string) ([]model.SampleRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	samples, ok := s.samples[runID]
	if !ok {
		return nil, false, nil
	}
	return copySamples(samples), true, nil
}

func copyRun(run model.RunRecord) model.RunRecord {
	copied := run
	if run.Params != nil {
		copied.Params = make(map[string]float64, len(run.Params))
		for k, v := range run.Params {
			copied.Params[k] = v
		}
	}
	copied.Recordables = append([]string(nil), run.Recordables...)
	copied.Stimulus.TimesMS = append([]float64(nil), run.Stimulus.TimesMS...)
	copied.Stimulus.Amplitudes = append([]float64(nil), run.Stimulus.Amplitudes...)
	return copied
}

func copySamples(samples []model.SampleRecord) []model.SampleRecord {
	copied := make([]model.SampleRecord, len(samples))
	for i, sample := range samples {
		copied[i] = sample
		copied[i].Values = append([]float64(nil), sample.Values...)
	}
	return copied
}
