package storage

import (
	"context"
	"errors"

	"spikegen/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store persists recorded generator runs together with their spike and sample
// streams.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveSpikes(ctx context.Context, runID string, spikes []model.SpikeRecord) error
	GetSpikes(ctx context.Context, runID string) ([]model.SpikeRecord, bool, error)
	SaveSamples(ctx context.Context, runID string, samples []model.SampleRecord) error
	GetSamples(ctx context.Context, runID string) ([]model.SampleRecord, bool, error)
}
