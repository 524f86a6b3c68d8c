// Package spikegen runs current-driven Poisson spike generators and keeps
// their recordings.
package spikegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"spikegen/internal/device"
	"spikegen/internal/kernel"
	"spikegen/internal/model"
	"spikegen/internal/stats"
	"spikegen/internal/stimulus"
	"spikegen/internal/storage"
	"spikegen/internal/transfer"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "spikegen.db"
	defaultDurationMS = 1000.0
	defaultBinMS      = 100.0
	defaultCurvePts   = 11
)

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string
	Logger     *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger

	runsDir    string
	exportsDir string

	initOnce sync.Once
	initErr  error
}

type Stimulus struct {
	TimesMS    []float64
	Amplitudes []float64
	// Weight 0 is read as 1.
	Weight     float64
	DelaySteps int64
}

type RunRequest struct {
	RunID          string
	Model          string
	ResolutionMS   float64
	SliceSteps     int64
	MaxDelaySteps  int64
	DurationMS     float64
	Seed           uint64
	Workers        int
	Devices        int
	Targets        int
	Params         map[string]any
	Stimulus       Stimulus
	Record         []string
	RecordInterval int64
	BinMS          float64
}

type RunSummary struct {
	RunID        string
	Model        string
	ArtifactsDir string
	Steps        int64
	Samples      int
	Summary      model.SpikeSummary
}

type RunsRequest struct {
	Limit int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type CurveRequest struct {
	Model  string
	Params map[string]any
	From   float64
	To     float64
	Points int
}

type CurvePoint struct {
	Current float64
	RateHz  float64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		logger:     logger,
		runsDir:    runsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Models lists the generator models a run can use.
func (c *Client) Models() []string {
	return device.Models()
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	req = withRunDefaults(req)

	proto, err := device.New(req.Model)
	if err != nil {
		return RunSummary{}, err
	}
	if err := proto.SetStatus(req.Params); err != nil {
		return RunSummary{}, err
	}

	cfg := kernel.Config{
		ResolutionMS:  req.ResolutionMS,
		SliceSteps:    req.SliceSteps,
		MaxDelaySteps: req.MaxDelaySteps,
		Workers:       req.Workers,
		Seed:          req.Seed,
		Targets:       req.Targets,
	}
	sim, err := kernel.New(cfg)
	if err != nil {
		return RunSummary{}, err
	}
	steps := int64(math.Round(req.DurationMS / req.ResolutionMS))
	if steps < 1 {
		return RunSummary{}, fmt.Errorf("duration %g ms is shorter than one %g ms step", req.DurationMS, req.ResolutionMS)
	}

	var source stimulus.Source
	if len(req.Stimulus.TimesMS) > 0 {
		step, err := stimulus.NewStepCurrent(req.Stimulus.TimesMS, req.Stimulus.Amplitudes)
		if err != nil {
			return RunSummary{}, fmt.Errorf("stimulus: %w", err)
		}
		source = step
	}

	var recordables []string
	for i := 0; i < req.Devices; i++ {
		id := sim.Add(proto.Clone())
		if source != nil {
			if err := sim.Connect(id, kernel.Input{
				Source:     source,
				Weight:     req.Stimulus.Weight,
				DelaySteps: req.Stimulus.DelaySteps,
			}); err != nil {
				return RunSummary{}, err
			}
		}
		if err := sim.Record(id, req.Record, req.RecordInterval); err != nil {
			return RunSummary{}, err
		}
		if i == 0 {
			recordables = sim.Devices()[id].RecordedNames()
		}
	}

	c.logger.Debug("run starting", "run_id", req.RunID, "model", proto.Model(), "devices", req.Devices, "steps", steps, "workers", req.Workers)
	started := time.Now()
	res, err := sim.Run(ctx, steps)
	if err != nil {
		return RunSummary{}, err
	}

	window := stats.Window{
		Devices:    req.Devices,
		Targets:    req.Targets,
		DurationMS: float64(res.Steps) * req.ResolutionMS,
		BinMS:      req.BinMS,
	}
	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              req.RunID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		Model:           proto.Model(),
		ResolutionMS:    req.ResolutionMS,
		SliceSteps:      req.SliceSteps,
		MaxDelaySteps:   req.MaxDelaySteps,
		DurationMS:      window.DurationMS,
		Steps:           res.Steps,
		Seed:            req.Seed,
		Workers:         req.Workers,
		Devices:         req.Devices,
		Targets:         req.Targets,
		Params:          floatStatus(proto),
		Recordables:     recordables,
		Stimulus: model.StimulusRecord{
			TimesMS:    req.Stimulus.TimesMS,
			Amplitudes: req.Stimulus.Amplitudes,
			Weight:     req.Stimulus.Weight,
			DelaySteps: req.Stimulus.DelaySteps,
		},
		Summary: stats.Summarize(res.Spikes, window),
	}

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveSpikes(ctx, run.ID, res.Spikes); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveSamples(ctx, run.ID, res.Samples); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.runsDir, stats.RunArtifacts{
		Run:     run,
		Spikes:  res.Spikes,
		Samples: res.Samples,
		BinMS:   req.BinMS,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.runsDir, stats.IndexEntry(run)); err != nil {
		return RunSummary{}, err
	}

	c.logger.Info("run complete",
		"run_id", run.ID,
		"spikes", run.Summary.Spikes,
		"mean_rate_hz", run.Summary.MeanRateHz,
		"elapsed", time.Since(started),
	)
	return RunSummary{
		RunID:        run.ID,
		Model:        run.Model,
		ArtifactsDir: filepath.Clean(runDir),
		Steps:        res.Steps,
		Samples:      len(res.Samples),
		Summary:      run.Summary,
	}, nil
}

func withRunDefaults(req RunRequest) RunRequest {
	defaults := kernel.DefaultConfig()
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.Model == "" {
		req.Model = device.ModelClampedLinear
	}
	if req.ResolutionMS == 0 {
		req.ResolutionMS = defaults.ResolutionMS
	}
	if req.SliceSteps == 0 {
		req.SliceSteps = defaults.SliceSteps
	}
	if req.MaxDelaySteps == 0 {
		req.MaxDelaySteps = max(req.SliceSteps, defaults.MaxDelaySteps)
	}
	if req.DurationMS == 0 {
		req.DurationMS = defaultDurationMS
	}
	if req.Workers == 0 {
		req.Workers = defaults.Workers
	}
	if req.Devices == 0 {
		req.Devices = 1
	}
	if req.Targets == 0 {
		req.Targets = defaults.Targets
	}
	if req.BinMS == 0 {
		req.BinMS = min(defaultBinMS, req.DurationMS)
	}
	if req.Stimulus.Weight == 0 {
		req.Stimulus.Weight = 1
	}
	if req.Stimulus.DelaySteps == 0 {
		req.Stimulus.DelaySteps = 1
	}
	return req
}

func floatStatus(dev *device.Device) map[string]float64 {
	out := make(map[string]float64)
	for key, value := range dev.GetStatus() {
		if v, ok := value.(float64); ok {
			out[key] = v
		}
	}
	return out
}

// Runs lists recorded runs, newest first.
func (c *Client) Runs(_ context.Context, req RunsRequest) ([]stats.RunIndexEntry, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return entries, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.runsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	c.logger.Debug("run exported", "run_id", runID, "dir", exportedDir)
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// GetRun loads a run record from the store.
func (c *Client) GetRun(ctx context.Context, runID string) (model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return model.RunRecord{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("run not found: %s", runID)
	}
	return run, nil
}

func (c *Client) Spikes(ctx context.Context, runID string) ([]model.SpikeRecord, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	spikes, ok, err := c.store.GetSpikes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("spikes not found for run: %s", runID)
	}
	return spikes, nil
}

func (c *Client) Samples(ctx context.Context, runID string) ([]model.SampleRecord, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	samples, ok, err := c.store.GetSamples(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("samples not found for run: %s", runID)
	}
	return samples, nil
}

// DeleteRun removes a run and its recordings from the store.
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	return c.store.DeleteRun(ctx, runID)
}

// Curve evaluates the transfer function of a configured model on Points
// evenly spaced input currents in [From, To].
func (c *Client) Curve(_ context.Context, req CurveRequest) ([]CurvePoint, error) {
	if req.Model == "" {
		req.Model = device.ModelClampedLinear
	}
	if req.Points == 0 {
		req.Points = defaultCurvePts
	}
	if req.Points < 2 {
		return nil, fmt.Errorf("curve needs at least 2 points: %d", req.Points)
	}
	if req.From == 0 && req.To == 0 {
		req.To = 1
	}
	if !(req.To > req.From) {
		return nil, fmt.Errorf("curve range is empty: [%g, %g]", req.From, req.To)
	}

	dev, err := device.New(req.Model)
	if err != nil {
		return nil, err
	}
	if err := dev.SetStatus(req.Params); err != nil {
		return nil, err
	}
	params := dev.Params()
	fn, err := params.Func()
	if err != nil {
		return nil, err
	}

	currents := floats.Span(make([]float64, req.Points), req.From, req.To)
	rates := transfer.Curve(fn, currents)
	out := make([]CurvePoint, len(currents))
	for i := range currents {
		out[i] = CurvePoint{Current: currents[i], RateHz: rates[i]}
	}
	return out, nil
}
