package spikegen

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"spikegen/internal/device"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:  "memory",
		RunsDir:    filepath.Join(base, "runs"),
		ExportsDir: filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientRunRunsAndExport(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		Model:        "cd",
		ResolutionMS: 1,
		DurationMS:   2000,
		Seed:         42,
		Workers:      2,
		Devices:      4,
		Params:       map[string]any{"min_rate": 0.0, "max_rate": 100.0},
		Stimulus: Stimulus{
			TimesMS:    []float64{0, 1000},
			Amplitudes: []float64{0, 1},
		},
		Record:         []string{"rate"},
		RecordInterval: 100,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" || summary.Model != device.ModelClampedLinear {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Steps != 2000 || summary.Samples != 4*20 {
		t.Fatalf("unexpected steps/samples: %+v", summary)
	}
	// Silent for the first second, 100 Hz for the second.
	if math.Abs(summary.Summary.MeanRateHz-50) > 10 {
		t.Fatalf("mean rate %g far from 50 Hz", summary.Summary.MeanRateHz)
	}
	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, "spikes.csv")); err != nil {
		t.Fatalf("expected spikes artifact: %v", err)
	}

	spikes, err := client.Spikes(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("spikes: %v", err)
	}
	for _, s := range spikes {
		if s.Step < 1000 {
			t.Fatalf("spike at step %d before the stimulus switched on", s.Step)
		}
	}
	samples, err := client.Samples(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if len(samples) != summary.Samples {
		t.Fatalf("stored %d samples, summary reports %d", len(samples), summary.Samples)
	}

	run, err := client.GetRun(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Params["max_rate"] != 100 || len(run.Recordables) != 1 || run.Devices != 4 {
		t.Fatalf("unexpected run record: %+v", run)
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.RunID != summary.RunID {
		t.Fatalf("exported %s, want %s", exported.RunID, summary.RunID)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, "run.json")); err != nil {
		t.Fatalf("expected exported run.json: %v", err)
	}

	if err := client.DeleteRun(ctx, summary.RunID); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, err := client.GetRun(ctx, summary.RunID); err == nil {
		t.Fatal("expected deleted run to be missing")
	}
}

func TestClientRunRejectsBadInput(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Run(ctx, RunRequest{Model: "iaf_psc_alpha"}); !errors.Is(err, device.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
	if _, err := client.Run(ctx, RunRequest{Params: map[string]any{"min_rate": -1.0}}); !errors.Is(err, device.ErrInvalidProperty) {
		t.Fatalf("expected ErrInvalidProperty, got %v", err)
	}
	if _, err := client.Run(ctx, RunRequest{Model: "rbf", Record: []string{"input_current"}}); !errors.Is(err, device.ErrUnknownRecordable) {
		t.Fatalf("expected ErrUnknownRecordable, got %v", err)
	}
	if _, err := client.Run(ctx, RunRequest{Stimulus: Stimulus{TimesMS: []float64{2, 1}, Amplitudes: []float64{1, 1}}}); err == nil {
		t.Fatal("expected stimulus error")
	}
	if _, err := client.Run(ctx, RunRequest{DurationMS: 0.01}); err == nil {
		t.Fatal("expected duration error")
	}
}

func TestClientRunCancelled(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Run(ctx, RunRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClientExportRequiresSelection(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	if _, err := client.Export(ctx, ExportRequest{}); err == nil {
		t.Fatal("expected export selection error")
	}
	if _, err := client.Export(ctx, ExportRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected conflicting selection error")
	}
	if _, err := client.Export(ctx, ExportRequest{Latest: true}); err == nil {
		t.Fatal("expected no runs error")
	}
}

func TestClientCurve(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	linear, err := client.Curve(ctx, CurveRequest{From: -1, To: 2, Points: 4})
	if err != nil {
		t.Fatalf("linear curve: %v", err)
	}
	want := []float64{1, 1, 10, 10}
	for i, p := range linear {
		if math.Abs(p.RateHz-want[i]) > 1e-12 {
			t.Fatalf("linear point %d: got=%+v want rate %g", i, p, want[i])
		}
	}

	gaussian, err := client.Curve(ctx, CurveRequest{
		Model:  device.ModelGaussianBump,
		Params: map[string]any{"mean_current": 1.0, "sigma_current": 0.5},
		From:   0,
		To:     2,
		Points: 5,
	})
	if err != nil {
		t.Fatalf("gaussian curve: %v", err)
	}
	if gaussian[2].Current != 1 || gaussian[2].RateHz != 10 {
		t.Fatalf("gaussian peak: %+v", gaussian[2])
	}
	if math.Abs(gaussian[0].RateHz-gaussian[4].RateHz) > 1e-12 {
		t.Fatalf("gaussian curve should be symmetric: %+v", gaussian)
	}

	if _, err := client.Curve(ctx, CurveRequest{From: 1, To: 1}); err == nil {
		t.Fatal("expected empty range error")
	}
	if _, err := client.Curve(ctx, CurveRequest{Points: 1}); err == nil {
		t.Fatal("expected too few points error")
	}
}

func TestClientModels(t *testing.T) {
	models := newTestClient(t).Models()
	if len(models) != 2 || models[0] != device.ModelClampedLinear || models[1] != device.ModelGaussianBump {
		t.Fatalf("unexpected models: %v", models)
	}
}
