package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"spikegen/internal/device"
	"spikegen/internal/dict"
	"spikegen/internal/storage"
	"spikegen/pkg/spikegen"
)

const (
	runsDir    = "runs"
	exportsDir = "exports"
	dbPath     = "spikegen.db"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "spikes":
		return runSpikes(ctx, args[1:])
	case "delete":
		return runDelete(ctx, args[1:])
	case "curve":
		return runCurve(ctx, args[1:])
	case "status":
		return runStatus(ctx, args[1:])
	case "models":
		return runModels(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// clientFlags are shared by every command that opens a client.
type clientFlags struct {
	storeKind *string
	dbPath    *string
	runsDir   *string
	format    *string
	verbose   *bool
}

func registerClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		storeKind: fs.String("store", storage.DefaultStoreKind, "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", dbPath, "sqlite database path"),
		runsDir:   fs.String("runs-dir", runsDir, "run artifacts directory"),
		format:    fs.String("format", "auto", "output format: auto|text|json"),
		verbose:   fs.Bool("v", false, "debug logging on stderr"),
	}
}

func (f clientFlags) open() (*spikegen.Client, error) {
	return spikegen.New(spikegen.Options{
		StoreKind:  *f.storeKind,
		DBPath:     *f.dbPath,
		RunsDir:    *f.runsDir,
		ExportsDir: exportsDir,
		Logger:     newLogger(*f.verbose),
	})
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// jsonOutput resolves the output format. auto picks text on a terminal and
// JSON otherwise.
func jsonOutput(format string) (bool, error) {
	switch format {
	case "json":
		return true, nil
	case "text":
		return false, nil
	case "", "auto":
		f, ok := stdout.(*os.File)
		if !ok {
			return false, nil
		}
		return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeJSON(value any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	modelName := fs.String("model", device.ModelClampedLinear, "generator model: "+device.ModelClampedLinear+"|"+device.ModelGaussianBump)
	resolutionMS := fs.Float64("resolution-ms", 0.1, "simulation resolution in ms")
	sliceSteps := fs.Int64("slice-steps", 10, "steps per update slice (min delay)")
	maxDelaySteps := fs.Int64("max-delay-steps", 10, "maximum connection delay in steps")
	durationMS := fs.Float64("duration-ms", 1000, "simulated duration in ms")
	seed := fs.Uint64("seed", 1, "rng seed")
	workers := fs.Int("workers", 1, "worker count")
	devices := fs.Int("devices", 1, "generator count")
	targets := fs.Int("targets", 1, "targets per generator")
	params := paramFlag{}
	fs.Var(params, "param", "generator parameter key=value (repeatable)")
	stimTimes := fs.String("stim-times", "", "step current change times in ms, comma separated")
	stimAmps := fs.String("stim-amps", "", "step current amplitudes, comma separated")
	stimWeight := fs.Float64("stim-weight", 1, "stimulus connection weight")
	stimDelay := fs.Int64("stim-delay", 1, "stimulus connection delay in steps")
	record := fs.String("record", "", "recorded observables, comma separated (default all)")
	recordInterval := fs.Int64("record-interval", 1, "sampling interval in steps")
	binMS := fs.Float64("bin-ms", 100, "bin width for rate and Fano statistics in ms")
	cf := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var req spikegen.RunRequest
	if *configPath != "" {
		loaded, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = loaded
	} else {
		req = spikegen.RunRequest{
			RunID:          *runID,
			Model:          *modelName,
			ResolutionMS:   *resolutionMS,
			SliceSteps:     *sliceSteps,
			MaxDelaySteps:  *maxDelaySteps,
			DurationMS:     *durationMS,
			Seed:           *seed,
			Workers:        *workers,
			Devices:        *devices,
			Targets:        *targets,
			Record:         splitList(*record),
			RecordInterval: *recordInterval,
			BinMS:          *binMS,
			Stimulus: spikegen.Stimulus{
				Weight:     *stimWeight,
				DelaySteps: *stimDelay,
			},
		}
		// Stimulus lists and params only apply when given.
		given := make(map[string]bool)
		for _, name := range []string{"param", "stim-times", "stim-amps"} {
			if setFlags[name] {
				given[name] = true
			}
		}
		setFlags = given
	}
	if err := overrideFromFlags(&req, setFlags, map[string]any{
		"run-id":          *runID,
		"model":           *modelName,
		"resolution-ms":   *resolutionMS,
		"slice-steps":     *sliceSteps,
		"max-delay-steps": *maxDelaySteps,
		"duration-ms":     *durationMS,
		"seed":            *seed,
		"workers":         *workers,
		"devices":         *devices,
		"targets":         *targets,
		"param":           params,
		"stim-times":      *stimTimes,
		"stim-amps":       *stimAmps,
		"stim-weight":     *stimWeight,
		"stim-delay":      *stimDelay,
		"record":          *record,
		"record-interval": *recordInterval,
		"bin-ms":          *binMS,
	}); err != nil {
		return err
	}

	asJSON, err := jsonOutput(*cf.format)
	if err != nil {
		return err
	}
	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(summary)
	}
	fmt.Fprintf(stdout, "run_id=%s model=%s steps=%s samples=%s\n",
		summary.RunID, summary.Model, humanize.Comma(summary.Steps), humanize.Comma(int64(summary.Samples)))
	fmt.Fprintf(stdout, "spikes=%s events=%s max_multiplicity=%d mean_rate_hz=%s cv_isi=%.3f fano=%.3f\n",
		humanize.Comma(summary.Summary.Spikes),
		humanize.Comma(int64(summary.Summary.Events)),
		summary.Summary.MaxMultiplicity,
		humanize.CommafWithDigits(summary.Summary.MeanRateHz, 3),
		summary.Summary.CVISI,
		summary.Summary.FanoFactor,
	)
	fmt.Fprintf(stdout, "artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	cf := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}
	asJSON, err := jsonOutput(*cf.format)
	if err != nil {
		return err
	}
	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	entries, err := client.Runs(ctx, spikegen.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "run_id=%s created_at=%s model=%s devices=%d targets=%d duration_ms=%g seed=%d spikes=%s mean_rate_hz=%s\n",
			e.RunID, e.CreatedAtUTC, e.Model, e.Devices, e.Targets, e.DurationMS, e.Seed,
			humanize.Comma(e.Spikes), humanize.CommafWithDigits(e.MeanRateHz, 3))
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	cf := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}
	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, spikegen.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runSpikes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("spikes", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max spikes to print (0 prints all)")
	cf := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("spikes requires --run-id")
	}
	asJSON, err := jsonOutput(*cf.format)
	if err != nil {
		return err
	}
	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	spikes, err := client.Spikes(ctx, *runID)
	if err != nil {
		return err
	}
	total := len(spikes)
	if *limit > 0 && len(spikes) > *limit {
		spikes = spikes[:*limit]
	}
	if asJSON {
		return writeJSON(spikes)
	}
	for _, s := range spikes {
		fmt.Fprintf(stdout, "time_ms=%g sender=%d target=%d multiplicity=%d\n", s.TimeMS, s.Sender, s.Target, s.Multiplicity)
	}
	fmt.Fprintf(stdout, "showing %s of %s spike events\n", humanize.Comma(int64(len(spikes))), humanize.Comma(int64(total)))
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	cf := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("delete requires --run-id")
	}
	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.DeleteRun(ctx, *runID); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted run_id=%s\n", *runID)
	return nil
}

func runCurve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("curve", flag.ContinueOnError)
	modelName := fs.String("model", device.ModelClampedLinear, "generator model")
	from := fs.Float64("from", -1, "first input current")
	to := fs.Float64("to", 2, "last input current")
	points := fs.Int("points", 13, "number of evaluated currents")
	format := fs.String("format", "auto", "output format: auto|text|json")
	params := paramFlag{}
	fs.Var(params, "param", "generator parameter key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	asJSON, err := jsonOutput(*format)
	if err != nil {
		return err
	}
	client, err := spikegen.New(spikegen.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	curve, err := client.Curve(ctx, spikegen.CurveRequest{
		Model:  *modelName,
		Params: params,
		From:   *from,
		To:     *to,
		Points: *points,
	})
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(curve)
	}
	for _, p := range curve {
		fmt.Fprintf(stdout, "current=%g rate_hz=%g\n", p.Current, p.RateHz)
	}
	return nil
}

func runStatus(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	modelName := fs.String("model", device.ModelClampedLinear, "generator model")
	format := fs.String("format", "auto", "output format: auto|text|json")
	params := paramFlag{}
	fs.Var(params, "param", "generator parameter key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	asJSON, err := jsonOutput(*format)
	if err != nil {
		return err
	}

	dev, err := device.New(*modelName)
	if err != nil {
		return err
	}
	if err := dev.SetStatus(params); err != nil {
		return err
	}
	status := dev.GetStatus()
	if asJSON {
		return writeJSON(status)
	}
	for _, key := range dict.Keys(status) {
		fmt.Fprintf(stdout, "%s=%v\n", key, status[key])
	}
	return nil
}

func runModels(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range device.Models() {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: spikegenctl <run|runs|export|spikes|delete|curve|status|models> [flags]", msg)
}
