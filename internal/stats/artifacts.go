package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"spikegen/internal/model"
)

const (
	runIndexFile = "run_index.json"
	runFile      = "run.json"
	spikesFile   = "spikes.csv"
	samplesFile  = "samples.csv"
	rateFile     = "population_rate.csv"
)

type RunArtifacts struct {
	Run     model.RunRecord
	Spikes  []model.SpikeRecord
	Samples []model.SampleRecord
	// BinMS sets the population rate bin width; <= 0 skips population_rate.csv.
	BinMS float64
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Model        string  `json:"model"`
	Devices      int     `json:"devices"`
	Targets      int     `json:"targets"`
	DurationMS   float64 `json:"duration_ms"`
	Seed         uint64  `json:"seed"`
	Spikes       int64   `json:"spikes"`
	MeanRateHz   float64 `json:"mean_rate_hz"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

func IndexEntry(run model.RunRecord) RunIndexEntry {
	return RunIndexEntry{
		RunID:        run.ID,
		Model:        run.Model,
		Devices:      run.Devices,
		Targets:      run.Targets,
		DurationMS:   run.DurationMS,
		Seed:         run.Seed,
		Spikes:       run.Summary.Spikes,
		MeanRateHz:   run.Summary.MeanRateHz,
		CreatedAtUTC: run.CreatedAtUTC,
	}
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeCSVFile(filepath.Join(runDir, spikesFile), func(w io.Writer) error {
		return WriteSpikesCSV(w, artifacts.Spikes)
	}); err != nil {
		return "", err
	}
	if err := writeCSVFile(filepath.Join(runDir, samplesFile), func(w io.Writer) error {
		return WriteSamplesCSV(w, artifacts.Run.Recordables, artifacts.Samples)
	}); err != nil {
		return "", err
	}
	if artifacts.BinMS > 0 {
		window := Window{
			Devices:    artifacts.Run.Devices,
			Targets:    artifacts.Run.Targets,
			DurationMS: artifacts.Run.DurationMS,
			BinMS:      artifacts.BinMS,
		}
		rate := PopulationRate(artifacts.Spikes, window)
		if err := writeCSVFile(filepath.Join(runDir, rateFile), func(w io.Writer) error {
			return WritePopulationRateCSV(w, artifacts.BinMS, rate)
		}); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func ReadRunRecord(baseDir, runID string) (model.RunRecord, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, runFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

// ExportRunArtifacts copies the artifacts of runID from baseDir into outDir.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{runFile, spikesFile, samplesFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	ratePath := filepath.Join(src, rateFile)
	if _, err := os.Stat(ratePath); err == nil {
		if err := copyFile(ratePath, filepath.Join(dst, rateFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func WriteSpikesCSV(w io.Writer, spikes []model.SpikeRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"sender", "target", "step", "time_ms", "multiplicity"}); err != nil {
		return err
	}
	for _, s := range spikes {
		if err := writer.Write([]string{
			strconv.Itoa(s.Sender),
			strconv.Itoa(s.Target),
			strconv.FormatInt(s.Step, 10),
			formatFloat(s.TimeMS),
			strconv.FormatInt(s.Multiplicity, 10),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteSamplesCSV(w io.Writer, names []string, samples []model.SampleRecord) error {
	writer := csv.NewWriter(w)
	header := append([]string{"sender", "step", "time_ms"}, names...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		if len(s.Values) != len(names) {
			return fmt.Errorf("sample at step %d has %d values, want %d", s.Step, len(s.Values), len(names))
		}
		row := []string{strconv.Itoa(s.Sender), strconv.FormatInt(s.Step, 10), formatFloat(s.TimeMS)}
		for _, v := range s.Values {
			row = append(row, formatFloat(v))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WritePopulationRateCSV(w io.Writer, binMS float64, rate []float64) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"bin_start_ms", "rate_hz"}); err != nil {
		return err
	}
	for i, r := range rate {
		if err := writer.Write([]string{formatFloat(float64(i) * binMS), formatFloat(r)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSVFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
