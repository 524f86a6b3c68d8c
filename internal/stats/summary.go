package stats

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"spikegen/internal/model"
)

// Window describes the spike trains of a run: one train per device and
// target pair, observed for DurationMS and counted in BinMS bins.
type Window struct {
	Devices    int
	Targets    int
	DurationMS float64
	BinMS      float64
}

func (w Window) trains() int {
	return w.Devices * w.Targets
}

func (w Window) bins() int {
	if !(w.BinMS > 0) || !(w.DurationMS > 0) {
		return 0
	}
	return int(math.Ceil(w.DurationMS / w.BinMS))
}

func (w Window) train(s model.SpikeRecord) (int, bool) {
	if s.Sender < 0 || s.Sender >= w.Devices || s.Target < 0 || s.Target >= w.Targets {
		return 0, false
	}
	return s.Sender*w.Targets + s.Target, true
}

// BinCounts returns spike counts per train and bin. Multiplicities count as
// that many spikes; spikes stamped at the window end fall into the last bin.
func BinCounts(spikes []model.SpikeRecord, w Window) [][]float64 {
	nbins := w.bins()
	counts := make([][]float64, w.trains())
	for i := range counts {
		counts[i] = make([]float64, nbins)
	}
	if nbins == 0 {
		return counts
	}
	for _, s := range spikes {
		train, ok := w.train(s)
		if !ok || s.TimeMS < 0 {
			continue
		}
		bin := min(int(s.TimeMS/w.BinMS), nbins-1)
		counts[train][bin] += float64(s.Multiplicity)
	}
	return counts
}

// PopulationRate returns the mean per-train rate in Hz for every bin.
func PopulationRate(spikes []model.SpikeRecord, w Window) []float64 {
	counts := BinCounts(spikes, w)
	rate := make([]float64, w.bins())
	if len(counts) == 0 || len(rate) == 0 {
		return rate
	}
	for _, row := range counts {
		floats.Add(rate, row)
	}
	floats.Scale(1/(float64(len(counts))*w.BinMS*1e-3), rate)
	return rate
}

// Summarize computes event counts, mean rate, inter-spike interval statistics
// and the Fano factor of binned counts.
func Summarize(spikes []model.SpikeRecord, w Window) model.SpikeSummary {
	summary := model.SpikeSummary{Events: len(spikes)}
	for _, s := range spikes {
		summary.Spikes += s.Multiplicity
		summary.MaxMultiplicity = max(summary.MaxMultiplicity, s.Multiplicity)
	}
	if trains := w.trains(); trains > 0 && w.DurationMS > 0 {
		summary.MeanRateHz = float64(summary.Spikes) / float64(trains) / (w.DurationMS * 1e-3)
	}

	if isi := InterSpikeIntervals(spikes, w); len(isi) > 1 {
		mean, std := stat.MeanStdDev(isi, nil)
		summary.MeanISIMS = mean
		if mean > 0 {
			summary.CVISI = std / mean
		}
	}

	var pooled []float64
	for _, row := range BinCounts(spikes, w) {
		pooled = append(pooled, row...)
	}
	if len(pooled) > 1 {
		mean, variance := stat.MeanVariance(pooled, nil)
		if mean > 0 {
			summary.FanoFactor = variance / mean
		}
	}
	return summary
}

// InterSpikeIntervals pools the intervals of every train. A spike of
// multiplicity m contributes m-1 zero intervals.
func InterSpikeIntervals(spikes []model.SpikeRecord, w Window) []float64 {
	byTrain := make([][]model.SpikeRecord, w.trains())
	for _, s := range spikes {
		if train, ok := w.train(s); ok && s.Multiplicity > 0 {
			byTrain[train] = append(byTrain[train], s)
		}
	}

	var intervals []float64
	for _, train := range byTrain {
		slices.SortStableFunc(train, func(a, b model.SpikeRecord) int {
			return cmp.Compare(a.TimeMS, b.TimeMS)
		})
		for i, s := range train {
			if i > 0 {
				intervals = append(intervals, s.TimeMS-train[i-1].TimeMS)
			}
			for k := int64(1); k < s.Multiplicity; k++ {
				intervals = append(intervals, 0)
			}
		}
	}
	return intervals
}
