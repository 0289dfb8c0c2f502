package monitor

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"mkulimalink-monitor/config"
)

// psiFloor keeps every bin density away from zero so the log term is defined
const psiFloor = 1e-6

// PSI computes the Population Stability Index between an expected (baseline)
// and an actual (current) sample distribution over a shared set of bins.
//
// Bin edges span min to max of both distributions combined. Two
// distributions sharing a single constant value carry no drift information,
// so PSI is defined as 0 for that degenerate case. PSI of a distribution
// against itself is exactly 0; it is non-negative otherwise.
func PSI(expected, actual []float64, bins int) float64 {
	if len(expected) == 0 || len(actual) == 0 || bins < 1 {
		return 0
	}

	lo := math.Min(minOf(expected), minOf(actual))
	hi := math.Max(maxOf(expected), maxOf(actual))
	if lo == hi {
		return 0
	}

	expectedDist := densityHistogram(expected, lo, hi, bins)
	actualDist := densityHistogram(actual, lo, hi, bins)

	psi := 0.0
	for i := 0; i < bins; i++ {
		e := expectedDist[i] + psiFloor
		a := actualDist[i] + psiFloor
		psi += (a - e) * math.Log(a/e)
	}

	return psi
}

// densityHistogram bins values over [lo, hi] and normalizes the counts so
// the histogram integrates to 1 (count / (n * binWidth)). Values exactly at
// hi fall into the last bin.
func densityHistogram(values []float64, lo, hi float64, bins int) []float64 {
	width := (hi - lo) / float64(bins)
	counts := make([]float64, bins)
	n := 0
	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
		n++
	}
	if n == 0 {
		return counts
	}

	density := make([]float64, bins)
	for i, c := range counts {
		density[i] = c / (float64(n) * width)
	}
	return density
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// DriftDetector scores the current feature window of a model against its
// frozen baseline distribution.
type DriftDetector struct {
	baselines *BaselineStore
	bins      int
}

// NewDriftDetector creates a drift detector with the configured bin count
func NewDriftDetector(baselines *BaselineStore, bins int) *DriftDetector {
	return &DriftDetector{baselines: baselines, bins: bins}
}

// CheckDrift compares the current feature window against the model's
// baseline and returns one issue per drifted feature.
//
// Cold start: when no baseline exists yet, the current window is captured as
// the baseline (atomically, first writer wins) and no issues are reported,
// since there is nothing to compare against. The baseline is never overwritten
// after that; re-baselining is an explicit operator action.
func (d *DriftDetector) CheckDrift(ctx context.Context, model Model, current map[string][]float64, thresholds config.Thresholds) ([]string, error) {
	baseline, found, err := d.baselines.Get(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("load baseline for %s: %w", model, err)
	}

	if !found {
		if len(current) == 0 {
			return nil, nil
		}
		created, err := d.baselines.CreateIfAbsent(ctx, model, current)
		if err != nil {
			return nil, fmt.Errorf("capture baseline for %s: %w", model, err)
		}
		if created {
			log.Printf("📌 Captured feature baseline for %s (%d features)", model, len(current))
		}
		return nil, nil
	}

	// Score only features both sides know about, in stable order
	features := make([]string, 0, len(baseline.Features))
	for name := range baseline.Features {
		if _, ok := current[name]; ok {
			features = append(features, name)
		}
	}
	sort.Strings(features)

	var issues []string
	for _, name := range features {
		psi := PSI(baseline.Features[name], current[name], d.bins)
		if psi > thresholds.DriftThreshold {
			issues = append(issues, fmt.Sprintf("Feature drift in %s: PSI = %.3f", name, psi))
		}
	}

	return issues, nil
}
