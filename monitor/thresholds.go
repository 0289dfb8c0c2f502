package monitor

import (
	"fmt"

	"mkulimalink-monitor/config"
)

// CheckThresholds maps a computed metric set and the model's configured
// limits to the list of violated conditions. Pure and deterministic: every
// check runs (no short-circuit) so one cycle can surface several issues at
// once.
//
// A metric absent from the set passes its check, but its name is returned in
// unmeasured so operators can distinguish "healthy" from "not measured this
// cycle".
func CheckThresholds(model Model, metrics MetricSet, thresholds config.Thresholds) (issues []string, unmeasured []string) {
	type check struct {
		metric  string
		violate func(v float64) bool
		issue   func(v float64) string
	}

	var checks []check
	switch model {
	case ModelPricePrediction:
		checks = []check{
			{
				metric:  MetricMAPE,
				violate: func(v float64) bool { return v > thresholds.MaxMAPE },
				issue:   func(v float64) string { return fmt.Sprintf("MAPE too high: %.2f%%", v) },
			},
			{
				metric:  MetricDirectionalAccuracy,
				violate: func(v float64) bool { return v < thresholds.MinDirectionalAccuracy },
				issue:   func(v float64) string { return fmt.Sprintf("Directional accuracy too low: %.2f%%", v) },
			},
		}
	case ModelDiseaseDetection:
		checks = []check{
			{
				metric:  MetricAccuracy,
				violate: func(v float64) bool { return v < thresholds.MinAccuracy },
				issue:   func(v float64) string { return fmt.Sprintf("Accuracy too low: %.2f", v) },
			},
			{
				metric:  MetricF1,
				violate: func(v float64) bool { return v < thresholds.MinF1 },
				issue:   func(v float64) string { return fmt.Sprintf("F1 score too low: %.2f", v) },
			},
		}
	case ModelRecommendations:
		checks = []check{
			{
				metric:  MetricPrecisionAt5,
				violate: func(v float64) bool { return v < thresholds.MinPrecisionAt5 },
				issue:   func(v float64) string { return fmt.Sprintf("Precision@5 too low: %.2f", v) },
			},
			{
				metric:  MetricCTR,
				violate: func(v float64) bool { return v < thresholds.MinCTR },
				issue:   func(v float64) string { return fmt.Sprintf("CTR too low: %.2f", v) },
			},
		}
	}

	for _, c := range checks {
		value, measured := metrics[c.metric]
		if !measured {
			unmeasured = append(unmeasured, c.metric)
			continue
		}
		if c.violate(value) {
			issues = append(issues, c.issue(value))
		}
	}

	return issues, unmeasured
}
