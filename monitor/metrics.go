package monitor

import (
	"math"
	"sort"

	"mkulimalink-monitor/config"
	models "mkulimalink-monitor/database/models_pkg"
)

// Observation is one prediction/outcome pair from the observation store
type Observation = models.ModelPrediction

// epsilon guards every denominator that can legitimately reach zero
const epsilon = 1e-7

// Evaluate computes the metric set for one model family over a batch of
// observations. It fails with InsufficientDataError before any metric math
// when the batch is below the configured minimum; partial metrics are never
// produced for too-small samples.
func Evaluate(model Model, batch []Observation, thresholds config.Thresholds) (MetricSet, error) {
	if len(batch) < thresholds.MinSamples {
		return nil, &InsufficientDataError{Got: len(batch), Need: thresholds.MinSamples}
	}

	metrics := MetricSet{MetricSampleCount: float64(len(batch))}

	switch model {
	case ModelPricePrediction:
		regressionMetrics(batch, metrics)
	case ModelDiseaseDetection:
		classificationMetrics(batch, metrics)
	case ModelRecommendations:
		rankingMetrics(batch, metrics)
	default:
		return nil, &EvaluationError{Model: model, Err: errUnknownModel(model)}
	}

	return metrics, nil
}

func errUnknownModel(model Model) error {
	_, err := ParseModel(string(model))
	return err
}

// regressionMetrics computes MAPE, RMSE and directional accuracy for the
// price prediction family. Directional accuracy needs at least two ordered
// pairs; with fewer it is left unmeasured rather than divided by zero.
func regressionMetrics(batch []Observation, metrics MetricSet) {
	var actual, predicted []float64
	for _, obs := range batch {
		if obs.PredictedValue == nil || obs.ActualValue == nil {
			continue
		}
		predicted = append(predicted, *obs.PredictedValue)
		actual = append(actual, *obs.ActualValue)
	}
	if len(actual) == 0 {
		return
	}

	var absPctSum, sqSum float64
	for i := range actual {
		absPctSum += math.Abs(actual[i]-predicted[i]) / (math.Abs(actual[i]) + epsilon)
		sqSum += (actual[i] - predicted[i]) * (actual[i] - predicted[i])
	}
	metrics[MetricMAPE] = absPctSum / float64(len(actual)) * 100
	metrics[MetricRMSE] = math.Sqrt(sqSum / float64(len(actual)))

	// Adjacent-pair sign agreement between diff(actual) and diff(predicted)
	comparisons := 0
	agreements := 0
	for i := 1; i < len(actual); i++ {
		actualUp := actual[i]-actual[i-1] > 0
		predictedUp := predicted[i]-predicted[i-1] > 0
		if actualUp == predictedUp {
			agreements++
		}
		comparisons++
	}
	if comparisons > 0 {
		metrics[MetricDirectionalAccuracy] = float64(agreements) / float64(comparisons) * 100
	}
}

// classificationMetrics computes accuracy, precision, recall and F1 from a
// 2x2 confusion count for the disease detection family. Denominators are
// epsilon-guarded so a wholly absent class floors the metric near zero
// instead of dividing by zero.
func classificationMetrics(batch []Observation, metrics MetricSet) {
	var total, correct, tp, fp, fn int
	for _, obs := range batch {
		if obs.PredictedValue == nil || obs.ActualValue == nil {
			continue
		}
		actualPositive := *obs.ActualValue > 0.5
		predictedPositive := *obs.PredictedValue > 0.5

		total++
		if actualPositive == predictedPositive {
			correct++
		}
		switch {
		case actualPositive && predictedPositive:
			tp++
		case !actualPositive && predictedPositive:
			fp++
		case actualPositive && !predictedPositive:
			fn++
		}
	}
	if total == 0 {
		return
	}

	precision := float64(tp) / (float64(tp+fp) + epsilon)
	recall := float64(tp) / (float64(tp+fn) + epsilon)

	metrics[MetricAccuracy] = float64(correct) / float64(total)
	metrics[MetricPrecision] = precision
	metrics[MetricRecall] = recall
	metrics[MetricF1] = 2 * precision * recall / (precision + recall + epsilon)
}

// rankingMetrics computes CTR and precision@K for the recommendations
// family. Each user's item list is truncated to its own top K positions
// before averaging; truncation is per user, never global.
func rankingMetrics(batch []Observation, metrics MetricSet) {
	clicks := 0
	observed := 0
	perUser := make(map[string][]Observation)
	for _, obs := range batch {
		if obs.Clicked == nil {
			continue
		}
		observed++
		if *obs.Clicked {
			clicks++
		}
		perUser[obs.UserID] = append(perUser[obs.UserID], obs)
	}
	if observed == 0 {
		return
	}

	metrics[MetricCTR] = float64(clicks) / float64(observed)

	for user := range perUser {
		items := perUser[user]
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Rank == nil || items[j].Rank == nil {
				return false
			}
			return *items[i].Rank < *items[j].Rank
		})
	}

	metrics[MetricPrecisionAt5] = precisionAtK(perUser, 5)
	metrics[MetricPrecisionAt10] = precisionAtK(perUser, 10)
}

// precisionAtK averages the click indicator over every user's truncated
// top-K list
func precisionAtK(perUser map[string][]Observation, k int) float64 {
	clicks := 0
	considered := 0
	for _, items := range perUser {
		top := items
		if len(top) > k {
			top = top[:k]
		}
		for _, obs := range top {
			considered++
			if *obs.Clicked {
				clicks++
			}
		}
	}
	if considered == 0 {
		return 0
	}
	return float64(clicks) / float64(considered)
}
