package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkulimalink-monitor/config"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
func intPtr(v int) *int           { return &v }

// regressionBatch builds ordered price observations from actual/predicted pairs
func regressionBatch(actual, predicted []float64) []Observation {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	batch := make([]Observation, len(actual))
	for i := range actual {
		batch[i] = Observation{
			ModelName:      string(ModelPricePrediction),
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
			ActualValue:    floatPtr(actual[i]),
			PredictedValue: floatPtr(predicted[i]),
		}
	}
	return batch
}

func classificationBatch(actual, predicted []float64) []Observation {
	batch := make([]Observation, len(actual))
	for i := range actual {
		batch[i] = Observation{
			ModelName:      string(ModelDiseaseDetection),
			ActualValue:    floatPtr(actual[i]),
			PredictedValue: floatPtr(predicted[i]),
		}
	}
	return batch
}

func TestEvaluateInsufficientData(t *testing.T) {
	batch := regressionBatch([]float64{100, 102}, []float64{100, 101})

	metrics, err := Evaluate(ModelPricePrediction, batch, config.Thresholds{MinSamples: 500})

	require.Error(t, err)
	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2, insufficient.Got)
	assert.Equal(t, 500, insufficient.Need)
	// No partial metrics on too-small samples
	assert.Nil(t, metrics)
}

func TestEvaluateRegressionMetrics(t *testing.T) {
	// actual=[100,102,104] predicted=[100,101,108]
	batch := regressionBatch([]float64{100, 102, 104}, []float64{100, 101, 108})

	metrics, err := Evaluate(ModelPricePrediction, batch, config.Thresholds{MinSamples: 1})
	require.NoError(t, err)

	// MAPE = mean(0/100, 1/102, 4/104) * 100
	assert.InDelta(t, 1.6088, metrics[MetricMAPE], 0.001)
	// RMSE = sqrt((0 + 1 + 16) / 3)
	assert.InDelta(t, 2.3805, metrics[MetricRMSE], 0.001)
	// Both series move up on both adjacent pairs
	assert.InDelta(t, 100.0, metrics[MetricDirectionalAccuracy], 0.0001)
	assert.Equal(t, 3.0, metrics[MetricSampleCount])
}

func TestEvaluateRegressionDirectionalDisagreement(t *testing.T) {
	// actual falls then rises; predicted rises then rises
	batch := regressionBatch([]float64{100, 98, 104}, []float64{100, 101, 103})

	metrics, err := Evaluate(ModelPricePrediction, batch, config.Thresholds{MinSamples: 1})
	require.NoError(t, err)

	assert.InDelta(t, 50.0, metrics[MetricDirectionalAccuracy], 0.0001)
}

func TestEvaluateRegressionSingleObservation(t *testing.T) {
	batch := regressionBatch([]float64{100}, []float64{90})

	metrics, err := Evaluate(ModelPricePrediction, batch, config.Thresholds{MinSamples: 1})
	require.NoError(t, err)

	// One observation yields zero adjacent pairs: the metric is absent, not 0/0
	_, measured := metrics[MetricDirectionalAccuracy]
	assert.False(t, measured)
	assert.InDelta(t, 10.0, metrics[MetricMAPE], 0.001)
}

func TestEvaluateRegressionMissingColumns(t *testing.T) {
	batch := []Observation{
		{ModelName: string(ModelPricePrediction)},
		{ModelName: string(ModelPricePrediction)},
	}

	metrics, err := Evaluate(ModelPricePrediction, batch, config.Thresholds{MinSamples: 1})
	require.NoError(t, err)

	// Upstream fields missing entirely: only sample_count is measured
	assert.Equal(t, MetricSet{MetricSampleCount: 2}, metrics)
}

func TestEvaluateClassificationMetrics(t *testing.T) {
	// tp=2 fp=1 fn=1 tn=2
	actual := []float64{1, 1, 1, 0, 0, 0}
	predicted := []float64{1, 1, 0, 1, 0, 0}

	metrics, err := Evaluate(ModelDiseaseDetection, classificationBatch(actual, predicted), config.Thresholds{MinSamples: 1})
	require.NoError(t, err)

	assert.InDelta(t, 4.0/6.0, metrics[MetricAccuracy], 0.0001)
	assert.InDelta(t, 2.0/3.0, metrics[MetricPrecision], 0.001)
	assert.InDelta(t, 2.0/3.0, metrics[MetricRecall], 0.001)
	assert.InDelta(t, 2.0/3.0, metrics[MetricF1], 0.001)
}

func TestEvaluateClassificationNoTruePositives(t *testing.T) {
	// Zero true positives with actual positives present: epsilon guards the
	// denominators, so precision/recall/F1 floor near zero instead of failing
	actual := []float64{1, 1, 0, 0}
	predicted := []float64{0, 0, 0, 0}

	metrics, err := Evaluate(ModelDiseaseDetection, classificationBatch(actual, predicted), config.Thresholds{MinSamples: 1})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, metrics[MetricPrecision], 1e-6)
	assert.InDelta(t, 0.0, metrics[MetricRecall], 1e-6)
	assert.InDelta(t, 0.0, metrics[MetricF1], 1e-6)
	assert.InDelta(t, 0.5, metrics[MetricAccuracy], 0.0001)
}

func TestEvaluateRankingMetrics(t *testing.T) {
	var batch []Observation
	// User A: 7 ranked items, clicks at ranks 1, 2 and 6
	for rank := 1; rank <= 7; rank++ {
		clicked := rank == 1 || rank == 2 || rank == 6
		batch = append(batch, Observation{
			ModelName: string(ModelRecommendations),
			UserID:    "farmer-a",
			Rank:      intPtr(rank),
			Clicked:   boolPtr(clicked),
		})
	}
	// User B: 3 ranked items, one click
	for rank := 1; rank <= 3; rank++ {
		batch = append(batch, Observation{
			ModelName: string(ModelRecommendations),
			UserID:    "farmer-b",
			Rank:      intPtr(rank),
			Clicked:   boolPtr(rank == 2),
		})
	}

	metrics, err := Evaluate(ModelRecommendations, batch, config.Thresholds{MinSamples: 1})
	require.NoError(t, err)

	// 4 clicks over 10 observed items
	assert.InDelta(t, 0.4, metrics[MetricCTR], 0.0001)
	// Per-user truncation: A contributes its top 5 (2 clicks), B all 3 (1 click)
	assert.InDelta(t, 3.0/8.0, metrics[MetricPrecisionAt5], 0.0001)
	// At K=10 no user list is truncated
	assert.InDelta(t, 0.4, metrics[MetricPrecisionAt10], 0.0001)
}

func TestEvaluateUnknownModel(t *testing.T) {
	_, err := Evaluate(Model("weather_oracle"), []Observation{{}}, config.Thresholds{MinSamples: 1})
	require.Error(t, err)
}
