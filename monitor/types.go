// Package monitor implements performance and drift monitoring for the
// deployed prediction models, and drives automatic retraining when a model
// degrades past its configured thresholds.
package monitor

import (
	"fmt"
	"time"
)

// Model identifies one monitored model family. It selects which metric,
// threshold and drift logic applies, and is fixed at registration.
type Model string

const (
	ModelPricePrediction  Model = "price_prediction"
	ModelDiseaseDetection Model = "disease_detection"
	ModelRecommendations  Model = "recommendations"
)

// AllModels returns every registered model family in evaluation order
func AllModels() []Model {
	return []Model{ModelPricePrediction, ModelDiseaseDetection, ModelRecommendations}
}

// ParseModel validates a model tag coming off the wire
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case ModelPricePrediction, ModelDiseaseDetection, ModelRecommendations:
		return Model(s), nil
	}
	return "", fmt.Errorf("unknown model %q", s)
}

// Metric names produced by the evaluator. A name absent from a MetricSet
// means the metric could not be measured this cycle.
const (
	MetricSampleCount         = "sample_count"
	MetricMAPE                = "mape"
	MetricRMSE                = "rmse"
	MetricDirectionalAccuracy = "directional_accuracy"
	MetricAccuracy            = "accuracy"
	MetricPrecision           = "precision"
	MetricRecall              = "recall"
	MetricF1                  = "f1_score"
	MetricCTR                 = "ctr"
	MetricPrecisionAt5        = "precision_at_5"
	MetricPrecisionAt10       = "precision_at_10"
)

// MetricSet maps metric name to computed value for one evaluation.
// Always contains sample_count. Never mutated after creation.
type MetricSet map[string]float64

// Status classifies the outcome of monitoring one model for one cycle
type Status string

const (
	StatusCompleted        Status = "completed"
	StatusInsufficientData Status = "insufficient_data"
	StatusError            Status = "error"
)

// MonitoringResult aggregates the findings for one model in one cycle.
// NeedsRetraining is true exactly when Issues is non-empty.
type MonitoringResult struct {
	Status          Status    `json:"status"`
	SampleCount     int       `json:"sample_count"`
	Metrics         MetricSet `json:"metrics,omitempty"`
	Issues          []string  `json:"issues"`
	Unmeasured      []string  `json:"unmeasured,omitempty"`
	NeedsRetraining bool      `json:"needs_retraining"`
	Error           string    `json:"error,omitempty"`
}

// RetrainingJob is the unit of work on the retraining queue. Attempts counts
// failed processing runs; it is the only field ever mutated, and only by
// Requeue.
type RetrainingJob struct {
	Model       Model     `json:"model"`
	Issues      []string  `json:"issues"`
	Metrics     MetricSet `json:"metrics,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
	Attempts    int       `json:"attempts"`
	Manual      bool      `json:"manual,omitempty"`
}

// NewRetrainingJob creates a job from a degraded monitoring result
func NewRetrainingJob(model Model, issues []string, metrics MetricSet) RetrainingJob {
	return RetrainingJob{
		Model:       model,
		Issues:      issues,
		Metrics:     metrics,
		TriggeredAt: time.Now(),
	}
}

// NewManualJob creates an operator-triggered job with no associated findings
func NewManualJob(model Model) RetrainingJob {
	return RetrainingJob{
		Model:       model,
		Issues:      []string{"manual retraining trigger"},
		TriggeredAt: time.Now(),
		Manual:      true,
	}
}

// TrainResult is the outcome reported by the external training pipeline
type TrainResult struct {
	Status  string             `json:"status"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Train status values reported by the pipeline service
const (
	TrainStatusSuccess = "success"
	TrainStatusError   = "error"
)
