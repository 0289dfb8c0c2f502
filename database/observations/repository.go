// Package observations reads back served predictions and feature samples for
// the evaluation window of one monitoring cycle.
package observations

import (
	"context"
	"time"

	"mkulimalink-monitor/database"
)

// Repository handles read access to prediction and feature history
type Repository struct {
	db *database.Database
}

// NewRepository creates a new observations repository
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// FetchPredictions returns the prediction/outcome pairs recorded for a model
// within the lookback window, in chronological order. The returned slice is
// owned by the caller; nothing retains it after the call.
func (r *Repository) FetchPredictions(ctx context.Context, modelName string, windowDays int) ([]database.ModelPrediction, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	var rows []database.ModelPrediction
	err := r.db.DB().WithContext(ctx).
		Where("model_name = ? AND created_at >= ?", modelName, since).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, database.WrapDBError("FetchPredictions", err)
	}

	return rows, nil
}

// FetchFeatureWindow returns the recent per-feature sample values for a
// model, keyed by feature name. Used as the "current" side of the drift
// comparison and as the capture source for a missing baseline.
func (r *Repository) FetchFeatureWindow(ctx context.Context, modelName string, windowDays int) (map[string][]float64, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	var rows []database.FeatureSample
	err := r.db.DB().WithContext(ctx).
		Where("model_name = ? AND created_at >= ?", modelName, since).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, database.WrapDBError("FetchFeatureWindow", err)
	}

	window := make(map[string][]float64)
	for _, row := range rows {
		window[row.FeatureName] = append(window[row.FeatureName], row.Value)
	}

	return window, nil
}
