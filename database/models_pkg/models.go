package models

import "time"

// ModelPrediction represents one served prediction together with its observed
// outcome. Rows are written by the serving layer; this service only reads
// them back over a lookback window to score each model family.
//
// Key Fields:
//   - ModelName: which model family produced the prediction (indexed)
//   - PredictedValue/ActualValue: regression pairs (price prediction) or
//     0/1 class labels (disease detection)
//   - Clicked: binary relevance indicator for recommendation items
//   - UserID/Rank: per-user ranked position of a recommended item
//   - CreatedAt: when the prediction was served (indexed)
type ModelPrediction struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ModelName      string    `gorm:"size:40;index;not null" json:"model_name"`
	CreatedAt      time.Time `gorm:"index;not null" json:"created_at"`
	PredictedValue *float64  `gorm:"type:decimal(20,6)" json:"predicted_value,omitempty"`
	ActualValue    *float64  `gorm:"type:decimal(20,6)" json:"actual_value,omitempty"`
	Clicked        *bool     `json:"clicked,omitempty"`
	UserID         string    `gorm:"size:64;index" json:"user_id,omitempty"`
	Rank           *int      `json:"rank,omitempty"`
}

// TableName specifies the table name for ModelPrediction
func (ModelPrediction) TableName() string {
	return "model_predictions"
}

// FeatureSample represents one observed value of one input feature for a
// model. The drift detector compares the recent window of these samples
// against the frozen baseline distribution.
type FeatureSample struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ModelName   string    `gorm:"size:40;index:idx_features_model_time;not null" json:"model_name"`
	FeatureName string    `gorm:"size:64;index;not null" json:"feature_name"`
	Value       float64   `gorm:"type:decimal(20,6);not null" json:"value"`
	CreatedAt   time.Time `gorm:"index:idx_features_model_time;not null" json:"created_at"`
}

// TableName specifies the table name for FeatureSample
func (FeatureSample) TableName() string {
	return "model_features"
}

// MonitoringRecord is an append-only snapshot of one monitoring cycle.
// Results holds the per-model MonitoringResult map serialized as JSON.
// Records are never mutated after write; they feed dashboards and audits.
type MonitoringRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
	Results   string    `gorm:"type:jsonb;not null" json:"results"`
}

// TableName specifies the table name for MonitoringRecord
func (MonitoringRecord) TableName() string {
	return "model_monitoring"
}
