// Package monitoring persists the append-only record of monitoring cycles.
package monitoring

import (
	"context"
	"time"

	"mkulimalink-monitor/database"
	models "mkulimalink-monitor/database/models_pkg"
)

// Repository handles database operations for monitoring records
type Repository struct {
	db *database.Database
}

// NewRepository creates a new monitoring repository
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// InitSchema performs auto-migration for all monitored tables
func (r *Repository) InitSchema() error {
	err := r.db.DB().AutoMigrate(
		&models.ModelPrediction{},
		&models.FeatureSample{},
		&models.MonitoringRecord{},
	)
	return database.WrapDBError("InitSchema", err)
}

// Append writes one cycle snapshot. Records are append-only and never
// updated after this call.
func (r *Repository) Append(ctx context.Context, resultsJSON string) error {
	record := database.MonitoringRecord{
		CreatedAt: time.Now(),
		Results:   resultsJSON,
	}

	err := r.db.DB().WithContext(ctx).Create(&record).Error
	return database.WrapDBError("AppendMonitoringRecord", err)
}

// ListRecent returns the most recent cycle snapshots, newest first. Feeds
// the monitoring dashboard and audits.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]database.MonitoringRecord, error) {
	var records []database.MonitoringRecord
	err := r.db.DB().WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, database.WrapDBError("ListRecentMonitoring", err)
	}

	return records, nil
}
