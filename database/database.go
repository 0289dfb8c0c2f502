// Package database provides database connection management for the
// mkulimalink model monitoring service.
//
// This package includes:
//   - Database connection management using GORM and PostgreSQL
//   - Typed errors with operation context for all persistence failures
//
// Data Models:
//
//	All data models (ModelPrediction, FeatureSample, MonitoringRecord) are
//	defined in the models_pkg package to avoid circular import dependencies.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "mkulimalink-monitor/database/models_pkg"
)

// Database holds the GORM database connection and provides access to the
// underlying DB instance for the repositories.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance for direct access when needed.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes database connection using GORM
func Connect(host string, port int, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent logging for production
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Type aliases so callers can refer to models through the database package.
type ModelPrediction = models.ModelPrediction
type FeatureSample = models.FeatureSample
type MonitoringRecord = models.MonitoringRecord
