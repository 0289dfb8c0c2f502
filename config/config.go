package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// Monitoring configuration
	Monitor MonitorConfig

	// Per-model thresholds
	Thresholds ThresholdConfig

	// Alerting configuration
	Alerts AlertConfig

	// ML pipeline service configuration
	Pipeline PipelineConfig
}

// MonitorConfig holds scheduling parameters for the monitoring loop
type MonitorConfig struct {
	IntervalHours          int
	BackoffSeconds         int
	WindowDays             int
	DriftBins              int
	MaxRetrainAttempts     int
	ResetBaselineOnRetrain bool
}

// Thresholds holds the numeric limits for one monitored model family.
// Zero-valued limits that do not apply to a family are simply never checked.
type Thresholds struct {
	MaxMAPE                float64 // percent
	MinDirectionalAccuracy float64 // percent
	MinAccuracy            float64
	MinF1                  float64
	MinPrecisionAt5        float64
	MinCTR                 float64
	MinSamples             int
	DriftThreshold         float64
}

// ThresholdConfig holds thresholds for every monitored model family
type ThresholdConfig struct {
	PricePrediction  Thresholds
	DiseaseDetection Thresholds
	Recommendations  Thresholds
}

// AlertConfig holds notification transport configuration
type AlertConfig struct {
	SMTPServer      string
	SMTPPort        string
	SenderEmail     string
	SenderPassword  string
	AlertRecipients []string
	WebhookURL      string
	WebhookToken    string
}

// PipelineConfig holds the external ML pipeline service endpoint
type PipelineConfig struct {
	URL                 string
	TrainTimeoutMinutes int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "mkulimalink_ml"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "mkulimalink"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "mkulimalink123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		Monitor: MonitorConfig{
			IntervalHours:          getEnvInt("MONITOR_INTERVAL_HOURS", 6),
			BackoffSeconds:         getEnvInt("MONITOR_BACKOFF_SECONDS", 60),
			WindowDays:             getEnvInt("MONITOR_WINDOW_DAYS", 7),
			DriftBins:              getEnvInt("DRIFT_BINS", 10),
			MaxRetrainAttempts:     getEnvInt("MAX_RETRAIN_ATTEMPTS", 3),
			ResetBaselineOnRetrain: getEnvOrDefault("RESET_BASELINE_ON_RETRAIN", "false") == "true",
		},

		Thresholds: ThresholdConfig{
			PricePrediction: Thresholds{
				MaxMAPE:                getEnvFloat("PRICE_MAPE_THRESHOLD", 15.0),
				MinDirectionalAccuracy: getEnvFloat("PRICE_MIN_DIRECTIONAL", 60.0),
				MinSamples:             getEnvInt("PRICE_MIN_SAMPLES", 1000),
				DriftThreshold:         getEnvFloat("PRICE_DRIFT_THRESHOLD", 0.1),
			},
			DiseaseDetection: Thresholds{
				MinAccuracy:    getEnvFloat("DISEASE_ACCURACY_THRESHOLD", 0.85),
				MinF1:          getEnvFloat("DISEASE_MIN_F1", 0.7),
				MinSamples:     getEnvInt("DISEASE_MIN_SAMPLES", 500),
				DriftThreshold: getEnvFloat("DISEASE_DRIFT_THRESHOLD", 0.1),
			},
			Recommendations: Thresholds{
				MinPrecisionAt5: getEnvFloat("RECO_PRECISION_THRESHOLD", 0.7),
				MinCTR:          getEnvFloat("RECO_MIN_CTR", 0.05),
				MinSamples:      getEnvInt("RECO_MIN_SAMPLES", 1000),
				DriftThreshold:  getEnvFloat("RECO_DRIFT_THRESHOLD", 0.1),
			},
		},

		Alerts: AlertConfig{
			SMTPServer:      getEnvOrDefault("SMTP_SERVER", "smtp.gmail.com"),
			SMTPPort:        getEnvOrDefault("SMTP_PORT", "587"),
			SenderEmail:     os.Getenv("SENDER_EMAIL"),
			SenderPassword:  os.Getenv("SENDER_PASSWORD"),
			AlertRecipients: splitRecipients(os.Getenv("ALERT_RECIPIENTS")),
			WebhookURL:      os.Getenv("ALERT_WEBHOOK_URL"),
			WebhookToken:    os.Getenv("ALERT_WEBHOOK_TOKEN"),
		},

		Pipeline: PipelineConfig{
			URL:                 getEnvOrDefault("PIPELINE_URL", "http://localhost:8500"),
			TrainTimeoutMinutes: getEnvInt("TRAIN_TIMEOUT_MINUTES", 60),
		},
	}
}

// Validate checks the configuration for values that would silently break
// monitoring. Fails fast at startup instead of letting a bad threshold pass
// every check.
func (c *Config) Validate() error {
	if c.Monitor.IntervalHours <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL_HOURS must be positive, got %d", c.Monitor.IntervalHours)
	}
	if c.Monitor.BackoffSeconds <= 0 {
		return fmt.Errorf("MONITOR_BACKOFF_SECONDS must be positive, got %d", c.Monitor.BackoffSeconds)
	}
	if c.Monitor.WindowDays <= 0 {
		return fmt.Errorf("MONITOR_WINDOW_DAYS must be positive, got %d", c.Monitor.WindowDays)
	}
	if c.Monitor.DriftBins < 1 {
		return fmt.Errorf("DRIFT_BINS must be at least 1, got %d", c.Monitor.DriftBins)
	}
	if c.Monitor.MaxRetrainAttempts < 1 {
		return fmt.Errorf("MAX_RETRAIN_ATTEMPTS must be at least 1, got %d", c.Monitor.MaxRetrainAttempts)
	}

	for name, t := range map[string]Thresholds{
		"price_prediction":  c.Thresholds.PricePrediction,
		"disease_detection": c.Thresholds.DiseaseDetection,
		"recommendations":   c.Thresholds.Recommendations,
	} {
		if t.MinSamples < 1 {
			return fmt.Errorf("min samples for %s must be at least 1, got %d", name, t.MinSamples)
		}
		if t.DriftThreshold <= 0 {
			return fmt.Errorf("drift threshold for %s must be positive, got %f", name, t.DriftThreshold)
		}
	}

	return nil
}

// splitRecipients parses a comma-separated recipient list, dropping empties
func splitRecipients(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	recipients := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			recipients = append(recipients, p)
		}
	}
	return recipients
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
