package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"mkulimalink-monitor/cache"
	"mkulimalink-monitor/config"
	"mkulimalink-monitor/database"
	"mkulimalink-monitor/database/monitoring"
	"mkulimalink-monitor/database/observations"
	"mkulimalink-monitor/monitor"
	"mkulimalink-monitor/notifications"
	"mkulimalink-monitor/trainer"
)

// App represents the main application
type App struct {
	config    *config.Config
	db        *database.Database
	redis     *cache.RedisClient
	scheduler *monitor.Scheduler
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
	}
}

// Start wires the collaborators, runs the monitoring scheduler, and blocks
// until a termination signal arrives.
func (a *App) Start() error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// 1. Database connection
	log.Println("🗄️  Connecting to database...")
	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid database port: %w", err)
	}
	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	// 2. Redis connection
	log.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)
	if redisClient == nil {
		return fmt.Errorf("redis connection failed")
	}
	a.redis = redisClient

	// 3. Repositories and schema
	monitoringRepo := monitoring.NewRepository(db)
	if err := monitoringRepo.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	observationRepo := observations.NewRepository(db)

	// 4. Monitoring collaborators
	baselines := monitor.NewBaselineStore(redisClient)
	drift := monitor.NewDriftDetector(baselines, a.config.Monitor.DriftBins)
	queue := monitor.NewRetrainingQueue(redisClient)
	pipeline := trainer.NewClient(a.config.Pipeline.URL)
	notifier := a.buildNotifier()

	a.scheduler = monitor.NewScheduler(a.config.Monitor, monitor.Deps{
		Observations: observationRepo,
		Records:      monitoringRepo,
		Drift:        drift,
		Baselines:    baselines,
		Queue:        queue,
		Trainer:      pipeline,
		Notifier:     notifier,
		Thresholds:   a.reloadThresholds,
		TrainTimeout: time.Duration(a.config.Pipeline.TrainTimeoutMinutes) * time.Minute,
	})

	go a.scheduler.Start()
	log.Println("🚀 MkulimaLink model monitor running")

	// 5. Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Println("👋 Shutting down...")
	a.scheduler.Stop()

	if err := a.redis.Close(); err != nil {
		log.Printf("⚠️  Failed to close Redis connection: %v", err)
	}
	if err := a.db.Close(); err != nil {
		log.Printf("⚠️  Failed to close database connection: %v", err)
	}

	return nil
}

// TriggerRetraining lets an operator queue a retraining job manually
func (a *App) TriggerRetraining(ctx context.Context, model monitor.Model) error {
	if a.scheduler == nil {
		return fmt.Errorf("scheduler not started")
	}
	return a.scheduler.TriggerRetraining(ctx, model)
}

// reloadThresholds re-reads threshold overrides from the environment at the
// start of each cycle, so operators can tune limits without a restart.
// Thresholds stay immutable within a cycle.
func (a *App) reloadThresholds() config.ThresholdConfig {
	return config.LoadFromEnv().Thresholds
}

// buildNotifier assembles the alert fan-out from the configured transports
func (a *App) buildNotifier() monitor.Notifier {
	transports := []notifications.Notifier{
		notifications.NewEmailNotifier(a.config.Alerts),
	}
	if a.config.Alerts.WebhookURL != "" {
		transports = append(transports, notifications.NewWebhookNotifier(
			a.config.Alerts.WebhookURL,
			a.config.Alerts.WebhookToken,
		))
	}
	return notifications.NewMultiNotifier(transports...)
}
