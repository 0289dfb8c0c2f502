package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"mkulimalink-monitor/config"
)

// storeTimeout bounds every observation-store query so a stuck database
// cannot stall the scheduling loop.
const storeTimeout = 30 * time.Second

// ObservationSource fetches prediction history and feature windows
type ObservationSource interface {
	FetchPredictions(ctx context.Context, modelName string, windowDays int) ([]Observation, error)
	FetchFeatureWindow(ctx context.Context, modelName string, windowDays int) (map[string][]float64, error)
}

// RecordSink persists cycle snapshots
type RecordSink interface {
	Append(ctx context.Context, resultsJSON string) error
}

// Trainer is the external training pipeline collaborator: opaque,
// long-running, possibly failing.
type Trainer interface {
	Train(ctx context.Context, model Model) (TrainResult, error)
}

// Notifier delivers human-readable alerts. Delivery failures are logged and
// swallowed at every call site; they never fail the triggering operation.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// ThresholdSource supplies the threshold configuration for a cycle. Reading
// it once per cycle keeps thresholds immutable within a cycle while allowing
// hot reload between cycles.
type ThresholdSource func() config.ThresholdConfig

// Deps collects the scheduler's injected collaborators
type Deps struct {
	Observations ObservationSource
	Records      RecordSink
	Drift        *DriftDetector
	Baselines    *BaselineStore
	Queue        *RetrainingQueue
	Trainer      Trainer
	Notifier     Notifier
	Thresholds   ThresholdSource
	TrainTimeout time.Duration

	// Models overrides the monitored families; defaults to AllModels
	Models []Model
}

// Scheduler is the top-level control loop. Each cycle runs the phases
// Evaluating, Persisting and DrainingQueue to completion, then sleeps for
// the configured interval; an error escaping a cycle's phase-local guards
// puts the loop into a short backoff instead of terminating it.
type Scheduler struct {
	deps Deps
	cfg  config.MonitorConfig
	done chan bool
}

// NewScheduler creates a scheduler over the given collaborators
func NewScheduler(cfg config.MonitorConfig, deps Deps) *Scheduler {
	if len(deps.Models) == 0 {
		deps.Models = AllModels()
	}
	if deps.TrainTimeout <= 0 {
		deps.TrainTimeout = time.Hour
	}
	return &Scheduler{
		deps: deps,
		cfg:  cfg,
		done: make(chan bool),
	}
}

// Start begins the monitoring loop. The interval is measured from the end of
// one cycle to the start of the next. Blocks until Stop is called.
func (s *Scheduler) Start() {
	log.Println("🩺 Model monitoring scheduler started")

	interval := time.Duration(s.cfg.IntervalHours) * time.Hour
	backoff := time.Duration(s.cfg.BackoffSeconds) * time.Second

	for {
		delay := interval
		if err := s.safeCycle(context.Background()); err != nil {
			log.Printf("⚠️  Monitoring cycle error: %v (backing off %s)", err, backoff)
			delay = backoff
		}

		select {
		case <-time.After(delay):
		case <-s.done:
			log.Println("🩺 Model monitoring scheduler stopped")
			return
		}
	}
}

// Stop shuts the loop down gracefully: the cycle in flight completes its
// current phase before the loop exits.
func (s *Scheduler) Stop() {
	s.done <- true
}

// safeCycle converts an escaping panic into a cycle error so the loop backs
// off instead of dying.
func (s *Scheduler) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("monitoring cycle panic: %v", r)
		}
	}()
	return s.RunCycle(ctx)
}

// RunCycle executes one full monitoring cycle: evaluate every model, persist
// the aggregated record, then drain the retraining queue. Exposed for the
// manual-trigger path and tests.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	log.Println("🩺 Starting monitoring cycle")
	thresholds := s.deps.Thresholds()

	results := s.evaluateAll(ctx, thresholds)
	s.persistResults(ctx, results)

	if err := s.drainQueue(ctx); err != nil {
		return err
	}

	log.Println("🩺 Monitoring cycle completed")
	return nil
}

// TriggerRetraining enqueues a manual retraining job for a model,
// bypassing threshold evaluation.
func (s *Scheduler) TriggerRetraining(ctx context.Context, model Model) error {
	if _, err := ParseModel(string(model)); err != nil {
		return err
	}
	log.Printf("🛠️  Manual retraining trigger for %s", model)
	return s.deps.Queue.Enqueue(ctx, NewManualJob(model))
}

// evaluateAll runs every model's evaluation concurrently. Each model writes
// only its own result slot; a failure in one model never aborts the others.
func (s *Scheduler) evaluateAll(ctx context.Context, thresholds config.ThresholdConfig) map[Model]MonitoringResult {
	slots := make([]MonitoringResult, len(s.deps.Models))

	var wg sync.WaitGroup
	for i, model := range s.deps.Models {
		wg.Add(1)
		go func(i int, model Model) {
			defer wg.Done()
			slots[i] = s.evaluateModel(ctx, model, thresholdsFor(model, thresholds))
		}(i, model)
	}
	wg.Wait()

	results := make(map[Model]MonitoringResult, len(s.deps.Models))
	for i, model := range s.deps.Models {
		results[model] = slots[i]
	}

	// Producer side of the queue: enqueue after evaluation so job order
	// follows model registration order.
	for _, model := range s.deps.Models {
		result := results[model]
		if !result.NeedsRetraining {
			continue
		}
		log.Printf("⚠️  Model %s needs retraining: %s", model, strings.Join(result.Issues, "; "))
		s.notify(ctx,
			fmt.Sprintf("Model Retraining Required: %s", model),
			fmt.Sprintf("Issues detected: %s", strings.Join(result.Issues, ", ")))
		if err := s.deps.Queue.Enqueue(ctx, NewRetrainingJob(model, result.Issues, result.Metrics)); err != nil {
			log.Printf("⚠️  Failed to enqueue retraining job for %s: %v", model, err)
		}
	}

	return results
}

// evaluateModel monitors a single model. Any error or panic is converted
// into an errored result for this model only.
func (s *Scheduler) evaluateModel(ctx context.Context, model Model, thresholds config.Thresholds) (result MonitoringResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  Evaluation panic for %s: %v", model, r)
			result = MonitoringResult{Status: StatusError, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	batch, err := s.deps.Observations.FetchPredictions(fetchCtx, string(model), s.cfg.WindowDays)
	if err != nil {
		return s.erroredResult(model, err)
	}

	metrics, err := Evaluate(model, batch, thresholds)
	var insufficient *InsufficientDataError
	if errors.As(err, &insufficient) {
		log.Printf("🩺 %s: %v", model, err)
		return MonitoringResult{
			Status:      StatusInsufficientData,
			SampleCount: insufficient.Got,
			Issues:      []string{},
		}
	}
	if err != nil {
		return s.erroredResult(model, err)
	}

	issues, unmeasured := CheckThresholds(model, metrics, thresholds)
	if len(unmeasured) > 0 {
		log.Printf("⚠️  %s: metrics passing unmeasured this cycle: %s", model, strings.Join(unmeasured, ", "))
	}

	window, err := s.deps.Observations.FetchFeatureWindow(fetchCtx, string(model), s.cfg.WindowDays)
	if err != nil {
		return s.erroredResult(model, err)
	}
	driftIssues, err := s.deps.Drift.CheckDrift(fetchCtx, model, window, thresholds)
	if err != nil {
		return s.erroredResult(model, err)
	}
	issues = append(issues, driftIssues...)

	if issues == nil {
		issues = []string{}
	}
	return MonitoringResult{
		Status:          StatusCompleted,
		SampleCount:     len(batch),
		Metrics:         metrics,
		Issues:          issues,
		Unmeasured:      unmeasured,
		NeedsRetraining: len(issues) > 0,
	}
}

func (s *Scheduler) erroredResult(model Model, err error) MonitoringResult {
	evalErr := &EvaluationError{Model: model, Err: err}
	log.Printf("⚠️  %v", evalErr)
	return MonitoringResult{Status: StatusError, Error: err.Error(), Issues: []string{}}
}

// persistResults appends the cycle snapshot. A persistence failure is
// logged; the cycle still proceeds to drain the queue.
func (s *Scheduler) persistResults(ctx context.Context, results map[Model]MonitoringResult) {
	data, err := json.Marshal(results)
	if err != nil {
		log.Printf("⚠️  Failed to serialize monitoring results: %v", err)
		return
	}

	persistCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.deps.Records.Append(persistCtx, string(data)); err != nil {
		log.Printf("⚠️  Failed to store monitoring results: %v", err)
		return
	}
	log.Println("💾 Monitoring results stored")
}

// drainQueue processes the jobs queued at drain start. Per-job failures are
// handled locally; only a queue infrastructure failure escapes as a cycle
// error.
func (s *Scheduler) drainQueue(ctx context.Context) error {
	jobs, err := s.deps.Queue.DequeueAll(ctx)
	if err != nil {
		return fmt.Errorf("drain retraining queue: %w", err)
	}

	for _, job := range jobs {
		s.processJob(ctx, job)
	}

	return nil
}

// processJob invokes the trainer for one dequeued job. The invocation is
// time-boxed; a stuck trainer counts as a failure and the job is requeued.
// The job always ends this call either completed, requeued, or dropped at
// the attempt ceiling.
func (s *Scheduler) processJob(ctx context.Context, job RetrainingJob) {
	log.Printf("🛠️  Processing retraining job for %s (attempt %d/%d)", job.Model, job.Attempts+1, s.cfg.MaxRetrainAttempts)

	trainCtx, cancel := context.WithTimeout(ctx, s.deps.TrainTimeout)
	result, err := s.deps.Trainer.Train(trainCtx, job.Model)
	cancel()

	if err == nil && result.Status == TrainStatusSuccess {
		log.Printf("✅ Retraining completed for %s", job.Model)
		s.notify(ctx,
			fmt.Sprintf("Model Retrained Successfully: %s", job.Model),
			fmt.Sprintf("Retraining completed with metrics: %s", formatMetrics(result.Metrics)))
		s.resetBaselineAfterRetrain(ctx, job.Model)
		return
	}

	reason := result.Error
	if err != nil {
		reason = err.Error()
	}
	if reason == "" {
		reason = "unknown error"
	}
	failure := &TrainingFailure{Model: job.Model, Reason: reason}
	log.Printf("⚠️  %v", failure)

	if job.Attempts+1 >= s.cfg.MaxRetrainAttempts {
		terminal := &MaxAttemptsExceeded{Model: job.Model, Attempts: job.Attempts + 1}
		log.Printf("🛑 %v", terminal)
		s.notify(ctx,
			fmt.Sprintf("Model Retraining Abandoned: %s", job.Model),
			fmt.Sprintf("Dropped after %d failed attempts. Last error: %s", terminal.Attempts, reason))
		return
	}

	if err := s.deps.Queue.Requeue(ctx, job); err != nil {
		log.Printf("⚠️  Failed to requeue retraining job for %s: %v", job.Model, err)
	}
	s.notify(ctx,
		fmt.Sprintf("Model Retraining Failed: %s", job.Model),
		fmt.Sprintf("Error: %s", reason))
}

// resetBaselineAfterRetrain recaptures the drift baseline on the next cycle
// when the operator opted in. This is the one sanctioned path that discards
// a baseline.
func (s *Scheduler) resetBaselineAfterRetrain(ctx context.Context, model Model) {
	if !s.cfg.ResetBaselineOnRetrain {
		return
	}
	if err := s.deps.Baselines.Reset(ctx, model); err != nil {
		log.Printf("⚠️  Failed to reset baseline for %s: %v", model, err)
		return
	}
	log.Printf("📌 Baseline for %s reset; next cycle recaptures it", model)
}

// notify delivers an alert, logging and swallowing transport failures
func (s *Scheduler) notify(ctx context.Context, subject, body string) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Notify(ctx, subject, body); err != nil {
		log.Printf("⚠️  Failed to send alert %q: %v", subject, err)
	}
}

// thresholdsFor selects the per-family thresholds from the cycle's config
func thresholdsFor(model Model, tc config.ThresholdConfig) config.Thresholds {
	switch model {
	case ModelPricePrediction:
		return tc.PricePrediction
	case ModelDiseaseDetection:
		return tc.DiseaseDetection
	case ModelRecommendations:
		return tc.Recommendations
	}
	return config.Thresholds{}
}

func formatMetrics(metrics map[string]float64) string {
	if len(metrics) == 0 {
		return "none reported"
	}
	data, err := json.Marshal(metrics)
	if err != nil {
		return "none reported"
	}
	return string(data)
}

// StaticThresholds wraps a fixed threshold config as a ThresholdSource
func StaticThresholds(tc config.ThresholdConfig) ThresholdSource {
	return func() config.ThresholdConfig { return tc }
}
