package monitor

import (
	"fmt"
)

// InsufficientDataError means a model's observation window held fewer
// samples than its configured minimum. Metrics are never computed in this
// case; the cycle records an insufficient_data result and moves on.
type InsufficientDataError struct {
	Got  int
	Need int
}

// Error implements the error interface
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d samples, need at least %d", e.Got, e.Need)
}

// EvaluationError wraps any failure computing metrics or drift for one
// model. It is isolated to that model's result and never aborts the cycle.
type EvaluationError struct {
	Model Model
	Err   error
}

// Error implements the error interface
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed for %s: %v", e.Model, e.Err)
}

// Unwrap returns the underlying error
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// TrainingFailure means the external trainer reported an error status for a
// job. The job is requeued with an incremented attempt count.
type TrainingFailure struct {
	Model  Model
	Reason string
}

// Error implements the error interface
func (e *TrainingFailure) Error() string {
	return fmt.Sprintf("retraining failed for %s: %s", e.Model, e.Reason)
}

// MaxAttemptsExceeded is the terminal state for a job that failed retraining
// beyond the configured ceiling. The job is dropped, not requeued.
type MaxAttemptsExceeded struct {
	Model    Model
	Attempts int
}

// Error implements the error interface
func (e *MaxAttemptsExceeded) Error() string {
	return fmt.Sprintf("retraining for %s dropped after %d failed attempts", e.Model, e.Attempts)
}

// MalformedJobError means a queue payload could not be decoded into a
// RetrainingJob. Such payloads are logged and discarded, never executed.
type MalformedJobError struct {
	Reason string
	Err    error
}

// Error implements the error interface
func (e *MalformedJobError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed retraining job: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed retraining job: %s", e.Reason)
}

// Unwrap returns the underlying error
func (e *MalformedJobError) Unwrap() error {
	return e.Err
}
