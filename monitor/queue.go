package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
)

// retrainingQueueKey is the Redis list backing the durable queue
const retrainingQueueKey = "retraining_queue"

// ListStore is the slice of the Redis client the queue needs. Pushes go to
// the list head and pops come off the tail, so the list behaves as a FIFO.
type ListStore interface {
	LPush(ctx context.Context, key string, payload string) error
	RPop(ctx context.Context, key string) (string, bool, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// RetrainingQueue is the durable FIFO of retraining jobs. Jobs are
// serialized as strict JSON records; a payload that does not decode cleanly
// is discarded with a log line, never evaluated or requeued.
type RetrainingQueue struct {
	store ListStore
}

// NewRetrainingQueue creates a queue over the given list backend
func NewRetrainingQueue(store ListStore) *RetrainingQueue {
	return &RetrainingQueue{store: store}
}

// Enqueue appends a job to the queue tail
func (q *RetrainingQueue) Enqueue(ctx context.Context, job RetrainingJob) error {
	payload, err := encodeJob(job)
	if err != nil {
		return err
	}
	return q.store.LPush(ctx, retrainingQueueKey, payload)
}

// DequeueAll drains the jobs present when the drain started, in FIFO order.
// The count is snapshotted up front so a queue refilled concurrently cannot
// keep the drain alive forever.
func (q *RetrainingQueue) DequeueAll(ctx context.Context) ([]RetrainingJob, error) {
	pending, err := q.store.LLen(ctx, retrainingQueueKey)
	if err != nil {
		return nil, err
	}

	var jobs []RetrainingJob
	for i := int64(0); i < pending; i++ {
		payload, ok, err := q.store.RPop(ctx, retrainingQueueKey)
		if err != nil {
			return jobs, err
		}
		if !ok {
			break
		}

		job, err := decodeJob(payload)
		if err != nil {
			log.Printf("⚠️  Dropping undecodable retraining job: %v", err)
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// Requeue increments the job's attempt count and re-adds it to the queue
// tail for a later retry.
func (q *RetrainingQueue) Requeue(ctx context.Context, job RetrainingJob) error {
	job.Attempts++
	return q.Enqueue(ctx, job)
}

func encodeJob(job RetrainingJob) (string, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeJob is strict on purpose: unknown fields are rejected and the model
// tag is validated, so a corrupted or foreign payload surfaces as a typed
// error instead of flowing into the trainer.
func decodeJob(payload string) (RetrainingJob, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(payload)))
	decoder.DisallowUnknownFields()

	var job RetrainingJob
	if err := decoder.Decode(&job); err != nil {
		return RetrainingJob{}, &MalformedJobError{Reason: "invalid JSON record", Err: err}
	}
	if _, err := ParseModel(string(job.Model)); err != nil {
		return RetrainingJob{}, &MalformedJobError{Reason: "unknown model tag", Err: err}
	}
	if job.Attempts < 0 {
		return RetrainingJob{}, &MalformedJobError{Reason: "negative attempt count"}
	}

	return job, nil
}
