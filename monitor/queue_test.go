package monitor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memList is an in-memory ListStore with Redis list semantics: LPush
// prepends, RPop takes from the end.
type memList struct {
	mu    sync.Mutex
	lists map[string][]string
}

func newMemList() *memList {
	return &memList{lists: make(map[string][]string)}
}

func (m *memList) LPush(_ context.Context, key, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = append([]string{payload}, m.lists[key]...)
	return nil
}

func (m *memList) RPop(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if len(list) == 0 {
		return "", false, nil
	}
	payload := list[len(list)-1]
	m.lists[key] = list[:len(list)-1]
	return payload, true, nil
}

func (m *memList) LLen(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

// refillingList pushes a fresh payload on every pop, simulating a producer
// racing the drain.
type refillingList struct {
	*memList
	refill string
}

func (r *refillingList) RPop(ctx context.Context, key string) (string, bool, error) {
	payload, ok, err := r.memList.RPop(ctx, key)
	if ok {
		_ = r.memList.LPush(ctx, key, r.refill)
	}
	return payload, ok, err
}

func TestQueueFIFO(t *testing.T) {
	queue := NewRetrainingQueue(newMemList())
	ctx := context.Background()

	first := NewRetrainingJob(ModelPricePrediction, []string{"MAPE too high: 22.10%"}, MetricSet{MetricMAPE: 22.1})
	second := NewRetrainingJob(ModelDiseaseDetection, []string{"F1 score too low: 0.41"}, nil)
	third := NewManualJob(ModelRecommendations)

	require.NoError(t, queue.Enqueue(ctx, first))
	require.NoError(t, queue.Enqueue(ctx, second))
	require.NoError(t, queue.Enqueue(ctx, third))

	jobs, err := queue.DequeueAll(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, ModelPricePrediction, jobs[0].Model)
	assert.Equal(t, ModelDiseaseDetection, jobs[1].Model)
	assert.Equal(t, ModelRecommendations, jobs[2].Model)
	assert.Equal(t, first.Issues, jobs[0].Issues)
	assert.True(t, jobs[2].Manual)

	// Queue is now empty
	jobs, err = queue.DequeueAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestQueueRequeueIncrementsAttempts(t *testing.T) {
	queue := NewRetrainingQueue(newMemList())
	ctx := context.Background()

	job := NewRetrainingJob(ModelPricePrediction, []string{"MAPE too high: 30.00%"}, nil)
	require.NoError(t, queue.Enqueue(ctx, job))

	jobs, err := queue.DequeueAll(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 0, jobs[0].Attempts)

	require.NoError(t, queue.Requeue(ctx, jobs[0]))

	jobs, err = queue.DequeueAll(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 1, jobs[0].Attempts)
	assert.Equal(t, job.Issues, jobs[0].Issues)
}

func TestQueueRejectsMalformedPayloads(t *testing.T) {
	store := newMemList()
	queue := NewRetrainingQueue(store)
	ctx := context.Background()

	// A corrupted record, an unknown model, a payload with extra fields, and
	// one good job
	require.NoError(t, store.LPush(ctx, retrainingQueueKey, "{not json"))
	require.NoError(t, store.LPush(ctx, retrainingQueueKey, `{"model":"weather_oracle","issues":[],"triggered_at":"2026-08-30T00:00:00Z","attempts":0}`))
	require.NoError(t, store.LPush(ctx, retrainingQueueKey, `{"model":"price_prediction","issues":[],"triggered_at":"2026-08-30T00:00:00Z","attempts":0,"exec":"rm -rf /"}`))
	require.NoError(t, queue.Enqueue(ctx, NewRetrainingJob(ModelDiseaseDetection, nil, nil)))

	jobs, err := queue.DequeueAll(ctx)
	require.NoError(t, err)

	require.Len(t, jobs, 1)
	assert.Equal(t, ModelDiseaseDetection, jobs[0].Model)
}

func TestQueueDrainSnapshotTerminates(t *testing.T) {
	store := &refillingList{
		memList: newMemList(),
		refill:  `{"model":"price_prediction","issues":["refilled"],"triggered_at":"2026-08-30T00:00:00Z","attempts":0}`,
	}
	queue := NewRetrainingQueue(store)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, NewRetrainingJob(ModelPricePrediction, nil, nil)))
	require.NoError(t, queue.Enqueue(ctx, NewRetrainingJob(ModelRecommendations, nil, nil)))

	// Adversarial refill during drain must not keep the drain alive: only
	// the snapshot taken at drain start is returned.
	jobs, err := queue.DequeueAll(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	pending, err := store.LLen(ctx, retrainingQueueKey)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)
}
