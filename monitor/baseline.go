package monitor

import (
	"context"
	"fmt"
	"time"

	"mkulimalink-monitor/cache"
)

// FeatureBaseline is the frozen reference distribution drift is measured
// against: per-feature sample values captured once per model. Raw samples
// are kept (not precomputed densities) because PSI bin edges depend on the
// min/max of both distributions, which is unknowable at capture time.
type FeatureBaseline struct {
	CapturedAt time.Time            `json:"captured_at"`
	Features   map[string][]float64 `json:"features"`
}

// KeyValueStore is the slice of the Redis client the baseline store needs
type KeyValueStore interface {
	SetNX(ctx context.Context, key string, value interface{}) (bool, error)
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

// BaselineStore owns the per-model feature baselines. A baseline is created
// lazily on first observation and never silently overwritten; Reset is the
// explicit operator action that discards one.
type BaselineStore struct {
	kv KeyValueStore
}

// NewBaselineStore creates a baseline store over the given key-value backend
func NewBaselineStore(kv KeyValueStore) *BaselineStore {
	return &BaselineStore{kv: kv}
}

func baselineKey(model Model) string {
	return fmt.Sprintf("baseline_features:%s", model)
}

// Get loads the baseline for a model. found is false when none exists yet.
func (s *BaselineStore) Get(ctx context.Context, model Model) (*FeatureBaseline, bool, error) {
	var baseline FeatureBaseline
	err := s.kv.Get(ctx, baselineKey(model), &baseline)
	if cache.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &baseline, true, nil
}

// CreateIfAbsent captures a baseline from the given feature window if and
// only if the model has none. The check-then-set is atomic (SetNX); under
// concurrent evaluation of the same model exactly one capture wins.
func (s *BaselineStore) CreateIfAbsent(ctx context.Context, model Model, features map[string][]float64) (bool, error) {
	baseline := FeatureBaseline{
		CapturedAt: time.Now(),
		Features:   features,
	}
	return s.kv.SetNX(ctx, baselineKey(model), baseline)
}

// Reset discards the stored baseline so the next cycle recaptures one.
// Operator action only, typically after a successful retrain.
func (s *BaselineStore) Reset(ctx context.Context, model Model) error {
	return s.kv.Delete(ctx, baselineKey(model))
}
