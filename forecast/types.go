// Package forecast turns raw session logs into an hourly demand model and
// produces forward-looking hourly forecasts from the persisted model.
package forecast

import (
	"context"
	"time"
)

// SessionRecord is one usage session as supplied by the data source.
// Only StartTime takes part in aggregation.
type SessionRecord struct {
	ID        string
	StartTime time.Time
	EndTime   *time.Time
}

// HourlyBucket holds the number of sessions started within one hour.
type HourlyBucket struct {
	HourStart    time.Time
	SessionCount int
}

// PredictionPoint is one hour of forecast output.
type PredictionPoint struct {
	Time              time.Time `json:"time"`
	PredictedSessions int       `json:"predicted_sessions"`
}

// TrainedModel is the persisted artifact: a linear model over the
// features of a given schema version plus training metadata.
type TrainedModel struct {
	Coefficients         []float64 `json:"coefficients"`
	Intercept            float64   `json:"intercept"`
	FeatureSchemaVersion string    `json:"feature_schema_version"`
	FeatureNames         []string  `json:"feature_names"`
	TrainedAt            time.Time `json:"trained_at"`
	TrainingSampleCount  int       `json:"training_sample_count"`
	WindowStart          time.Time `json:"window_start"`
	WindowEnd            time.Time `json:"window_end"`
}

// Estimate applies the linear model to a feature vector.
func (m *TrainedModel) Estimate(v FeatureVector) float64 {
	y := m.Intercept
	for i, c := range m.Coefficients {
		y += c * v[i]
	}
	return y
}

// TimeRange bounds a session fetch. A zero To means open-ended.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// SessionSource supplies historical sessions for training.
type SessionSource interface {
	FetchSessions(ctx context.Context, window TimeRange) ([]SessionRecord, error)
}

// ModelStore owns the persisted model artifact. Save must replace the
// current artifact atomically; Load never returns a partially decoded model.
type ModelStore interface {
	Save(ctx context.Context, model *TrainedModel) error
	Load(ctx context.Context) (*TrainedModel, error)
	Exists(ctx context.Context) (bool, error)
}
