package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"cybercafe-demand-api/logging"
	"cybercafe-demand-api/metrics"
)

const (
	// MinTrainingBuckets is the absolute floor on training history: one day.
	MinTrainingBuckets = 24
	// DefaultMaxHorizonHours caps a single forecast request at one week.
	DefaultMaxHorizonHours = 168
)

// Config holds the tunable training and inference limits.
type Config struct {
	// MinBuckets raises the training floor above MinTrainingBuckets and
	// twice the feature count. Lower values are ignored.
	MinBuckets      int
	MaxHorizonHours int
}

// Forecaster trains demand models and serves forecasts from the artifact
// held by its ModelStore. It keeps no model in memory between calls.
type Forecaster struct {
	cfg      Config
	store    ModelStore
	features FeatureBuilder
	fitter   Fitter
	now      func() time.Time
}

func NewForecaster(cfg Config, store ModelStore, features FeatureBuilder, fitter Fitter) *Forecaster {
	if cfg.MaxHorizonHours <= 0 {
		cfg.MaxHorizonHours = DefaultMaxHorizonHours
	}
	if fitter == nil {
		fitter = OLS{}
	}
	return &Forecaster{
		cfg:      cfg,
		store:    store,
		features: features,
		fitter:   fitter,
		now:      time.Now,
	}
}

// MinBuckets returns the number of hourly buckets a retrain requires.
func (f *Forecaster) MinBuckets() int {
	return max(MinTrainingBuckets, 2*len(f.features.Schema().Names), f.cfg.MinBuckets)
}

// MaxHorizonHours returns the largest horizon Predict accepts.
func (f *Forecaster) MaxHorizonHours() int {
	return f.cfg.MaxHorizonHours
}

// RetrainFrom fetches sessions from src once and retrains on them.
func (f *Forecaster) RetrainFrom(ctx context.Context, src SessionSource, window TimeRange) (*TrainedModel, error) {
	sessions, err := src.FetchSessions(ctx, window)
	if err != nil {
		metrics.RetrainsFailed.WithLabelValues(Reason(ErrDataUnavailable)).Inc()
		if errors.Is(err, ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	logging.Ctx(ctx).Info().Int("sessions", len(sessions)).Msg("historical sessions fetched")
	return f.Retrain(ctx, sessions)
}

// Retrain fits a new model on sessions and makes it the current artifact.
// On failure the previous artifact stays current.
func (f *Forecaster) Retrain(ctx context.Context, sessions []SessionRecord) (*TrainedModel, error) {
	start := time.Now()
	model, err := f.train(ctx, sessions)
	if err != nil {
		metrics.RetrainsFailed.WithLabelValues(Reason(err)).Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("demand model retrain failed")
		return nil, err
	}

	metrics.RetrainsTotal.Inc()
	metrics.TrainingSamples.Set(float64(model.TrainingSampleCount))
	metrics.RetrainDuration.Observe(time.Since(start).Seconds())
	logging.Ctx(ctx).Info().
		Int("samples", model.TrainingSampleCount).
		Str("schema", model.FeatureSchemaVersion).
		Time("window_start", model.WindowStart).
		Time("window_end", model.WindowEnd).
		Msg("demand model retrained")
	return model, nil
}

func (f *Forecaster) train(ctx context.Context, sessions []SessionRecord) (*TrainedModel, error) {
	buckets, err := Aggregate(sessions)
	if err != nil {
		return nil, err
	}
	if minBuckets := f.MinBuckets(); len(buckets) < minBuckets {
		return nil, fmt.Errorf("%w: %d hourly buckets, need at least %d", ErrInsufficientData, len(buckets), minBuckets)
	}

	schema := f.features.Schema()
	x := make([]FeatureVector, len(buckets))
	y := make([]float64, len(buckets))
	for i, b := range buckets {
		x[i] = f.features.Build(b.HourStart)
		y[i] = float64(b.SessionCount)
	}

	fit, err := f.fitter.Fit(x, y)
	if err != nil {
		return nil, err
	}
	if len(fit.Coefficients) != len(schema.Names) {
		return nil, fmt.Errorf("fit returned %d coefficients for %d features", len(fit.Coefficients), len(schema.Names))
	}

	model := &TrainedModel{
		Coefficients:         fit.Coefficients,
		Intercept:            fit.Intercept,
		FeatureSchemaVersion: schema.Version,
		FeatureNames:         schema.Names,
		TrainedAt:            f.now().UTC(),
		TrainingSampleCount:  len(buckets),
		WindowStart:          buckets[0].HourStart,
		WindowEnd:            buckets[len(buckets)-1].HourStart,
	}
	if err := f.store.Save(ctx, model); err != nil {
		if errors.Is(err, ErrPersistence) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return model, nil
}

// Predict forecasts session starts for the horizonHours hours following
// the current hour.
func (f *Forecaster) Predict(ctx context.Context, horizonHours int) ([]PredictionPoint, error) {
	points, err := f.predict(ctx, horizonHours)
	if err != nil {
		metrics.PredictionsFailed.WithLabelValues(Reason(err)).Inc()
		return nil, err
	}
	metrics.PredictionsServed.Inc()
	metrics.PredictionPoints.Add(float64(len(points)))
	return points, nil
}

func (f *Forecaster) predict(ctx context.Context, horizonHours int) ([]PredictionPoint, error) {
	if horizonHours < 1 || horizonHours > f.cfg.MaxHorizonHours {
		return nil, fmt.Errorf("%w: %d hours, must be between 1 and %d", ErrInvalidHorizon, horizonHours, f.cfg.MaxHorizonHours)
	}

	model, err := f.Current(ctx)
	if err != nil {
		return nil, err
	}

	first := floorHour(f.now()).Add(time.Hour)
	points := make([]PredictionPoint, horizonHours)
	for i := range points {
		ts := first.Add(time.Duration(i) * time.Hour)
		points[i] = PredictionPoint{
			Time:              ts,
			PredictedSessions: ToSessions(model.Estimate(f.features.Build(ts))),
		}
	}
	return points, nil
}

// Current loads the current artifact and checks it against the feature
// schema in use.
func (f *Forecaster) Current(ctx context.Context) (*TrainedModel, error) {
	model, err := f.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	schema := f.features.Schema()
	if !schema.Matches(model.FeatureSchemaVersion, model.FeatureNames) {
		return nil, fmt.Errorf("%w: model trained with %q, features are %q",
			ErrSchemaMismatch, model.FeatureSchemaVersion, schema.Version)
	}
	return model, nil
}

// MaxPredictedSessions caps a single hourly estimate so the conversion to
// int cannot overflow.
const MaxPredictedSessions = math.MaxInt32

// ToSessions converts a raw estimate into a session count: negative
// estimates become zero, the rest are rounded half away from zero and
// capped at MaxPredictedSessions.
func ToSessions(estimate float64) int {
	if math.IsNaN(estimate) || estimate <= 0 {
		return 0
	}
	if estimate >= MaxPredictedSessions {
		return MaxPredictedSessions
	}
	return int(math.Round(estimate))
}

// Reason maps an error to a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrCorrupt):
		return "corrupt"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrInvalidHorizon):
		return "invalid_horizon"
	default:
		return "internal"
	}
}
