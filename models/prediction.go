package models

import (
	"time"

	"cybercafe-demand-api/forecast"
)

type DemandPredictionResponse struct {
	Status      string                     `json:"status"`
	HoursAhead  int                        `json:"hours_ahead"`
	Predictions []forecast.PredictionPoint `json:"predictions"`
}

type RetrainResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Model   *ModelInfo `json:"model,omitempty"`
}

// ModelInfo is the public view of the current demand model.
type ModelInfo struct {
	SchemaVersion       string             `json:"feature_schema_version"`
	TrainedAt           time.Time          `json:"trained_at"`
	TrainingSampleCount int                `json:"training_sample_count"`
	WindowStart         time.Time          `json:"window_start"`
	WindowEnd           time.Time          `json:"window_end"`
	Intercept           float64            `json:"intercept"`
	Coefficients        map[string]float64 `json:"coefficients"`
}

func NewModelInfo(m *forecast.TrainedModel) *ModelInfo {
	coef := make(map[string]float64, len(m.Coefficients))
	for i, name := range m.FeatureNames {
		coef[name] = m.Coefficients[i]
	}
	return &ModelInfo{
		SchemaVersion:       m.FeatureSchemaVersion,
		TrainedAt:           m.TrainedAt,
		TrainingSampleCount: m.TrainingSampleCount,
		WindowStart:         m.WindowStart,
		WindowEnd:           m.WindowEnd,
		Intercept:           m.Intercept,
		Coefficients:        coef,
	}
}

// ModelEvent is published on the model events channel after a retrain.
type ModelEvent struct {
	Type  string     `json:"type"`
	Model *ModelInfo `json:"model"`
}
