// Package metrics declares the Prometheus collectors for the demand service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RetrainsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demand_model_retrains_total",
		Help: "Total number of successful demand model retrains.",
	})
	RetrainsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demand_model_retrains_failed_total",
		Help: "Total number of failed demand model retrains by reason.",
	}, []string{"reason"})
	RetrainDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "demand_model_retrain_duration_seconds",
		Help:    "Duration of a full retrain, from aggregation to artifact swap.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
	})
	TrainingSamples = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "demand_model_training_samples",
		Help: "Number of hourly buckets the current model was trained on.",
	})
	PredictionsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demand_predictions_served_total",
		Help: "Total number of forecast requests answered.",
	})
	PredictionPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demand_prediction_points_total",
		Help: "Total number of hourly points forecast.",
	})
	PredictionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demand_predictions_failed_total",
		Help: "Total number of failed forecast requests by reason.",
	}, []string{"reason"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "demand_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
