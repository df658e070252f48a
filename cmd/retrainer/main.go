// Command retrainer fits a fresh demand model from the sessions table and
// swaps it in as the current artifact. It runs once and exits, so periodic
// retraining is left to cron or a Kubernetes CronJob. Metrics are pushed
// to a Pushgateway on exit when PUSHGATEWAY_URL is set.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cybercafe-demand-api/config"
	"cybercafe-demand-api/forecast"
	"cybercafe-demand-api/logging"
	"cybercafe-demand-api/models"
	"cybercafe-demand-api/services"
	"cybercafe-demand-api/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logging.Error().Err(err).Str("reason", forecast.Reason(err)).Msg("retrain failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Metrics.PushgatewayURL != "" {
		// Pushed on failure too so failed runs show up.
		defer func() {
			if err := pushMetrics(cfg.Metrics.PushgatewayURL, cfg.Metrics.PushJob, prometheus.DefaultGatherer); err != nil {
				logging.Warn().Err(err).Msg("push metrics failed")
			}
		}()
	}

	dbPool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		return err
	}
	logging.Info().Msg("db connected")

	loc, err := cfg.Model.Location()
	if err != nil {
		return err
	}
	modelStore, err := store.NewFileStore(cfg.Model.Path)
	if err != nil {
		return err
	}
	forecaster := forecast.NewForecaster(
		forecast.Config{MinBuckets: cfg.Model.MinBuckets, MaxHorizonHours: cfg.Model.MaxHorizonHours},
		modelStore,
		forecast.NewCalendarFeatures(loc),
		forecast.OLS{},
	)

	window := forecast.TimeRange{From: time.Now().UTC().Add(-cfg.Model.Lookback())}
	logging.Info().
		Time("from", window.From).
		Str("model_path", modelStore.Path()).
		Msg("retraining demand model")

	model, err := forecaster.RetrainFrom(ctx, services.NewPgxSessionSource(dbPool), window)
	if err != nil {
		return err
	}

	redisCfg := cfg.Redis
	redisCfg.PingAttempts = 1
	cache, err := services.NewCacheService(redisCfg)
	if err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, model event not published")
		return nil
	}
	defer cache.Close()

	event := models.ModelEvent{Type: "model_retrained", Model: models.NewModelInfo(model)}
	if err := cache.PublishModelEvent(ctx, event); err != nil {
		logging.Warn().Err(err).Msg("publish model event failed")
	}
	return nil
}

func pushMetrics(url, job string, g prometheus.Gatherer) error {
	logging.Debug().Str("url", url).Str("job", job).Msg("pushing retrainer metrics")
	return push.New(url, job).Gatherer(g).Push()
}
