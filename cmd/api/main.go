package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cybercafe-demand-api/config"
	"cybercafe-demand-api/forecast"
	"cybercafe-demand-api/handlers"
	"cybercafe-demand-api/logging"
	"cybercafe-demand-api/services"
	"cybercafe-demand-api/store"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to get sql db handle")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to ping database")
	}
	defer sqlDB.Close()

	// Redis only carries model events; the API serves without it.
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, model events disabled")
	}
	defer cache.Close()

	loc, err := cfg.Model.Location()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid venue timezone")
	}
	modelStore, err := store.NewFileStore(cfg.Model.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open model store")
	}
	forecaster := forecast.NewForecaster(
		forecast.Config{MinBuckets: cfg.Model.MinBuckets, MaxHorizonHours: cfg.Model.MaxHorizonHours},
		modelStore,
		forecast.NewCalendarFeatures(loc),
		forecast.OLS{},
	)

	if ok, err := modelStore.Exists(ctx); err != nil {
		logging.Warn().Err(err).Msg("cannot check model artifact")
	} else if !ok {
		logging.Warn().Str("path", modelStore.Path()).Msg("no demand model yet, retrain before predicting")
	}

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.RouterDeps{
		Demand: handlers.NewDemandHandler(
			forecaster,
			services.NewGormSessionSource(db),
			cache,
			cfg.Model.Lookback(),
			cfg.Model.DefaultHorizonHours,
		),
		Auth:  services.NewAuthService(cfg.JWT),
		Cache: cache,
		CORS:  cfg.CORS,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", server.Addr).Str("model_path", modelStore.Path()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
