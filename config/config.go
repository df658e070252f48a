package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinTrainingBuckets mirrors the forecaster's absolute floor; lower
// MODEL_MIN_BUCKETS values are rejected at startup.
const MinTrainingBuckets = 24

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Model    ModelConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port int `env:"SERVER_PORT" envDefault:"8080"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"cybercafe"`
	Password string `env:"DB_PASSWORD" envDefault:"cybercafe_dev_password"`
	Name     string `env:"DB_NAME" envDefault:"cybercafe"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	// PingAttempts bounds the startup connectivity check.
	PingAttempts int `env:"REDIS_PING_ATTEMPTS" envDefault:"10"`
}

type JWTConfig struct {
	Secret      string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	ExpiryHours int    `env:"JWT_EXPIRY_HOURS" envDefault:"24"`
}

type CORSConfig struct {
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// MetricsConfig is used by batch jobs that exit before a scrape.
type MetricsConfig struct {
	// PushgatewayURL enables pushing on exit when set.
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
	PushJob        string `env:"PUSHGATEWAY_JOB" envDefault:"demand_retrainer"`
}

type ModelConfig struct {
	Path                string `env:"MODEL_PATH" envDefault:"data/demand_model.json"`
	MinBuckets          int    `env:"MODEL_MIN_BUCKETS" envDefault:"24"`
	MaxHorizonHours     int    `env:"MODEL_MAX_HORIZON_HOURS" envDefault:"168"`
	DefaultHorizonHours int    `env:"MODEL_DEFAULT_HORIZON_HOURS" envDefault:"24"`
	LookbackDays        int    `env:"MODEL_LOOKBACK_DAYS" envDefault:"180"`
	Timezone            string `env:"VENUE_TIMEZONE" envDefault:"UTC"`
}

// Location resolves the venue time zone.
func (m ModelConfig) Location() (*time.Location, error) {
	return time.LoadLocation(m.Timezone)
}

// Lookback is the history window fetched for a retrain.
func (m ModelConfig) Lookback() time.Duration {
	return time.Duration(m.LookbackDays) * 24 * time.Hour
}

func (m ModelConfig) validate() error {
	if m.Path == "" {
		return errors.New("MODEL_PATH must not be empty")
	}
	if m.MinBuckets < MinTrainingBuckets {
		return fmt.Errorf("MODEL_MIN_BUCKETS must be at least %d, got %d", MinTrainingBuckets, m.MinBuckets)
	}
	if m.MaxHorizonHours < 1 {
		return fmt.Errorf("MODEL_MAX_HORIZON_HOURS must be positive, got %d", m.MaxHorizonHours)
	}
	if m.DefaultHorizonHours < 1 || m.DefaultHorizonHours > m.MaxHorizonHours {
		return fmt.Errorf("MODEL_DEFAULT_HORIZON_HOURS must be between 1 and %d, got %d", m.MaxHorizonHours, m.DefaultHorizonHours)
	}
	if m.LookbackDays < 1 {
		return fmt.Errorf("MODEL_LOOKBACK_DAYS must be positive, got %d", m.LookbackDays)
	}
	if _, err := m.Location(); err != nil {
		return fmt.Errorf("invalid VENUE_TIMEZONE: %w", err)
	}
	return nil
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Model.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
