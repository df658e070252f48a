package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cybercafe-demand-api/config"
	"cybercafe-demand-api/logging"
	"cybercafe-demand-api/models"

	"github.com/redis/go-redis/v9"
)

// ModelEventsChannel carries model lifecycle events to API replicas and
// dashboards.
const ModelEventsChannel = "cybercafe:demand-model"

type CacheService struct {
	client *redis.Client
}

func NewCacheService(cfg config.RedisConfig) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	attempts := max(cfg.PingAttempts, 1)
	var lastErr error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client}, nil
		}
		logging.Warn().Err(lastErr).Int("attempt", i+1).Int("of", attempts).Msg("redis ping failed")
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}

	_ = client.Close()
	return &CacheService{client: nil}, fmt.Errorf("redis ping failed after %d attempts: %w", attempts, lastErr)
}

// NewCacheServiceFromClient wraps an existing client; a nil client yields
// a disabled service.
func NewCacheServiceFromClient(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) Available() bool {
	return s != nil && s.client != nil
}

func (s *CacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

// PublishModelEvent announces a model change. Delivery is best effort.
func (s *CacheService) PublishModelEvent(ctx context.Context, event models.ModelEvent) error {
	return s.Publish(ctx, ModelEventsChannel, event)
}

func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if !s.Available() {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

func (s *CacheService) Close() error {
	if !s.Available() {
		return nil
	}
	return s.client.Close()
}
