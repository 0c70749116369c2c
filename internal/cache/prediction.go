package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smukkama/bike-demand/internal/protocol"
)

// Entry is a cached prediction
type Entry struct {
	Model      string    `json:"model"`
	Prediction int       `json:"prediction"`
	CachedAt   time.Time `json:"cached_at"`
}

// PredictionCache stores model outputs in Redis keyed by the full request
type PredictionCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(redisClient *redis.Client, ttl time.Duration) *PredictionCache {
	return &PredictionCache{redis: redisClient, ttl: ttl}
}

// Key returns the Redis key for a model and request
func Key(model string, req protocol.PredictRequest) string {
	return fmt.Sprintf("prediction:%s:%d:%s:%s:%s:%s:%s:%s:%s:%d:%d",
		model,
		req.Year,
		req.Month,
		req.Weekday,
		strconv.FormatFloat(req.Temperature, 'g', -1, 64),
		strconv.FormatFloat(req.Humidity, 'g', -1, 64),
		strconv.FormatFloat(req.Windspeed, 'g', -1, 64),
		req.Weather,
		req.Season,
		req.Holiday,
		req.Workingday,
	)
}

// Get returns the cached prediction; ok is false on a miss
func (c *PredictionCache) Get(ctx context.Context, model string, req protocol.PredictRequest) (int, bool, error) {
	data, err := c.redis.Get(ctx, Key(model, req)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get prediction from Redis: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal prediction: %w", err)
	}

	return entry.Prediction, true, nil
}

// Set saves a prediction with the configured expiration
func (c *PredictionCache) Set(ctx context.Context, model string, req protocol.PredictRequest, prediction int) error {
	data, err := json.Marshal(&Entry{
		Model:      model,
		Prediction: prediction,
		CachedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	if err := c.redis.Set(ctx, Key(model, req), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set prediction in Redis: %w", err)
	}

	return nil
}

// Ping checks the Redis connection
func (c *PredictionCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}
