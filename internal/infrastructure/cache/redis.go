package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"crea-bienestar/internal/config"
	"crea-bienestar/pkg/logger"
)

// RedisCache wraps the Redis client with typed operations
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *logger.Logger
}

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	log = log.WithComponent("redis")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info().Msg("connected to Redis successfully")

	return &RedisCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    log,
	}, nil
}

// Client returns the underlying Redis client
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.client.Close()
}

// key prepends the namespace prefix to a key
func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, c.key(key)).Result()
}

// GetJSON retrieves and unmarshals a JSON value from cache
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Set stores a value in cache with optional TTL
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// SetJSON marshals and stores a value in cache
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.Set(ctx, key, string(data), ttl)
}

// Delete removes keys from cache
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	prefixedKeys := make([]string, len(keys))
	for i, k := range keys {
		prefixedKeys[i] = c.key(k)
	}
	return c.client.Del(ctx, prefixedKeys...).Err()
}

// Exists checks if a key exists
func (c *RedisCache) Exists(ctx context.Context, keys ...string) (int64, error) {
	prefixedKeys := make([]string, len(keys))
	for i, k := range keys {
		prefixedKeys[i] = c.key(k)
	}
	return c.client.Exists(ctx, prefixedKeys...).Result()
}

// Expire sets a TTL on a key
func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, c.key(key), ttl).Err()
}

// Incr increments an integer value
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, c.key(key)).Result()
}

// RPush appends values to a list
func (c *RedisCache) RPush(ctx context.Context, key string, values ...any) error {
	return c.client.RPush(ctx, c.key(key), values...).Err()
}

// LRange returns a slice of a list
func (c *RedisCache) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return c.client.LRange(ctx, c.key(key), start, stop).Result()
}

// LTrim trims a list to the given range
func (c *RedisCache) LTrim(ctx context.Context, key string, start, stop int64) error {
	return c.client.LTrim(ctx, c.key(key), start, stop).Err()
}

// Cache key constants
const (
	// Per-conversation risk score history, oldest first
	KeyScoreHistoryPrefix = "risk:history:"

	// Alert dashboard stats snapshot
	KeyAlertStats = "cache:alerts:stats"

	// Rate limiting keys
	KeyRateLimitPrefix = "rate_limit:"
)

// PushScore appends a per-message risk score to the conversation's
// history list, trimming it to the most recent maxLen entries.
func (c *RedisCache) PushScore(ctx context.Context, conversationID string, score, maxLen int) error {
	key := KeyScoreHistoryPrefix + conversationID
	if err := c.RPush(ctx, key, score); err != nil {
		return fmt.Errorf("failed to push score: %w", err)
	}
	if maxLen > 0 {
		if err := c.LTrim(ctx, key, -int64(maxLen), -1); err != nil {
			return fmt.Errorf("failed to trim score history: %w", err)
		}
	}
	return nil
}

// ScoreHistory returns the conversation's per-message risk scores,
// oldest first. A missing key is an empty history, not an error.
func (c *RedisCache) ScoreHistory(ctx context.Context, conversationID string) ([]int, error) {
	raw, err := c.LRange(ctx, KeyScoreHistoryPrefix+conversationID, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to read score history: %w", err)
	}
	scores := make([]int, 0, len(raw))
	for _, s := range raw {
		n, err := strconv.Atoi(s)
		if err != nil {
			continue
		}
		scores = append(scores, n)
	}
	return scores, nil
}

// CheckRateLimit increments a counter for the identifier and reports
// whether it is still within the limit for the window.
func (c *RedisCache) CheckRateLimit(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	key := KeyRateLimitPrefix + identifier

	count, err := c.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := c.Expire(ctx, key, window); err != nil {
			return false, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return count <= int64(limit), nil
}
