package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

// RedisCache wraps the Redis client with the typed operations the gateway
// needs: rate limiting plus per-client extension config, history and stats
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
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info().Msg("connected to Redis successfully")

	return NewRedisFromClient(client, cfg.KeyPrefix, log), nil
}

// NewRedisFromClient wraps an existing client
func NewRedisFromClient(client *redis.Client, keyPrefix string, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    log,
	}
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

// Ping checks the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// key prepends the namespace prefix to a key
func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// GetJSON retrieves and unmarshals a JSON value. A missing key returns redis.Nil.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SetJSON marshals and stores a value with optional TTL
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// Key layout
const (
	KeyRateLimitPrefix = "rate_limit:"
	KeyConfigPrefix    = "ext:config:"
	KeyHistoryPrefix   = "ext:history:"
	KeyStatsPrefix     = "ext:stats:"
)

// Stats hash fields
const (
	fieldThreatsBlocked = "threats_blocked"
	fieldLinksScanned   = "links_scanned"
	fieldMediaAnalyzed  = "media_analyzed"
)

// GetConfig returns the stored extension config, nil when none is stored
func (c *RedisCache) GetConfig(ctx context.Context, clientID string) (*models.ExtensionConfig, error) {
	var cfg models.ExtensionConfig
	err := c.GetJSON(ctx, KeyConfigPrefix+clientID, &cfg)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extension config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig stores the extension config without expiry
func (c *RedisCache) SaveConfig(ctx context.Context, clientID string, cfg models.ExtensionConfig) error {
	return c.SetJSON(ctx, KeyConfigPrefix+clientID, cfg, 0)
}

// Push prepends a history item and trims the list to limit entries
func (c *RedisCache) Push(ctx context.Context, clientID string, item models.HistoryItem, limit int) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal history item: %w", err)
	}

	key := c.key(KeyHistoryPrefix + clientID)
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push history item: %w", err)
	}
	return nil
}

// List returns the client's history, newest first
func (c *RedisCache) List(ctx context.Context, clientID string) ([]models.HistoryItem, error) {
	raw, err := c.client.LRange(ctx, c.key(KeyHistoryPrefix+clientID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	items := make([]models.HistoryItem, 0, len(raw))
	for _, r := range raw {
		var item models.HistoryItem
		if err := json.Unmarshal([]byte(r), &item); err != nil {
			c.logger.Warn().Err(err).Str("client_id", clientID).Msg("skipping corrupt history item")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// IncrStats adds delta to the client's counters
func (c *RedisCache) IncrStats(ctx context.Context, clientID string, delta models.ProtectionStats) error {
	key := c.key(KeyStatsPrefix + clientID)
	pipe := c.client.Pipeline()
	if delta.ThreatsBlocked != 0 {
		pipe.HIncrBy(ctx, key, fieldThreatsBlocked, delta.ThreatsBlocked)
	}
	if delta.LinksScanned != 0 {
		pipe.HIncrBy(ctx, key, fieldLinksScanned, delta.LinksScanned)
	}
	if delta.MediaAnalyzed != 0 {
		pipe.HIncrBy(ctx, key, fieldMediaAnalyzed, delta.MediaAnalyzed)
	}
	if pipe.Len() == 0 {
		return nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}
	return nil
}

// GetStats returns the client's counters; missing counters read as zero
func (c *RedisCache) GetStats(ctx context.Context, clientID string) (models.ProtectionStats, error) {
	fields, err := c.client.HGetAll(ctx, c.key(KeyStatsPrefix+clientID)).Result()
	if err != nil {
		return models.ProtectionStats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	parse := func(name string) int64 {
		v, _ := strconv.ParseInt(fields[name], 10, 64)
		return v
	}

	return models.ProtectionStats{
		ThreatsBlocked: parse(fieldThreatsBlocked),
		LinksScanned:   parse(fieldLinksScanned),
		MediaAnalyzed:  parse(fieldMediaAnalyzed),
	}, nil
}

// CheckRateLimit checks and increments the rate limit counter
// Returns (allowed, remaining, resetTime, error)
func (c *RedisCache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	now := time.Now()
	windowKey := fmt.Sprintf("%s%s:%d", KeyRateLimitPrefix, key, now.Unix()/int64(window.Seconds()))

	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, c.key(windowKey))
	pipe.Expire(ctx, c.key(windowKey), window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := incr.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= limit, remaining, now.Add(window), nil
}
