package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	corerouting "github.com/kilianp07/shuttle/core/routing"
)

// RedisConfig configures RedisCache.
type RedisConfig struct {
	Addr     string        `json:"addr"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	Prefix   string        `json:"prefix"`
	TTL      time.Duration `json:"ttl"`
}

// RedisCache keeps legs in Redis as JSON values.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "shuttle:leg:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisCache{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (r *RedisCache) key(from, to corerouting.Coordinate) string {
	return r.prefix + pairKey(from, to)
}

func (r *RedisCache) Get(ctx context.Context, from, to corerouting.Coordinate) (corerouting.Leg, bool, error) {
	data, err := r.client.Get(ctx, r.key(from, to)).Bytes()
	if errors.Is(err, redis.Nil) {
		return corerouting.Leg{}, false, nil
	}
	if err != nil {
		return corerouting.Leg{}, false, err
	}
	var leg corerouting.Leg
	if err := json.Unmarshal(data, &leg); err != nil {
		return corerouting.Leg{}, false, fmt.Errorf("decode cached leg: %w", err)
	}
	return leg, true, nil
}

// Put stores leg; a zero TTL keeps it forever.
func (r *RedisCache) Put(ctx context.Context, from, to corerouting.Coordinate, leg corerouting.Leg) error {
	data, err := json.Marshal(leg)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(from, to), data, r.ttl).Err()
}

func (r *RedisCache) Close() error { return r.client.Close() }
