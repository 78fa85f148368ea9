// Package cache mirrors per-job status into Redis so the HTTP API can
// answer status lookups without touching PostgreSQL. Everything here is
// best-effort: workers ignore cache errors.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
)

// ErrCacheMiss is returned when a job has no cached status.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the status mirror interface.
type Cache interface {
	SetJobStatus(ctx context.Context, jobID string, status domain.Status) error
	GetJobStatus(ctx context.Context, jobID string) (domain.Status, error)
	Close() error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &redisCache{client: client, ttl: ttl}, nil
}

func (c *redisCache) SetJobStatus(ctx context.Context, jobID string, status domain.Status) error {
	return c.client.Set(ctx, jobStatusKey(jobID), string(status), c.ttl).Err()
}

func (c *redisCache) GetJobStatus(ctx context.Context, jobID string) (domain.Status, error) {
	value, err := c.client.Get(ctx, jobStatusKey(jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get job status: %w", err)
	}

	return domain.Status(value), nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
