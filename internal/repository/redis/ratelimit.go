package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimitRepository stores the last counted action per client key with a
// retention-window TTL, so stale entries expire instead of needing an
// explicit purge pass.
type RateLimitRepository struct {
	client    *redis.Client
	retention time.Duration
}

// NewRateLimitRepository creates a Redis-backed rate limit store. Entries
// are retained for the given window.
func NewRateLimitRepository(client *redis.Client, retention time.Duration) *RateLimitRepository {
	return &RateLimitRepository{client: client, retention: retention}
}

func rateLimitKey(namespace, key string) string {
	return rateLimitKeyPrefix + namespace + ":" + key
}

// LastAction returns the stored instant for the key, if an entry exists.
func (r *RateLimitRepository) LastAction(ctx context.Context, namespace, key string) (time.Time, bool, error) {
	raw, err := r.client.Get(ctx, rateLimitKey(namespace, key)).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("redis get rate limit entry: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse rate limit entry: %w", err)
	}
	return at, true, nil
}

// RecordAction stores the instant for the key, resetting the retention TTL.
func (r *RateLimitRepository) RecordAction(ctx context.Context, namespace, key string, at time.Time) error {
	val := at.UTC().Format(time.RFC3339Nano)
	if err := r.client.Set(ctx, rateLimitKey(namespace, key), val, r.retention).Err(); err != nil {
		return fmt.Errorf("redis set rate limit entry: %w", err)
	}
	return nil
}
