package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/debjit15/angrybolly/internal/domain"
	apperrors "github.com/debjit15/angrybolly/pkg/errors"
)

const statsKey = "stats:snapshot"

// StatsRepository stores the aggregate stats snapshot as a single JSON
// document in Redis, replaced atomically through WATCH-guarded transactions.
type StatsRepository struct {
	client *redis.Client
}

// NewStatsRepository creates a Redis-backed stats repository.
func NewStatsRepository(client *redis.Client) *StatsRepository {
	return &StatsRepository{client: client}
}

// Load retrieves the stats snapshot document.
func (r *StatsRepository) Load(ctx context.Context) (*domain.StatsSnapshot, error) {
	data, err := r.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("stats")
		}
		return nil, fmt.Errorf("redis get stats: %w", err)
	}

	var stats domain.StatsSnapshot
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}

	return &stats, nil
}

// SaveIfVersion replaces the snapshot if its stored version still equals
// expectedVersion. An absent document counts as version 0. On success the
// document is written with expectedVersion+1.
func (r *StatsRepository) SaveIfVersion(ctx context.Context, stats *domain.StatsSnapshot, expectedVersion int) (bool, error) {
	txf := func(tx *redis.Tx) error {
		stored := 0
		data, err := tx.Get(ctx, statsKey).Bytes()
		switch {
		case err == redis.Nil:
			// First write.
		case err != nil:
			return fmt.Errorf("redis get stats: %w", err)
		default:
			var cur domain.StatsSnapshot
			if err := json.Unmarshal(data, &cur); err != nil {
				return fmt.Errorf("unmarshal stats: %w", err)
			}
			stored = cur.Version
		}

		if stored != expectedVersion {
			return errVersionConflict
		}

		stats.Version = expectedVersion + 1
		payload, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, statsKey, payload, 0)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, statsKey)
	if errors.Is(err, errVersionConflict) || errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis save stats: %w", err)
	}
	return true, nil
}
