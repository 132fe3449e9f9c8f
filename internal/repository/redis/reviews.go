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

const reviewLogKey = "reviews:log"

// errVersionConflict aborts a WATCH transaction when the stored document
// version no longer matches the caller's expectation.
var errVersionConflict = errors.New("version conflict")

// ReviewLogRepository stores the review log as a single JSON document in
// Redis, replaced atomically through WATCH-guarded transactions.
type ReviewLogRepository struct {
	client *redis.Client
}

// NewReviewLogRepository creates a Redis-backed review log repository.
func NewReviewLogRepository(client *redis.Client) *ReviewLogRepository {
	return &ReviewLogRepository{client: client}
}

// Load retrieves the review log document.
func (r *ReviewLogRepository) Load(ctx context.Context) (*domain.ReviewLog, error) {
	data, err := r.client.Get(ctx, reviewLogKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("review log")
		}
		return nil, fmt.Errorf("redis get review log: %w", err)
	}

	var log domain.ReviewLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("unmarshal review log: %w", err)
	}

	return &log, nil
}

// SaveIfVersion replaces the review log document if its stored version still
// equals expectedVersion. An absent document counts as version 0. On success
// the document is written with expectedVersion+1.
func (r *ReviewLogRepository) SaveIfVersion(ctx context.Context, log *domain.ReviewLog, expectedVersion int) (bool, error) {
	txf := func(tx *redis.Tx) error {
		stored := 0
		data, err := tx.Get(ctx, reviewLogKey).Bytes()
		switch {
		case err == redis.Nil:
			// First write.
		case err != nil:
			return fmt.Errorf("redis get review log: %w", err)
		default:
			var cur domain.ReviewLog
			if err := json.Unmarshal(data, &cur); err != nil {
				return fmt.Errorf("unmarshal review log: %w", err)
			}
			stored = cur.Version
		}

		if stored != expectedVersion {
			return errVersionConflict
		}

		log.Version = expectedVersion + 1
		payload, err := json.Marshal(log)
		if err != nil {
			return fmt.Errorf("marshal review log: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, reviewLogKey, payload, 0)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, reviewLogKey)
	if errors.Is(err, errVersionConflict) || errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis save review log: %w", err)
	}
	return true, nil
}
