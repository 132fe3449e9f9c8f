package repository

import (
	"context"
	"time"

	"github.com/debjit15/angrybolly/internal/domain"
)

// ReviewLogRepository persists the review log as a single document.
type ReviewLogRepository interface {
	// Load retrieves the review log. Returns ErrNotFound if the document
	// has never been written.
	Load(ctx context.Context) (*domain.ReviewLog, error)

	// SaveIfVersion atomically replaces the document if its stored version
	// still equals expectedVersion, bumping the version on success. Returns
	// false (and no error) when another writer got there first.
	SaveIfVersion(ctx context.Context, log *domain.ReviewLog, expectedVersion int) (bool, error)
}

// StatsRepository persists the aggregate stats snapshot as a single document.
type StatsRepository interface {
	// Load retrieves the snapshot. Returns ErrNotFound if absent.
	Load(ctx context.Context) (*domain.StatsSnapshot, error)

	// SaveIfVersion atomically replaces the snapshot if its stored version
	// still equals expectedVersion, bumping the version on success.
	SaveIfVersion(ctx context.Context, stats *domain.StatsSnapshot, expectedVersion int) (bool, error)
}

// RateLimitRepository tracks the last counted action per client key.
// Entries expire after the retention window; the cooldown decision belongs
// to the caller.
type RateLimitRepository interface {
	// LastAction returns the stored instant for the key within the given
	// namespace, and whether an entry exists.
	LastAction(ctx context.Context, namespace, key string) (time.Time, bool, error)

	// RecordAction stores the instant for the key, replacing any prior entry.
	RecordAction(ctx context.Context, namespace, key string, at time.Time) error
}
