package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/debjit15/angrybolly/internal/domain"
	"github.com/debjit15/angrybolly/internal/event"
	"github.com/debjit15/angrybolly/internal/repository"
	apperrors "github.com/debjit15/angrybolly/pkg/errors"
)

// rateLimitNamespace keys download-tracking entries in the limiter store.
const rateLimitNamespace = "downloads"

// SetStatsInput holds the parameters for the administrative stats overwrite.
type SetStatsInput struct {
	Downloads int     `json:"downloads" validate:"gte=0"`
	Rating    float64 `json:"rating" validate:"gte=0,lte=5"`
	Reviews   int     `json:"reviews" validate:"gte=0"`
}

// StatsService implements the stats read, overwrite, and download-tracking
// operations.
type StatsService struct {
	stats    repository.StatsRepository
	limiter  repository.RateLimitRepository
	producer *event.Producer
	logger   *slog.Logger

	hashSecret string
	cooldown   time.Duration
	nowFunc    func() time.Time // injectable clock for testing
}

// NewStatsService creates a new stats service.
func NewStatsService(
	stats repository.StatsRepository,
	limiter repository.RateLimitRepository,
	producer *event.Producer,
	logger *slog.Logger,
	hashSecret string,
	cooldown time.Duration,
) *StatsService {
	return &StatsService{
		stats:      stats,
		limiter:    limiter,
		producer:   producer,
		logger:     logger,
		hashSecret: hashSecret,
		cooldown:   cooldown,
		nowFunc:    time.Now,
	}
}

// Get returns the current stats snapshot.
func (s *StatsService) Get(ctx context.Context) (*domain.StatsSnapshot, error) {
	stats, err := s.stats.Load(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("stats")
		}
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return stats, nil
}

// Set overwrites the snapshot with administrator-supplied values.
func (s *StatsService) Set(ctx context.Context, input SetStatsInput) (*domain.StatsSnapshot, error) {
	if input.Downloads < 0 || input.Reviews < 0 {
		return nil, apperrors.InvalidInput("counters must not be negative")
	}
	if input.Rating < 0 || input.Rating > domain.MaxRating {
		return nil, apperrors.InvalidInput("rating must be between 0 and 5")
	}

	var saved *domain.StatsSnapshot
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		version := 0
		if prev, err := s.stats.Load(ctx); err == nil {
			version = prev.Version
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("load stats: %w", err)
		}

		next := domain.StatsSnapshot{
			Downloads:   input.Downloads,
			Rating:      domain.Round1(input.Rating),
			Reviews:     input.Reviews,
			LastUpdated: s.nowFunc().UTC(),
			Version:     version,
		}

		ok, err := s.stats.SaveIfVersion(ctx, &next, version)
		if err != nil {
			return nil, apperrors.Persistence(fmt.Errorf("save stats: %w", err))
		}
		if ok {
			saved = &next
			break
		}
	}
	if saved == nil {
		return nil, apperrors.Persistence(fmt.Errorf("stats snapshot contended after %d attempts", maxSaveAttempts))
	}

	if err := s.producer.PublishStatsOverwritten(ctx, saved); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stats.overwritten event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "stats overwritten",
		slog.Int("downloads", saved.Downloads),
		slog.Float64("rating", saved.Rating),
		slog.Int("reviews", saved.Reviews),
	)

	return saved, nil
}

// TrackDownload counts one download per client within the cooldown window.
// A repeat call inside the window is a successful no-op returning the
// current snapshot, so clients cannot probe the throttle state.
func (s *StatsService) TrackDownload(ctx context.Context, clientIP string) (*domain.StatsSnapshot, error) {
	if clientIP == "" {
		return nil, apperrors.InvalidInput("client ip is required")
	}

	key := domain.HashIdentifier(s.hashSecret, clientIP)
	now := s.nowFunc().UTC()

	last, exists, err := s.limiter.LastAction(ctx, rateLimitNamespace, key)
	if err != nil {
		return nil, fmt.Errorf("check rate limit: %w", err)
	}
	if exists && now.Sub(last) < s.cooldown {
		s.logger.DebugContext(ctx, "download already counted within cooldown",
			slog.Duration("since_last", now.Sub(last)),
		)
		return s.Get(ctx)
	}

	if err := s.limiter.RecordAction(ctx, rateLimitNamespace, key, now); err != nil {
		return nil, fmt.Errorf("record rate limit entry: %w", err)
	}

	var saved *domain.StatsSnapshot
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		stats, err := s.stats.Load(ctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				// Download tracking requires the snapshot to already exist.
				return nil, apperrors.NotFound("stats")
			}
			return nil, fmt.Errorf("load stats: %w", err)
		}

		stats.Downloads++
		stats.LastUpdated = s.nowFunc().UTC()

		ok, err := s.stats.SaveIfVersion(ctx, stats, stats.Version)
		if err != nil {
			return nil, apperrors.Persistence(fmt.Errorf("save stats: %w", err))
		}
		if ok {
			saved = stats
			break
		}
	}
	if saved == nil {
		return nil, apperrors.Persistence(fmt.Errorf("stats snapshot contended after %d attempts", maxSaveAttempts))
	}

	if err := s.producer.PublishDownloadTracked(ctx, saved); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish download.tracked event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "download tracked",
		slog.Int("downloads", saved.Downloads),
	)

	return saved, nil
}
