package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/debjit15/angrybolly/internal/domain"
	apperrors "github.com/debjit15/angrybolly/pkg/errors"
)

func newTestStatsService(stats *mockStatsRepository, limiter *mockRateLimitRepository) *StatsService {
	return NewStatsService(stats, limiter, newTestProducer(), newTestLogger(),
		testHashSecret, 5*time.Minute)
}

func snapshot(downloads, version int) *domain.StatsSnapshot {
	return &domain.StatsSnapshot{
		Downloads:   downloads,
		Rating:      4.5,
		Reviews:     12,
		LastUpdated: time.Now().UTC(),
		Version:     version,
	}
}

// --- Get Tests ---

func TestGetStats_Success(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)
	ctx := context.Background()

	stats.On("Load", ctx).Return(snapshot(1200, 3), nil)

	got, err := svc.Get(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1200, got.Downloads)
	assert.Equal(t, 4.5, got.Rating)
	assert.Equal(t, 12, got.Reviews)
}

func TestGetStats_NotFound(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)
	ctx := context.Background()

	stats.On("Load", ctx).Return(nil, apperrors.NotFound("stats"))

	got, err := svc.Get(ctx)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Set Tests ---

func TestSetStats_Success(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)
	ctx := context.Background()

	stats.On("Load", ctx).Return(snapshot(1200, 3), nil)
	stats.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.StatsSnapshot"), 3).Return(true, nil)

	got, err := svc.Set(ctx, SetStatsInput{Downloads: 5000, Rating: 4.46, Reviews: 90})

	require.NoError(t, err)
	assert.Equal(t, 5000, got.Downloads)
	assert.Equal(t, 4.5, got.Rating) // rounded to one decimal
	assert.Equal(t, 90, got.Reviews)
	assert.NotZero(t, got.LastUpdated)
	stats.AssertExpectations(t)
}

func TestSetStats_FirstWrite(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)
	ctx := context.Background()

	stats.On("Load", ctx).Return(nil, apperrors.NotFound("stats"))
	stats.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.StatsSnapshot"), 0).Return(true, nil)

	got, err := svc.Set(ctx, SetStatsInput{Downloads: 100, Rating: 5, Reviews: 1})

	require.NoError(t, err)
	assert.Equal(t, 100, got.Downloads)
}

func TestSetStats_NegativeCounters(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)

	_, err := svc.Set(context.Background(), SetStatsInput{Downloads: -1, Rating: 4, Reviews: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Set(context.Background(), SetStatsInput{Downloads: 0, Rating: 4, Reviews: -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSetStats_RatingOutOfRange(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)

	_, err := svc.Set(context.Background(), SetStatsInput{Downloads: 0, Rating: 5.1, Reviews: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Set(context.Background(), SetStatsInput{Downloads: 0, Rating: -0.1, Reviews: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSetStats_ContentionExhausted(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)
	ctx := context.Background()

	stats.On("Load", ctx).Return(snapshot(1200, 3), nil)
	stats.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.StatsSnapshot"), 3).Return(false, nil)

	_, err := svc.Set(ctx, SetStatsInput{Downloads: 5000, Rating: 4.5, Reviews: 90})

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	stats.AssertNumberOfCalls(t, "SaveIfVersion", maxSaveAttempts)
}

// --- TrackDownload Tests ---

func TestTrackDownload_FirstDownload(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)
	ctx := context.Background()

	key := domain.HashIdentifier(testHashSecret, "203.0.113.7")
	limiter.On("LastAction", ctx, "downloads", key).Return(time.Time{}, false, nil)
	limiter.On("RecordAction", ctx, "downloads", key, mock.AnythingOfType("time.Time")).Return(nil)
	stats.On("Load", ctx).Return(snapshot(1200, 3), nil)

	var saved *domain.StatsSnapshot
	stats.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.StatsSnapshot"), 3).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.StatsSnapshot) }).
		Return(true, nil)

	got, err := svc.TrackDownload(ctx, "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, 1201, got.Downloads)
	require.NotNil(t, saved)
	assert.Equal(t, 1201, saved.Downloads)
	limiter.AssertExpectations(t)
}

func TestTrackDownload_WithinCooldownIsNoop(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)
	ctx := context.Background()

	key := domain.HashIdentifier(testHashSecret, "203.0.113.7")
	limiter.On("LastAction", ctx, "downloads", key).
		Return(time.Now().UTC().Add(-time.Minute), true, nil)
	stats.On("Load", ctx).Return(snapshot(1200, 3), nil)

	got, err := svc.TrackDownload(ctx, "203.0.113.7")

	// Indistinguishable from a counted download: success and the current
	// snapshot, but the counter is untouched.
	require.NoError(t, err)
	assert.Equal(t, 1200, got.Downloads)
	limiter.AssertNotCalled(t, "RecordAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	stats.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackDownload_CountsAgainAfterCooldown(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)
	ctx := context.Background()

	key := domain.HashIdentifier(testHashSecret, "203.0.113.7")
	limiter.On("LastAction", ctx, "downloads", key).
		Return(time.Now().UTC().Add(-6*time.Minute), true, nil)
	limiter.On("RecordAction", ctx, "downloads", key, mock.AnythingOfType("time.Time")).Return(nil)
	stats.On("Load", ctx).Return(snapshot(1200, 3), nil)
	stats.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.StatsSnapshot"), 3).Return(true, nil)

	got, err := svc.TrackDownload(ctx, "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, 1201, got.Downloads)
}

func TestTrackDownload_MissingSnapshot(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)
	ctx := context.Background()

	key := domain.HashIdentifier(testHashSecret, "203.0.113.7")
	limiter.On("LastAction", ctx, "downloads", key).Return(time.Time{}, false, nil)
	limiter.On("RecordAction", ctx, "downloads", key, mock.AnythingOfType("time.Time")).Return(nil)
	stats.On("Load", ctx).Return(nil, apperrors.NotFound("stats"))

	got, err := svc.TrackDownload(ctx, "203.0.113.7")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTrackDownload_MissingClientIP(t *testing.T) {
	stats := new(mockStatsRepository)
	limiter := new(mockRateLimitRepository)
	svc := newTestStatsService(stats, limiter)

	_, err := svc.TrackDownload(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
