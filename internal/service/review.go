package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/debjit15/angrybolly/internal/domain"
	"github.com/debjit15/angrybolly/internal/event"
	"github.com/debjit15/angrybolly/internal/repository"
	apperrors "github.com/debjit15/angrybolly/pkg/errors"
	"github.com/debjit15/angrybolly/pkg/validator"
)

// maxSaveAttempts bounds the retry loop around optimistic document saves.
const maxSaveAttempts = 3

// SubmitInput holds the parameters for submitting a review.
type SubmitInput struct {
	Name              string `json:"name" validate:"required"`
	Email             string `json:"email" validate:"required,email"`
	Rating            int    `json:"rating" validate:"required,gte=1,lte=5"`
	Text              string `json:"review" validate:"required"`
	DeviceFingerprint string `json:"device_fingerprint" validate:"required"`
	ClientIP          string `json:"-"`
}

// ReviewPage is one page of the public review feed.
type ReviewPage struct {
	Items      []domain.PublicReview
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// ReviewService implements the submission pipeline and the public feed.
type ReviewService struct {
	logs        repository.ReviewLogRepository
	stats       repository.StatsRepository
	producer    *event.Producer
	logger      *slog.Logger
	hashSecret  string
	dedupWindow time.Duration
	pageSize    int
	autoApprove bool
	nowFunc     func() time.Time // injectable clock for testing
}

// NewReviewService creates a new review service.
func NewReviewService(
	logs repository.ReviewLogRepository,
	stats repository.StatsRepository,
	producer *event.Producer,
	logger *slog.Logger,
	hashSecret string,
	dedupWindow time.Duration,
	pageSize int,
	autoApprove bool,
) *ReviewService {
	return &ReviewService{
		logs:        logs,
		stats:       stats,
		producer:    producer,
		logger:      logger,
		hashSecret:  hashSecret,
		dedupWindow: dedupWindow,
		pageSize:    pageSize,
		autoApprove: autoApprove,
		nowFunc:     time.Now,
	}
}

// Submit validates a submission, rejects duplicates from the same device or
// network within the dedup window, appends the review to the log, and
// recomputes the public stats. A stats persistence failure after the review
// is durably saved does not fail the submission; it is logged and the review
// is still reported as created.
func (s *ReviewService) Submit(ctx context.Context, input SubmitInput) (*domain.PublicReview, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if input.ClientIP == "" {
		return nil, apperrors.InvalidInput("client ip is required")
	}

	normalized, err := domain.Submission{
		Name:   input.Name,
		Email:  input.Email,
		Rating: input.Rating,
		Text:   input.Text,
	}.Normalize()
	if err != nil {
		return nil, err
	}

	deviceHash := domain.HashIdentifier(s.hashSecret, input.DeviceFingerprint)
	ipHash := domain.HashIdentifier(s.hashSecret, input.ClientIP)

	var review domain.Review

	// Optimistic append: reload and re-check dedup on every attempt so a
	// concurrent writer's review is seen before ours lands.
	saved := false
	for attempt := 0; attempt < maxSaveAttempts && !saved; attempt++ {
		log, err := s.loadLog(ctx)
		if err != nil {
			return nil, err
		}

		now := s.nowFunc().UTC()
		if log.HasRecentFrom(deviceHash, ipHash, now, s.dedupWindow) {
			return nil, apperrors.DuplicateSubmission("you have already submitted a review recently, please try again later")
		}

		review = domain.Review{
			ID:         uuid.New().String(),
			Name:       normalized.Name,
			Email:      normalized.Email,
			Rating:     normalized.Rating,
			Text:       normalized.Text,
			DeviceHash: deviceHash,
			IPHash:     ipHash,
			Timestamp:  now,
			Approved:   s.autoApprove,
		}
		log.Append(review)

		ok, err := s.logs.SaveIfVersion(ctx, log, log.Version)
		if err != nil {
			return nil, apperrors.Persistence(fmt.Errorf("save review log: %w", err))
		}
		saved = ok
	}
	if !saved {
		return nil, apperrors.Persistence(fmt.Errorf("review log contended after %d attempts", maxSaveAttempts))
	}

	// The review is durable from here on. Stats recompute failure degrades
	// to a warning; the submission still succeeds.
	if err := s.recomputeStats(ctx); err != nil {
		s.logger.WarnContext(ctx, "stats recompute failed after review was saved",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishReviewSubmitted(ctx, &review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.Int("rating", review.Rating),
		slog.Bool("approved", review.Approved),
	)

	public := review.Public()
	return &public, nil
}

// List returns one page of approved reviews, newest first. Pages are
// 1-based; non-positive pages are normalized to 1 and pages past the end
// yield an empty item list.
func (s *ReviewService) List(ctx context.Context, page int) (*ReviewPage, error) {
	if page < 1 {
		page = 1
	}

	log, err := s.loadLog(ctx)
	if err != nil {
		return nil, err
	}

	approved := log.Approved()

	// Stable sort keeps insertion order for equal timestamps.
	sort.SliceStable(approved, func(i, j int) bool {
		return approved[i].Timestamp.After(approved[j].Timestamp)
	})

	total := len(approved)
	totalPages := total / s.pageSize
	if total%s.pageSize > 0 {
		totalPages++
	}

	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]domain.PublicReview, 0, end-start)
	for _, r := range approved[start:end] {
		items = append(items, r.Public())
	}

	return &ReviewPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    s.pageSize,
		TotalPages: totalPages,
	}, nil
}

// loadLog loads the review log, treating an absent document as an empty log.
func (s *ReviewService) loadLog(ctx context.Context) (*domain.ReviewLog, error) {
	log, err := s.logs.Load(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.ReviewLog{Reviews: []domain.Review{}}, nil
		}
		return nil, fmt.Errorf("load review log: %w", err)
	}
	return log, nil
}

// recomputeStats rebuilds the snapshot from the just-saved log, carrying the
// download counter through unchanged.
func (s *ReviewService) recomputeStats(ctx context.Context) error {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		log, err := s.loadLog(ctx)
		if err != nil {
			return err
		}

		prev, err := s.stats.Load(ctx)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("load stats: %w", err)
			}
			prev = &domain.StatsSnapshot{}
		}

		next := domain.RecomputeStats(log, *prev, s.nowFunc().UTC())

		ok, err := s.stats.SaveIfVersion(ctx, &next, prev.Version)
		if err != nil {
			return fmt.Errorf("save stats: %w", err)
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("stats snapshot contended after %d attempts", maxSaveAttempts)
}
