package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/debjit15/angrybolly/internal/domain"
	pkgkafka "github.com/debjit15/angrybolly/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewSubmitted  = "angrybolly.review.submitted"
	TopicDownloadTracked  = "angrybolly.download.tracked"
	TopicStatsOverwritten = "angrybolly.stats.overwritten"
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeStats  = "stats"
)

// Source identifier for events originating from this service.
const SourceReviewService = "reviews-service"

// ReviewSubmittedData is the payload for a review.submitted event. It carries
// only the public view plus the approval flag; email and identifier hashes
// never leave the service.
type ReviewSubmittedData struct {
	ReviewID  string    `json:"review_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Text      string    `json:"review"`
	Approved  bool      `json:"approved"`
	Timestamp time.Time `json:"timestamp"`
}

// StatsData is the payload for download.tracked and stats.overwritten events.
type StatsData struct {
	Downloads   int       `json:"downloads"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	LastUpdated time.Time `json:"last_updated"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the reviews service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review) error {
	data := ReviewSubmittedData{
		ReviewID:  review.ID,
		Name:      review.Name,
		Rating:    review.Rating,
		Text:      review.Text,
		Approved:  review.Approved,
		Timestamp: review.Timestamp,
	}

	event, err := pkgkafka.NewEvent(TopicReviewSubmitted, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.submitted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewSubmitted, event); err != nil {
		return fmt.Errorf("publish review.submitted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.submitted event",
		slog.String("review_id", review.ID),
		slog.Int("rating", review.Rating),
	)

	return nil
}

// PublishDownloadTracked publishes a download.tracked event.
func (p *Producer) PublishDownloadTracked(ctx context.Context, stats *domain.StatsSnapshot) error {
	return p.publishStats(ctx, TopicDownloadTracked, stats)
}

// PublishStatsOverwritten publishes a stats.overwritten event after an
// administrative overwrite.
func (p *Producer) PublishStatsOverwritten(ctx context.Context, stats *domain.StatsSnapshot) error {
	return p.publishStats(ctx, TopicStatsOverwritten, stats)
}

func (p *Producer) publishStats(ctx context.Context, topic string, stats *domain.StatsSnapshot) error {
	data := StatsData{
		Downloads:   stats.Downloads,
		Rating:      stats.Rating,
		Reviews:     stats.Reviews,
		LastUpdated: stats.LastUpdated,
	}

	event, err := pkgkafka.NewEvent(topic, AggregateTypeStats, AggregateTypeStats, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published stats event",
		slog.String("topic", topic),
		slog.Int("downloads", stats.Downloads),
	)

	return nil
}
