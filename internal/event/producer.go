package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ReviewsGo/internal/domain"
	pkgkafka "github.com/utafrali/ReviewsGo/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated  = "ecommerce.review.created"
	TopicReviewApproved = "ecommerce.review.approved"
	TopicReviewRejected = "ecommerce.review.rejected"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from the review service.
const SourceReviewService = "review-service"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID          string `json:"id"`
	ShopID      string `json:"shop_id"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	OptionID    string `json:"option_id,omitempty"`
	ReviewerID  string `json:"reviewer_id"`
	Rating      int    `json:"rating"`
	Status      string `json:"status"`
}

// ReviewStatusData is the payload for review.approved and review.rejected
// events.
type ReviewStatusData struct {
	ID          string `json:"id"`
	ShopID      string `json:"shop_id"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	OptionID    string `json:"option_id,omitempty"`
	ReviewerID  string `json:"reviewer_id"`
	Status      string `json:"status"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:          review.ID,
		ShopID:      review.ShopID,
		SubjectType: string(review.Subject.Type),
		SubjectID:   review.Subject.ID,
		OptionID:    optionID(review),
		ReviewerID:  review.ReviewerID,
		Rating:      review.Rating,
		Status:      string(review.Status),
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("subject", review.Subject.Key()),
	)

	return nil
}

// PublishReviewApproved publishes a review.approved event.
func (p *Producer) PublishReviewApproved(ctx context.Context, review *domain.Review) error {
	return p.publishStatusChange(ctx, TopicReviewApproved, review)
}

// PublishReviewRejected publishes a review.rejected event.
func (p *Producer) PublishReviewRejected(ctx context.Context, review *domain.Review) error {
	return p.publishStatusChange(ctx, TopicReviewRejected, review)
}

func (p *Producer) publishStatusChange(ctx context.Context, topic string, review *domain.Review) error {
	data := ReviewStatusData{
		ID:          review.ID,
		ShopID:      review.ShopID,
		SubjectType: string(review.Subject.Type),
		SubjectID:   review.Subject.ID,
		OptionID:    optionID(review),
		ReviewerID:  review.ReviewerID,
		Status:      string(review.Status),
	}

	event, err := pkgkafka.NewEvent(topic, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review status event",
		slog.String("topic", topic),
		slog.String("review_id", review.ID),
		slog.String("status", string(review.Status)),
	)

	return nil
}

func optionID(review *domain.Review) string {
	if review.Subject.OptionID == nil {
		return ""
	}
	return *review.Subject.OptionID
}
