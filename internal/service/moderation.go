package service

import (
	"context"
	"log/slog"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

// MassActionResult summarizes a bulk moderation action.
type MassActionResult struct {
	Updated  int `json:"updated"`
	Subjects int `json:"subjects_refreshed"`
}

// ModerationService implements the review moderation workflow. Status
// transitions are always re-enterable: a rejected review can be approved
// later and vice versa, and each transition re-derives the affected
// aggregates.
type ModerationService struct {
	repo      repository.ReviewRepository
	refresher *Refresher
	producer  EventPublisher
	logger    *slog.Logger
}

// NewModerationService creates a new moderation service.
func NewModerationService(repo repository.ReviewRepository, refresher *Refresher, producer EventPublisher, logger *slog.Logger) *ModerationService {
	return &ModerationService{
		repo:      repo,
		refresher: refresher,
		producer:  producer,
		logger:    logger,
	}
}

// ListReviews returns reviews matching the moderation filter, newest first.
func (s *ModerationService) ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	if filter.ShopID == "" {
		return nil, 0, apperrors.InvalidInput("shop id is required")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, apperrors.InvalidInput("status must be pending, approved or rejected")
	}
	if filter.SubjectType != nil && !filter.SubjectType.Valid() {
		return nil, 0, apperrors.InvalidInput("subject type must be product or vendor")
	}

	return s.repo.List(ctx, filter)
}

// ApproveReview approves a single review.
func (s *ModerationService) ApproveReview(ctx context.Context, id string) (*domain.Review, error) {
	return s.setStatus(ctx, id, domain.ReviewStatusApproved)
}

// RejectReview rejects a single review.
func (s *ModerationService) RejectReview(ctx context.Context, id string) (*domain.Review, error) {
	return s.setStatus(ctx, id, domain.ReviewStatusRejected)
}

func (s *ModerationService) setStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("review id is required")
	}

	review, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	if err := s.refresher.Refresh(ctx, review.Subject); err != nil {
		s.logger.ErrorContext(ctx, "failed to refresh aggregate after moderation",
			slog.String("review_id", id),
			slog.String("subject", review.Subject.Key()),
			slog.String("error", err.Error()),
		)
	}

	s.publishStatusEvent(ctx, review)

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", id),
		slog.String("subject", review.Subject.Key()),
		slog.String("status", string(status)),
	)

	return review, nil
}

// MassModerate applies a status to the given reviews of a shop, or to every
// review in the shop when all is set. An empty id set without all is a
// no-op; ids belonging to other shops are silently excluded. Each distinct
// affected subject is refreshed exactly once.
func (s *ModerationService) MassModerate(ctx context.Context, shopID string, ids []string, all bool, status domain.ReviewStatus) (*MassActionResult, error) {
	if shopID == "" {
		return nil, apperrors.InvalidInput("shop id is required")
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInput("status must be pending, approved or rejected")
	}

	var (
		changed  int
		subjects []domain.Subject
		err      error
	)
	if all {
		changed, subjects, err = s.repo.UpdateStatusAllInShop(ctx, shopID, status)
	} else {
		changed, subjects, err = s.repo.UpdateStatusBulk(ctx, shopID, ids, status)
	}
	if err != nil {
		return nil, err
	}

	if err := s.refresher.RefreshAll(ctx, subjects); err != nil {
		// Reviews are already transitioned; a stale aggregate heals on
		// the next successful refresh of its subject.
		s.logger.ErrorContext(ctx, "mass moderation left stale aggregates",
			slog.String("shop_id", shopID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "mass moderation applied",
		slog.String("shop_id", shopID),
		slog.String("status", string(status)),
		slog.Bool("all", all),
		slog.Int("updated", changed),
		slog.Int("subjects", len(subjects)),
	)

	return &MassActionResult{Updated: changed, Subjects: len(subjects)}, nil
}

// publishStatusEvent emits review.approved or review.rejected. Pending has
// no event; it is the initial state, not a moderation outcome.
func (s *ModerationService) publishStatusEvent(ctx context.Context, review *domain.Review) {
	var err error
	switch review.Status {
	case domain.ReviewStatusApproved:
		err = s.producer.PublishReviewApproved(ctx, review)
	case domain.ReviewStatusRejected:
		err = s.producer.PublishReviewRejected(ctx, review)
	default:
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review status event",
			slog.String("review_id", review.ID),
			slog.String("status", string(review.Status)),
			slog.String("error", err.Error()),
		)
	}
}
