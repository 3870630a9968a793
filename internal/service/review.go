package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/event"
	"github.com/utafrali/ReviewsGo/internal/ordercheck"
	"github.com/utafrali/ReviewsGo/internal/repository"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

// ReviewInput holds the reviewer-supplied fields of a review.
type ReviewInput struct {
	Rating         int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment        string `json:"comment" validate:"max=2000"`
	WouldRecommend bool   `json:"would_recommend"`
}

// PendingProductReview is a product the reviewer received but has not yet
// reviewed.
type PendingProductReview struct {
	ProductID string `json:"product_id"`
}

// PurchaseChecker verifies product purchases against the order service.
type PurchaseChecker interface {
	LatestDeliveredOrder(ctx context.Context, userID, productID string) (string, error)
	PurchasedProductIDs(ctx context.Context, userID string) ([]string, error)
}

var _ PurchaseChecker = (*ordercheck.Client)(nil)

// EventPublisher emits review lifecycle events.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewApproved(ctx context.Context, review *domain.Review) error
	PublishReviewRejected(ctx context.Context, review *domain.Review) error
}

var _ EventPublisher = (*event.Producer)(nil)

// ReviewService implements the business logic for writing and reading
// reviews.
type ReviewService struct {
	repo      repository.ReviewRepository
	options   repository.OptionRepository
	orders    PurchaseChecker
	refresher *Refresher
	producer  EventPublisher
	logger    *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	repo repository.ReviewRepository,
	options repository.OptionRepository,
	orders PurchaseChecker,
	refresher *Refresher,
	producer EventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:      repo,
		options:   options,
		orders:    orders,
		refresher: refresher,
		producer:  producer,
		logger:    logger,
	}
}

// CreateProductReview creates a product review through the public API path.
// The reviewer must have a delivered order containing the product, and a
// second review for the same product is rejected rather than merged.
func (s *ReviewService) CreateProductReview(ctx context.Context, shopID, productID, reviewerID string, input ReviewInput) (*domain.Review, error) {
	if err := validateWriteIDs(shopID, productID, reviewerID); err != nil {
		return nil, err
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	orderID, err := s.orders.LatestDeliveredOrder(ctx, reviewerID, productID)
	if err != nil {
		return nil, fmt.Errorf("verify purchase: %w", err)
	}
	if orderID == "" {
		return nil, apperrors.InvalidInput("product can only be reviewed after a delivered order")
	}

	review := s.newReview(shopID, domain.ProductSubject(productID), reviewerID, input)
	review.OrderID = &orderID

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, review, true)

	return review, nil
}

// CreateVendorReview creates a vendor review through the public API path.
// optionID may be empty for option-less reviews; when set it must name an
// enabled option of the shop. A second review for the same (vendor, option)
// is rejected rather than merged.
func (s *ReviewService) CreateVendorReview(ctx context.Context, shopID, supplierID, reviewerID, optionID string, input ReviewInput) (*domain.Review, error) {
	if err := validateWriteIDs(shopID, supplierID, reviewerID); err != nil {
		return nil, err
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	option, err := s.resolveOption(ctx, shopID, optionID)
	if err != nil {
		return nil, err
	}

	review := s.newReview(shopID, domain.VendorSubject(supplierID, option), reviewerID, input)

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, review, true)

	return review, nil
}

// SubmitReview is the dashboard write path: it merges into the reviewer's
// existing review instead of rejecting duplicates. A product resubmission
// keeps the first review; a vendor resubmission overwrites it and resets the
// status to pending for re-moderation. Returns the persisted review and
// whether a new one was created.
func (s *ReviewService) SubmitReview(ctx context.Context, shopID string, subject domain.Subject, reviewerID string, input ReviewInput) (*domain.Review, bool, error) {
	if err := validateWriteIDs(shopID, subject.ID, reviewerID); err != nil {
		return nil, false, err
	}
	if !subject.Type.Valid() {
		return nil, false, apperrors.InvalidInput("subject type must be product or vendor")
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, false, err
	}

	if subject.Type == domain.SubjectTypeVendor && subject.OptionID != nil {
		if _, err := s.resolveOption(ctx, shopID, *subject.OptionID); err != nil {
			return nil, false, err
		}
	}

	persisted, created, err := s.repo.Upsert(ctx, s.newReview(shopID, subject, reviewerID, input))
	if err != nil {
		return nil, false, err
	}

	// A vendor resubmission may have pulled an approved review back to
	// pending; the product path never changes the existing row. Refresh
	// on create or overwrite, skip on untouched duplicates.
	if created || subject.Type == domain.SubjectTypeVendor {
		s.afterWrite(ctx, persisted, created)
	}

	return persisted, created, nil
}

// GetReview retrieves a review by id.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("review id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// ListApprovedReviews returns the approved reviews of a subject, newest
// first. commentedOnly restricts the list to reviews with a comment, the
// storefront widget feed.
func (s *ReviewService) ListApprovedReviews(ctx context.Context, shopID string, subject domain.Subject, commentedOnly bool, page, perPage int) ([]domain.Review, int, error) {
	if shopID == "" {
		return nil, 0, apperrors.InvalidInput("shop id is required")
	}
	if subject.ID == "" {
		return nil, 0, apperrors.InvalidInput("subject id is required")
	}

	return s.repo.ListApproved(ctx, shopID, subject, commentedOnly, page, perPage)
}

// ListReviewerReviews returns the reviewer's own reviews in the shop, any
// status, newest first.
func (s *ReviewService) ListReviewerReviews(ctx context.Context, shopID, reviewerID string, page, perPage int) ([]domain.Review, int, error) {
	if shopID == "" {
		return nil, 0, apperrors.InvalidInput("shop id is required")
	}
	if reviewerID == "" {
		return nil, 0, apperrors.InvalidInput("reviewer id is required")
	}

	filter := repository.ReviewFilter{
		ShopID:     shopID,
		ReviewerID: &reviewerID,
		Page:       page,
		PerPage:    perPage,
	}
	return s.repo.List(ctx, filter)
}

// ListPendingProductReviews returns the products the reviewer received but
// has not reviewed yet, most recent purchase first.
func (s *ReviewService) ListPendingProductReviews(ctx context.Context, shopID, reviewerID string) ([]PendingProductReview, error) {
	if shopID == "" {
		return nil, apperrors.InvalidInput("shop id is required")
	}
	if reviewerID == "" {
		return nil, apperrors.InvalidInput("reviewer id is required")
	}

	purchased, err := s.orders.PurchasedProductIDs(ctx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("list purchased products: %w", err)
	}
	if len(purchased) == 0 {
		return []PendingProductReview{}, nil
	}

	reviewed, err := s.repo.ReviewedSubjectIDs(ctx, shopID, reviewerID, domain.SubjectTypeProduct)
	if err != nil {
		return nil, err
	}

	reviewedSet := make(map[string]struct{}, len(reviewed))
	for _, id := range reviewed {
		reviewedSet[id] = struct{}{}
	}

	pending := []PendingProductReview{}
	for _, productID := range purchased {
		if _, ok := reviewedSet[productID]; ok {
			continue
		}
		pending = append(pending, PendingProductReview{ProductID: productID})
	}

	return pending, nil
}

// DeleteReview removes a review and refreshes its subject's aggregate.
func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("review id is required")
	}

	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.refresher.Refresh(ctx, review.Subject); err != nil {
		s.logger.ErrorContext(ctx, "failed to refresh aggregate after review delete",
			slog.String("review_id", id),
			slog.String("subject", review.Subject.Key()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
		slog.String("subject", review.Subject.Key()),
	)

	return nil
}

// ListVendorReviewOptions returns the enabled vendor review options of a shop.
func (s *ReviewService) ListVendorReviewOptions(ctx context.Context, shopID string) ([]domain.VendorReviewOption, error) {
	if shopID == "" {
		return nil, apperrors.InvalidInput("shop id is required")
	}
	return s.options.ListEnabled(ctx, shopID)
}

// newReview builds a pending review from the input. Moderation decides when
// it starts counting toward the aggregate.
func (s *ReviewService) newReview(shopID string, subject domain.Subject, reviewerID string, input ReviewInput) *domain.Review {
	now := time.Now().UTC()
	review := &domain.Review{
		ID:             uuid.New().String(),
		ShopID:         shopID,
		Subject:        subject,
		ReviewerID:     reviewerID,
		Rating:         input.Rating,
		WouldRecommend: input.WouldRecommend,
		Status:         domain.ReviewStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Comment != "" {
		review.Comment = &input.Comment
	}
	return review
}

// resolveOption validates an option id against the shop's enabled options
// and returns it in pointer form for the subject.
func (s *ReviewService) resolveOption(ctx context.Context, shopID, optionID string) (*string, error) {
	if optionID == "" {
		return nil, nil
	}

	option, err := s.options.GetByID(ctx, optionID)
	if err != nil {
		return nil, err
	}
	if option.ShopID != shopID || !option.Enabled {
		return nil, apperrors.InvalidInput("review option is not available in this shop")
	}

	return &optionID, nil
}

// afterWrite refreshes the subject's aggregate and publishes the created
// event. Neither failure is surfaced to the caller; the review is already
// persisted.
func (s *ReviewService) afterWrite(ctx context.Context, review *domain.Review, created bool) {
	if err := s.refresher.Refresh(ctx, review.Subject); err != nil {
		s.logger.ErrorContext(ctx, "failed to refresh aggregate after review write",
			slog.String("review_id", review.ID),
			slog.String("subject", review.Subject.Key()),
			slog.String("error", err.Error()),
		)
	}

	if created {
		if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.created event",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review written",
		slog.String("review_id", review.ID),
		slog.String("subject", review.Subject.Key()),
		slog.Bool("created", created),
		slog.Int("rating", review.Rating),
	)
}

func validateWriteIDs(shopID, subjectID, reviewerID string) error {
	if shopID == "" {
		return apperrors.InvalidInput("shop id is required")
	}
	if subjectID == "" {
		return apperrors.InvalidInput("subject id is required")
	}
	if reviewerID == "" {
		return apperrors.InvalidInput("reviewer id is required")
	}
	return nil
}

func validateRating(rating int) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	return nil
}
