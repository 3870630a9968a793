package repository

import (
	"context"

	"github.com/utafrali/ReviewsGo/internal/domain"
)

// ReviewFilter defines filter criteria for listing reviews in moderation views.
type ReviewFilter struct {
	ShopID      string
	Status      *domain.ReviewStatus
	SubjectType *domain.SubjectType
	SubjectID   *string
	ReviewerID  *string
	Page        int
	PerPage     int
}

// ApprovedStats holds the raw statistics over the approved review set of one
// subject. A zero Count means no approved reviews exist; MeanRating is
// meaningless in that case and the aggregate must be treated as absent.
type ApprovedStats struct {
	Count               int
	MeanRating          float64
	WouldRecommendCount int
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review. A duplicate for the subject's uniqueness
	// tuple fails with an already-exists error; this is the storefront API
	// path, which rejects second attempts instead of merging.
	Create(ctx context.Context, review *domain.Review) error

	// Upsert inserts a review or merges it into the existing row for the
	// same (shop, subject, reviewer[, option]) tuple. Product reviews keep
	// the existing row untouched on conflict; vendor reviews overwrite
	// rating, comment and recommendation and reset status to pending.
	// Returns the persisted review and whether a new row was created.
	Upsert(ctx context.Context, review *domain.Review) (*domain.Review, bool, error)

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// GetByReviewer retrieves the review a reviewer has left for a subject
	// in a shop, or nil if none exists.
	GetByReviewer(ctx context.Context, shopID string, subject domain.Subject, reviewerID string) (*domain.Review, error)

	// ListApproved returns approved reviews for a subject, newest first,
	// along with the total count. When commentedOnly is set, reviews
	// without a comment are excluded.
	ListApproved(ctx context.Context, shopID string, subject domain.Subject, commentedOnly bool, page, perPage int) ([]domain.Review, int, error)

	// List returns reviews matching the given moderation filter along with
	// the total count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// UpdateStatus sets the moderation status of a single review and
	// returns the updated record.
	UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error)

	// UpdateStatusBulk sets the status of every listed review that belongs
	// to the given shop. Ids outside the shop are silently excluded.
	// Returns the number of rows changed and the distinct subjects touched.
	UpdateStatusBulk(ctx context.Context, shopID string, ids []string, status domain.ReviewStatus) (int, []domain.Subject, error)

	// UpdateStatusAllInShop sets the status of every review in the shop.
	// Returns the number of rows changed and the distinct subjects touched.
	UpdateStatusAllInShop(ctx context.Context, shopID string, status domain.ReviewStatus) (int, []domain.Subject, error)

	// Delete removes a review by id.
	Delete(ctx context.Context, id string) error

	// ReviewedSubjectIDs returns the distinct subject ids of the given type
	// the reviewer has reviewed in the shop, regardless of status. Used to
	// compute the purchased-but-unreviewed feed.
	ReviewedSubjectIDs(ctx context.Context, shopID, reviewerID string, subjectType domain.SubjectType) ([]string, error)

	// ApprovedStats computes count, mean rating and recommend count over
	// the approved reviews of a subject.
	ApprovedStats(ctx context.Context, subject domain.Subject) (ApprovedStats, error)
}

// AggregateRepository defines the interface for the denormalized rating
// aggregate store.
type AggregateRepository interface {
	// Upsert inserts or replaces the aggregate row for the subject.
	Upsert(ctx context.Context, agg *domain.RatingAggregate) error

	// Delete removes the aggregate row for the subject. Deleting a
	// non-existent row is not an error.
	Delete(ctx context.Context, subject domain.Subject) error

	// Get returns the aggregate for the subject, or nil when no approved
	// reviews exist. Absence is a valid state, not an error.
	Get(ctx context.Context, subject domain.Subject) (*domain.RatingAggregate, error)
}

// OptionRepository defines the interface for vendor review options.
type OptionRepository interface {
	// ListEnabled returns the enabled review options of a shop.
	ListEnabled(ctx context.Context, shopID string) ([]domain.VendorReviewOption, error)

	// GetByID retrieves an option by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.VendorReviewOption, error)
}
