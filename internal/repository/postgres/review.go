package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	"github.com/utafrali/ReviewsGo/pkg/database"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

const reviewColumns = `id, shop_id, subject_type, subject_id, option_id, reviewer_id, order_id,
		       rating, comment, would_recommend, status, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review. A duplicate for the uniqueness tuple of the
// review's subject maps to an already-exists error.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, shop_id, subject_type, subject_id, option_id, reviewer_id, order_id,
		                     rating, comment, would_recommend, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.ShopID,
		review.Subject.Type,
		review.Subject.ID,
		review.Subject.OptionID,
		review.ReviewerID,
		review.OrderID,
		review.Rating,
		review.Comment,
		review.WouldRecommend,
		review.Status,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "reviewer", review.ReviewerID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// Upsert inserts a review or merges it into the reviewer's existing row for
// the same subject. Product reviews keep the existing row untouched on
// conflict (first submission wins); vendor reviews overwrite rating, comment
// and recommendation and reset the status to pending for re-moderation.
func (r *ReviewRepository) Upsert(ctx context.Context, review *domain.Review) (*domain.Review, bool, error) {
	if review.Subject.Type == domain.SubjectTypeVendor {
		return r.upsertVendor(ctx, review)
	}
	return r.upsertProduct(ctx, review)
}

func (r *ReviewRepository) upsertProduct(ctx context.Context, review *domain.Review) (*domain.Review, bool, error) {
	query := `
		INSERT INTO reviews (id, shop_id, subject_type, subject_id, option_id, reviewer_id, order_id,
		                     rating, comment, would_recommend, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (shop_id, subject_id, reviewer_id) WHERE subject_type = 'product'
		DO NOTHING
		RETURNING ` + reviewColumns

	inserted, err := r.scanReview(r.pool.QueryRow(ctx, query,
		review.ID, review.ShopID, review.Subject.Type, review.Subject.ID, review.Subject.OptionID,
		review.ReviewerID, review.OrderID, review.Rating, review.Comment, review.WouldRecommend,
		review.Status, review.CreatedAt, review.UpdatedAt,
	))
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("upsert product review: %w", err)
	}

	// Conflict: the reviewer already reviewed this product. Keep the
	// existing row and hand it back.
	existing, err := r.GetByReviewer(ctx, review.ShopID, review.Subject, review.ReviewerID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("upsert product review: conflicting row disappeared")
	}
	return existing, false, nil
}

func (r *ReviewRepository) upsertVendor(ctx context.Context, review *domain.Review) (*domain.Review, bool, error) {
	query := `
		INSERT INTO reviews (id, shop_id, subject_type, subject_id, option_id, reviewer_id, order_id,
		                     rating, comment, would_recommend, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (shop_id, subject_id, reviewer_id, COALESCE(option_id, '00000000-0000-0000-0000-000000000000'))
		WHERE subject_type = 'vendor'
		DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			would_recommend = EXCLUDED.would_recommend,
			status = 'pending',
			updated_at = EXCLUDED.updated_at
		RETURNING ` + reviewColumns + `, (xmax = 0) AS inserted`

	var (
		rv       domain.Review
		inserted bool
	)
	row := r.pool.QueryRow(ctx, query,
		review.ID, review.ShopID, review.Subject.Type, review.Subject.ID, review.Subject.OptionID,
		review.ReviewerID, review.OrderID, review.Rating, review.Comment, review.WouldRecommend,
		review.Status, review.CreatedAt, review.UpdatedAt,
	)
	if err := row.Scan(
		&rv.ID, &rv.ShopID, &rv.Subject.Type, &rv.Subject.ID, &rv.Subject.OptionID,
		&rv.ReviewerID, &rv.OrderID, &rv.Rating, &rv.Comment, &rv.WouldRecommend,
		&rv.Status, &rv.CreatedAt, &rv.UpdatedAt, &inserted,
	); err != nil {
		return nil, false, fmt.Errorf("upsert vendor review: %w", err)
	}

	return &rv, inserted, nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := r.scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return review, nil
}

// GetByReviewer retrieves the review a reviewer has left for a subject in a
// shop, or nil when none exists.
func (r *ReviewRepository) GetByReviewer(ctx context.Context, shopID string, subject domain.Subject, reviewerID string) (*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE shop_id = $1
		  AND subject_type = $2
		  AND subject_id = $3
		  AND option_id IS NOT DISTINCT FROM $4
		  AND reviewer_id = $5`

	review, err := r.scanReview(r.pool.QueryRow(ctx, query,
		shopID, subject.Type, subject.ID, subject.OptionID, reviewerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review by reviewer: %w", err)
	}

	return review, nil
}

// ListApproved returns approved reviews for a subject, newest first, along
// with the total count. When commentedOnly is set, reviews without a comment
// are excluded (the storefront comment feed).
func (r *ReviewRepository) ListApproved(ctx context.Context, shopID string, subject domain.Subject, commentedOnly bool, page, perPage int) ([]domain.Review, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT ` + reviewColumns + `,
		       count(*) OVER() AS total_count
		FROM reviews
		WHERE shop_id = $1
		  AND subject_type = $2
		  AND subject_id = $3
		  AND option_id IS NOT DISTINCT FROM $4
		  AND status = 'approved'`
	if commentedOnly {
		query += `
		  AND comment IS NOT NULL AND comment <> ''`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`

	rows, err := r.pool.Query(ctx, query, shopID, subject.Type, subject.ID, subject.OptionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list approved reviews: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

// List returns reviews matching the moderation filter along with the total count.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	var (
		conds []string
		args  []any
	)
	appendCond := func(expr string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	appendCond("shop_id = $%d", filter.ShopID)
	if filter.Status != nil {
		appendCond("status = $%d", *filter.Status)
	}
	if filter.SubjectType != nil {
		appendCond("subject_type = $%d", *filter.SubjectType)
	}
	if filter.SubjectID != nil {
		appendCond("subject_id = $%d", *filter.SubjectID)
	}
	if filter.ReviewerID != nil {
		appendCond("reviewer_id = $%d", *filter.ReviewerID)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT `+reviewColumns+`,
		       count(*) OVER() AS total_count
		FROM reviews
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

// UpdateStatus sets the moderation status of a single review and returns the
// updated record.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	query := `
		UPDATE reviews
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + reviewColumns

	review, err := r.scanReview(r.pool.QueryRow(ctx, query, id, status, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("update review status: %w", err)
	}

	return review, nil
}

// UpdateStatusBulk sets the status of every listed review belonging to the
// shop. Ids outside the shop are silently excluded by the scope filter.
func (r *ReviewRepository) UpdateStatusBulk(ctx context.Context, shopID string, ids []string, status domain.ReviewStatus) (int, []domain.Subject, error) {
	if len(ids) == 0 {
		return 0, nil, nil
	}

	query := `
		UPDATE reviews
		SET status = $3, updated_at = $4
		WHERE shop_id = $1 AND id = ANY($2)
		RETURNING subject_type, subject_id, option_id`

	rows, err := r.pool.Query(ctx, query, shopID, ids, status, time.Now().UTC())
	if err != nil {
		return 0, nil, fmt.Errorf("bulk update review status: %w", err)
	}
	defer rows.Close()

	return collectSubjects(rows)
}

// UpdateStatusAllInShop sets the status of every review in the shop.
func (r *ReviewRepository) UpdateStatusAllInShop(ctx context.Context, shopID string, status domain.ReviewStatus) (int, []domain.Subject, error) {
	query := `
		UPDATE reviews
		SET status = $2, updated_at = $3
		WHERE shop_id = $1
		RETURNING subject_type, subject_id, option_id`

	rows, err := r.pool.Query(ctx, query, shopID, status, time.Now().UTC())
	if err != nil {
		return 0, nil, fmt.Errorf("update all review statuses: %w", err)
	}
	defer rows.Close()

	return collectSubjects(rows)
}

// Delete removes a review by id.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

// ReviewedSubjectIDs returns the distinct subject ids of the given type the
// reviewer has reviewed in the shop, regardless of status.
func (r *ReviewRepository) ReviewedSubjectIDs(ctx context.Context, shopID, reviewerID string, subjectType domain.SubjectType) ([]string, error) {
	query := `
		SELECT DISTINCT subject_id
		FROM reviews
		WHERE shop_id = $1 AND reviewer_id = $2 AND subject_type = $3`

	rows, err := r.pool.Query(ctx, query, shopID, reviewerID, subjectType)
	if err != nil {
		return nil, fmt.Errorf("list reviewed subject ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subject id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subject ids: %w", err)
	}

	return ids, nil
}

// ApprovedStats computes count, mean rating and recommend count over the
// approved reviews of a subject. A zero count signals an absent aggregate;
// the mean is never synthesized from zero rows.
func (r *ReviewRepository) ApprovedStats(ctx context.Context, subject domain.Subject) (repository.ApprovedStats, error) {
	query := `
		SELECT count(*),
		       COALESCE(AVG(rating), 0),
		       count(*) FILTER (WHERE would_recommend)
		FROM reviews
		WHERE subject_type = $1
		  AND subject_id = $2
		  AND option_id IS NOT DISTINCT FROM $3
		  AND status = 'approved'`

	var stats repository.ApprovedStats
	err := r.pool.QueryRow(ctx, query, subject.Type, subject.ID, subject.OptionID).Scan(
		&stats.Count,
		&stats.MeanRating,
		&stats.WouldRecommendCount,
	)
	if err != nil {
		return repository.ApprovedStats{}, fmt.Errorf("approved review stats: %w", err)
	}

	return stats, nil
}

// scanReview scans a single review row.
func (r *ReviewRepository) scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID, &rv.ShopID, &rv.Subject.Type, &rv.Subject.ID, &rv.Subject.OptionID,
		&rv.ReviewerID, &rv.OrderID, &rv.Rating, &rv.Comment, &rv.WouldRecommend,
		&rv.Status, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// collectReviews drains rows that carry the review columns plus a trailing
// total_count window column.
func collectReviews(rows pgx.Rows) ([]domain.Review, int, error) {
	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.ShopID, &rv.Subject.Type, &rv.Subject.ID, &rv.Subject.OptionID,
			&rv.ReviewerID, &rv.OrderID, &rv.Rating, &rv.Comment, &rv.WouldRecommend,
			&rv.Status, &rv.CreatedAt, &rv.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// collectSubjects drains (subject_type, subject_id, option_id) rows from a
// bulk status update, counting every changed row and deduplicating the
// subjects so each aggregate is recomputed exactly once.
func collectSubjects(rows pgx.Rows) (int, []domain.Subject, error) {
	var (
		changed  int
		seen     = make(map[string]struct{})
		subjects []domain.Subject
	)

	for rows.Next() {
		var s domain.Subject
		if err := rows.Scan(&s.Type, &s.ID, &s.OptionID); err != nil {
			return 0, nil, fmt.Errorf("scan subject row: %w", err)
		}
		changed++
		if _, ok := seen[s.Key()]; ok {
			continue
		}
		seen[s.Key()] = struct{}{}
		subjects = append(subjects, s)
	}

	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterate subject rows: %w", err)
	}

	return changed, subjects, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
