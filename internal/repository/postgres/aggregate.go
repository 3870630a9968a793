package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/pkg/database"
)

// AggregateRepository implements repository.AggregateRepository using
// PostgreSQL. One row per (subject_type, subject_id, option) pair; the row
// is deleted, never zeroed, when the subject has no approved reviews.
type AggregateRepository struct {
	pool database.DBTX
}

// NewAggregateRepository creates a new PostgreSQL-backed aggregate repository.
func NewAggregateRepository(pool database.DBTX) *AggregateRepository {
	return &AggregateRepository{pool: pool}
}

// Upsert inserts or replaces the aggregate row for the subject.
func (r *AggregateRepository) Upsert(ctx context.Context, agg *domain.RatingAggregate) error {
	query := `
		INSERT INTO rating_aggregates (subject_type, subject_id, option_id, rating, review_count, would_recommend_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subject_type, subject_id, COALESCE(option_id, '00000000-0000-0000-0000-000000000000'))
		DO UPDATE SET
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			would_recommend_count = EXCLUDED.would_recommend_count,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		agg.Subject.Type,
		agg.Subject.ID,
		agg.Subject.OptionID,
		agg.Rating,
		agg.ReviewCount,
		agg.WouldRecommendCount,
		agg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert rating aggregate: %w", err)
	}

	return nil
}

// Delete removes the aggregate row for the subject. Deleting a row that does
// not exist is not an error; recomputation calls this unconditionally when
// the approved review set is empty.
func (r *AggregateRepository) Delete(ctx context.Context, subject domain.Subject) error {
	query := `
		DELETE FROM rating_aggregates
		WHERE subject_type = $1
		  AND subject_id = $2
		  AND option_id IS NOT DISTINCT FROM $3`

	if _, err := r.pool.Exec(ctx, query, subject.Type, subject.ID, subject.OptionID); err != nil {
		return fmt.Errorf("delete rating aggregate: %w", err)
	}

	return nil
}

// Get returns the aggregate for the subject, or nil when absent.
func (r *AggregateRepository) Get(ctx context.Context, subject domain.Subject) (*domain.RatingAggregate, error) {
	query := `
		SELECT subject_type, subject_id, option_id, rating, review_count, would_recommend_count, updated_at
		FROM rating_aggregates
		WHERE subject_type = $1
		  AND subject_id = $2
		  AND option_id IS NOT DISTINCT FROM $3`

	var agg domain.RatingAggregate
	err := r.pool.QueryRow(ctx, query, subject.Type, subject.ID, subject.OptionID).Scan(
		&agg.Subject.Type,
		&agg.Subject.ID,
		&agg.Subject.OptionID,
		&agg.Rating,
		&agg.ReviewCount,
		&agg.WouldRecommendCount,
		&agg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rating aggregate: %w", err)
	}

	return &agg, nil
}
