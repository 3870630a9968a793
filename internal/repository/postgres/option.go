package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/pkg/database"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

// OptionRepository implements repository.OptionRepository using PostgreSQL.
type OptionRepository struct {
	pool database.DBTX
}

// NewOptionRepository creates a new PostgreSQL-backed option repository.
func NewOptionRepository(pool database.DBTX) *OptionRepository {
	return &OptionRepository{pool: pool}
}

// ListEnabled returns the enabled review options of a shop, by name.
func (r *OptionRepository) ListEnabled(ctx context.Context, shopID string) ([]domain.VendorReviewOption, error) {
	query := `
		SELECT id, shop_id, name, enabled, created_at, updated_at
		FROM vendor_review_options
		WHERE shop_id = $1 AND enabled
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("list review options: %w", err)
	}
	defer rows.Close()

	options := []domain.VendorReviewOption{}
	for rows.Next() {
		var opt domain.VendorReviewOption
		if err := rows.Scan(&opt.ID, &opt.ShopID, &opt.Name, &opt.Enabled, &opt.CreatedAt, &opt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan review option row: %w", err)
		}
		options = append(options, opt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review option rows: %w", err)
	}

	return options, nil
}

// GetByID retrieves an option by its ID.
func (r *OptionRepository) GetByID(ctx context.Context, id string) (*domain.VendorReviewOption, error) {
	query := `
		SELECT id, shop_id, name, enabled, created_at, updated_at
		FROM vendor_review_options
		WHERE id = $1`

	var opt domain.VendorReviewOption
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&opt.ID, &opt.ShopID, &opt.Name, &opt.Enabled, &opt.CreatedAt, &opt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review option", id)
		}
		return nil, fmt.Errorf("get review option: %w", err)
	}

	return &opt, nil
}
