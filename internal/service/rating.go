package service

import (
	"context"
	"hash/fnv"
	"log/slog"
	"strconv"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/ratingcache"
	"github.com/utafrali/ReviewsGo/internal/render"
	"github.com/utafrali/ReviewsGo/internal/repository"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

// RatingService serves the read side of ratings: the raw aggregate and the
// cached star-summary markup embedded by storefront widgets.
type RatingService struct {
	aggregates repository.AggregateRepository
	cache      *ratingcache.Cache
	logger     *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(aggregates repository.AggregateRepository, cache *ratingcache.Cache, logger *slog.Logger) *RatingService {
	return &RatingService{
		aggregates: aggregates,
		cache:      cache,
		logger:     logger,
	}
}

// GetAggregate returns the rating aggregate of a subject, or nil when the
// subject has no approved reviews. Absence is a valid answer, not an error.
func (s *RatingService) GetAggregate(ctx context.Context, subject domain.Subject) (*domain.RatingAggregate, error) {
	if subject.ID == "" {
		return nil, apperrors.InvalidInput("subject id is required")
	}
	if !subject.Type.Valid() {
		return nil, apperrors.InvalidInput("subject type must be product or vendor")
	}

	return s.aggregates.Get(ctx, subject)
}

// RenderSummary returns the star-rating markup for a subject, or "" when
// there is nothing to render. Served from the cache when possible; a cache
// miss falls through to the aggregate store and back-fills the cache,
// including the no-content case so absent subjects do not hammer Postgres.
func (s *RatingService) RenderSummary(ctx context.Context, subject domain.Subject, opts render.Options) (string, error) {
	if subject.ID == "" {
		return "", apperrors.InvalidInput("subject id is required")
	}
	if !subject.Type.Valid() {
		return "", apperrors.InvalidInput("subject type must be product or vendor")
	}

	variant := renderVariant(opts)

	if markup, ok := s.cache.Get(ctx, subject, variant); ok {
		return markup, nil
	}

	agg, err := s.aggregates.Get(ctx, subject)
	if err != nil {
		return "", err
	}
	if agg == nil {
		s.cache.Put(ctx, subject, variant, "")
		return "", nil
	}

	markup, err := render.Summary(agg, opts)
	if err != nil {
		return "", err
	}

	s.cache.Put(ctx, subject, variant, markup)

	s.logger.DebugContext(ctx, "rating summary rendered",
		slog.String("subject", subject.Key()),
		slog.Float64("rating", agg.DisplayRating()),
		slog.Int("review_count", agg.ReviewCount),
	)

	return markup, nil
}

// renderVariant fingerprints the rendering options so differently configured
// widgets do not share cache entries. Subject invalidation covers every
// variant at once.
func renderVariant(opts render.Options) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(opts.Title))
	if opts.ShowRecommenders {
		_, _ = h.Write([]byte{1})
	}
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}
