package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ReviewsGo/internal/aggregate"
	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/ratingcache"
)

// Refresher re-derives the rating aggregate of a subject and invalidates its
// cached summary, in that order. Recompute-then-invalidate guarantees the
// next cache fill reads the new aggregate; the reverse order could re-cache
// the stale one.
type Refresher struct {
	engine *aggregate.Engine
	cache  *ratingcache.Cache
	logger *slog.Logger
}

// NewRefresher creates a refresher over the aggregation engine and the
// rating cache.
func NewRefresher(engine *aggregate.Engine, cache *ratingcache.Cache, logger *slog.Logger) *Refresher {
	return &Refresher{
		engine: engine,
		cache:  cache,
		logger: logger,
	}
}

// Refresh recomputes the subject's aggregate and bumps its cache generation.
func (r *Refresher) Refresh(ctx context.Context, subject domain.Subject) error {
	if _, err := r.engine.Recompute(ctx, subject); err != nil {
		return fmt.Errorf("recompute aggregate for %s: %w", subject.Key(), err)
	}

	r.cache.Invalidate(ctx, subject)

	return nil
}

// RefreshAll refreshes every subject in the slice, logging per-subject
// failures and returning the first error after attempting all of them. A
// failed refresh must not stop the remaining subjects from converging.
func (r *Refresher) RefreshAll(ctx context.Context, subjects []domain.Subject) error {
	var firstErr error
	for _, subject := range subjects {
		if err := r.Refresh(ctx, subject); err != nil {
			r.logger.ErrorContext(ctx, "failed to refresh rating aggregate",
				slog.String("subject", subject.Key()),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
