// Package aggregate maintains the denormalized per-subject rating
// aggregates. Recomputation always derives the full aggregate from the
// current approved review set, never from a prior aggregate state, so each
// run is idempotent and concurrent writers cannot lose each other's updates:
// the last recompute to commit reflects a consistent full snapshot.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
)

// StatsSource provides the raw approved-review statistics for a subject.
type StatsSource interface {
	ApprovedStats(ctx context.Context, subject domain.Subject) (repository.ApprovedStats, error)
}

// AggregateStore persists the derived aggregate rows.
type AggregateStore interface {
	Upsert(ctx context.Context, agg *domain.RatingAggregate) error
	Delete(ctx context.Context, subject domain.Subject) error
}

// Engine recomputes the rating aggregate of a subject from its approved
// review set. It must be invoked synchronously after every state-changing
// operation on a review of that subject: creation, status transition,
// deletion. Redundant invocations are safe.
type Engine struct {
	stats  StatsSource
	store  AggregateStore
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a new aggregation engine.
func NewEngine(stats StatsSource, store AggregateStore, logger *slog.Logger) *Engine {
	return &Engine{
		stats:  stats,
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Recompute derives the aggregate for the subject and persists it. When the
// subject has no approved reviews the aggregate row is deleted and the result
// is nil: the mean of zero elements is undefined and must map to absence,
// never to a stored 0 or NaN.
func (e *Engine) Recompute(ctx context.Context, subject domain.Subject) (*domain.RatingAggregate, error) {
	stats, err := e.stats.ApprovedStats(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", subject.Key(), err)
	}

	if stats.Count == 0 {
		if err := e.store.Delete(ctx, subject); err != nil {
			return nil, fmt.Errorf("recompute %s: %w", subject.Key(), err)
		}

		e.logger.DebugContext(ctx, "aggregate absent, row deleted",
			slog.String("subject", subject.Key()),
		)
		return nil, nil
	}

	agg := &domain.RatingAggregate{
		Subject:             subject,
		Rating:              stats.MeanRating,
		ReviewCount:         stats.Count,
		WouldRecommendCount: stats.WouldRecommendCount,
		UpdatedAt:           e.now(),
	}

	if err := e.store.Upsert(ctx, agg); err != nil {
		return nil, fmt.Errorf("recompute %s: %w", subject.Key(), err)
	}

	e.logger.DebugContext(ctx, "aggregate recomputed",
		slog.String("subject", subject.Key()),
		slog.Float64("rating", agg.Rating),
		slog.Int("review_count", agg.ReviewCount),
	)

	return agg, nil
}
