// Package ratingcache caches rendered rating summaries per subject. It is a
// pure performance layer: Redis being unreachable degrades every read to a
// miss and every write to a no-op, never to stale or incorrect data.
//
// Invalidation bumps a per-key generation counter instead of deleting
// entries. The generation is composed into the physical value key, so
// entries written under an old generation simply stop being addressable;
// they age out via TTL without ever being enumerated.
package ratingcache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ReviewsGo/internal/domain"
)

const (
	genKeyPrefix   = "reviews:summary:gen:"
	valueKeyPrefix = "reviews:summary:"

	// sentinelNoContent marks a subject known to have nothing to render.
	// It is distinct from the empty string so a hit can short-circuit
	// rendering even for subjects with zero reviews, while an uncached
	// subject still reads as a miss.
	sentinelNoContent = "\x00no-content"
)

var (
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_cache_requests_total",
			Help: "Rating summary cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// Cache is a versioned Redis cache of rendered rating summaries keyed by
// subject.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a rating summary cache with the given entry TTL.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached rendered summary for the subject and rendering
// variant. The second return value reports a hit; a hit with an empty string
// means the subject is known to have no content to render. Backend errors
// are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, subject domain.Subject, variant string) (string, bool) {
	gen, ok := c.generation(ctx, subject)
	if !ok {
		cacheHits.WithLabelValues("error").Inc()
		return "", false
	}

	val, err := c.client.Get(ctx, c.valueKey(subject, variant, gen)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "rating cache read failed",
				slog.String("subject", subject.Key()),
				slog.String("error", err.Error()),
			)
			cacheHits.WithLabelValues("error").Inc()
			return "", false
		}
		cacheHits.WithLabelValues("miss").Inc()
		return "", false
	}

	cacheHits.WithLabelValues("hit").Inc()
	if val == sentinelNoContent {
		return "", true
	}
	return val, true
}

// Put stores the rendered summary for the subject and variant under the
// current generation. An empty value is stored as the no-content sentinel.
// Backend errors are logged and swallowed.
func (c *Cache) Put(ctx context.Context, subject domain.Subject, variant, value string) {
	gen, ok := c.generation(ctx, subject)
	if !ok {
		return
	}

	if value == "" {
		value = sentinelNoContent
	}

	if err := c.client.Set(ctx, c.valueKey(subject, variant, gen), value, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "rating cache write failed",
			slog.String("subject", subject.Key()),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate bumps the subject's generation counter, logically invalidating
// every entry written under the old generation. Must be called after any
// aggregate-affecting write. Backend errors are logged and swallowed: a
// failed bump leaves readers on the old generation until its TTL expires,
// which is the accepted degradation for an unavailable cache backend.
func (c *Cache) Invalidate(ctx context.Context, subject domain.Subject) {
	if err := c.client.Incr(ctx, genKeyPrefix+subject.Key()).Err(); err != nil {
		c.logger.WarnContext(ctx, "rating cache invalidation failed",
			slog.String("subject", subject.Key()),
			slog.String("error", err.Error()),
		)
		return
	}

	c.logger.DebugContext(ctx, "rating cache invalidated",
		slog.String("subject", subject.Key()),
	)
}

// generation reads the current generation counter for the subject. A missing
// counter reads as generation zero. The bool result is false on backend
// failure.
func (c *Cache) generation(ctx context.Context, subject domain.Subject) (int64, bool) {
	gen, err := c.client.Get(ctx, genKeyPrefix+subject.Key()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		c.logger.WarnContext(ctx, "rating cache generation read failed",
			slog.String("subject", subject.Key()),
			slog.String("error", err.Error()),
		)
		return 0, false
	}
	return gen, true
}

// valueKey composes the physical key. The generation invalidates every
// variant of the subject at once; variants only separate different
// renderings of the same data.
func (c *Cache) valueKey(subject domain.Subject, variant string, gen int64) string {
	key := valueKeyPrefix + subject.Key()
	if variant != "" {
		key += ":" + variant
	}
	return key + ":v" + strconv.FormatInt(gen, 10)
}
