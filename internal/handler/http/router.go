package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/pkg/health"
	"github.com/utafrali/ReviewsGo/pkg/middleware"
)

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	moderationService *service.ModerationService,
	ratingService *service.RatingService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("reviews"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	reviewHandler := NewReviewHandler(reviewService, logger)
	ratingHandler := NewRatingHandler(ratingService, logger)
	moderationHandler := NewModerationHandler(moderationService, reviewService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(ShopIDFromHeader)

		// Storefront read endpoints, anonymous.
		r.Get("/products/{id}/reviews", reviewHandler.ListProductReviews)
		r.Get("/products/{id}/rating", ratingHandler.GetProductRating)
		r.Get("/products/{id}/rating/summary", ratingHandler.GetProductRatingSummary)
		r.Get("/vendors/{id}/reviews", reviewHandler.ListVendorReviews)
		r.Get("/vendors/{id}/rating", ratingHandler.GetVendorRating)
		r.Get("/vendors/{id}/rating/summary", ratingHandler.GetVendorRatingSummary)
		r.Get("/vendor-review-options", reviewHandler.ListVendorReviewOptions)

		// Storefront write and personal endpoints, authenticated.
		r.Group(func(r chi.Router) {
			r.Use(UserIDFromHeader)

			r.Post("/products/{id}/reviews", reviewHandler.CreateProductReview)
			r.Post("/vendors/{id}/reviews", reviewHandler.CreateVendorReview)
			r.Get("/reviews/mine", reviewHandler.ListOwnReviews)
			r.Get("/reviews/pending-products", reviewHandler.ListPendingProducts)
		})

		// Moderation endpoints; the gateway restricts these to staff.
		r.Route("/admin/reviews", func(r chi.Router) {
			r.Get("/", moderationHandler.ListReviews)
			r.Post("/", moderationHandler.SubmitReview)
			r.Post("/mass-action", moderationHandler.MassAction)
			r.Get("/{id}", moderationHandler.GetReview)
			r.Delete("/{id}", moderationHandler.DeleteReview)
			r.Post("/{id}/approve", moderationHandler.ApproveReview)
			r.Post("/{id}/reject", moderationHandler.RejectReview)
		})
	})

	return r
}
