package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/render"
	"github.com/utafrali/ReviewsGo/internal/service"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
	"github.com/utafrali/ReviewsGo/pkg/httputil"
)

// RatingHandler serves rating aggregates and the rendered star-summary
// markup fetched by storefront widgets.
type RatingHandler struct {
	service *service.RatingService
	logger  *slog.Logger
}

// NewRatingHandler creates a new rating HTTP handler.
func NewRatingHandler(svc *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		service: svc,
		logger:  logger,
	}
}

// GetProductRating handles GET /api/v1/products/{id}/rating
func (h *RatingHandler) GetProductRating(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	h.getAggregate(w, r, domain.ProductSubject(productID.String()))
}

// GetVendorRating handles GET /api/v1/vendors/{id}/rating
func (h *RatingHandler) GetVendorRating(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	subject, ok := vendorSubjectFromQuery(w, r, supplierID.String())
	if !ok {
		return
	}

	h.getAggregate(w, r, subject)
}

func (h *RatingHandler) getAggregate(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	agg, err := h.service.GetAggregate(r.Context(), subject)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if agg == nil {
		httputil.WriteError(w, r, apperrors.NotFound("rating", subject.Key()), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ratingResponse(agg)})
}

// GetProductRatingSummary handles GET /api/v1/products/{id}/rating/summary
//
// Returns the star-rating markup as text/html. Subjects with nothing to
// render answer 204.
func (h *RatingHandler) GetProductRatingSummary(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	h.renderSummary(w, r, domain.ProductSubject(productID.String()))
}

// GetVendorRatingSummary handles GET /api/v1/vendors/{id}/rating/summary
func (h *RatingHandler) GetVendorRatingSummary(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	subject, ok := vendorSubjectFromQuery(w, r, supplierID.String())
	if !ok {
		return
	}

	h.renderSummary(w, r, subject)
}

func (h *RatingHandler) renderSummary(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	opts := render.Options{
		Title:            r.URL.Query().Get("title"),
		ShowRecommenders: r.URL.Query().Get("show_recommenders") == "true",
	}

	markup, err := h.service.RenderSummary(r.Context(), subject, opts)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if markup == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}

// RatingResponse is the JSON shape of a rating aggregate, with the mean
// rounded for display.
type RatingResponse struct {
	Subject          domain.Subject `json:"subject"`
	Rating           float64        `json:"rating"`
	ReviewCount      int            `json:"review_count"`
	RecommendPercent float64        `json:"recommend_percent"`
}

func ratingResponse(agg *domain.RatingAggregate) RatingResponse {
	return RatingResponse{
		Subject:          agg.Subject,
		Rating:           agg.DisplayRating(),
		ReviewCount:      agg.ReviewCount,
		RecommendPercent: agg.RecommendPercent(),
	}
}
