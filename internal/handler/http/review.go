package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/pkg/httputil"
	"github.com/utafrali/ReviewsGo/pkg/pagination"
	"github.com/utafrali/ReviewsGo/pkg/validator"
)

// ReviewHandler handles HTTP requests for storefront review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateReviewRequest is the JSON request body for creating a review.
type CreateReviewRequest struct {
	Rating         int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment        string `json:"comment" validate:"max=2000"`
	WouldRecommend bool   `json:"would_recommend"`
	OptionID       string `json:"option_id" validate:"omitempty,uuid"` // vendor reviews only
}

func (req CreateReviewRequest) input() service.ReviewInput {
	return service.ReviewInput{
		Rating:         req.Rating,
		Comment:        req.Comment,
		WouldRecommend: req.WouldRecommend,
	}
}

// CreateProductReview handles POST /api/v1/products/{id}/reviews
func (h *ReviewHandler) CreateProductReview(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireScope(w, r)
	if !ok {
		return
	}
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.CreateProductReview(r.Context(), shopID, productID.String(), userID, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// CreateVendorReview handles POST /api/v1/vendors/{id}/reviews
func (h *ReviewHandler) CreateVendorReview(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireScope(w, r)
	if !ok {
		return
	}
	supplierID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.CreateVendorReview(r.Context(), shopID, supplierID.String(), userID, req.OptionID, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// ListProductReviews handles GET /api/v1/products/{id}/reviews
//
// Query params: page, per_page, commented_only.
func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	h.listApproved(w, r, domain.ProductSubject(productID.String()))
}

// ListVendorReviews handles GET /api/v1/vendors/{id}/reviews
//
// Query params: page, per_page, commented_only, option_id.
func (h *ReviewHandler) ListVendorReviews(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	subject, ok := vendorSubjectFromQuery(w, r, supplierID.String())
	if !ok {
		return
	}

	h.listApproved(w, r, subject)
}

func (h *ReviewHandler) listApproved(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	shopID, ok := shopIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Shop-ID header is required"},
		})
		return
	}

	params := pagination.FromRequest(r)
	commentedOnly := r.URL.Query().Get("commented_only") == "true"

	reviews, total, err := h.service.ListApprovedReviews(r.Context(), shopID, subject, commentedOnly, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(reviews, total, params.Page, params.PerPage))
}

// ListOwnReviews handles GET /api/v1/reviews/mine
func (h *ReviewHandler) ListOwnReviews(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireScope(w, r)
	if !ok {
		return
	}

	params := pagination.FromRequest(r)

	reviews, total, err := h.service.ListReviewerReviews(r.Context(), shopID, userID, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(reviews, total, params.Page, params.PerPage))
}

// ListPendingProducts handles GET /api/v1/reviews/pending-products
//
// Returns the products the caller received but has not reviewed yet.
func (h *ReviewHandler) ListPendingProducts(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireScope(w, r)
	if !ok {
		return
	}

	pending, err := h.service.ListPendingProductReviews(r.Context(), shopID, userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pending})
}

// ListVendorReviewOptions handles GET /api/v1/vendor-review-options
func (h *ReviewHandler) ListVendorReviewOptions(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Shop-ID header is required"},
		})
		return
	}

	options, err := h.service.ListVendorReviewOptions(r.Context(), shopID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: options})
}

// requireScope pulls the shop and user identifiers off the request context.
// Both middlewares must be mounted on routes calling this.
func requireScope(w http.ResponseWriter, r *http.Request) (shopID, userID string, ok bool) {
	shopID, ok = shopIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Shop-ID header is required"},
		})
		return "", "", false
	}
	userID, ok = userIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return "", "", false
	}
	return shopID, userID, true
}

// vendorSubjectFromQuery builds a vendor subject, validating the optional
// option_id query parameter.
func vendorSubjectFromQuery(w http.ResponseWriter, r *http.Request, supplierID string) (domain.Subject, bool) {
	var optionID *string
	if v := r.URL.Query().Get("option_id"); v != "" {
		id, ok := httputil.ParseUUID(w, v)
		if !ok {
			return domain.Subject{}, false
		}
		s := id.String()
		optionID = &s
	}
	return domain.VendorSubject(supplierID, optionID), true
}
