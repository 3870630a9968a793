package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/pkg/httputil"
	"github.com/utafrali/ReviewsGo/pkg/pagination"
	"github.com/utafrali/ReviewsGo/pkg/validator"
)

// ModerationHandler handles the admin moderation endpoints.
type ModerationHandler struct {
	moderation *service.ModerationService
	reviews    *service.ReviewService
	logger     *slog.Logger
}

// NewModerationHandler creates a new moderation HTTP handler.
func NewModerationHandler(moderation *service.ModerationService, reviews *service.ReviewService, logger *slog.Logger) *ModerationHandler {
	return &ModerationHandler{
		moderation: moderation,
		reviews:    reviews,
		logger:     logger,
	}
}

// SubmitReviewRequest is the JSON request body for the dashboard submit
// path, which merges into an existing review instead of rejecting
// duplicates.
type SubmitReviewRequest struct {
	SubjectType    string `json:"subject_type" validate:"required,oneof=product vendor"`
	SubjectID      string `json:"subject_id" validate:"required,uuid"`
	OptionID       string `json:"option_id" validate:"omitempty,uuid"`
	ReviewerID     string `json:"reviewer_id" validate:"required"`
	Rating         int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment        string `json:"comment" validate:"max=2000"`
	WouldRecommend bool   `json:"would_recommend"`
}

// MassActionRequest is the JSON request body for bulk moderation.
type MassActionRequest struct {
	Action string   `json:"action" validate:"required,oneof=approve reject"`
	IDs    []string `json:"ids" validate:"dive,uuid"`
	All    bool     `json:"all"`
}

// ListReviews handles GET /api/v1/admin/reviews
//
// Query params: status, subject_type, subject_id, reviewer_id, page,
// per_page.
func (h *ModerationHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Shop-ID header is required"},
		})
		return
	}

	params := pagination.FromRequest(r)
	filter := repository.ReviewFilter{
		ShopID:  shopID,
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.ReviewStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("subject_type"); v != "" {
		st := domain.SubjectType(v)
		filter.SubjectType = &st
	}
	if v := r.URL.Query().Get("subject_id"); v != "" {
		filter.SubjectID = &v
	}
	if v := r.URL.Query().Get("reviewer_id"); v != "" {
		filter.ReviewerID = &v
	}

	reviews, total, err := h.moderation.ListReviews(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(reviews, total, params.Page, params.PerPage))
}

// GetReview handles GET /api/v1/admin/reviews/{id}
func (h *ModerationHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.reviews.GetReview(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// SubmitReview handles POST /api/v1/admin/reviews
func (h *ModerationHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Shop-ID header is required"},
		})
		return
	}

	var req SubmitReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	var subject domain.Subject
	switch domain.SubjectType(req.SubjectType) {
	case domain.SubjectTypeProduct:
		subject = domain.ProductSubject(req.SubjectID)
	case domain.SubjectTypeVendor:
		var optionID *string
		if req.OptionID != "" {
			optionID = &req.OptionID
		}
		subject = domain.VendorSubject(req.SubjectID, optionID)
	}

	input := service.ReviewInput{
		Rating:         req.Rating,
		Comment:        req.Comment,
		WouldRecommend: req.WouldRecommend,
	}

	review, created, err := h.reviews.SubmitReview(r.Context(), shopID, subject, req.ReviewerID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: review})
}

// ApproveReview handles POST /api/v1/admin/reviews/{id}/approve
func (h *ModerationHandler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.moderation.ApproveReview)
}

// RejectReview handles POST /api/v1/admin/reviews/{id}/reject
func (h *ModerationHandler) RejectReview(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.moderation.RejectReview)
}

func (h *ModerationHandler) setStatus(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id string) (*domain.Review, error)) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := apply(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// MassAction handles POST /api/v1/admin/reviews/mass-action
func (h *ModerationHandler) MassAction(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Shop-ID header is required"},
		})
		return
	}

	var req MassActionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	status := domain.ReviewStatusApproved
	if req.Action == "reject" {
		status = domain.ReviewStatusRejected
	}

	result, err := h.moderation.MassModerate(r.Context(), shopID, req.IDs, req.All, status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// DeleteReview handles DELETE /api/v1/admin/reviews/{id}
func (h *ModerationHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.reviews.DeleteReview(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
