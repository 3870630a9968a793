package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

func submitReviewJSON(subjectType string) []byte {
	b, _ := json.Marshal(SubmitReviewRequest{
		SubjectType:    subjectType,
		SubjectID:      testProductID,
		ReviewerID:     testUserID,
		Rating:         3,
		Comment:        "Average",
		WouldRecommend: false,
	})
	return b
}

// ============================================================================
// GET /api/v1/admin/reviews
// ============================================================================

func TestAdminListReviews(t *testing.T) {
	f := newRouterFixture(t)

	f.repo.On("List", mock.Anything, mock.MatchedBy(func(filter repository.ReviewFilter) bool {
		return filter.ShopID == testShopID &&
			filter.Status != nil && *filter.Status == domain.ReviewStatusPending &&
			filter.SubjectType != nil && *filter.SubjectType == domain.SubjectTypeProduct
	})).Return([]domain.Review{*sampleReview()}, 1, nil)

	rec := f.request(t, http.MethodGet,
		"/api/v1/admin/reviews/?status=pending&subject_type=product",
		nil, anonymousHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeReviewList(t, rec)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestAdminListReviews_InvalidStatus(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/admin/reviews/?status=archived",
		nil, anonymousHeaders())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

// ============================================================================
// POST /api/v1/admin/reviews
// ============================================================================

func TestAdminSubmitReview_Created(t *testing.T) {
	f := newRouterFixture(t)

	persisted := sampleReview()
	persisted.Status = domain.ReviewStatusPending
	f.repo.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.Review")).
		Return(persisted, true, nil)
	f.expectRefresh()

	rec := f.request(t, http.MethodPost, "/api/v1/admin/reviews",
		submitReviewJSON("product"), anonymousHeaders())

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminSubmitReview_ExistingProductReviewKept(t *testing.T) {
	f := newRouterFixture(t)

	existing := sampleReview()
	f.repo.On("Upsert", mock.Anything, mock.Anything).Return(existing, false, nil)

	rec := f.request(t, http.MethodPost, "/api/v1/admin/reviews",
		submitReviewJSON("product"), anonymousHeaders())

	// The earlier review wins; the response carries it back with 200.
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, testReviewID, data["id"])
}

func TestAdminSubmitReview_UnknownSubjectType(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/admin/reviews",
		submitReviewJSON("warehouse"), anonymousHeaders())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

// ============================================================================
// POST /api/v1/admin/reviews/{id}/approve and /reject
// ============================================================================

func TestAdminApproveReview(t *testing.T) {
	f := newRouterFixture(t)

	approved := sampleReview()
	approved.Status = domain.ReviewStatusApproved
	f.repo.On("UpdateStatus", mock.Anything, testReviewID, domain.ReviewStatusApproved).
		Return(approved, nil)
	f.expectRefresh()

	rec := f.request(t, http.MethodPost, "/api/v1/admin/reviews/"+testReviewID+"/approve",
		nil, anonymousHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "approved", data["status"])
}

func TestAdminRejectReview(t *testing.T) {
	f := newRouterFixture(t)

	rejected := sampleReview()
	rejected.Status = domain.ReviewStatusRejected
	f.repo.On("UpdateStatus", mock.Anything, testReviewID, domain.ReviewStatusRejected).
		Return(rejected, nil)
	f.expectRefresh()

	rec := f.request(t, http.MethodPost, "/api/v1/admin/reviews/"+testReviewID+"/reject",
		nil, anonymousHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminApproveReview_NotFound(t *testing.T) {
	f := newRouterFixture(t)

	f.repo.On("UpdateStatus", mock.Anything, testReviewID, domain.ReviewStatusApproved).
		Return(nil, apperrors.NotFound("review", testReviewID))

	rec := f.request(t, http.MethodPost, "/api/v1/admin/reviews/"+testReviewID+"/approve",
		nil, anonymousHeaders())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// POST /api/v1/admin/reviews/mass-action
// ============================================================================

func TestAdminMassAction_ApproveByIDs(t *testing.T) {
	f := newRouterFixture(t)

	ids := []string{"550e8400-e29b-41d4-a716-446655440011", "550e8400-e29b-41d4-a716-446655440012"}
	f.repo.On("UpdateStatusBulk", mock.Anything, testShopID, ids, domain.ReviewStatusApproved).
		Return(2, []domain.Subject{domain.ProductSubject("prod-1")}, nil)
	f.expectRefresh()

	body, _ := json.Marshal(MassActionRequest{Action: "approve", IDs: ids})
	rec := f.request(t, http.MethodPost, "/api/v1/admin/reviews/mass-action", body, anonymousHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["updated"])
	assert.Equal(t, float64(1), data["subjects_refreshed"])
}

func TestAdminMassAction_RejectAll(t *testing.T) {
	f := newRouterFixture(t)

	f.repo.On("UpdateStatusAllInShop", mock.Anything, testShopID, domain.ReviewStatusRejected).
		Return(9, []domain.Subject{domain.ProductSubject("prod-1"), domain.ProductSubject("prod-2")}, nil)
	f.expectRefresh()

	body, _ := json.Marshal(MassActionRequest{Action: "reject", All: true})
	rec := f.request(t, http.MethodPost, "/api/v1/admin/reviews/mass-action", body, anonymousHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(9), data["updated"])
}

func TestAdminMassAction_UnknownAction(t *testing.T) {
	f := newRouterFixture(t)

	body, _ := json.Marshal(MassActionRequest{Action: "archive", All: true})
	rec := f.request(t, http.MethodPost, "/api/v1/admin/reviews/mass-action", body, anonymousHeaders())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// GET and DELETE /api/v1/admin/reviews/{id}
// ============================================================================

func TestAdminGetReview(t *testing.T) {
	f := newRouterFixture(t)

	f.repo.On("GetByID", mock.Anything, testReviewID).Return(sampleReview(), nil)

	rec := f.request(t, http.MethodGet, "/api/v1/admin/reviews/"+testReviewID,
		nil, anonymousHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, testReviewID, data["id"])
}

func TestAdminDeleteReview(t *testing.T) {
	f := newRouterFixture(t)

	f.repo.On("GetByID", mock.Anything, testReviewID).Return(sampleReview(), nil)
	f.repo.On("Delete", mock.Anything, testReviewID).Return(nil)
	f.expectRefresh()

	rec := f.request(t, http.MethodDelete, "/api/v1/admin/reviews/"+testReviewID,
		nil, anonymousHeaders())

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminDeleteReview_NotFound(t *testing.T) {
	f := newRouterFixture(t)

	f.repo.On("GetByID", mock.Anything, testReviewID).
		Return(nil, apperrors.NotFound("review", testReviewID))

	rec := f.request(t, http.MethodDelete, "/api/v1/admin/reviews/"+testReviewID,
		nil, anonymousHeaders())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
