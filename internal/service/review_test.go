package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

const (
	testShopID     = "7f8c6d2a-1e9b-4c3f-8a5d-2b4e6f8a0c1d"
	testProductID  = "3a9b8c7d-6e5f-4a3b-2c1d-0e9f8a7b6c5d"
	testSupplierID = "5d4c3b2a-1f0e-4d3c-b2a1-9e8f7a6b5c4d"
	testReviewerID = "9e8d7c6b-5a4f-4e3d-2c1b-0a9f8e7d6c5b"
	testOptionID   = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
)

type reviewServiceFixture struct {
	repo     *mockReviewRepository
	options  *mockOptionRepository
	orders   *mockPurchaseChecker
	aggs     *mockAggregateRepository
	producer *mockPublisher
	svc      *ReviewService
}

func newReviewServiceFixture(t *testing.T) *reviewServiceFixture {
	t.Helper()
	f := &reviewServiceFixture{
		repo:     new(mockReviewRepository),
		options:  new(mockOptionRepository),
		orders:   new(mockPurchaseChecker),
		aggs:     new(mockAggregateRepository),
		producer: new(mockPublisher),
	}
	refresher, _ := newTestRefresher(t, f.repo, f.aggs)
	f.svc = NewReviewService(f.repo, f.options, f.orders, refresher, f.producer, testLogger())
	return f
}

// expectRefresh wires the recompute the refresher performs after a write:
// stats are re-read and the aggregate row is replaced or deleted.
func (f *reviewServiceFixture) expectRefresh(stats repository.ApprovedStats) {
	f.repo.On("ApprovedStats", mock.Anything, mock.Anything).Return(stats, nil)
	if stats.Count == 0 {
		f.aggs.On("Delete", mock.Anything, mock.Anything).Return(nil)
	} else {
		f.aggs.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	}
}

func TestReviewService_CreateProductReview(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.orders.On("LatestDeliveredOrder", mock.Anything, testReviewerID, testProductID).
		Return("order-42", nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	f.expectRefresh(repository.ApprovedStats{})
	f.producer.On("PublishReviewCreated", mock.Anything, mock.Anything).Return(nil)

	review, err := f.svc.CreateProductReview(context.Background(), testShopID, testProductID, testReviewerID, ReviewInput{
		Rating:         4,
		Comment:        "solid",
		WouldRecommend: true,
	})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(review.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, domain.ReviewStatusPending, review.Status)
	assert.Equal(t, domain.ProductSubject(testProductID), review.Subject)
	require.NotNil(t, review.OrderID)
	assert.Equal(t, "order-42", *review.OrderID)
	require.NotNil(t, review.Comment)
	assert.Equal(t, "solid", *review.Comment)

	f.repo.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestReviewService_CreateProductReview_NotPurchased(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.orders.On("LatestDeliveredOrder", mock.Anything, testReviewerID, testProductID).
		Return("", nil)

	_, err := f.svc.CreateProductReview(context.Background(), testShopID, testProductID, testReviewerID, ReviewInput{Rating: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_CreateProductReview_OrderServiceDown(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.orders.On("LatestDeliveredOrder", mock.Anything, testReviewerID, testProductID).
		Return("", errors.New("connection refused"))

	_, err := f.svc.CreateProductReview(context.Background(), testShopID, testProductID, testReviewerID, ReviewInput{Rating: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify purchase")

	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_CreateProductReview_InvalidRating(t *testing.T) {
	f := newReviewServiceFixture(t)

	for _, rating := range []int{0, -1, 6} {
		_, err := f.svc.CreateProductReview(context.Background(), testShopID, testProductID, testReviewerID, ReviewInput{Rating: rating})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "rating %d", rating)
	}

	f.orders.AssertNotCalled(t, "LatestDeliveredOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_CreateProductReview_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.orders.On("LatestDeliveredOrder", mock.Anything, testReviewerID, testProductID).
		Return("order-42", nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.expectRefresh(repository.ApprovedStats{})
	f.producer.On("PublishReviewCreated", mock.Anything, mock.Anything).
		Return(errors.New("broker unavailable"))

	review, err := f.svc.CreateProductReview(context.Background(), testShopID, testProductID, testReviewerID, ReviewInput{Rating: 3})
	require.NoError(t, err)
	assert.NotNil(t, review)
}

func TestReviewService_CreateVendorReview_WithOption(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.options.On("GetByID", mock.Anything, testOptionID).Return(&domain.VendorReviewOption{
		ID:      testOptionID,
		ShopID:  testShopID,
		Name:    "Delivery speed",
		Enabled: true,
	}, nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.Subject.Type == domain.SubjectTypeVendor &&
			r.Subject.ID == testSupplierID &&
			r.Subject.OptionID != nil && *r.Subject.OptionID == testOptionID
	})).Return(nil)
	f.expectRefresh(repository.ApprovedStats{})
	f.producer.On("PublishReviewCreated", mock.Anything, mock.Anything).Return(nil)

	review, err := f.svc.CreateVendorReview(context.Background(), testShopID, testSupplierID, testReviewerID, testOptionID, ReviewInput{Rating: 5})
	require.NoError(t, err)
	require.NotNil(t, review.Subject.OptionID)

	f.repo.AssertExpectations(t)
}

func TestReviewService_CreateVendorReview_OptionNotInShop(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.options.On("GetByID", mock.Anything, testOptionID).Return(&domain.VendorReviewOption{
		ID:      testOptionID,
		ShopID:  "00000000-0000-0000-0000-000000000001",
		Enabled: true,
	}, nil)

	_, err := f.svc.CreateVendorReview(context.Background(), testShopID, testSupplierID, testReviewerID, testOptionID, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_CreateVendorReview_DisabledOption(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.options.On("GetByID", mock.Anything, testOptionID).Return(&domain.VendorReviewOption{
		ID:      testOptionID,
		ShopID:  testShopID,
		Enabled: false,
	}, nil)

	_, err := f.svc.CreateVendorReview(context.Background(), testShopID, testSupplierID, testReviewerID, testOptionID, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestReviewService_CreateProductReview_InvalidatesCachedSummary(t *testing.T) {
	f := newReviewServiceFixture(t)

	refresher, cache := newTestRefresher(t, f.repo, f.aggs)
	f.svc = NewReviewService(f.repo, f.options, f.orders, refresher, f.producer, testLogger())

	subject := domain.ProductSubject(testProductID)
	cache.Put(context.Background(), subject, "", "<div>stale</div>")

	f.orders.On("LatestDeliveredOrder", mock.Anything, testReviewerID, testProductID).
		Return("order-42", nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.expectRefresh(repository.ApprovedStats{Count: 2, MeanRating: 4.5, WouldRecommendCount: 1})
	f.producer.On("PublishReviewCreated", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CreateProductReview(context.Background(), testShopID, testProductID, testReviewerID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	// Recompute ran, then the generation bump made the stale entry
	// unaddressable.
	_, hit := cache.Get(context.Background(), subject, "")
	assert.False(t, hit)
}

func TestReviewService_SubmitReview_Created(t *testing.T) {
	f := newReviewServiceFixture(t)

	subject := domain.ProductSubject(testProductID)
	persisted := &domain.Review{
		ID:      uuid.New().String(),
		ShopID:  testShopID,
		Subject: subject,
		Status:  domain.ReviewStatusPending,
		Rating:  4,
	}

	f.repo.On("Upsert", mock.Anything, mock.Anything).Return(persisted, true, nil)
	f.expectRefresh(repository.ApprovedStats{})
	f.producer.On("PublishReviewCreated", mock.Anything, persisted).Return(nil)

	got, created, err := f.svc.SubmitReview(context.Background(), testShopID, subject, testReviewerID, ReviewInput{Rating: 4})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Same(t, persisted, got)

	f.producer.AssertExpectations(t)
}

func TestReviewService_SubmitReview_ProductDuplicateLeavesAggregateAlone(t *testing.T) {
	f := newReviewServiceFixture(t)

	subject := domain.ProductSubject(testProductID)
	existing := &domain.Review{
		ID:      uuid.New().String(),
		ShopID:  testShopID,
		Subject: subject,
		Status:  domain.ReviewStatusApproved,
		Rating:  5,
	}

	f.repo.On("Upsert", mock.Anything, mock.Anything).Return(existing, false, nil)

	got, created, err := f.svc.SubmitReview(context.Background(), testShopID, subject, testReviewerID, ReviewInput{Rating: 1})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 5, got.Rating)

	// The existing row was untouched, so nothing is recomputed or announced.
	f.repo.AssertNotCalled(t, "ApprovedStats", mock.Anything, mock.Anything)
	f.producer.AssertNotCalled(t, "PublishReviewCreated", mock.Anything, mock.Anything)
}

func TestReviewService_SubmitReview_VendorOverwriteRefreshes(t *testing.T) {
	f := newReviewServiceFixture(t)

	subject := domain.VendorSubject(testSupplierID, nil)
	overwritten := &domain.Review{
		ID:      uuid.New().String(),
		ShopID:  testShopID,
		Subject: subject,
		Status:  domain.ReviewStatusPending,
		Rating:  2,
	}

	f.repo.On("Upsert", mock.Anything, mock.Anything).Return(overwritten, false, nil)
	// The overwrite may have pulled an approved review out of the
	// aggregate, so it is re-derived even though no row was created.
	f.expectRefresh(repository.ApprovedStats{})

	_, created, err := f.svc.SubmitReview(context.Background(), testShopID, subject, testReviewerID, ReviewInput{Rating: 2})
	require.NoError(t, err)
	assert.False(t, created)

	f.repo.AssertCalled(t, "ApprovedStats", mock.Anything, mock.Anything)
	f.producer.AssertNotCalled(t, "PublishReviewCreated", mock.Anything, mock.Anything)
}

func TestReviewService_SubmitReview_InvalidSubjectType(t *testing.T) {
	f := newReviewServiceFixture(t)

	subject := domain.Subject{Type: "warehouse", ID: testProductID}
	_, _, err := f.svc.SubmitReview(context.Background(), testShopID, subject, testReviewerID, ReviewInput{Rating: 3})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestReviewService_ListPendingProductReviews(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.orders.On("PurchasedProductIDs", mock.Anything, testReviewerID).
		Return([]string{"prod-1", "prod-2", "prod-3"}, nil)
	f.repo.On("ReviewedSubjectIDs", mock.Anything, testShopID, testReviewerID, domain.SubjectTypeProduct).
		Return([]string{"prod-2"}, nil)

	pending, err := f.svc.ListPendingProductReviews(context.Background(), testShopID, testReviewerID)
	require.NoError(t, err)
	assert.Equal(t, []PendingProductReview{{ProductID: "prod-1"}, {ProductID: "prod-3"}}, pending)
}

func TestReviewService_ListPendingProductReviews_NoPurchases(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.orders.On("PurchasedProductIDs", mock.Anything, testReviewerID).Return([]string{}, nil)

	pending, err := f.svc.ListPendingProductReviews(context.Background(), testShopID, testReviewerID)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.NotNil(t, pending)

	f.repo.AssertNotCalled(t, "ReviewedSubjectIDs", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_ListReviewerReviews(t *testing.T) {
	f := newReviewServiceFixture(t)

	f.repo.On("List", mock.Anything, mock.MatchedBy(func(filter repository.ReviewFilter) bool {
		return filter.ShopID == testShopID &&
			filter.ReviewerID != nil && *filter.ReviewerID == testReviewerID &&
			filter.Status == nil
	})).Return([]domain.Review{{ID: "r-1"}}, 1, nil)

	reviews, total, err := f.svc.ListReviewerReviews(context.Background(), testShopID, testReviewerID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, reviews, 1)
}

func TestReviewService_DeleteReview(t *testing.T) {
	f := newReviewServiceFixture(t)

	reviewID := uuid.New().String()
	subject := domain.ProductSubject(testProductID)

	f.repo.On("GetByID", mock.Anything, reviewID).Return(&domain.Review{
		ID:      reviewID,
		Subject: subject,
	}, nil)
	f.repo.On("Delete", mock.Anything, reviewID).Return(nil)
	f.expectRefresh(repository.ApprovedStats{})

	err := f.svc.DeleteReview(context.Background(), reviewID)
	require.NoError(t, err)

	f.aggs.AssertCalled(t, "Delete", mock.Anything, subject)
}

func TestReviewService_DeleteReview_NotFound(t *testing.T) {
	f := newReviewServiceFixture(t)

	reviewID := uuid.New().String()
	f.repo.On("GetByID", mock.Anything, reviewID).
		Return(nil, apperrors.NotFound("review", reviewID))

	err := f.svc.DeleteReview(context.Background(), reviewID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
