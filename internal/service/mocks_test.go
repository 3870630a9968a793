package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ReviewsGo/internal/aggregate"
	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/ratingcache"
	"github.com/utafrali/ReviewsGo/internal/repository"
)

// ---------------------------------------------------------------------------
// mocks
// ---------------------------------------------------------------------------

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Upsert(ctx context.Context, review *domain.Review) (*domain.Review, bool, error) {
	args := m.Called(ctx, review)
	var rv *domain.Review
	if args.Get(0) != nil {
		rv = args.Get(0).(*domain.Review)
	}
	return rv, args.Bool(1), args.Error(2)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	var rv *domain.Review
	if args.Get(0) != nil {
		rv = args.Get(0).(*domain.Review)
	}
	return rv, args.Error(1)
}

func (m *mockReviewRepository) GetByReviewer(ctx context.Context, shopID string, subject domain.Subject, reviewerID string) (*domain.Review, error) {
	args := m.Called(ctx, shopID, subject, reviewerID)
	var rv *domain.Review
	if args.Get(0) != nil {
		rv = args.Get(0).(*domain.Review)
	}
	return rv, args.Error(1)
}

func (m *mockReviewRepository) ListApproved(ctx context.Context, shopID string, subject domain.Subject, commentedOnly bool, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, shopID, subject, commentedOnly, page, perPage)
	var reviews []domain.Review
	if args.Get(0) != nil {
		reviews = args.Get(0).([]domain.Review)
	}
	return reviews, args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	var reviews []domain.Review
	if args.Get(0) != nil {
		reviews = args.Get(0).([]domain.Review)
	}
	return reviews, args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	args := m.Called(ctx, id, status)
	var rv *domain.Review
	if args.Get(0) != nil {
		rv = args.Get(0).(*domain.Review)
	}
	return rv, args.Error(1)
}

func (m *mockReviewRepository) UpdateStatusBulk(ctx context.Context, shopID string, ids []string, status domain.ReviewStatus) (int, []domain.Subject, error) {
	args := m.Called(ctx, shopID, ids, status)
	var subjects []domain.Subject
	if args.Get(1) != nil {
		subjects = args.Get(1).([]domain.Subject)
	}
	return args.Int(0), subjects, args.Error(2)
}

func (m *mockReviewRepository) UpdateStatusAllInShop(ctx context.Context, shopID string, status domain.ReviewStatus) (int, []domain.Subject, error) {
	args := m.Called(ctx, shopID, status)
	var subjects []domain.Subject
	if args.Get(1) != nil {
		subjects = args.Get(1).([]domain.Subject)
	}
	return args.Int(0), subjects, args.Error(2)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) ReviewedSubjectIDs(ctx context.Context, shopID, reviewerID string, subjectType domain.SubjectType) ([]string, error) {
	args := m.Called(ctx, shopID, reviewerID, subjectType)
	var ids []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	return ids, args.Error(1)
}

func (m *mockReviewRepository) ApprovedStats(ctx context.Context, subject domain.Subject) (repository.ApprovedStats, error) {
	args := m.Called(ctx, subject)
	return args.Get(0).(repository.ApprovedStats), args.Error(1)
}

type mockAggregateRepository struct {
	mock.Mock
}

func (m *mockAggregateRepository) Upsert(ctx context.Context, agg *domain.RatingAggregate) error {
	args := m.Called(ctx, agg)
	return args.Error(0)
}

func (m *mockAggregateRepository) Delete(ctx context.Context, subject domain.Subject) error {
	args := m.Called(ctx, subject)
	return args.Error(0)
}

func (m *mockAggregateRepository) Get(ctx context.Context, subject domain.Subject) (*domain.RatingAggregate, error) {
	args := m.Called(ctx, subject)
	var agg *domain.RatingAggregate
	if args.Get(0) != nil {
		agg = args.Get(0).(*domain.RatingAggregate)
	}
	return agg, args.Error(1)
}

type mockOptionRepository struct {
	mock.Mock
}

func (m *mockOptionRepository) ListEnabled(ctx context.Context, shopID string) ([]domain.VendorReviewOption, error) {
	args := m.Called(ctx, shopID)
	var options []domain.VendorReviewOption
	if args.Get(0) != nil {
		options = args.Get(0).([]domain.VendorReviewOption)
	}
	return options, args.Error(1)
}

func (m *mockOptionRepository) GetByID(ctx context.Context, id string) (*domain.VendorReviewOption, error) {
	args := m.Called(ctx, id)
	var opt *domain.VendorReviewOption
	if args.Get(0) != nil {
		opt = args.Get(0).(*domain.VendorReviewOption)
	}
	return opt, args.Error(1)
}

type mockPurchaseChecker struct {
	mock.Mock
}

func (m *mockPurchaseChecker) LatestDeliveredOrder(ctx context.Context, userID, productID string) (string, error) {
	args := m.Called(ctx, userID, productID)
	return args.String(0), args.Error(1)
}

func (m *mockPurchaseChecker) PurchasedProductIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var ids []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	return ids, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockPublisher) PublishReviewApproved(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockPublisher) PublishReviewRejected(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

// ---------------------------------------------------------------------------
// fixtures
// ---------------------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRefresher builds a refresher over a real engine and a real cache
// backed by miniredis, so refresh ordering and cache generation bumps are
// exercised for real.
func newTestRefresher(t *testing.T, repo *mockReviewRepository, aggRepo *mockAggregateRepository) (*Refresher, *ratingcache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	cache := ratingcache.New(client, time.Hour, testLogger())
	engine := aggregate.NewEngine(repo, aggRepo, testLogger())
	return NewRefresher(engine, cache, testLogger()), cache
}
