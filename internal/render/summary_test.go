package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ReviewsGo/internal/domain"
)

func sampleAggregate(rating float64, count, recommend int) *domain.RatingAggregate {
	return &domain.RatingAggregate{
		Subject:             domain.ProductSubject("prod-1"),
		Rating:              rating,
		ReviewCount:         count,
		WouldRecommendCount: recommend,
	}
}

func TestSummary_FullAndHalfStars(t *testing.T) {
	markup, err := Summary(sampleAggregate(4.333333333333333, 3, 2), Options{})
	require.NoError(t, err)

	// 4.333... rounds to 4.3 at the display layer: 4 full, 1 half, 0 empty.
	assert.Equal(t, 4, strings.Count(markup, "star-full"))
	assert.Equal(t, 1, strings.Count(markup, "star-half"))
	assert.Equal(t, 0, strings.Count(markup, "star-empty"))
	assert.Contains(t, markup, `data-rating="4.3"`)
	assert.Contains(t, markup, "3 reviews")
}

func TestSummary_WholeRating(t *testing.T) {
	markup, err := Summary(sampleAggregate(3.0, 1, 0), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(markup, "star-full"))
	assert.Equal(t, 0, strings.Count(markup, "star-half"))
	assert.Equal(t, 2, strings.Count(markup, "star-empty"))
	assert.Contains(t, markup, "1 review")
	assert.NotContains(t, markup, "1 reviews")
}

func TestSummary_Title(t *testing.T) {
	markup, err := Summary(sampleAggregate(4.0, 2, 1), Options{Title: "Customer Ratings:"})
	require.NoError(t, err)
	assert.Contains(t, markup, "Customer Ratings:")

	plain, err := Summary(sampleAggregate(4.0, 2, 1), Options{})
	require.NoError(t, err)
	assert.NotContains(t, plain, "rating-title")
}

func TestSummary_TitleIsEscaped(t *testing.T) {
	markup, err := Summary(sampleAggregate(4.0, 2, 1), Options{Title: "<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, markup, "<script>")
}

func TestSummary_Recommenders(t *testing.T) {
	markup, err := Summary(sampleAggregate(4.0, 4, 3), Options{ShowRecommenders: true})
	require.NoError(t, err)
	assert.Contains(t, markup, "75% would recommend")

	without, err := Summary(sampleAggregate(4.0, 4, 3), Options{})
	require.NoError(t, err)
	assert.NotContains(t, without, "would recommend")
}
