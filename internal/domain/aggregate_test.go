package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayRating(t *testing.T) {
	tests := []struct {
		stored float64
		want   float64
	}{
		{4.333333333333333, 4.3},
		{4.25, 4.3},
		{4.24, 4.2},
		{5.0, 5.0},
		{1.0, 1.0},
	}

	for _, tt := range tests {
		agg := RatingAggregate{Rating: tt.stored}
		assert.Equal(t, tt.want, agg.DisplayRating())
	}
}

func TestRecommendPercent(t *testing.T) {
	agg := RatingAggregate{ReviewCount: 4, WouldRecommendCount: 3}
	assert.Equal(t, 0.75, agg.RecommendPercent())

	none := RatingAggregate{ReviewCount: 0, WouldRecommendCount: 0}
	assert.Zero(t, none.RecommendPercent())
}

func TestReviewHasComment(t *testing.T) {
	comment := "great"
	empty := ""

	assert.True(t, (&Review{Comment: &comment}).HasComment())
	assert.False(t, (&Review{Comment: &empty}).HasComment())
	assert.False(t, (&Review{}).HasComment())
}

func TestReviewStatusValid(t *testing.T) {
	assert.True(t, ReviewStatusPending.Valid())
	assert.True(t, ReviewStatusApproved.Valid())
	assert.True(t, ReviewStatusRejected.Valid())
	assert.False(t, ReviewStatus("archived").Valid())
}
