package domain

import (
	"math"
	"time"
)

// RatingAggregate is the denormalized rating summary for one subject,
// derived solely from approved reviews. The row is deleted, not zeroed,
// when the last approved review disappears: "no data" is distinct from a
// zero-rating aggregate and must never render as a 0.0-star widget.
type RatingAggregate struct {
	Subject             Subject   `json:"subject"`
	Rating              float64   `json:"rating"` // unrounded mean of approved ratings
	ReviewCount         int       `json:"review_count"`
	WouldRecommendCount int       `json:"would_recommend_count"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DisplayRating returns the mean rating rounded to one decimal place.
// Rounding happens at the display layer only; the stored value keeps the
// full float so recomputation is bit-stable.
func (a *RatingAggregate) DisplayRating() float64 {
	return math.Round(a.Rating*10) / 10
}

// RecommendPercent returns the share of approved reviewers that would
// recommend the subject, in [0, 1].
func (a *RatingAggregate) RecommendPercent() float64 {
	if a.ReviewCount == 0 {
		return 0
	}
	return float64(a.WouldRecommendCount) / float64(a.ReviewCount)
}
