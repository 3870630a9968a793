package domain

import (
	"time"
)

// ReviewStatus is the moderation state of a review. Transitions are always
// re-enterable: moderators may flip between Approved and Rejected at any
// time, and either may be reverted to Pending.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Valid reports whether the status is one of the known moderation states.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a single customer review of a product or vendor.
//
// Uniqueness: one review per (shop, product, reviewer) for product reviews
// and one per (shop, supplier, reviewer, option) for vendor reviews,
// enforced by partial unique indexes and upsert semantics at write time.
type Review struct {
	ID             string       `json:"id"`
	ShopID         string       `json:"shop_id"`
	Subject        Subject      `json:"subject"`
	ReviewerID     string       `json:"reviewer_id"`
	OrderID        *string      `json:"order_id,omitempty"` // product reviews only
	Rating         int          `json:"rating"`
	Comment        *string      `json:"comment,omitempty"`
	WouldRecommend bool         `json:"would_recommend"`
	Status         ReviewStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HasComment reports whether the review carries a non-empty comment.
// Storefront comment feeds only show commented reviews.
func (r *Review) HasComment() bool {
	return r.Comment != nil && *r.Comment != ""
}
