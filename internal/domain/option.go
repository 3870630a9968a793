package domain

import "time"

// VendorReviewOption is an optional secondary dimension for vendor reviews.
// When a shop defines options (e.g. "Delivery", "Communication"), vendor
// aggregates are partitioned per (supplier, option) instead of just per
// supplier.
type VendorReviewOption struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
