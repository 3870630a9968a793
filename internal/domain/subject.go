package domain

// SubjectType discriminates what kind of entity a review is attached to.
type SubjectType string

const (
	SubjectTypeProduct SubjectType = "product"
	SubjectTypeVendor  SubjectType = "vendor"
)

// Valid reports whether the subject type is one of the known variants.
func (t SubjectType) Valid() bool {
	return t == SubjectTypeProduct || t == SubjectTypeVendor
}

// Subject identifies the entity being rated: a product, or a vendor
// (supplier) optionally partitioned by a review option. Aggregates and
// cache entries are keyed per subject.
type Subject struct {
	Type     SubjectType `json:"type"`
	ID       string      `json:"id"`
	OptionID *string     `json:"option_id,omitempty"`
}

// ProductSubject builds the subject for a product review.
func ProductSubject(productID string) Subject {
	return Subject{Type: SubjectTypeProduct, ID: productID}
}

// VendorSubject builds the subject for a vendor review. optionID may be nil
// for option-less vendor reviews.
func VendorSubject(supplierID string, optionID *string) Subject {
	return Subject{Type: SubjectTypeVendor, ID: supplierID, OptionID: optionID}
}

// Key returns a stable string identity for the subject, e.g.
// "product:2b1f..." or "vendor:9acc...:opt-7d21...". Used for cache keys
// and for deduplicating subjects touched by bulk operations.
func (s Subject) Key() string {
	key := string(s.Type) + ":" + s.ID
	if s.OptionID != nil && *s.OptionID != "" {
		key += ":" + *s.OptionID
	}
	return key
}

// Equal reports whether two subjects identify the same (entity, option) pair.
func (s Subject) Equal(other Subject) bool {
	return s.Key() == other.Key()
}
