package render

import "math"

// StarBreakdown describes how a mean rating maps onto a five-star widget.
type StarBreakdown struct {
	Full  int
	Empty int
	Half  bool
}

// StarsFromRating splits a mean rating in [1, 5] into full stars, empty
// stars and an optional half star. A fractional remainder of any size
// renders as a half star, so full + empty + (half ? 1 : 0) == 5.
func StarsFromRating(rating float64) StarBreakdown {
	full := int(math.Floor(rating))
	empty := int(math.Floor(5 - rating))
	return StarBreakdown{
		Full:  full,
		Empty: empty,
		Half:  full+empty < 5,
	}
}
