package discovery

import "math"

// Skill rating bounds and update factor.
const (
	DefaultRating = 1500
	MinRating     = 100
	MaxRating     = 3000
	ratingK       = 16
)

// UpdateRatings computes both parties' new skill ratings after a
// mutual match. A match is a mutually positive outcome, so both sides
// are scored as winners against the classic logistic expectation;
// the lower-rated party gains more.
func UpdateRatings(ratingA, ratingB int) (newA, newB int) {
	expectedA := 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
	expectedB := 1 / (1 + math.Pow(10, float64(ratingA-ratingB)/400))

	newA = clampRating(ratingA + int(math.Round(ratingK*(1-expectedA))))
	newB = clampRating(ratingB + int(math.Round(ratingK*(1-expectedB))))
	return newA, newB
}

func clampRating(rating int) int {
	if rating < MinRating {
		return MinRating
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}
