package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateRatingsEqualPair(t *testing.T) {
	newA, newB := UpdateRatings(DefaultRating, DefaultRating)

	// Evenly matched: both expected 0.5, both gain K/2
	assert.Equal(t, 1508, newA)
	assert.Equal(t, 1508, newB)
}

func TestUpdateRatingsLowerRatedGainsMore(t *testing.T) {
	newA, newB := UpdateRatings(1200, 1800)

	gainA := newA - 1200
	gainB := newB - 1800

	assert.Greater(t, gainA, gainB)
	assert.Greater(t, gainA, 0)
	assert.GreaterOrEqual(t, gainB, 0)
}

func TestUpdateRatingsClamped(t *testing.T) {
	newA, newB := UpdateRatings(MaxRating, MaxRating-5)
	assert.LessOrEqual(t, newA, MaxRating)
	assert.LessOrEqual(t, newB, MaxRating)

	newA, newB = UpdateRatings(MinRating, MinRating)
	assert.GreaterOrEqual(t, newA, MinRating)
	assert.GreaterOrEqual(t, newB, MinRating)
}

func TestUpdateRatingsStaysInBoundsOverManyMatches(t *testing.T) {
	a, b := DefaultRating, DefaultRating
	for i := 0; i < 10000; i++ {
		a, b = UpdateRatings(a, b)
		assert.GreaterOrEqual(t, a, MinRating)
		assert.LessOrEqual(t, a, MaxRating)
		assert.GreaterOrEqual(t, b, MinRating)
		assert.LessOrEqual(t, b, MaxRating)
	}
	assert.Equal(t, MaxRating, a)
	assert.Equal(t, MaxRating, b)
}
