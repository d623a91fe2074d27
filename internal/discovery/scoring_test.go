package discovery

import (
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func city(name string) *string { return &name }

func TestScoreBreakdown(t *testing.T) {
	now := time.Now()

	requester := &Profile{
		ID:        1,
		Age:       28,
		Interests: pq.StringArray{"music", "travel"},
		City:      city("Lagos"),
	}
	candidate := &Profile{
		ID:              2,
		Age:             30,
		Interests:       pq.StringArray{"travel", "hiking"},
		City:            city("Lagos"),
		CompletionScore: 80,
		PhotoCount:      3,
		LastActive:      now.Add(-3 * 24 * time.Hour),
	}

	var scorer Scorer
	score, factors := scorer.Score(requester, candidate, now)

	assert.Equal(t, 20.0, factors.Interests)
	assert.Equal(t, 30.0, factors.Location)
	assert.Equal(t, 12.0, factors.Completeness)
	assert.Equal(t, 10.0, factors.Activity)
	assert.Equal(t, 2.5, factors.Photos)
	assert.Equal(t, 74.5, score)
}

func TestScoreDifferentCityHalfLocationPoints(t *testing.T) {
	now := time.Now()

	requester := &Profile{ID: 1, Interests: pq.StringArray{"music"}, City: city("Lagos")}
	candidate := &Profile{ID: 2, City: city("Abuja"), LastActive: now}

	var scorer Scorer
	_, factors := scorer.Score(requester, candidate, now)
	assert.Equal(t, 15.0, factors.Location)
}

func TestScoreBounds(t *testing.T) {
	now := time.Now()
	var scorer Scorer

	profiles := []*Profile{
		{ID: 1},
		{ID: 2, Interests: pq.StringArray{"a", "b", "c"}, CompletionScore: 100, PhotoCount: 20, LastActive: now, City: city("X")},
		{ID: 3, CompletionScore: -50, LastActive: now.Add(-365 * 24 * time.Hour)},
	}

	for _, requester := range profiles {
		for _, candidate := range profiles {
			score, _ := scorer.Score(requester, candidate, now)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)

			score, _ = scorer.TopPicksScore(requester, candidate, now)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	}
}

func TestScoreNoInterestsZeroOverlap(t *testing.T) {
	now := time.Now()
	var scorer Scorer

	requester := &Profile{ID: 1}
	candidate := &Profile{ID: 2, Interests: pq.StringArray{"music"}}

	_, factors := scorer.Score(requester, candidate, now)
	assert.Zero(t, factors.Interests)
}

func TestTopPicksScoreAgeSimilarity(t *testing.T) {
	now := time.Now()
	var scorer Scorer

	requester := &Profile{ID: 1, Age: 30, Interests: pq.StringArray{"music"}}
	sameAge := &Profile{ID: 2, Age: 30, LastActive: now.Add(-30 * 24 * time.Hour)}
	tenApart := &Profile{ID: 3, Age: 40, LastActive: now.Add(-30 * 24 * time.Hour)}
	farApart := &Profile{ID: 4, Age: 55, LastActive: now.Add(-30 * 24 * time.Hour)}

	_, f1 := scorer.TopPicksScore(requester, sameAge, now)
	_, f2 := scorer.TopPicksScore(requester, tenApart, now)
	_, f3 := scorer.TopPicksScore(requester, farApart, now)

	assert.Equal(t, 20.0, f1.Age)
	assert.Equal(t, 10.0, f2.Age)
	assert.Zero(t, f3.Age)
}

func TestActivityPointsTiers(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 10.0, activityPoints(now.Add(-2*24*time.Hour), now, 10))
	assert.Equal(t, 5.0, activityPoints(now.Add(-10*24*time.Hour), now, 10))
	assert.Zero(t, activityPoints(now.Add(-30*24*time.Hour), now, 10))
}

func TestPhotoPointsCapped(t *testing.T) {
	assert.Equal(t, 5.0, photoPoints(6))
	assert.Equal(t, 5.0, photoPoints(12))
	assert.Equal(t, 2.5, photoPoints(3))
	assert.Zero(t, photoPoints(0))
}

func TestRankCandidatesDescendingAndDeterministic(t *testing.T) {
	now := time.Now()

	requester := &Profile{ID: 1, Interests: pq.StringArray{"music", "travel"}, City: city("Lagos")}

	candidates := make([]*Profile, 0, 6)
	for i := int64(2); i <= 4; i++ {
		// Identical profiles so scores tie; stable sort must keep id order
		candidates = append(candidates, &Profile{
			ID:        i,
			Interests: pq.StringArray{"music"},
			City:      city("Lagos"),
			LastActive: now,
		})
	}
	candidates = append(candidates, &Profile{
		ID:        5,
		Interests: pq.StringArray{"music", "travel"},
		City:      city("Lagos"),
		LastActive: now,
	})

	first := RankCandidates(requester, candidates, now, false)
	require.Len(t, first, 4)

	assert.Equal(t, int64(5), first[0].Profile.ID)
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i].Score, first[i-1].Score)
	}
	// Tied block preserves input order
	assert.Equal(t, int64(2), first[1].Profile.ID)
	assert.Equal(t, int64(3), first[2].Profile.ID)
	assert.Equal(t, int64(4), first[3].Profile.ID)

	second := RankCandidates(requester, candidates, now, false)
	for i := range first {
		assert.Equal(t, first[i].Profile.ID, second[i].Profile.ID, fmt.Sprintf("rank %d changed between runs", i))
	}
}
