package discovery

import (
	"math"
	"sort"
	"time"
)

// Discovery score weights (points out of 100).
const (
	weightInterests    = 40.0
	weightLocation     = 30.0
	weightCompleteness = 15.0
	weightActivity     = 10.0
	weightPhotos       = 5.0

	maxCountedPhotos = 6
)

// Top-picks variant weights.
const (
	topPicksWeightInterests    = 40.0
	topPicksWeightAge          = 20.0
	topPicksWeightLocation     = 20.0
	topPicksWeightActivity     = 10.0
	topPicksWeightCompleteness = 10.0

	ageSimilaritySpread = 20.0
)

// ScoreFactors is the per-signal breakdown of a compatibility score.
type ScoreFactors struct {
	Interests    float64 `json:"interests"`
	Location     float64 `json:"location"`
	Completeness float64 `json:"completeness"`
	Activity     float64 `json:"activity"`
	Photos       float64 `json:"photos"`
	Age          float64 `json:"age,omitempty"`
}

// ScoredCandidate pairs a candidate profile with its computed score.
type ScoredCandidate struct {
	Profile *Profile      `json:"profile"`
	Score   float64       `json:"score"`
	Factors *ScoreFactors `json:"factors"`
}

// Scorer computes compatibility scores. It holds no state and never
// touches storage, so it is callable from both read-only and
// write-capable paths.
type Scorer struct{}

// Score produces the primary discovery score in [0,100]. Distance is
// not scored here; the filtered path hard-rejects on radius instead.
func (Scorer) Score(requester, candidate *Profile, now time.Time) (float64, *ScoreFactors) {
	f := &ScoreFactors{}

	f.Interests = interestOverlap(requester.Interests, candidate.Interests) * weightInterests
	f.Location = locationPoints(requester, candidate, now)
	f.Completeness = float64(candidate.CompletionScore) / 100 * weightCompleteness
	f.Activity = activityPoints(candidate.LastActive, now, weightActivity)
	f.Photos = photoPoints(candidate.PhotoCount)

	total := f.Interests + f.Location + f.Completeness + f.Activity + f.Photos
	return clampScore(total), f
}

// TopPicksScore produces the curated-list variant, trading photo
// count for age similarity and reweighting the rest.
func (Scorer) TopPicksScore(requester, candidate *Profile, now time.Time) (float64, *ScoreFactors) {
	f := &ScoreFactors{}

	f.Interests = interestOverlap(requester.Interests, candidate.Interests) * topPicksWeightInterests
	f.Age = ageSimilarity(requester.Age, candidate.Age) * topPicksWeightAge
	f.Location = locationPoints(requester, candidate, now) / weightLocation * topPicksWeightLocation
	f.Activity = activityPoints(candidate.LastActive, now, topPicksWeightActivity)
	f.Completeness = float64(candidate.CompletionScore) / 100 * topPicksWeightCompleteness

	total := f.Interests + f.Age + f.Location + f.Activity + f.Completeness
	return clampScore(total), f
}

// interestOverlap is |mutual| / max(|requester interests|, 1).
func interestOverlap(mine, theirs []string) float64 {
	if len(mine) == 0 {
		return 0
	}

	set := make(map[string]bool, len(mine))
	for _, interest := range mine {
		set[interest] = true
	}

	mutual := 0
	for _, interest := range theirs {
		if set[interest] {
			mutual++
		}
	}

	return float64(mutual) / float64(len(mine))
}

// locationPoints is a coarse binary signal: full points for a shared
// city label, half otherwise. Effective locations honor passport
// overrides.
func locationPoints(requester, candidate *Profile, now time.Time) float64 {
	a := EffectiveLocation(requester, now)
	b := EffectiveLocation(candidate, now)

	if a.City != "" && a.City == b.City {
		return weightLocation
	}
	return weightLocation / 2
}

func activityPoints(lastActive, now time.Time, full float64) float64 {
	since := now.Sub(lastActive)
	switch {
	case since <= 7*24*time.Hour:
		return full
	case since <= 14*24*time.Hour:
		return full / 2
	default:
		return 0
	}
}

func photoPoints(count int) float64 {
	if count > maxCountedPhotos {
		count = maxCountedPhotos
	}
	return float64(count) / maxCountedPhotos * weightPhotos
}

func ageSimilarity(age1, age2 int) float64 {
	diff := math.Abs(float64(age1 - age2))
	return math.Max(0, 1-diff/ageSimilaritySpread)
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RankCandidates scores every candidate against the requester and
// returns them in descending score order. The sort is stable, so ties
// keep the repository's deterministic id ordering.
func RankCandidates(requester *Profile, candidates []*Profile, now time.Time, topPicks bool) []*ScoredCandidate {
	var scorer Scorer

	scored := make([]*ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		var score float64
		var factors *ScoreFactors
		if topPicks {
			score, factors = scorer.TopPicksScore(requester, candidate, now)
		} else {
			score, factors = scorer.Score(requester, candidate, now)
		}
		scored = append(scored, &ScoredCandidate{
			Profile: candidate,
			Score:   score,
			Factors: factors,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}
