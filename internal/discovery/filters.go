package discovery

import (
	"time"

	"github.com/lib/pq"
)

const recentActivityWindow = 7 * 24 * time.Hour

// FilterOverrides is the closed set of ad-hoc predicates a premium
// user may apply on top of stored preferences. Zero values mean "no
// override".
type FilterOverrides struct {
	MinAge            int      `json:"min_age,omitempty" validate:"omitempty,min=18,max=100"`
	MaxAge            int      `json:"max_age,omitempty" validate:"omitempty,min=18,max=100"`
	MaxDistance       float64  `json:"max_distance,omitempty" validate:"omitempty,min=1,max=20000"`
	Genders           []string `json:"genders,omitempty"`
	MinHeight         int      `json:"min_height,omitempty" validate:"omitempty,min=100,max=250"`
	MaxHeight         int      `json:"max_height,omitempty" validate:"omitempty,min=100,max=250"`
	RelationshipGoals []string `json:"relationship_goals,omitempty"`
	Religions         []string `json:"religions,omitempty"`
	Educations        []string `json:"educations,omitempty"`
	Drinking          []string `json:"drinking,omitempty"`
	Smoking           []string `json:"smoking,omitempty"`
	Exercise          []string `json:"exercise,omitempty"`
	Diet              []string `json:"diet,omitempty"`
	VerifiedOnly      bool     `json:"verified_only,omitempty"`
	HasPhotos         bool     `json:"has_photos,omitempty"`
	HasBio            bool     `json:"has_bio,omitempty"`
	ActiveRecently    bool     `json:"active_recently,omitempty"`
}

// Empty reports whether no override is set at all. Empty overrides do
// not require a premium entitlement.
func (o *FilterOverrides) Empty() bool {
	if o == nil {
		return true
	}
	return o.MinAge == 0 && o.MaxAge == 0 && o.MaxDistance == 0 &&
		len(o.Genders) == 0 && o.MinHeight == 0 && o.MaxHeight == 0 &&
		len(o.RelationshipGoals) == 0 && len(o.Religions) == 0 &&
		len(o.Educations) == 0 && len(o.Drinking) == 0 &&
		len(o.Smoking) == 0 && len(o.Exercise) == 0 && len(o.Diet) == 0 &&
		!o.VerifiedOnly && !o.HasPhotos && !o.HasBio && !o.ActiveRecently
}

// MergePreferences layers ad-hoc overrides on top of a stored
// preference row, returning the effective filter configuration.
func MergePreferences(stored *Preference, overrides *FilterOverrides) *Preference {
	merged := *stored
	if overrides == nil {
		return &merged
	}

	if overrides.MinAge > 0 {
		merged.MinAge = overrides.MinAge
	}
	if overrides.MaxAge > 0 {
		merged.MaxAge = overrides.MaxAge
	}
	if overrides.MaxDistance > 0 {
		merged.MaxDistance = overrides.MaxDistance
	}
	if len(overrides.Genders) > 0 {
		merged.Genders = pq.StringArray(overrides.Genders)
	}
	if overrides.MinHeight > 0 {
		merged.MinHeight = &overrides.MinHeight
	}
	if overrides.MaxHeight > 0 {
		merged.MaxHeight = &overrides.MaxHeight
	}
	if len(overrides.RelationshipGoals) > 0 {
		merged.RelationshipGoals = pq.StringArray(overrides.RelationshipGoals)
	}
	if len(overrides.Religions) > 0 {
		merged.Religions = pq.StringArray(overrides.Religions)
	}
	if len(overrides.Educations) > 0 {
		merged.Educations = pq.StringArray(overrides.Educations)
	}
	if len(overrides.Drinking) > 0 {
		merged.Drinking = pq.StringArray(overrides.Drinking)
	}
	if len(overrides.Smoking) > 0 {
		merged.Smoking = pq.StringArray(overrides.Smoking)
	}
	if len(overrides.Exercise) > 0 {
		merged.Exercise = pq.StringArray(overrides.Exercise)
	}
	if len(overrides.Diet) > 0 {
		merged.Diet = pq.StringArray(overrides.Diet)
	}
	if overrides.VerifiedOnly {
		merged.VerifiedOnly = true
	}
	if overrides.HasPhotos {
		merged.HasPhotos = true
	}
	if overrides.HasBio {
		merged.HasBio = true
	}
	if overrides.ActiveRecently {
		merged.ActiveRecently = true
	}

	return &merged
}

// PassesFilters applies every hard-reject predicate of the effective
// preferences to a candidate. A missing candidate attribute never
// disqualifies; filters only reject on an explicit mismatch, which
// keeps thin profiles from starving the pool.
func PassesFilters(requester, candidate *Profile, prefs *Preference, now time.Time) bool {
	if candidate.Age < prefs.MinAge || candidate.Age > prefs.MaxAge {
		return false
	}

	if len(prefs.Genders) > 0 && !contains(prefs.Genders, candidate.Gender) {
		return false
	}

	if prefs.VerifiedOnly && !candidate.IsVerified {
		return false
	}
	if prefs.HasPhotos && candidate.PhotoCount == 0 {
		return false
	}
	if prefs.HasBio && !candidate.HasBio() {
		return false
	}
	if prefs.ActiveRecently && now.Sub(candidate.LastActive) > recentActivityWindow {
		return false
	}

	if candidate.Height != nil {
		if prefs.MinHeight != nil && *candidate.Height < *prefs.MinHeight {
			return false
		}
		if prefs.MaxHeight != nil && *candidate.Height > *prefs.MaxHeight {
			return false
		}
	}

	if mismatch(prefs.RelationshipGoals, candidate.RelationshipGoal) ||
		mismatch(prefs.Religions, candidate.Religion) ||
		mismatch(prefs.Educations, candidate.Education) ||
		mismatch(prefs.Drinking, candidate.Drinking) ||
		mismatch(prefs.Smoking, candidate.Smoking) ||
		mismatch(prefs.Exercise, candidate.Exercise) ||
		mismatch(prefs.Diet, candidate.Diet) {
		return false
	}

	if prefs.MaxDistance > 0 {
		from := EffectiveLocation(requester, now)
		to := EffectiveLocation(candidate, now)
		if from.Known && to.Known {
			distance := HaversineDistance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
			if distance > prefs.MaxDistance {
				return false
			}
		}
	}

	return true
}

// mismatch reports an explicit categorical mismatch: the user
// whitelisted values and the candidate declared one outside the list.
func mismatch(allowed []string, value *string) bool {
	if len(allowed) == 0 || value == nil || *value == "" {
		return false
	}
	return !contains(allowed, *value)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
