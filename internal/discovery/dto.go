package discovery

import "time"

// Candidate is one ranked, lock-annotated discovery result.
type Candidate struct {
	Profile      *Profile      `json:"profile"`
	Score        float64       `json:"score"`
	Factors      *ScoreFactors `json:"factors"`
	Locked       bool          `json:"locked"`
	DistanceKm   *float64      `json:"distance_km,omitempty"`
	PassportMode bool          `json:"passport_mode,omitempty"`
}

// SwipeResult reports the outcome of a like or super-like.
type SwipeResult struct {
	Matched bool    `json:"matched"`
	MatchID *string `json:"match_id,omitempty"`
}

// TopPicksResult is the curated daily list with its refresh time.
type TopPicksResult struct {
	Candidates  []*Candidate `json:"candidates"`
	RefreshesAt time.Time    `json:"refreshes_at"`
}

// UnlockResult reports how access was obtained.
type UnlockResult struct {
	Method UnlockMethod `json:"method"`
}

// Request DTOs

type UnlockDTO struct {
	ItemType   string  `json:"item_type" validate:"required,oneof=profile match like"`
	TargetID   int64   `json:"target_id" validate:"required,min=1"`
	PaymentRef *string `json:"payment_ref,omitempty"`
}

type FilteredDiscoveryDTO struct {
	Filters *FilterOverrides `json:"filters"`
	Limit   int              `json:"limit" validate:"omitempty,min=1,max=100"`
}
