package discovery

import (
	"time"

	"github.com/lib/pq"
)

// ItemType identifies which quota pool an unlock draws from.
type ItemType string

const (
	ItemProfile ItemType = "profile"
	ItemMatch   ItemType = "match"
	ItemLike    ItemType = "like"
)

// UnlockMethod records how access to an item was obtained.
type UnlockMethod string

const (
	MethodFreeQuota         UnlockMethod = "free_quota"
	MethodSubscriptionQuota UnlockMethod = "subscription_quota"
	MethodPaidUnlock        UnlockMethod = "paid_unlock"
)

// Swipe action types kept in the action history for rewind.
const (
	ActionLike      = "like"
	ActionPass      = "pass"
	ActionSuperLike = "super_like"
)

// Profile is the discovery-side read view of a user profile.
// Profile attributes are owned by the profile service; this core only
// ever writes back the skill rating.
type Profile struct {
	ID             int64      `json:"id" db:"id"`
	DisplayName    string     `json:"display_name" db:"display_name"`
	BirthDate      time.Time  `json:"birth_date" db:"birth_date"`
	Age            int        `json:"age" db:"age"`
	Gender         string     `json:"gender" db:"gender"`
	Bio            *string    `json:"bio,omitempty" db:"bio"`
	City           *string    `json:"city,omitempty" db:"city"`
	Latitude       *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude      *float64   `json:"longitude,omitempty" db:"longitude"`

	// Passport is a premium feature that temporarily overrides the
	// effective discovery location.
	PassportCity      *string    `json:"passport_city,omitempty" db:"passport_city"`
	PassportLatitude  *float64   `json:"passport_latitude,omitempty" db:"passport_latitude"`
	PassportLongitude *float64   `json:"passport_longitude,omitempty" db:"passport_longitude"`
	PassportExpiresAt *time.Time `json:"passport_expires_at,omitempty" db:"passport_expires_at"`

	// Lifestyle attributes used by the advanced filters.
	Height           *int    `json:"height,omitempty" db:"height"` // cm
	Religion         *string `json:"religion,omitempty" db:"religion"`
	Education        *string `json:"education,omitempty" db:"education"`
	Drinking         *string `json:"drinking,omitempty" db:"drinking"`
	Smoking          *string `json:"smoking,omitempty" db:"smoking"`
	Exercise         *string `json:"exercise,omitempty" db:"exercise"`
	Diet             *string `json:"diet,omitempty" db:"diet"`
	WantsKids        *string `json:"wants_kids,omitempty" db:"wants_kids"`
	RelationshipGoal *string `json:"relationship_goal,omitempty" db:"relationship_goal"`

	Interests pq.StringArray `json:"interests" db:"interests"`

	IsVerified      bool      `json:"is_verified" db:"is_verified"`
	PhotoCount      int       `json:"photo_count" db:"photo_count"`
	CompletionScore int       `json:"completion_score" db:"completion_score"` // 0-100
	SkillRating     int       `json:"skill_rating" db:"skill_rating"`
	LastActive      time.Time `json:"last_active" db:"last_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// HasBio reports whether the profile carries a non-empty bio.
func (p *Profile) HasBio() bool {
	return p.Bio != nil && *p.Bio != ""
}

// Preference is a user's stored filter configuration. The advanced
// fields below MinHeight are premium-only when supplied as ad-hoc
// overrides; stored values are always honored.
type Preference struct {
	UserID      int64          `json:"user_id" db:"user_id"`
	MinAge      int            `json:"min_age" db:"min_age"`
	MaxAge      int            `json:"max_age" db:"max_age"`
	MaxDistance float64        `json:"max_distance" db:"max_distance"` // km, 0 = no limit
	Genders     pq.StringArray `json:"genders" db:"genders"`

	MinHeight         *int           `json:"min_height,omitempty" db:"min_height"`
	MaxHeight         *int           `json:"max_height,omitempty" db:"max_height"`
	RelationshipGoals pq.StringArray `json:"relationship_goals,omitempty" db:"relationship_goals"`
	Religions         pq.StringArray `json:"religions,omitempty" db:"religions"`
	Educations        pq.StringArray `json:"educations,omitempty" db:"educations"`
	Drinking          pq.StringArray `json:"drinking,omitempty" db:"drinking"`
	Smoking           pq.StringArray `json:"smoking,omitempty" db:"smoking"`
	Exercise          pq.StringArray `json:"exercise,omitempty" db:"exercise"`
	Diet              pq.StringArray `json:"diet,omitempty" db:"diet"`
	VerifiedOnly      bool           `json:"verified_only" db:"verified_only"`
	HasPhotos         bool           `json:"has_photos" db:"has_photos"`
	HasBio            bool           `json:"has_bio" db:"has_bio"`
	ActiveRecently    bool           `json:"active_recently" db:"active_recently"` // active within 7 days

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Like is a directed edge: actor liked target.
type Like struct {
	ID        int64     `json:"id" db:"id"`
	ActorID   int64     `json:"actor_id" db:"actor_id"`
	TargetID  int64     `json:"target_id" db:"target_id"`
	IsSuper   bool      `json:"is_super" db:"is_super"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Pass is a directed edge: actor passed on target. Passes older than
// the cooldown window drop out of the exclusion set.
type Pass struct {
	ID        int64     `json:"id" db:"id"`
	ActorID   int64     `json:"actor_id" db:"actor_id"`
	TargetID  int64     `json:"target_id" db:"target_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Match is the undirected pair record created when both directional
// likes exist. User1ID < User2ID always holds (canonical ordering).
type Match struct {
	ID           string     `json:"id" db:"id"`
	User1ID      int64      `json:"user1_id" db:"user1_id"`
	User2ID      int64      `json:"user2_id" db:"user2_id"`
	User1Unread  int        `json:"user1_unread" db:"user1_unread"`
	User2Unread  int        `json:"user2_unread" db:"user2_unread"`
	LastMessage  *time.Time `json:"last_message_at,omitempty" db:"last_message_at"`
	MatchedAt    time.Time  `json:"matched_at" db:"matched_at"`
}

// ItemUnlock records obtained access to a specific target. Uniqueness
// on (user_id, item_type, target_id) is the idempotency guarantee.
type ItemUnlock struct {
	ID         int64        `json:"id" db:"id"`
	UserID     int64        `json:"user_id" db:"user_id"`
	ItemType   ItemType     `json:"item_type" db:"item_type"`
	TargetID   int64        `json:"target_id" db:"target_id"`
	Method     UnlockMethod `json:"method" db:"method"`
	PaymentRef *string      `json:"payment_ref,omitempty" db:"payment_ref"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// SwipeAction is one entry in the bounded per-user action history
// backing rewind. Only the newest entry within the rewind window can
// be undone.
type SwipeAction struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	TargetID  int64     `json:"target_id" db:"target_id"`
	Action    string    `json:"action" db:"action"`
	MatchID   *string   `json:"match_id,omitempty" db:"match_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TopPicks is a per-user cached ranked list, valid until the end of
// the local day it was generated on.
type TopPicks struct {
	UserID       int64     `json:"user_id"`
	CandidateIDs []int64   `json:"candidate_ids"`
	GeneratedAt  time.Time `json:"generated_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the entry must no longer be served.
func (t *TopPicks) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
