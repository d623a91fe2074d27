package discovery

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// actionHistorySize bounds the per-user swipe ledger backing rewind.
const actionHistorySize = 10

type Repository interface {
	// Profiles
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	GetProfiles(ctx context.Context, userIDs []int64) ([]*Profile, error)
	FindCandidates(ctx context.Context, userID int64, prefs *Preference, limit int) ([]*Profile, error)
	UpdateSkillRating(ctx context.Context, userID int64, rating int) error

	// Preferences
	GetPreference(ctx context.Context, userID int64) (*Preference, error)

	// Exclusion index
	GetExcludedIDs(ctx context.Context, userID int64) ([]int64, error)

	// Likes & passes
	CreateLike(ctx context.Context, like *Like) (bool, error)
	UpgradeLikeSuper(ctx context.Context, actorID, targetID int64) (bool, error)
	HasLiked(ctx context.Context, actorID, targetID int64) (bool, error)
	DeleteLike(ctx context.Context, actorID, targetID int64) error
	CreatePass(ctx context.Context, pass *Pass) error
	DeletePass(ctx context.Context, actorID, targetID int64) error
	CountSuperLikesSince(ctx context.Context, userID int64, since time.Time) (int, error)

	// Matches
	CreateMatch(ctx context.Context, match *Match) error
	GetMatch(ctx context.Context, matchID string) (*Match, error)
	GetMatchByPair(ctx context.Context, user1ID, user2ID int64) (*Match, error)
	DeleteMatch(ctx context.Context, matchID string) error

	// Item unlocks
	GetUnlock(ctx context.Context, userID int64, itemType ItemType, targetID int64) (*ItemUnlock, error)
	CountQuotaUnlocks(ctx context.Context, userID int64, itemType ItemType) (int, error)
	CreateUnlock(ctx context.Context, unlock *ItemUnlock) (bool, error)

	// Action history
	RecordAction(ctx context.Context, action *SwipeAction) error
	LatestAction(ctx context.Context, userID int64) (*SwipeAction, error)
	DeleteAction(ctx context.Context, actionID int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// Profile Methods

const profileColumns = `
	id, display_name, birth_date,
	EXTRACT(YEAR FROM AGE(birth_date))::int AS age,
	gender, bio, city, latitude, longitude,
	passport_city, passport_latitude, passport_longitude, passport_expires_at,
	height, religion, education, drinking, smoking, exercise, diet,
	wants_kids, relationship_goal, interests,
	is_verified, photo_count, completion_score, skill_rating,
	last_active, created_at, updated_at
`

func (r *postgresRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	var profile Profile
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	err := r.db.GetContext(ctx, &profile, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// GetProfiles fetches fresh detail for a set of identities, preserving
// the order of userIDs. Used when serving a cached top-picks list.
func (r *postgresRepository) GetProfiles(ctx context.Context, userIDs []int64) ([]*Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var profiles []*Profile
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1)`

	err := r.db.SelectContext(ctx, &profiles, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	ordered := make([]*Profile, 0, len(userIDs))
	for _, id := range userIDs {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

// FindCandidates sources the candidate pool. The coarse predicates
// (gender, age window, exclusion set) run in SQL against the
// (gender, birth_date) index so the full profile population is never
// scanned; the finer preference filters run in memory afterwards.
// Ordering by id keeps downstream ranking deterministic.
func (r *postgresRepository) FindCandidates(ctx context.Context, userID int64, prefs *Preference, limit int) ([]*Profile, error) {
	excluded, err := r.GetExcludedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	var candidates []*Profile
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE id <> ALL($1)
		  AND EXTRACT(YEAR FROM AGE(birth_date)) BETWEEN $2 AND $3
		  AND ($4::text[] IS NULL OR gender = ANY($4))
		ORDER BY id
		LIMIT $5
	`

	var genders interface{}
	if len(prefs.Genders) > 0 {
		genders = pq.Array([]string(prefs.Genders))
	}

	err = r.db.SelectContext(ctx, &candidates, query,
		pq.Array(excluded), prefs.MinAge, prefs.MaxAge, genders, limit)
	if err != nil {
		return nil, err
	}

	return candidates, nil
}

func (r *postgresRepository) UpdateSkillRating(ctx context.Context, userID int64, rating int) error {
	query := `UPDATE profiles SET skill_rating = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID, rating)
	return err
}

// Preference Methods

func (r *postgresRepository) GetPreference(ctx context.Context, userID int64) (*Preference, error) {
	var pref Preference
	query := `
		SELECT user_id, min_age, max_age, max_distance, genders,
		       min_height, max_height, relationship_goals, religions,
		       educations, drinking, smoking, exercise, diet,
		       verified_only, has_photos, has_bio, active_recently, updated_at
		FROM preferences
		WHERE user_id = $1
	`

	err := r.db.GetContext(ctx, &pref, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		// No stored row yet: wide-open defaults
		return &Preference{UserID: userID, MinAge: 18, MaxAge: 100}, nil
	}
	if err != nil {
		return nil, err
	}

	return &pref, nil
}

// Exclusion Index

// GetExcludedIDs computes the identities that must never be scored for
// a requester: self, already-liked targets, targets passed within the
// cooldown window, and blocks in either direction.
func (r *postgresRepository) GetExcludedIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids pq.Int64Array
	query := `
		SELECT ARRAY(
			SELECT $1::bigint
			UNION
			SELECT target_id FROM likes WHERE actor_id = $1
			UNION
			SELECT target_id FROM passes
			WHERE actor_id = $1 AND created_at > NOW() - INTERVAL '7 days'
			UNION
			SELECT blocked_id FROM blocks WHERE blocker_id = $1
			UNION
			SELECT blocker_id FROM blocks WHERE blocked_id = $1
		)
	`

	err := r.db.GetContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, err
	}

	return []int64(ids), nil
}

// Like & Pass Methods

// CreateLike inserts the directed edge, reporting false when the edge
// already existed. The (actor_id, target_id) uniqueness constraint is
// what makes concurrent duplicate likes benign.
func (r *postgresRepository) CreateLike(ctx context.Context, like *Like) (bool, error) {
	query := `
		INSERT INTO likes (actor_id, target_id, is_super)
		VALUES ($1, $2, $3)
		ON CONFLICT (actor_id, target_id) DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query, like.ActorID, like.TargetID, like.IsSuper).
		Scan(&like.ID, &like.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// UpgradeLikeSuper promotes an existing regular like to a super like,
// reporting whether a promotion happened. An already-super like is
// left untouched so repeat super-likes stay idempotent.
func (r *postgresRepository) UpgradeLikeSuper(ctx context.Context, actorID, targetID int64) (bool, error) {
	query := `
		UPDATE likes SET is_super = TRUE
		WHERE actor_id = $1 AND target_id = $2 AND is_super = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, actorID, targetID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	return affected > 0, err
}

func (r *postgresRepository) HasLiked(ctx context.Context, actorID, targetID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE actor_id = $1 AND target_id = $2)`

	err := r.db.GetContext(ctx, &exists, query, actorID, targetID)
	return exists, err
}

func (r *postgresRepository) DeleteLike(ctx context.Context, actorID, targetID int64) error {
	query := `DELETE FROM likes WHERE actor_id = $1 AND target_id = $2`
	_, err := r.db.ExecContext(ctx, query, actorID, targetID)
	return err
}

// CreatePass upserts the pass edge; a repeat pass refreshes the
// timestamp, restarting the cooldown window.
func (r *postgresRepository) CreatePass(ctx context.Context, pass *Pass) error {
	query := `
		INSERT INTO passes (actor_id, target_id)
		VALUES ($1, $2)
		ON CONFLICT (actor_id, target_id)
		DO UPDATE SET created_at = NOW()
		RETURNING id, created_at
	`

	return r.db.QueryRowxContext(ctx, query, pass.ActorID, pass.TargetID).
		Scan(&pass.ID, &pass.CreatedAt)
}

func (r *postgresRepository) DeletePass(ctx context.Context, actorID, targetID int64) error {
	query := `DELETE FROM passes WHERE actor_id = $1 AND target_id = $2`
	_, err := r.db.ExecContext(ctx, query, actorID, targetID)
	return err
}

func (r *postgresRepository) CountSuperLikesSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM likes WHERE actor_id = $1 AND is_super = TRUE AND created_at >= $2`

	err := r.db.GetContext(ctx, &count, query, userID, since)
	return count, err
}

// Match Methods

// CreateMatch writes the canonical pair record. Identity ordering is
// normalized here so both like directions produce the same row; a
// conflicting concurrent insert resolves to the existing match.
func (r *postgresRepository) CreateMatch(ctx context.Context, match *Match) error {
	if match.User1ID > match.User2ID {
		match.User1ID, match.User2ID = match.User2ID, match.User1ID
	}

	query := `
		INSERT INTO matches (id, user1_id, user2_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user1_id, user2_id) DO NOTHING
		RETURNING matched_at
	`

	err := r.db.QueryRowxContext(ctx, query, match.ID, match.User1ID, match.User2ID).
		Scan(&match.MatchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := r.GetMatchByPair(ctx, match.User1ID, match.User2ID)
		if err != nil {
			return err
		}
		*match = *existing
		return nil
	}

	return err
}

func (r *postgresRepository) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	var match Match
	query := `SELECT * FROM matches WHERE id = $1`

	err := r.db.GetContext(ctx, &match, query, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	return &match, nil
}

func (r *postgresRepository) GetMatchByPair(ctx context.Context, user1ID, user2ID int64) (*Match, error) {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}

	var match Match
	query := `SELECT * FROM matches WHERE user1_id = $1 AND user2_id = $2`

	err := r.db.GetContext(ctx, &match, query, user1ID, user2ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	return &match, nil
}

func (r *postgresRepository) DeleteMatch(ctx context.Context, matchID string) error {
	query := `DELETE FROM matches WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, matchID)
	return err
}

// Item Unlock Methods

func (r *postgresRepository) GetUnlock(ctx context.Context, userID int64, itemType ItemType, targetID int64) (*ItemUnlock, error) {
	var unlock ItemUnlock
	query := `SELECT * FROM item_unlocks WHERE user_id = $1 AND item_type = $2 AND target_id = $3`

	err := r.db.GetContext(ctx, &unlock, query, userID, itemType, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &unlock, nil
}

// CountQuotaUnlocks counts only quota-consuming unlocks; paid unlocks
// are disjoint from quota accounting.
func (r *postgresRepository) CountQuotaUnlocks(ctx context.Context, userID int64, itemType ItemType) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM item_unlocks
		WHERE user_id = $1 AND item_type = $2 AND method <> 'paid_unlock'
	`

	err := r.db.GetContext(ctx, &count, query, userID, itemType)
	return count, err
}

// CreateUnlock appends the unlock row, reporting false when the
// (user, item_type, target) triple already exists. That uniqueness
// constraint, not caller sequencing, guarantees quota is never
// double-consumed.
func (r *postgresRepository) CreateUnlock(ctx context.Context, unlock *ItemUnlock) (bool, error) {
	query := `
		INSERT INTO item_unlocks (user_id, item_type, target_id, method, payment_ref)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, item_type, target_id) DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		unlock.UserID, unlock.ItemType, unlock.TargetID, unlock.Method, unlock.PaymentRef).
		Scan(&unlock.ID, &unlock.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Action History Methods

// RecordAction appends to the swipe ledger and prunes it to the last
// actionHistorySize entries.
func (r *postgresRepository) RecordAction(ctx context.Context, action *SwipeAction) error {
	query := `
		INSERT INTO swipe_actions (user_id, target_id, action, match_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		action.UserID, action.TargetID, action.Action, action.MatchID).
		Scan(&action.ID, &action.CreatedAt)
	if err != nil {
		return err
	}

	prune := `
		DELETE FROM swipe_actions
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM swipe_actions
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		)
	`

	_, err = r.db.ExecContext(ctx, prune, action.UserID, actionHistorySize)
	return err
}

func (r *postgresRepository) LatestAction(ctx context.Context, userID int64) (*SwipeAction, error) {
	var action SwipeAction
	query := `
		SELECT * FROM swipe_actions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &action, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &action, nil
}

func (r *postgresRepository) DeleteAction(ctx context.Context, actionID int64) error {
	query := `DELETE FROM swipe_actions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, actionID)
	return err
}
