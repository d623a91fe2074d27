package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// fakeRepository is an in-memory Repository honoring the same
// uniqueness and ordering contracts as the postgres implementation.
type fakeRepository struct {
	profiles map[int64]*Profile
	prefs    map[int64]*Preference
	likes    map[[2]int64]*Like
	passes   map[[2]int64]*Pass
	blocks   [][2]int64
	matches  map[string]*Match
	unlocks  map[string]*ItemUnlock
	actions  []*SwipeAction

	nextID int64
	now    func() time.Time
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		profiles: make(map[int64]*Profile),
		prefs:    make(map[int64]*Preference),
		likes:    make(map[[2]int64]*Like),
		passes:   make(map[[2]int64]*Pass),
		matches:  make(map[string]*Match),
		unlocks:  make(map[string]*ItemUnlock),
		now:      time.Now,
	}
}

func (f *fakeRepository) id() int64 {
	f.nextID++
	return f.nextID
}

func unlockKey(userID int64, itemType ItemType, targetID int64) string {
	return fmt.Sprintf("%d/%s/%d", userID, itemType, targetID)
}

func (f *fakeRepository) GetProfile(_ context.Context, userID int64) (*Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeRepository) GetProfiles(_ context.Context, userIDs []int64) ([]*Profile, error) {
	var out []*Profile
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepository) FindCandidates(ctx context.Context, userID int64, prefs *Preference, limit int) ([]*Profile, error) {
	excluded, _ := f.GetExcludedIDs(ctx, userID)
	skip := make(map[int64]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	var out []*Profile
	for _, p := range f.profiles {
		if skip[p.ID] {
			continue
		}
		if p.Age < prefs.MinAge || p.Age > prefs.MaxAge {
			continue
		}
		if len(prefs.Genders) > 0 && !contains(prefs.Genders, p.Gender) {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepository) UpdateSkillRating(_ context.Context, userID int64, rating int) error {
	p, ok := f.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.SkillRating = rating
	return nil
}

func (f *fakeRepository) GetPreference(_ context.Context, userID int64) (*Preference, error) {
	if pref, ok := f.prefs[userID]; ok {
		return pref, nil
	}
	return &Preference{UserID: userID, MinAge: 18, MaxAge: 100}, nil
}

func (f *fakeRepository) GetExcludedIDs(_ context.Context, userID int64) ([]int64, error) {
	seen := map[int64]bool{userID: true}

	for key := range f.likes {
		if key[0] == userID {
			seen[key[1]] = true
		}
	}
	cutoff := f.now().Add(-7 * 24 * time.Hour)
	for key, pass := range f.passes {
		if key[0] == userID && pass.CreatedAt.After(cutoff) {
			seen[key[1]] = true
		}
	}
	for _, b := range f.blocks {
		if b[0] == userID {
			seen[b[1]] = true
		}
		if b[1] == userID {
			seen[b[0]] = true
		}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeRepository) CreateLike(_ context.Context, like *Like) (bool, error) {
	key := [2]int64{like.ActorID, like.TargetID}
	if _, exists := f.likes[key]; exists {
		return false, nil
	}
	like.ID = f.id()
	like.CreatedAt = f.now()
	f.likes[key] = like
	return true, nil
}

func (f *fakeRepository) UpgradeLikeSuper(_ context.Context, actorID, targetID int64) (bool, error) {
	like, ok := f.likes[[2]int64{actorID, targetID}]
	if !ok || like.IsSuper {
		return false, nil
	}
	like.IsSuper = true
	return true, nil
}

func (f *fakeRepository) HasLiked(_ context.Context, actorID, targetID int64) (bool, error) {
	_, ok := f.likes[[2]int64{actorID, targetID}]
	return ok, nil
}

func (f *fakeRepository) DeleteLike(_ context.Context, actorID, targetID int64) error {
	delete(f.likes, [2]int64{actorID, targetID})
	return nil
}

func (f *fakeRepository) CreatePass(_ context.Context, pass *Pass) error {
	key := [2]int64{pass.ActorID, pass.TargetID}
	if existing, ok := f.passes[key]; ok {
		existing.CreatedAt = f.now()
		*pass = *existing
		return nil
	}
	pass.ID = f.id()
	pass.CreatedAt = f.now()
	f.passes[key] = pass
	return nil
}

func (f *fakeRepository) DeletePass(_ context.Context, actorID, targetID int64) error {
	delete(f.passes, [2]int64{actorID, targetID})
	return nil
}

func (f *fakeRepository) CountSuperLikesSince(_ context.Context, userID int64, since time.Time) (int, error) {
	count := 0
	for key, like := range f.likes {
		if key[0] == userID && like.IsSuper && !like.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) CreateMatch(ctx context.Context, match *Match) error {
	if match.User1ID > match.User2ID {
		match.User1ID, match.User2ID = match.User2ID, match.User1ID
	}
	if existing, err := f.GetMatchByPair(ctx, match.User1ID, match.User2ID); err == nil {
		*match = *existing
		return nil
	}
	match.MatchedAt = f.now()
	f.matches[match.ID] = match
	return nil
}

func (f *fakeRepository) GetMatch(_ context.Context, matchID string) (*Match, error) {
	m, ok := f.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeRepository) GetMatchByPair(_ context.Context, user1ID, user2ID int64) (*Match, error) {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}
	for _, m := range f.matches {
		if m.User1ID == user1ID && m.User2ID == user2ID {
			return m, nil
		}
	}
	return nil, ErrMatchNotFound
}

func (f *fakeRepository) DeleteMatch(_ context.Context, matchID string) error {
	delete(f.matches, matchID)
	return nil
}

func (f *fakeRepository) GetUnlock(_ context.Context, userID int64, itemType ItemType, targetID int64) (*ItemUnlock, error) {
	return f.unlocks[unlockKey(userID, itemType, targetID)], nil
}

func (f *fakeRepository) CountQuotaUnlocks(_ context.Context, userID int64, itemType ItemType) (int, error) {
	count := 0
	for _, u := range f.unlocks {
		if u.UserID == userID && u.ItemType == itemType && u.Method != MethodPaidUnlock {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) CreateUnlock(_ context.Context, unlock *ItemUnlock) (bool, error) {
	key := unlockKey(unlock.UserID, unlock.ItemType, unlock.TargetID)
	if _, exists := f.unlocks[key]; exists {
		return false, nil
	}
	unlock.ID = f.id()
	unlock.CreatedAt = f.now()
	f.unlocks[key] = unlock
	return true, nil
}

func (f *fakeRepository) RecordAction(_ context.Context, action *SwipeAction) error {
	action.ID = f.id()
	action.CreatedAt = f.now()
	f.actions = append(f.actions, action)

	mine := 0
	for _, a := range f.actions {
		if a.UserID == action.UserID {
			mine++
		}
	}
	for i := 0; mine > actionHistorySize && i < len(f.actions); {
		if f.actions[i].UserID == action.UserID {
			f.actions = append(f.actions[:i], f.actions[i+1:]...)
			mine--
			continue
		}
		i++
	}
	return nil
}

func (f *fakeRepository) LatestAction(_ context.Context, userID int64) (*SwipeAction, error) {
	for i := len(f.actions) - 1; i >= 0; i-- {
		if f.actions[i].UserID == userID {
			return f.actions[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) DeleteAction(_ context.Context, actionID int64) error {
	for i, a := range f.actions {
		if a.ID == actionID {
			f.actions = append(f.actions[:i], f.actions[i+1:]...)
			return nil
		}
	}
	return nil
}
