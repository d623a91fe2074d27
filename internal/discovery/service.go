package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/amoryn-app/amoryn-backend/internal/entitlement"
	"github.com/amoryn-app/amoryn-backend/internal/logger"
	"github.com/amoryn-app/amoryn-backend/internal/notify"
)

// Config carries the discovery core's tunables.
type Config struct {
	Quota                QuotaConfig
	SuperLikeDailyCap    int
	RewindWindow         time.Duration
	CandidatePoolSize    int
	TopPicksSize         int
	TopPicksFreeLimit    int
	TopPicksPremiumLimit int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Quota: QuotaConfig{
			FreeQuota:         10,
			PremiumExtraQuota: 10,
			UnlockCost:        10,
		},
		SuperLikeDailyCap:    5,
		RewindWindow:         5 * time.Minute,
		CandidatePoolSize:    200,
		TopPicksSize:         10,
		TopPicksFreeLimit:    3,
		TopPicksPremiumLimit: 10,
	}
}

type Service interface {
	// Discovery
	GetDiscoveryCandidates(ctx context.Context, userID int64, limit int) ([]*Candidate, error)
	GetFilteredDiscoveryCandidates(ctx context.Context, userID int64, overrides *FilterOverrides, limit int) ([]*Candidate, error)
	GetTopPicks(ctx context.Context, userID int64) (*TopPicksResult, error)

	// Swipes
	Like(ctx context.Context, userID, targetID int64) (*SwipeResult, error)
	Pass(ctx context.Context, userID, targetID int64) error
	SuperLike(ctx context.Context, userID, targetID int64) (*SwipeResult, error)
	RewindLastAction(ctx context.Context, userID int64) error

	// Access gate
	CanAccess(ctx context.Context, userID int64, itemType ItemType, targetID int64) (*AccessDecision, error)
	Unlock(ctx context.Context, userID int64, itemType ItemType, targetID int64, paymentRef *string) (*ItemUnlock, error)
}

type service struct {
	repo         Repository
	cache        Cache
	gate         *AccessGate
	entitlements entitlement.Resolver
	dispatcher   notify.Dispatcher
	cfg          Config

	// injectable clock so the rewind window and cache expiry are
	// testable
	now func() time.Time
}

func NewService(repo Repository, cache Cache, entitlements entitlement.Resolver, dispatcher notify.Dispatcher, cfg Config) Service {
	return &service{
		repo:         repo,
		cache:        cache,
		gate:         NewAccessGate(repo, entitlements, cfg.Quota),
		entitlements: entitlements,
		dispatcher:   dispatcher,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Discovery

func (s *service) GetDiscoveryCandidates(ctx context.Context, userID int64, limit int) ([]*Candidate, error) {
	prefs, err := s.repo.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.discover(ctx, userID, prefs, limit, false)
}

func (s *service) GetFilteredDiscoveryCandidates(ctx context.Context, userID int64, overrides *FilterOverrides, limit int) ([]*Candidate, error) {
	if !overrides.Empty() {
		premium, err := s.entitlements.IsPremium(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !premium {
			return nil, ErrPremiumRequired
		}
	}

	prefs, err := s.repo.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.discover(ctx, userID, MergePreferences(prefs, overrides), limit, true)
}

// discover runs the full pipeline: candidate sourcing, preference
// filtering, scoring, and lock annotation. It only reads; nothing in
// this path writes quota or cache state.
func (s *service) discover(ctx context.Context, userID int64, prefs *Preference, limit int, withDistance bool) ([]*Candidate, error) {
	requester, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	pool, err := s.repo.FindCandidates(ctx, userID, prefs, s.cfg.CandidatePoolSize)
	if err != nil {
		return nil, err
	}

	now := s.now()

	filtered := pool[:0]
	for _, candidate := range pool {
		if PassesFilters(requester, candidate, prefs, now) {
			filtered = append(filtered, candidate)
		}
	}

	ranked := RankCandidates(requester, filtered, now, false)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return s.annotate(ctx, userID, requester, ranked, now, withDistance)
}

// annotate decorates ranked results with lock state and, for the
// filtered path, computed distance. Distance claims are suppressed
// when either side browses in passport mode.
func (s *service) annotate(ctx context.Context, userID int64, requester *Profile, ranked []*ScoredCandidate, now time.Time, withDistance bool) ([]*Candidate, error) {
	from := EffectiveLocation(requester, now)

	results := make([]*Candidate, 0, len(ranked))
	for _, sc := range ranked {
		RecordCompatibilityScore(sc.Score)

		decision, err := s.gate.CanAccess(ctx, userID, ItemProfile, sc.Profile.ID)
		if err != nil {
			return nil, err
		}

		candidate := &Candidate{
			Profile: sc.Profile,
			Score:   sc.Score,
			Factors: sc.Factors,
			Locked:  !decision.CanAccess,
		}

		to := EffectiveLocation(sc.Profile, now)
		candidate.PassportMode = from.Passport || to.Passport
		if withDistance && from.Known && to.Known && !candidate.PassportMode {
			distance := HaversineDistance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
			candidate.DistanceKm = &distance
		}

		results = append(results, candidate)
	}

	return results, nil
}

// Top Picks

func (s *service) GetTopPicks(ctx context.Context, userID int64) (*TopPicksResult, error) {
	now := s.now()

	picks, err := s.cache.GetTopPicks(ctx, userID, now)
	if err != nil {
		logger.Warn("top picks cache read failed", "user_id", userID, "error", err)
		picks = nil
	}
	RecordTopPicksCache(picks != nil)

	if picks == nil {
		picks, err = s.generateTopPicks(ctx, userID, now)
		if err != nil {
			return nil, err
		}
	}

	profiles, err := s.repo.GetProfiles(ctx, picks.CandidateIDs)
	if err != nil {
		return nil, err
	}

	requester, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranked := make([]*ScoredCandidate, 0, len(profiles))
	var scorer Scorer
	for _, p := range profiles {
		score, factors := scorer.TopPicksScore(requester, p, now)
		ranked = append(ranked, &ScoredCandidate{Profile: p, Score: score, Factors: factors})
	}

	candidates, err := s.annotate(ctx, userID, requester, ranked, now, false)
	if err != nil {
		return nil, err
	}

	premium, err := s.entitlements.IsPremium(ctx, userID)
	if err != nil {
		return nil, err
	}

	visible := s.cfg.TopPicksFreeLimit
	if premium {
		visible = s.cfg.TopPicksPremiumLimit
	}
	if len(candidates) > visible {
		candidates = candidates[:visible]
	}

	return &TopPicksResult{Candidates: candidates, RefreshesAt: picks.ExpiresAt}, nil
}

// generateTopPicks runs the full scoring pipeline with the top-picks
// weighting and persists the ranked list with a same-day expiry. This
// is the write-capable half of the cache contract; the read path
// above never populates.
func (s *service) generateTopPicks(ctx context.Context, userID int64, now time.Time) (*TopPicks, error) {
	requester, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs, err := s.repo.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	pool, err := s.repo.FindCandidates(ctx, userID, prefs, s.cfg.CandidatePoolSize)
	if err != nil {
		return nil, err
	}

	filtered := pool[:0]
	for _, candidate := range pool {
		if PassesFilters(requester, candidate, prefs, now) {
			filtered = append(filtered, candidate)
		}
	}

	ranked := RankCandidates(requester, filtered, now, true)
	if len(ranked) > s.cfg.TopPicksSize {
		ranked = ranked[:s.cfg.TopPicksSize]
	}

	ids := make([]int64, 0, len(ranked))
	for _, sc := range ranked {
		ids = append(ids, sc.Profile.ID)
	}

	picks := &TopPicks{
		UserID:       userID,
		CandidateIDs: ids,
		GeneratedAt:  now,
		ExpiresAt:    EndOfDay(now),
	}

	if err := s.cache.SetTopPicks(ctx, picks); err != nil {
		// Serving the fresh list still works without the cache
		logger.Warn("top picks cache write failed", "user_id", userID, "error", err)
	}

	return picks, nil
}

// Swipes

func (s *service) Like(ctx context.Context, userID, targetID int64) (*SwipeResult, error) {
	return s.like(ctx, userID, targetID, false)
}

func (s *service) SuperLike(ctx context.Context, userID, targetID int64) (*SwipeResult, error) {
	premium, err := s.entitlements.IsPremium(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !premium {
		return nil, ErrPremiumRequired
	}

	return s.like(ctx, userID, targetID, true)
}

// checkSuperLikeCap enforces the daily hard cap through the Redis
// counter, falling back to a DB count when Redis is unavailable. It
// reports whether a counter unit was consumed; the caller must hand
// the unit back via releaseSuperLike if no super-like lands.
func (s *service) checkSuperLikeCap(ctx context.Context, userID int64) (bool, error) {
	now := s.now()

	count, err := s.cache.IncrSuperLikes(ctx, userID, now)
	if err != nil {
		logger.Warn("super like counter unavailable, falling back to store", "user_id", userID, "error", err)

		year, month, day := now.Date()
		startOfDay := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
		used, dbErr := s.repo.CountSuperLikesSince(ctx, userID, startOfDay)
		if dbErr != nil {
			return false, dbErr
		}
		if used >= s.cfg.SuperLikeDailyCap {
			return false, ErrSuperLikeLimit
		}
		return false, nil
	}

	if count > int64(s.cfg.SuperLikeDailyCap) {
		return true, ErrSuperLikeLimit
	}
	return true, nil
}

func (s *service) releaseSuperLike(ctx context.Context, userID int64) {
	if err := s.cache.DecrSuperLikes(ctx, userID, s.now()); err != nil {
		logger.Warn("super like counter release failed", "user_id", userID, "error", err)
	}
}

func (s *service) like(ctx context.Context, userID, targetID int64, super bool) (*SwipeResult, error) {
	if userID == targetID {
		return nil, ErrCannotSwipeSelf
	}

	if _, err := s.repo.GetProfile(ctx, targetID); err != nil {
		return nil, err
	}

	// Repeat like of an already-matched pair returns the match id
	// rather than erroring
	if existing, err := s.repo.GetMatchByPair(ctx, userID, targetID); err == nil {
		return &SwipeResult{Matched: true, MatchID: &existing.ID}, nil
	} else if !errors.Is(err, ErrMatchNotFound) {
		return nil, err
	}

	// The daily budget is checked only after the swipe is known to be
	// valid, and the consumed unit is handed back unless a super-like
	// record actually lands.
	superApplied := false
	if super {
		consumed, err := s.checkSuperLikeCap(ctx, userID)
		if consumed {
			defer func() {
				if !superApplied {
					s.releaseSuperLike(ctx, userID)
				}
			}()
		}
		if err != nil {
			return nil, err
		}
	}

	// Liking consumes the like quota
	if _, err := s.gate.Unlock(ctx, userID, ItemLike, targetID, nil); err != nil {
		return nil, err
	}

	like := &Like{ActorID: userID, TargetID: targetID, IsSuper: super}
	created, err := s.repo.CreateLike(ctx, like)
	if err != nil {
		return nil, err
	}

	// A super-like on an already-liked target promotes the existing
	// like so the super record is never silently dropped
	upgraded := false
	if super && !created {
		upgraded, err = s.repo.UpgradeLikeSuper(ctx, userID, targetID)
		if err != nil {
			return nil, err
		}
	}

	if !created && !upgraded {
		// Repeat like with no match yet: succeed silently
		return &SwipeResult{Matched: false}, nil
	}
	superApplied = super

	action := ActionLike
	if super {
		action = ActionSuperLike
	}
	RecordSwipe(action)

	mutual, err := s.repo.HasLiked(ctx, targetID, userID)
	if err != nil {
		return nil, err
	}

	if !mutual {
		s.dispatcher.LikeReceived(ctx, userID, targetID, super)

		if err := s.repo.RecordAction(ctx, &SwipeAction{UserID: userID, TargetID: targetID, Action: action}); err != nil {
			return nil, err
		}
		return &SwipeResult{Matched: false}, nil
	}

	match, err := s.createMatch(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	record := &SwipeAction{UserID: userID, TargetID: targetID, Action: action, MatchID: &match.ID}
	if err := s.repo.RecordAction(ctx, record); err != nil {
		return nil, err
	}

	return &SwipeResult{Matched: true, MatchID: &match.ID}, nil
}

// createMatch writes the canonical pair record and applies the rating
// update to both parties. The repository collapses a concurrent
// create into the existing row, so the match is created exactly once.
func (s *service) createMatch(ctx context.Context, userID, targetID int64) (*Match, error) {
	match := &Match{
		ID:      uuid.New().String(),
		User1ID: userID,
		User2ID: targetID,
	}

	if err := s.repo.CreateMatch(ctx, match); err != nil {
		return nil, err
	}
	RecordMatch()

	s.updateRatings(ctx, userID, targetID)
	s.dispatcher.MatchCreated(ctx, match.User1ID, match.User2ID, match.ID)

	return match, nil
}

// updateRatings applies the mutual-match rating adjustment. Rating is
// a soft signal; failures are logged, never surfaced to the swipe.
func (s *service) updateRatings(ctx context.Context, userID, targetID int64) {
	a, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		logger.Warn("rating update skipped", "user_id", userID, "error", err)
		return
	}
	b, err := s.repo.GetProfile(ctx, targetID)
	if err != nil {
		logger.Warn("rating update skipped", "user_id", targetID, "error", err)
		return
	}

	newA, newB := UpdateRatings(a.SkillRating, b.SkillRating)

	if err := s.repo.UpdateSkillRating(ctx, a.ID, newA); err != nil {
		logger.Warn("rating write failed", "user_id", a.ID, "error", err)
	}
	if err := s.repo.UpdateSkillRating(ctx, b.ID, newB); err != nil {
		logger.Warn("rating write failed", "user_id", b.ID, "error", err)
	}
}

func (s *service) Pass(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return ErrCannotSwipeSelf
	}

	if _, err := s.repo.GetProfile(ctx, targetID); err != nil {
		return err
	}

	pass := &Pass{ActorID: userID, TargetID: targetID}
	if err := s.repo.CreatePass(ctx, pass); err != nil {
		return err
	}
	RecordSwipe(ActionPass)

	return s.repo.RecordAction(ctx, &SwipeAction{UserID: userID, TargetID: targetID, Action: ActionPass})
}

// RewindLastAction undoes the caller's most recent like or pass when
// it happened within the rewind window. The like/pass row is removed,
// and a match the like created is torn down with it.
func (s *service) RewindLastAction(ctx context.Context, userID int64) error {
	premium, err := s.entitlements.IsPremium(ctx, userID)
	if err != nil {
		return err
	}
	if !premium {
		return ErrPremiumRequired
	}

	action, err := s.repo.LatestAction(ctx, userID)
	if err != nil {
		return err
	}
	if action == nil || s.now().Sub(action.CreatedAt) > s.cfg.RewindWindow {
		return ErrNothingToRewind
	}

	switch action.Action {
	case ActionLike, ActionSuperLike:
		if err := s.repo.DeleteLike(ctx, userID, action.TargetID); err != nil {
			return err
		}
	case ActionPass:
		if err := s.repo.DeletePass(ctx, userID, action.TargetID); err != nil {
			return err
		}
	}

	if action.MatchID != nil {
		if err := s.repo.DeleteMatch(ctx, *action.MatchID); err != nil {
			return err
		}
	}

	RecordRewind()
	return s.repo.DeleteAction(ctx, action.ID)
}

// Access gate passthroughs

func (s *service) CanAccess(ctx context.Context, userID int64, itemType ItemType, targetID int64) (*AccessDecision, error) {
	return s.gate.CanAccess(ctx, userID, itemType, targetID)
}

func (s *service) Unlock(ctx context.Context, userID int64, itemType ItemType, targetID int64, paymentRef *string) (*ItemUnlock, error) {
	return s.gate.Unlock(ctx, userID, itemType, targetID, paymentRef)
}
