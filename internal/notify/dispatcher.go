// internal/notify/dispatcher.go
// Fire-and-forget notification dispatch for swipe outcomes

package notify

import (
	"context"

	"github.com/amoryn-app/amoryn-backend/internal/logger"
)

// Dispatcher delivers match/like events to the notification service.
// Calls are fire-and-forget: delivery failure must never fail the
// swipe or match operation that triggered it.
type Dispatcher interface {
	MatchCreated(ctx context.Context, user1ID, user2ID int64, matchID string)
	LikeReceived(ctx context.Context, actorID, targetID int64, super bool)
}

// LogDispatcher records events to the application log. The production
// deployment swaps in the push-notification client behind the same
// interface.
type LogDispatcher struct{}

func (LogDispatcher) MatchCreated(_ context.Context, user1ID, user2ID int64, matchID string) {
	logger.Info("match created",
		"user1_id", user1ID,
		"user2_id", user2ID,
		"match_id", matchID,
	)
}

func (LogDispatcher) LikeReceived(_ context.Context, actorID, targetID int64, super bool) {
	logger.Info("like received",
		"actor_id", actorID,
		"target_id", targetID,
		"super", super,
	)
}

// Noop discards all events. Used in tests.
type Noop struct{}

func (Noop) MatchCreated(context.Context, int64, int64, string) {}
func (Noop) LikeReceived(context.Context, int64, int64, bool)   {}
