package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache holds the day-scoped top-picks lists and the super-like daily
// counters. Entries carry a TTL to local midnight, but expiry is also
// checked against the caller's clock on read so a stale entry is
// never served.
type Cache interface {
	GetTopPicks(ctx context.Context, userID int64, now time.Time) (*TopPicks, error)
	SetTopPicks(ctx context.Context, picks *TopPicks) error
	IncrSuperLikes(ctx context.Context, userID int64, day time.Time) (int64, error)
	DecrSuperLikes(ctx context.Context, userID int64, day time.Time) error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func topPicksKey(userID int64) string {
	return fmt.Sprintf("toppicks:%d", userID)
}

func superLikeKey(userID int64, day time.Time) string {
	return fmt.Sprintf("superlikes:%d:%s", userID, day.Format("2006-01-02"))
}

// EndOfDay returns local midnight following t, the expiry instant for
// everything day-scoped.
func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

func (c *redisCache) GetTopPicks(ctx context.Context, userID int64, now time.Time) (*TopPicks, error) {
	val, err := c.client.Get(ctx, topPicksKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var picks TopPicks
	if err := json.Unmarshal([]byte(val), &picks); err != nil {
		return nil, err
	}

	if picks.Expired(now) {
		return nil, nil
	}

	return &picks, nil
}

func (c *redisCache) SetTopPicks(ctx context.Context, picks *TopPicks) error {
	payload, err := json.Marshal(picks)
	if err != nil {
		return err
	}

	ttl := time.Until(picks.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	return c.client.Set(ctx, topPicksKey(picks.UserID), payload, ttl).Err()
}

// IncrSuperLikes bumps and returns today's super-like count. The key
// expires at local midnight along with the cap itself.
func (c *redisCache) IncrSuperLikes(ctx context.Context, userID int64, day time.Time) (int64, error) {
	key := superLikeKey(userID, day)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		_ = c.client.ExpireAt(ctx, key, EndOfDay(day)).Err()
	}

	return count, nil
}

// DecrSuperLikes hands back one unit of today's super-like budget,
// undoing an increment whose super-like never landed.
func (c *redisCache) DecrSuperLikes(ctx context.Context, userID int64, day time.Time) error {
	return c.client.Decr(ctx, superLikeKey(userID, day)).Err()
}
