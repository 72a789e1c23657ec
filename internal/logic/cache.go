package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/models"
)

// RedisMemberCache caches ranking pages in one hash per leaderboard so a single
// DEL drops every page.
type RedisMemberCache struct {
	client RedisClient
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewRedisMemberCache(client RedisClient, ttl time.Duration, logger *zap.Logger) *RedisMemberCache {
	return &RedisMemberCache{client: client, ttl: ttl, logger: logger.Sugar()}
}

func membersKey(leaderboardID int64) string {
	return fmt.Sprintf("osuchan:leaderboard:%d:members", leaderboardID)
}

func pageField(limit, offset int) string {
	return fmt.Sprintf("%d:%d", limit, offset)
}

func (c *RedisMemberCache) Get(ctx context.Context, leaderboardID int64, limit, offset int) ([]models.MembershipView, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	raw, err := c.client.HGet(ctx, membersKey(leaderboardID), pageField(limit, offset)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnw("Member cache read failed", "leaderboard", leaderboardID, "error", err)
		}
		return nil, false
	}

	var page []models.MembershipView
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, false
	}
	return page, true
}

func (c *RedisMemberCache) Set(ctx context.Context, leaderboardID int64, limit, offset int, page []models.MembershipView) {
	if c == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	key := membersKey(leaderboardID)
	if err := c.client.HSet(ctx, key, pageField(limit, offset), data).Err(); err != nil {
		c.logger.Warnw("Member cache write failed", "leaderboard", leaderboardID, "error", err)
		return
	}
	c.client.Expire(ctx, key, c.ttl)
}

// Invalidate drops every cached page of the given leaderboards.
func (c *RedisMemberCache) Invalidate(ctx context.Context, leaderboardIDs ...int64) {
	if c == nil || len(leaderboardIDs) == 0 {
		return
	}
	keys := make([]string, len(leaderboardIDs))
	for i, id := range leaderboardIDs {
		keys[i] = membersKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warnw("Member cache invalidation failed", "leaderboards", leaderboardIDs, "error", err)
	}
}
