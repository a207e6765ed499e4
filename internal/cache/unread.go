// Package cache provides an optional redis cache for unread counts.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/threadline/dm-platform/pkg/logger"
)

const keyPrefix = "dm:unread:"

// Unread caches unread-count query results keyed by target user and
// principal scope. Failures degrade to cache misses; the store stays the
// source of truth.
type Unread struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewUnread connects to redis and returns an unread-count cache.
func NewUnread(addr, password string, db int, ttl time.Duration, log *logger.Logger) (*Unread, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Unread{rdb: rdb, ttl: ttl, logger: log}, nil
}

// Get returns a cached count, reporting whether one was present.
func (c *Unread) Get(ctx context.Context, targetUserID, scopeUserID string) (int, bool) {
	val, err := c.rdb.Get(ctx, key(targetUserID, scopeUserID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("unread cache get failed", zap.Error(err))
		}
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Set stores a count for the target/scope pair.
func (c *Unread) Set(ctx context.Context, targetUserID, scopeUserID string, count int) {
	if err := c.rdb.Set(ctx, key(targetUserID, scopeUserID), strconv.Itoa(count), c.ttl).Err(); err != nil {
		c.logger.Warn("unread cache set failed", zap.Error(err))
	}
}

// Invalidate drops all cached counts for the given users, across every
// scope they were queried under.
func (c *Unread) Invalidate(ctx context.Context, userIDs ...string) {
	for _, id := range userIDs {
		iter := c.rdb.Scan(ctx, 0, keyPrefix+id+":*", 100).Iterator()
		for iter.Next(ctx) {
			if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				c.logger.Warn("unread cache invalidate failed", zap.Error(err))
			}
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn("unread cache scan failed", zap.Error(err))
		}
	}
}

// Close releases the redis connection.
func (c *Unread) Close() error {
	return c.rdb.Close()
}

func key(targetUserID, scopeUserID string) string {
	if scopeUserID == "" {
		scopeUserID = "all"
	}
	return keyPrefix + targetUserID + ":" + scopeUserID
}
