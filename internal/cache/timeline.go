package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"devconnector/internal/logging"
)

const (
	// TimelineKey is the sorted set holding every post id, scored by creation time
	TimelineKey = "timeline:posts"

	// TimelineCap is the maximum number of posts kept in the timeline
	TimelineCap = 1000

	// TimelineTTL is the TTL for the timeline (7 days)
	TimelineTTL = 7 * 24 * time.Hour
)

// PostScore represents a post with its timestamp score for caching
type PostScore struct {
	PostID    int64
	Timestamp int64 // Unix milliseconds
}

// TimelineCache is the newest-first index of post ids.
type TimelineCache interface {
	// AddPost inserts a post. Pipeline: ZADD + ZREMRANGEBYRANK (cap) + EXPIRE.
	AddPost(ctx context.Context, postID int64, timestamp int64) error

	// RemovePosts removes the given posts with a single ZREM.
	RemovePosts(ctx context.Context, postIDs ...int64) error

	// GetPostIDs returns up to limit post ids, newest first. limit <= 0 means all.
	GetPostIDs(ctx context.Context, limit int) ([]int64, error)

	// GetScore returns (score, found, error) for a post.
	GetScore(ctx context.Context, postID int64) (int64, bool, error)

	// WarmCache bulk-inserts posts with pipelined ZADD + EXPIRE.
	WarmCache(ctx context.Context, posts []PostScore) error

	// Size returns the number of cached post ids.
	Size(ctx context.Context) (int64, error)

	// Exists reports whether the timeline key is present.
	// Callers warm the cache when it returns false.
	Exists(ctx context.Context) (bool, error)

	// Invalidate drops the timeline so the next reader rebuilds it from the store.
	Invalidate(ctx context.Context) error
}

// RedisTimelineCache implements TimelineCache using a Redis Sorted Set.
type RedisTimelineCache struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewTimelineCache creates a new TimelineCache backed by Redis.
func NewTimelineCache(client *redis.Client) TimelineCache {
	return &RedisTimelineCache{client: client, log: logging.Component("TimelineCache")}
}

// AddPost adds a post using a pipeline.
func (c *RedisTimelineCache) AddPost(ctx context.Context, postID int64, timestamp int64) error {
	startTime := time.Now()

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, TimelineKey, redis.Z{
		Score:  float64(timestamp),
		Member: strconv.FormatInt(postID, 10),
	})
	// 0 is the lowest score (oldest); keep the newest TimelineCap entries
	pipe.ZRemRangeByRank(ctx, TimelineKey, 0, int64(-TimelineCap-1))
	pipe.Expire(ctx, TimelineKey, TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Error().Err(err).Int64("post", postID).Msg("AddPost failed")
		return fmt.Errorf("add post to timeline: %w", err)
	}

	c.log.Debug().Int64("post", postID).Int64("timestamp", timestamp).
		Dur("duration", time.Since(startTime)).Msg("AddPost ok")
	return nil
}

// RemovePosts removes posts from the timeline.
func (c *RedisTimelineCache) RemovePosts(ctx context.Context, postIDs ...int64) error {
	if len(postIDs) == 0 {
		return nil
	}

	members := make([]interface{}, len(postIDs))
	for i, id := range postIDs {
		members[i] = strconv.FormatInt(id, 10)
	}

	removed, err := c.client.ZRem(ctx, TimelineKey, members...).Result()
	if err != nil {
		c.log.Error().Err(err).Ints64("posts", postIDs).Msg("RemovePosts failed")
		return fmt.Errorf("remove posts from timeline: %w", err)
	}

	c.log.Debug().Ints64("posts", postIDs).Int64("removed", removed).Msg("RemovePosts ok")
	return nil
}

// GetPostIDs reads post ids newest first (ZREVRANGE).
func (c *RedisTimelineCache) GetPostIDs(ctx context.Context, limit int) ([]int64, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}

	members, err := c.client.ZRevRange(ctx, TimelineKey, 0, stop).Result()
	if err != nil {
		c.log.Error().Err(err).Msg("GetPostIDs failed")
		return nil, fmt.Errorf("get timeline: %w", err)
	}

	postIDs := make([]int64, len(members))
	for i, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse post id %q: %w", m, err)
		}
		postIDs[i] = id
	}
	return postIDs, nil
}

// GetScore returns the timestamp score for a post.
func (c *RedisTimelineCache) GetScore(ctx context.Context, postID int64) (int64, bool, error) {
	score, err := c.client.ZScore(ctx, TimelineKey, strconv.FormatInt(postID, 10)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get score: %w", err)
	}
	return int64(score), true, nil
}

// WarmCache bulk-inserts posts using a pipeline.
func (c *RedisTimelineCache) WarmCache(ctx context.Context, posts []PostScore) error {
	if len(posts) == 0 {
		c.log.Debug().Msg("WarmCache: nothing to warm")
		return nil
	}

	startTime := time.Now()
	pipe := c.client.Pipeline()

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: strconv.FormatInt(p.PostID, 10),
		}
	}
	pipe.ZAdd(ctx, TimelineKey, members...)
	pipe.ZRemRangeByRank(ctx, TimelineKey, 0, int64(-TimelineCap-1))
	pipe.Expire(ctx, TimelineKey, TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Error().Err(err).Int("posts", len(posts)).Msg("WarmCache failed")
		return fmt.Errorf("warm cache: %w", err)
	}

	c.log.Info().Int("posts", len(posts)).Dur("duration", time.Since(startTime)).Msg("WarmCache ok")
	return nil
}

// Size returns the number of posts in the timeline.
func (c *RedisTimelineCache) Size(ctx context.Context) (int64, error) {
	size, err := c.client.ZCard(ctx, TimelineKey).Result()
	if err != nil {
		return 0, fmt.Errorf("get cache size: %w", err)
	}
	return size, nil
}

// Exists checks whether the timeline key is present.
func (c *RedisTimelineCache) Exists(ctx context.Context) (bool, error) {
	exists, err := c.client.Exists(ctx, TimelineKey).Result()
	if err != nil {
		return false, fmt.Errorf("check cache exists: %w", err)
	}
	return exists > 0, nil
}

// Invalidate deletes the timeline key.
func (c *RedisTimelineCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, TimelineKey).Err(); err != nil {
		c.log.Error().Err(err).Msg("Invalidate failed")
		return fmt.Errorf("invalidate timeline: %w", err)
	}
	c.log.Info().Msg("timeline invalidated")
	return nil
}
