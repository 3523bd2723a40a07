package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// GitHubCacheTTL bounds how long an upstream repo listing is served from cache
const GitHubCacheTTL = 10 * time.Minute

// GitHubCache stores raw GitHub API response bodies.
type GitHubCache interface {
	// Get returns (body, found, error).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

// RedisGitHubCache implements GitHubCache with plain Redis strings.
type RedisGitHubCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGitHubCache creates a new GitHubCache backed by Redis.
func NewGitHubCache(client *redis.Client) GitHubCache {
	return &RedisGitHubCache{client: client, ttl: GitHubCacheTTL}
}

func githubKey(key string) string {
	return "github:repos:" + key
}

func (c *RedisGitHubCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, githubKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get github cache: %w", err)
	}
	return body, true, nil
}

func (c *RedisGitHubCache) Set(ctx context.Context, key string, body []byte) error {
	if err := c.client.Set(ctx, githubKey(key), body, c.ttl).Err(); err != nil {
		return fmt.Errorf("set github cache: %w", err)
	}
	return nil
}
