package cache_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"devconnector/internal/cache"
)

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}
	// Use DB 1 for testing to avoid conflicts with dev data
	opts.DB = 1

	client := redis.NewClient(opts)
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestTimelineCache_NewestFirst(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	tc := cache.NewTimelineCache(client)

	exists, err := tc.Exists(ctx)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("timeline should not exist before warming")
	}

	if err := tc.WarmCache(ctx, []cache.PostScore{
		{PostID: 1, Timestamp: 1000},
		{PostID: 2, Timestamp: 2000},
	}); err != nil {
		t.Fatalf("WarmCache: %v", err)
	}
	if err := tc.AddPost(ctx, 3, 3000); err != nil {
		t.Fatalf("AddPost: %v", err)
	}

	ids, err := tc.GetPostIDs(ctx, 0)
	if err != nil {
		t.Fatalf("GetPostIDs: %v", err)
	}
	if diff := cmp.Diff([]int64{3, 2, 1}, ids); diff != "" {
		t.Errorf("timeline order mismatch (-want +got):\n%s", diff)
	}

	ids, _ = tc.GetPostIDs(ctx, 2)
	if diff := cmp.Diff([]int64{3, 2}, ids); diff != "" {
		t.Errorf("limited timeline mismatch (-want +got):\n%s", diff)
	}
}

func TestTimelineCache_RemovePosts(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	tc := cache.NewTimelineCache(client)

	for i := int64(1); i <= 4; i++ {
		if err := tc.AddPost(ctx, i, i*1000); err != nil {
			t.Fatalf("AddPost: %v", err)
		}
	}

	if err := tc.RemovePosts(ctx, 2, 4); err != nil {
		t.Fatalf("RemovePosts: %v", err)
	}

	size, _ := tc.Size(ctx)
	if size != 2 {
		t.Errorf("size = %d, want 2", size)
	}
	if _, found, _ := tc.GetScore(ctx, 2); found {
		t.Error("post 2 should have been removed")
	}
	if score, found, _ := tc.GetScore(ctx, 3); !found || score != 3000 {
		t.Errorf("post 3: found=%t score=%d", found, score)
	}
}

func TestGitHubCache_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	gc := cache.NewGitHubCache(client)

	if _, found, err := gc.Get(ctx, "octocat"); err != nil || found {
		t.Fatalf("expected miss, got found=%t err=%v", found, err)
	}

	body := []byte(`[{"name":"hello-world"}]`)
	if err := gc.Set(ctx, "octocat", body); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found, err := gc.Get(ctx, "octocat")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%t err=%v", found, err)
	}
	if string(got) != string(body) {
		t.Errorf("body = %s, want %s", got, body)
	}
}

func TestTimelineCache_Invalidate(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	tc := cache.NewTimelineCache(client)

	if err := tc.AddPost(ctx, 1, 1000); err != nil {
		t.Fatalf("AddPost: %v", err)
	}
	if err := tc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if exists, _ := tc.Exists(ctx); exists {
		t.Error("timeline should be gone after Invalidate")
	}
}
