package worker_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"devconnector/internal/cache"
	"devconnector/internal/queue"
	"devconnector/internal/worker"
)

// =============================================================================
// Test Helpers
// =============================================================================

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
	return client
}

func cleanupTestRedis(client *redis.Client) {
	client.FlushDB(context.Background())
	client.Close()
}

func timelineIDs(t *testing.T, tc cache.TimelineCache) []int64 {
	t.Helper()
	ids, err := tc.GetPostIDs(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetPostIDs failed: %v", err)
	}
	return ids
}

// failingTimeline is a warm timeline whose writes fail.
type failingTimeline struct {
	cache.TimelineCache
	invalidated int
}

func (f *failingTimeline) Exists(ctx context.Context) (bool, error) { return true, nil }

func (f *failingTimeline) AddPost(ctx context.Context, postID, timestamp int64) error {
	return errors.New("READONLY")
}

func (f *failingTimeline) RemovePosts(ctx context.Context, postIDs ...int64) error {
	return errors.New("READONLY")
}

func (f *failingTimeline) Invalidate(ctx context.Context) error {
	f.invalidated++
	return nil
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandleEvent_FailureInvalidatesTimeline(t *testing.T) {
	tests := []struct {
		name  string
		event queue.Event
	}{
		{"post created", queue.NewPostCreatedEvent(5, 1, time.UnixMilli(5000))},
		{"post deleted", queue.NewPostDeletedEvent(5, 1)},
		{"account deleted", queue.NewAccountDeletedEvent(1, []int64{5, 6})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := &failingTimeline{}
			handler := worker.NewHandler(timeline)

			if err := handler.HandleEvent(context.Background(), tt.event); err == nil {
				t.Fatal("expected error from failing timeline")
			}
			if timeline.invalidated != 1 {
				t.Errorf("invalidated = %d, want 1", timeline.invalidated)
			}
		})
	}
}

func TestPostCreated_WarmTimeline(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	timeline := cache.NewTimelineCache(client)
	handler := worker.NewHandler(timeline)

	now := time.Now()
	if err := timeline.WarmCache(ctx, []cache.PostScore{
		{PostID: 1, Timestamp: now.Add(-2 * time.Minute).UnixMilli()},
		{PostID: 2, Timestamp: now.Add(-time.Minute).UnixMilli()},
	}); err != nil {
		t.Fatalf("WarmCache failed: %v", err)
	}

	event := queue.NewPostCreatedEvent(3, 10, now)
	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if diff := cmp.Diff([]int64{3, 2, 1}, timelineIDs(t, timeline)); diff != "" {
		t.Errorf("timeline mismatch (-want +got):\n%s", diff)
	}

	score, found, err := timeline.GetScore(ctx, 3)
	if err != nil || !found {
		t.Fatalf("post 3 missing: found=%t err=%v", found, err)
	}
	if score != now.UnixMilli() {
		t.Errorf("score = %d, want %d", score, now.UnixMilli())
	}
}

// A cold timeline is rebuilt from the store by the next reader, so the
// handler must not create the key with a single entry.
func TestPostCreated_ColdTimelineSkipped(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	timeline := cache.NewTimelineCache(client)
	handler := worker.NewHandler(timeline)

	if err := handler.HandleEvent(ctx, queue.NewPostCreatedEvent(5, 10, time.Now())); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	exists, err := timeline.Exists(ctx)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("cold timeline should stay absent after post_created")
	}
}

func TestPostDeleted_Removal(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	timeline := cache.NewTimelineCache(client)
	handler := worker.NewHandler(timeline)

	for i := int64(1); i <= 3; i++ {
		timeline.AddPost(ctx, i, i*1000)
	}

	if err := handler.HandleEvent(ctx, queue.NewPostDeletedEvent(2, 10)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if diff := cmp.Diff([]int64{3, 1}, timelineIDs(t, timeline)); diff != "" {
		t.Errorf("timeline mismatch (-want +got):\n%s", diff)
	}
}

func TestAccountDeleted_RemovesAllPosts(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	timeline := cache.NewTimelineCache(client)
	handler := worker.NewHandler(timeline)

	// Posts 1 and 3 belong to the deleted account, 2 and 4 to someone else
	for i := int64(1); i <= 4; i++ {
		timeline.AddPost(ctx, i, i*1000)
	}

	if err := handler.HandleEvent(ctx, queue.NewAccountDeletedEvent(10, []int64{1, 3})); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if diff := cmp.Diff([]int64{4, 2}, timelineIDs(t, timeline)); diff != "" {
		t.Errorf("timeline mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownEventType(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	handler := worker.NewHandler(cache.NewTimelineCache(client))
	if err := handler.HandleEvent(context.Background(), queue.Event{Type: "profile_viewed"}); err == nil {
		t.Error("expected error for unknown event type")
	}
}

// =============================================================================
// Stream + Worker Integration Test
// =============================================================================

// TestStreamToWorkerIntegration tests the complete flow:
// Publisher -> Stream -> Consumer -> Handler -> Cache
func TestStreamToWorkerIntegration(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()

	timeline := cache.NewTimelineCache(client)
	publisher := queue.NewPublisher(client)
	consumer := queue.NewConsumer(client)
	handler := worker.NewHandler(timeline)

	if err := timeline.WarmCache(ctx, []cache.PostScore{{PostID: 1, Timestamp: 1000}}); err != nil {
		t.Fatalf("WarmCache failed: %v", err)
	}

	if err := consumer.EnsureGroup(ctx, queue.StreamPosts, queue.ConsumerGroupTimeline); err != nil {
		t.Fatalf("EnsureGroup failed: %v", err)
	}

	postID := int64(100)
	if _, err := publisher.Publish(ctx, queue.StreamPosts, queue.NewPostCreatedEvent(postID, 1, time.Now())); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	messages, err := consumer.Read(ctx, queue.StreamPosts, queue.ConsumerGroupTimeline, "test-worker", 10, time.Second)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if err := handler.HandleEvent(ctx, msg.Event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if err := consumer.Ack(ctx, queue.StreamPosts, queue.ConsumerGroupTimeline, msg.ID); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}

	if _, found, _ := timeline.GetScore(ctx, postID); !found {
		t.Error("post not found in timeline")
	}

	pending, err := client.XPending(ctx, queue.StreamPosts, queue.ConsumerGroupTimeline).Result()
	if err != nil {
		t.Fatalf("XPending failed: %v", err)
	}
	if pending.Count != 0 {
		t.Errorf("Expected 0 pending messages, got %d", pending.Count)
	}
}

func TestManager_ConsumesPublishedEvents(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	timeline := cache.NewTimelineCache(client)
	publisher := queue.NewPublisher(client)

	timeline.WarmCache(ctx, []cache.PostScore{{PostID: 1, Timestamp: 1000}, {PostID: 2, Timestamp: 2000}})

	manager := worker.NewManager(queue.NewConsumer(client), worker.NewHandler(timeline), worker.ManagerConfig{
		WorkerCount:  1,
		BlockTimeout: 100 * time.Millisecond,
	})
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	publisher.Publish(ctx, queue.StreamPosts, queue.NewPostDeletedEvent(1, 7))

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, found, _ := timeline.GetScore(ctx, 1); !found {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("post 1 was not removed by the running workers")
}
