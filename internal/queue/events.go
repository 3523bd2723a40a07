package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the posts stream
const (
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventAccountDeleted = "account_deleted"
)

// Stream names
const (
	StreamPosts = "stream:posts"
)

// Consumer group name for timeline workers
const (
	ConsumerGroupTimeline = "timeline_workers"
)

// Event represents an event published to the posts stream.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds when the event occurred

	PostID   int64 `json:"post_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"`

	// AccountDeleted
	PostIDs []int64 `json:"post_ids,omitempty"`
}

// NewPostCreatedEvent is published after a post is stored.
// createdAt becomes the post's timeline score.
func NewPostCreatedEvent(postID, authorID int64, createdAt time.Time) Event {
	return Event{
		Type:      EventPostCreated,
		Timestamp: createdAt.UnixMilli(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewPostDeletedEvent is published after a post is removed.
func NewPostDeletedEvent(postID, authorID int64) Event {
	return Event{
		Type:      EventPostDeleted,
		Timestamp: time.Now().UnixMilli(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewAccountDeletedEvent carries every post id removed with the account.
func NewAccountDeletedEvent(userID int64, postIDs []int64) Event {
	return Event{
		Type:      EventAccountDeleted,
		Timestamp: time.Now().UnixMilli(),
		AuthorID:  userID,
		PostIDs:   postIDs,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
