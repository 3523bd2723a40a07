package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"devconnector/internal/cache"
	"devconnector/internal/logging"
	"devconnector/internal/model"
	"devconnector/internal/queue"
	"devconnector/internal/repository"
	"devconnector/internal/validate"
)

// errTimelineFull means the capped timeline may not hold every post.
var errTimelineFull = errors.New("timeline at capacity")

type PostService struct {
	posts     repository.PostRepository
	users     repository.UserRepository
	timeline  cache.TimelineCache
	publisher queue.Publisher
	log       zerolog.Logger
}

// NewPostService wires the post service. timeline and publisher may be nil,
// in which case reads go straight to the store and no events are emitted.
func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	timeline cache.TimelineCache,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		posts:     posts,
		users:     users,
		timeline:  timeline,
		publisher: publisher,
		log:       logging.Component("PostService"),
	}
}

// Create stores a post with the author's current name and avatar and
// publishes post_created.
func (s *PostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		UserID: userID,
		Text:   req.Text,
		Name:   author.Name,
		Avatar: author.Avatar,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if !s.publish(ctx, queue.NewPostCreatedEvent(post.ID, userID, post.Date)) {
		// No worker will add this post to a warm timeline
		s.invalidateTimeline(ctx)
	}
	return post, nil
}

// List returns every post, newest first. The timeline cache supplies the
// order when available; any cache failure falls back to the store.
func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	if s.timeline != nil {
		posts, err := s.listFromTimeline(ctx)
		if err == nil {
			return posts, nil
		}
		if !errors.Is(err, errTimelineFull) {
			s.log.Warn().Err(err).Msg("timeline read failed, falling back to store")
		}
	}

	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) listFromTimeline(ctx context.Context) ([]model.Post, error) {
	startTime := time.Now()

	exists, err := s.timeline.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		recent, err := s.posts.ListRecent(ctx, cache.TimelineCap)
		if err != nil {
			return nil, fmt.Errorf("list recent posts: %w", err)
		}
		if err := s.timeline.WarmCache(ctx, recent); err != nil {
			return nil, err
		}
	}

	ids, err := s.timeline.GetPostIDs(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(ids) >= cache.TimelineCap {
		return nil, errTimelineFull
	}

	posts, err := s.posts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate posts: %w", err)
	}

	s.log.Debug().Int("posts", len(posts)).Bool("warmed", !exists).
		Dur("duration", time.Since(startTime)).Msg("List from timeline")
	return posts, nil
}

// GetByID retrieves a single post.
func (s *PostService) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	return s.posts.GetByID(ctx, postID)
}

// Delete removes a post written by userID and publishes post_deleted.
func (s *PostService) Delete(ctx context.Context, postID, userID int64) error {
	if err := s.posts.Delete(ctx, postID, userID); err != nil {
		return err
	}

	s.publish(ctx, queue.NewPostDeletedEvent(postID, userID))
	return nil
}

// Like adds userID's like and returns the updated like list.
func (s *PostService) Like(ctx context.Context, postID, userID int64) (model.Likes, error) {
	post, err := s.engage(ctx, postID, func(p *model.Post) error {
		return p.AddLike(userID)
	})
	if err != nil {
		return nil, err
	}
	return post.Likes, nil
}

// Unlike removes userID's like and returns the updated like list.
func (s *PostService) Unlike(ctx context.Context, postID, userID int64) (model.Likes, error) {
	post, err := s.engage(ctx, postID, func(p *model.Post) error {
		return p.RemoveLike(userID)
	})
	if err != nil {
		return nil, err
	}
	return post.Likes, nil
}

// AddComment prepends a comment by userID and returns the updated comment list.
func (s *PostService) AddComment(ctx context.Context, postID, userID int64, req model.CreateCommentRequest) (model.Comments, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:     uuid.NewString(),
		UserID: userID,
		Text:   req.Text,
		Name:   author.Name,
		Avatar: author.Avatar,
		Date:   time.Now().UTC(),
	}
	post, err := s.engage(ctx, postID, func(p *model.Post) error {
		p.AddComment(comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post.Comments, nil
}

// DeleteComment removes commentID if userID wrote it and returns the updated comment list.
func (s *PostService) DeleteComment(ctx context.Context, postID int64, commentID string, userID int64) (model.Comments, error) {
	post, err := s.engage(ctx, postID, func(p *model.Post) error {
		return p.RemoveComment(commentID, userID)
	})
	if err != nil {
		return nil, err
	}
	return post.Comments, nil
}

// engage loads a post, applies fn to its likes or comments and saves under the version check.
func (s *PostService) engage(ctx context.Context, postID int64, fn func(*model.Post) error) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := fn(post); err != nil {
		return nil, err
	}
	if err := s.posts.UpdateEngagement(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

// publish is best-effort since the write already succeeded. It reports
// whether the event reached the stream; a nil publisher counts as delivered.
func (s *PostService) publish(ctx context.Context, event queue.Event) bool {
	if s.publisher == nil {
		return true
	}
	msgID, err := s.publisher.Publish(ctx, queue.StreamPosts, event)
	if err != nil {
		s.log.Error().Err(err).Str("type", event.Type).Int64("post", event.PostID).Msg("failed to publish event")
		return false
	}
	s.log.Debug().Str("type", event.Type).Int64("post", event.PostID).Str("msg_id", msgID).Msg("published event")
	return true
}

func (s *PostService) invalidateTimeline(ctx context.Context) {
	if s.timeline == nil {
		return
	}
	if err := s.timeline.Invalidate(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to invalidate timeline")
	}
}
