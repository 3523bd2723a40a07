package repository

import (
	"context"

	"devconnector/internal/cache"
	"devconnector/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
	List(ctx context.Context) ([]model.Profile, error)
	// Create inserts a profile; a profile already existing for the user yields ErrConcurrentUpdate.
	Create(ctx context.Context, profile *model.Profile) error
	// Update saves every field if the stored version still matches profile.Version,
	// then bumps profile.Version. Returns ErrConcurrentUpdate otherwise.
	Update(ctx context.Context, profile *model.Profile) error
	DeleteByUserID(ctx context.Context, userID int64) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	// List returns every post, newest first.
	List(ctx context.Context) ([]model.Post, error)
	// ListRecent returns (id, timestamp) pairs of the newest posts for cache warming.
	ListRecent(ctx context.Context, limit int) ([]cache.PostScore, error)
	// UpdateEngagement saves likes and comments under the same version check as ProfileRepository.Update.
	UpdateEngagement(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, postID, userID int64) error
	// DeleteByUser removes every post by userID and returns their ids.
	DeleteByUser(ctx context.Context, userID int64) ([]int64, error)
}
