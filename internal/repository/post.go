package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"devconnector/internal/cache"
	"devconnector/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, text, name, avatar, likes, comments, date, version`

// Create inserts a new post with empty likes and comments.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	post.Likes = model.Likes{}
	post.Comments = model.Comments{}

	query := `
		INSERT INTO posts (user_id, text, name, avatar, likes, comments, date, version)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), 1)
		RETURNING id, date, version
	`
	err := r.db.QueryRowxContext(ctx, query,
		post.UserID, post.Text, post.Name, post.Avatar, post.Likes, post.Comments,
	).Scan(&post.ID, &post.Date, &post.Version)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	var post model.Post
	err := r.db.GetContext(ctx, &post, `SELECT `+postColumns+` FROM posts WHERE id = $1`, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// GetByIDs retrieves multiple posts by their IDs.
// Used for hydrating the timeline from cache.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, `SELECT `+postColumns+` FROM posts WHERE id = ANY($1)`, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	// Re-order posts to match input order
	postsMap := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		postsMap[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := postsMap[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

// List returns every post, newest first.
func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	posts := []model.Post{}
	err := r.db.SelectContext(ctx, &posts, `SELECT `+postColumns+` FROM posts ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListRecent returns the newest posts as PostScore pairs for cache warming.
func (r *postRepository) ListRecent(ctx context.Context, limit int) ([]cache.PostScore, error) {
	query := `
		SELECT id, (EXTRACT(EPOCH FROM date) * 1000)::bigint AS timestamp
		FROM posts
		ORDER BY date DESC, id DESC
		LIMIT $1
	`
	type row struct {
		ID        int64 `db:"id"`
		Timestamp int64 `db:"timestamp"`
	}
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}

	posts := make([]cache.PostScore, len(rows))
	for i, r := range rows {
		posts[i] = cache.PostScore{PostID: r.ID, Timestamp: r.Timestamp}
	}
	return posts, nil
}

// UpdateEngagement writes likes and comments if the post is unchanged since it was read.
func (r *postRepository) UpdateEngagement(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET likes = $1, comments = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`
	var version int64
	err := r.db.GetContext(ctx, &version, query, post.Likes, post.Comments, post.ID, post.Version)
	if err == sql.ErrNoRows {
		// Either deleted or saved by someone else in between
		exists, err := r.exists(ctx, post.ID)
		if err != nil {
			return err
		}
		if !exists {
			return model.ErrPostNotFound
		}
		return model.ErrConcurrentUpdate
	}
	if err != nil {
		return fmt.Errorf("update post engagement: %w", err)
	}
	post.Version = version
	return nil
}

// Delete removes a post owned by userID.
func (r *postRepository) Delete(ctx context.Context, postID, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// Check if post exists but belongs to different user
		exists, err := r.exists(ctx, postID)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrNotPostOwner
		}
		return model.ErrPostNotFound
	}
	return nil
}

func (r *postRepository) exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID); err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// DeleteByUser removes every post written by userID.
func (r *postRepository) DeleteByUser(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `DELETE FROM posts WHERE user_id = $1 RETURNING id`, userID)
	if err != nil {
		return nil, fmt.Errorf("delete posts by user: %w", err)
	}
	return ids, nil
}
