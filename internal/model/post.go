package model

import (
	"database/sql/driver"
	"errors"
	"time"
)

// Post represents a user's post with its embedded likes and comments.
// Name and Avatar are a snapshot of the author at creation time.
type Post struct {
	ID       int64     `db:"id" json:"id"`
	UserID   int64     `db:"user_id" json:"user"`
	Text     string    `db:"text" json:"text"`
	Name     string    `db:"name" json:"name"`
	Avatar   string    `db:"avatar" json:"avatar"`
	Likes    Likes     `db:"likes" json:"likes"`
	Comments Comments  `db:"comments" json:"comments"`
	Date     time.Time `db:"date" json:"date"`
	Version  int64     `db:"version" json:"-"`
}

// Like records that a user liked a post.
type Like struct {
	UserID int64 `json:"user"`
}

// Likes is the newest-first like list of a post.
type Likes []Like

func (l Likes) Value() (driver.Value, error) {
	if l == nil {
		l = Likes{}
	}
	return jsonValue(l)
}

func (l *Likes) Scan(src any) error {
	*l = Likes{}
	return jsonScan(src, l)
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Text string `json:"text" validate:"required" msg:"Text is required"`
}

// Post errors
var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("user not authorized")
	ErrAlreadyLiked = errors.New("post already liked")
	ErrNotLiked     = errors.New("post has not yet been liked")
)

// HasLiked reports whether userID appears in the like list.
func (p *Post) HasLiked(userID int64) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// AddLike prepends a like by userID.
func (p *Post) AddLike(userID int64) error {
	if p.HasLiked(userID) {
		return ErrAlreadyLiked
	}
	p.Likes = append(Likes{{UserID: userID}}, p.Likes...)
	return nil
}

// RemoveLike drops the first like by userID.
func (p *Post) RemoveLike(userID int64) error {
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
			return nil
		}
	}
	return ErrNotLiked
}

// AddComment prepends c to the comment list.
func (p *Post) AddComment(c Comment) {
	p.Comments = append(Comments{c}, p.Comments...)
}

// RemoveComment removes the comment with commentID if actorID wrote it.
func (p *Post) RemoveComment(commentID string, actorID int64) error {
	for i, c := range p.Comments {
		if c.ID != commentID {
			continue
		}
		if c.UserID != actorID {
			return ErrNotCommentOwner
		}
		p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
		return nil
	}
	return ErrCommentNotFound
}
