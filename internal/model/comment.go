package model

import (
	"database/sql/driver"
	"errors"
	"time"
)

// Comment represents a comment embedded in a post.
type Comment struct {
	ID     string    `json:"id"`
	UserID int64     `json:"user"`
	Text   string    `json:"text"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
	Date   time.Time `json:"date"`
}

// Comments is the newest-first comment list of a post.
type Comments []Comment

func (c Comments) Value() (driver.Value, error) {
	if c == nil {
		c = Comments{}
	}
	return jsonValue(c)
}

func (c *Comments) Scan(src any) error {
	*c = Comments{}
	return jsonScan(src, c)
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required" msg:"Text is required"`
}

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment does not exist")
	ErrNotCommentOwner = errors.New("user not authorized")
)
