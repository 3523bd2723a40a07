package model

import (
	"errors"
	"time"
)

// User represents a registered account
type User struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Avatar         string    `db:"avatar" json:"avatar"`
	AvatarKey      *string   `db:"avatar_key" json:"-"`
	Date           time.Time `db:"date" json:"date"`
}

// UserSummary is the public projection of a user embedded in other documents.
type UserSummary struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Avatar string `db:"avatar" json:"avatar"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Name      string  `json:"name" validate:"required" msg:"Name is required"`
	Email     string  `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password  string  `json:"password" validate:"required,min=6" msg:"Please enter a password with 6 or more characters"`
	AvatarURL *string `json:"-"`
	AvatarKey *string `json:"-"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to create a user with a taken email
	ErrEmailExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
