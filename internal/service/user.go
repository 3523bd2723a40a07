package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"devconnector/internal/logging"
	"devconnector/internal/model"
	"devconnector/internal/repository"
	"devconnector/internal/validate"
)

// UserService handles business logic for user operations
type UserService struct {
	repo          repository.UserRepository
	defaultAvatar string
	log           zerolog.Logger
}

// NewUserService builds a UserService. defaultAvatar may be empty, in which case
// users registering without an upload get a Gravatar URL.
func NewUserService(repo repository.UserRepository, defaultAvatar string) *UserService {
	return &UserService{
		repo:          repo,
		defaultAvatar: defaultAvatar,
		log:           logging.Component("UserService"),
	}
}

// Register creates a new user account. The avatar comes from the request when
// the caller uploaded one.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	if (req.AvatarURL == nil) != (req.AvatarKey == nil) {
		return nil, fmt.Errorf("avatar url and key must both be provided or both omitted")
	}

	_, err := s.repo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, model.ErrEmailExists
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:           req.Name,
		Email:          req.Email,
		PasswordHashed: string(hashedPassword),
		AvatarKey:      req.AvatarKey,
	}
	switch {
	case req.AvatarURL != nil:
		user.Avatar = *req.AvatarURL
	case s.defaultAvatar != "":
		user.Avatar = s.defaultAvatar
	default:
		user.Avatar = GravatarURL(req.Email)
	}

	// The unique index still reports ErrEmailExists when two sign-ups race.
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Int64("user", user.ID).Msg("user registered")
	return user, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Don't reveal whether the email exists or not
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GravatarURL returns the 200px, PG-rated Gravatar for email with the
// "mystery man" fallback image.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "//www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200&r=pg&d=mm"
}
