package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"devconnector/internal/logging"
	"devconnector/internal/model"
	"devconnector/internal/queue"
	"devconnector/internal/repository"
	"devconnector/internal/validate"
)

// ProfileService owns profiles, their experience and education lists, and
// account deletion.
type ProfileService struct {
	profiles  repository.ProfileRepository
	users     repository.UserRepository
	posts     repository.PostRepository
	publisher queue.Publisher
	media     *MediaService
	log       zerolog.Logger
}

// NewProfileService wires the profile service. publisher and media may be nil.
func NewProfileService(
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	posts repository.PostRepository,
	publisher queue.Publisher,
	media *MediaService,
) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		users:     users,
		posts:     posts,
		publisher: publisher,
		media:     media,
		log:       logging.Component("ProfileService"),
	}
}

// GetByUserID returns the profile owned by userID.
func (s *ProfileService) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// List returns every profile with its owner summary.
func (s *ProfileService) List(ctx context.Context) ([]model.Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Upsert creates the caller's profile or merges the non-empty request fields
// into the existing one.
func (s *ProfileService) Upsert(ctx context.Context, userID int64, req model.ProfileRequest) (*model.Profile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, model.ErrProfileNotFound) {
		return s.create(ctx, userID, req)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	profile.Apply(req)
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) create(ctx context.Context, userID int64, req model.ProfileRequest) (*model.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		UserID:     userID,
		Experience: model.Experiences{},
		Education:  model.Educations{},
	}
	profile.Apply(req)

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	profile.User = user.Summary()

	s.log.Info().Int64("user", userID).Int64("profile", profile.ID).Msg("profile created")
	return profile, nil
}

// AddExperience validates req and prepends it to the caller's experience list.
func (s *ProfileService) AddExperience(ctx context.Context, userID int64, req model.ExperienceRequest) (*model.Profile, error) {
	entry, convErr := req.ToExperience(uuid.NewString())
	if err := model.JoinValidation(validate.Struct(req), convErr); err != nil {
		return nil, err
	}

	return s.edit(ctx, userID, func(p *model.Profile) error {
		p.AddExperience(entry)
		return nil
	})
}

// RemoveExperience deletes the experience entry with the given id.
func (s *ProfileService) RemoveExperience(ctx context.Context, userID int64, entryID string) (*model.Profile, error) {
	return s.edit(ctx, userID, func(p *model.Profile) error {
		return p.RemoveExperience(entryID)
	})
}

// AddEducation validates req and prepends it to the caller's education list.
func (s *ProfileService) AddEducation(ctx context.Context, userID int64, req model.EducationRequest) (*model.Profile, error) {
	entry, convErr := req.ToEducation(uuid.NewString())
	if err := model.JoinValidation(validate.Struct(req), convErr); err != nil {
		return nil, err
	}

	return s.edit(ctx, userID, func(p *model.Profile) error {
		p.AddEducation(entry)
		return nil
	})
}

// RemoveEducation deletes the education entry with the given id.
func (s *ProfileService) RemoveEducation(ctx context.Context, userID int64, entryID string) (*model.Profile, error) {
	return s.edit(ctx, userID, func(p *model.Profile) error {
		return p.RemoveEducation(entryID)
	})
}

// edit loads the caller's profile, applies fn and saves under the version check.
func (s *ProfileService) edit(ctx context.Context, userID int64, fn func(*model.Profile) error) (*model.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(profile); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// DeleteAccount removes the user's posts, profile and user record, in that
// order. Parts that are already gone are skipped.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID int64) error {
	var avatarKey string
	if user, err := s.users.GetByID(ctx, userID); err == nil && user.AvatarKey != nil {
		avatarKey = *user.AvatarKey
	}

	postIDs, err := s.posts.DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}

	if err := s.profiles.DeleteByUserID(ctx, userID); err != nil && !errors.Is(err, model.ErrProfileNotFound) {
		return fmt.Errorf("delete profile: %w", err)
	}

	if err := s.users.Delete(ctx, userID); err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return fmt.Errorf("delete user: %w", err)
	}

	if avatarKey != "" && s.media != nil {
		if err := s.media.DeleteObject(ctx, avatarKey); err != nil {
			s.log.Warn().Err(err).Int64("user", userID).Str("key", avatarKey).Msg("failed to delete avatar")
		}
	}

	if s.publisher != nil && len(postIDs) > 0 {
		event := queue.NewAccountDeletedEvent(userID, postIDs)
		if _, err := s.publisher.Publish(ctx, queue.StreamPosts, event); err != nil {
			s.log.Error().Err(err).Int64("user", userID).Msg("failed to publish account_deleted")
		}
	}

	s.log.Info().Int64("user", userID).Int("posts", len(postIDs)).Msg("account deleted")
	return nil
}
