package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"devconnector/internal/model"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileSelect = `
	SELECT p.id, p.user_id, p.company, p.website, p.location, p.status, p.skills, p.bio,
	       p.githubusername, p.social, p.experience, p.education, p.date, p.version,
	       u.id AS "user.id", u.name AS "user.name", u.avatar AS "user.avatar"
	FROM profiles p
	JOIN users u ON u.id = p.user_id
`

// GetByUserID retrieves a profile with its owner summary.
func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, profileSelect+` WHERE p.user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// List returns all profiles, oldest first.
func (r *profileRepository) List(ctx context.Context) ([]model.Profile, error) {
	profiles := []model.Profile{}
	if err := r.db.SelectContext(ctx, &profiles, profileSelect+` ORDER BY p.id`); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Create inserts a profile. The unique user_id index resolves concurrent creates.
func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (user_id, company, website, location, status, skills, bio,
		                      githubusername, social, experience, education, date, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), 1)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING id, date, version
	`
	row := r.db.QueryRowxContext(ctx, query,
		p.UserID, p.Company, p.Website, p.Location, p.Status, p.Skills, p.Bio,
		p.GitHubUsername, p.Social, p.Experience, p.Education,
	)
	err := row.Scan(&p.ID, &p.Date, &p.Version)
	if err == sql.ErrNoRows {
		return model.ErrConcurrentUpdate
	}
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Update writes the profile if nobody saved it since it was read.
func (r *profileRepository) Update(ctx context.Context, p *model.Profile) error {
	query := `
		UPDATE profiles
		SET company = $1, website = $2, location = $3, status = $4, skills = $5, bio = $6,
		    githubusername = $7, social = $8, experience = $9, education = $10,
		    version = version + 1
		WHERE user_id = $11 AND version = $12
		RETURNING version
	`
	var version int64
	err := r.db.GetContext(ctx, &version, query,
		p.Company, p.Website, p.Location, p.Status, p.Skills, p.Bio,
		p.GitHubUsername, p.Social, p.Experience, p.Education,
		p.UserID, p.Version,
	)
	if err == sql.ErrNoRows {
		return model.ErrConcurrentUpdate
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	p.Version = version
	return nil
}

// DeleteByUserID removes the profile owned by userID.
func (r *profileRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}
