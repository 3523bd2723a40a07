package model

import (
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Profile is the developer profile owned by exactly one user.
type Profile struct {
	ID             int64          `db:"id" json:"id"`
	UserID         int64          `db:"user_id" json:"-"`
	Company        string         `db:"company" json:"company,omitempty"`
	Website        string         `db:"website" json:"website,omitempty"`
	Location       string         `db:"location" json:"location,omitempty"`
	Status         string         `db:"status" json:"status"`
	Skills         pq.StringArray `db:"skills" json:"skills"`
	Bio            string         `db:"bio" json:"bio,omitempty"`
	GitHubUsername string         `db:"githubusername" json:"githubusername,omitempty"`
	Social         Social         `db:"social" json:"social"`
	Experience     Experiences    `db:"experience" json:"experience"`
	Education      Educations     `db:"education" json:"education"`
	Date           time.Time      `db:"date" json:"date"`
	Version        int64          `db:"version" json:"-"`

	// Joined from users
	User UserSummary `db:"user" json:"user"`
}

// Social holds optional social network links.
type Social struct {
	YouTube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

func (s Social) Value() (driver.Value, error) { return jsonValue(s) }

func (s *Social) Scan(src any) error {
	*s = Social{}
	return jsonScan(src, s)
}

// Experience is one job entry on a profile.
type Experience struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

// Experiences is the newest-first experience list of a profile.
type Experiences []Experience

func (e Experiences) Value() (driver.Value, error) {
	if e == nil {
		e = Experiences{}
	}
	return jsonValue(e)
}

func (e *Experiences) Scan(src any) error {
	*e = Experiences{}
	return jsonScan(src, e)
}

// Education is one school entry on a profile.
type Education struct {
	ID           string     `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}

// Educations is the newest-first education list of a profile.
type Educations []Education

func (e Educations) Value() (driver.Value, error) {
	if e == nil {
		e = Educations{}
	}
	return jsonValue(e)
}

func (e *Educations) Scan(src any) error {
	*e = Educations{}
	return jsonScan(src, e)
}

// ProfileRequest is the body of POST /profile.
// Empty fields are treated as absent and leave the stored value untouched.
type ProfileRequest struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Bio            string `json:"bio"`
	Status         string `json:"status" validate:"required" msg:"Status is required"`
	GitHubUsername string `json:"githubusername"`
	Skills         string `json:"skills"`
	YouTube        string `json:"youtube"`
	Twitter        string `json:"twitter"`
	Facebook       string `json:"facebook"`
	LinkedIn       string `json:"linkedin"`
	Instagram      string `json:"instagram"`
}

// ExperienceRequest is the body of PUT /profile/experience.
type ExperienceRequest struct {
	Title       string `json:"title" validate:"required" msg:"Title is required"`
	Company     string `json:"company" validate:"required" msg:"Company is required"`
	Location    string `json:"location"`
	From        string `json:"from" validate:"required" msg:"From date is required"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// EducationRequest is the body of PUT /profile/education.
type EducationRequest struct {
	School       string `json:"school" validate:"required" msg:"School is required"`
	Degree       string `json:"degree" validate:"required" msg:"Degree is required"`
	FieldOfStudy string `json:"fieldofstudy" validate:"required" msg:"Field of study is required"`
	From         string `json:"from" validate:"required" msg:"From date is required"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

// Profile errors
var (
	ErrProfileNotFound    = errors.New("there is no profile for this user")
	ErrExperienceNotFound = errors.New("experience entry not found")
	ErrEducationNotFound  = errors.New("education entry not found")
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate accepts calendar dates (2006-01-02) and RFC 3339 timestamps.
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		t, perr := time.Parse(layout, strings.TrimSpace(s))
		if perr == nil {
			return t, nil
		}
		err = perr
	}
	return time.Time{}, err
}

// ParseSkills splits a comma-separated skill list, trimming each token.
// Empty tokens are dropped; duplicates and order are kept.
func ParseSkills(s string) []string {
	skills := []string{}
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			skills = append(skills, tok)
		}
	}
	return skills
}

// ToExperience converts a validated request into an entry with the given id.
func (r ExperienceRequest) ToExperience(id string) (Experience, error) {
	from, to, err := parseRange(r.From, r.To)
	if err != nil {
		return Experience{}, err
	}
	return Experience{
		ID:          id,
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		From:        from,
		To:          to,
		Current:     r.Current,
		Description: r.Description,
	}, nil
}

// ToEducation converts a validated request into an entry with the given id.
func (r EducationRequest) ToEducation(id string) (Education, error) {
	from, to, err := parseRange(r.From, r.To)
	if err != nil {
		return Education{}, err
	}
	return Education{
		ID:           id,
		School:       r.School,
		Degree:       r.Degree,
		FieldOfStudy: r.FieldOfStudy,
		From:         from,
		To:           to,
		Current:      r.Current,
		Description:  r.Description,
	}, nil
}

func parseRange(fromStr, toStr string) (time.Time, *time.Time, error) {
	var verrs ValidationErrors
	from, err := ParseDate(fromStr)
	if err != nil {
		verrs = append(verrs, FieldError{Field: "from", Message: "From date is invalid"})
	}
	var to *time.Time
	if strings.TrimSpace(toStr) != "" {
		t, err := ParseDate(toStr)
		if err != nil {
			verrs = append(verrs, FieldError{Field: "to", Message: "To date is invalid"})
		} else {
			to = &t
		}
	}
	if len(verrs) > 0 {
		return time.Time{}, nil, verrs
	}
	return from, to, nil
}

// AddExperience prepends e.
func (p *Profile) AddExperience(e Experience) {
	p.Experience = append(Experiences{e}, p.Experience...)
}

// RemoveExperience removes the entry with id.
func (p *Profile) RemoveExperience(id string) error {
	for i, e := range p.Experience {
		if e.ID == id {
			p.Experience = append(p.Experience[:i:i], p.Experience[i+1:]...)
			return nil
		}
	}
	return ErrExperienceNotFound
}

// AddEducation prepends e.
func (p *Profile) AddEducation(e Education) {
	p.Education = append(Educations{e}, p.Education...)
}

// RemoveEducation removes the entry with id.
func (p *Profile) RemoveEducation(id string) error {
	for i, e := range p.Education {
		if e.ID == id {
			p.Education = append(p.Education[:i:i], p.Education[i+1:]...)
			return nil
		}
	}
	return ErrEducationNotFound
}

// Apply merges the non-empty fields of req into p.
// The social record is rebuilt from the request.
func (p *Profile) Apply(req ProfileRequest) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Company, req.Company)
	set(&p.Website, req.Website)
	set(&p.Location, req.Location)
	set(&p.Bio, req.Bio)
	set(&p.Status, req.Status)
	set(&p.GitHubUsername, req.GitHubUsername)
	if req.Skills != "" {
		p.Skills = ParseSkills(req.Skills)
	}
	if p.Skills == nil {
		p.Skills = pq.StringArray{}
	}
	p.Social = Social{
		YouTube:   req.YouTube,
		Twitter:   req.Twitter,
		Facebook:  req.Facebook,
		LinkedIn:  req.LinkedIn,
		Instagram: req.Instagram,
	}
}
