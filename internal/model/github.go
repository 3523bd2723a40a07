package model

import "errors"

// GitHub repo listing defaults
const (
	GitHubDefaultPerPage   = 5
	GitHubMaxPerPage       = 100
	GitHubDefaultSort      = "created"
	GitHubDefaultDirection = "asc"
)

// GitHubReposQuery holds the listing options forwarded upstream.
type GitHubReposQuery struct {
	Username  string
	PerPage   int
	Sort      string
	Direction string
}

// ErrGitHubNotFound is returned when GitHub has no such user or rejects the call.
var ErrGitHubNotFound = errors.New("no github profile found")
