package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"devconnector/internal/cache"
	"devconnector/internal/logging"
	"devconnector/internal/model"
)

const (
	githubUserAgent   = "devconnector"
	githubMaxBodySize = 4 << 20 // 4MB
)

// GitHubService proxies public repository listings from the GitHub REST API.
type GitHubService struct {
	client       *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	cache        cache.GitHubCache
	log          zerolog.Logger
}

// NewGitHubService builds the proxy. responses may be nil to disable caching.
func NewGitHubService(client *http.Client, baseURL, clientID, clientSecret string, responses cache.GitHubCache) *GitHubService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GitHubService{
		client:       client,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		cache:        responses,
		log:          logging.Component("GitHubService"),
	}
}

// NormalizeQuery fills defaults and clamps per_page into [1, GitHubMaxPerPage].
func NormalizeQuery(q model.GitHubReposQuery) model.GitHubReposQuery {
	if q.PerPage <= 0 {
		q.PerPage = model.GitHubDefaultPerPage
	}
	if q.PerPage > model.GitHubMaxPerPage {
		q.PerPage = model.GitHubMaxPerPage
	}
	if q.Sort == "" {
		q.Sort = model.GitHubDefaultSort
	}
	if q.Direction == "" {
		q.Direction = model.GitHubDefaultDirection
	}
	return q
}

// Repos returns the upstream JSON body listing the user's repositories.
func (s *GitHubService) Repos(ctx context.Context, q model.GitHubReposQuery) (json.RawMessage, error) {
	q = NormalizeQuery(q)
	if strings.TrimSpace(q.Username) == "" {
		return nil, model.ErrGitHubNotFound
	}

	params := url.Values{}
	params.Set("per_page", strconv.Itoa(q.PerPage))
	params.Set("sort", q.Sort)
	params.Set("direction", q.Direction)
	cacheKey := strings.ToLower(q.Username) + "?" + params.Encode()

	if s.cache != nil {
		body, found, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.log.Warn().Err(err).Str("username", q.Username).Msg("github cache read failed")
		} else if found {
			return json.RawMessage(body), nil
		}
	}

	endpoint := fmt.Sprintf("%s/users/%s/repos?%s", s.baseURL, url.PathEscape(q.Username), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("User-Agent", githubUserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.clientID != "" && s.clientSecret != "" {
		req.SetBasicAuth(s.clientID, s.clientSecret)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call github: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Debug().Str("username", q.Username).Int("status", resp.StatusCode).Msg("github lookup rejected")
		return nil, model.ErrGitHubNotFound
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, githubMaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read github response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("github returned invalid json")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, body); err != nil {
			s.log.Warn().Err(err).Str("username", q.Username).Msg("github cache write failed")
		}
	}
	return json.RawMessage(body), nil
}
