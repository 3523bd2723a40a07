package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"devconnector/internal/httputil"
	"devconnector/internal/logging"
	"devconnector/internal/model"
	"devconnector/internal/service"
)

type GitHubHandler struct {
	githubService *service.GitHubService
	log           zerolog.Logger
}

func NewGitHubHandler(githubService *service.GitHubService) *GitHubHandler {
	return &GitHubHandler{
		githubService: githubService,
		log:           logging.Component("GitHubHandler"),
	}
}

// Repos handles GET /profile/github/{username}
// Optional query: per_page, sort, direction. The upstream body is returned verbatim.
func (h *GitHubHandler) Repos(w http.ResponseWriter, r *http.Request) {
	q := model.GitHubReposQuery{
		Username:  chi.URLParam(r, "username"),
		Sort:      r.URL.Query().Get("sort"),
		Direction: r.URL.Query().Get("direction"),
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteBadRequest(w, "per_page must be a number")
			return
		}
		q.PerPage = perPage
	}

	body, err := h.githubService.Repos(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, h.log, err, "github lookup failed")
		return
	}

	httputil.WriteRawJSON(w, http.StatusOK, body)
}
