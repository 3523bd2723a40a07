package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"devconnector/internal/httputil"
	"devconnector/internal/model"
	"devconnector/internal/transport/http/middleware"
)

// writeServiceError maps service errors onto the error envelope.
// Unknown errors are logged and reported as fallback with a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error, fallback string) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		httputil.WriteValidationError(w, verrs)

	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrCommentNotFound):
		httputil.WriteNotFound(w, "Comment does not exist")
	case errors.Is(err, model.ErrProfileNotFound):
		httputil.WriteNotFound(w, "There is no profile for this user")
	case errors.Is(err, model.ErrExperienceNotFound):
		httputil.WriteNotFound(w, "Experience not found")
	case errors.Is(err, model.ErrEducationNotFound):
		httputil.WriteNotFound(w, "Education not found")
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrGitHubNotFound):
		httputil.WriteNotFound(w, "No Github profile found")

	case errors.Is(err, model.ErrNotPostOwner), errors.Is(err, model.ErrNotCommentOwner):
		httputil.WriteForbidden(w, "User not authorized")

	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid Credentials")

	case errors.Is(err, model.ErrAlreadyLiked):
		httputil.WriteConflict(w, "Post already liked")
	case errors.Is(err, model.ErrNotLiked):
		httputil.WriteConflict(w, "Post has not yet been liked")
	case errors.Is(err, model.ErrEmailExists):
		httputil.WriteConflict(w, "User already exists")
	case errors.Is(err, model.ErrConcurrentUpdate):
		httputil.WriteConflict(w, "Resource was modified concurrently, please retry")

	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")

	default:
		logger.Error().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(fallback)
		httputil.WriteInternalError(w, "Server Error")
	}
}

// decodeJSON reads the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// currentUser returns the authenticated user id, writing a 401 when absent.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
	}
	return userID, ok
}

// int64Param parses a numeric URL parameter, writing a 400 on failure.
func int64Param(w http.ResponseWriter, r *http.Request, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, message)
		return 0, false
	}
	return id, true
}
