package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"devconnector/internal/httputil"
	"devconnector/internal/logging"
	"devconnector/internal/model"
	"devconnector/internal/service"
)

type PostHandler struct {
	postService *service.PostService
	log         zerolog.Logger
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
		log:         logging.Component("PostHandler"),
	}
}

// Create handles POST /posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "create post failed")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// List handles GET /posts
// Returns every post, newest first.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err, "list posts failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, posts)
}

// GetByID handles GET /posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, ok := int64Param(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	post, err := h.postService.GetByID(r.Context(), postID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "get post failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}
// Only the author may delete a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := int64Param(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), postID, userID); err != nil {
		writeServiceError(w, r, h.log, err, "delete post failed")
		return
	}

	httputil.WriteMessage(w, "Post removed")
}

// Like handles PUT /posts/like/{id}
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := int64Param(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	likes, err := h.postService.Like(r.Context(), postID, userID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "like post failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, likes)
}

// Unlike handles PUT /posts/unlike/{id}
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := int64Param(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	likes, err := h.postService.Unlike(r.Context(), postID, userID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "unlike post failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, likes)
}

// AddComment handles POST /posts/comment/{id}
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := int64Param(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comments, err := h.postService.AddComment(r.Context(), postID, userID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "add comment failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comments)
}

// DeleteComment handles DELETE /posts/comment/{id}/{comment_id}
// Only the comment's author may delete it.
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := int64Param(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	comments, err := h.postService.DeleteComment(r.Context(), postID, chi.URLParam(r, "comment_id"), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "delete comment failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comments)
}
