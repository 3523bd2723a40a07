package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"devconnector/internal/httputil"
	"devconnector/internal/logging"
	"devconnector/internal/model"
	"devconnector/internal/service"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService  *service.UserService
	authService  *service.AuthService
	mediaService *service.MediaService
	log          zerolog.Logger
}

// NewAuthHandler wires dependencies for authentication endpoints.
// mediaService may be nil when uploads are not configured.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, mediaService *service.MediaService) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		authService:  authService,
		mediaService: mediaService,
		log:          logging.Component("AuthHandler"),
	}
}

// Register handles POST /users
// Accepts a JSON body, or multipart/form-data with an optional avatar file.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if !h.parseMultipartRegister(w, r, &req) {
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		h.discardAvatar(r, req.AvatarKey)
		writeServiceError(w, r, h.log, err, "register failed")
		return
	}

	h.writeAuthResponse(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) parseMultipartRegister(w http.ResponseWriter, r *http.Request, req *model.RegisterRequest) bool {
	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
			return false
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return false
	}

	req.Name = r.FormValue("name")
	req.Email = r.FormValue("email")
	req.Password = r.FormValue("password")

	file, header, err := r.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) {
		return true
	}
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid avatar upload")
		return false
	}
	defer file.Close()

	if h.mediaService == nil {
		httputil.WriteBadRequest(w, "Avatar uploads are not enabled")
		return false
	}

	upload, err := h.mediaService.UploadAvatar(r.Context(), service.AvatarUpload{
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err, "avatar upload failed")
		return false
	}
	req.AvatarURL = &upload.URL
	req.AvatarKey = &upload.Key
	return true
}

// discardAvatar removes an avatar uploaded for a registration that failed.
func (h *AuthHandler) discardAvatar(r *http.Request, key *string) {
	if key == nil || h.mediaService == nil {
		return
	}
	if err := h.mediaService.DeleteObject(r.Context(), *key); err != nil {
		h.log.Warn().Err(err).Str("key", *key).Msg("failed to discard avatar")
	}
}

// Login handles POST /auth
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "login failed")
		return
	}

	h.writeAuthResponse(w, r, http.StatusOK, user)
}

// Me handles GET /auth
// Returns the currently authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "get user failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) writeAuthResponse(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "sign token failed")
		return
	}

	httputil.WriteJSON(w, status, model.AuthResponse{
		User:      user,
		Token:     token,
		ExpiresIn: h.authService.ExpiresIn(),
	})
}
