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

type ProfileHandler struct {
	profileService *service.ProfileService
	log            zerolog.Logger
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		log:            logging.Component("ProfileHandler"),
	}
}

// Me handles GET /profile/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.GetByUserID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "get own profile failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Upsert handles POST /profile
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.Upsert(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "upsert profile failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// List handles GET /profile
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profileService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err, "list profiles failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profiles)
}

// GetByUserID handles GET /profile/user/{user_id}
func (h *ProfileHandler) GetByUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64Param(w, r, "user_id", "Invalid user ID")
	if !ok {
		return
	}

	profile, err := h.profileService.GetByUserID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "get profile failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Delete handles DELETE /profile
// Removes the caller's posts, profile and account.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.profileService.DeleteAccount(r.Context(), userID); err != nil {
		writeServiceError(w, r, h.log, err, "delete account failed")
		return
	}
	httputil.WriteMessage(w, "User deleted")
}

// AddExperience handles PUT /profile/experience
func (h *ProfileHandler) AddExperience(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.ExperienceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.AddExperience(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "add experience failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// RemoveExperience handles DELETE /profile/experience/{id}
func (h *ProfileHandler) RemoveExperience(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.RemoveExperience(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "remove experience failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// AddEducation handles PUT /profile/education
func (h *ProfileHandler) AddEducation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.EducationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.AddEducation(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "add education failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// RemoveEducation handles DELETE /profile/education/{id}
func (h *ProfileHandler) RemoveEducation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.RemoveEducation(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "remove education failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}
