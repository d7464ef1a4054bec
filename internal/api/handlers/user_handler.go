package handlers

import (
	"net/http"
	"time"

	"github.com/isdelr/kochbuch-be/internal/auth"
	"github.com/isdelr/kochbuch-be/internal/models"
	"github.com/isdelr/kochbuch-be/internal/services"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
)

// TokenIssuer signs bearer tokens for an account.
type TokenIssuer interface {
	Issue(userID, email string) (string, time.Time, error)
}

// TokenRevoker denies a single token, or every token of an account issued up
// to a point in time, for the rest of their lifetime.
type TokenRevoker interface {
	Revoke(id *auth.Identity) error
	RevokeSubject(subject string, at time.Time) error
}

// UserHandler handles registration, login and the profile of the
// authenticated account.
type UserHandler struct {
	service services.UserServiceProvider
	events  services.EventServiceProvider
	tokens  TokenIssuer
	revoker TokenRevoker
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, events services.EventServiceProvider, tokens TokenIssuer, revoker TokenRevoker) *UserHandler {
	return &UserHandler{service: service, events: events, tokens: tokens, revoker: revoker}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Email       string  `json:"email" validate:"required,max=255"`
	Password    string  `json:"password" validate:"required"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfilePayload defines the structure for profile updates.
type ProfilePayload struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,max=500"`
}

// PasswordPayload defines the structure for password changes.
type PasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type publicUser struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if !decode(w, r, &payload) {
		return
	}

	user, err := h.service.Register(r.Context(), payload.Email, payload.Password, payload.DisplayName)
	if errors.Is(err, services.ErrAlreadyExists) {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		serviceError(w, r, err, "user not found")
		return
	}

	token, _, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "registration successful",
		"token":   token,
		"user":    publicUser{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	})
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decode(w, r, &payload) {
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			hlog.FromRequest(r).Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		}
		serviceError(w, r, err, "user not found")
		return
	}

	token, _, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "login successful",
		"token":   token,
		"user":    publicUser{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	})
}

// Logout revokes the token the request was made with.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.revoker.Revoke(id); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user_id", id.ID).Msg("Failed to revoke token")
		respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if err := h.events.CreateEvent(r.Context(), models.EventUserLogout, "info", "Logged out.", &id.ID); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user_id", id.ID).Msg("Failed to record event")
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Protected echoes the verified identity.
func (h *UserHandler) Protected(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "authenticated",
		"user":    id,
	})
}

// GetProfile retrieves the authenticated account.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUserByID(r.Context(), id.ID)
	if err != nil {
		serviceError(w, r, err, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// UpdateProfile changes the display name and avatar of the authenticated account.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var payload ProfilePayload
	if !decode(w, r, &payload) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), id.ID, payload.DisplayName, payload.AvatarURL)
	if err != nil {
		serviceError(w, r, err, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "profile updated",
		"user":    user,
	})
}

// ChangePassword sets a new password. Every token issued to the account so far
// is revoked and a fresh one returned.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var payload PasswordPayload
	if !decode(w, r, &payload) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), id.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		serviceError(w, r, err, "user not found")
		return
	}

	if err := h.revoker.RevokeSubject(id.ID, time.Now()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user_id", id.ID).Msg("Failed to revoke tokens")
	}
	token, _, err := h.tokens.Issue(id.ID, id.Email)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user_id", id.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "password updated",
		"token":   token,
	})
}
