package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/voting-be/internal/api/respond"
	"github.com/isdelr/voting-be/internal/auth"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/isdelr/voting-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TokenIssuer creates bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateJWT(userID string) (string, error)
}

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  TokenIssuer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens TokenIssuer) *UserHandler {
	return &UserHandler{service: service, tokens: tokens}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles new user registration and returns a token for the new account.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload models.SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrDuplicate):
			respond.Message(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrAdminExists):
			respond.Message(w, http.StatusBadRequest, "Admin already exists")
		default:
			log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
			respond.InternalError(w)
		}
		return
	}

	token, err := h.tokens.GenerateJWT(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respond.InternalError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"response": user,
		"token":    token,
	})
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
			respond.Message(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to authenticate user")
		respond.InternalError(w)
		return
	}

	token, err := h.tokens.GenerateJWT(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respond.InternalError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Profile retrieves the currently authenticated user from the token.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		respond.InternalError(w)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respond.Message(w, http.StatusNotFound, "user not found")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load profile")
		respond.InternalError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// ChangePassword handles changing the authenticated user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		respond.InternalError(w)
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.service.UpdatePassword(r.Context(), claims.UserID, payload.CurrentPassword, payload.NewPassword)
	switch {
	case err == nil:
		respond.Message(w, http.StatusOK, "Password updated successfully")
	case errors.Is(err, models.ErrInvalidCredentials):
		respond.Message(w, http.StatusUnauthorized, "Invalid current password")
	case errors.Is(err, models.ErrInvalidInput):
		respond.Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		respond.Message(w, http.StatusNotFound, "user not found")
	default:
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to change password")
		respond.InternalError(w)
	}
}
