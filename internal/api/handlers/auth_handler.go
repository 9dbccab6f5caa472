package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pollwise/pollwise-be/internal/auth"
	"github.com/pollwise/pollwise-be/internal/models"
	"github.com/pollwise/pollwise-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and the current-user endpoint.
type AuthHandler struct {
	users  services.UserServiceProvider
	tokens *auth.TokenManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		Error(w, http.StatusBadRequest, "Validation error", "Invalid request body")
		return
	}

	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		Error(w, http.StatusBadRequest, "Validation error", "Username, email and password are required")
		return
	}

	user, err := h.users.CreateUser(payload.Username, payload.Email, payload.Password, models.RoleUser)
	if err != nil {
		if DomainError(w, err) {
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		Internal(w, err, "Error registering user")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate token")
		Internal(w, err, "Error registering user")
		return
	}

	JSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		Error(w, http.StatusBadRequest, "Validation error", "Invalid request body")
		return
	}

	if payload.Email == "" || payload.Password == "" {
		Error(w, http.StatusBadRequest, "Validation error", "Email and password are required")
		return
	}

	user, err := h.users.AuthenticateUser(payload.Email, payload.Password)
	if err != nil {
		if DomainError(w, err) {
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Login failed")
		Internal(w, err, "Error logging in")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate token")
		Internal(w, err, "Error logging in")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// Me handles GET /api/auth/me, returning the profile behind the presented
// token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "Access denied", "Authentication required")
		return
	}

	user, err := h.users.GetUserByID(claims.UserID)
	if err != nil {
		if DomainError(w, err) {
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load user from token")
		Internal(w, err, "Error retrieving user profile")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"message": "User profile retrieved successfully",
		"user":    user,
	})
}
