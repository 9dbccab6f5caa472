package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pollwise/pollwise-be/internal/models"
	"github.com/pollwise/pollwise-be/internal/services"
	"github.com/rs/zerolog/log"
)

var production bool

// SetProduction switches error responses to production mode, where 500
// messages stay generic. Called once at startup from the loaded config.
func SetProduction(p bool) {
	production = p
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// Error writes the shared {error, message} error body.
func Error(w http.ResponseWriter, statusCode int, errType, message string) {
	JSON(w, statusCode, map[string]string{
		"error":   errType,
		"message": message,
	})
}

// Internal writes a generic 500. Outside production the underlying error is
// appended so local debugging doesn't need log access; production responses
// stay opaque.
func Internal(w http.ResponseWriter, err error, message string) {
	if !production && err != nil {
		message = message + ": " + err.Error()
	}
	Error(w, http.StatusInternalServerError, "Internal server error", message)
}

// DomainError maps known service errors onto their HTTP responses. Returns
// false when the error is not a domain error, leaving the caller to treat it
// as internal.
func DomainError(w http.ResponseWriter, err error) bool {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		Error(w, http.StatusBadRequest, "Validation error", validation.Error())
		return true
	}

	switch {
	case errors.Is(err, services.ErrDuplicateEmail):
		Error(w, http.StatusConflict, "User already exists", "Email is already registered")
	case errors.Is(err, services.ErrDuplicateUsername):
		Error(w, http.StatusConflict, "User already exists", "Username is already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "Authentication failed", "Invalid credentials")
	case errors.Is(err, services.ErrUserNotFound):
		Error(w, http.StatusNotFound, "Not found", "User not found")
	case errors.Is(err, services.ErrPollNotFound):
		Error(w, http.StatusNotFound, "Not found", "Poll not found")
	case errors.Is(err, services.ErrNotPollOwner):
		Error(w, http.StatusForbidden, "Forbidden", "You don't have permission to modify this poll")
	case errors.Is(err, services.ErrPollClosed):
		Error(w, http.StatusBadRequest, "Poll closed", "This poll is no longer accepting votes")
	case errors.Is(err, services.ErrPollExpired):
		Error(w, http.StatusBadRequest, "Poll expired", "This poll has expired")
	case errors.Is(err, services.ErrInvalidOption):
		Error(w, http.StatusBadRequest, "Invalid option", "Selected option does not exist in this poll")
	case errors.Is(err, services.ErrAlreadyVoted):
		Error(w, http.StatusConflict, "Already voted", "You have already voted in this poll")
	default:
		return false
	}
	return true
}
