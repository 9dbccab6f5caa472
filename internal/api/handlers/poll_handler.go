package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pollwise/pollwise-be/internal/auth"
	"github.com/pollwise/pollwise-be/internal/models"
	"github.com/pollwise/pollwise-be/internal/services"
	"github.com/rs/zerolog/log"
)

// PollHandler handles HTTP requests for poll management.
type PollHandler struct {
	polls services.PollServiceProvider
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(polls services.PollServiceProvider) *PollHandler {
	return &PollHandler{polls: polls}
}

// CreatePollPayload defines the structure for create-poll requests. Options
// may be plain strings or {text: ...} objects.
type CreatePollPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Options     []any  `json:"options"`
	EndDate     string `json:"endDate"`
}

// Create handles POST /api/polls.
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "Access denied", "Authentication required")
		return
	}

	var payload CreatePollPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		Error(w, http.StatusBadRequest, "Validation error", "Invalid request body")
		return
	}

	if payload.Title == "" || payload.Options == nil {
		Error(w, http.StatusBadRequest, "Validation error", "Title and options are required")
		return
	}

	options := make([]string, 0, len(payload.Options))
	for _, raw := range payload.Options {
		switch opt := raw.(type) {
		case string:
			options = append(options, opt)
		case map[string]any:
			text, _ := opt["text"].(string)
			options = append(options, text)
		default:
			Error(w, http.StatusBadRequest, "Validation error", "Options must be strings or objects with a text field")
			return
		}
	}

	var endDate *time.Time
	if payload.EndDate != "" {
		parsed, err := time.Parse(time.RFC3339, payload.EndDate)
		if err != nil {
			Error(w, http.StatusBadRequest, "Validation error", "endDate must be an RFC 3339 timestamp")
			return
		}
		endDate = &parsed
	}

	poll, err := h.polls.CreatePoll(claims.UserID, payload.Title, payload.Description, options, endDate)
	if err != nil {
		if DomainError(w, err) {
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to create poll")
		Internal(w, err, "Error creating poll")
		return
	}

	JSON(w, http.StatusCreated, map[string]any{
		"message": "Poll created successfully",
		"poll":    poll,
	})
}

// List handles GET /api/polls with status/page/limit query parameters.
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	polls, pagination, err := h.polls.ListPolls(status, page, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list polls")
		Internal(w, err, "Error retrieving polls")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"message":    "Polls retrieved successfully",
		"polls":      polls,
		"pagination": pagination,
	})
}

// Get handles GET /api/polls/{id}.
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	poll, err := h.polls.GetPoll(id)
	if err != nil {
		if DomainError(w, err) {
			return
		}
		log.Error().Err(err).Str("poll_id", id).Msg("Failed to get poll")
		Internal(w, err, "Error retrieving poll")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"message": "Poll retrieved successfully",
		"poll":    poll,
	})
}

// Update handles PUT /api/polls/{id}; only the creator or an admin may
// change the mutable fields.
func (h *PollHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "Access denied", "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	var update models.PollUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		Error(w, http.StatusBadRequest, "Validation error", "Invalid request body")
		return
	}

	poll, err := h.polls.UpdatePoll(id, claims, update)
	if err != nil {
		if DomainError(w, err) {
			return
		}
		log.Error().Err(err).Str("poll_id", id).Msg("Failed to update poll")
		Internal(w, err, "Error updating poll")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"message": "Poll updated successfully",
		"poll":    poll,
	})
}

// Delete handles DELETE /api/polls/{id}. Deletion is irreversible and does
// not touch the vote ledger.
func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "Access denied", "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	poll, err := h.polls.DeletePoll(id, claims)
	if err != nil {
		if DomainError(w, err) {
			return
		}
		log.Error().Err(err).Str("poll_id", id).Msg("Failed to delete poll")
		Internal(w, err, "Error deleting poll")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"message": "Poll deleted successfully",
		"deletedPoll": map[string]string{
			"id":    poll.ID,
			"title": poll.Title,
		},
	})
}
