package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pollwise/pollwise-be/internal/auth"
	"github.com/pollwise/pollwise-be/internal/services"
	"github.com/rs/zerolog/log"
)

// VoteHandler handles vote casting, results and voting history.
type VoteHandler struct {
	votes services.VoteServiceProvider
}

// NewVoteHandler creates a new VoteHandler.
func NewVoteHandler(votes services.VoteServiceProvider) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// CastVotePayload defines the structure for vote requests.
type CastVotePayload struct {
	PollID         string `json:"pollId"`
	SelectedOption string `json:"selectedOption"`
}

// Cast handles POST /api/votes.
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "Access denied", "Authentication required to vote")
		return
	}

	var payload CastVotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		Error(w, http.StatusBadRequest, "Validation error", "Invalid request body")
		return
	}

	if payload.PollID == "" || payload.SelectedOption == "" {
		Error(w, http.StatusBadRequest, "Validation error", "Poll ID and selected option are required")
		return
	}

	vote, poll, err := h.votes.CastVote(claims.UserID, payload.PollID, payload.SelectedOption)
	if err != nil {
		if DomainError(w, err) {
			return
		}
		log.Error().Err(err).Str("poll_id", payload.PollID).Str("user_id", claims.UserID).Msg("Failed to cast vote")
		Internal(w, err, "Error casting vote")
		return
	}

	JSON(w, http.StatusCreated, map[string]any{
		"message": "Vote cast successfully",
		"vote": map[string]any{
			"id":             vote.ID,
			"pollId":         poll.ID,
			"pollTitle":      poll.Title,
			"selectedOption": vote.SelectedOption,
			"votedAt":        vote.VotedAt,
		},
	})
}

// Results handles GET /api/votes/results/{pollId}. Authentication is
// optional; a recognized caller additionally sees their own vote.
func (h *VoteHandler) Results(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "pollId")

	userID := ""
	if claims, ok := auth.FromContext(r.Context()); ok {
		userID = claims.UserID
	}

	poll, results, userVote, err := h.votes.GetResults(pollID, userID)
	if err != nil {
		if DomainError(w, err) {
			return
		}
		log.Error().Err(err).Str("poll_id", pollID).Msg("Failed to get results")
		Internal(w, err, "Error retrieving results")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"message": "Poll results retrieved successfully",
		"poll": map[string]any{
			"id":          poll.ID,
			"title":       poll.Title,
			"description": poll.Description,
			"status":      poll.Status,
			"totalVotes":  poll.TotalVotes,
			"results":     results,
			"userVote":    userVote,
			"creator":     poll.Creator,
			"createdAt":   poll.CreatedAt,
			"endDate":     poll.EndDate,
		},
	})
}

// MyVotes handles GET /api/votes/my-votes.
func (h *VoteHandler) MyVotes(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "Access denied", "Authentication required")
		return
	}

	votes, err := h.votes.GetUserVotes(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to get user votes")
		Internal(w, err, "Error retrieving user votes")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"message":    "User votes retrieved successfully",
		"totalVotes": len(votes),
		"votes":      votes,
	})
}
