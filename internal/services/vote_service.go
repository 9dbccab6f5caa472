package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pollwise/pollwise-be/internal/models"
)

// VoteServiceProvider defines the interface for vote services.
type VoteServiceProvider interface {
	CastVote(userID, pollID, selectedOption string) (models.Vote, models.Poll, error)
	GetResults(pollID, userID string) (models.Poll, []models.OptionResult, *string, error)
	GetUserVotes(userID string) ([]models.VoteRecord, error)
}

// VoteService is the vote ledger: one immutable record per (user, poll)
// pair, driving the denormalized tallies on the poll store.
type VoteService struct {
	db    *sql.DB
	polls *PollService
}

// NewVoteService creates a new VoteService.
func NewVoteService(db *sql.DB, polls *PollService) *VoteService {
	return &VoteService{db: db, polls: polls}
}

// CastVote records a vote and bumps the matching option tally and the poll
// total. The ledger insert and both increments commit in one transaction, so
// the tallies can never drift from the ledger. Under concurrent casts by the
// same user the UNIQUE(user_id, poll_id) index lets exactly one insert
// through; the pre-check below only exists to give the common duplicate a
// fast, well-shaped 409.
func (s *VoteService) CastVote(userID, pollID, selectedOption string) (models.Vote, models.Poll, error) {
	var (
		status    string
		endDate   sql.NullTime
		pollTitle string
	)
	row := s.db.QueryRow("SELECT title, status, end_date FROM polls WHERE id = ?", pollID)
	if err := row.Scan(&pollTitle, &status, &endDate); err != nil {
		if err == sql.ErrNoRows {
			return models.Vote{}, models.Poll{}, ErrPollNotFound
		}
		return models.Vote{}, models.Poll{}, err
	}

	if status != models.StatusActive {
		return models.Vote{}, models.Poll{}, ErrPollClosed
	}
	// Expiry is lazy: no sweeper flips the status, so an active poll past
	// its end date is rejected here.
	if endDate.Valid && time.Now().After(endDate.Time) {
		return models.Vote{}, models.Poll{}, ErrPollExpired
	}

	var optionExists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM poll_options WHERE poll_id = ? AND text = ?)",
		pollID, selectedOption).Scan(&optionExists)
	if err != nil {
		return models.Vote{}, models.Poll{}, err
	}
	if !optionExists {
		return models.Vote{}, models.Poll{}, ErrInvalidOption
	}

	var alreadyVoted bool
	err = s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM votes WHERE user_id = ? AND poll_id = ?)",
		userID, pollID).Scan(&alreadyVoted)
	if err != nil {
		return models.Vote{}, models.Poll{}, err
	}
	if alreadyVoted {
		return models.Vote{}, models.Poll{}, ErrAlreadyVoted
	}

	vote := models.Vote{
		ID:             uuid.New().String(),
		UserID:         userID,
		PollID:         pollID,
		SelectedOption: selectedOption,
		VotedAt:        time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Vote{}, models.Poll{}, err
	}
	defer tx.Rollback()

	// The insert goes first so the transaction takes the write lock before
	// touching tallies, and so a losing racer fails here without ever
	// incrementing anything.
	_, err = tx.Exec("INSERT INTO votes (id, user_id, poll_id, selected_option, voted_at) VALUES (?, ?, ?, ?, ?)",
		vote.ID, vote.UserID, vote.PollID, vote.SelectedOption, vote.VotedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: votes.user_id, votes.poll_id") {
			return models.Vote{}, models.Poll{}, ErrAlreadyVoted
		}
		return models.Vote{}, models.Poll{}, err
	}

	res, err := tx.Exec("UPDATE poll_options SET vote_count = vote_count + 1 WHERE poll_id = ? AND text = ?",
		pollID, selectedOption)
	if err != nil {
		return models.Vote{}, models.Poll{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Vote{}, models.Poll{}, err
	} else if n == 0 {
		// Option vanished between the pre-check and the transaction.
		return models.Vote{}, models.Poll{}, ErrInvalidOption
	}

	_, err = tx.Exec("UPDATE polls SET total_votes = total_votes + 1, updated_at = ? WHERE id = ?",
		time.Now().UTC(), pollID)
	if err != nil {
		return models.Vote{}, models.Poll{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Vote{}, models.Poll{}, err
	}

	return vote, models.Poll{ID: pollID, Title: pollTitle}, nil
}

// GetResults computes per-option percentages for a poll and, when userID is
// non-empty, which option that user picked. Percentages round independently
// to two decimals and are not corrected to sum to 100.
func (s *VoteService) GetResults(pollID, userID string) (models.Poll, []models.OptionResult, *string, error) {
	poll, err := s.polls.GetPoll(pollID)
	if err != nil {
		return models.Poll{}, nil, nil, err
	}

	results := make([]models.OptionResult, len(poll.Options))
	for i, opt := range poll.Options {
		percentage := "0.00"
		if poll.TotalVotes > 0 {
			percentage = fmt.Sprintf("%.2f", float64(opt.Votes)/float64(poll.TotalVotes)*100)
		}
		results[i] = models.OptionResult{Text: opt.Text, Votes: opt.Votes, Percentage: percentage}
	}

	var userVote *string
	if userID != "" {
		var selected string
		err := s.db.QueryRow("SELECT selected_option FROM votes WHERE user_id = ? AND poll_id = ?",
			userID, pollID).Scan(&selected)
		switch {
		case err == nil:
			userVote = &selected
		case err != sql.ErrNoRows:
			return models.Poll{}, nil, nil, err
		}
	}

	return poll, results, userVote, nil
}

// GetUserVotes returns a user's voting history, newest first. Poll metadata
// is joined in where the poll still exists; votes on deleted polls keep
// their ledger entry with nil poll fields.
func (s *VoteService) GetUserVotes(userID string) ([]models.VoteRecord, error) {
	rows, err := s.db.Query(`SELECT v.id, v.poll_id, v.selected_option, v.voted_at, p.title, p.description, p.status, p.total_votes
		FROM votes v LEFT JOIN polls p ON p.id = v.poll_id
		WHERE v.user_id = ? ORDER BY v.voted_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []models.VoteRecord{}
	for rows.Next() {
		var rec models.VoteRecord
		var title, description, status sql.NullString
		var totalVotes sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.PollID, &rec.SelectedOption, &rec.VotedAt, &title, &description, &status, &totalVotes); err != nil {
			return nil, err
		}
		if title.Valid {
			rec.PollTitle = &title.String
		}
		if description.Valid {
			rec.PollDescription = &description.String
		}
		if status.Valid {
			rec.PollStatus = &status.String
		}
		if totalVotes.Valid {
			n := int(totalVotes.Int64)
			rec.PollTotalVotes = &n
		}
		votes = append(votes, rec)
	}
	return votes, rows.Err()
}
