package services

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pollwise/pollwise-be/internal/auth"
	"github.com/pollwise/pollwise-be/internal/models"
)

// PollServiceProvider defines the interface for poll services.
type PollServiceProvider interface {
	CreatePoll(creatorID, title, description string, options []string, endDate *time.Time) (models.Poll, error)
	ListPolls(status string, page, limit int) ([]models.Poll, models.Pagination, error)
	GetPoll(id string) (models.Poll, error)
	UpdatePoll(id string, claims *auth.Claims, update models.PollUpdate) (models.Poll, error)
	DeletePoll(id string, claims *auth.Claims) (models.Poll, error)
}

// PollService persists polls, their options and denormalized tallies.
type PollService struct {
	db *sql.DB
}

// NewPollService creates a new PollService.
func NewPollService(db *sql.DB) *PollService {
	return &PollService{db: db}
}

// CreatePoll validates and persists a new poll owned by creatorID. The poll
// starts active with zeroed tallies.
func (s *PollService) CreatePoll(creatorID, title, description string, options []string, endDate *time.Time) (models.Poll, error) {
	if err := models.ValidateNewPoll(title, options); err != nil {
		return models.Poll{}, err
	}
	if err := models.ValidateDescription(description); err != nil {
		return models.Poll{}, err
	}

	now := time.Now().UTC()
	poll := models.Poll{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		CreatorID:   creatorID,
		Status:      models.StatusActive,
		StartDate:   now,
		EndDate:     endDate,
		TotalVotes:  0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Poll{}, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO polls (id, title, description, creator_id, status, start_date, end_date, total_votes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		poll.ID, poll.Title, poll.Description, poll.CreatorID, poll.Status, poll.StartDate, nullableTime(poll.EndDate), poll.TotalVotes, poll.CreatedAt, poll.UpdatedAt)
	if err != nil {
		return models.Poll{}, err
	}

	for i, text := range options {
		text = strings.TrimSpace(text)
		_, err = tx.Exec("INSERT INTO poll_options (id, poll_id, position, text, vote_count) VALUES (?, ?, ?, ?, 0)",
			uuid.New().String(), poll.ID, i, text)
		if err != nil {
			return models.Poll{}, err
		}
		poll.Options = append(poll.Options, models.PollOption{Text: text, Votes: 0})
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, err
	}

	return s.GetPoll(poll.ID)
}

// ListPolls returns polls newest-first, optionally filtered by status, with
// pagination metadata.
func (s *PollService) ListPolls(status string, page, limit int) ([]models.Poll, models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	where := ""
	args := []any{}
	if status == models.StatusActive || status == models.StatusClosed {
		where = " WHERE p.status = ?"
		args = append(args, status)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM polls p"+where, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, err
	}

	query := `SELECT p.id, p.title, p.description, p.creator_id, p.status, p.start_date, p.end_date,
		p.total_votes, p.created_at, p.updated_at, u.username, u.email
		FROM polls p LEFT JOIN users u ON u.id = p.creator_id` + where +
		" ORDER BY p.created_at DESC LIMIT ? OFFSET ?"
	rows, err := s.db.Query(query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Pagination{}, err
	}

	for i := range polls {
		if polls[i].Options, err = s.loadOptions(polls[i].ID); err != nil {
			return nil, models.Pagination{}, err
		}
	}

	pagination := models.Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
	return polls, pagination, nil
}

// GetPoll retrieves a single poll with its options and creator subset.
func (s *PollService) GetPoll(id string) (models.Poll, error) {
	row := s.db.QueryRow(`SELECT p.id, p.title, p.description, p.creator_id, p.status, p.start_date, p.end_date,
		p.total_votes, p.created_at, p.updated_at, u.username, u.email
		FROM polls p LEFT JOIN users u ON u.id = p.creator_id WHERE p.id = ?`, id)
	poll, err := scanPoll(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Poll{}, ErrPollNotFound
		}
		return models.Poll{}, err
	}

	if poll.Options, err = s.loadOptions(poll.ID); err != nil {
		return models.Poll{}, err
	}
	return poll, nil
}

// UpdatePoll applies the owner-mutable fields. Only the creator or an admin
// may update; title must stay non-empty and status must be a known value.
func (s *PollService) UpdatePoll(id string, claims *auth.Claims, update models.PollUpdate) (models.Poll, error) {
	poll, err := s.GetPoll(id)
	if err != nil {
		return models.Poll{}, err
	}

	if !auth.IsOwnerOrAdmin(poll.CreatorID, claims) {
		return models.Poll{}, ErrNotPollOwner
	}

	if update.Title != nil && strings.TrimSpace(*update.Title) != "" {
		title := strings.TrimSpace(*update.Title)
		if err := models.ValidateTitle(title); err != nil {
			return models.Poll{}, err
		}
		poll.Title = title
	}
	if update.Description != nil {
		if err := models.ValidateDescription(*update.Description); err != nil {
			return models.Poll{}, err
		}
		poll.Description = strings.TrimSpace(*update.Description)
	}
	if update.Status != nil && (*update.Status == models.StatusActive || *update.Status == models.StatusClosed) {
		poll.Status = *update.Status
	}
	if update.EndDate != nil {
		poll.EndDate = update.EndDate
	}
	poll.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec("UPDATE polls SET title = ?, description = ?, status = ?, end_date = ?, updated_at = ? WHERE id = ?",
		poll.Title, poll.Description, poll.Status, nullableTime(poll.EndDate), poll.UpdatedAt, id)
	if err != nil {
		return models.Poll{}, err
	}
	return poll, nil
}

// DeletePoll removes a poll and its options. Vote ledger rows are kept on
// purpose: deletion never rewrites voting history. Returns the deleted poll
// for the confirmation response.
func (s *PollService) DeletePoll(id string, claims *auth.Claims) (models.Poll, error) {
	poll, err := s.GetPoll(id)
	if err != nil {
		return models.Poll{}, err
	}

	if !auth.IsOwnerOrAdmin(poll.CreatorID, claims) {
		return models.Poll{}, ErrNotPollOwner
	}

	// poll_options cascades via its foreign key; votes do not.
	if _, err := s.db.Exec("DELETE FROM polls WHERE id = ?", id); err != nil {
		return models.Poll{}, err
	}
	return poll, nil
}

// loadOptions returns a poll's options in their defined order.
func (s *PollService) loadOptions(pollID string) ([]models.PollOption, error) {
	rows, err := s.db.Query("SELECT text, vote_count FROM poll_options WHERE poll_id = ? ORDER BY position", pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []models.PollOption
	for rows.Next() {
		var opt models.PollOption
		if err := rows.Scan(&opt.Text, &opt.Votes); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var poll models.Poll
	var endDate sql.NullTime
	var username, email sql.NullString
	err := row.Scan(&poll.ID, &poll.Title, &poll.Description, &poll.CreatorID, &poll.Status,
		&poll.StartDate, &endDate, &poll.TotalVotes, &poll.CreatedAt, &poll.UpdatedAt, &username, &email)
	if err != nil {
		return models.Poll{}, err
	}
	if endDate.Valid {
		t := endDate.Time
		poll.EndDate = &t
	}
	if username.Valid {
		poll.Creator = &models.CreatorInfo{ID: poll.CreatorID, Username: username.String, Email: email.String}
	}
	return poll, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
