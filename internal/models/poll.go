package models

import "time"

// Poll statuses. A closed poll no longer accepts votes; there is no
// transition back to active for voting purposes.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// PollOption is a single choice on a poll with its denormalized tally.
type PollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll represents a poll with its options and vote tallies.
// Invariant: TotalVotes == sum of option Votes at all times; both are
// maintained inside the same transaction as the vote ledger insert.
type Poll struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Options     []PollOption `json:"options"`
	CreatorID   string       `json:"-"`
	Creator     *CreatorInfo `json:"creator,omitempty"`
	Status      string       `json:"status"`
	StartDate   time.Time    `json:"startDate"`
	EndDate     *time.Time   `json:"endDate,omitempty"`
	TotalVotes  int          `json:"totalVotes"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// PollUpdate carries the owner-mutable subset of poll fields. Nil means
// "leave unchanged". All other fields are immutable via the update path.
type PollUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	EndDate     *time.Time `json:"endDate"`
}

// Pagination is the list-endpoint metadata block.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// OptionResult is a poll option with its computed share of the total vote.
// Percentage is formatted with two decimals; independent rounding means the
// column need not sum to exactly 100.
type OptionResult struct {
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage string `json:"percentage"`
}
