package models

import "time"

// Vote is one ledger entry: who voted for what on which poll. Votes are
// immutable after creation and never deleted by any exposed operation.
type Vote struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	PollID         string    `json:"pollId"`
	SelectedOption string    `json:"selectedOption"`
	VotedAt        time.Time `json:"votedAt"`
}

// VoteRecord is a ledger entry joined with the poll metadata shown in the
// voting history. The poll fields are nil when the poll has since been
// deleted; the vote itself survives.
type VoteRecord struct {
	ID              string    `json:"id"`
	PollID          string    `json:"pollId"`
	PollTitle       *string   `json:"pollTitle"`
	PollDescription *string   `json:"pollDescription"`
	PollStatus      *string   `json:"pollStatus"`
	PollTotalVotes  *int      `json:"pollTotalVotes"`
	SelectedOption  string    `json:"selectedOption"`
	VotedAt         time.Time `json:"votedAt"`
}
