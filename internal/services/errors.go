package services

import "errors"

// Domain errors raised by the services. Handlers map these onto HTTP
// statuses; everything unmatched surfaces as a 500.
var (
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrDuplicateUsername  = errors.New("username is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	ErrPollNotFound = errors.New("poll not found")
	ErrNotPollOwner = errors.New("not the poll owner")

	ErrPollClosed    = errors.New("poll is no longer accepting votes")
	ErrPollExpired   = errors.New("poll has expired")
	ErrInvalidOption = errors.New("selected option does not exist in this poll")
	ErrAlreadyVoted  = errors.New("already voted in this poll")
)
