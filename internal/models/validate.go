package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Input bounds, mirroring the persisted schema limits.
const (
	UsernameMinLen    = 3
	UsernameMaxLen    = 30
	PasswordMinLen    = 6
	TitleMaxLen       = 200
	DescriptionMaxLen = 1000
	OptionTextMaxLen  = 200
	MinPollOptions    = 2
)

var emailRe = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)+$`)

// FieldError describes a single violated input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every constraint a request violated, so the
// client gets them all in one round trip.
type ValidationError struct {
	Violations []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Violations = append(e.Violations, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// NormalizeEmail lowercases and trims an email address. Emails are stored
// and looked up in this form only.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration checks the register payload before any user is
// constructed.
func ValidateRegistration(username, email, password string) error {
	v := &ValidationError{}

	username = strings.TrimSpace(username)
	switch {
	case username == "":
		v.add("username", "Username is required")
	case len(username) < UsernameMinLen:
		v.add("username", "Username must be at least %d characters", UsernameMinLen)
	case len(username) > UsernameMaxLen:
		v.add("username", "Username cannot exceed %d characters", UsernameMaxLen)
	}

	email = NormalizeEmail(email)
	switch {
	case email == "":
		v.add("email", "Email is required")
	case !emailRe.MatchString(email):
		v.add("email", "Please enter a valid email")
	}

	switch {
	case password == "":
		v.add("password", "Password is required")
	case len(password) < PasswordMinLen:
		v.add("password", "Password must be at least %d characters", PasswordMinLen)
	}

	return v.orNil()
}

// ValidateNewPoll checks the create-poll payload.
func ValidateNewPoll(title string, options []string) error {
	v := &ValidationError{}

	title = strings.TrimSpace(title)
	switch {
	case title == "":
		v.add("title", "Poll title is required")
	case len(title) > TitleMaxLen:
		v.add("title", "Title cannot exceed %d characters", TitleMaxLen)
	}

	if len(options) < MinPollOptions {
		v.add("options", "Poll must have at least %d options", MinPollOptions)
	}
	for i, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			v.add("options", "Option %d text is required", i+1)
		} else if len(opt) > OptionTextMaxLen {
			v.add("options", "Option text cannot exceed %d characters", OptionTextMaxLen)
		}
	}

	return v.orNil()
}

// ValidateTitle bounds a poll title on the update path, where presence is
// already established.
func ValidateTitle(title string) error {
	v := &ValidationError{}
	if len(strings.TrimSpace(title)) > TitleMaxLen {
		v.add("title", "Title cannot exceed %d characters", TitleMaxLen)
	}
	return v.orNil()
}

// ValidateDescription bounds an optional poll description.
func ValidateDescription(description string) error {
	v := &ValidationError{}
	if len(description) > DescriptionMaxLen {
		v.add("description", "Description cannot exceed %d characters", DescriptionMaxLen)
	}
	return v.orNil()
}
