package models

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"already@example.com", "already@example.com"},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name           string
		username       string
		email          string
		password       string
		wantErr        bool
		wantViolations int
	}{
		{"valid", "alice", "alice@example.com", "secret1", false, 0},
		{"short username", "al", "alice@example.com", "secret1", true, 1},
		{"long username", strings.Repeat("a", 31), "alice@example.com", "secret1", true, 1},
		{"bad email", "alice", "not-an-email", "secret1", true, 1},
		{"short password", "alice", "alice@example.com", "12345", true, 1},
		{"everything wrong collected at once", "", "", "", true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.username, tt.email, tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRegistration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error is %T, want *ValidationError", err)
			}
			if len(verr.Violations) != tt.wantViolations {
				t.Errorf("violations = %d (%v), want %d", len(verr.Violations), verr.Violations, tt.wantViolations)
			}
		})
	}
}

func TestValidateNewPoll(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		options []string
		wantErr bool
	}{
		{"valid", "Lang", []string{"Go", "Rust"}, false},
		{"one option", "Lang", []string{"Go"}, true},
		{"no options", "Lang", nil, true},
		{"empty title", "", []string{"Go", "Rust"}, true},
		{"long title", strings.Repeat("t", 201), []string{"Go", "Rust"}, true},
		{"blank option text", "Lang", []string{"Go", "  "}, true},
		{"long option text", "Lang", []string{"Go", strings.Repeat("o", 201)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewPoll(tt.title, tt.options)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNewPoll() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription(strings.Repeat("d", 1000)); err != nil {
		t.Errorf("ValidateDescription() at limit error = %v", err)
	}
	if err := ValidateDescription(strings.Repeat("d", 1001)); err == nil {
		t.Error("ValidateDescription() over limit expected error")
	}
}
