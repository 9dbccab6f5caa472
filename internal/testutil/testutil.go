package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pollwise/pollwise-be/internal/auth"
	"github.com/pollwise/pollwise-be/internal/database"
	"github.com/pollwise/pollwise-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// TestSecret signs tokens in tests.
const TestSecret = "test-secret"

// SetupTestDB creates a fresh file-backed database with the full schema in a
// per-test temp directory. File-backed rather than in-memory so concurrent
// connections in race tests hit the same database and the real unique index.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// NewTokenManager returns a token manager with the shared test secret.
func NewTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(TestSecret, time.Hour)
}

// CreateTestUser inserts a user directly. The password hash uses bcrypt's
// minimum cost: these fixtures exist for identity, not for timing hashing.
// The password is always "password123".
func CreateTestUser(t *testing.T, db *sql.DB, username, email, role string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	user := models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     models.NormalizeEmail(email),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	_, err = db.Exec("INSERT INTO users (id, username, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, string(hash), user.Role, user.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestPoll inserts a poll with the given options, all tallies zeroed.
func CreateTestPoll(t *testing.T, db *sql.DB, creatorID, status string, options ...string) string {
	t.Helper()

	pollID := uuid.New().String()
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO polls (id, title, description, creator_id, status, start_date, total_votes, created_at, updated_at)
		VALUES (?, 'Test Poll', 'A test poll', ?, ?, ?, 0, ?, ?)`,
		pollID, creatorID, status, now, now, now)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	for i, text := range options {
		_, err := db.Exec("INSERT INTO poll_options (id, poll_id, position, text, vote_count) VALUES (?, ?, ?, ?, 0)",
			uuid.New().String(), pollID, i, text)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
	}
	return pollID
}

// SetPollEndDate updates a poll's end date directly.
func SetPollEndDate(t *testing.T, db *sql.DB, pollID string, endDate time.Time) {
	t.Helper()
	if _, err := db.Exec("UPDATE polls SET end_date = ? WHERE id = ?", endDate, pollID); err != nil {
		t.Fatalf("Failed to set poll end date: %v", err)
	}
}

// MakeRequest creates an HTTP test request with an optional JSON body and
// bearer token.
func MakeRequest(method, path string, body any, token string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct.
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
