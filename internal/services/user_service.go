package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pollwise/pollwise-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is deliberately above the library default so offline
// brute-force of a leaked hash stays expensive.
const bcryptCost = 12

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(username, email, password, role string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	FindByEmailOrUsername(email, username string) (models.User, error)
}

// UserService persists user identities and hashed credentials.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, email, role, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// FindByEmailOrUsername retrieves a user matching either unique field,
// including the password hash. Used by registration pre-checks and login.
func (s *UserService) FindByEmailOrUsername(email, username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(
		"SELECT id, username, email, password_hash, role, created_at FROM users WHERE email = ? OR username = ?",
		models.NormalizeEmail(email), strings.TrimSpace(username))
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// CreateUser validates, hashes and persists a new user. The unique indexes
// on email and username are the authoritative duplicate guard; the returned
// error distinguishes which field collided.
func (s *UserService) CreateUser(username, email, password, role string) (models.User, error) {
	if err := models.ValidateRegistration(username, email, password); err != nil {
		return models.User{}, err
	}
	if role == "" {
		role = models.RoleUser
	}

	username = strings.TrimSpace(username)
	email = models.NormalizeEmail(email)

	// Pre-check so the 409 can name the colliding field. The insert below
	// still catches races past this point.
	if existing, err := s.FindByEmailOrUsername(email, username); err == nil {
		if existing.Email == email {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, ErrDuplicateUsername
	} else if err != ErrUserNotFound {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec("INSERT INTO users (id, username, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		if constraintErr := duplicateUserError(err); constraintErr != nil {
			return models.User{}, constraintErr
		}
		return models.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

// AuthenticateUser verifies a user's credentials. Unknown email and wrong
// password return the same error so responses cannot reveal which field was
// wrong. A malformed stored hash simply fails the comparison.
func (s *UserService) AuthenticateUser(email, password string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(
		"SELECT id, username, email, password_hash, role, created_at FROM users WHERE email = ?",
		models.NormalizeEmail(email))
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

// duplicateUserError maps a sqlite UNIQUE violation on the users table to
// the domain error naming the colliding field, or nil for unrelated errors.
func duplicateUserError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: users.email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "UNIQUE constraint failed: users.username"):
		return ErrDuplicateUsername
	}
	return nil
}
