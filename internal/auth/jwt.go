package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation failures, normalized from the jwt library so callers can
// branch on exactly three kinds.
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not valid yet")
	ErrTokenMalformed   = errors.New("invalid token")
)

// Claims defines the JWT claims structure. Tokens are self-contained: the
// server never looks them up, it only verifies the signature.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates signed identity tokens.
type TokenManager struct {
	key []byte
	ttl time.Duration
}

// NewTokenManager creates a TokenManager. The signing key must be non-empty;
// config.Load guarantees that before this is ever called.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{key: []byte(secret), ttl: ttl}
}

// Generate creates a new signed JWT for a given identity.
func (m *TokenManager) Generate(userID, email, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// Validate parses and validates a JWT string, returning its claims. Failures
// are normalized to ErrTokenExpired, ErrTokenNotYetValid or ErrTokenMalformed;
// a decoded payload missing any identity field counts as malformed.
func (m *TokenManager) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.UserID == "" || claims.Email == "" || claims.Role == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
