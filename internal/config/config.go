package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	JWTSecret    string
	TokenTTL     time.Duration
	CORSOrigin   string
	Environment  string // "development" or "production"
}

// Load loads configuration from a .env file (if present) and environment
// variables. A missing JWT secret is a hard error: tokens signed with an
// empty key would be forgeable, so the process must not come up without one.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	ttlStr := getEnv("TOKEN_TTL", "168h") // 7 days
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", ttlStr, err)
	}

	return &Config{
		ServerPort:   port,
		DatabasePath: getEnv("DATABASE_PATH", "./pollwise.db"),
		JWTSecret:    secret,
		TokenTTL:     ttl,
		CORSOrigin:   getEnv("CORS_ORIGIN", "http://localhost:3000"),
		Environment:  getEnv("APP_ENV", "development"),
	}, nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
