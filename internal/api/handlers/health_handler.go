package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/pollwise/pollwise-be/internal/database"
)

// HealthHandler reports process and database health.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health. Returns 200 when the database answers a ping,
// 503 otherwise.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	status := "OK"
	message := "Voting & Polls API is running"
	code := http.StatusOK

	if err := database.Health(h.db); err != nil {
		dbStatus = "disconnected"
		status = "ERROR"
		message = "Database connection is not available"
		code = http.StatusServiceUnavailable
	}

	JSON(w, code, map[string]any{
		"status":    status,
		"message":   message,
		"database":  map[string]string{"status": dbStatus},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
