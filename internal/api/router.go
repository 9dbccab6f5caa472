package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pollwise/pollwise-be/internal/api/handlers"
	"github.com/pollwise/pollwise-be/internal/auth"
	"github.com/pollwise/pollwise-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	db *sql.DB,
	tokens *auth.TokenManager,
	userService services.UserServiceProvider,
	pollService services.PollServiceProvider,
	voteService services.VoteServiceProvider,
	corsOrigin string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens)
	pollHandler := handlers.NewPollHandler(pollService)
	voteHandler := handlers.NewVoteHandler(voteService)
	healthHandler := handlers.NewHealthHandler(db)

	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", apiIndex)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(tokens.Authenticate).Get("/me", authHandler.Me)
		})

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", pollHandler.List)
			r.Get("/{id}", pollHandler.Get)
			r.With(tokens.Authenticate).Post("/", pollHandler.Create)
			r.With(tokens.Authenticate).Put("/{id}", pollHandler.Update)
			r.With(tokens.Authenticate).Delete("/{id}", pollHandler.Delete)
		})

		r.Route("/votes", func(r chi.Router) {
			r.With(tokens.OptionalAuthenticate).Get("/results/{pollId}", voteHandler.Results)
			r.With(tokens.Authenticate).Post("/", voteHandler.Cast)
			r.With(tokens.Authenticate).Get("/my-votes", voteHandler.MyVotes)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handlers.Error(w, http.StatusNotFound, "Route not found", "Cannot "+req.Method+" "+req.URL.Path)
	})

	return r
}

// apiIndex lists the available endpoint groups.
func apiIndex(w http.ResponseWriter, r *http.Request) {
	handlers.JSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to Voting & Polls API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health": "/health",
			"auth":   "/api/auth",
			"polls":  "/api/polls",
			"votes":  "/api/votes",
		},
	})
}
