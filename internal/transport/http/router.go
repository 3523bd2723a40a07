package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"devconnector/internal/handler"
	"devconnector/internal/httputil"
	"devconnector/internal/logging"
	authmw "devconnector/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	ProfileHandler *handler.ProfileHandler
	PostHandler    *handler.PostHandler
	GitHubHandler  *handler.GitHubHandler
	JWTSecret      string
	CORSOrigins    []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", authmw.TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	requireAuth := authmw.AuthMiddleware(cfg.JWTSecret)

	// Public routes - no authentication required
	r.Post("/users", cfg.AuthHandler.Register)
	r.Post("/auth", cfg.AuthHandler.Login)
	r.With(requireAuth).Get("/auth", cfg.AuthHandler.Me)

	r.Route("/profile", func(r chi.Router) {
		r.Get("/", cfg.ProfileHandler.List)
		r.Get("/user/{user_id}", cfg.ProfileHandler.GetByUserID)
		r.Get("/github/{username}", cfg.GitHubHandler.Repos)

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", cfg.ProfileHandler.Me)
			r.Post("/", cfg.ProfileHandler.Upsert)
			r.Delete("/", cfg.ProfileHandler.Delete)

			r.Put("/experience", cfg.ProfileHandler.AddExperience)
			r.Delete("/experience/{id}", cfg.ProfileHandler.RemoveExperience)
			r.Put("/education", cfg.ProfileHandler.AddEducation)
			r.Delete("/education/{id}", cfg.ProfileHandler.RemoveEducation)
		})
	})

	r.Route("/posts", func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/", cfg.PostHandler.Create)
		r.Get("/", cfg.PostHandler.List)
		r.Get("/{id}", cfg.PostHandler.GetByID)
		r.Delete("/{id}", cfg.PostHandler.Delete)

		r.Put("/like/{id}", cfg.PostHandler.Like)
		r.Put("/unlike/{id}", cfg.PostHandler.Unlike)

		r.Post("/comment/{id}", cfg.PostHandler.AddComment)
		r.Delete("/comment/{id}/{comment_id}", cfg.PostHandler.DeleteComment)
	})

	return r
}
