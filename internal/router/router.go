package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/FACorreiaa/go-recipe-api/internal/api"
	"github.com/FACorreiaa/go-recipe-api/internal/api/auth"
	"github.com/FACorreiaa/go-recipe-api/internal/api/recipe"
	"github.com/FACorreiaa/go-recipe-api/internal/api/taxonomy"
	"github.com/FACorreiaa/go-recipe-api/internal/api/user"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            *auth.AuthHandler
	UserHandler            *user.HandlerImpl
	TagHandler             *taxonomy.HandlerImpl
	IngredientHandler      *taxonomy.HandlerImpl
	RecipeHandler          *recipe.HandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
	// HealthCheck reports whether the database answers.
	HealthCheck func(r *http.Request) error
	// MediaURL and MediaHandler serve locally stored images. MediaHandler is
	// nil when images live in S3.
	MediaURL       string
	MediaHandler   http.Handler
	AllowedOrigins []string
	// TokenRateLimit is the number of token requests allowed per IP per minute.
	TokenRateLimit int
}

// SetupRouter initializes and configures the application routes.
// Server-wide middleware (request id, logging, recovery) is applied by the caller.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r); err != nil {
				api.ErrorResponse(w, r, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	if cfg.MediaHandler != nil {
		prefix := "/" + strings.Trim(cfg.MediaURL, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, cfg.MediaHandler))
	}

	// Public routes
	r.Group(func(r chi.Router) {
		r.Post("/users", cfg.UserHandler.Register)
		r.With(httprate.LimitByIP(cfg.TokenRateLimit, time.Minute)).
			Post("/users/token", cfg.AuthHandler.CreateToken)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)

		// Flat paths: a /users subrouter would swallow the public POST /users.
		r.Get("/users/me", cfg.UserHandler.GetUserProfile)
		r.Patch("/users/me", cfg.UserHandler.UpdateUserProfile)
		r.Post("/users/logout", cfg.AuthHandler.Logout)

		r.Mount(taxonomy.TagKind.Route, labelRoutes(cfg.TagHandler))
		r.Mount(taxonomy.IngredientKind.Route, labelRoutes(cfg.IngredientHandler))

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", cfg.RecipeHandler.List)
			r.Post("/", cfg.RecipeHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.RecipeHandler.Get)
				r.Put("/", cfg.RecipeHandler.Update)
				r.Patch("/", cfg.RecipeHandler.Patch)
				r.Delete("/", cfg.RecipeHandler.Delete)
				r.Post("/upload-image", cfg.RecipeHandler.UploadImage)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func labelRoutes(h *taxonomy.HandlerImpl) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// ServerMiddleware is the chain applied in front of every route.
func ServerMiddleware(requestLogger func(http.Handler) http.Handler, timeout time.Duration) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Timeout(timeout),
	}
}
