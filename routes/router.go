package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/auth"
	"github.com/natours/natours-api/internal/config"
	"github.com/natours/natours-api/internal/middleware"
	"github.com/natours/natours-api/internal/users"
	"github.com/natours/natours-api/internal/views"
)

// Deps is everything the router needs from main.
type Deps struct {
	Config config.Config
	Logger *slog.Logger
	Store  users.Store
	Auth   *auth.Service
}

// New builds the application router: the JSON API under /api/v1/users and the
// rendered pages at the root.
func New(d Deps) (http.Handler, error) {
	development := !d.Config.IsProduction()
	errs := apperr.Responder{Logger: d.Logger, Development: development}

	rn, err := views.NewRenderer(d.Logger, development)
	if err != nil {
		return nil, err
	}

	limiter := middleware.NewRateLimiter(d.Config.RateLimit.PerMinute, d.Config.RateLimit.Burst)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if development {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(d.Config.HTTP.RequestTimeout))
	r.Use(middleware.CORSMiddleware(d.Config.CORS.AllowedOrigins))

	protect := middleware.Protect(d.Auth, errs)
	admin := middleware.RestrictTo(errs, users.RoleAdmin)

	authHandlers := auth.NewHandlers(d.Auth, errs, d.Config.Auth.CookieTTL(), d.Config.BaseURL)
	userHandlers := users.NewHandlers(d.Store, errs)

	r.Route("/api/v1/users", func(r chi.Router) {
		authHandlers.RegisterRoutes(r, protect, limiter.Middleware(errs))
		userHandlers.RegisterRoutes(r, protect, admin)
	})

	views.NewHandlers(rn).RegisterRoutes(r,
		middleware.IsLoggedIn(d.Auth),
		middleware.Protect(d.Auth, rn),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Server is up!\n"))
	})

	r.NotFound(errs.NotFound)

	return r, nil
}
