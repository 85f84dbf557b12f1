package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Ferdagulay/apps-challenge/internal/http/handlers"
	"github.com/Ferdagulay/apps-challenge/internal/middleware"
)

// Options configures the router.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	OutputDir       string
}

// NewRouter assembles the API surface: session creation, health, and static
// serving of the per-session artifacts.
func NewRouter(app *handlers.App, logger zerolog.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/sessions", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/", app.CreateSession)
	})
	r.Get("/v1/sessions/{id}/archive", app.DownloadSession)

	fs := http.StripPrefix("/files/", http.FileServer(http.Dir(opts.OutputDir)))
	r.Get("/files/*", fs.ServeHTTP)

	return r
}
