package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"slidegen/internal/http/handlers"
	"slidegen/internal/infra"
	"slidegen/internal/middleware"
)

// Options carry the cross-cutting knobs the router wires as middleware.
type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}

		r.Route("/v1/slides", func(r chi.Router) {
			r.Post("/", app.GenerateSlide)
			r.Get("/{id}/download", app.DownloadSlide)
		})
		r.Route("/v1/requests", func(r chi.Router) {
			r.Post("/", app.EnqueueRequest)
			r.Get("/{id}", app.GetRequest)
		})
		r.Get("/v1/stats", app.StatsSummary)
	})

	return r
}
