package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options configures the router's middleware chain.
type Options struct {
	Logger          zerolog.Logger
	Production      bool
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

// NewRouter builds the HTTP surface. The tier override middleware is only
// installed outside production, so production requests never even parse the
// header.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}
	r.Use(middleware.Locale(opts.DefaultLocale, opts.CountryLookup))
	if !opts.Production {
		r.Use(middleware.TierOverride)
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/membership", func(r chi.Router) {
		r.Get("/", app.Membership)
		r.Post("/logout", app.Logout)
	})

	r.Route("/v1/lessons", func(r chi.Router) {
		r.Get("/{lesson_id}", app.LessonShow)
		r.Get("/{lesson_id}/quota", app.LessonQuota)
		r.Post("/{lesson_id}/chat", app.LessonChat)
	})

	return r
}
