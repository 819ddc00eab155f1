package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// RouterConfig holds the HTTP-level settings of the router.
type RouterConfig struct {
	CORSOrigins        []string
	RateLimitPerMinute int
}

// NewRouter builds the chi router with all routes mounted under /api.
// Health, auth and places routes are public; trip routes require a bearer token.
// Rate limiting is applied per client IP.
func NewRouter(handlers *Handlers, tokens tokenVerifier, db dbPinger, redisClient redisPinger, cfg RouterConfig, log *slog.Logger) *chi.Mux {
	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = 60
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewSlogLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(NewCORSHandler(cfg.CORSOrigins))
	r.Use(httprate.LimitByIP(limit, time.Minute))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HealthHandlerFunc(db, redisClient, log))

		r.Post("/auth/register", handlers.Register)
		r.Post("/auth/login", handlers.Login)

		r.Get("/places/geocode", handlers.Geocode)
		r.Get("/places/image", handlers.Image)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(tokens))

			r.Get("/auth/me", handlers.Me)

			r.Get("/trips", handlers.ListTrips)
			r.Post("/trips", handlers.CreateTrip)
			r.Get("/trips/{tripID}", handlers.GetTrip)
			r.Put("/trips/{tripID}", handlers.UpdateTrip)
			r.Delete("/trips/{tripID}", handlers.DeleteTrip)

			r.Post("/trips/{tripID}/favorites", handlers.AddFavorite)
			r.Delete("/trips/{tripID}/favorites/{placeID}", handlers.RemoveFavorite)
			r.Patch("/trips/{tripID}/favorites/{placeID}", handlers.UpdateFavorite)
		})
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
