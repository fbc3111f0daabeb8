package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookmatch/internal/security"
)

// Handlers bundles everything the router dispatches to
type Handlers struct {
	Health          *HealthHandler
	Catalog         *CatalogHandler
	Children        *ChildHandler
	Games           *GameHandler
	Recommendations *RecommendationHandler
	Ratings         *RatingHandler
	Sessions        *SessionHandler
}

// NewRouter wires the HTTP API. A nil limiter disables rate limiting.
func NewRouter(h Handlers, limiter *security.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(Logging)

	r.Get("/healthz", h.Health.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(RateLimit(limiter))
		}

		r.Get("/catalog", h.Catalog.ListBooks)
		r.Get("/recommendations/shared", h.Recommendations.Shared)

		r.Route("/children", func(r chi.Router) {
			r.Get("/", h.Children.ListChildren)
			r.Post("/", h.Children.CreateChild)

			r.Route("/{childID}", func(r chi.Router) {
				r.Get("/", h.Children.GetChild)
				r.Delete("/", h.Children.DeleteChild)
				r.Get("/history", h.Children.GetHistory)
				r.Post("/history", h.Children.ImportHistory)
				r.Post("/history/sample", h.Children.LoadSampleHistory)
				r.Get("/stats", h.Children.Stats)

				r.Route("/game", func(r chi.Router) {
					r.Get("/", h.Games.GetGame)
					r.Post("/", h.Games.StartGame)
					r.Delete("/", h.Games.DiscardGame)
					r.Post("/toggle", h.Games.ToggleBook)
					r.Post("/finish", h.Games.FinishGame)
					r.Post("/compare", h.Games.Compare)
					r.Post("/cancel", h.Games.CancelGame)
					r.Get("/events", h.Games.Events)
				})

				r.Get("/recommendations", h.Recommendations.ForChild)
				r.Get("/export", h.Recommendations.Export)
				r.Post("/export/email", h.Recommendations.EmailExport)

				r.Route("/ratings", func(r chi.Router) {
					r.Get("/", h.Ratings.Status)
					r.Post("/start", h.Ratings.Start)
					r.Post("/rate", h.Ratings.Rate)
					r.Post("/skip", h.Ratings.Skip)
					r.Post("/previous", h.Ratings.Previous)
					r.Post("/complete", h.Ratings.Complete)
					r.Get("/export.csv", h.Ratings.ExportCSV)
				})
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.Sessions.List)
			r.Post("/", h.Sessions.Save)
			r.Get("/{sessionID}", h.Sessions.Get)
			r.Delete("/{sessionID}", h.Sessions.Delete)
		})
	})

	return r
}
