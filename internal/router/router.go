// internal/router/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-car-ai-suggestions/internal/api"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/api/car"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/api/recommend"
)

// Config contains dependencies needed for the router setup
type Config struct {
	CarHandler       *car.Handler
	RecommendHandler *recommend.Handler
	Frontend         http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", cfg.CarHandler.SearchCars)
		r.Post("/analyze", cfg.RecommendHandler.Analyze)
		r.Get("/car/{id}", cfg.CarHandler.GetCar)

		// Scraping through the web UI is out of scope, keep the endpoint
		// answering so the frontend gets a proper error envelope.
		r.Post("/scrape", func(w http.ResponseWriter, r *http.Request) {
			api.ErrorResponse(w, r, http.StatusNotImplemented,
				"Scraping through the web UI is not implemented yet")
		})
	})

	// Everything else is the embedded single-page frontend
	if cfg.Frontend != nil {
		r.Handle("/*", cfg.Frontend)
	}

	return r
}
