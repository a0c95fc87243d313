package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mlopezr/catalog-api/internal/api/auth"
	"github.com/mlopezr/catalog-api/internal/api/product"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler    *auth.AuthHandler
	ProductHandler *product.Handler
	UploadHandler  *product.UploadHandler
	Authenticate   func(http.Handler) http.Handler
	RequireAdmin   func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are applied
// before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Heartbeat/Health check endpoint
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// --- Public routes ---
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)

			r.Get("/products", cfg.ProductHandler.List)
			r.Get("/products/{id}", cfg.ProductHandler.Get)
		})

		// --- Token-authenticated routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticate)
			r.Get("/auth/profile", cfg.AuthHandler.Profile)
		})

		// --- Admin routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticate)
			r.Use(cfg.RequireAdmin)

			r.Post("/products", cfg.ProductHandler.Create)
			r.Put("/products/{id}", cfg.ProductHandler.Update)
			r.Patch("/products/{id}", cfg.ProductHandler.Update)
			r.Delete("/products/{id}", cfg.ProductHandler.Delete)

			r.Post("/products/upload", cfg.UploadHandler.Create)
			r.Put("/products/upload/{id}", cfg.UploadHandler.Update)
		})
	})

	return r
}
