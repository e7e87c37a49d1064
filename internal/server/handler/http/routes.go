package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/inventorypro/invctl/internal/middleware"
)

// NewRouter constructs the HTTP handler of the stub inventory server.
//
// Routes:
//
//	GET    /api/items           → items.List
//	GET    /api/items/search    → items.Search
//	POST   /api/items           → items.Create  (bearer required)
//	PUT    /api/items/{id}      → items.Update  (bearer required)
//	DELETE /api/items/{id}      → items.Delete  (bearer required)
//	POST   /api/items/upload    → items.Upload  (bearer required)
//
// Reads are open and mutations require a bearer token, matching the
// behavior of the remote API this stub stands in for.
func NewRouter(items *ItemsHandler, logger *zap.Logger, verify middleware.TokenVerifier) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api/items", func(r chi.Router) {
		// Public endpoints
		r.Get("/", items.List)
		r.Get("/search", items.Search)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(verify))

			r.Group(func(r chi.Router) {
				// Only allow requests with Content-Type: application/json
				r.Use(chiMiddleware.AllowContentType("application/json"))
				r.Post("/", items.Create)
				r.Put("/{id}", items.Update)
			})

			r.Delete("/{id}", items.Delete)
			r.Post("/upload", items.Upload)
		})
	})

	return r
}
