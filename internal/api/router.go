package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/wishlist-companion/internal/api/handlers"
	"github.com/ramonehamilton/wishlist-companion/internal/api/response"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	wishlistHandler := handlers.NewWishlistHandler(s.svc)
	perkHandler := handlers.NewPerkHandler(s.svc)
	systemHandler := handlers.NewSystemHandler(s.svc.Metrics())

	s.router.Get("/health", s.healthCheck)
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		s.apiMiddleware(r)

		r.Route("/wishlists", func(r chi.Router) {
			// Stateless text operations
			r.Post("/parse", wishlistHandler.Parse)
			r.Post("/serialize", wishlistHandler.Serialize)
			r.Post("/consolidate", wishlistHandler.Consolidate)
			r.Post("/digest", wishlistHandler.Digest)

			r.Get("/", wishlistHandler.List)
			r.Post("/", wishlistHandler.Import)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", wishlistHandler.Get)
				r.Delete("/", wishlistHandler.Delete)
				r.Get("/items", wishlistHandler.Items)
				r.Get("/summaries", wishlistHandler.Summaries)
				r.Get("/export", wishlistHandler.Export)
			})
		})

		r.Post("/perks/match", perkHandler.Match)
		r.Get("/catalog/search", perkHandler.Search)

		r.Route("/system", func(r chi.Router) {
			r.Get("/version", systemHandler.GetVersion)
			r.Get("/metrics", systemHandler.GetMetrics)
		})
	})
}

// healthCheck returns the server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]any{
		"status":     "healthy",
		"ws_clients": s.wsHub.ClientCount(),
	})
}
