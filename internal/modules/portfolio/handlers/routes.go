package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all asset management routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.HandleListAssets)
		r.Post("/", h.HandleSaveAsset)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.HandleGetAsset)
			r.Delete("/", h.HandleDeleteAsset)
			r.Get("/profile", h.HandleGetProfile)
			r.Put("/profile", h.HandleSaveProfile)
		})
	})
}
