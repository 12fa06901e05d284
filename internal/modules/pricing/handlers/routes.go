package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all pricing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Post("/", h.HandleUpsertPrices)
		r.Get("/curve", h.HandleGetCurve)
		r.Post("/smooth", h.HandleSmoothCurve)
		r.Get("/settings", h.HandleGetSettings)
		r.Put("/settings", h.HandleSetSettings)
	})
}
