package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all projection routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/projections", func(r chi.Router) {
		r.Post("/run", h.HandleRun)

		r.Route("/latest", func(r chi.Router) {
			r.Get("/", h.HandleGetLatest)
			r.Get("/statements", h.HandleGetStatements)
			r.Get("/cash-flow", h.HandleGetCashFlow)
			r.Get("/balance-sheets", h.HandleGetBalanceSheets)
			r.Get("/metrics", h.HandleGetMetrics)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.HandleListRuns)
			r.Get("/{runID}", h.HandleGetRun)
		})
	})
}
