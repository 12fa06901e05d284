// Package handlers provides HTTP handlers for projection runs and their
// outputs: consolidated statements, cash flow, balance sheets and returns.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/projections"
)

// Handler handles projection HTTP requests
type Handler struct {
	service *projections.Service
	log     zerolog.Logger
}

// NewHandler creates a new projections handler
func NewHandler(service *projections.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "projections").Logger(),
	}
}

// HandleRun handles POST /api/projections/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var opts projections.RunOptions
	// An empty body runs with defaults
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Execute(r.Context(), opts)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       result.RunID,
		"generated_at": result.GeneratedAt,
		"assets":       len(result.Assets),
		"metrics":      result.PortfolioMetrics,
	})
}

// HandleGetLatest handles GET /api/projections/latest
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetStatements handles GET /api/projections/latest/statements
func (h *Handler) HandleGetStatements(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, result.Statements)
}

// HandleGetCashFlow handles GET /api/projections/latest/cash-flow
func (h *Handler) HandleGetCashFlow(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"annual":    result.CashFlowAnnual,
		"quarterly": result.CashFlowQuarterly,
	})
}

// HandleGetBalanceSheets handles GET /api/projections/latest/balance-sheets
func (h *Handler) HandleGetBalanceSheets(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, result.BalanceSheets)
}

// HandleGetMetrics handles GET /api/projections/latest/metrics
func (h *Handler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}

	perAsset := make(map[string]interface{}, len(result.Assets))
	for name, ar := range result.Assets {
		perAsset[name] = map[string]interface{}{
			"metrics":     ar.Metrics,
			"debt_amount": ar.Schedule.DebtAmount,
			"gearing":     ar.Schedule.Gearing,
		}
	}

	response := map[string]interface{}{
		"run_id":    result.RunID,
		"portfolio": result.PortfolioMetrics,
		"per_asset": perAsset,
	}
	if result.PortfolioRefinance != nil {
		response["portfolio_refinance"] = map[string]interface{}{
			"debt_amount": result.PortfolioRefinance.DebtAmount,
			"gearing":     result.PortfolioRefinance.Gearing,
		}
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleListRuns handles GET /api/projections/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.service.List(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// HandleGetRun handles GET /api/projections/runs/{runID}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := h.service.Get(runID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// latest fetches the most recent result, writing the error response itself
// when there is nothing to serve.
func (h *Handler) latest(w http.ResponseWriter) (*projections.Result, bool) {
	result, err := h.service.Latest()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if result == nil {
		h.writeError(w, http.StatusNotFound, "no projection run available")
		return nil, false
	}
	return result, true
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
