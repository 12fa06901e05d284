// Package handlers provides HTTP handlers for merchant price curves and
// escalation settings.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/events"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/pricing"
)

// Handler handles pricing HTTP requests
type Handler struct {
	repo *pricing.Repository
	hub  *events.Hub
	log  zerolog.Logger
}

// NewHandler creates a new pricing handler
func NewHandler(repo *pricing.Repository, hub *events.Hub, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		hub:  hub,
		log:  log.With().Str("handler", "pricing").Logger(),
	}
}

// curveParams reads the curve identity from query parameters.
func curveParams(r *http.Request) (profile, priceType, region string, ok bool) {
	q := r.URL.Query()
	profile = q.Get("profile")
	priceType = q.Get("type")
	region = q.Get("region")
	ok = profile != "" && priceType != "" && region != ""
	return
}

// HandleGetCurve handles GET /api/prices/curve
func (h *Handler) HandleGetCurve(w http.ResponseWriter, r *http.Request) {
	profile, priceType, region, ok := curveParams(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "profile, type and region are required")
		return
	}

	points, err := h.repo.GetCurve(profile, priceType, region)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"points": points,
		"count":  len(points),
		"stats":  pricing.Stats(points),
	})
}

// HandleUpsertPrices handles POST /api/prices
func (h *Handler) HandleUpsertPrices(w http.ResponseWriter, r *http.Request) {
	var points []pricing.PricePoint
	if err := json.NewDecoder(r.Body).Decode(&points); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(points) == 0 {
		h.writeError(w, http.StatusBadRequest, "no price points provided")
		return
	}

	written, err := h.repo.Upsert(points)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.hub.Publish(&events.PricesUpdatedData{PointsWritten: written})
	h.log.Info().Int("points", written).Msg("Price points written")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"written": written})
}

// smoothRequest is the body for HandleSmoothCurve.
type smoothRequest struct {
	Profile   string `json:"profile"`
	PriceType string `json:"type"`
	Region    string `json:"region"`
	Window    int    `json:"window"`
	Method    string `json:"method"`
	Save      bool   `json:"save"`
}

// HandleSmoothCurve handles POST /api/prices/smooth
func (h *Handler) HandleSmoothCurve(w http.ResponseWriter, r *http.Request) {
	var req smoothRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Profile == "" || req.PriceType == "" || req.Region == "" {
		h.writeError(w, http.StatusBadRequest, "profile, type and region are required")
		return
	}

	points, err := h.repo.GetCurve(req.Profile, req.PriceType, req.Region)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	smoothed, err := pricing.SmoothCurve(points, req.Window, pricing.SmoothingMethod(req.Method))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Save {
		written, err := h.repo.Upsert(smoothed)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.hub.Publish(&events.PricesUpdatedData{PointsWritten: written})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"points": smoothed,
		"count":  len(smoothed),
		"saved":  req.Save,
	})
}

// HandleGetSettings handles GET /api/prices/settings
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings := make(map[string]float64)
	for _, key := range []string{pricing.SettingEscalationPct, pricing.SettingReferenceYear} {
		value, found, err := h.repo.GetSetting(key)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if found {
			settings[key] = value
		}
	}
	h.writeJSON(w, http.StatusOK, settings)
}

// HandleSetSettings handles PUT /api/prices/settings
func (h *Handler) HandleSetSettings(w http.ResponseWriter, r *http.Request) {
	var settings map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for key, value := range settings {
		if key != pricing.SettingEscalationPct && key != pricing.SettingReferenceYear {
			h.writeError(w, http.StatusBadRequest, "unknown setting: "+key)
			return
		}
		if err := h.repo.SetSetting(key, value); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	h.log.Info().Int("settings", len(settings)).Msg("Price settings updated")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
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
