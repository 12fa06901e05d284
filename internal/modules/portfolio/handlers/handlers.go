// Package handlers provides HTTP handlers for asset and cost profile management.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleListAssets handles GET /api/assets
func (h *Handler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.service.GetAssets()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"assets": assets,
		"count":  len(assets),
	})
}

// HandleSaveAsset handles POST /api/assets
func (h *Handler) HandleSaveAsset(w http.ResponseWriter, r *http.Request) {
	var asset domain.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SaveAsset(asset); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.Info().Str("asset", asset.Name).Msg("Asset saved")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "asset": asset.Name})
}

// HandleGetAsset handles GET /api/assets/{name}
func (h *Handler) HandleGetAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	asset, err := h.service.GetAsset(name)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if asset == nil {
		h.writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	h.writeJSON(w, http.StatusOK, asset)
}

// HandleDeleteAsset handles DELETE /api/assets/{name}
func (h *Handler) HandleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.service.DeleteAsset(name); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info().Str("asset", name).Msg("Asset deleted")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "asset": name})
}

// HandleGetProfile handles GET /api/assets/{name}/profile
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	profile, found, err := h.service.GetProfile(name)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "cost profile not found")
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// HandleSaveProfile handles PUT /api/assets/{name}/profile
func (h *Handler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var profile domain.AssetCostProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SaveProfile(name, profile); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.Info().Str("asset", name).Msg("Cost profile saved")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "asset": name})
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
