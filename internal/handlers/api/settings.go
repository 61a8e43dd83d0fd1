package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/factura-eu/api/internal/apperr"
	"github.com/factura-eu/api/internal/services/settings"
	"github.com/factura-eu/api/internal/store"
)

// SettingsHandler serves the shop's invoicing settings.
type SettingsHandler struct {
	settings *settings.Service
	logger   *slog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(svc *settings.Service, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsHandler{settings: svc, logger: logger}
}

// RegisterRoutes registers the settings routes on the given mux.
func (h *SettingsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/settings", h.Get)
	mux.HandleFunc("POST /api/settings", h.Update)
}

type settingsResponse struct {
	Success  bool               `json:"success"`
	Settings store.ShopSettings `json:"settings"`
	// Missing lists what still prevents invoicing.
	Missing []string `json:"missing"`
}

func newSettingsResponse(s store.ShopSettings) settingsResponse {
	missing := settings.MissingFields(s)
	if missing == nil {
		missing = []string{}
	}
	return settingsResponse{Success: true, Settings: s, Missing: missing}
}

// Get returns the settings, creating the defaults on first access.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopOf(w, r)
	if !ok {
		return
	}

	s, err := h.settings.Get(r.Context(), shop)
	if err != nil {
		h.logger.Error("getting settings", "shop", shop, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(s))
}

type updateSettingsRequest struct {
	Settings *settings.Patch `json:"settings"`
}

// Update applies a partial update. The numbering counters cannot be changed.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopOf(w, r)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Settings == nil {
		writeError(w, http.StatusBadRequest, "settings object is required")
		return
	}

	s, err := h.settings.Update(r.Context(), shop, *req.Settings)
	if apperr.IsExpected(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("updating settings", "shop", shop, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	h.logger.Info("settings updated", "shop", shop)
	writeJSON(w, http.StatusOK, newSettingsResponse(s))
}
