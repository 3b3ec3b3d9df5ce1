package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/psc-ict/frontdesk/internal/store"
)

// SettingsHandler handles the configuration registry (admin only).
type SettingsHandler struct {
	DB *sql.DB
}

type updateSettingRequest struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// List handles GET /api/settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := store.ListSettings(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list settings")
		return
	}
	if settings == nil {
		settings = []store.Setting{}
	}
	jsonResponse(w, http.StatusOK, settings)
}

// Update handles PUT /api/settings/{key}.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req updateSettingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.SetSetting(r.Context(), h.DB, key, req.Value, req.Description); err != nil {
		storeError(w, err, "update setting")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("setting updated", "key", key, "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}
