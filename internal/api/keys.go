package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/psc-ict/frontdesk/internal/model"
	"github.com/psc-ict/frontdesk/internal/store"
)

// KeysHandler handles security key custody endpoints.
type KeysHandler struct {
	DB *sql.DB
}

type createKeyRequest struct {
	KeyID    string `json:"key_id"`
	Location string `json:"location"`
	KeyType  string `json:"key_type"`
}

type checkoutKeyRequest struct {
	HolderName  string `json:"holder_name"`
	HolderType  string `json:"holder_type"`
	HolderPhone string `json:"holder_phone"`
	Notes       string `json:"notes"`
}

type returnKeyRequest struct {
	Notes string `json:"notes"`
}

// Create handles POST /api/keys.
func (h *KeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.KeyID == "" || req.Location == "" {
		jsonError(w, http.StatusBadRequest, "key id and location required")
		return
	}
	if !model.ValidKeyType(req.KeyType) {
		jsonError(w, http.StatusBadRequest, "key type must be 'Master', 'Access', or 'Other'")
		return
	}

	key, err := store.CreateKey(r.Context(), h.DB, req.KeyID, req.Location, req.KeyType)
	if err != nil {
		jsonError(w, http.StatusConflict, "key id already exists")
		return
	}

	slog.Info("key registered", "key_id", key.KeyID, "location", key.Location)
	jsonResponse(w, http.StatusCreated, key)
}

// List handles GET /api/keys.
func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := store.ListKeys(r.Context(), h.DB, r.URL.Query().Get("search"))
	if err != nil {
		storeError(w, err, "list keys")
		return
	}
	if keys == nil {
		keys = []model.SecurityKey{}
	}
	jsonResponse(w, http.StatusOK, keys)
}

// Get handles GET /api/keys/{id}.
func (h *KeysHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	key, err := store.GetKey(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get key")
		return
	}
	if key == nil {
		jsonError(w, http.StatusNotFound, "key not found")
		return
	}
	jsonResponse(w, http.StatusOK, key)
}

// Checkout handles POST /api/keys/{id}/checkout.
func (h *KeysHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	var req checkoutKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.HolderName == "" {
		jsonError(w, http.StatusBadRequest, "holder name required")
		return
	}
	if !model.ValidHolderType(req.HolderType) {
		jsonError(w, http.StatusBadRequest, "holder type must be 'staff', 'member', 'contractor', or 'visitor'")
		return
	}

	key, err := store.CheckoutKey(r.Context(), h.DB, id, req.HolderName, req.HolderType, req.HolderPhone, req.Notes, userID(r.Context()))
	if err != nil {
		storeError(w, err, "checkout key")
		return
	}

	slog.Info("key checked out", "key_id", key.KeyID, "holder", req.HolderName, "holder_type", req.HolderType)
	jsonResponse(w, http.StatusOK, key)
}

// Return handles POST /api/keys/{id}/return.
func (h *KeysHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	var req returnKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key, err := store.ReturnKey(r.Context(), h.DB, id, req.Notes, userID(r.Context()))
	if err != nil {
		storeError(w, err, "return key")
		return
	}

	slog.Info("key returned", "key_id", key.KeyID)
	jsonResponse(w, http.StatusOK, key)
}

// MarkLost handles POST /api/keys/{id}/lost.
func (h *KeysHandler) MarkLost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	if err := store.MarkKeyLost(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "mark key lost")
		return
	}

	key, err := store.GetKey(r.Context(), h.DB, id)
	if err != nil || key == nil {
		jsonError(w, http.StatusNotFound, "key not found")
		return
	}

	claims := GetClaims(r.Context())
	slog.Warn("key marked lost", "key_id", key.KeyID, "user", claims.Username)
	jsonResponse(w, http.StatusOK, key)
}

// History handles GET /api/keys/{id}/history.
func (h *KeysHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	history, err := store.GetKeyHistory(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get key history")
		return
	}
	if history == nil {
		history = []model.KeyHistory{}
	}
	jsonResponse(w, http.StatusOK, history)
}
