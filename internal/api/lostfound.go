package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/psc-ict/frontdesk/internal/imaging"
	"github.com/psc-ict/frontdesk/internal/match"
	"github.com/psc-ict/frontdesk/internal/model"
	"github.com/psc-ict/frontdesk/internal/printer"
	"github.com/psc-ict/frontdesk/internal/store"
)

// LostFoundHandler handles lost-item reports, found-item intake, and
// the matching endpoints that join them.
type LostFoundHandler struct {
	DB       *sql.DB
	Engine   *match.Engine
	Printer  *printer.Printer
	Notifier match.Notifier
}

type createLostItemRequest struct {
	Type             string `json:"type"`
	OwnerName        string `json:"owner_name"`
	ItemName         string `json:"item_name"`
	Description      string `json:"description"`
	CardLastFour     string `json:"card_last_four"`
	PlaceLost        string `json:"place_lost"`
	ReporterPhone    string `json:"reporter_phone"`
	ReporterEmail    string `json:"reporter_email"`
	ReporterMemberID string `json:"reporter_member_id"`
}

type createFoundItemRequest struct {
	Type         string `json:"type"`
	OwnerName    string `json:"owner_name"`
	ItemName     string `json:"item_name"`
	Description  string `json:"description"`
	CardLastFour string `json:"card_last_four"`
	PlaceFound   string `json:"place_found"`
	FinderName   string `json:"finder_name"`
	FinderPhone  string `json:"finder_phone"`
}

type lostItemResponse struct {
	Item    *model.LostItem     `json:"item"`
	Matches []model.MatchResult `json:"matches"`
	Notes   []string            `json:"notes,omitempty"`
	Summary string              `json:"summary"`
}

type foundItemResponse struct {
	Item    *model.FoundItem    `json:"item"`
	Matches []model.MatchResult `json:"matches"`
	Notes   []string            `json:"notes,omitempty"`
	Summary string              `json:"summary"`
}

// CreateLost handles POST /api/lost-items. Registers the report, runs
// the matching pass, and kicks off the acknowledgment email and receipt
// print in the background.
func (h *LostFoundHandler) CreateLost(w http.ResponseWriter, r *http.Request) {
	var req createLostItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := model.ValidateLostItem(req.Type, req.CardLastFour, req.ReporterPhone, req.ReporterMemberID); err != nil {
		storeError(w, err, "create lost item")
		return
	}

	item, err := store.CreateLostItem(r.Context(), h.DB, &model.LostItem{
		Type:             req.Type,
		OwnerName:        req.OwnerName,
		ItemName:         req.ItemName,
		Description:      req.Description,
		CardLastFour:     req.CardLastFour,
		PlaceLost:        req.PlaceLost,
		ReporterPhone:    req.ReporterPhone,
		ReporterEmail:    req.ReporterEmail,
		ReporterMemberID: req.ReporterMemberID,
		ReportedBy:       userID(r.Context()),
	})
	if err != nil {
		storeError(w, err, "create lost item")
		return
	}

	notes := h.sendAcknowledgment(r, item)

	matches, matchNotes := h.Engine.OnLostCreated(r.Context(), item)
	notes = append(notes, matchNotes...)

	if store.SettingBool(r.Context(), h.DB, "auto_print_lost_receipt", true) && h.Printer != nil {
		it := *item
		go h.Printer.PrintLostReceipt(&it)
	}

	if matches == nil {
		matches = []model.MatchResult{}
	}
	slog.Info("lost item reported", "tracking_id", item.TrackingID, "type", item.Type, "matches", len(matches))
	jsonResponse(w, http.StatusCreated, lostItemResponse{
		Item:    item,
		Matches: matches,
		Notes:   notes,
		Summary: fmt.Sprintf("Lost item registered with tracking ID %s; %d potential match(es) found", item.TrackingID, len(matches)),
	})
}

// sendAcknowledgment emails the reporter a confirmation of the report,
// subject to the same email caps as match notifications.
func (h *LostFoundHandler) sendAcknowledgment(r *http.Request, item *model.LostItem) []string {
	if h.Notifier == nil || item.ReporterEmail == "" {
		return nil
	}
	if !store.SettingBool(r.Context(), h.DB, "email_notifications_enabled", true) {
		return []string{"email notifications disabled"}
	}

	allowed, reason, err := store.AllowEmail(r.Context(), h.DB, item.ID)
	if err != nil {
		slog.Error("email limit check failed", "tracking_id", item.TrackingID, "error", err)
		return []string{"email limit check failed"}
	}
	if !allowed {
		return []string{fmt.Sprintf("acknowledgment skipped: %s", reason)}
	}

	if err := store.RecordEmail(r.Context(), h.DB, item.ReporterEmail, "acknowledgment", &item.ID); err != nil {
		slog.Error("recording email failed", "tracking_id", item.TrackingID, "error", err)
	}

	subs := map[string]string{
		"owner_name":         item.OwnerName,
		"tracking_id":        item.TrackingID,
		"item_name":          item.ItemName,
		"description":        item.Description,
		"place_lost":         item.PlaceLost,
		"reporter_member_id": item.ReporterMemberID,
		"reporter_phone":     item.ReporterPhone,
		"reporter_email":     item.ReporterEmail,
	}
	recipient := item.ReporterEmail
	trackingID := item.TrackingID
	go func() {
		sent, why := h.Notifier.Send(context.Background(), recipient, "acknowledgment_email_template", subs)
		if !sent {
			slog.Warn("acknowledgment not sent", "tracking_id", trackingID, "reason", why)
		}
	}()
	return nil
}

// ListLost handles GET /api/lost-items.
func (h *LostFoundHandler) ListLost(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListLostItems(r.Context(), h.DB,
		r.URL.Query().Get("status"), r.URL.Query().Get("search"), sinceParam(r))
	if err != nil {
		storeError(w, err, "list lost items")
		return
	}
	if items == nil {
		items = []model.LostItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// GetLost handles GET /api/lost-items/{id}.
func (h *LostFoundHandler) GetLost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lost item id")
		return
	}

	item, err := store.GetLostItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get lost item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "lost item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// TrackLost handles GET /api/lost-items/track/{tracking_id}.
func (h *LostFoundHandler) TrackLost(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetLostItemByTrackingID(r.Context(), h.DB, r.PathValue("tracking_id"))
	if err != nil {
		storeError(w, err, "get lost item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "lost item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// LostStats handles GET /api/lost-items/stats.
func (h *LostFoundHandler) LostStats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetLostItemStats(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "get stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

type markFoundRequest struct {
	FinderName string `json:"finder_name"`
}

// MarkFound handles POST /api/lost-items/{id}/found: converts a pending
// lost report into a found-item record in one transaction.
func (h *LostFoundHandler) MarkFound(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lost item id")
		return
	}

	var req markFoundRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	found, err := store.MarkLostItemFound(r.Context(), h.DB, id, req.FinderName)
	if err != nil {
		storeError(w, err, "mark lost item found")
		return
	}
	if found == nil {
		jsonError(w, http.StatusNotFound, "lost item not found")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("lost item marked found", "lost_id", id, "found_id", found.ID, "user", claims.Username)
	jsonResponse(w, http.StatusOK, found)
}

// CreateFound handles POST /api/found-items.
func (h *LostFoundHandler) CreateFound(w http.ResponseWriter, r *http.Request) {
	var req createFoundItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := model.ValidateFoundItem(req.Type, req.CardLastFour, req.FinderPhone); err != nil {
		storeError(w, err, "create found item")
		return
	}

	item, err := store.CreateFoundItem(r.Context(), h.DB, &model.FoundItem{
		Type:         req.Type,
		OwnerName:    req.OwnerName,
		ItemName:     req.ItemName,
		Description:  req.Description,
		CardLastFour: req.CardLastFour,
		PlaceFound:   req.PlaceFound,
		FinderName:   req.FinderName,
		FinderPhone:  req.FinderPhone,
		ReportedBy:   userID(r.Context()),
	})
	if err != nil {
		storeError(w, err, "create found item")
		return
	}

	matches, notes := h.Engine.OnFoundCreated(r.Context(), item)

	if store.SettingBool(r.Context(), h.DB, "auto_print_found_receipt", true) && h.Printer != nil {
		it := *item
		go h.Printer.PrintFoundReceipt(&it)
	}

	if matches == nil {
		matches = []model.MatchResult{}
	}
	slog.Info("found item registered", "found_id", item.ID, "type", item.Type, "matches", len(matches))
	jsonResponse(w, http.StatusCreated, foundItemResponse{
		Item:    item,
		Matches: matches,
		Notes:   notes,
		Summary: fmt.Sprintf("Found item #%d registered; %d potential match(es) found", item.ID, len(matches)),
	})
}

// ListFound handles GET /api/found-items.
func (h *LostFoundHandler) ListFound(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListFoundItems(r.Context(), h.DB,
		r.URL.Query().Get("status"), r.URL.Query().Get("search"), sinceParam(r))
	if err != nil {
		storeError(w, err, "list found items")
		return
	}
	if items == nil {
		items = []model.FoundItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// GetFound handles GET /api/found-items/{id}.
func (h *LostFoundHandler) GetFound(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid found item id")
		return
	}

	item, err := store.GetFoundItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get found item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "found item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

type pickRequest struct {
	Name     string `json:"name"`
	MemberID string `json:"member_id"`
	Phone    string `json:"phone"`
}

// Pick handles POST /api/found-items/{id}/pick: records the claim and
// flips the item to claimed. A second pick of the same item conflicts.
func (h *LostFoundHandler) Pick(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid found item id")
		return
	}

	var req pickRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "picker name required")
		return
	}

	log, err := store.PickFoundItem(r.Context(), h.DB, id, req.Name, req.MemberID, req.Phone, userID(r.Context()))
	if err != nil {
		storeError(w, err, "pick found item")
		return
	}

	slog.Info("found item picked", "found_id", id, "picked_by", req.Name)
	jsonResponse(w, http.StatusCreated, log)
}

// ListPickups handles GET /api/found-items/{id}/pickups.
func (h *LostFoundHandler) ListPickups(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid found item id")
		return
	}

	logs, err := store.ListPickupLogs(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "list pickups")
		return
	}
	if logs == nil {
		logs = []model.PickupLog{}
	}
	jsonResponse(w, http.StatusOK, logs)
}

// UploadPhoto handles PUT /api/found-items/{id}/photo.
func (h *LostFoundHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid found item id")
		return
	}

	item, err := store.GetFoundItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get found item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "found item not found")
		return
	}

	maxBytes := int64(store.SettingInt(r.Context(), h.DB, "max_image_size_mb", 5)) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file, maxBytes)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetFoundItemPhoto(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		storeError(w, err, "save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/found-items/{id}/photo.
func (h *LostFoundHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid found item id")
		return
	}

	data, mime, err := store.GetFoundItemPhoto(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// Matches handles GET /api/matches?tracking_id=...|found_id=...
func (h *LostFoundHandler) Matches(w http.ResponseWriter, r *http.Request) {
	trackingID := r.URL.Query().Get("tracking_id")
	foundID, _ := strconv.ParseInt(r.URL.Query().Get("found_id"), 10, 64)
	if trackingID == "" && foundID == 0 {
		jsonError(w, http.StatusBadRequest, "tracking_id or found_id required")
		return
	}

	matches, err := h.Engine.PotentialMatches(r.Context(), trackingID, foundID)
	if err != nil {
		storeError(w, err, "generate matches")
		return
	}
	if matches == nil {
		matches = []model.MatchResult{}
	}
	jsonResponse(w, http.StatusOK, matches)
}

type printMatchesRequest struct {
	TrackingID string `json:"tracking_id"`
	FoundID    int64  `json:"found_id"`
}

// PrintMatches handles POST /api/matches/print: prints a chit for every
// match of the anchor item above the print threshold.
func (h *LostFoundHandler) PrintMatches(w http.ResponseWriter, r *http.Request) {
	var req printMatchesRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TrackingID == "" && req.FoundID == 0 {
		jsonError(w, http.StatusBadRequest, "tracking_id or found_id required")
		return
	}

	printed, err := h.Engine.PrintMatches(r.Context(), req.TrackingID, req.FoundID)
	if err != nil {
		storeError(w, err, "print matches")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int{"printed": printed})
}
