package api

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/psc-ict/frontdesk/internal/model"
	"github.com/psc-ict/frontdesk/internal/printer"
	"github.com/psc-ict/frontdesk/internal/store"
)

// PackagesHandler handles package and document drop-off endpoints.
type PackagesHandler struct {
	DB      *sql.DB
	Printer *printer.Printer
}

type createPackageRequest struct {
	Type           string `json:"type"`
	Description    string `json:"description"`
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	DroppedBy      string `json:"dropped_by"`
	DropperPhone   string `json:"dropper_phone"`
}

type packageResponse struct {
	Package *model.Package `json:"package"`
	Summary string         `json:"summary"`
}

func validPackageType(t string) bool {
	return t == model.PackageTypePackage || t == model.PackageTypeDocument || t == model.PackageTypeKeys
}

// Create handles POST /api/packages: allocates a shelf slot and pickup
// code and prints the drop-off label in the background.
func (h *PackagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPackageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validPackageType(req.Type) {
		jsonError(w, http.StatusBadRequest, "type must be 'package', 'document', or 'keys'")
		return
	}
	if req.RecipientName == "" {
		jsonError(w, http.StatusBadRequest, "recipient name required")
		return
	}

	pkg, err := store.CreatePackage(r.Context(), h.DB, &model.Package{
		Type:           req.Type,
		Description:    req.Description,
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		DroppedBy:      req.DroppedBy,
		DropperPhone:   req.DropperPhone,
	})
	if err != nil {
		storeError(w, err, "create package")
		return
	}

	if h.Printer != nil {
		p := *pkg
		go h.Printer.PrintPackageLabel(&p)
	}

	summary := fmt.Sprintf("%s registered with code %s", req.Type, pkg.Code)
	if pkg.Shelf != "" {
		summary += fmt.Sprintf(" on shelf %s", pkg.Shelf)
	}
	slog.Info("package created", "code", pkg.Code, "type", pkg.Type, "shelf", pkg.Shelf)
	jsonResponse(w, http.StatusCreated, packageResponse{Package: pkg, Summary: summary})
}

// List handles GET /api/packages.
func (h *PackagesHandler) List(w http.ResponseWriter, r *http.Request) {
	packages, err := store.ListPackages(r.Context(), h.DB,
		r.URL.Query().Get("status"), r.URL.Query().Get("type"),
		r.URL.Query().Get("search"), sinceParam(r))
	if err != nil {
		storeError(w, err, "list packages")
		return
	}
	if packages == nil {
		packages = []model.Package{}
	}
	jsonResponse(w, http.StatusOK, packages)
}

// Get handles GET /api/packages/{id}.
func (h *PackagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid package id")
		return
	}

	pkg, err := store.GetPackage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get package")
		return
	}
	if pkg == nil {
		jsonError(w, http.StatusNotFound, "package not found")
		return
	}
	jsonResponse(w, http.StatusOK, pkg)
}

// GetByCode handles GET /api/packages/code/{code}.
func (h *PackagesHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	pkg, err := store.GetPackageByCode(r.Context(), h.DB, r.PathValue("code"))
	if err != nil {
		storeError(w, err, "get package")
		return
	}
	if pkg == nil {
		jsonError(w, http.StatusNotFound, "package not found")
		return
	}
	jsonResponse(w, http.StatusOK, pkg)
}

type pickPackageRequest struct {
	PickedBy    string `json:"picked_by"`
	PickerPhone string `json:"picker_phone"`
	PickerID    string `json:"picker_id"`
}

// Pick handles POST /api/packages/{id}/pick: hands the package over and
// frees its shelf slot. A second pick conflicts.
func (h *PackagesHandler) Pick(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid package id")
		return
	}

	var req pickPackageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PickedBy == "" {
		jsonError(w, http.StatusBadRequest, "picker name required")
		return
	}

	pkg, err := store.PickPackage(r.Context(), h.DB, id, req.PickedBy, req.PickerPhone, req.PickerID)
	if err != nil {
		storeError(w, err, "pick package")
		return
	}

	slog.Info("package picked", "code", pkg.Code, "picked_by", req.PickedBy)
	jsonResponse(w, http.StatusOK, pkg)
}

// Stats handles GET /api/packages/stats.
func (h *PackagesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetPackageStats(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "get package stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// Export handles GET /api/packages/export: the full register as CSV for
// the monthly report.
func (h *PackagesHandler) Export(w http.ResponseWriter, r *http.Request) {
	packages, err := store.ListPackages(r.Context(), h.DB,
		r.URL.Query().Get("status"), r.URL.Query().Get("type"), "", sinceParam(r))
	if err != nil {
		storeError(w, err, "export packages")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="packages-%s.csv"`, time.Now().Format("2006-01-02")))

	cw := csv.NewWriter(w)
	cw.Write([]string{"code", "type", "status", "description", "recipient", "recipient_phone",
		"dropped_by", "picked_by", "shelf", "created_at", "picked_at"})
	for _, p := range packages {
		pickedAt := ""
		if p.PickedAt != nil {
			pickedAt = p.PickedAt.Format(time.RFC3339)
		}
		cw.Write([]string{
			p.Code, p.Type, p.Status, p.Description, p.RecipientName,
			printer.MaskPhone(p.RecipientPhone), p.DroppedBy, p.PickedBy, p.Shelf,
			p.CreatedAt.Format(time.RFC3339), pickedAt,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("writing csv export", "error", err)
	}
}
