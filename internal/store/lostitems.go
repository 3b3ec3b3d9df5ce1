package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/psc-ict/frontdesk/internal/model"
)

// NewTrackingID generates a lost-item tracking ID of the form LI-XXXXXXXX.
func NewTrackingID() string {
	id := uuid.New()
	return "LI-" + strings.ToUpper(id.String()[:8])
}

// CreateLostItem creates a lost-item report and assigns its tracking ID.
// The tracking ID is assigned exactly once, here; a collision against the
// unique constraint is retried internally and never surfaced to callers.
func CreateLostItem(ctx context.Context, db *sql.DB, item *model.LostItem) (*model.LostItem, error) {
	var id int64
	for attempt := 0; ; attempt++ {
		trackingID := NewTrackingID()
		result, err := db.ExecContext(ctx,
			`INSERT INTO lost_items (tracking_id, type, status, owner_name, item_name, description,
			                         card_last_four, place_lost, reporter_phone, reporter_email,
			                         reporter_member_id, reported_by)
			 VALUES (?, ?, 'pending', ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			trackingID, item.Type, item.OwnerName, item.ItemName, item.Description,
			item.CardLastFour, item.PlaceLost, item.ReporterPhone, item.ReporterEmail,
			item.ReporterMemberID, item.ReportedBy,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE") && attempt < 5 {
				continue
			}
			return nil, fmt.Errorf("creating lost item: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting lost item id: %w", err)
		}
		break
	}
	return GetLostItem(ctx, db, id)
}

const lostItemColumns = `id, tracking_id, type, status, owner_name, item_name, description,
	card_last_four, place_lost, reporter_phone, reporter_email, reporter_member_id,
	reported_by, date_reported, last_updated`

func scanLostItem(row interface{ Scan(...any) error }) (*model.LostItem, error) {
	item := &model.LostItem{}
	var ownerName, itemName, description, cardLastFour, placeLost sql.NullString
	var reporterPhone, reporterEmail, reporterMemberID sql.NullString
	err := row.Scan(&item.ID, &item.TrackingID, &item.Type, &item.Status,
		&ownerName, &itemName, &description, &cardLastFour, &placeLost,
		&reporterPhone, &reporterEmail, &reporterMemberID,
		&item.ReportedBy, &item.DateReported, &item.LastUpdated)
	if err != nil {
		return nil, err
	}
	item.OwnerName = ownerName.String
	item.ItemName = itemName.String
	item.Description = description.String
	item.CardLastFour = cardLastFour.String
	item.PlaceLost = placeLost.String
	item.ReporterPhone = reporterPhone.String
	item.ReporterEmail = reporterEmail.String
	item.ReporterMemberID = reporterMemberID.String
	return item, nil
}

// GetLostItem returns a lost item by ID.
func GetLostItem(ctx context.Context, db *sql.DB, id int64) (*model.LostItem, error) {
	item, err := scanLostItem(db.QueryRowContext(ctx,
		`SELECT `+lostItemColumns+` FROM lost_items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lost item: %w", err)
	}
	return item, nil
}

// GetLostItemByTrackingID returns a lost item by its tracking ID.
func GetLostItemByTrackingID(ctx context.Context, db *sql.DB, trackingID string) (*model.LostItem, error) {
	item, err := scanLostItem(db.QueryRowContext(ctx,
		`SELECT `+lostItemColumns+` FROM lost_items WHERE tracking_id = ?`, trackingID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lost item by tracking id: %w", err)
	}
	return item, nil
}

// ListLostItems returns lost items, newest first, optionally filtered by
// status, a search term across the descriptive fields, and a minimum
// report date (zero time disables the window).
func ListLostItems(ctx context.Context, db *sql.DB, status, search string, since time.Time) ([]model.LostItem, error) {
	query := `SELECT ` + lostItemColumns + ` FROM lost_items WHERE 1=1`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if search != "" {
		query += ` AND (item_name LIKE ? OR description LIKE ? OR card_last_four LIKE ?
		           OR owner_name LIKE ? OR place_lost LIKE ? OR reporter_member_id LIKE ?
		           OR tracking_id LIKE ?)`
		term := "%" + search + "%"
		args = append(args, term, term, term, term, term, term, term)
	}
	if !since.IsZero() {
		query += ` AND date_reported >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY date_reported DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lost items: %w", err)
	}
	defer rows.Close()

	var items []model.LostItem
	for rows.Next() {
		item, err := scanLostItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lost item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateLostItemStatus sets a lost item's status.
func UpdateLostItemStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE lost_items SET status = ?, last_updated = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating lost item status: %w", err)
	}
	return nil
}

// MarkLostItemFound converts a lost-item report into a found item: the
// owner walked in with the item, so a found record is created from the
// lost report's fields and the lost report is removed. Both happen in one
// transaction.
func MarkLostItemFound(ctx context.Context, db *sql.DB, id int64, finderName string) (*model.FoundItem, error) {
	lost, err := GetLostItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if lost == nil {
		return nil, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO found_items (type, status, owner_name, item_name, description,
		                          card_last_four, place_found, finder_name, finder_phone, reported_by)
		 VALUES (?, 'found', ?, ?, ?, ?, ?, ?, ?, ?)`,
		lost.Type, lost.OwnerName, lost.ItemName, lost.Description,
		lost.CardLastFour, lost.PlaceLost, finderName, lost.ReporterPhone, lost.ReportedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating found item from lost: %w", err)
	}

	foundID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting found item id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lost_items WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("removing lost item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing mark-found: %w", err)
	}

	return GetFoundItem(ctx, db, foundID)
}

// LostItemStats counts lost-and-found records for the dashboard.
type LostItemStats struct {
	LostCount    int `json:"lost_count"`
	FoundCount   int `json:"found_count"`
	PendingCount int `json:"pending_count"`
}

// GetLostItemStats returns report counts.
func GetLostItemStats(ctx context.Context, db *sql.DB) (*LostItemStats, error) {
	stats := &LostItemStats{}
	err := db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM lost_items),
		        (SELECT COUNT(*) FROM found_items),
		        (SELECT COUNT(*) FROM lost_items WHERE status = 'pending')`,
	).Scan(&stats.LostCount, &stats.FoundCount, &stats.PendingCount)
	if err != nil {
		return nil, fmt.Errorf("getting item stats: %w", err)
	}
	return stats, nil
}
