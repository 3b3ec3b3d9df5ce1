package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/psc-ict/frontdesk/internal/model"
)

// CreateFoundItem records an item handed in at the front desk.
func CreateFoundItem(ctx context.Context, db *sql.DB, item *model.FoundItem) (*model.FoundItem, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO found_items (type, status, owner_name, item_name, description,
		                          card_last_four, place_found, finder_name, finder_phone, reported_by)
		 VALUES (?, 'found', ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Type, item.OwnerName, item.ItemName, item.Description,
		item.CardLastFour, item.PlaceFound, item.FinderName, item.FinderPhone, item.ReportedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating found item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting found item id: %w", err)
	}

	return GetFoundItem(ctx, db, id)
}

const foundItemColumns = `id, type, status, owner_name, item_name, description,
	card_last_four, place_found, finder_name, finder_phone, photo_mime,
	reported_by, date_reported, last_updated`

func scanFoundItem(row interface{ Scan(...any) error }) (*model.FoundItem, error) {
	item := &model.FoundItem{}
	var ownerName, itemName, description, cardLastFour, placeFound sql.NullString
	var finderName, finderPhone, photoMime sql.NullString
	err := row.Scan(&item.ID, &item.Type, &item.Status,
		&ownerName, &itemName, &description, &cardLastFour, &placeFound,
		&finderName, &finderPhone, &photoMime,
		&item.ReportedBy, &item.DateReported, &item.LastUpdated)
	if err != nil {
		return nil, err
	}
	item.OwnerName = ownerName.String
	item.ItemName = itemName.String
	item.Description = description.String
	item.CardLastFour = cardLastFour.String
	item.PlaceFound = placeFound.String
	item.FinderName = finderName.String
	item.FinderPhone = finderPhone.String
	item.PhotoMime = photoMime.String
	return item, nil
}

// GetFoundItem returns a found item by ID.
func GetFoundItem(ctx context.Context, db *sql.DB, id int64) (*model.FoundItem, error) {
	item, err := scanFoundItem(db.QueryRowContext(ctx,
		`SELECT `+foundItemColumns+` FROM found_items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting found item: %w", err)
	}
	return item, nil
}

// ListFoundItems returns found items, newest first, optionally filtered
// by status, search term, and a minimum report date.
func ListFoundItems(ctx context.Context, db *sql.DB, status, search string, since time.Time) ([]model.FoundItem, error) {
	query := `SELECT ` + foundItemColumns + ` FROM found_items WHERE 1=1`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if search != "" {
		query += ` AND (item_name LIKE ? OR description LIKE ? OR card_last_four LIKE ?
		           OR owner_name LIKE ? OR place_found LIKE ? OR finder_name LIKE ?)`
		term := "%" + search + "%"
		args = append(args, term, term, term, term, term, term)
	}
	if !since.IsZero() {
		query += ` AND date_reported >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY date_reported DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing found items: %w", err)
	}
	defer rows.Close()

	var items []model.FoundItem
	for rows.Next() {
		item, err := scanFoundItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning found item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// PickFoundItem records a claim: the item transitions found -> claimed and
// a pickup log is written, atomically. The status update is guarded so a
// second concurrent claim of the same item fails with ErrConflict and
// writes no second log.
func PickFoundItem(ctx context.Context, db *sql.DB, id int64, name, memberID, phone string, verifiedBy *int64) (*model.PickupLog, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE found_items SET status = 'claimed', last_updated = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'found'`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("claiming found item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking claim result: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("found item %d is not claimable: %w", id, ErrConflict)
	}

	logResult, err := tx.ExecContext(ctx,
		`INSERT INTO pickup_logs (found_item_id, picked_by_name, picked_by_member_id, picked_by_phone, verified_by)
		 VALUES (?, ?, ?, ?, ?)`,
		id, name, memberID, phone, verifiedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("writing pickup log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing pickup: %w", err)
	}

	logID, _ := logResult.LastInsertId()
	return GetPickupLog(ctx, db, logID)
}

// GetPickupLog returns a pickup log entry by ID.
func GetPickupLog(ctx context.Context, db *sql.DB, id int64) (*model.PickupLog, error) {
	log := &model.PickupLog{}
	err := db.QueryRowContext(ctx,
		`SELECT id, found_item_id, picked_by_name, picked_by_member_id, picked_by_phone, pickup_date, verified_by
		 FROM pickup_logs WHERE id = ?`, id,
	).Scan(&log.ID, &log.FoundItemID, &log.PickedByName, &log.PickedByMemberID,
		&log.PickedByPhone, &log.PickupDate, &log.VerifiedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pickup log: %w", err)
	}
	return log, nil
}

// ListPickupLogs returns pickup logs for a found item, newest first.
func ListPickupLogs(ctx context.Context, db *sql.DB, foundItemID int64) ([]model.PickupLog, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, found_item_id, picked_by_name, picked_by_member_id, picked_by_phone, pickup_date, verified_by
		 FROM pickup_logs WHERE found_item_id = ? ORDER BY pickup_date DESC`, foundItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pickup logs: %w", err)
	}
	defer rows.Close()

	var logs []model.PickupLog
	for rows.Next() {
		var l model.PickupLog
		if err := rows.Scan(&l.ID, &l.FoundItemID, &l.PickedByName, &l.PickedByMemberID,
			&l.PickedByPhone, &l.PickupDate, &l.VerifiedBy); err != nil {
			return nil, fmt.Errorf("scanning pickup log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// SetFoundItemPhoto stores a found item's photo.
func SetFoundItemPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE found_items SET photo = ?, photo_mime = ?, last_updated = CURRENT_TIMESTAMP WHERE id = ?`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting found item photo: %w", err)
	}
	return nil
}

// GetFoundItemPhoto returns a found item's photo data and MIME type.
func GetFoundItemPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM found_items WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting found item photo: %w", err)
	}
	return photo, mime.String, nil
}
