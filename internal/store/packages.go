package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/psc-ict/frontdesk/internal/model"
)

// CreatePackage registers a drop-off, allocating a shelf slot and a
// globally unique pickup code in the same transaction. The keys type
// never occupies a shelf; its code is built from the letter prefix alone.
// Correctness under concurrency relies on the transaction plus the
// partial unique index on pending shelves.
func CreatePackage(ctx context.Context, db *sql.DB, pkg *model.Package) (*model.Package, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	prefix := ShelfPrefix(pkg.RecipientName)

	var shelf sql.NullString
	codeBase := prefix
	if pkg.Type != model.PackageTypeKeys {
		s, err := nextFreeShelf(ctx, tx, prefix)
		if err != nil {
			return nil, err
		}
		shelf = sql.NullString{String: s, Valid: true}
		codeBase = s
	}

	code, err := uniquePackageCode(ctx, tx, codeBase)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO packages (code, type, status, description, recipient_name, recipient_phone,
		                       dropped_by, dropper_phone, shelf)
		 VALUES (?, ?, 'pending', ?, ?, ?, ?, ?, ?)`,
		code, pkg.Type, pkg.Description, pkg.RecipientName, pkg.RecipientPhone,
		pkg.DroppedBy, pkg.DropperPhone, shelf,
	)
	if err != nil {
		return nil, fmt.Errorf("creating package: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting package id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing package: %w", err)
	}

	return GetPackage(ctx, db, id)
}

const packageColumns = `id, code, type, status, description, recipient_name, recipient_phone,
	dropped_by, dropper_phone, picked_by, picker_phone, picker_id, shelf,
	created_at, updated_at, picked_at`

func scanPackage(row interface{ Scan(...any) error }) (*model.Package, error) {
	p := &model.Package{}
	var pickedBy, pickerPhone, pickerID, shelf sql.NullString
	err := row.Scan(&p.ID, &p.Code, &p.Type, &p.Status, &p.Description,
		&p.RecipientName, &p.RecipientPhone, &p.DroppedBy, &p.DropperPhone,
		&pickedBy, &pickerPhone, &pickerID, &shelf,
		&p.CreatedAt, &p.UpdatedAt, &p.PickedAt)
	if err != nil {
		return nil, err
	}
	p.PickedBy = pickedBy.String
	p.PickerPhone = pickerPhone.String
	p.PickerID = pickerID.String
	p.Shelf = shelf.String
	return p, nil
}

// GetPackage returns a package by ID.
func GetPackage(ctx context.Context, db *sql.DB, id int64) (*model.Package, error) {
	p, err := scanPackage(db.QueryRowContext(ctx,
		`SELECT `+packageColumns+` FROM packages WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting package: %w", err)
	}
	return p, nil
}

// GetPackageByCode returns a package by its pickup code.
func GetPackageByCode(ctx context.Context, db *sql.DB, code string) (*model.Package, error) {
	p, err := scanPackage(db.QueryRowContext(ctx,
		`SELECT `+packageColumns+` FROM packages WHERE code = ?`, code,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting package by code: %w", err)
	}
	return p, nil
}

// ListPackages returns packages, newest first, optionally filtered by
// status, type, a search term, and a minimum creation date.
func ListPackages(ctx context.Context, db *sql.DB, status, pkgType, search string, since time.Time) ([]model.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE 1=1`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if pkgType != "" {
		query += ` AND type = ?`
		args = append(args, pkgType)
	}
	if search != "" {
		query += ` AND (code LIKE ? OR description LIKE ? OR recipient_name LIKE ?
		           OR recipient_phone LIKE ? OR dropped_by LIKE ? OR picked_by LIKE ? OR shelf LIKE ?)`
		term := "%" + search + "%"
		args = append(args, term, term, term, term, term, term, term)
	}
	if !since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	defer rows.Close()

	var packages []model.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning package: %w", err)
		}
		packages = append(packages, *p)
	}
	return packages, rows.Err()
}

// PickPackage marks a pending package as picked and reclaims its shelf
// slot in the same statement. The guard on current status means a second
// pick of the same package fails with ErrConflict and mutates nothing.
func PickPackage(ctx context.Context, db *sql.DB, id int64, pickedBy, pickerPhone, pickerID string) (*model.Package, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE packages SET status = 'picked', shelf = NULL,
		        picked_by = ?, picker_phone = ?, picker_id = ?,
		        picked_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		pickedBy, pickerPhone, pickerID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("picking package: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking pick result: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("package %d is not pending: %w", id, ErrConflict)
	}

	return GetPackage(ctx, db, id)
}

// GetPackageStats returns dashboard counts.
func GetPackageStats(ctx context.Context, db *sql.DB) (*model.PackageStats, error) {
	stats := &model.PackageStats{}
	err := db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM packages WHERE status = 'pending'),
		        (SELECT COUNT(*) FROM packages WHERE status = 'picked'),
		        (SELECT COUNT(*) FROM packages),
		        (SELECT COUNT(DISTINCT shelf) FROM packages WHERE status = 'pending' AND shelf IS NOT NULL)`,
	).Scan(&stats.Pending, &stats.Picked, &stats.Total, &stats.ShelvesOccupied)
	if err != nil {
		return nil, fmt.Errorf("getting package stats: %w", err)
	}
	return stats, nil
}
