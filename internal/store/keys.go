package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/psc-ict/frontdesk/internal/model"
)

// CreateKey registers a physical key.
func CreateKey(ctx context.Context, db *sql.DB, keyID, location, keyType string) (*model.SecurityKey, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO security_keys (key_id, location, key_type) VALUES (?, ?, ?)`,
		keyID, location, keyType,
	)
	if err != nil {
		return nil, fmt.Errorf("creating key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting key id: %w", err)
	}

	return GetKey(ctx, db, id)
}

const keyColumns = `id, key_id, location, key_type, status,
	current_holder_name, current_holder_type, current_holder_phone,
	checkout_time, return_time`

func scanKey(row interface{ Scan(...any) error }) (*model.SecurityKey, error) {
	k := &model.SecurityKey{}
	var holderName, holderType, holderPhone sql.NullString
	err := row.Scan(&k.ID, &k.KeyID, &k.Location, &k.KeyType, &k.Status,
		&holderName, &holderType, &holderPhone, &k.CheckoutTime, &k.ReturnTime)
	if err != nil {
		return nil, err
	}
	k.CurrentHolderName = holderName.String
	k.CurrentHolderType = holderType.String
	k.CurrentHolderPhone = holderPhone.String
	return k, nil
}

// GetKey returns a key by ID.
func GetKey(ctx context.Context, db *sql.DB, id int64) (*model.SecurityKey, error) {
	k, err := scanKey(db.QueryRowContext(ctx,
		`SELECT `+keyColumns+` FROM security_keys WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting key: %w", err)
	}
	return k, nil
}

// ListKeys returns all keys, optionally filtered by a search term across
// key ID, location, and current holder.
func ListKeys(ctx context.Context, db *sql.DB, search string) ([]model.SecurityKey, error) {
	query := `SELECT ` + keyColumns + ` FROM security_keys WHERE 1=1`
	var args []any

	if search != "" {
		query += ` AND (key_id LIKE ? OR location LIKE ? OR current_holder_name LIKE ?)`
		term := "%" + search + "%"
		args = append(args, term, term, term)
	}
	query += ` ORDER BY key_id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []model.SecurityKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, *k)
	}
	return keys, rows.Err()
}

// CheckoutKey hands a key to a holder. Allowed only from the available
// state; any other current status fails with ErrConflict and no mutation.
// A history row capturing the holder snapshot is appended atomically.
func CheckoutKey(ctx context.Context, db *sql.DB, id int64, holderName, holderType, holderPhone, notes string, userID *int64) (*model.SecurityKey, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE security_keys SET status = 'checked-out',
		        current_holder_name = ?, current_holder_type = ?, current_holder_phone = ?,
		        checkout_time = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'available'`,
		holderName, holderType, holderPhone, id,
	)
	if err != nil {
		return nil, fmt.Errorf("checking out key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking checkout result: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("key %d is not available: %w", id, ErrConflict)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO key_history (key_id, action, holder_name, holder_type, holder_phone, notes, user_id)
		 VALUES (?, 'checkout', ?, ?, ?, ?, ?)`,
		id, holderName, holderType, holderPhone, notes, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording checkout: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing checkout: %w", err)
	}

	return GetKey(ctx, db, id)
}

// ReturnKey takes a key back. Allowed only from the checked-out state.
// The history row captures the outgoing holder snapshot, then the holder
// fields are cleared and the key becomes available again.
func ReturnKey(ctx context.Context, db *sql.DB, id int64, notes string, userID *int64) (*model.SecurityKey, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var holderName, holderType, holderPhone sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT current_holder_name, current_holder_type, current_holder_phone
		 FROM security_keys WHERE id = ? AND status = 'checked-out'`, id,
	).Scan(&holderName, &holderType, &holderPhone)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("key %d is not checked out: %w", id, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("reading holder snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO key_history (key_id, action, holder_name, holder_type, holder_phone, notes, user_id)
		 VALUES (?, 'return', ?, ?, ?, ?, ?)`,
		id, holderName.String, holderType.String, holderPhone.String, notes, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording return: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE security_keys SET status = 'available',
		        current_holder_name = NULL, current_holder_type = NULL, current_holder_phone = NULL,
		        return_time = CURRENT_TIMESTAMP
		 WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("returning key: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing return: %w", err)
	}

	return GetKey(ctx, db, id)
}

// MarkKeyLost sets a key's status to lost. Terminal, set manually by
// staff; there is no transition back except through manual records.
func MarkKeyLost(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE security_keys SET status = 'lost' WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("marking key lost: %w", err)
	}
	return nil
}

// GetKeyHistory returns a key's audit trail, newest first.
func GetKeyHistory(ctx context.Context, db *sql.DB, keyID int64) ([]model.KeyHistory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, key_id, action, holder_name, holder_type, holder_phone, notes, user_id, timestamp
		 FROM key_history WHERE key_id = ? ORDER BY timestamp DESC, id DESC`, keyID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting key history: %w", err)
	}
	defer rows.Close()

	var history []model.KeyHistory
	for rows.Next() {
		var h model.KeyHistory
		var holderPhone, notes sql.NullString
		if err := rows.Scan(&h.ID, &h.KeyID, &h.Action, &h.HolderName, &h.HolderType,
			&holderPhone, &notes, &h.User, &h.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning key history: %w", err)
		}
		h.HolderPhone = holderPhone.String
		h.Notes = notes.String
		history = append(history, h)
	}
	return history, rows.Err()
}
