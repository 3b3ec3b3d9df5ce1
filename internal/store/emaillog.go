package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AllowEmail checks the auto-email rate limits before a dispatch. It
// returns false with a human-readable reason when either the daily cap or
// the per-lost-item cap would be exceeded. The caps are read from
// settings on every call so operators can tune them live.
func AllowEmail(ctx context.Context, db *sql.DB, lostItemID int64) (bool, string, error) {
	maxPerDay := SettingInt(ctx, db, "max_auto_emails_per_day", 50)
	maxPerItem := SettingInt(ctx, db, "max_auto_emails_per_item", 3)

	var today int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_log WHERE sent_at >= datetime('now', 'start of day')`,
	).Scan(&today)
	if err != nil {
		return false, "", fmt.Errorf("counting today's emails: %w", err)
	}
	if today >= maxPerDay {
		return false, fmt.Sprintf("daily email limit reached (%d)", maxPerDay), nil
	}

	var forItem int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_log WHERE lost_item_id = ?`, lostItemID,
	).Scan(&forItem)
	if err != nil {
		return false, "", fmt.Errorf("counting emails for item: %w", err)
	}
	if forItem >= maxPerItem {
		return false, fmt.Sprintf("email limit for this item reached (%d)", maxPerItem), nil
	}

	return true, "", nil
}

// RecordEmail appends a sent email to the log. lostItemID may be nil for
// emails not tied to a lost item.
func RecordEmail(ctx context.Context, db *sql.DB, recipient, templateKey string, lostItemID *int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO email_log (recipient, template_key, lost_item_id) VALUES (?, ?, ?)`,
		recipient, templateKey, lostItemID,
	)
	if err != nil {
		return fmt.Errorf("recording email: %w", err)
	}
	return nil
}
