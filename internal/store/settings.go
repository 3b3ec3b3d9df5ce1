package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
)

// GetSetting returns the value for key, or def if the key is not set.
func GetSetting(ctx context.Context, db *sql.DB, key, def string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("getting setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting creates or updates a setting.
func SetSetting(ctx context.Context, db *sql.DB, key, value, description string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value, description) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, description = excluded.description`,
		key, value, description,
	)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// SettingFloat reads a float-valued setting, falling back to def on a
// missing key or unparseable value.
func SettingFloat(ctx context.Context, db *sql.DB, key string, def float64) float64 {
	raw, err := GetSetting(ctx, db, key, "")
	if err != nil || raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

// SettingInt reads an int-valued setting, falling back to def.
func SettingInt(ctx context.Context, db *sql.DB, key string, def int) int {
	raw, err := GetSetting(ctx, db, key, "")
	if err != nil || raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// SettingBool reads a boolean setting encoded as "true"/"false".
func SettingBool(ctx context.Context, db *sql.DB, key string, def bool) bool {
	raw, err := GetSetting(ctx, db, key, "")
	if err != nil || raw == "" {
		return def
	}
	return raw == "true"
}

// Setting describes a settings row.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// ListSettings returns all settings ordered by key.
func ListSettings(ctx context.Context, db *sql.DB) ([]Setting, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT key, value, description FROM settings ORDER BY key`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		var description sql.NullString
		if err := rows.Scan(&s.Key, &s.Value, &description); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		s.Description = description.String
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// defaultSettings holds every tunable the matcher, allocator, and
// notifier consult, with its initial value.
var defaultSettings = []Setting{
	{"lost_match_threshold", "0.4", "Similarity threshold for matching on lost-item creation (0.0-1.0)"},
	{"found_match_threshold", "0.35", "Similarity threshold for matching on found-item creation (0.0-1.0)"},
	{"match_days_back", "14", "Days to look back when listing potential matches"},
	{"task_match_threshold", "0.5", "Similarity threshold for the background matching scan (0.0-1.0)"},
	{"task_match_days_back", "14", "Days back for the background matching scan"},
	{"generate_match_threshold", "0.3", "Similarity threshold for manual match generation (0.0-1.0)"},
	{"print_match_threshold", "0.4", "Similarity threshold for printing match receipts (0.0-1.0)"},
	{"auto_print_lost_receipt", "true", "Print a receipt when a lost item is reported (true/false)"},
	{"auto_print_found_receipt", "true", "Print a receipt when a found item is handed in (true/false)"},
	{"email_notifications_enabled", "true", "Send match notification emails (true/false)"},
	{"max_image_size_mb", "5", "Maximum photo upload size in MB"},
	{"acknowledgment_email_subject", "Lost Item Report Confirmation - Parklands Sports Club",
		"Subject line for lost item acknowledgment emails"},
	{"acknowledgment_email_template", "Hello {owner_name},\n\n" +
		"Thank you for reporting your lost item at Parklands Sports Club.\n" +
		"Your report has been received and is being processed.\n\n" +
		"Tracking ID: {tracking_id}\n\n" +
		"Report Details:\n" +
		"- Item Name: {item_name}\n" +
		"- Description: {description}\n" +
		"- Place Lost: {place_lost}\n" +
		"- Reporter Member ID: {reporter_member_id}\n" +
		"- Reporter Phone: {reporter_phone}\n" +
		"- Reporter Email: {reporter_email}\n\n" +
		"Please keep this ID safe for future reference.\n" +
		"If you find a match, please visit the club reception.\n\n" +
		"Best regards,\nParklands Sports Club",
		"Template for lost item acknowledgment emails (supports placeholders)"},
	{"match_notification_email_subject", "Potential Match Found - Parklands Sports Club",
		"Subject line for match notification emails"},
	{"match_notification_email_template", "Hello {owner_name},\n\n" +
		"We have found {match_count} potential match(es) for your lost item (Tracking ID: {tracking_id}).\n\n" +
		"{match_details}\n" +
		"Please visit the club reception to review matches.\n\n" +
		"Best regards,\nParklands Sports Club",
		"Template for match notification emails (supports placeholders)"},
	{"max_auto_emails_per_day", "50", "Maximum auto-sent emails per day"},
	{"max_auto_emails_per_item", "3", "Maximum auto-sent emails per lost item"},
}

// EnsureDefaultSettings creates every default setting that does not exist
// yet. Existing values are never overwritten, so operator tuning survives
// restarts.
func EnsureDefaultSettings(ctx context.Context, db *sql.DB) error {
	for _, s := range defaultSettings {
		_, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO settings (key, value, description) VALUES (?, ?, ?)`,
			s.Key, s.Value, s.Description,
		)
		if err != nil {
			return fmt.Errorf("creating default setting %q: %w", s.Key, err)
		}
	}
	return nil
}

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('jwt_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'jwt_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}

	return secret, nil
}
