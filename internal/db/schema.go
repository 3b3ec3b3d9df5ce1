package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'staff' CHECK (role IN ('admin', 'reception', 'staff')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    description TEXT
);

CREATE TABLE IF NOT EXISTS lost_items (
    id                 INTEGER PRIMARY KEY,
    tracking_id        TEXT NOT NULL UNIQUE,
    type               TEXT NOT NULL CHECK (type IN ('card', 'item')),
    status             TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'found', 'claimed')),
    owner_name         TEXT,
    item_name          TEXT,
    description        TEXT,
    card_last_four     TEXT,
    place_lost         TEXT,
    reporter_phone     TEXT,
    reporter_email     TEXT,
    reporter_member_id TEXT,
    reported_by        INTEGER REFERENCES users(id),
    date_reported      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_updated       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS found_items (
    id             INTEGER PRIMARY KEY,
    type           TEXT NOT NULL CHECK (type IN ('card', 'item')),
    status         TEXT NOT NULL DEFAULT 'found' CHECK (status IN ('pending', 'found', 'claimed')),
    owner_name     TEXT,
    item_name      TEXT,
    description    TEXT,
    card_last_four TEXT,
    place_found    TEXT,
    finder_name    TEXT,
    finder_phone   TEXT,
    photo          BLOB,
    photo_mime     TEXT,
    reported_by    INTEGER REFERENCES users(id),
    date_reported  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_updated   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pickup_logs (
    id                  INTEGER PRIMARY KEY,
    found_item_id       INTEGER NOT NULL REFERENCES found_items(id),
    picked_by_name      TEXT NOT NULL,
    picked_by_member_id TEXT NOT NULL,
    picked_by_phone     TEXT NOT NULL,
    pickup_date         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    verified_by         INTEGER REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS packages (
    id              INTEGER PRIMARY KEY,
    code            TEXT NOT NULL UNIQUE,
    type            TEXT NOT NULL DEFAULT 'package' CHECK (type IN ('package', 'document', 'keys')),
    status          TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'picked')),
    description     TEXT NOT NULL,
    recipient_name  TEXT NOT NULL,
    recipient_phone TEXT NOT NULL,
    dropped_by      TEXT NOT NULL,
    dropper_phone   TEXT NOT NULL,
    picked_by       TEXT,
    picker_phone    TEXT,
    picker_id       TEXT,
    shelf           TEXT,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    picked_at       DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_packages_shelf_pending
    ON packages(shelf) WHERE status = 'pending' AND shelf IS NOT NULL;

CREATE TABLE IF NOT EXISTS security_keys (
    id                   INTEGER PRIMARY KEY,
    key_id               TEXT NOT NULL UNIQUE,
    location             TEXT NOT NULL,
    key_type             TEXT NOT NULL DEFAULT 'Access' CHECK (key_type IN ('Master', 'Access', 'Other')),
    status               TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'checked-out', 'lost')),
    current_holder_name  TEXT,
    current_holder_type  TEXT,
    current_holder_phone TEXT,
    checkout_time        DATETIME,
    return_time          DATETIME
);

CREATE TABLE IF NOT EXISTS key_history (
    id           INTEGER PRIMARY KEY,
    key_id       INTEGER NOT NULL REFERENCES security_keys(id),
    action       TEXT NOT NULL CHECK (action IN ('checkout', 'return')),
    holder_name  TEXT NOT NULL,
    holder_type  TEXT NOT NULL,
    holder_phone TEXT,
    notes        TEXT,
    user_id      INTEGER REFERENCES users(id),
    timestamp    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS email_log (
    id           INTEGER PRIMARY KEY,
    recipient    TEXT NOT NULL,
    template_key TEXT NOT NULL,
    lost_item_id INTEGER REFERENCES lost_items(id) ON DELETE SET NULL,
    sent_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
