package store

import (
	"context"
	"testing"

	"github.com/psc-ict/frontdesk/internal/db"
)

func TestGetSettingDefault(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	value, err := GetSetting(ctx, database, "no_such_key", "fallback")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "fallback" {
		t.Errorf("expected fallback, got %q", value)
	}
}

func TestSetSettingOverwrites(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := SetSetting(ctx, database, "greeting", "hello", "test key"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := SetSetting(ctx, database, "greeting", "goodbye", "test key"); err != nil {
		t.Fatalf("SetSetting again: %v", err)
	}

	value, err := GetSetting(ctx, database, "greeting", "")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "goodbye" {
		t.Errorf("expected goodbye, got %q", value)
	}
}

func TestTypedSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := SetSetting(ctx, database, "threshold", "0.42", ""); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := SetSetting(ctx, database, "days", "7", ""); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := SetSetting(ctx, database, "enabled", "false", ""); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := SetSetting(ctx, database, "garbage", "not a number", ""); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	if v := SettingFloat(ctx, database, "threshold", 0.1); v != 0.42 {
		t.Errorf("SettingFloat = %f, want 0.42", v)
	}
	if v := SettingInt(ctx, database, "days", 14); v != 7 {
		t.Errorf("SettingInt = %d, want 7", v)
	}
	if v := SettingBool(ctx, database, "enabled", true); v {
		t.Error("SettingBool must honor a stored false")
	}
	if v := SettingFloat(ctx, database, "garbage", 0.5); v != 0.5 {
		t.Errorf("unparseable value must fall back to default, got %f", v)
	}
	if v := SettingInt(ctx, database, "missing", 3); v != 3 {
		t.Errorf("missing key must fall back to default, got %d", v)
	}
}

func TestEnsureDefaultSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := EnsureDefaultSettings(ctx, database); err != nil {
		t.Fatalf("EnsureDefaultSettings: %v", err)
	}

	if v := SettingFloat(ctx, database, "lost_match_threshold", 0); v != 0.4 {
		t.Errorf("default lost_match_threshold = %f, want 0.4", v)
	}

	// Operator tuning must survive a second run.
	if err := SetSetting(ctx, database, "lost_match_threshold", "0.9", ""); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := EnsureDefaultSettings(ctx, database); err != nil {
		t.Fatalf("EnsureDefaultSettings again: %v", err)
	}
	if v := SettingFloat(ctx, database, "lost_match_threshold", 0); v != 0.9 {
		t.Errorf("tuned value overwritten, got %f", v)
	}
}

func TestListSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := SetSetting(ctx, database, "b_key", "2", "second"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := SetSetting(ctx, database, "a_key", "1", "first"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	settings, err := ListSettings(ctx, database)
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	if len(settings) != 2 || settings[0].Key != "a_key" || settings[1].Key != "b_key" {
		t.Errorf("settings must be ordered by key: %+v", settings)
	}
}

func TestGetJWTSecretStable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("expected a 64-character hex secret, got %d characters", len(first))
	}

	second, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret again: %v", err)
	}
	if first != second {
		t.Error("secret must be generated once and reused")
	}
}
