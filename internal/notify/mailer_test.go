package notify

import (
	"context"
	"log/slog"
	"testing"

	"github.com/psc-ict/frontdesk/internal/db"
)

func TestExpand(t *testing.T) {
	template := "Hello {owner_name}, your tracking ID is {tracking_id}."
	got := Expand(template, map[string]string{
		"owner_name":  "Jane",
		"tracking_id": "LI-ABCD1234",
	})
	want := "Hello Jane, your tracking ID is LI-ABCD1234."
	if got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
}

func TestExpandUnknownPlaceholderLeftIntact(t *testing.T) {
	got := Expand("Hi {name}, see {unknown}.", map[string]string{"name": "Bob"})
	if got != "Hi Bob, see {unknown}." {
		t.Errorf("unknown placeholders must survive, got %q", got)
	}
}

func TestExpandEmptySubs(t *testing.T) {
	if got := Expand("plain text", nil); got != "plain text" {
		t.Errorf("Expand without subs must be a no-op, got %q", got)
	}
}

func TestSendWithoutRelay(t *testing.T) {
	database := db.NewTestDB(t)
	m := NewMailer(database, "", "frontdesk@example.com", slog.Default())

	sent, reason := m.Send(context.Background(), "member@example.com", "match_notification_email_template", nil)
	if sent {
		t.Error("sending must fail without a relay address")
	}
	if reason == "" {
		t.Error("skip must carry a reason")
	}
}

func TestSendMissingTemplate(t *testing.T) {
	database := db.NewTestDB(t)
	m := NewMailer(database, "localhost:2525", "frontdesk@example.com", slog.Default())

	sent, reason := m.Send(context.Background(), "member@example.com", "nonexistent_template", nil)
	if sent {
		t.Error("sending must fail without a stored template")
	}
	if reason == "" {
		t.Error("failure must carry a reason")
	}
}
