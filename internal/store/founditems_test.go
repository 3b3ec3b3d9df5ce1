package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/psc-ict/frontdesk/internal/db"
	"github.com/psc-ict/frontdesk/internal/model"
)

func TestCreateAndGetFoundItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, err := CreateFoundItem(ctx, database, &model.FoundItem{
		Type:        model.ItemTypeItem,
		ItemName:    "umbrella",
		Description: "blue umbrella",
		PlaceFound:  "lobby",
		FinderName:  "Grace Njeri",
		FinderPhone: "0700111222",
	})
	if err != nil {
		t.Fatalf("CreateFoundItem: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created item must have an ID")
	}
	if created.Status != model.ItemStatusFound {
		t.Errorf("handed-in items start as found, got %q", created.Status)
	}

	got, err := GetFoundItem(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetFoundItem: %v", err)
	}
	if got.ItemName != "umbrella" || got.FinderName != "Grace Njeri" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestPickFoundItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateFoundItem(ctx, database, &model.FoundItem{
		Type: model.ItemTypeItem, ItemName: "watch",
	})
	if err != nil {
		t.Fatalf("CreateFoundItem: %v", err)
	}

	pickup, err := PickFoundItem(ctx, database, item.ID, "Peter Kamau", "M456", "0722333444", nil)
	if err != nil {
		t.Fatalf("PickFoundItem: %v", err)
	}
	if pickup == nil || pickup.FoundItemID != item.ID || pickup.PickedByName != "Peter Kamau" {
		t.Errorf("unexpected pickup log: %+v", pickup)
	}

	got, err := GetFoundItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetFoundItem: %v", err)
	}
	if got.Status != model.ItemStatusClaimed {
		t.Errorf("picked item must be claimed, got %q", got.Status)
	}
}

func TestPickFoundItemTwice(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateFoundItem(ctx, database, &model.FoundItem{
		Type: model.ItemTypeItem, ItemName: "watch",
	})
	if err != nil {
		t.Fatalf("CreateFoundItem: %v", err)
	}

	if _, err := PickFoundItem(ctx, database, item.ID, "First", "M1", "0700000001", nil); err != nil {
		t.Fatalf("first pick: %v", err)
	}
	if _, err := PickFoundItem(ctx, database, item.ID, "Second", "M2", "0700000002", nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("second pick must fail with ErrConflict, got %v", err)
	}

	logs, err := ListPickupLogs(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("ListPickupLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("a failed pick must write no log, got %d logs", len(logs))
	}
}

func TestFoundItemPhotoRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateFoundItem(ctx, database, &model.FoundItem{
		Type: model.ItemTypeItem, ItemName: "camera",
	})
	if err != nil {
		t.Fatalf("CreateFoundItem: %v", err)
	}

	photo, mime, err := GetFoundItemPhoto(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetFoundItemPhoto: %v", err)
	}
	if photo != nil || mime != "" {
		t.Error("new items carry no photo")
	}

	data := []byte{0xff, 0xd8, 0xff, 0xe0}
	if err := SetFoundItemPhoto(ctx, database, item.ID, data, "image/jpeg"); err != nil {
		t.Fatalf("SetFoundItemPhoto: %v", err)
	}

	photo, mime, err = GetFoundItemPhoto(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetFoundItemPhoto: %v", err)
	}
	if !bytes.Equal(photo, data) || mime != "image/jpeg" {
		t.Errorf("photo round trip mismatch: %d bytes, mime %q", len(photo), mime)
	}

	got, err := GetFoundItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetFoundItem: %v", err)
	}
	if got.PhotoMime != "image/jpeg" {
		t.Errorf("listing must expose the photo MIME, got %q", got.PhotoMime)
	}
}
