package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/psc-ict/frontdesk/internal/db"
	"github.com/psc-ict/frontdesk/internal/model"
)

func TestNewTrackingIDFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTrackingID()
		if !strings.HasPrefix(id, "LI-") || len(id) != 11 {
			t.Fatalf("unexpected tracking ID %q", id)
		}
		if id[3:] != strings.ToUpper(id[3:]) {
			t.Fatalf("tracking ID suffix must be upper case: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate tracking ID %q", id)
		}
		seen[id] = true
	}
}

func TestCreateAndGetLostItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	created, err := CreateLostItem(ctx, database, &model.LostItem{
		Type:             model.ItemTypeItem,
		OwnerName:        "Jane Wanjiku",
		ItemName:         "black wallet",
		Description:      "leather wallet",
		PlaceLost:        "gym lobby",
		ReporterPhone:    "0712345678",
		ReporterEmail:    "jane@example.com",
		ReporterMemberID: "M123",
	})
	if err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}
	if created.ID == 0 || created.TrackingID == "" {
		t.Fatal("created item must have an ID and tracking ID")
	}
	if created.Status != model.ItemStatusPending {
		t.Errorf("new reports start pending, got %q", created.Status)
	}

	byID, err := GetLostItem(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetLostItem: %v", err)
	}
	if byID.ItemName != "black wallet" || byID.OwnerName != "Jane Wanjiku" {
		t.Errorf("round trip mismatch: %+v", byID)
	}

	byTracking, err := GetLostItemByTrackingID(ctx, database, created.TrackingID)
	if err != nil {
		t.Fatalf("GetLostItemByTrackingID: %v", err)
	}
	if byTracking == nil || byTracking.ID != created.ID {
		t.Error("lookup by tracking ID must return the same item")
	}
}

func TestGetLostItemMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := GetLostItem(ctx, database, 9999)
	if err != nil {
		t.Fatalf("GetLostItem: %v", err)
	}
	if item != nil {
		t.Error("missing item must return nil, nil")
	}

	item, err = GetLostItemByTrackingID(ctx, database, "LI-NOPE0000")
	if err != nil {
		t.Fatalf("GetLostItemByTrackingID: %v", err)
	}
	if item != nil {
		t.Error("missing tracking ID must return nil, nil")
	}
}

func TestListLostItemsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	wallet, err := CreateLostItem(ctx, database, &model.LostItem{
		Type: model.ItemTypeItem, ItemName: "wallet", PlaceLost: "lobby",
	})
	if err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}
	if _, err := CreateLostItem(ctx, database, &model.LostItem{
		Type: model.ItemTypeCard, CardLastFour: "K123D",
	}); err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}

	all, err := ListLostItems(ctx, database, "", "", time.Time{})
	if err != nil {
		t.Fatalf("ListLostItems: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}

	bySearch, err := ListLostItems(ctx, database, "", "wallet", time.Time{})
	if err != nil {
		t.Fatalf("ListLostItems search: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].ID != wallet.ID {
		t.Errorf("search must match only the wallet, got %d items", len(bySearch))
	}

	byTracking, err := ListLostItems(ctx, database, "", wallet.TrackingID, time.Time{})
	if err != nil {
		t.Fatalf("ListLostItems by tracking: %v", err)
	}
	if len(byTracking) != 1 {
		t.Errorf("search must cover tracking IDs, got %d items", len(byTracking))
	}

	windowed, err := ListLostItems(ctx, database, "", "", time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListLostItems windowed: %v", err)
	}
	if len(windowed) != 0 {
		t.Errorf("future cutoff must exclude everything, got %d items", len(windowed))
	}
}

func TestUpdateLostItemStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateLostItem(ctx, database, &model.LostItem{
		Type: model.ItemTypeItem, ItemName: "umbrella",
	})
	if err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}

	if err := UpdateLostItemStatus(ctx, database, item.ID, model.ItemStatusClaimed); err != nil {
		t.Fatalf("UpdateLostItemStatus: %v", err)
	}

	got, err := GetLostItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetLostItem: %v", err)
	}
	if got.Status != model.ItemStatusClaimed {
		t.Errorf("expected claimed, got %q", got.Status)
	}
}

func TestMarkLostItemFound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lost, err := CreateLostItem(ctx, database, &model.LostItem{
		Type:        model.ItemTypeItem,
		OwnerName:   "John Otieno",
		ItemName:    "headphones",
		Description: "wireless headphones",
		PlaceLost:   "squash court",
	})
	if err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}

	found, err := MarkLostItemFound(ctx, database, lost.ID, "Security Desk")
	if err != nil {
		t.Fatalf("MarkLostItemFound: %v", err)
	}
	if found == nil {
		t.Fatal("expected a found item")
	}
	if found.ItemName != "headphones" || found.PlaceFound != "squash court" || found.FinderName != "Security Desk" {
		t.Errorf("found item fields not carried over: %+v", found)
	}
	if found.Status != model.ItemStatusFound {
		t.Errorf("converted item must be available for pickup, got %q", found.Status)
	}

	gone, err := GetLostItem(ctx, database, lost.ID)
	if err != nil {
		t.Fatalf("GetLostItem: %v", err)
	}
	if gone != nil {
		t.Error("lost report must be removed after conversion")
	}
}

func TestMarkLostItemFoundMissing(t *testing.T) {
	database := db.NewTestDB(t)

	found, err := MarkLostItemFound(context.Background(), database, 424242, "Desk")
	if err != nil {
		t.Fatalf("MarkLostItemFound: %v", err)
	}
	if found != nil {
		t.Error("missing lost item must return nil, nil")
	}
}

func TestGetLostItemStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateLostItem(ctx, database, &model.LostItem{Type: model.ItemTypeItem, ItemName: "a"}); err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}
	claimed, err := CreateLostItem(ctx, database, &model.LostItem{Type: model.ItemTypeItem, ItemName: "b"})
	if err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}
	if err := UpdateLostItemStatus(ctx, database, claimed.ID, model.ItemStatusClaimed); err != nil {
		t.Fatalf("UpdateLostItemStatus: %v", err)
	}
	if _, err := CreateFoundItem(ctx, database, &model.FoundItem{Type: model.ItemTypeItem, ItemName: "c"}); err != nil {
		t.Fatalf("CreateFoundItem: %v", err)
	}

	stats, err := GetLostItemStats(ctx, database)
	if err != nil {
		t.Fatalf("GetLostItemStats: %v", err)
	}
	if stats.LostCount != 2 || stats.FoundCount != 1 || stats.PendingCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
