package model

import "time"

// Item types shared by lost and found reports.
const (
	ItemTypeCard = "card"
	ItemTypeItem = "item"
)

// Lost/found item statuses.
const (
	ItemStatusPending = "pending"
	ItemStatusFound   = "found"
	ItemStatusClaimed = "claimed"
)

// LostItem represents a lost-item report taken at the front desk.
type LostItem struct {
	ID               int64     `json:"id"`
	TrackingID       string    `json:"tracking_id"`
	Type             string    `json:"type"`
	Status           string    `json:"status"`
	OwnerName        string    `json:"owner_name,omitempty"`
	ItemName         string    `json:"item_name,omitempty"`
	Description      string    `json:"description,omitempty"`
	CardLastFour     string    `json:"card_last_four,omitempty"`
	PlaceLost        string    `json:"place_lost,omitempty"`
	ReporterPhone    string    `json:"reporter_phone,omitempty"`
	ReporterEmail    string    `json:"reporter_email,omitempty"`
	ReporterMemberID string    `json:"reporter_member_id,omitempty"`
	ReportedBy       *int64    `json:"reported_by,omitempty"`
	DateReported     time.Time `json:"date_reported"`
	LastUpdated      time.Time `json:"last_updated"`
}

// FoundItem represents an item handed in at the front desk.
type FoundItem struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	OwnerName    string    `json:"owner_name,omitempty"`
	ItemName     string    `json:"item_name,omitempty"`
	Description  string    `json:"description,omitempty"`
	CardLastFour string    `json:"card_last_four,omitempty"`
	PlaceFound   string    `json:"place_found,omitempty"`
	FinderName   string    `json:"finder_name,omitempty"`
	FinderPhone  string    `json:"finder_phone,omitempty"`
	PhotoMime    string    `json:"photo_mime,omitempty"`
	ReportedBy   *int64    `json:"reported_by,omitempty"`
	DateReported time.Time `json:"date_reported"`
	LastUpdated  time.Time `json:"last_updated"`
}

// PickupLog records who claimed a found item. Immutable once written.
type PickupLog struct {
	ID               int64     `json:"id"`
	FoundItemID      int64     `json:"found_item_id"`
	PickedByName     string    `json:"picked_by_name"`
	PickedByMemberID string    `json:"picked_by_member_id"`
	PickedByPhone    string    `json:"picked_by_phone"`
	PickupDate       time.Time `json:"pickup_date"`
	VerifiedBy       *int64    `json:"verified_by,omitempty"`
}

// MatchResult pairs a lost item with a found item. Computed on demand,
// never persisted.
type MatchResult struct {
	LostItem  *LostItem  `json:"lost_item"`
	FoundItem *FoundItem `json:"found_item"`
	Score     float64    `json:"match_score"`
	Reasons   []string   `json:"match_reasons"`
}
