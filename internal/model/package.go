package model

import "time"

// Package types.
const (
	PackageTypePackage  = "package"
	PackageTypeDocument = "document"
	PackageTypeKeys     = "keys"
)

// Package statuses.
const (
	PackageStatusPending = "pending"
	PackageStatusPicked  = "picked"
)

// Package represents a drop-off held at the front desk until pickup.
// Shelf is set only while the package is pending and is never assigned
// for the keys type.
type Package struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	Description    string     `json:"description"`
	RecipientName  string     `json:"recipient_name"`
	RecipientPhone string     `json:"recipient_phone"`
	DroppedBy      string     `json:"dropped_by"`
	DropperPhone   string     `json:"dropper_phone"`
	PickedBy       string     `json:"picked_by,omitempty"`
	PickerPhone    string     `json:"picker_phone,omitempty"`
	PickerID       string     `json:"picker_id,omitempty"`
	Shelf          string     `json:"shelf,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	PickedAt       *time.Time `json:"picked_at,omitempty"`
}

// PackageStats summarizes package counts for the dashboard.
type PackageStats struct {
	Pending         int `json:"pending"`
	Picked          int `json:"picked"`
	Total           int `json:"total"`
	ShelvesOccupied int `json:"shelves_occupied"`
}
