package model

import "time"

// Security key statuses. Lost is terminal and set manually.
const (
	KeyStatusAvailable  = "available"
	KeyStatusCheckedOut = "checked-out"
	KeyStatusLost       = "lost"
)

// Key holder types.
const (
	HolderTypeStaff      = "staff"
	HolderTypeMember     = "member"
	HolderTypeContractor = "contractor"
	HolderTypeVisitor    = "visitor"
)

// Key types.
const (
	KeyTypeMaster = "Master"
	KeyTypeAccess = "Access"
	KeyTypeOther  = "Other"
)

// SecurityKey represents a physical key tracked at the front desk.
// Holder fields reflect current state only; KeyHistory is the audit trail.
type SecurityKey struct {
	ID                 int64      `json:"id"`
	KeyID              string     `json:"key_id"`
	Location           string     `json:"location"`
	KeyType            string     `json:"key_type"`
	Status             string     `json:"status"`
	CurrentHolderName  string     `json:"current_holder_name,omitempty"`
	CurrentHolderType  string     `json:"current_holder_type,omitempty"`
	CurrentHolderPhone string     `json:"current_holder_phone,omitempty"`
	CheckoutTime       *time.Time `json:"checkout_time,omitempty"`
	ReturnTime         *time.Time `json:"return_time,omitempty"`
}

// Key history actions.
const (
	KeyActionCheckout = "checkout"
	KeyActionReturn   = "return"
)

// KeyHistory is an append-only record of a checkout or return, capturing
// the holder snapshot at the time of the action.
type KeyHistory struct {
	ID          int64     `json:"id"`
	KeyID       int64     `json:"key_id"`
	Action      string    `json:"action"`
	HolderName  string    `json:"holder_name"`
	HolderType  string    `json:"holder_type"`
	HolderPhone string    `json:"holder_phone,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	User        *int64    `json:"user,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ValidHolderType reports whether t is a known holder type.
func ValidHolderType(t string) bool {
	switch t {
	case HolderTypeStaff, HolderTypeMember, HolderTypeContractor, HolderTypeVisitor:
		return true
	}
	return false
}

// ValidKeyType reports whether t is a known key type.
func ValidKeyType(t string) bool {
	switch t {
	case KeyTypeMaster, KeyTypeAccess, KeyTypeOther:
		return true
	}
	return false
}
