package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError reports a malformed input field. It is returned before
// any state mutation so callers can surface field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// cardPattern is one letter, exactly four digits, and an optional
// trailing letter (e.g. "A1234" or "A1234B").
var cardPattern = regexp.MustCompile(`^[A-Za-z][0-9]{4}[A-Za-z]?$`)

// ValidateLostItem checks a lost-item report before creation.
func ValidateLostItem(itemType, cardLastFour, phone, memberID string) error {
	if err := validateItemCommon(itemType, cardLastFour); err != nil {
		return err
	}
	if err := validatePhone("reporter_phone", phone); err != nil {
		return err
	}
	return validateMemberID("reporter_member_id", memberID)
}

// ValidateFoundItem checks a found-item intake before creation.
func ValidateFoundItem(itemType, cardLastFour, finderPhone string) error {
	if err := validateItemCommon(itemType, cardLastFour); err != nil {
		return err
	}
	return validatePhone("finder_phone", finderPhone)
}

func validateItemCommon(itemType, cardLastFour string) error {
	switch itemType {
	case ItemTypeCard:
		if strings.TrimSpace(cardLastFour) == "" {
			return &ValidationError{Field: "card_last_four", Message: "required for card type"}
		}
		if !cardPattern.MatchString(strings.TrimSpace(cardLastFour)) {
			return &ValidationError{Field: "card_last_four", Message: "must be a letter, four digits, and an optional trailing letter"}
		}
	case ItemTypeItem:
		// No discriminator field required.
	default:
		return &ValidationError{Field: "type", Message: "must be 'card' or 'item'"}
	}
	return nil
}

// ValidatePassword enforces the minimum password policy for staff accounts.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}
	return nil
}

func validatePhone(field, phone string) error {
	if phone != "" && len(phone) > 20 {
		return &ValidationError{Field: field, Message: "must be at most 20 characters"}
	}
	return nil
}

func validateMemberID(field, memberID string) error {
	if memberID != "" && len(memberID) > 20 {
		return &ValidationError{Field: field, Message: "must be at most 20 characters"}
	}
	return nil
}
