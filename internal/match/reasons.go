package match

import (
	"fmt"

	"github.com/psc-ict/frontdesk/internal/model"
)

// Presentation thresholds for reasons, independent of scoring weights.
const (
	reasonNameThreshold     = 0.7
	reasonDescThreshold     = 0.6
	reasonLocationThreshold = 0.7
	reasonCardSimilar       = 0.5
)

// Reasons explains a (lost, found) pairing in staff-readable terms. The
// same similarity computations as the scorer, but with its own display
// thresholds. An empty list is a valid result for weak pairings.
func Reasons(lost *model.LostItem, found *model.FoundItem) []string {
	if lost.Type != found.Type {
		return []string{"different types, no valid match"}
	}

	reasons := []string{fmt.Sprintf("matching type: %s", lost.Type)}

	if lost.Type == model.ItemTypeCard {
		switch {
		case normalizeCard(lost.CardLastFour) == normalizeCard(found.CardLastFour):
			reasons = append(reasons, "exact card number match")
		case Ratio(lost.CardLastFour, found.CardLastFour) > reasonCardSimilar:
			reasons = append(reasons, "similar card numbers")
		default:
			reasons = append(reasons, "different card numbers")
		}
	} else {
		if r := Ratio(lost.ItemName, found.ItemName); r > reasonNameThreshold {
			reasons = append(reasons, fmt.Sprintf("similar item names (%.0f%%)", r*100))
		}
		if r := Ratio(lost.Description, found.Description); r > reasonDescThreshold {
			reasons = append(reasons, fmt.Sprintf("similar descriptions (%.0f%%)", r*100))
		}
		if r := Ratio(lost.PlaceLost, found.PlaceFound); r > reasonLocationThreshold {
			reasons = append(reasons, fmt.Sprintf("similar locations (%.0f%%)", r*100))
		}
	}

	diff := lost.DateReported.Sub(found.DateReported)
	if diff < 0 {
		diff = -diff
	}
	if hours := int(diff.Hours()); hours < 24 {
		reasons = append(reasons, fmt.Sprintf("reported within %d hour(s) of each other", hours))
	}

	return reasons
}
