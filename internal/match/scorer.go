package match

import (
	"strings"

	"github.com/psc-ict/frontdesk/internal/model"
)

// Signal weights for the general item path.
const (
	weightType     = 0.3
	weightName     = 0.25
	weightDesc     = 0.2
	weightLocation = 0.15
	weightTime     = 0.1

	// Flat contributions when a field is present on only one side.
	partialName     = 0.1
	partialDesc     = 0.05
	partialLocation = 0.05
)

func normalizeCard(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Score computes the similarity between a lost and a found item.
//
// Items of different types never match. Cards match on the card number
// alone: exact equality after normalization scores 1.0, anything else 0.
// General items get a weighted blend of name, description, location, and
// time proximity, normalized by the weights actually counted so that
// sparsely described items are not penalized for fields absent on both
// sides. A field present on only one side contributes a small flat
// amount against its full weight.
func Score(lost *model.LostItem, found *model.FoundItem) float64 {
	if lost.Type != found.Type {
		return 0
	}

	if lost.Type == model.ItemTypeCard {
		if normalizeCard(lost.CardLastFour) == normalizeCard(found.CardLastFour) {
			return 1.0
		}
		return 0
	}

	sum := weightType
	counted := weightType

	switch {
	case present(lost.ItemName) && present(found.ItemName):
		sum += Ratio(lost.ItemName, found.ItemName) * weightName
		counted += weightName
	case present(lost.ItemName) || present(found.ItemName):
		sum += partialName
		counted += weightName
	}

	switch {
	case present(lost.Description) && present(found.Description):
		sum += Ratio(lost.Description, found.Description) * weightDesc
		counted += weightDesc
	case present(lost.Description) || present(found.Description):
		sum += partialDesc
		counted += weightDesc
	}

	switch {
	case present(lost.PlaceLost) && present(found.PlaceFound):
		sum += Ratio(lost.PlaceLost, found.PlaceFound) * weightLocation
		counted += weightLocation
	case present(lost.PlaceLost) || present(found.PlaceFound):
		sum += partialLocation
		counted += weightLocation
	}

	sum += TimeProximity(lost.DateReported, found.DateReported) * weightTime
	counted += weightTime

	score := sum / counted
	if score > 1.0 {
		return 1.0
	}
	return score
}
