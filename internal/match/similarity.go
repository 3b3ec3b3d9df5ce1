package match

import (
	"strings"
	"time"
)

// timeWindow is the span over which time proximity decays to zero.
const timeWindow = 14 * 24 * time.Hour

// Ratio computes a Ratcliff/Obershelp similarity between two strings:
// twice the number of matching characters divided by the total length,
// where matches are found by recursively splitting around the longest
// common substring. Comparison is case-insensitive and trimmed.
// Two empty strings score 0, not 1.
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

func matchingChars(a, b []rune) int {
	ai, bi, size := longestCommon(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

// longestCommon returns the start indices and length of the longest
// common substring of a and b.
func longestCommon(a, b []rune) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := range a {
		for j := range b {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > bestSize {
					bestSize = cur[j+1]
					bestA = i - bestSize + 1
					bestB = j - bestSize + 1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestA, bestB, bestSize
}

// TimeProximity scores how close two timestamps are: 1.0 for identical,
// decaying linearly to 0 over the 14-day window.
func TimeProximity(a, b time.Time) float64 {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	score := 1 - float64(diff)/float64(timeWindow)
	if score < 0 {
		return 0
	}
	return score
}
