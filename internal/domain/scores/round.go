// Package scores holds the in-memory score table for a competition and the
// adapter between the store's flat score list and the nested table.
package scores

import "math"

// Round2 rounds v to two decimal places. Round2(Round2(v)) == Round2(v).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// validValue reports whether v may be stored as a score.
func validValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
