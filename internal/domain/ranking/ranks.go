// Package ranking turns per-judge scores into final scores and ranks.
package ranking

import "sort"

// Order returns contestant ids best first. Equal scores are ordered by id.
func Order(scores map[string]float64, lowerIsBetter bool) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := scores[ids[i]], scores[ids[j]]
		if a != b {
			if lowerIsBetter {
				return a < b
			}
			return a > b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// CompetitionRanks applies standard competition ranking: equal scores share
// a rank and the next distinct score skips ahead by the size of the tie, so
// {A:10, B:10, C:8} ranks {A:1, B:1, C:3}.
func CompetitionRanks(scores map[string]float64, lowerIsBetter bool) map[string]int {
	order := Order(scores, lowerIsBetter)
	ranks := make(map[string]int, len(order))
	prevRank, tied := 0, 0
	for i, id := range order {
		if i > 0 && scores[id] == scores[order[i-1]] {
			ranks[id] = prevRank
			tied++
			continue
		}
		prevRank += tied
		if i == 0 {
			prevRank = 1
		}
		ranks[id] = prevRank
		tied = 1
	}
	return ranks
}

// FractionalRanks ranks higher scores first and gives tied scores the mean
// of the positions they occupy, so {A:10, B:10, C:8} ranks {A:1.5, B:1.5, C:3}.
// It is used for minor awards only.
func FractionalRanks(scores map[string]float64) map[string]float64 {
	order := Order(scores, false)
	ranks := make(map[string]float64, len(order))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && scores[order[j+1]] == scores[order[i]] {
			j++
		}
		// positions i+1 .. j+1
		avg := float64(i+1+j+1) / 2
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
