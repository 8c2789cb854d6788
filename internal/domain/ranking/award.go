package ranking

// CriterionAverages returns each contestant's mean score on one criterion
// over the judges who scored it; 0 when nobody did.
func CriterionAverages(table Table, segment, criterion string, contestants, judges []string) map[string]float64 {
	out := make(map[string]float64, len(contestants))
	for _, cont := range contestants {
		var vals []float64
		for _, j := range judges {
			if v, ok := table.CriterionScores(segment, cont, j)[criterion]; ok {
				vals = append(vals, v)
			}
		}
		out[cont] = mean(vals)
	}
	return out
}

// Award scores contestants on a single criterion and ranks them with
// FractionalRanks.
func Award(table Table, segment, criterion string, contestants, judges []string) (map[string]float64, map[string]float64) {
	avgs := CriterionAverages(table, segment, criterion, contestants, judges)
	return avgs, FractionalRanks(avgs)
}
