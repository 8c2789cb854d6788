package scores

import (
	"sort"

	"github.com/okian/podium/internal/domain/model"
)

// Nested is segment -> contestant -> judge -> criterion -> value.
// A Nested value is not safe for concurrent mutation; Aggregate guards one.
type Nested map[string]map[string]map[string]map[string]float64

// Nest builds a Nested table from a flat list, rounding every value.
// Later entries for the same tuple overwrite earlier ones.
func Nest(list []model.Score) Nested {
	n := make(Nested)
	for _, s := range list {
		if !s.Valid() || !validValue(s.Value) {
			continue
		}
		n.set(s.ScoreKey, Round2(s.Value))
	}
	return n
}

// Flatten returns the table as a flat list sorted by tuple, rounding every value.
func Flatten(n Nested) []model.Score {
	out := make([]model.Score, 0)
	for seg, contestants := range n {
		for cont, judges := range contestants {
			for judge, criteria := range judges {
				for crit, v := range criteria {
					out = append(out, model.Score{
						ScoreKey: model.ScoreKey{Segment: seg, Contestant: cont, Judge: judge, Criterion: crit},
						Value:    Round2(v),
					})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].ScoreKey, out[j].ScoreKey) })
	return out
}

func keyLess(a, b model.ScoreKey) bool {
	if a.Segment != b.Segment {
		return a.Segment < b.Segment
	}
	if a.Contestant != b.Contestant {
		return a.Contestant < b.Contestant
	}
	if a.Judge != b.Judge {
		return a.Judge < b.Judge
	}
	return a.Criterion < b.Criterion
}

func (n Nested) set(k model.ScoreKey, v float64) {
	contestants, ok := n[k.Segment]
	if !ok {
		contestants = make(map[string]map[string]map[string]float64)
		n[k.Segment] = contestants
	}
	judges, ok := contestants[k.Contestant]
	if !ok {
		judges = make(map[string]map[string]float64)
		contestants[k.Contestant] = judges
	}
	criteria, ok := judges[k.Judge]
	if !ok {
		criteria = make(map[string]float64)
		judges[k.Judge] = criteria
	}
	criteria[k.Criterion] = v
}

// remove deletes a tuple and prunes empty judge, contestant and segment maps.
func (n Nested) remove(k model.ScoreKey) bool {
	contestants, ok := n[k.Segment]
	if !ok {
		return false
	}
	judges, ok := contestants[k.Contestant]
	if !ok {
		return false
	}
	criteria, ok := judges[k.Judge]
	if !ok {
		return false
	}
	if _, ok := criteria[k.Criterion]; !ok {
		return false
	}
	delete(criteria, k.Criterion)
	if len(criteria) == 0 {
		delete(judges, k.Judge)
	}
	if len(judges) == 0 {
		delete(contestants, k.Contestant)
	}
	if len(contestants) == 0 {
		delete(n, k.Segment)
	}
	return true
}

// Get returns the value of one tuple.
func (n Nested) Get(seg, cont, judge, crit string) (float64, bool) {
	v, ok := n[seg][cont][judge][crit]
	return v, ok
}

// Has reports whether a tuple is present.
func (n Nested) Has(seg, cont, judge, crit string) bool {
	_, ok := n.Get(seg, cont, judge, crit)
	return ok
}

// TotalForJudge sums one judge's criterion scores for a contestant; 0 if none.
func (n Nested) TotalForJudge(seg, cont, judge string) float64 {
	var sum float64
	for _, v := range n[seg][cont][judge] {
		sum += v
	}
	return sum
}

// TotalForContestant sums TotalForJudge over every judge who scored the contestant.
func (n Nested) TotalForContestant(seg, cont string) float64 {
	var sum float64
	for judge := range n[seg][cont] {
		sum += n.TotalForJudge(seg, cont, judge)
	}
	return sum
}

// JudgeTotals returns one total per judge who scored the contestant.
func (n Nested) JudgeTotals(seg, cont string) map[string]float64 {
	judges := n[seg][cont]
	out := make(map[string]float64, len(judges))
	for judge := range judges {
		out[judge] = n.TotalForJudge(seg, cont, judge)
	}
	return out
}

// CriterionScores returns a copy of one judge's criterion scores.
func (n Nested) CriterionScores(seg, cont, judge string) map[string]float64 {
	src := n[seg][cont][judge]
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Len returns the number of stored tuples.
func (n Nested) Len() int {
	total := 0
	for _, contestants := range n {
		for _, judges := range contestants {
			for _, criteria := range judges {
				total += len(criteria)
			}
		}
	}
	return total
}

// Clone returns a deep copy.
func (n Nested) Clone() Nested {
	out := make(Nested, len(n))
	for seg, contestants := range n {
		cc := make(map[string]map[string]map[string]float64, len(contestants))
		for cont, judges := range contestants {
			jj := make(map[string]map[string]float64, len(judges))
			for judge, criteria := range judges {
				kk := make(map[string]float64, len(criteria))
				for crit, v := range criteria {
					kk[crit] = v
				}
				jj[judge] = kk
			}
			cc[cont] = jj
		}
		out[seg] = cc
	}
	return out
}
