package ranking

import (
	"context"
	"sort"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// fallbackEpsilon is the nudge step when every score is identical.
const fallbackEpsilon = 1e-4

// TiebreakInput is what a Tiebreaker needs to order tied contestants.
type TiebreakInput struct {
	Segment     string
	Scores      map[string]float64
	Judges      []string
	Table       Table
	Strategy    model.Tiebreak
	Criterion   string
	LowerBetter bool
}

// TiebreakOption configures a Tiebreaker.
type TiebreakOption func(*Tiebreaker)

// WithTiebreakLogger sets the logger.
func WithTiebreakLogger(l logger.Logger) TiebreakOption {
	return func(t *Tiebreaker) {
		if l != nil {
			t.logger = l
		}
	}
}

// Tiebreaker orders groups of equal final scores. It never changes the
// relative order of distinct scores.
type Tiebreaker struct {
	logger logger.Logger
}

// NewTiebreaker creates a Tiebreaker.
func NewTiebreaker(opts ...TiebreakOption) *Tiebreaker {
	t := &Tiebreaker{logger: logger.Discard()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Apply returns a copy of in.Scores in which every tied group has been
// nudged into a strict order, so that CompetitionRanks over the result gives
// each member a distinct rank. With strategy none the copy is unchanged.
func (t *Tiebreaker) Apply(ctx context.Context, in TiebreakInput) map[string]float64 {
	out := make(map[string]float64, len(in.Scores))
	for k, v := range in.Scores {
		out[k] = v
	}
	if in.Strategy == model.TiebreakNone || in.Strategy == "" {
		return out
	}

	groups := tiedGroups(in.Scores)
	if len(groups) == 0 {
		return out
	}
	eps := nudgeStep(in.Scores, groups)
	for _, g := range groups {
		ordered := t.OrderGroup(ctx, in, g)
		k := len(ordered)
		for i, id := range ordered {
			bump := float64(k-1-i) * eps
			if in.LowerBetter {
				out[id] -= bump
			} else {
				out[id] += bump
			}
		}
		metrics.RecordTiebreakApplied(string(in.Strategy))
	}
	return out
}

// OrderGroup orders one tied group best first. Ties the strategy cannot
// separate are ordered by contestant id.
func (t *Tiebreaker) OrderGroup(ctx context.Context, in TiebreakInput, group []string) []string {
	ordered := append([]string(nil), group...)
	sort.Strings(ordered)

	var key map[string]float64
	switch in.Strategy {
	case model.TiebreakHighestScore:
		key = t.highestScores(in, ordered)
	case model.TiebreakHeadToHead:
		key = t.headToHeadWins(in, ordered)
	case model.TiebreakSpecificCriteria:
		if in.Criterion == "" {
			t.logger.Warn(ctx, "specific-criteria tiebreak without a criterion", logger.String("segment", in.Segment))
			return ordered
		}
		key = t.criterionAverages(in, ordered)
	default:
		t.logger.Warn(ctx, "unknown tiebreak strategy", logger.String("strategy", string(in.Strategy)))
		return ordered
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return key[ordered[i]] > key[ordered[j]]
	})
	return ordered
}

func (t *Tiebreaker) judgeSet(in TiebreakInput) map[string]struct{} {
	set := make(map[string]struct{}, len(in.Judges))
	for _, j := range in.Judges {
		set[j] = struct{}{}
	}
	return set
}

// highestScores is each contestant's single highest criterion score from any judge.
func (t *Tiebreaker) highestScores(in TiebreakInput, group []string) map[string]float64 {
	out := make(map[string]float64, len(group))
	for _, id := range group {
		best := 0.0
		for _, j := range in.Judges {
			for _, v := range in.Table.CriterionScores(in.Segment, id, j) {
				if v > best {
					best = v
				}
			}
		}
		out[id] = best
	}
	return out
}

// headToHeadWins counts, over every pair in the group, the common judges
// who gave the contestant a strictly higher total than the opponent.
func (t *Tiebreaker) headToHeadWins(in TiebreakInput, group []string) map[string]float64 {
	allowed := t.judgeSet(in)
	totals := make(map[string]map[string]float64, len(group))
	for _, id := range group {
		jt := in.Table.JudgeTotals(in.Segment, id)
		for j := range jt {
			if _, ok := allowed[j]; !ok {
				delete(jt, j)
			}
		}
		totals[id] = jt
	}

	wins := make(map[string]float64, len(group))
	for i := 0; i < len(group); i++ {
		for k := i + 1; k < len(group); k++ {
			a, b := group[i], group[k]
			for j, av := range totals[a] {
				bv, common := totals[b][j]
				if !common {
					continue
				}
				switch {
				case av > bv:
					wins[a]++
				case bv > av:
					wins[b]++
				}
			}
		}
	}
	return wins
}

// criterionAverages is each contestant's mean score on the tiebreak criterion.
func (t *Tiebreaker) criterionAverages(in TiebreakInput, group []string) map[string]float64 {
	out := make(map[string]float64, len(group))
	for _, id := range group {
		var vals []float64
		for _, j := range in.Judges {
			if v, ok := in.Table.CriterionScores(in.Segment, id, j)[in.Criterion]; ok {
				vals = append(vals, v)
			}
		}
		out[id] = mean(vals)
	}
	return out
}

// tiedGroups returns every set of two or more ids sharing a score, each sorted.
func tiedGroups(scores map[string]float64) [][]string {
	byScore := make(map[float64][]string)
	for id, v := range scores {
		byScore[v] = append(byScore[v], id)
	}
	var groups [][]string
	for _, ids := range byScore {
		if len(ids) > 1 {
			sort.Strings(ids)
			groups = append(groups, ids)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// nudgeStep is small enough that the largest group's spread stays below
// the smallest gap between distinct scores.
func nudgeStep(scores map[string]float64, groups [][]string) float64 {
	distinct := make([]float64, 0, len(scores))
	seen := make(map[float64]struct{}, len(scores))
	for _, v := range scores {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			distinct = append(distinct, v)
		}
	}
	largest := 0
	for _, g := range groups {
		if len(g) > largest {
			largest = len(g)
		}
	}
	if len(distinct) < 2 {
		return fallbackEpsilon
	}
	sort.Float64s(distinct)
	gap := distinct[1] - distinct[0]
	for i := 2; i < len(distinct); i++ {
		if d := distinct[i] - distinct[i-1]; d < gap {
			gap = d
		}
	}
	return gap / float64(largest+1)
}
