package simulate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
	"github.com/okian/podium/internal/domain/scores"
)

// ErrMismatch is returned when served rankings differ from the local ones.
var ErrMismatch = errors.New("rankings mismatch")

const scoreTolerance = 1e-9

// Expected computes the standings a segment should have for the given scores.
func Expected(ctx context.Context, c *model.Competition, list []model.Score, segment string) []model.Standing {
	seg, _ := c.Segment(segment)
	table := scores.Nest(list)
	calc := ranking.NewCalculator()

	contestants := c.ContestantsIn(segment)
	groups := [][]model.Contestant{contestants}
	if c.Settings.SeparateByGender {
		groups = genderGroups(contestants)
	}

	out := make([]model.Standing, 0, len(contestants))
	for _, group := range groups {
		ids := make([]string, len(group))
		for i, ct := range group {
			ids[i] = ct.ID
		}
		for _, r := range calc.Calculate(ctx, ranking.Input{
			Segment:     segment,
			Contestants: ids,
			Judges:      c.JudgeIDs(),
			Scores:      table,
			Config:      c.Settings.Ranking,
		}) {
			out = append(out, model.Standing{
				ContestantID: r.ContestantID,
				Score:        r.Score,
				Rank:         r.Rank,
				Advancing:    seg.Advancing > 0 && r.Rank <= seg.Advancing,
			})
		}
	}
	return out
}

func genderGroups(list []model.Contestant) [][]model.Contestant {
	idx := make(map[model.Gender][]model.Contestant)
	var genders []model.Gender
	for _, ct := range list {
		if _, ok := idx[ct.Gender]; !ok {
			genders = append(genders, ct.Gender)
		}
		idx[ct.Gender] = append(idx[ct.Gender], ct)
	}
	sort.Slice(genders, func(i, j int) bool { return genders[i] < genders[j] })
	out := make([][]model.Contestant, len(genders))
	for i, g := range genders {
		out[i] = idx[g]
	}
	return out
}

// Compare checks served standings against expected ones, row by row.
func Compare(want, got []model.Standing) error {
	if len(want) != len(got) {
		return fmt.Errorf("%w: %d standings served, %d expected", ErrMismatch, len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		switch {
		case w.ContestantID != g.ContestantID:
			return fmt.Errorf("%w: row %d is %s, expected %s", ErrMismatch, i+1, g.ContestantID, w.ContestantID)
		case math.Abs(w.Score-g.Score) > scoreTolerance:
			return fmt.Errorf("%w: %s scored %.4f, expected %.4f", ErrMismatch, g.ContestantID, g.Score, w.Score)
		case w.Rank != g.Rank:
			return fmt.Errorf("%w: %s ranked %d, expected %d", ErrMismatch, g.ContestantID, g.Rank, w.Rank)
		case w.Advancing != g.Advancing:
			return fmt.Errorf("%w: %s advancing=%t, expected %t", ErrMismatch, g.ContestantID, g.Advancing, w.Advancing)
		}
	}
	return nil
}
