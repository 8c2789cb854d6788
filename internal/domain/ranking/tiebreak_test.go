package ranking_test

import (
	"context"
	"testing"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
	"github.com/okian/podium/internal/domain/scores"
	. "github.com/smartystreets/goconvey/convey"
)

func multi(rows ...model.Score) scores.Nested { return scores.Nest(rows) }

func sc(cont, judge, crit string, v float64) model.Score {
	return model.Score{ScoreKey: model.ScoreKey{Segment: seg, Contestant: cont, Judge: judge, Criterion: crit}, Value: v}
}

func TestTiebreakStrategies(t *testing.T) {
	Convey("Given A and B tied on avg with different profiles", t, func() {
		// A: j1 = 9+1, j2 = 4+6   -> totals 10, 10
		// B: j1 = 5+4, j2 = 6+5   -> totals 9, 11
		// C: j1 = 2+2, j2 = 2+2   -> totals 4, 4
		tbl := multi(
			sc("A", "j1", "poise", 9), sc("A", "j1", "talent", 1),
			sc("A", "j2", "poise", 4), sc("A", "j2", "talent", 6),
			sc("B", "j1", "poise", 5), sc("B", "j1", "talent", 4),
			sc("B", "j2", "poise", 6), sc("B", "j2", "talent", 5),
			sc("C", "j1", "poise", 2), sc("C", "j1", "talent", 2),
			sc("C", "j2", "poise", 2), sc("C", "j2", "talent", 2),
		)
		contestants := []string{"A", "B", "C"}
		judges := []string{"j1", "j2"}

		Convey("When the tiebreaker is none", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{Method: model.MethodAvg, Tiebreaker: model.TiebreakNone})

			Convey("Then the tie should be kept", func() {
				So(r["A"].Rank, ShouldEqual, 1)
				So(r["B"].Rank, ShouldEqual, 1)
				So(r["C"].Rank, ShouldEqual, 3)
			})
		})

		Convey("When the tiebreaker is highest-score", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{Method: model.MethodAvg, Tiebreaker: model.TiebreakHighestScore})

			Convey("Then A should win on its single 9", func() {
				So(r["A"].Rank, ShouldEqual, 1)
				So(r["B"].Rank, ShouldEqual, 2)
				So(r["C"].Rank, ShouldEqual, 3)
			})

			Convey("Then reported scores should not carry the adjustment", func() {
				So(r["A"].Score, ShouldEqual, 10)
				So(r["B"].Score, ShouldEqual, 10)
			})
		})

		Convey("When the tiebreaker is head-to-head", func() {
			// j1: A 10 > B 9 ; j2: B 11 > A 10  -> one win each, id decides
			r := calc(tbl, contestants, judges, model.RankingConfig{Method: model.MethodAvg, Tiebreaker: model.TiebreakHeadToHead})

			Convey("Then an even split should fall back to id order", func() {
				So(r["A"].Rank, ShouldEqual, 1)
				So(r["B"].Rank, ShouldEqual, 2)
			})
		})

		Convey("When the tiebreaker is specific-criteria on talent", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{
				Method:            model.MethodAvg,
				Tiebreaker:        model.TiebreakSpecificCriteria,
				TiebreakCriterion: "talent",
			})

			Convey("Then B should win on its talent average", func() {
				So(r["B"].Rank, ShouldEqual, 1)
				So(r["A"].Rank, ShouldEqual, 2)
				So(r["C"].Rank, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a clear head-to-head winner", t, func() {
		// three judges; X beats Y with j1 and j2, Y beats X with j3; both average 10
		tbl := multi(
			sc("X", "j1", "k", 11), sc("X", "j2", "k", 11), sc("X", "j3", "k", 8),
			sc("Y", "j1", "k", 10), sc("Y", "j2", "k", 10), sc("Y", "j3", "k", 10),
		)
		r := calc(tbl, []string{"Y", "X"}, []string{"j1", "j2", "j3"}, model.RankingConfig{
			Method: model.MethodAvg, Tiebreaker: model.TiebreakHeadToHead,
		})

		Convey("Then the contestant with more judge wins should rank first", func() {
			So(r["X"].Score, ShouldEqual, r["Y"].Score)
			So(r["X"].Rank, ShouldEqual, 1)
			So(r["Y"].Rank, ShouldEqual, 2)
		})
	})

	Convey("Given a lower-is-better method with a tie", t, func() {
		tbl := multi(
			sc("A", "j1", "k", 9), sc("A", "j2", "k", 5),
			sc("B", "j1", "k", 5), sc("B", "j2", "k", 9),
			sc("C", "j1", "k", 1), sc("C", "j2", "k", 1),
		)
		r := calc(tbl, []string{"A", "B", "C"}, []string{"j1", "j2"}, model.RankingConfig{
			Method: model.MethodRankAvgRank, Tiebreaker: model.TiebreakHighestScore,
		})

		Convey("Then the tiebreak should still produce ranks 1 and 2 with C last", func() {
			So(r["A"].Score, ShouldEqual, 1.5)
			So(r["B"].Score, ShouldEqual, 1.5)
			So(r["A"].Rank+r["B"].Rank, ShouldEqual, 3)
			So(r["C"].Rank, ShouldEqual, 3)
		})
	})
}

func TestTiebreakerApply(t *testing.T) {
	Convey("Given tied groups close to a distinct neighbour", t, func() {
		in := ranking.TiebreakInput{
			Segment:  seg,
			Scores:   map[string]float64{"a": 5, "b": 5, "c": 5, "d": 5.0001, "e": 4.9999},
			Judges:   []string{"j1"},
			Table:    scores.Nested{},
			Strategy: model.TiebreakHighestScore,
		}
		adjusted := ranking.NewTiebreaker().Apply(context.Background(), in)

		Convey("Then the group should be strictly ordered without crossing neighbours", func() {
			So(adjusted["a"], ShouldBeGreaterThan, adjusted["b"])
			So(adjusted["b"], ShouldBeGreaterThan, adjusted["c"])
			So(adjusted["a"], ShouldBeLessThan, adjusted["d"])
			So(adjusted["c"], ShouldBeGreaterThan, adjusted["e"])
		})

		Convey("Then the input should be untouched", func() {
			So(in.Scores["a"], ShouldEqual, 5)
		})
	})

	Convey("Given strategy none", t, func() {
		in := ranking.TiebreakInput{Scores: map[string]float64{"a": 1, "b": 1}, Strategy: model.TiebreakNone}
		So(ranking.NewTiebreaker().Apply(context.Background(), in), ShouldResemble, map[string]float64{"a": 1, "b": 1})
	})
}

func TestAward(t *testing.T) {
	Convey("Given criterion scores for a minor award", t, func() {
		tbl := multi(
			sc("A", "j1", "smile", 9), sc("A", "j2", "smile", 8),
			sc("B", "j1", "smile", 8), sc("B", "j2", "smile", 9),
			sc("C", "j1", "smile", 7),
		)
		avgs, ranks := ranking.Award(tbl, seg, "smile", []string{"A", "B", "C", "D"}, []string{"j1", "j2"})

		Convey("Then ties should get fractional ranks", func() {
			So(avgs["A"], ShouldEqual, 8.5)
			So(avgs["C"], ShouldEqual, 7)
			So(avgs["D"], ShouldEqual, 0)
			So(ranks["A"], ShouldEqual, 1.5)
			So(ranks["B"], ShouldEqual, 1.5)
			So(ranks["C"], ShouldEqual, 3)
			So(ranks["D"], ShouldEqual, 4)
		})
	})
}
