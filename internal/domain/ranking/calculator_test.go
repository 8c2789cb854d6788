package ranking_test

import (
	"context"
	"testing"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
	"github.com/okian/podium/internal/domain/scores"
	. "github.com/smartystreets/goconvey/convey"
)

const seg = "prelim"

// table builds a one-criterion table from judge -> contestant -> total.
func table(totals map[string]map[string]float64) scores.Nested {
	var list []model.Score
	for judge, byCont := range totals {
		for cont, v := range byCont {
			list = append(list, model.Score{
				ScoreKey: model.ScoreKey{Segment: seg, Contestant: cont, Judge: judge, Criterion: "overall"},
				Value:    v,
			})
		}
	}
	return scores.Nest(list)
}

func byID(results []model.Result) map[string]model.Result {
	out := make(map[string]model.Result, len(results))
	for _, r := range results {
		out[r.ContestantID] = r
	}
	return out
}

func calc(tbl ranking.Table, contestants, judges []string, cfg model.RankingConfig) map[string]model.Result {
	c := ranking.NewCalculator()
	return byID(c.Calculate(context.Background(), ranking.Input{
		Segment:     seg,
		Contestants: contestants,
		Judges:      judges,
		Scores:      tbl,
		Config:      cfg,
	}))
}

func TestCalculatorMethods(t *testing.T) {
	Convey("Given four judges scoring three contestants", t, func() {
		tbl := table(map[string]map[string]float64{
			"j1": {"A": 1, "B": 10, "C": 5},
			"j2": {"A": 2, "B": 9, "C": 5},
			"j3": {"A": 3, "B": 1, "C": 5},
			"j4": {"A": 4, "B": 8, "C": 5},
		})
		contestants := []string{"A", "B", "C"}
		judges := []string{"j1", "j2", "j3", "j4"}

		Convey("When ranking by avg", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{Method: model.MethodAvg})

			Convey("Then the mean of judge totals should rank highest first", func() {
				So(r["A"].Score, ShouldEqual, 2.5)
				So(r["B"].Score, ShouldEqual, 7)
				So(r["C"].Score, ShouldEqual, 5)
				So(r["B"].Rank, ShouldEqual, 1)
				So(r["C"].Rank, ShouldEqual, 2)
				So(r["A"].Rank, ShouldEqual, 3)
			})
		})

		Convey("When ranking by median", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{Method: model.MethodMedian})

			Convey("Then even counts should average the middle values", func() {
				So(r["A"].Score, ShouldEqual, 2.5)
				So(r["B"].Score, ShouldEqual, 8.5)
			})
		})

		Convey("When ranking by trimmed mean with 50 percent", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{Method: model.MethodTrimmed, TrimPercentage: 50})

			Convey("Then one value should be dropped from each end", func() {
				So(r["B"].Score, ShouldEqual, 8.5)
				So(r["A"].Score, ShouldEqual, 2.5)
			})
		})

		Convey("When the trimmed percentage is left at zero", func() {
			c := ranking.NewCalculator(ranking.WithDefaultTrimPercentage(50))
			r := byID(c.Calculate(context.Background(), ranking.Input{
				Segment:     seg,
				Contestants: contestants,
				Judges:      judges,
				Scores:      tbl,
				Config:      model.RankingConfig{Method: model.MethodTrimmed},
			}))

			Convey("Then the calculator default should apply rather than no trim", func() {
				So(r["B"].Score, ShouldEqual, 8.5)
				So(r["B"].Rank, ShouldEqual, 1)
			})
		})

		Convey("When ranking by avg-rank", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{Method: model.MethodAvgRank})

			Convey("Then the score should be the rank of the average, lower first", func() {
				So(r["B"].Score, ShouldEqual, 1)
				So(r["C"].Score, ShouldEqual, 2)
				So(r["A"].Score, ShouldEqual, 3)
				So(r["B"].Rank, ShouldEqual, 1)
				So(r["A"].Rank, ShouldEqual, 3)
			})
		})

		Convey("When ranking by rank-avg-rank", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{Method: model.MethodRankAvgRank})

			Convey("Then per-judge ranks should be averaged and lower should win", func() {
				// B: 1,1,3,1  C: 2,2,1,2  A: 3,3,2,3
				So(r["B"].Score, ShouldEqual, 1.5)
				So(r["C"].Score, ShouldEqual, 1.75)
				So(r["A"].Score, ShouldEqual, 2.75)
				So(r["B"].Rank, ShouldEqual, 1)
				So(r["C"].Rank, ShouldEqual, 2)
				So(r["A"].Rank, ShouldEqual, 3)
			})
		})

		Convey("When ranking by weighted with a segment weight", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{
				Method:         model.MethodWeighted,
				SegmentWeights: map[string]float64{seg: 2, "final": 3},
			})

			Convey("Then the average should be multiplied by the segment weight", func() {
				So(r["B"].Score, ShouldEqual, 14)
				So(r["A"].Score, ShouldEqual, 5)
			})
		})

		Convey("When ranking by weighted without a weight for the segment", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{
				Method:         model.MethodWeighted,
				SegmentWeights: map[string]float64{"final": 3},
			})

			Convey("Then it should behave like avg", func() {
				So(r["B"].Score, ShouldEqual, 7)
			})
		})

		Convey("When ranking by a custom formula", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{
				Method:        model.MethodCustom,
				CustomFormula: "min_score * 10 + judge_count",
			})

			Convey("Then the formula should drive the order", func() {
				So(r["C"].Score, ShouldEqual, 54)
				So(r["A"].Score, ShouldEqual, 14)
				So(r["B"].Score, ShouldEqual, 14)
				So(r["C"].Rank, ShouldEqual, 1)
				So(r["A"].Rank, ShouldEqual, 2)
				So(r["B"].Rank, ShouldEqual, 2)
			})
		})

		Convey("When the custom formula is broken or empty", func() {
			for _, src := range []string{"", "avg_score +", "avg_score / (judge_count - 4)"} {
				r := calc(tbl, contestants, judges, model.RankingConfig{Method: model.MethodCustom, CustomFormula: src})

				So(r["A"].Score, ShouldEqual, 2.5)
				So(r["B"].Score, ShouldEqual, 7)
				So(r["B"].Rank, ShouldEqual, 1)
			}
		})

		Convey("When the method is unknown", func() {
			r := calc(tbl, contestants, judges, model.RankingConfig{Method: "elo"})

			Convey("Then it should fall back to avg", func() {
				So(r["B"].Score, ShouldEqual, 7)
			})
		})
	})
}

func TestCalculatorProperties(t *testing.T) {
	Convey("Given exactly two judge totals", t, func() {
		tbl := table(map[string]map[string]float64{"j1": {"A": 10}, "j2": {"A": 20}})

		Convey("Then trimmed mean should fall back to the plain average", func() {
			r := calc(tbl, []string{"A"}, []string{"j1", "j2"}, model.RankingConfig{Method: model.MethodTrimmed, TrimPercentage: 20})
			So(r["A"].Score, ShouldEqual, 15)
		})
	})

	Convey("Given median inputs of odd and even length", t, func() {
		even := table(map[string]map[string]float64{"j1": {"A": 1}, "j2": {"A": 2}, "j3": {"A": 3}, "j4": {"A": 4}})
		odd := table(map[string]map[string]float64{"j1": {"A": 1}, "j2": {"A": 2}, "j3": {"A": 3}})

		So(calc(even, []string{"A"}, nil, model.RankingConfig{Method: model.MethodMedian})["A"].Score, ShouldEqual, 2.5)
		So(calc(odd, []string{"A"}, nil, model.RankingConfig{Method: model.MethodMedian})["A"].Score, ShouldEqual, 2)
	})

	Convey("Given two judges ranking A,B,C and A,C,B", t, func() {
		tbl := table(map[string]map[string]float64{
			"j1": {"A": 30, "B": 20, "C": 10},
			"j2": {"A": 30, "B": 10, "C": 20},
		})
		r := calc(tbl, []string{"A", "B", "C"}, []string{"j1", "j2"}, model.RankingConfig{Method: model.MethodBorda})

		Convey("Then Borda points should be 6, 3, 3 with A first and B, C tied", func() {
			So(r["A"].Score, ShouldEqual, 6)
			So(r["B"].Score, ShouldEqual, 3)
			So(r["C"].Score, ShouldEqual, 3)
			So(r["A"].Rank, ShouldEqual, 1)
			So(r["B"].Rank, ShouldEqual, 2)
			So(r["C"].Rank, ShouldEqual, 2)
		})
	})

	Convey("Given arbitrary totals", t, func() {
		tbl := table(map[string]map[string]float64{
			"j1": {"A": 7.25, "B": 9.5, "C": 3, "D": 8, "E": 6.75},
			"j2": {"A": 8.5, "B": 6, "C": 4.5, "D": 8, "E": 9.25},
			"j3": {"A": 7, "B": 8.75, "C": 5, "D": 7.5},
		})
		contestants := []string{"A", "B", "C", "D", "E"}
		avg := calc(tbl, contestants, nil, model.RankingConfig{Method: model.MethodAvg})
		avgRank := calc(tbl, contestants, nil, model.RankingConfig{Method: model.MethodAvgRank})

		Convey("Then ordering by avg-rank ascending should match avg descending", func() {
			avgScores := map[string]float64{}
			rankScores := map[string]float64{}
			for id, r := range avg {
				avgScores[id] = r.Score
			}
			for id, r := range avgRank {
				rankScores[id] = r.Score
			}
			So(ranking.Order(rankScores, true), ShouldResemble, ranking.Order(avgScores, false))
			top := ranking.Order(avgScores, false)[0]
			So(avgRank[top].Rank, ShouldEqual, 1)
		})
	})

	Convey("Given a contestant nobody scored", t, func() {
		tbl := table(map[string]map[string]float64{"j1": {"A": 5, "B": 0}, "j2": {"A": 6}})
		contestants := []string{"A", "B", "Z"}

		Convey("Then every method should rank them last", func() {
			for _, m := range model.Methods {
				r := calc(tbl, contestants, []string{"j1", "j2"}, model.RankingConfig{Method: m, CustomFormula: "0 - avg_score"})
				So(r["Z"].Rank, ShouldEqual, 2)
				So(r["A"].Rank, ShouldBeLessThanOrEqualTo, r["Z"].Rank)
			}
		})
	})

	Convey("Given totals from someone who is not a judge", t, func() {
		tbl := table(map[string]map[string]float64{"j1": {"A": 5}, "admin": {"A": 100}})

		Convey("Then they should be ignored", func() {
			r := calc(tbl, []string{"A"}, []string{"j1"}, model.RankingConfig{Method: model.MethodAvg})
			So(r["A"].Score, ShouldEqual, 5)
		})
	})
}
