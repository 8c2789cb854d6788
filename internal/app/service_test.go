package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/podium/internal/adapters/mq/notify"
	"github.com/okian/podium/internal/adapters/repository"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const cid = "pageant-2026"

func newCompetition() *model.Competition {
	return &model.Competition{
		ID:   cid,
		Name: "Pageant 2026",
		Segments: []model.Segment{
			{ID: "prelim", Name: "Preliminary", Advancing: 2, Criteria: []model.Criterion{
				{ID: "poise", Name: "Poise", MaxScore: 10},
				{ID: "talent", Name: "Talent", MaxScore: 10},
			}},
			{ID: "final", Name: "Final", Criteria: []model.Criterion{
				{ID: "stage", Name: "Stage", MaxScore: 10},
				{ID: "carry", Name: "Carried", MaxScore: 100, IsCarryForward: true,
					SourceSegments: []string{"prelim"}, ScalingFactor: 0.5, CalculationMethod: model.CalcPercentage},
				{ID: "interview", Name: "Interview", MaxScore: 30, IsPrejudged: true},
			}},
		},
		Contestants: []model.Contestant{
			{ID: "c1", Name: "Ana", Gender: model.GenderFemale, SegmentID: "prelim", DisplayOrder: 1},
			{ID: "c2", Name: "Ben", Gender: model.GenderMale, SegmentID: "prelim", DisplayOrder: 2},
			{ID: "c3", Name: "Cleo", Gender: model.GenderFemale, SegmentID: "prelim", DisplayOrder: 3},
		},
		Judges: []model.Judge{{ID: "j1"}, {ID: "j2"}, {ID: "j3"}},
	}
}

func key(seg, cont, judge, crit string) model.ScoreKey {
	return model.ScoreKey{Segment: seg, Contestant: cont, Judge: judge, Criterion: crit}
}

func submit(svc *service.Service, seg, cont, judge, crit string, v float64) error {
	return svc.SubmitScore(context.Background(), cid, model.Score{ScoreKey: key(seg, cont, judge, crit), Value: v})
}

// seed loads the competition, opens the preliminary criteria and scores them:
// c1 totals 17 and 15, c2 18 and 16, c3 10 from j1 only.
func seed(svc *service.Service) {
	ctx := context.Background()
	So(svc.PutCompetition(ctx, newCompetition()), ShouldBeNil)
	for _, crit := range []string{"poise", "talent"} {
		changed, err := svc.SetCriterionActive(ctx, cid, "prelim", crit, true)
		So(err, ShouldBeNil)
		So(changed, ShouldBeTrue)
	}
	for _, s := range []struct {
		cont, judge, crit string
		v                 float64
	}{
		{"c1", "j1", "poise", 8}, {"c1", "j1", "talent", 9},
		{"c1", "j2", "poise", 7}, {"c1", "j2", "talent", 8},
		{"c2", "j1", "poise", 9}, {"c2", "j1", "talent", 9},
		{"c2", "j2", "poise", 8}, {"c2", "j2", "talent", 8},
		{"c3", "j1", "poise", 7.5}, {"c3", "j1", "talent", 2.5},
	} {
		So(submit(svc, "prelim", s.cont, s.judge, s.crit, s.v), ShouldBeNil)
	}
}

// flakyStore fails every write for one judge.
type flakyStore struct {
	*repository.MemoryStore
	failJudge string
}

func (f *flakyStore) PersistScores(ctx context.Context, id string, list []model.Score) error {
	for _, s := range list {
		if s.Judge == f.failJudge {
			return errors.New("connection reset")
		}
	}
	return f.MemoryStore.PersistScores(ctx, id, list)
}

func TestService_Load(t *testing.T) {
	Convey("Given a service over an empty store", t, func() {
		ctx := context.Background()
		svc := service.New(repository.NewMemoryStore())

		Convey("When loading an unknown competition", func() {
			err := svc.Load(ctx, "missing")

			Convey("Then it should report not found", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When putting an invalid competition", func() {
			c := newCompetition()
			c.Segments[1].Criteria[1].SourceSegments = []string{"final"}
			err := svc.PutCompetition(ctx, c)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrInvalidCompetition), ShouldBeTrue)
			})
		})

		Convey("When putting a competition without ranking settings", func() {
			c := newCompetition()
			c.Settings = model.Settings{}
			So(svc.PutCompetition(ctx, c), ShouldBeNil)

			Convey("Then it ranks by average with no tiebreaker", func() {
				cfg, err := svc.RankingConfig(ctx, cid)
				So(err, ShouldBeNil)
				So(cfg.Method, ShouldEqual, model.MethodAvg)
				So(cfg.Tiebreaker, ShouldEqual, model.TiebreakNone)
			})
		})

		Convey("When putting a valid competition", func() {
			So(svc.PutCompetition(ctx, newCompetition()), ShouldBeNil)

			Convey("Then it should be loaded", func() {
				c, err := svc.Competition(ctx, cid)
				So(err, ShouldBeNil)
				So(c.Name, ShouldEqual, "Pageant 2026")
				So(svc.Stats().Sessions, ShouldEqual, 1)
			})
		})
	})
}

func TestService_SubmitScore(t *testing.T) {
	Convey("Given a loaded competition", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(store)
		So(svc.PutCompetition(ctx, newCompetition()), ShouldBeNil)

		Convey("When the criterion is not active", func() {
			err := submit(svc, "prelim", "c1", "j1", "poise", 5)

			Convey("Then the score is rejected", func() {
				So(errors.Is(err, service.ErrCriterionInactive), ShouldBeTrue)
			})
		})

		Convey("When the criterion is active", func() {
			_, err := svc.SetCriterionActive(ctx, cid, "prelim", "poise", true)
			So(err, ShouldBeNil)

			Convey("And the score is valid", func() {
				So(submit(svc, "prelim", "c1", "j1", "poise", 7.456), ShouldBeNil)

				Convey("Then it is rounded locally and in the store", func() {
					list, _ := svc.Scores(ctx, cid)
					So(list, ShouldHaveLength, 1)
					So(list[0].Value, ShouldEqual, 7.46)
					stored, _ := store.FetchScores(ctx, cid)
					So(stored[0].Value, ShouldEqual, 7.46)
				})
			})

			Convey("Then bad submissions are rejected", func() {
				So(errors.Is(submit(svc, "prelim", "c1", "ghost", "poise", 5), service.ErrUnknownJudge), ShouldBeTrue)
				So(errors.Is(submit(svc, "prelim", "c9", "j1", "poise", 5), service.ErrUnknownContestant), ShouldBeTrue)
				So(errors.Is(submit(svc, "prelim", "c1", "j1", "nope", 5), service.ErrNotFound), ShouldBeTrue)
				So(errors.Is(submit(svc, "prelim", "c1", "j1", "poise", -1), service.ErrInvalidScore), ShouldBeTrue)
				So(errors.Is(submit(svc, "prelim", "c1", "j1", "poise", 10.01), service.ErrScoreOutOfRange), ShouldBeTrue)
				So(errors.Is(submit(svc, "final", "c1", "j1", "carry", 5), service.ErrDerivedCriterion), ShouldBeTrue)
				list, _ := svc.Scores(ctx, cid)
				So(list, ShouldBeEmpty)
			})

			Convey("And a score is deleted", func() {
				So(submit(svc, "prelim", "c1", "j1", "poise", 5), ShouldBeNil)
				So(svc.DeleteScore(ctx, cid, key("prelim", "c1", "j1", "poise")), ShouldBeNil)

				Convey("Then it is gone everywhere", func() {
					list, _ := svc.Scores(ctx, cid)
					So(list, ShouldBeEmpty)
					stored, _ := store.FetchScores(ctx, cid)
					So(stored, ShouldBeEmpty)
				})
			})
		})
	})
}

func TestService_ActiveCriteria(t *testing.T) {
	Convey("Given a loaded competition", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(store)
		So(svc.PutCompetition(ctx, newCompetition()), ShouldBeNil)

		Convey("When activating a derived criterion", func() {
			changed, err := svc.SetCriterionActive(ctx, cid, "final", "interview", true)

			Convey("Then it stays inactive", func() {
				So(errors.Is(err, service.ErrDerivedCriterion), ShouldBeTrue)
				So(changed, ShouldBeFalse)
				active, _ := svc.ActiveCriteria(ctx, cid)
				So(active, ShouldBeEmpty)
			})
		})

		Convey("When judges have finalised a segment", func() {
			So(svc.FinalizeJudge(ctx, cid, "j1", "prelim"), ShouldBeNil)
			So(svc.FinalizeJudge(ctx, cid, "j2", "final"), ShouldBeNil)
			done, err := svc.IsFinalized(ctx, cid, "j1", "prelim")
			So(err, ShouldBeNil)
			So(done, ShouldBeTrue)

			Convey("And a new criterion opens in that segment", func() {
				_, err := svc.SetCriterionActive(ctx, cid, "prelim", "poise", true)
				So(err, ShouldBeNil)

				Convey("Then only that segment is reopened and the change is stored", func() {
					done, _ := svc.IsFinalized(ctx, cid, "j1", "prelim")
					So(done, ShouldBeFalse)
					other, _ := svc.IsFinalized(ctx, cid, "j2", "final")
					So(other, ShouldBeTrue)
					c, _ := store.FetchCompetition(ctx, cid)
					So(c.ActiveCriteria, ShouldResemble, []model.ActiveCriterion{{Segment: "prelim", Criterion: "poise"}})
					So(c.Finalized, ShouldHaveLength, 1)
				})

				Convey("Then activating it again changes nothing", func() {
					So(svc.FinalizeJudge(ctx, cid, "j1", "prelim"), ShouldBeNil)
					changed, err := svc.SetCriterionActive(ctx, cid, "prelim", "poise", true)
					So(err, ShouldBeNil)
					So(changed, ShouldBeFalse)
					done, _ := svc.IsFinalized(ctx, cid, "j1", "prelim")
					So(done, ShouldBeTrue)
				})

				Convey("Then deactivating it is stored", func() {
					changed, err := svc.SetCriterionActive(ctx, cid, "prelim", "poise", false)
					So(err, ShouldBeNil)
					So(changed, ShouldBeTrue)
					c, _ := store.FetchCompetition(ctx, cid)
					So(c.ActiveCriteria, ShouldBeEmpty)
				})
			})
		})

		Convey("When finalising an unknown judge", func() {
			err := svc.FinalizeJudge(ctx, cid, "ghost", "prelim")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrUnknownJudge), ShouldBeTrue)
			})
		})
	})
}

func TestService_Rankings(t *testing.T) {
	Convey("Given scored preliminaries", t, func() {
		ctx := context.Background()
		svc := service.New(repository.NewMemoryStore())
		seed(svc)

		Convey("When ranking by average", func() {
			standings, err := svc.Rankings(ctx, cid, "prelim")
			So(err, ShouldBeNil)

			Convey("Then the order, scores and advancement follow the averages", func() {
				So(standings, ShouldHaveLength, 3)
				So(standings[0].ContestantID, ShouldEqual, "c2")
				So(standings[0].Score, ShouldEqual, 17)
				So(standings[0].Rank, ShouldEqual, 1)
				So(standings[1].ContestantID, ShouldEqual, "c1")
				So(standings[1].Score, ShouldEqual, 16)
				So(standings[2].ContestantID, ShouldEqual, "c3")
				So(standings[0].Advancing, ShouldBeTrue)
				So(standings[1].Advancing, ShouldBeTrue)
				So(standings[2].Advancing, ShouldBeFalse)
			})
		})

		Convey("When ranking by average rank", func() {
			So(svc.SetRankingConfig(ctx, cid, model.RankingConfig{Method: model.MethodAvgRank}), ShouldBeNil)
			standings, _ := svc.Rankings(ctx, cid, "prelim")

			Convey("Then the order matches the average order", func() {
				So(standings[0].ContestantID, ShouldEqual, "c2")
				So(standings[0].Score, ShouldEqual, 1)
				So(standings[2].ContestantID, ShouldEqual, "c3")
			})
		})

		Convey("When genders are ranked separately", func() {
			c, _ := svc.Competition(ctx, cid)
			c.Settings.SeparateByGender = true
			So(svc.PutCompetition(ctx, c), ShouldBeNil)
			standings, _ := svc.Rankings(ctx, cid, "prelim")

			Convey("Then each gender has its own rank 1", func() {
				So(standings, ShouldHaveLength, 3)
				So(standings[0].ContestantID, ShouldEqual, "c1")
				So(standings[0].Rank, ShouldEqual, 1)
				So(standings[1].ContestantID, ShouldEqual, "c3")
				So(standings[1].Rank, ShouldEqual, 2)
				So(standings[2].ContestantID, ShouldEqual, "c2")
				So(standings[2].Rank, ShouldEqual, 1)
			})
		})

		Convey("When two contestants tie at the cutoff", func() {
			So(submit(svc, "prelim", "c1", "j2", "talent", 10), ShouldBeNil)
			c, _ := svc.Competition(ctx, cid)
			c.Segments[0].Advancing = 1
			So(svc.PutCompetition(ctx, c), ShouldBeNil)
			standings, _ := svc.Rankings(ctx, cid, "prelim")

			Convey("Then both advance", func() {
				So(standings[0].Rank, ShouldEqual, 1)
				So(standings[1].Rank, ShouldEqual, 1)
				So(standings[0].Advancing, ShouldBeTrue)
				So(standings[1].Advancing, ShouldBeTrue)
				So(standings[2].Advancing, ShouldBeFalse)
			})
		})

		Convey("When a tiebreaker is configured", func() {
			So(submit(svc, "prelim", "c1", "j2", "talent", 10), ShouldBeNil)
			So(svc.SetRankingConfig(ctx, cid, model.RankingConfig{
				Method:            model.MethodAvg,
				Tiebreaker:        model.TiebreakSpecificCriteria,
				TiebreakCriterion: "talent",
			}), ShouldBeNil)
			standings, _ := svc.Rankings(ctx, cid, "prelim")

			Convey("Then the tie is broken but the reported score is not", func() {
				So(standings[0].ContestantID, ShouldEqual, "c1")
				So(standings[0].Rank, ShouldEqual, 1)
				So(standings[1].Rank, ShouldEqual, 2)
				So(standings[0].Score, ShouldEqual, standings[1].Score)
			})
		})

		Convey("When the ranking config is invalid", func() {
			bad := svc.SetRankingConfig(ctx, cid, model.RankingConfig{Method: "coin-toss"})
			formulaErr := svc.SetRankingConfig(ctx, cid, model.RankingConfig{Method: model.MethodCustom, CustomFormula: "avg_score +"})
			weightErr := svc.SetRankingConfig(ctx, cid, model.RankingConfig{Method: model.MethodWeighted, SegmentWeights: map[string]float64{"ghost": 2}})

			Convey("Then it is rejected", func() {
				So(errors.Is(bad, service.ErrInvalidConfig), ShouldBeTrue)
				So(errors.Is(formulaErr, service.ErrInvalidConfig), ShouldBeTrue)
				So(errors.Is(weightErr, service.ErrInvalidConfig), ShouldBeTrue)
				cfg, _ := svc.RankingConfig(ctx, cid)
				So(cfg.Method, ShouldEqual, model.MethodAvg)
			})
		})

		Convey("When computing a minor award", func() {
			awards, err := svc.MinorAward(ctx, cid, "prelim", "poise")
			So(err, ShouldBeNil)

			Convey("Then ties share the mean of their positions", func() {
				So(awards[0].ContestantID, ShouldEqual, "c2")
				So(awards[0].Rank, ShouldEqual, 1)
				So(awards[1].Rank, ShouldEqual, 2.5)
				So(awards[2].Rank, ShouldEqual, 2.5)
				So(awards[1].Score, ShouldEqual, 7.5)
			})
		})

		Convey("When the segment is unknown", func() {
			_, err := svc.Rankings(ctx, cid, "encore")

			Convey("Then it reports not found", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

// advance moves every contestant into the final.
func advance(svc *service.Service) {
	ctx := context.Background()
	c, err := svc.Competition(ctx, cid)
	So(err, ShouldBeNil)
	for i := range c.Contestants {
		c.Contestants[i].SegmentID = "final"
	}
	So(svc.PutCompetition(ctx, c), ShouldBeNil)
}

func TestService_CarryForward(t *testing.T) {
	Convey("Given scored preliminaries and contestants in the final", t, func() {
		ctx := context.Background()
		svc := service.New(repository.NewMemoryStore())
		seed(svc)
		advance(svc)

		Convey("When previewing", func() {
			values, err := svc.PreviewCarryForward(ctx, cid, "final", "carry")
			So(err, ShouldBeNil)

			Convey("Then nothing is written", func() {
				So(values, ShouldResemble, map[string]float64{"c1": 8, "c2": 8.5, "c3": 5})
				list, _ := svc.Scores(ctx, cid)
				So(list, ShouldHaveLength, 10)
			})
		})

		Convey("When committing twice", func() {
			_, err := svc.CommitCarryForward(ctx, cid, "final", "carry")
			So(err, ShouldBeNil)
			values, err := svc.CommitCarryForward(ctx, cid, "final", "carry")
			So(err, ShouldBeNil)

			Convey("Then every judge holds the same value once", func() {
				So(values["c1"], ShouldEqual, 8)
				list, _ := svc.Scores(ctx, cid)
				So(list, ShouldHaveLength, 10+9)
				for _, s := range list {
					if s.Criterion == "carry" && s.Contestant == "c2" {
						So(s.Value, ShouldEqual, 8.5)
					}
				}
			})
		})

		Convey("When the criterion is not carry-forward", func() {
			_, err := svc.PreviewCarryForward(ctx, cid, "final", "stage")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a store that fails for one judge", t, func() {
		ctx := context.Background()
		store := &flakyStore{MemoryStore: repository.NewMemoryStore()}
		svc := service.New(store)
		seed(svc)
		advance(svc)
		store.failJudge = "j2"

		Convey("When committing a carry-forward", func() {
			_, err := svc.CommitCarryForward(ctx, cid, "final", "carry")

			Convey("Then the whole batch fails and nothing is applied locally", func() {
				So(errors.Is(err, service.ErrFanOut), ShouldBeTrue)
				list, _ := svc.Scores(ctx, cid)
				for _, s := range list {
					So(s.Criterion, ShouldNotEqual, "carry")
				}
			})

			Convey("Then no judge's value reached the store", func() {
				stored, err := store.FetchScores(ctx, cid)
				So(err, ShouldBeNil)
				for _, s := range stored {
					So(s.Criterion, ShouldNotEqual, "carry")
				}

				other := service.New(store)
				So(other.Load(ctx, cid), ShouldBeNil)
				list, _ := other.Scores(ctx, cid)
				So(list, ShouldHaveLength, 10)
				for _, s := range list {
					So(s.Criterion, ShouldNotEqual, "carry")
				}
			})
		})
	})
}

func TestService_Prejudged(t *testing.T) {
	Convey("Given contestants in the final", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(store)
		So(svc.PutCompetition(ctx, newCompetition()), ShouldBeNil)
		advance(svc)

		Convey("When a raw score is committed", func() {
			So(svc.SetPrejudgedRaw(ctx, cid, "final", "interview", "c1", 80), ShouldBeNil)
			preview, err := svc.PreviewPrejudged(ctx, cid, "final", "interview")
			So(err, ShouldBeNil)
			So(preview["c1"], ShouldEqual, 24)
			_, err = svc.CommitPrejudged(ctx, cid, "final", "interview")
			So(err, ShouldBeNil)

			Convey("Then every judge holds the scaled value", func() {
				list, _ := svc.Scores(ctx, cid)
				So(list, ShouldHaveLength, 3)
				for _, s := range list {
					So(s.Value, ShouldEqual, 24)
				}
				c, _ := store.FetchCompetition(ctx, cid)
				So(c.Prejudged, ShouldHaveLength, 1)
			})

			Convey("And the raw maximum changes", func() {
				values, err := svc.SetPrejudgedMaxRaw(ctx, cid, "final", "interview", 80)
				So(err, ShouldBeNil)

				Convey("Then existing raw scores are recomputed and the scale is stored", func() {
					So(values["c1"], ShouldEqual, 30)
					list, _ := svc.Scores(ctx, cid)
					for _, s := range list {
						So(s.Value, ShouldEqual, 30)
					}
					So(svc.Load(ctx, cid), ShouldBeNil)
					again, _ := svc.PreviewPrejudged(ctx, cid, "final", "interview")
					So(again["c1"], ShouldEqual, 30)
				})
			})

			Convey("And scores are reset preserving prejudged", func() {
				_, err := svc.SetCriterionActive(ctx, cid, "final", "stage", true)
				So(err, ShouldBeNil)
				So(submit(svc, "final", "c1", "j1", "stage", 9), ShouldBeNil)
				n, err := svc.ResetScores(ctx, cid, true)
				So(err, ShouldBeNil)

				Convey("Then only the prejudged scores remain", func() {
					So(n, ShouldEqual, 1)
					list, _ := svc.Scores(ctx, cid)
					So(list, ShouldHaveLength, 3)
					stored, _ := store.FetchScores(ctx, cid)
					So(stored, ShouldHaveLength, 3)
				})
			})

			Convey("And every score is reset", func() {
				n, err := svc.ResetScores(ctx, cid, false)
				So(err, ShouldBeNil)

				Convey("Then nothing remains", func() {
					So(n, ShouldEqual, 3)
					list, _ := svc.Scores(ctx, cid)
					So(list, ShouldBeEmpty)
				})
			})
		})

		Convey("When the contestant is unknown", func() {
			err := svc.SetPrejudgedRaw(ctx, cid, "final", "interview", "c9", 50)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrUnknownContestant), ShouldBeTrue)
			})
		})
	})
}

func TestService_Notifications(t *testing.T) {
	Convey("Given two services sharing a store and a bus", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		bus := notify.NewInMemoryBus()
		defer bus.Close()
		writer := service.New(store, service.WithPublisher(bus))
		reader := service.New(store)
		seed(writer)
		So(reader.Load(ctx, cid), ShouldBeNil)

		Convey("When the writer scores", func() {
			sub, _ := bus.Subscribe(ctx)
			So(submit(writer, "prelim", "c3", "j2", "poise", 6), ShouldBeNil)
			var n model.Notification
			select {
			case n = <-sub:
			case <-time.After(time.Second):
			}
			So(n.ID, ShouldNotBeEmpty)
			So(reader.HandleNotification(ctx, n), ShouldBeNil)

			Convey("Then the reader reconciles from the store", func() {
				list, _ := reader.Scores(ctx, cid)
				So(list, ShouldHaveLength, 11)
			})
		})

		Convey("When a deletion is announced", func() {
			n := notify.New(cid, key("prelim", "c1", "j1", "poise"), true)
			So(reader.HandleNotification(ctx, n), ShouldBeNil)

			Convey("Then the reader applies it without fetching", func() {
				list, _ := reader.Scores(ctx, cid)
				So(list, ShouldHaveLength, 9)
				stored, _ := store.FetchScores(ctx, cid)
				So(stored, ShouldHaveLength, 10)
			})
		})

		Convey("When a notification is for another competition", func() {
			n := notify.New("other", key("prelim", "c1", "j1", "poise"), true)

			Convey("Then it is ignored", func() {
				So(reader.HandleNotification(ctx, n), ShouldBeNil)
				list, _ := reader.Scores(ctx, cid)
				So(list, ShouldHaveLength, 10)
				So(reader.Stats().Sessions, ShouldEqual, 1)
			})
		})
	})
}

func TestService_Watch(t *testing.T) {
	Convey("Given a watched competition", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(store)
		seed(svc)
		So(svc.Watch(ctx, cid, time.Hour), ShouldBeNil)
		defer svc.Stop()

		Convey("When another instance writes to the store", func() {
			So(repository.PersistScore(ctx, store, cid, model.Score{ScoreKey: key("prelim", "c3", "j3", "poise"), Value: 4}), ShouldBeNil)
			var err error
			for i := 0; i < 100; i++ {
				if err = svc.Reconcile(ctx, cid); !errors.Is(err, service.ErrInFlight) {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}
			So(err, ShouldBeNil)

			Convey("Then a reconcile picks it up", func() {
				list, _ := svc.Scores(ctx, cid)
				So(list, ShouldHaveLength, 11)
				status, ok := svc.WatchStatus(cid)
				So(ok, ShouldBeTrue)
				So(status.Polling, ShouldBeTrue)
				So(svc.Stats().Pollers, ShouldContainKey, cid)
			})
		})

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then operations are refused", func() {
				_, err := svc.Rankings(ctx, cid, "prelim")
				So(errors.Is(err, service.ErrStopped), ShouldBeTrue)
				_, ok := svc.WatchStatus(cid)
				So(ok, ShouldBeFalse)
			})
		})
	})
}
