package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func competition(id string) *model.Competition {
	return &model.Competition{
		ID:   id,
		Name: "Regional Finals",
		Segments: []model.Segment{{
			ID: "s1", Name: "Evening Gown",
			Criteria: []model.Criterion{{ID: "poise", Name: "Poise", MaxScore: 10}},
		}},
		Contestants: []model.Contestant{{ID: "c1", Name: "Ana", SegmentID: "s1"}},
		Judges:      []model.Judge{{ID: "j1", Name: "Judge One"}},
	}
}

func score(cont, judge string, v float64) model.Score {
	return model.Score{
		ScoreKey: model.ScoreKey{Segment: "s1", Contestant: cont, Judge: judge, Criterion: "poise"},
		Value:    v,
	}
}

// storeContract exercises the behaviour every Store implementation shares.
func storeContract(t *testing.T, newStore func() repository.Store, competitionID string) {
	ctx := context.Background()

	Convey("Given a store", t, func() {
		s := newStore()

		Convey("When the competition is unknown", func() {
			_, err := s.FetchCompetition(ctx, competitionID)
			_, serr := s.FetchScores(ctx, competitionID)
			perr := repository.PersistScore(ctx, s, competitionID, score("c1", "j1", 5))

			Convey("Then reads and writes report ErrNotFound", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(serr, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(perr, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a competition is saved", func() {
			So(s.SaveCompetition(ctx, competition(competitionID)), ShouldBeNil)

			Convey("Then it can be fetched back", func() {
				c, err := s.FetchCompetition(ctx, competitionID)
				So(err, ShouldBeNil)
				So(c.Name, ShouldEqual, "Regional Finals")
				So(c.Segments[0].Criteria[0].MaxScore, ShouldEqual, 10)
			})

			Convey("And scores are persisted", func() {
				err := s.PersistScores(ctx, competitionID, []model.Score{
					score("c1", "j1", 7.456),
					score("c1", "j2", 8),
				})
				So(err, ShouldBeNil)

				Convey("Then values are rounded to two decimals", func() {
					list, err := s.FetchScores(ctx, competitionID)
					So(err, ShouldBeNil)
					So(list, ShouldHaveLength, 2)
					So(list[0].Judge, ShouldEqual, "j1")
					So(list[0].Value, ShouldEqual, 7.46)
				})

				Convey("Then an upsert replaces the value", func() {
					So(repository.PersistScore(ctx, s, competitionID, score("c1", "j1", 9)), ShouldBeNil)
					list, _ := s.FetchScores(ctx, competitionID)
					So(list[0].Value, ShouldEqual, 9)
				})

				Convey("Then deleted tuples disappear", func() {
					err := s.DeleteScores(ctx, competitionID, []model.ScoreKey{
						score("c1", "j1", 0).ScoreKey,
						score("c9", "j9", 0).ScoreKey,
					})
					So(err, ShouldBeNil)
					list, _ := s.FetchScores(ctx, competitionID)
					So(list, ShouldHaveLength, 1)
					So(list[0].Judge, ShouldEqual, "j2")
				})
			})

			Convey("And an invalid batch is written", func() {
				err := s.PersistScores(ctx, competitionID, []model.Score{
					score("c1", "j1", 5),
					score("c1", "j|2", 5),
				})

				Convey("Then nothing is stored", func() {
					So(errors.Is(err, repository.ErrInvalidScore), ShouldBeTrue)
					list, _ := s.FetchScores(ctx, competitionID)
					So(list, ShouldBeEmpty)
				})
			})

			Convey("And a negative score is written", func() {
				err := repository.PersistScore(ctx, s, competitionID, score("c1", "j1", -1))

				Convey("Then it is rejected", func() {
					So(errors.Is(err, repository.ErrInvalidScore), ShouldBeTrue)
				})
			})

			Convey("And the active criteria are replaced", func() {
				active := []model.ActiveCriterion{{Segment: "s1", Criterion: "poise"}}
				So(s.SaveActiveCriteria(ctx, competitionID, active), ShouldBeNil)

				Convey("Then the snapshot carries them", func() {
					c, err := s.FetchCompetition(ctx, competitionID)
					So(err, ShouldBeNil)
					So(c.ActiveCriteria, ShouldResemble, active)
				})
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func() repository.Store { return repository.NewMemoryStore() }, "comp-1")
}

func TestMemoryStoreIsolation(t *testing.T) {
	Convey("Given a memory store holding a competition", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore()
		c := competition("comp-1")
		So(s.SaveCompetition(ctx, c), ShouldBeNil)

		Convey("When the caller mutates its copies", func() {
			c.Name = "changed"
			got, _ := s.FetchCompetition(ctx, "comp-1")
			got.Segments[0].Criteria[0].MaxScore = 99

			Convey("Then the stored snapshot is unaffected", func() {
				again, _ := s.FetchCompetition(ctx, "comp-1")
				So(again.Name, ShouldEqual, "Regional Finals")
				So(again.Segments[0].Criteria[0].MaxScore, ShouldEqual, 10)
			})
		})
	})
}
