package fixture_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/fixture"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given the sample fixture", t, func() {
		f, err := fixture.Load("testdata/pageant.yaml")

		Convey("Then it should decode every section", func() {
			So(err, ShouldBeNil)
			c := f.Competition
			So(c.ID, ShouldEqual, "spring-pageant")
			So(c.Segments, ShouldHaveLength, 2)
			So(c.Settings.Ranking.Tiebreaker, ShouldEqual, model.TiebreakHighestScore)
			carry, ok := c.Criterion("final", "prelim-carry")
			So(ok, ShouldBeTrue)
			So(carry.CalculationMethod, ShouldEqual, model.CalcPercentage)
			So(carry.SourceSegments, ShouldResemble, []string{"prelim"})
			So(c.Prejudged, ShouldHaveLength, 1)
			So(f.Scores, ShouldHaveLength, 2)
			So(f.Scores[0].Score().Value, ShouldEqual, 8.5)
		})

		Convey("When it is seeded into a store", func() {
			So(err, ShouldBeNil)
			ctx := context.Background()
			store := repository.NewMemoryStore()
			So(fixture.Seed(ctx, store, f), ShouldBeNil)

			Convey("Then the store should hold the competition and scores", func() {
				c, err := store.FetchCompetition(ctx, "spring-pageant")
				So(err, ShouldBeNil)
				So(c.ActiveCriteria, ShouldHaveLength, 1)
				list, err := store.FetchScores(ctx, "spring-pageant")
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := fixture.Load("testdata/absent.yaml")

		Convey("Then it should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given broken fixtures", t, func() {
		cases := []string{
			"competition: {id: x}\nextra: 1\n",
			"competition: {name: x}\n",
			`competition:
  id: x
  segments: [{id: s, criteria: [{id: k, max_score: 10}]}]
  contestants: [{id: c}]
  judges: [{id: j}]
scores:
  - {segment: s, contestant: c, judge: ghost, criterion: k, value: 1}
`,
			`competition:
  id: x
  segments: [{id: s, criteria: [{id: k, max_score: 10}]}]
  contestants: [{id: c}]
  judges: [{id: j}]
scores:
  - {segment: s, contestant: c, judge: j, criterion: k, value: 11}
`,
		}

		Convey("Then each should be rejected as invalid", func() {
			for _, src := range cases {
				_, err := fixture.Parse(strings.NewReader(src))
				So(errors.Is(err, fixture.ErrInvalid), ShouldBeTrue)
			}
		})
	})
}
