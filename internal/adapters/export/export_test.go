package export_test

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/okian/podium/internal/adapters/export"
	"github.com/okian/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteRankingsXLSX(t *testing.T) {
	Convey("Given ranked standings", t, func() {
		standings := []model.Standing{
			{ContestantID: "c2", Name: "Ben", Gender: model.GenderMale, Score: 17, Rank: 1, Advancing: true},
			{ContestantID: "c1", Name: "Ana", Gender: model.GenderFemale, Score: 16.5, Rank: 2},
		}

		Convey("When writing a workbook", func() {
			var buf bytes.Buffer
			err := export.WriteRankingsXLSX(&buf, "Preliminary", standings)
			So(err, ShouldBeNil)

			Convey("Then it should read back row by row", func() {
				f, err := excelize.OpenReader(&buf)
				So(err, ShouldBeNil)
				defer f.Close()
				rows, err := f.GetRows("Rankings")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 4)
				So(rows[0][0], ShouldEqual, "Preliminary")
				So(rows[1], ShouldResemble, []string{"Rank", "Contestant", "Name", "Gender", "Score", "Advancing"})
				So(rows[2][1], ShouldEqual, "c2")
				So(rows[2][5], ShouldEqual, "Yes")
				So(rows[3][4], ShouldEqual, "16.5")
				So(rows[3][5], ShouldEqual, "No")
			})
		})

		Convey("When there are no standings", func() {
			var buf bytes.Buffer

			Convey("Then only the headings are written", func() {
				So(export.WriteRankingsXLSX(&buf, "Final", nil), ShouldBeNil)
				f, err := excelize.OpenReader(&buf)
				So(err, ShouldBeNil)
				defer f.Close()
				rows, _ := f.GetRows("Rankings")
				So(rows, ShouldHaveLength, 2)
			})
		})
	})
}
