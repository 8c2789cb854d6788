// Package export renders standings as spreadsheets.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/okian/podium/internal/domain/model"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrWrite wraps failures building or writing a workbook.
var ErrWrite = errors.New("spreadsheet write failed")

const sheetName = "Rankings"

var header = []any{"Rank", "Contestant", "Name", "Gender", "Score", "Advancing"}

// WriteRankingsXLSX writes one row per standing, in the given order, under a
// title row naming the segment.
func WriteRankingsXLSX(w io.Writer, title string, standings []model.Standing) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := sw.SetRow("A1", []any{title}); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := sw.SetRow("A2", header); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	for i, s := range standings {
		advancing := "No"
		if s.Advancing {
			advancing = "Yes"
		}
		row := []any{s.Rank, s.ContestantID, s.Name, string(s.Gender), s.Score, advancing}
		if err := sw.SetRow(fmt.Sprintf("A%d", i+3), row); err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrWrite, i+3, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
