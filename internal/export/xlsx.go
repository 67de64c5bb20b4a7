// Package export renders calendar projections to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ganot/cropline/internal/domain/calendar"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the calendar.
const SheetName = "Calendar"

var header = []string{"Due", "Done", "Not before", "Task", "Kind", "Species", "Crop", "Landplot", "Estimated"}

// WriteCalendarXLSX writes tasks as an XLSX workbook, one row per task with
// the crop's color as the row fill.
func WriteCalendarXLSX(w io.Writer, tasks []calendar.Task) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	headStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := writeRow(f, 1, toCells(header)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	styles := make(map[string]int)
	for i, t := range tasks {
		row := i + 2
		if err := writeRow(f, row, taskCells(t)); err != nil {
			return err
		}

		style, ok := styles[t.Color]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(t.Color, "#")}},
			})
			if err != nil {
				return fmt.Errorf("creating crop style: %w", err)
			}
			styles[t.Color] = style
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(len(header), row)
		if err := f.SetCellStyle(SheetName, first, end, style); err != nil {
			return fmt.Errorf("styling row %d: %w", row, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "C", 12); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "D", "D", 28); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return fmt.Errorf("writing %s: %w", cell, err)
		}
	}
	return nil
}

func toCells(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func taskCells(t calendar.Task) []any {
	estimated := ""
	if t.Estimated {
		estimated = "yes"
	}
	return []any{
		dateCell(t.DueDate),
		dateCell(t.DoneDate),
		t.MinAllowedDate.Format(time.DateOnly),
		t.Name,
		string(t.Class),
		t.SpeciesName,
		t.CropID,
		t.LandplotID,
		estimated,
	}
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
