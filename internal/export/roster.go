// Package export renders the employee roster as a spreadsheet.
package export

import (
	"bytes"
	"fmt"

	"github.com/salimtrading/staffportal/types"
	"github.com/xuri/excelize/v2"
)

const (
	RosterSheet       = "Roster"
	RosterContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var rosterHeaders = []string{
	"Business ID", "Full Name", "Department", "Position", "Email",
	"Phone", "Tax ID", "Hire Date", "Status",
}

var rosterWidths = []float64{14, 28, 18, 22, 32, 16, 16, 12, 10}

// Roster returns an XLSX workbook listing employees, one per row.
// Password hashes are never written.
func Roster(employees []types.Employee) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(RosterSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, header := range rosterHeaders {
		if err := setCell(f, i+1, 1, header); err != nil {
			return nil, err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(RosterSheet, col, col, rosterWidths[i]); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(rosterHeaders), 1)
	if err := f.SetCellStyle(RosterSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for r, e := range employees {
		hireDate := ""
		if e.HireDate != nil {
			hireDate = e.HireDate.Format("2006-01-02")
		}
		row := []any{e.BusinessID, e.FullName, e.Department, e.Position, e.Email, e.Phone, e.TaxID, hireDate, e.Status}
		for c, value := range row {
			if err := setCell(f, c+1, r+2, value); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetPanes(RosterSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(RosterSheet, cell, value)
}
