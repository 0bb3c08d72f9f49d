package reconciliation

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	workingSetSheet = "Working Set"
	warningsSheet   = "Warnings"
)

var workingSetHeaders = []interface{}{
	"Job ID", "Job Name", "Crew Member", "Employee ID", "Shifts",
	"Regular", "OT", "2OT", "QC", "Total", "Tags",
}

func exportFilename(s *Session) string {
	return fmt.Sprintf("%s-working-set.xlsx", s.Reference)
}

// renderWorkingSet writes the working set, and the extraction warnings
// when there are any, into an xlsx workbook.
func renderWorkingSet(st State) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", workingSetSheet); err != nil {
		return nil, err
	}
	headers := workingSetHeaders
	if err := f.SetSheetRow(workingSetSheet, "A1", &headers); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(workingSetSheet, 1, 1, headerStyle); err != nil {
		return nil, err
	}

	for i, r := range st.WorkingSet {
		jobName := ""
		if j, ok := st.Job(r.JobID()); ok {
			jobName = j.Name
		}
		h := r.Hours()
		row := []interface{}{
			r.JobID(),
			jobName,
			r.CrewMember(),
			r.EmployeeID(),
			r.ShiftCount(),
			h.Regular.InexactFloat64(),
			h.OT.InexactFloat64(),
			h.OT2.InexactFloat64(),
			h.QC.InexactFloat64(),
			r.Total().InexactFloat64(),
			strings.Join(r.Tags(), ", "),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(workingSetSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(workingSetSheet, "A", "D", 24)
	_ = f.SetColWidth(workingSetSheet, "E", "K", 12)

	if len(st.Warnings) > 0 {
		if _, err := f.NewSheet(warningsSheet); err != nil {
			return nil, err
		}
		header := []interface{}{"Sheet", "Row", "Reason", "Value"}
		if err := f.SetSheetRow(warningsSheet, "A1", &header); err != nil {
			return nil, err
		}
		for i, w := range st.Warnings {
			row := []interface{}{w.Sheet, w.Row, w.Reason, w.Value}
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(warningsSheet, cell, &row); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
