// Package shiftextract turns an uploaded time-tracking worksheet into raw
// shift rows. Rows that cannot be read are dropped and reported as
// warnings; they never abort the rest of the file.
package shiftextract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryRegular Category = "regular"
	CategoryOT      Category = "ot"
	CategoryOT2     Category = "ot2"
	CategoryQC      Category = "qc"
)

// headerScanRows bounds how far down a sheet the header row may sit.
const headerScanRows = 15

var (
	ErrNoHeader          = errors.New("no shift header row found")
	ErrUnsupportedFormat = errors.New("unsupported worksheet format")
	ErrEmptyWorkbook     = errors.New("worksheet file contains no sheets")
)

// NoHeaderError lists the sheets that were scanned without finding a header.
type NoHeaderError struct {
	Sheets []string
}

func (e *NoHeaderError) Error() string {
	return fmt.Sprintf("no shift header row found in sheets: %s", strings.Join(e.Sheets, ", "))
}

func (e *NoHeaderError) Unwrap() error {
	return ErrNoHeader
}

type Worksheet struct {
	Name string
	Rows [][]string
}

type RawShiftRow struct {
	Sheet        string          `json:"sheet"`
	Row          int             `json:"row"`
	SheetJobName string          `json:"sheet_job_name"`
	CrewMember   string          `json:"crew_member"`
	WorkedDate   *time.Time      `json:"worked_date,omitempty"`
	Hours        decimal.Decimal `json:"hours"`
	Category     Category        `json:"category"`
	Tag          string          `json:"tag,omitempty"`
}

// Warning describes one dropped row. Row is 1-based; 0 means the whole sheet.
type Warning struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
	Value  string `json:"value,omitempty"`
}

type Result struct {
	Rows        []RawShiftRow `json:"rows"`
	Warnings    []Warning     `json:"warnings"`
	DroppedRows int           `json:"dropped_rows"`
}

// SheetJobNames returns every job name that appears in the extracted rows.
func (r Result) SheetJobNames() []string {
	out := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row.SheetJobName)
	}
	return out
}

const (
	reasonMissingJob    = "missing job name"
	reasonMissingMember = "missing crew member"
	reasonMissingHours  = "missing hours"
	reasonInvalidHours  = "hours are not a number"
	reasonNegativeHours = "hours are negative"
	reasonNoHeader      = "no header row found, sheet skipped"
)

// ExtractFile reads the workbook then extracts every sheet.
func ExtractFile(filename string, content []byte) (Result, error) {
	sheets, err := ReadWorkbook(filename, content)
	if err != nil {
		return Result{}, err
	}
	return Extract(sheets)
}

// Extract fails only when no sheet carries a recognizable header.
func Extract(sheets []Worksheet) (Result, error) {
	if len(sheets) == 0 {
		return Result{}, ErrEmptyWorkbook
	}

	res := Result{Rows: []RawShiftRow{}, Warnings: []Warning{}}
	var headerless []string

	for _, sheet := range sheets {
		headerIdx, cols, ok := detectHeader(sheet.Rows)
		if !ok {
			headerless = append(headerless, sheet.Name)
			continue
		}
		extractSheet(&res, sheet, headerIdx, cols)
	}

	if len(headerless) == len(sheets) {
		return Result{}, &NoHeaderError{Sheets: headerless}
	}
	for _, name := range headerless {
		res.Warnings = append(res.Warnings, Warning{Sheet: name, Reason: reasonNoHeader})
	}

	return res, nil
}

func extractSheet(res *Result, sheet Worksheet, headerIdx int, cols columns) {
	for i := headerIdx + 1; i < len(sheet.Rows); i++ {
		cells := normalizeCells(sheet.Rows[i])
		rowNo := i + 1

		if isBlank(cells) || (cols.crewMember(cells) == "" && isMetadataRow(cells)) {
			continue
		}

		drop := func(reason, value string) {
			res.DroppedRows++
			res.Warnings = append(res.Warnings, Warning{Sheet: sheet.Name, Row: rowNo, Reason: reason, Value: value})
		}

		jobName := pickCell(cells, cols.job)
		if jobName == "" {
			drop(reasonMissingJob, "")
			continue
		}

		member := cols.crewMember(cells)
		if member == "" {
			drop(reasonMissingMember, "")
			continue
		}

		date := parseDate(pickCell(cells, cols.date))
		categoryCell := pickCell(cells, cols.category)
		notes := pickCell(cells, cols.notes)
		tag := categoryCell
		if tag == "" {
			tag = notes
		}

		base := RawShiftRow{
			Sheet:        sheet.Name,
			Row:          rowNo,
			SheetJobName: jobName,
			CrewMember:   member,
			WorkedDate:   date,
			Tag:          tag,
		}

		if cols.hasBuckets() {
			rows, reason, value := bucketRows(base, cells, cols, categoryCell, notes)
			if reason != "" {
				drop(reason, value)
				continue
			}
			res.Rows = append(res.Rows, rows...)
			continue
		}

		hoursCell := pickCell(cells, cols.hours)
		if hoursCell == "" {
			drop(reasonMissingHours, "")
			continue
		}
		hours, err := ParseHours(hoursCell)
		if err != nil {
			drop(hoursReason(err), hoursCell)
			continue
		}

		base.Hours = hours
		base.Category = categorize(categoryCell, jobName, notes)
		res.Rows = append(res.Rows, base)
	}
}

// bucketRows emits one raw row per non-zero regular/ot/2ot cell.
func bucketRows(base RawShiftRow, cells []string, cols columns, categoryCell, notes string) ([]RawShiftRow, string, string) {
	regularCategory := CategoryRegular
	if categorize(categoryCell, base.SheetJobName, notes) == CategoryQC {
		regularCategory = CategoryQC
	}

	buckets := []struct {
		idx      int
		category Category
	}{
		{cols.regular, regularCategory},
		{cols.ot, CategoryOT},
		{cols.ot2, CategoryOT2},
	}

	out := make([]RawShiftRow, 0, len(buckets))
	for _, b := range buckets {
		cell := pickCell(cells, b.idx)
		if cell == "" {
			continue
		}
		hours, err := ParseHours(cell)
		if err != nil {
			return nil, hoursReason(err), cell
		}
		if hours.IsZero() {
			continue
		}
		row := base
		row.Hours = hours
		row.Category = b.category
		out = append(out, row)
	}

	if len(out) == 0 {
		return nil, reasonMissingHours, ""
	}
	return out, "", ""
}

func hoursReason(err error) string {
	if errors.Is(err, ErrNegativeHours) {
		return reasonNegativeHours
	}
	return reasonInvalidHours
}

func normalizeCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = normalizeSpaces(c)
	}
	return out
}

func normalizeSpaces(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

func pickCell(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return cells[idx]
	}
	return ""
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

var metadataPrefixes = []string{"total", "grand total", "subtotal", "sub total", "generated", "report", "page ", "printed", "exported"}

// isMetadataRow recognizes summary and footer lines by their leading cell.
func isMetadataRow(cells []string) bool {
	for _, c := range cells {
		if c == "" {
			continue
		}
		lower := strings.ToLower(c)
		for _, p := range metadataPrefixes {
			if strings.HasPrefix(lower, p) {
				return true
			}
		}
		return false
	}
	return false
}
