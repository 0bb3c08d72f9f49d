package shiftextract

import (
	"strings"
	"unicode"
)

type columnKind int

const (
	colNone columnKind = iota
	colJob
	colMember
	colFirstName
	colLastName
	colDate
	colHours
	colCategory
	colNotes
	colRegular
	colOT
	colOT2
)

// exact header spellings, compared after lowercasing and stripping punctuation.
var headerSynonyms = map[string]columnKind{
	"job":             colJob,
	"job name":        colJob,
	"jobname":         colJob,
	"jobcode":         colJob,
	"job code":        colJob,
	"customer":        colJob,
	"project":         colJob,
	"project name":    colJob,
	"employee":        colMember,
	"employee name":   colMember,
	"crew member":     colMember,
	"member":          colMember,
	"name":            colMember,
	"full name":       colMember,
	"worker":          colMember,
	"technician":      colMember,
	"first name":      colFirstName,
	"fname":           colFirstName,
	"last name":       colLastName,
	"lname":           colLastName,
	"date":            colDate,
	"local date":      colDate,
	"work date":       colDate,
	"shift date":      colDate,
	"day":             colDate,
	"hours":           colHours,
	"hrs":             colHours,
	"total hours":     colHours,
	"duration":        colHours,
	"worked hours":    colHours,
	"type":            colCategory,
	"category":        colCategory,
	"pay type":        colCategory,
	"shift type":      colCategory,
	"tag":             colCategory,
	"notes":           colNotes,
	"note":            colNotes,
	"comment":         colNotes,
	"comments":        colNotes,
	"regular":         colRegular,
	"regular hours":   colRegular,
	"reg":             colRegular,
	"reg hours":       colRegular,
	"ot":              colOT,
	"ot hours":        colOT,
	"overtime":        colOT,
	"overtime hours":  colOT,
	"2ot":             colOT2,
	"2ot hours":       colOT2,
	"double ot":       colOT2,
	"double overtime": colOT2,
	"double time":     colOT2,
	"dt":              colOT2,
}

// containment probes for headers that are not an exact synonym, checked in order.
var headerProbes = []struct {
	probe string
	kind  columnKind
}{
	{"double", colOT2},
	{"2ot", colOT2},
	{"overtime", colOT},
	{"regular", colRegular},
	{"job", colJob},
	{"employee", colMember},
	{"crew", colMember},
	{"date", colDate},
	{"hours", colHours},
	{"note", colNotes},
}

type columns struct {
	job, member, firstName, lastName int
	date, hours, category, notes     int
	regular, ot, ot2                 int
}

func newColumns() columns {
	return columns{
		job: -1, member: -1, firstName: -1, lastName: -1,
		date: -1, hours: -1, category: -1, notes: -1,
		regular: -1, ot: -1, ot2: -1,
	}
}

func (c columns) hasBuckets() bool {
	return c.regular >= 0 || c.ot >= 0 || c.ot2 >= 0
}

func (c columns) valid() bool {
	hasMember := c.member >= 0 || c.firstName >= 0 || c.lastName >= 0
	return c.job >= 0 && hasMember && (c.hours >= 0 || c.hasBuckets())
}

func (c columns) crewMember(cells []string) string {
	if c.member >= 0 {
		if v := pickCell(cells, c.member); v != "" {
			return v
		}
	}
	first := pickCell(cells, c.firstName)
	last := pickCell(cells, c.lastName)
	return strings.TrimSpace(first + " " + last)
}

func (c *columns) set(kind columnKind, idx int) {
	slot := c.slot(kind)
	if slot != nil && *slot < 0 {
		*slot = idx
	}
}

func (c *columns) slot(kind columnKind) *int {
	switch kind {
	case colJob:
		return &c.job
	case colMember:
		return &c.member
	case colFirstName:
		return &c.firstName
	case colLastName:
		return &c.lastName
	case colDate:
		return &c.date
	case colHours:
		return &c.hours
	case colCategory:
		return &c.category
	case colNotes:
		return &c.notes
	case colRegular:
		return &c.regular
	case colOT:
		return &c.ot
	case colOT2:
		return &c.ot2
	}
	return nil
}

// detectHeader returns the index of the first row, within headerScanRows,
// that names a job column, a crew member column and some hours column.
func detectHeader(rows [][]string) (int, columns, bool) {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		cols := classifyHeader(rows[i])
		if cols.valid() {
			return i, cols, true
		}
	}
	return -1, newColumns(), false
}

func classifyHeader(row []string) columns {
	cols := newColumns()
	for idx, cell := range row {
		h := normalizeHeader(cell)
		if h == "" {
			continue
		}
		if kind, ok := headerSynonyms[h]; ok {
			cols.set(kind, idx)
		}
	}
	// probes only fill columns the exact pass left empty
	for idx, cell := range row {
		h := normalizeHeader(cell)
		if h == "" {
			continue
		}
		if _, ok := headerSynonyms[h]; ok {
			continue
		}
		for _, p := range headerProbes {
			if strings.Contains(h, p.probe) {
				cols.set(p.kind, idx)
				break
			}
		}
	}
	return cols
}

func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
