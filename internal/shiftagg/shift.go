package shiftagg

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingJob        = errors.New("job id is required")
	ErrMissingCrewMember = errors.New("crew member is required")
	ErrNegativeHours     = errors.New("hours cannot be negative")
	ErrQCExceedsRegular  = errors.New("qc hours cannot exceed regular hours")
	ErrNegativeCount     = errors.New("shift count cannot be negative")
)

// HoursPlaces is the precision hours are stored with.
const HoursPlaces int32 = 2

// Hours is the bucket split of one row. QC hours are the part of Regular
// worked as quality control; they are not a fourth bucket.
type Hours struct {
	Regular decimal.Decimal `json:"regular_hours"`
	OT      decimal.Decimal `json:"ot_hours"`
	OT2     decimal.Decimal `json:"ot2_hours"`
	QC      decimal.Decimal `json:"qc_hours"`
}

func (h Hours) Total() decimal.Decimal {
	return h.Regular.Add(h.OT).Add(h.OT2)
}

func (h Hours) rounded() Hours {
	return Hours{
		Regular: h.Regular.Round(HoursPlaces),
		OT:      h.OT.Round(HoursPlaces),
		OT2:     h.OT2.Round(HoursPlaces),
		QC:      h.QC.Round(HoursPlaces),
	}
}

// Fields is the editable description of a row. It has no total.
type Fields struct {
	RowID       string
	JobID       string
	CrewMember  string
	EmployeeID  string
	ShiftCount  int
	Hours       Hours
	Tags        []string
	Placeholder bool
	// QCTagged is set when any contributing row was tagged QC, even one
	// with zero hours.
	QCTagged bool
}

// AggregatedShift is one (job, crew member) row of the working set. Its
// fields are private so the total can only come from NewAggregatedShift.
type AggregatedShift struct {
	f     Fields
	total decimal.Decimal
}

// NewAggregatedShift validates the buckets, rounds each to HoursPlaces and
// derives the total from the rounded buckets.
func NewAggregatedShift(f Fields) (AggregatedShift, error) {
	if f.JobID == "" {
		return AggregatedShift{}, ErrMissingJob
	}
	if f.ShiftCount < 0 {
		return AggregatedShift{}, ErrNegativeCount
	}
	for name, v := range map[string]decimal.Decimal{
		"regular_hours": f.Hours.Regular,
		"ot_hours":      f.Hours.OT,
		"ot2_hours":     f.Hours.OT2,
		"qc_hours":      f.Hours.QC,
	} {
		if v.IsNegative() {
			return AggregatedShift{}, fmt.Errorf("%s: %w", name, ErrNegativeHours)
		}
	}
	f.Hours = f.Hours.rounded()
	if f.Hours.QC.GreaterThan(f.Hours.Regular) {
		return AggregatedShift{}, ErrQCExceedsRegular
	}

	total := f.Hours.Total()
	if f.CrewMember == "" {
		if !f.Placeholder || !total.IsZero() {
			return AggregatedShift{}, ErrMissingCrewMember
		}
	} else {
		f.Placeholder = false
	}
	if f.Hours.QC.IsPositive() {
		f.QCTagged = true
	}

	f.Tags = normalizeTags(f.Tags)
	return AggregatedShift{f: f, total: total}, nil
}

func (s AggregatedShift) RowID() string          { return s.f.RowID }
func (s AggregatedShift) JobID() string          { return s.f.JobID }
func (s AggregatedShift) CrewMember() string     { return s.f.CrewMember }
func (s AggregatedShift) EmployeeID() string     { return s.f.EmployeeID }
func (s AggregatedShift) ShiftCount() int        { return s.f.ShiftCount }
func (s AggregatedShift) Hours() Hours           { return s.f.Hours }
func (s AggregatedShift) Total() decimal.Decimal { return s.total }
func (s AggregatedShift) HasQC() bool            { return s.f.QCTagged }
func (s AggregatedShift) IsPlaceholder() bool    { return s.f.Placeholder }

func (s AggregatedShift) Tags() []string {
	return append([]string(nil), s.f.Tags...)
}

// Fields returns a copy for editing; feed it back into NewAggregatedShift.
func (s AggregatedShift) Fields() Fields {
	f := s.f
	f.Tags = s.Tags()
	return f
}

type shiftJSON struct {
	RowID        string          `json:"row_id"`
	JobID        string          `json:"job_id"`
	CrewMember   string          `json:"crew_member"`
	EmployeeID   string          `json:"employee_id,omitempty"`
	ShiftCount   int             `json:"shift_count"`
	RegularHours decimal.Decimal `json:"regular_hours"`
	OTHours      decimal.Decimal `json:"ot_hours"`
	OT2Hours     decimal.Decimal `json:"ot2_hours"`
	QCHours      decimal.Decimal `json:"qc_hours"`
	TotalHours   decimal.Decimal `json:"total_hours"`
	HasQC        bool            `json:"has_qc"`
	Tags         []string        `json:"tags,omitempty"`
	Placeholder  bool            `json:"placeholder"`
}

func (s AggregatedShift) MarshalJSON() ([]byte, error) {
	return json.Marshal(shiftJSON{
		RowID:        s.f.RowID,
		JobID:        s.f.JobID,
		CrewMember:   s.f.CrewMember,
		EmployeeID:   s.f.EmployeeID,
		ShiftCount:   s.f.ShiftCount,
		RegularHours: s.f.Hours.Regular,
		OTHours:      s.f.Hours.OT,
		OT2Hours:     s.f.Hours.OT2,
		QCHours:      s.f.Hours.QC,
		TotalHours:   s.total,
		HasQC:        s.HasQC(),
		Tags:         s.f.Tags,
		Placeholder:  s.f.Placeholder,
	})
}

// UnmarshalJSON ignores total_hours and re-derives it.
func (s *AggregatedShift) UnmarshalJSON(data []byte) error {
	var raw shiftJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := NewAggregatedShift(Fields{
		RowID:      raw.RowID,
		JobID:      raw.JobID,
		CrewMember: raw.CrewMember,
		EmployeeID: raw.EmployeeID,
		ShiftCount: raw.ShiftCount,
		Hours: Hours{
			Regular: raw.RegularHours,
			OT:      raw.OTHours,
			OT2:     raw.OT2Hours,
			QC:      raw.QCHours,
		},
		Tags:        raw.Tags,
		Placeholder: raw.Placeholder,
		QCTagged:    raw.HasQC,
	})
	if err != nil {
		return fmt.Errorf("row %s: %w", raw.RowID, err)
	}
	*s = built
	return nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
