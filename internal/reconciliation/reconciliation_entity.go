package reconciliation

import (
	"encoding/json"
	"fmt"
	"time"

	"go-crewperf/internal/events"
	"go-crewperf/internal/jobmatch"
	"go-crewperf/internal/shiftagg"
	"go-crewperf/internal/shiftextract"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusCollecting     = "collecting"
	StatusReadyForReview = "ready_for_review"
	StatusCommitted      = "committed"
	StatusAbandoned      = "abandoned"

	ReferencePrefix = "REC"
)

// Session is one reconciliation run. The working state lives in jsonb
// columns and is decoded into State for every operation.
type Session struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID       uuid.UUID `gorm:"type:uuid;index"`
	Reference       string    `gorm:"not null"`
	Branch          string
	PeriodStart     *time.Time `gorm:"type:date"`
	PeriodEnd       *time.Time `gorm:"type:date"`
	Status          string     `gorm:"not null;index"`
	Version         int64      `gorm:"not null;default:1"`
	SourceFilename  string
	Jobs            datatypes.JSON `gorm:"type:jsonb"`
	RawRows         datatypes.JSON `gorm:"type:jsonb"`
	Warnings        datatypes.JSON `gorm:"type:jsonb"`
	DroppedRows     int            `gorm:"not null;default:0"`
	Matches         datatypes.JSON `gorm:"type:jsonb"`
	UnmatchedNames  datatypes.JSON `gorm:"type:jsonb"`
	WorkingSet      datatypes.JSON `gorm:"type:jsonb"`
	CommittedJobIDs datatypes.JSON `gorm:"type:jsonb"`
	CreatedBy       string
	CommittedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Session) TableName() string {
	return "reconciliation_sessions"
}

func (s Session) Closed() bool {
	return s.Status == StatusCommitted || s.Status == StatusAbandoned
}

// SessionJob is an imported job as delivered, plus when it arrived.
type SessionJob struct {
	events.ImportedJob
	ReceivedAt time.Time `json:"received_at"`
}

// State is the decoded working state of a session.
type State struct {
	Jobs           []SessionJob
	RawRows        []shiftextract.RawShiftRow
	Warnings       []shiftextract.Warning
	Matches        []jobmatch.JobNameMatch
	UnmatchedNames []string
	WorkingSet     []shiftagg.AggregatedShift
	Committed      []string
}

func (st State) Job(jobID string) (SessionJob, bool) {
	for _, j := range st.Jobs {
		if j.ExternalID == jobID {
			return j, true
		}
	}
	return SessionJob{}, false
}

func (st State) IsCommitted(jobID string) bool {
	for _, id := range st.Committed {
		if id == jobID {
			return true
		}
	}
	return false
}

// UncommittedJobIDs keeps import order.
func (st State) UncommittedJobIDs() []string {
	out := make([]string, 0, len(st.Jobs))
	for _, j := range st.Jobs {
		if !st.IsCommitted(j.ExternalID) {
			out = append(out, j.ExternalID)
		}
	}
	return out
}

func (st State) SheetJobNames() []string {
	names := make([]string, 0, len(st.RawRows))
	for _, r := range st.RawRows {
		names = append(names, r.SheetJobName)
	}
	return jobmatch.DistinctNames(names)
}

func (st State) MatchIndex(jobID string) int {
	for i, m := range st.Matches {
		if m.JobID == jobID {
			return i
		}
	}
	return -1
}

// RowsForJob returns the job's crew rows, leaving out its placeholder.
func (st State) RowsForJob(jobID string) []shiftagg.AggregatedShift {
	var out []shiftagg.AggregatedShift
	for _, r := range st.WorkingSet {
		if r.JobID() == jobID && !r.IsPlaceholder() {
			out = append(out, r)
		}
	}
	return out
}

// DecodeState reads the jsonb columns. Working-set rows re-derive their
// totals while decoding.
func (s *Session) DecodeState() (State, error) {
	var st State
	cols := []struct {
		name string
		raw  datatypes.JSON
		dst  any
	}{
		{"jobs", s.Jobs, &st.Jobs},
		{"raw_rows", s.RawRows, &st.RawRows},
		{"warnings", s.Warnings, &st.Warnings},
		{"matches", s.Matches, &st.Matches},
		{"unmatched_names", s.UnmatchedNames, &st.UnmatchedNames},
		{"working_set", s.WorkingSet, &st.WorkingSet},
		{"committed_job_ids", s.CommittedJobIDs, &st.Committed},
	}
	for _, c := range cols {
		if len(c.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(c.raw, c.dst); err != nil {
			return State{}, fmt.Errorf("decode session %s %s: %w", s.ID, c.name, err)
		}
	}
	return st, nil
}

func (s *Session) EncodeState(st State) error {
	cols := []struct {
		name string
		src  any
		dst  *datatypes.JSON
	}{
		{"jobs", nonNil(st.Jobs), &s.Jobs},
		{"raw_rows", nonNil(st.RawRows), &s.RawRows},
		{"warnings", nonNil(st.Warnings), &s.Warnings},
		{"matches", nonNil(st.Matches), &s.Matches},
		{"unmatched_names", nonNil(st.UnmatchedNames), &s.UnmatchedNames},
		{"working_set", nonNil(st.WorkingSet), &s.WorkingSet},
		{"committed_job_ids", nonNil(st.Committed), &s.CommittedJobIDs},
	}
	for _, c := range cols {
		data, err := json.Marshal(c.src)
		if err != nil {
			return fmt.Errorf("encode session %s %s: %w", s.ID, c.name, err)
		}
		*c.dst = datatypes.JSON(data)
	}
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
