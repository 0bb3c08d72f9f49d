package reconciliation

import (
	"time"

	"go-crewperf/internal/events"
	"go-crewperf/internal/jobmatch"
	"go-crewperf/internal/shiftagg"
	"go-crewperf/internal/shiftextract"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type BeginRequest struct {
	Branch      string `json:"branch"`
	PeriodStart string `json:"period_start" binding:"omitempty,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end" binding:"omitempty,datetime=2006-01-02"`
}

type ImportJobsRequest struct {
	Jobs []events.ImportedJob `json:"jobs" binding:"required,min=1"`
}

// MatchOverride pins a job to a sheet job name; a null name pins it to
// "no match".
type MatchOverride struct {
	JobID        string  `json:"job_id" binding:"required"`
	SheetJobName *string `json:"sheet_job_name"`
}

type ConfirmMatchesRequest struct {
	ExpectedVersion *int64          `json:"expected_version"`
	Matches         []MatchOverride `json:"matches" binding:"dive"`
	AcceptProposals bool            `json:"accept_proposals"`
}

const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpDelete = "delete"
)

// EditOp changes one working-set row. It has no total field; totals
// come from the buckets.
type EditOp struct {
	Op           string           `json:"op" binding:"required,oneof=add update delete"`
	RowID        string           `json:"row_id"`
	JobID        string           `json:"job_id"`
	CrewMember   *string          `json:"crew_member"`
	ShiftCount   *int             `json:"shift_count" binding:"omitempty,min=0"`
	RegularHours *decimal.Decimal `json:"regular_hours"`
	OTHours      *decimal.Decimal `json:"ot_hours"`
	OT2Hours     *decimal.Decimal `json:"ot2_hours"`
	QCHours      *decimal.Decimal `json:"qc_hours"`
	Tags         *[]string        `json:"tags"`
}

type EditWorkingSetRequest struct {
	ExpectedVersion int64    `json:"expected_version" binding:"required,min=1"`
	Ops             []EditOp `json:"ops" binding:"required,min=1,dive"`
}

type CommitRequest struct {
	JobIDs      []string `json:"job_ids"`
	JobNames    []string `json:"job_names"`
	AutoApprove bool     `json:"auto_approve"`
}

type JobResponse struct {
	SessionJob
	Committed bool `json:"committed"`
}

type SessionResponse struct {
	ID                  string                     `json:"id"`
	Reference           string                     `json:"reference"`
	Branch              string                     `json:"branch,omitempty"`
	PeriodStart         *string                    `json:"period_start"`
	PeriodEnd           *string                    `json:"period_end"`
	Status              string                     `json:"status"`
	Version             int64                      `json:"version"`
	SourceFilename      string                     `json:"source_filename,omitempty"`
	Jobs                []JobResponse              `json:"jobs"`
	RawRowCount         int                        `json:"raw_row_count"`
	DroppedRows         int                        `json:"dropped_rows"`
	Warnings            []shiftextract.Warning     `json:"warnings"`
	SheetJobNames       []string                   `json:"sheet_job_names"`
	Matches             []jobmatch.JobNameMatch    `json:"matches"`
	UnmatchedSheetNames []string                   `json:"unmatched_sheet_names"`
	WorkingSet          []shiftagg.AggregatedShift `json:"working_set"`
	CommittedJobIDs     []string                   `json:"committed_job_ids"`
	CreatedBy           string                     `json:"created_by,omitempty"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
	CommittedAt         *time.Time                 `json:"committed_at,omitempty"`
}

type CommittedJob struct {
	JobID    string   `json:"job_id"`
	ShiftIDs []string `json:"shift_ids"`
	Status   string   `json:"status"`
}

type CommitResponse struct {
	Session   SessionResponse `json:"session"`
	Committed []CommittedJob  `json:"committed"`
}

// Export is a rendered working-set download.
type Export struct {
	Filename string
	Content  []byte
}

func mapToResponse(s *Session, st State) SessionResponse {
	jobs := make([]JobResponse, 0, len(st.Jobs))
	for _, j := range st.Jobs {
		jobs = append(jobs, JobResponse{SessionJob: j, Committed: st.IsCommitted(j.ExternalID)})
	}

	return SessionResponse{
		ID:                  s.ID.String(),
		Reference:           s.Reference,
		Branch:              s.Branch,
		PeriodStart:         formatDate(s.PeriodStart),
		PeriodEnd:           formatDate(s.PeriodEnd),
		Status:              s.Status,
		Version:             s.Version,
		SourceFilename:      s.SourceFilename,
		Jobs:                jobs,
		RawRowCount:         len(st.RawRows),
		DroppedRows:         s.DroppedRows,
		Warnings:            nonNil(st.Warnings),
		SheetJobNames:       st.SheetJobNames(),
		Matches:             nonNil(st.Matches),
		UnmatchedSheetNames: nonNil(st.UnmatchedNames),
		WorkingSet:          nonNil(st.WorkingSet),
		CommittedJobIDs:     nonNil(st.Committed),
		CreatedBy:           s.CreatedBy,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		CommittedAt:         s.CommittedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(dateLayout)
	return &v
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
