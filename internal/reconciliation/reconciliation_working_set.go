package reconciliation

import (
	"sort"
	"strings"

	reconciliationerrors "go-crewperf/internal/reconciliation/errors"
	"go-crewperf/internal/shiftagg"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// applyEdits runs ops against a copy of the working set. Either every op
// applies or the first failing one is returned with its index and row id,
// leaving st untouched. touched lists the rows added or renamed.
func applyEdits(st State, ops []EditOp) (rows []shiftagg.AggregatedShift, touched []string, err error) {
	rows = append([]shiftagg.AggregatedShift(nil), st.WorkingSet...)

	for i, op := range ops {
		switch op.Op {
		case OpAdd:
			var row shiftagg.AggregatedShift
			row, err = buildAddedRow(st, rows, i, op)
			if err != nil {
				return nil, nil, err
			}
			rows = withoutPlaceholder(rows, row.JobID())
			rows = append(rows, row)
			touched = append(touched, row.RowID())

		case OpUpdate:
			idx := findRow(rows, op.RowID)
			if idx < 0 {
				return nil, nil, reconciliationerrors.ErrRowNotFound.WithDetails(map[string]any{"index": i, "row_id": op.RowID})
			}
			var row shiftagg.AggregatedShift
			var renamed bool
			row, renamed, err = buildUpdatedRow(rows, idx, i, op)
			if err != nil {
				return nil, nil, err
			}
			rows[idx] = row
			if renamed {
				touched = append(touched, row.RowID())
			}

		case OpDelete:
			idx := findRow(rows, op.RowID)
			if idx < 0 {
				return nil, nil, reconciliationerrors.ErrRowNotFound.WithDetails(map[string]any{"index": i, "row_id": op.RowID})
			}
			rows = append(rows[:idx:idx], rows[idx+1:]...)

		default:
			return nil, nil, invalidEdit(i, op.RowID, "op must be add, update or delete")
		}
	}

	rows, err = ensurePlaceholders(rows, st.UncommittedJobIDs())
	if err != nil {
		return nil, nil, err
	}
	sortWorkingSet(rows, st.Jobs)
	return rows, touched, nil
}

func buildAddedRow(st State, rows []shiftagg.AggregatedShift, index int, op EditOp) (shiftagg.AggregatedShift, error) {
	jobID := strings.TrimSpace(op.JobID)
	if jobID == "" {
		return shiftagg.AggregatedShift{}, invalidEdit(index, "", "job_id is required")
	}
	if _, ok := st.Job(jobID); !ok {
		return shiftagg.AggregatedShift{}, reconciliationerrors.ErrUnknownJob.WithDetails(map[string]any{"index": index, "job_id": jobID})
	}
	if st.IsCommitted(jobID) {
		return shiftagg.AggregatedShift{}, reconciliationerrors.ErrJobAlreadyCommitted.WithDetails(map[string]any{"index": index, "job_id": jobID})
	}

	member := ""
	if op.CrewMember != nil {
		member = strings.TrimSpace(*op.CrewMember)
	}
	if member == "" {
		return shiftagg.AggregatedShift{}, invalidEdit(index, "", "crew_member is required")
	}
	key := shiftagg.MemberKey(member)
	rowID := shiftagg.RowID(jobID, key)
	if memberTaken(rows, jobID, key, "") {
		return shiftagg.AggregatedShift{}, invalidEdit(index, rowID, "crew member already has a row for this job, update it instead")
	}
	if findRow(rows, rowID) >= 0 {
		// a renamed row still carries this id
		rowID = uuid.NewString()
	}

	f := shiftagg.Fields{
		RowID:      rowID,
		JobID:      jobID,
		CrewMember: member,
		ShiftCount: 1,
		Hours: shiftagg.Hours{
			Regular: decimal.Zero,
			OT:      decimal.Zero,
			OT2:     decimal.Zero,
			QC:      decimal.Zero,
		},
	}
	applyOverrides(&f, op)

	row, err := shiftagg.NewAggregatedShift(f)
	if err != nil {
		return shiftagg.AggregatedShift{}, invalidEdit(index, rowID, err.Error())
	}
	return row, nil
}

func buildUpdatedRow(rows []shiftagg.AggregatedShift, idx, index int, op EditOp) (shiftagg.AggregatedShift, bool, error) {
	f := rows[idx].Fields()
	if jobID := strings.TrimSpace(op.JobID); jobID != "" && jobID != f.JobID {
		return shiftagg.AggregatedShift{}, false, invalidEdit(index, f.RowID, "a row cannot move to another job")
	}

	renamed := false
	if op.CrewMember != nil {
		member := strings.TrimSpace(*op.CrewMember)
		if member == "" {
			return shiftagg.AggregatedShift{}, false, invalidEdit(index, f.RowID, "crew_member cannot be blank")
		}
		if memberTaken(rows, f.JobID, shiftagg.MemberKey(member), f.RowID) {
			return shiftagg.AggregatedShift{}, false, invalidEdit(index, f.RowID, "crew member already has a row for this job")
		}
		if shiftagg.MemberKey(member) != shiftagg.MemberKey(f.CrewMember) {
			f.EmployeeID = ""
			renamed = true
		}
		f.CrewMember = member
	}
	applyOverrides(&f, op)

	row, err := shiftagg.NewAggregatedShift(f)
	if err != nil {
		return shiftagg.AggregatedShift{}, false, invalidEdit(index, f.RowID, err.Error())
	}
	return row, renamed, nil
}

func applyOverrides(f *shiftagg.Fields, op EditOp) {
	if op.ShiftCount != nil {
		f.ShiftCount = *op.ShiftCount
	}
	if op.RegularHours != nil {
		f.Hours.Regular = *op.RegularHours
	}
	if op.OTHours != nil {
		f.Hours.OT = *op.OTHours
	}
	if op.OT2Hours != nil {
		f.Hours.OT2 = *op.OT2Hours
	}
	if op.QCHours != nil {
		f.Hours.QC = *op.QCHours
	}
	if op.Tags != nil {
		f.Tags = append([]string(nil), (*op.Tags)...)
	}
}

func invalidEdit(index int, rowID, reason string) error {
	details := map[string]any{"index": index, "reason": reason}
	if rowID != "" {
		details["row_id"] = rowID
	}
	return reconciliationerrors.ErrInvalidEdit.WithDetails(details)
}

func findRow(rows []shiftagg.AggregatedShift, rowID string) int {
	if rowID == "" {
		return -1
	}
	for i, r := range rows {
		if r.RowID() == rowID {
			return i
		}
	}
	return -1
}

func memberTaken(rows []shiftagg.AggregatedShift, jobID, key, exceptRowID string) bool {
	for _, r := range rows {
		if r.JobID() != jobID || r.RowID() == exceptRowID || r.IsPlaceholder() {
			continue
		}
		if shiftagg.MemberKey(r.CrewMember()) == key {
			return true
		}
	}
	return false
}

func withoutPlaceholder(rows []shiftagg.AggregatedShift, jobID string) []shiftagg.AggregatedShift {
	out := rows[:0:0]
	for _, r := range rows {
		if r.JobID() == jobID && r.IsPlaceholder() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ensurePlaceholders keeps every uncommitted job visible with at least one row.
func ensurePlaceholders(rows []shiftagg.AggregatedShift, jobIDs []string) ([]shiftagg.AggregatedShift, error) {
	has := make(map[string]bool, len(jobIDs))
	for _, r := range rows {
		has[r.JobID()] = true
	}
	for _, id := range jobIDs {
		if has[id] {
			continue
		}
		p, err := shiftagg.NewPlaceholder(id)
		if err != nil {
			return nil, err
		}
		rows = append(rows, p)
		has[id] = true
	}
	return rows, nil
}

// sortWorkingSet orders rows by import order of their job, then by crew
// member, with a job's placeholder first.
func sortWorkingSet(rows []shiftagg.AggregatedShift, jobs []SessionJob) {
	order := make(map[string]int, len(jobs))
	for i, j := range jobs {
		order[j.ExternalID] = i
	}
	rank := func(jobID string) int {
		if i, ok := order[jobID]; ok {
			return i
		}
		return len(jobs)
	}
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rank(rows[a].JobID()), rank(rows[b].JobID())
		if ra != rb {
			return ra < rb
		}
		if rows[a].JobID() != rows[b].JobID() {
			return rows[a].JobID() < rows[b].JobID()
		}
		if rows[a].IsPlaceholder() != rows[b].IsPlaceholder() {
			return rows[a].IsPlaceholder()
		}
		return shiftagg.MemberKey(rows[a].CrewMember()) < shiftagg.MemberKey(rows[b].CrewMember())
	})
}

// withoutJobs drops every row of the given jobs.
func withoutJobs(rows []shiftagg.AggregatedShift, jobIDs []string) []shiftagg.AggregatedShift {
	drop := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		drop[id] = true
	}
	out := make([]shiftagg.AggregatedShift, 0, len(rows))
	for _, r := range rows {
		if !drop[r.JobID()] {
			out = append(out, r)
		}
	}
	return out
}

func hasCrewRows(rows []shiftagg.AggregatedShift) bool {
	for _, r := range rows {
		if !r.IsPlaceholder() {
			return true
		}
	}
	return false
}
