package jobmatch

import (
	"errors"
	"fmt"
)

var ErrSheetNameTaken = errors.New("sheet job name already mapped to another job")

// ConflictError reports the sheet name and both jobs competing for it.
type ConflictError struct {
	SheetJobName  string
	ExistingJobID string
	JobID         string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("sheet job name %q is mapped to job %s and job %s", e.SheetJobName, e.ExistingJobID, e.JobID)
}

func (e *ConflictError) Unwrap() error {
	return ErrSheetNameTaken
}

// Mapping is a partial injective map from sheet job name to job id.
// Assign refuses to give a sheet name to a second job.
type Mapping struct {
	jobBySheet map[string]string
	sheetByJob map[string]string
}

func NewMapping() *Mapping {
	return &Mapping{
		jobBySheet: make(map[string]string),
		sheetByJob: make(map[string]string),
	}
}

// Assign maps jobID to sheetName, replacing the job's previous name.
func (m *Mapping) Assign(jobID, sheetName string) error {
	if owner, ok := m.jobBySheet[sheetName]; ok && owner != jobID {
		return &ConflictError{SheetJobName: sheetName, ExistingJobID: owner, JobID: jobID}
	}
	m.Unassign(jobID)
	m.jobBySheet[sheetName] = jobID
	m.sheetByJob[jobID] = sheetName
	return nil
}

func (m *Mapping) Unassign(jobID string) {
	if prev, ok := m.sheetByJob[jobID]; ok {
		delete(m.jobBySheet, prev)
		delete(m.sheetByJob, jobID)
	}
}

func (m *Mapping) JobFor(sheetName string) (string, bool) {
	id, ok := m.jobBySheet[sheetName]
	return id, ok
}

func (m *Mapping) SheetFor(jobID string) (string, bool) {
	name, ok := m.sheetByJob[jobID]
	return name, ok
}

// JobsBySheet returns a copy of the sheet name to job id view.
func (m *Mapping) JobsBySheet() map[string]string {
	out := make(map[string]string, len(m.jobBySheet))
	for k, v := range m.jobBySheet {
		out[k] = v
	}
	return out
}

// FromConfirmed rebuilds a mapping from confirmed matches only.
func FromConfirmed(matches []JobNameMatch) (*Mapping, error) {
	m := NewMapping()
	for _, match := range matches {
		if !match.Confirmed || match.SheetJobName == nil {
			continue
		}
		if err := m.Assign(match.JobID, *match.SheetJobName); err != nil {
			return nil, err
		}
	}
	return m, nil
}
