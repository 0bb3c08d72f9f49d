package reconciliation_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"go-crewperf/internal/crew"
	"go-crewperf/internal/crewshift"
	"go-crewperf/internal/events"
	"go-crewperf/internal/job"
	"go-crewperf/internal/messaging/kafka"
	kafkaMock "go-crewperf/internal/messaging/kafka/mock"
	"go-crewperf/internal/reconciliation"
	reconciliationerrors "go-crewperf/internal/reconciliation/errors"
	"go-crewperf/internal/shared/apperror"
	"go-crewperf/internal/shared/counter"
	counterMock "go-crewperf/internal/shared/counter/mock"
	"go-crewperf/internal/shiftagg"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"
)

type fakeSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]reconciliation.Session
	saveFn   func(ctx context.Context, s *reconciliation.Session) error
}

func (f *fakeSessionRepository) WithTx(tx *sql.Tx) reconciliation.Repository {
	return f
}

func (f *fakeSessionRepository) Create(ctx context.Context, s *reconciliation.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID.String()] = *s
	return nil
}

func (f *fakeSessionRepository) FindByID(ctx context.Context, companyID, id string) (*reconciliation.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.CompanyID.String() != companyID {
		return nil, reconciliationerrors.ErrSessionNotFound
	}
	return &s, nil
}

// Save mimics the versioned UPDATE.
func (f *fakeSessionRepository) Save(ctx context.Context, s *reconciliation.Session) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, s)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[s.ID.String()]
	if !ok || stored.Version != s.Version {
		return apperror.ErrStaleState
	}
	s.Version++
	f.sessions[s.ID.String()] = *s
	return nil
}

type fakeJobRepository struct {
	upserted []job.Job
}

func (f *fakeJobRepository) WithTx(tx *sql.Tx) job.Repository { return f }

func (f *fakeJobRepository) Upsert(ctx context.Context, j *job.Job) error {
	f.upserted = append(f.upserted, *j)
	return nil
}

func (f *fakeJobRepository) FindByExternalID(ctx context.Context, companyID, externalID string) (*job.Job, error) {
	for _, j := range f.upserted {
		if j.ExternalID == externalID {
			return &j, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeShiftRepository struct {
	created []crewshift.CrewShift
}

func (f *fakeShiftRepository) WithTx(tx *sql.Tx) crewshift.Repository { return f }

func (f *fakeShiftRepository) CreateBatch(ctx context.Context, shifts []crewshift.CrewShift) error {
	f.created = append(f.created, shifts...)
	return nil
}

func (f *fakeShiftRepository) FindByIDs(ctx context.Context, companyID string, ids []string) ([]crewshift.CrewShift, error) {
	return nil, nil
}

func (f *fakeShiftRepository) FindByJobIDs(ctx context.Context, companyID string, jobIDs []string, statuses ...string) ([]crewshift.CrewShift, error) {
	return nil, nil
}

func (f *fakeShiftRepository) ApplyTransition(ctx context.Context, companyID string, ids []string, t crewshift.Transition) ([]crewshift.CrewShift, error) {
	return nil, nil
}

type fakeDirectory struct {
	employees map[string]string
}

func (f *fakeDirectory) Members(ctx context.Context, companyID string) ([]crew.Member, error) {
	return nil, nil
}

func (f *fakeDirectory) Resolve(ctx context.Context, companyID, name string) (crew.Match, error) {
	if id, ok := f.employees[name]; ok {
		return crew.Match{Found: true, EmployeeID: id, FullName: name, Score: 1}, nil
	}
	return crew.Match{}, nil
}

func (f *fakeDirectory) Invalidate(ctx context.Context, companyID string) error { return nil }

type busyLocker struct{}

func (busyLocker) Lock(ctx context.Context, key string) (func(), error) {
	return nil, reconciliationerrors.ErrSessionBusy
}

type reconciliationDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   reconciliation.Service
	repo      *fakeSessionRepository
	jobs      *fakeJobRepository
	shifts    *fakeShiftRepository
	counter   *counterMock.MockRepository
	outbox    *kafkaMock.MockOutboxRepository
	companyID string
	anaID     string
}

func setupReconciliationTest(t *testing.T, opts reconciliation.Options, locker reconciliation.Locker) *reconciliationDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctrl := gomock.NewController(t)
	deps := &reconciliationDeps{
		db:        db,
		sqlMock:   sqlMock,
		repo:      &fakeSessionRepository{sessions: make(map[string]reconciliation.Session)},
		jobs:      &fakeJobRepository{},
		shifts:    &fakeShiftRepository{},
		counter:   counterMock.NewMockRepository(ctrl),
		outbox:    kafkaMock.NewMockOutboxRepository(ctrl),
		companyID: uuid.NewString(),
		anaID:     uuid.NewString(),
	}
	if locker == nil {
		locker = reconciliation.NewLocalLocker(time.Second)
	}
	directory := &fakeDirectory{employees: map[string]string{"Ana Lopez": deps.anaID}}
	deps.service = reconciliation.NewService(db, deps.repo, deps.counter, deps.jobs, deps.shifts, deps.outbox, locker, directory, opts)
	return deps
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func strPtr(s string) *string { return &s }

func appErrDetails(t *testing.T, err error) map[string]any {
	t.Helper()
	var appErr *apperror.AppError
	if !assert.True(t, errors.As(err, &appErr)) {
		return nil
	}
	switch d := appErr.Details.(type) {
	case map[string]any:
		return d
	case map[string]string:
		out := make(map[string]any, len(d))
		for k, v := range d {
			out[k] = v
		}
		return out
	}
	return nil
}

var worksheetCSV = []byte("Job,Employee,Hours,Type\n" +
	"Smith Residence,Ana Lopez,8,\n" +
	"Smith Residence,ana  lopez,2,QC\n" +
	"Smith Residence,Ben Ortiz,6,\n" +
	"123 Oak St — reroof,Cruz Diaz,7,\n" +
	"Mystery Job,Dee Fox,3,\n")

func importedJobs() reconciliation.ImportJobsRequest {
	return reconciliation.ImportJobsRequest{Jobs: []events.ImportedJob{
		{ExternalID: "J-1", Name: "Smith Residence", EstimatedHours: dec("40"), CrewLeaderPlannedHours: dec("30")},
		{ExternalID: "J-2", Name: "123 Oak Street Reroof"},
	}}
}

func beginSession(t *testing.T, deps *reconciliationDeps) reconciliation.SessionResponse {
	t.Helper()
	deps.counter.EXPECT().
		GetNextValue(gomock.Any(), deps.companyID, counter.TypeReconciliation).
		Return(int64(7), nil)
	resp, err := deps.service.Begin(context.Background(), deps.companyID, "reviewer-1", reconciliation.BeginRequest{
		Branch:      "San Diego",
		PeriodStart: "2026-03-01",
		PeriodEnd:   "2026-03-15",
	})
	assert.NoError(t, err)
	return resp
}

func rowByMember(ws []shiftagg.AggregatedShift, jobID, member string) (shiftagg.AggregatedShift, bool) {
	for _, r := range ws {
		if r.JobID() == jobID && shiftagg.MemberKey(r.CrewMember()) == shiftagg.MemberKey(member) {
			return r, true
		}
	}
	return shiftagg.AggregatedShift{}, false
}

func TestReconciliationService_Begin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates collecting session with reference", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)

		resp := beginSession(t, deps)

		assert.Equal(t, "REC-000007", resp.Reference)
		assert.Equal(t, reconciliation.StatusCollecting, resp.Status)
		assert.Equal(t, int64(1), resp.Version)
		assert.Equal(t, "2026-03-01", *resp.PeriodStart)
		assert.Empty(t, resp.Jobs)
		assert.Empty(t, resp.WorkingSet)
	})

	t.Run("invalid company", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)

		_, err := deps.service.Begin(ctx, "acme", "reviewer-1", reconciliation.BeginRequest{})

		assert.ErrorIs(t, err, reconciliationerrors.ErrInvalidCompanyID)
	})

	t.Run("period end before start", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)

		_, err := deps.service.Begin(ctx, deps.companyID, "reviewer-1", reconciliation.BeginRequest{
			PeriodStart: "2026-03-15",
			PeriodEnd:   "2026-03-01",
		})

		assert.ErrorIs(t, err, reconciliationerrors.ErrInvalidPeriod)
	})
}

func TestReconciliationService_ImportJobs(t *testing.T) {
	ctx := context.Background()

	t.Run("re-delivery updates instead of duplicating", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
		session := beginSession(t, deps)

		_, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, importedJobs())
		assert.NoError(t, err)

		again := importedJobs()
		again.Jobs[0].EstimatedHours = dec("44")
		resp, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, again)

		assert.NoError(t, err)
		assert.Len(t, resp.Jobs, 2)
		assert.True(t, resp.Jobs[0].EstimatedHours.Equal(decimal.NewFromInt(44)))
		assert.Equal(t, int64(3), resp.Version)
	})

	t.Run("invalid job names index and field", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
		session := beginSession(t, deps)

		req := importedJobs()
		req.Jobs[1].Name = "  "
		_, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, req)

		assert.ErrorIs(t, err, reconciliationerrors.ErrInvalidJob)
		details := appErrDetails(t, err)
		assert.Equal(t, 1, details["index"])
		assert.Equal(t, "name", details["field"])

		snapshot, err := deps.service.Get(ctx, deps.companyID, session.ID)
		assert.NoError(t, err)
		assert.Empty(t, snapshot.Jobs)
	})

	t.Run("negative hours rejected", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
		session := beginSession(t, deps)

		req := importedJobs()
		req.Jobs[0].CrewLeaderPlannedHours = dec("-1")
		_, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, req)

		assert.ErrorIs(t, err, reconciliationerrors.ErrInvalidJob)
		assert.Equal(t, "crew_leader_planned_hours", appErrDetails(t, err)["field"])
	})

	t.Run("late job gets proposal and placeholder", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
		session := beginSession(t, deps)
		req := importedJobs()
		req.Jobs = req.Jobs[:1]
		_, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, req)
		assert.NoError(t, err)
		_, err = deps.service.ExtractShifts(ctx, deps.companyID, session.ID, "hours.csv", worksheetCSV)
		assert.NoError(t, err)

		resp, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, reconciliation.ImportJobsRequest{
			Jobs: []events.ImportedJob{{ExternalID: "J-2", Name: "123 Oak Street Reroof"}},
		})

		assert.NoError(t, err)
		assert.Len(t, resp.Matches, 2)
		late := resp.Matches[1]
		assert.Equal(t, "J-2", late.JobID)
		assert.Nil(t, late.SheetJobName)
		assert.False(t, late.Confirmed)
		if assert.NotEmpty(t, late.Candidates) {
			assert.Equal(t, "123 Oak St — reroof", late.Candidates[0].SheetJobName)
		}
		placeholder, ok := rowByMember(resp.WorkingSet, "J-2", "")
		assert.True(t, ok)
		assert.True(t, placeholder.IsPlaceholder())
	})

	t.Run("busy session", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, busyLocker{})
		session := beginSession(t, deps)

		_, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, importedJobs())

		assert.ErrorIs(t, err, reconciliationerrors.ErrSessionBusy)
	})
}

func TestReconciliationService_WaitForJobs(t *testing.T) {
	ctx := context.Background()
	opts := reconciliation.Options{ImportPollInitial: time.Millisecond, ImportWaitMax: 20 * time.Millisecond}

	t.Run("times out without jobs", func(t *testing.T) {
		deps := setupReconciliationTest(t, opts, nil)
		session := beginSession(t, deps)

		_, err := deps.service.WaitForJobs(ctx, deps.companyID, session.ID, time.Minute)

		assert.ErrorIs(t, err, reconciliationerrors.ErrImportTimeout)
		assert.True(t, apperror.ToHTTP(err).Status == 409)
	})

	t.Run("returns once jobs arrive", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{ImportPollInitial: time.Millisecond, ImportWaitMax: 5 * time.Second}, nil)
		session := beginSession(t, deps)

		go func() {
			time.Sleep(5 * time.Millisecond)
			_, _ = deps.service.ImportJobs(ctx, deps.companyID, session.ID, importedJobs())
		}()
		resp, err := deps.service.WaitForJobs(ctx, deps.companyID, session.ID, 0)

		assert.NoError(t, err)
		assert.Len(t, resp.Jobs, 2)
	})
}

func TestReconciliationService_ExtractShifts(t *testing.T) {
	ctx := context.Background()

	t.Run("needs imported jobs", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
		session := beginSession(t, deps)

		_, err := deps.service.ExtractShifts(ctx, deps.companyID, session.ID, "hours.csv", worksheetCSV)

		assert.ErrorIs(t, err, reconciliationerrors.ErrNoJobsImported)
	})

	t.Run("unsupported file", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
		session := beginSession(t, deps)
		_, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, importedJobs())
		assert.NoError(t, err)

		_, err = deps.service.ExtractShifts(ctx, deps.companyID, session.ID, "notes.pdf", []byte("%PDF-1.4"))

		assert.ErrorIs(t, err, reconciliationerrors.ErrUnsupportedWorksheet)
	})

	t.Run("too large", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{UploadMaxBytes: 8}, nil)

		_, err := deps.service.ExtractShifts(ctx, deps.companyID, uuid.NewString(), "hours.csv", worksheetCSV)

		assert.ErrorIs(t, err, reconciliationerrors.ErrWorksheetTooLarge)
	})

	t.Run("proposes without confirming", func(t *testing.T) {
		deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
		session := beginSession(t, deps)
		_, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, importedJobs())
		assert.NoError(t, err)

		resp, err := deps.service.ExtractShifts(ctx, deps.companyID, session.ID, "hours.csv", worksheetCSV)

		assert.NoError(t, err)
		assert.Equal(t, reconciliation.StatusReadyForReview, resp.Status)
		assert.Equal(t, 5, resp.RawRowCount)
		assert.Equal(t, []string{"Mystery Job"}, resp.UnmatchedSheetNames)
		for _, m := range resp.Matches {
			assert.False(t, m.Confirmed)
			assert.NotNil(t, m.SheetJobName)
		}
		assert.Len(t, resp.WorkingSet, 2)
		for _, r := range resp.WorkingSet {
			assert.True(t, r.IsPlaceholder())
		}
	})
}

func TestReconciliationService_CommitRejectsEmptyWorkingSet(t *testing.T) {
	ctx := context.Background()
	deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
	session := beginSession(t, deps)
	_, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, importedJobs())
	assert.NoError(t, err)
	_, err = deps.service.ExtractShifts(ctx, deps.companyID, session.ID, "hours.csv", worksheetCSV)
	assert.NoError(t, err)

	_, err = deps.service.Commit(ctx, deps.companyID, "reviewer-1", session.ID, reconciliation.CommitRequest{JobIDs: []string{"J-1"}})

	assert.ErrorIs(t, err, reconciliationerrors.ErrEmptyWorkingSet)
	assert.Equal(t, apperror.CodeConsistency, apperror.ToHTTP(err).Code)
	assert.Empty(t, deps.shifts.created)
}

func TestReconciliationService_FullSession(t *testing.T) {
	ctx := context.Background()
	deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
	session := beginSession(t, deps)
	sid := session.ID

	_, err := deps.service.ImportJobs(ctx, deps.companyID, sid, importedJobs())
	assert.NoError(t, err)
	_, err = deps.service.ExtractShifts(ctx, deps.companyID, sid, "hours.csv", worksheetCSV)
	assert.NoError(t, err)

	var version int64
	t.Run("accepting proposals aggregates confirmed jobs", func(t *testing.T) {
		resp, err := deps.service.ConfirmMatches(ctx, deps.companyID, sid, reconciliation.ConfirmMatchesRequest{AcceptProposals: true})

		assert.NoError(t, err)
		for _, m := range resp.Matches {
			assert.True(t, m.Confirmed)
		}
		ana, ok := rowByMember(resp.WorkingSet, "J-1", "Ana Lopez")
		if assert.True(t, ok) {
			assert.True(t, ana.Hours().Regular.Equal(decimal.NewFromInt(10)))
			assert.True(t, ana.Hours().QC.Equal(decimal.NewFromInt(2)))
			assert.True(t, ana.Total().Equal(decimal.NewFromInt(10)))
			assert.Equal(t, 2, ana.ShiftCount())
		}
		_, ok = rowByMember(resp.WorkingSet, "J-2", "Cruz Diaz")
		assert.True(t, ok)
		_, ok = rowByMember(resp.WorkingSet, "J-2", "Dee Fox")
		assert.False(t, ok)
		version = resp.Version
	})

	t.Run("sheet name cannot serve two jobs", func(t *testing.T) {
		_, err := deps.service.ConfirmMatches(ctx, deps.companyID, sid, reconciliation.ConfirmMatchesRequest{
			Matches: []reconciliation.MatchOverride{{JobID: "J-2", SheetJobName: strPtr("Smith Residence")}},
		})

		assert.ErrorIs(t, err, reconciliationerrors.ErrSheetNameConflict)
		details := appErrDetails(t, err)
		assert.Equal(t, "Smith Residence", details["sheet_job_name"])
		assert.ElementsMatch(t, []string{"J-1", "J-2"}, details["job_ids"])
	})

	t.Run("unknown sheet name", func(t *testing.T) {
		_, err := deps.service.ConfirmMatches(ctx, deps.companyID, sid, reconciliation.ConfirmMatchesRequest{
			Matches: []reconciliation.MatchOverride{{JobID: "J-2", SheetJobName: strPtr("Nowhere")}},
		})

		assert.ErrorIs(t, err, reconciliationerrors.ErrUnknownSheetName)
	})

	t.Run("stale edit rejected", func(t *testing.T) {
		_, err := deps.service.EditWorkingSet(ctx, deps.companyID, sid, reconciliation.EditWorkingSetRequest{
			ExpectedVersion: version - 1,
			Ops:             []reconciliation.EditOp{{Op: reconciliation.OpDelete, RowID: shiftagg.RowID("J-1", "ben ortiz")}},
		})

		assert.ErrorIs(t, err, apperror.ErrStaleState)
	})

	t.Run("failing op leaves working set untouched", func(t *testing.T) {
		_, err := deps.service.EditWorkingSet(ctx, deps.companyID, sid, reconciliation.EditWorkingSetRequest{
			ExpectedVersion: version,
			Ops: []reconciliation.EditOp{
				{Op: reconciliation.OpUpdate, RowID: shiftagg.RowID("J-1", "ben ortiz"), RegularHours: dec("7")},
				{Op: reconciliation.OpUpdate, RowID: "missing"},
			},
		})

		assert.ErrorIs(t, err, reconciliationerrors.ErrRowNotFound)
		assert.Equal(t, 1, appErrDetails(t, err)["index"])

		snapshot, err := deps.service.Get(ctx, deps.companyID, sid)
		assert.NoError(t, err)
		assert.Equal(t, version, snapshot.Version)
		ben, _ := rowByMember(snapshot.WorkingSet, "J-1", "Ben Ortiz")
		assert.True(t, ben.Total().Equal(decimal.NewFromInt(6)))
	})

	t.Run("edits re-derive totals", func(t *testing.T) {
		resp, err := deps.service.EditWorkingSet(ctx, deps.companyID, sid, reconciliation.EditWorkingSetRequest{
			ExpectedVersion: version,
			Ops: []reconciliation.EditOp{
				{Op: reconciliation.OpUpdate, RowID: shiftagg.RowID("J-1", "ben ortiz"), RegularHours: dec("7"), OTHours: dec("1.5")},
				{Op: reconciliation.OpAdd, JobID: "J-2", CrewMember: strPtr("Dee Fox"), OTHours: dec("3")},
			},
		})

		assert.NoError(t, err)
		ben, _ := rowByMember(resp.WorkingSet, "J-1", "Ben Ortiz")
		assert.True(t, ben.Total().Equal(decimal.RequireFromString("8.5")))
		dee, ok := rowByMember(resp.WorkingSet, "J-2", "Dee Fox")
		if assert.True(t, ok) {
			assert.True(t, dee.Total().Equal(decimal.NewFromInt(3)))
			assert.Equal(t, 1, dee.ShiftCount())
		}
		for _, r := range resp.WorkingSet {
			h := r.Hours()
			assert.True(t, r.Total().Equal(h.Regular.Add(h.OT).Add(h.OT2)))
		}
		version = resp.Version
	})

	t.Run("duplicate member add rejected", func(t *testing.T) {
		_, err := deps.service.EditWorkingSet(ctx, deps.companyID, sid, reconciliation.EditWorkingSetRequest{
			ExpectedVersion: version,
			Ops:             []reconciliation.EditOp{{Op: reconciliation.OpAdd, JobID: "J-1", CrewMember: strPtr("BEN ortiz")}},
		})

		assert.ErrorIs(t, err, reconciliationerrors.ErrInvalidEdit)
	})

	t.Run("commit with auto approve", func(t *testing.T) {
		expectTx(t, deps.sqlMock, true)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e kafka.OutboxEvent) error {
				assert.Equal(t, events.CrewShiftApprovedTopic, e.Topic)
				assert.Equal(t, "J-1", e.AggregateID)
				assert.Contains(t, string(e.Payload), `"auto_approved":true`)
				return nil
			})

		resp, err := deps.service.Commit(ctx, deps.companyID, "reviewer-1", sid, reconciliation.CommitRequest{JobIDs: []string{"J-1"}, AutoApprove: true})

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.Equal(t, reconciliation.StatusReadyForReview, resp.Session.Status)
		assert.Equal(t, []string{"J-1"}, resp.Session.CommittedJobIDs)
		if assert.Len(t, resp.Committed, 1) {
			assert.Len(t, resp.Committed[0].ShiftIDs, 2)
			assert.Equal(t, crewshift.StatusApproved, resp.Committed[0].Status)
		}
		for _, r := range resp.Session.WorkingSet {
			assert.NotEqual(t, "J-1", r.JobID())
		}

		if assert.Len(t, deps.jobs.upserted, 1) {
			assert.Equal(t, "Smith Residence", deps.jobs.upserted[0].Name)
			assert.Equal(t, "San Diego", deps.jobs.upserted[0].Branch)
			assert.True(t, deps.jobs.upserted[0].EstimatedHours.Equal(decimal.NewFromInt(40)))
		}
		if assert.Len(t, deps.shifts.created, 2) {
			for _, s := range deps.shifts.created {
				assert.Equal(t, crewshift.StatusApproved, s.Status)
				assert.Equal(t, "reviewer-1", *s.ApprovedBy)
				if s.CrewMember == "Ana Lopez" {
					if assert.NotNil(t, s.EmployeeID) {
						assert.Equal(t, deps.anaID, s.EmployeeID.String())
					}
				}
			}
		}
	})

	t.Run("committed job cannot be committed again", func(t *testing.T) {
		_, err := deps.service.Commit(ctx, deps.companyID, "reviewer-1", sid, reconciliation.CommitRequest{JobIDs: []string{"J-1"}})

		assert.ErrorIs(t, err, reconciliationerrors.ErrJobAlreadyCommitted)
	})

	t.Run("committed job cannot be re-matched", func(t *testing.T) {
		_, err := deps.service.ConfirmMatches(ctx, deps.companyID, sid, reconciliation.ConfirmMatchesRequest{
			Matches: []reconciliation.MatchOverride{{JobID: "J-1", SheetJobName: nil}},
		})

		assert.ErrorIs(t, err, reconciliationerrors.ErrJobAlreadyCommitted)
	})

	t.Run("export lists the remaining rows", func(t *testing.T) {
		export, err := deps.service.ExportWorkingSet(ctx, deps.companyID, sid)
		assert.NoError(t, err)
		assert.Equal(t, "REC-000007-working-set.xlsx", export.Filename)

		f, err := excelize.OpenReader(bytes.NewReader(export.Content))
		assert.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Working Set")
		assert.NoError(t, err)
		if assert.Len(t, rows, 3) {
			assert.Equal(t, "Job ID", rows[0][0])
			assert.Equal(t, "J-2", rows[1][0])
			assert.Equal(t, "123 Oak Street Reroof", rows[1][1])
		}
	})

	t.Run("last commit by job name closes the session", func(t *testing.T) {
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Commit(ctx, deps.companyID, "reviewer-1", sid, reconciliation.CommitRequest{JobNames: []string{"123 oak street  reroof"}})

		assert.NoError(t, err)
		assert.Equal(t, reconciliation.StatusCommitted, resp.Session.Status)
		assert.NotNil(t, resp.Session.CommittedAt)
		assert.Empty(t, resp.Session.WorkingSet)
		assert.Equal(t, crewshift.StatusPendingApproval, resp.Committed[0].Status)
		assert.Len(t, deps.shifts.created, 4)
	})

	t.Run("closed session refuses imports", func(t *testing.T) {
		_, err := deps.service.ImportJobs(ctx, deps.companyID, sid, importedJobs())

		assert.ErrorIs(t, err, reconciliationerrors.ErrSessionClosed)
	})
}

func TestReconciliationService_CommitRollsBackOnStaleSave(t *testing.T) {
	ctx := context.Background()
	deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
	session := beginSession(t, deps)
	_, err := deps.service.ImportJobs(ctx, deps.companyID, session.ID, importedJobs())
	assert.NoError(t, err)
	_, err = deps.service.ExtractShifts(ctx, deps.companyID, session.ID, "hours.csv", worksheetCSV)
	assert.NoError(t, err)
	_, err = deps.service.ConfirmMatches(ctx, deps.companyID, session.ID, reconciliation.ConfirmMatchesRequest{AcceptProposals: true})
	assert.NoError(t, err)

	deps.repo.saveFn = func(ctx context.Context, s *reconciliation.Session) error {
		return apperror.ErrStaleState
	}
	expectTx(t, deps.sqlMock, false)

	_, err = deps.service.Commit(ctx, deps.companyID, "reviewer-1", session.ID, reconciliation.CommitRequest{JobIDs: []string{"J-1"}})

	assert.ErrorIs(t, err, apperror.ErrStaleState)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestReconciliationService_Abandon(t *testing.T) {
	ctx := context.Background()
	deps := setupReconciliationTest(t, reconciliation.Options{}, nil)
	session := beginSession(t, deps)

	resp, err := deps.service.Abandon(ctx, deps.companyID, session.ID)
	assert.NoError(t, err)
	assert.Equal(t, reconciliation.StatusAbandoned, resp.Status)

	again, err := deps.service.Abandon(ctx, deps.companyID, session.ID)
	assert.NoError(t, err)
	assert.Equal(t, resp.Version, again.Version)

	_, err = deps.service.ExtractShifts(ctx, deps.companyID, session.ID, "hours.csv", worksheetCSV)
	assert.ErrorIs(t, err, reconciliationerrors.ErrSessionClosed)
}

func TestReconciliationService_UnknownSession(t *testing.T) {
	deps := setupReconciliationTest(t, reconciliation.Options{}, nil)

	_, err := deps.service.Get(context.Background(), deps.companyID, uuid.NewString())
	assert.ErrorIs(t, err, reconciliationerrors.ErrSessionNotFound)

	_, err = deps.service.Get(context.Background(), deps.companyID, "not-a-uuid")
	assert.ErrorIs(t, err, reconciliationerrors.ErrInvalidSessionID)
}
