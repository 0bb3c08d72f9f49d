package reconciliation

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-crewperf/internal/crew"
	"go-crewperf/internal/crewshift"
	"go-crewperf/internal/events"
	"go-crewperf/internal/job"
	"go-crewperf/internal/jobmatch"
	"go-crewperf/internal/messaging/kafka"
	reconciliationerrors "go-crewperf/internal/reconciliation/errors"
	"go-crewperf/internal/shared/apperror"
	"go-crewperf/internal/shared/contextutil"
	"go-crewperf/internal/shared/counter"
	"go-crewperf/internal/shiftagg"
	"go-crewperf/internal/shiftextract"
	"go-crewperf/internal/similarity"
	"go-crewperf/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxPollDelay = 2 * time.Second

// errUnchanged lets a mutation finish without writing the session.
var errUnchanged = errors.New("session unchanged")

//go:generate mockgen -source=reconciliation_service.go -destination=mock/reconciliation_service_mock.go -package=mock
type Service interface {
	Begin(ctx context.Context, companyID, actorID string, req BeginRequest) (SessionResponse, error)
	Get(ctx context.Context, companyID, sessionID string) (SessionResponse, error)
	WaitForJobs(ctx context.Context, companyID, sessionID string, timeout time.Duration) (SessionResponse, error)
	ImportJobs(ctx context.Context, companyID, sessionID string, req ImportJobsRequest) (SessionResponse, error)
	ExtractShifts(ctx context.Context, companyID, sessionID, filename string, content []byte) (SessionResponse, error)
	ConfirmMatches(ctx context.Context, companyID, sessionID string, req ConfirmMatchesRequest) (SessionResponse, error)
	EditWorkingSet(ctx context.Context, companyID, sessionID string, req EditWorkingSetRequest) (SessionResponse, error)
	Commit(ctx context.Context, companyID, actorID, sessionID string, req CommitRequest) (CommitResponse, error)
	Abandon(ctx context.Context, companyID, sessionID string) (SessionResponse, error)
	ExportWorkingSet(ctx context.Context, companyID, sessionID string) (Export, error)
}

// Options carries the pipeline tuning read from config.
type Options struct {
	MatchThreshold      float64
	MatchCandidateLimit int
	BranchSuffixes      []string
	ImportPollInitial   time.Duration
	ImportWaitMax       time.Duration
	UploadMaxBytes      int64
}

type service struct {
	db        *sql.DB
	repo      Repository
	counter   counter.Repository
	jobs      job.Repository
	shifts    crewshift.Repository
	outbox    kafka.OutboxRepository
	locker    Locker
	directory crew.Directory
	scorer    *similarity.Scorer
	matcher   *jobmatch.Matcher
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

// NewService wires the session workflow. directory may be nil, in which
// case crew rows are committed without employee ids.
func NewService(
	db *sql.DB,
	repo Repository,
	counterRepo counter.Repository,
	jobRepo job.Repository,
	shiftRepo crewshift.Repository,
	outboxRepo kafka.OutboxRepository,
	locker Locker,
	directory crew.Directory,
	opts Options,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("reconciliation.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("reconciliation.service")
	}
	if opts.ImportPollInitial <= 0 {
		opts.ImportPollInitial = 250 * time.Millisecond
	}
	if opts.ImportWaitMax <= 0 {
		opts.ImportWaitMax = 30 * time.Second
	}
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = 10 << 20
	}
	if opts.MatchCandidateLimit == 0 {
		opts.MatchCandidateLimit = jobmatch.DefaultCandidateLimit
	}
	if locker == nil {
		locker = NewLocalLocker(2 * time.Second)
	}
	scorer := similarity.NewScorer(opts.BranchSuffixes...)
	return &service{
		db:        db,
		repo:      repo,
		counter:   counterRepo,
		jobs:      jobRepo,
		shifts:    shiftRepo,
		outbox:    outboxRepo,
		locker:    locker,
		directory: directory,
		scorer:    scorer,
		matcher:   jobmatch.NewMatcher(opts.MatchThreshold, opts.MatchCandidateLimit, scorer),
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    l,
	}
}

func (s *service) Begin(ctx context.Context, companyID, actorID string, req BeginRequest) (SessionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("begin reconciliation requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("branch", req.Branch),
	)

	companyUUID, err := tenant.ParseCompanyID(companyID)
	if err != nil {
		return SessionResponse{}, reconciliationerrors.ErrInvalidCompanyID
	}
	start, err := parseDate(req.PeriodStart)
	if err != nil {
		return SessionResponse{}, apperror.ErrInvalidInput.WithDetails(map[string]string{"field": "period_start"})
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		return SessionResponse{}, apperror.ErrInvalidInput.WithDetails(map[string]string{"field": "period_end"})
	}
	if start != nil && end != nil && end.Before(*start) {
		return SessionResponse{}, reconciliationerrors.ErrInvalidPeriod.WithDetails(map[string]string{
			"period_start": req.PeriodStart,
			"period_end":   req.PeriodEnd,
		})
	}

	seq, err := s.counter.GetNextValue(ctx, companyUUID.String(), counter.TypeReconciliation)
	if err != nil {
		s.logger.Error("begin reconciliation counter failed", zap.String("request_id", rid), zap.Error(err))
		return SessionResponse{}, err
	}

	now := s.now()
	sess := &Session{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		Reference:   counter.FormatReference(ReferencePrefix, seq),
		Branch:      strings.TrimSpace(req.Branch),
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      StatusCollecting,
		Version:     1,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := sess.EncodeState(State{}); err != nil {
		return SessionResponse{}, err
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		s.logger.Error("begin reconciliation create failed", zap.String("request_id", rid), zap.Error(err))
		return SessionResponse{}, err
	}

	// a new session resolves crew names against the current roster
	if s.directory != nil {
		if err := s.directory.Invalidate(ctx, companyUUID.String()); err != nil {
			s.logger.Warn("invalidate crew directory failed", zap.String("request_id", rid), zap.Error(err))
		}
	}

	s.logger.Info("begin reconciliation success",
		zap.String("request_id", rid),
		zap.String("session_id", sess.ID.String()),
		zap.String("reference", sess.Reference),
	)
	return mapToResponse(sess, State{}), nil
}

func (s *service) Get(ctx context.Context, companyID, sessionID string) (SessionResponse, error) {
	if err := validateIDs(companyID, sessionID); err != nil {
		return SessionResponse{}, err
	}
	sess, st, err := s.load(ctx, companyID, sessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return mapToResponse(sess, st), nil
}

// WaitForJobs polls with exponential backoff until the asynchronous import
// delivered at least one job, the session closed, or timeout passed.
func (s *service) WaitForJobs(ctx context.Context, companyID, sessionID string, timeout time.Duration) (SessionResponse, error) {
	if timeout <= 0 || timeout > s.opts.ImportWaitMax {
		timeout = s.opts.ImportWaitMax
	}
	started := s.now()
	deadline := time.Now().Add(timeout)
	delay := s.opts.ImportPollInitial

	for {
		resp, err := s.Get(ctx, companyID, sessionID)
		if err != nil {
			return SessionResponse{}, err
		}
		if len(resp.Jobs) > 0 || resp.Status == StatusCommitted || resp.Status == StatusAbandoned {
			return resp, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			s.logger.Warn("wait for jobs timed out",
				zap.String("request_id", contextutil.GetRequestID(ctx)),
				zap.String("session_id", sessionID),
			)
			return SessionResponse{}, reconciliationerrors.ErrImportTimeout.WithDetails(map[string]any{
				"session_id": sessionID,
				"waited_ms":  s.now().Sub(started).Milliseconds(),
			})
		}
		if delay > remaining {
			delay = remaining
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return SessionResponse{}, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxPollDelay {
			delay = maxPollDelay
		}
	}
}

func (s *service) ImportJobs(ctx context.Context, companyID, sessionID string, req ImportJobsRequest) (SessionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("import jobs requested",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.Int("jobs", len(req.Jobs)),
	)

	incoming, err := validateImportedJobs(req)
	if err != nil {
		return SessionResponse{}, err
	}

	return s.mutate(ctx, companyID, sessionID, nil, "import jobs", func(sess *Session, st *State) error {
		if sess.Closed() {
			return closedError(sess)
		}

		extracted := sess.Status == StatusReadyForReview
		sheetNames := st.SheetJobNames()
		now := s.now()
		added, updated, ignored := 0, 0, 0

		for _, in := range incoming {
			if st.IsCommitted(in.ExternalID) {
				ignored++
				continue
			}
			if idx := jobIndex(st.Jobs, in.ExternalID); idx >= 0 {
				st.Jobs[idx] = SessionJob{ImportedJob: in, ReceivedAt: st.Jobs[idx].ReceivedAt}
				if mi := st.MatchIndex(in.ExternalID); mi >= 0 {
					st.Matches[mi].JobName = in.Name
				}
				updated++
				continue
			}

			st.Jobs = append(st.Jobs, SessionJob{ImportedJob: in, ReceivedAt: now})
			added++
			if extracted {
				st.Matches = append(st.Matches, s.matcher.Propose(jobmatch.Job{ExternalID: in.ExternalID, Name: in.Name}, sheetNames))
				p, err := shiftagg.NewPlaceholder(in.ExternalID)
				if err != nil {
					return err
				}
				st.WorkingSet = append(st.WorkingSet, p)
			}
		}

		s.logger.Info("import jobs applied",
			zap.String("request_id", rid),
			zap.String("session_id", sessionID),
			zap.Int("added", added),
			zap.Int("updated", updated),
			zap.Int("ignored_committed", ignored),
		)
		return nil
	})
}

func (s *service) ExtractShifts(ctx context.Context, companyID, sessionID, filename string, content []byte) (SessionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("extract shifts requested",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.String("filename", filename),
		zap.Int("bytes", len(content)),
	)
	if int64(len(content)) > s.opts.UploadMaxBytes {
		return SessionResponse{}, reconciliationerrors.ErrWorksheetTooLarge.WithDetails(map[string]any{
			"filename":  filename,
			"max_bytes": s.opts.UploadMaxBytes,
		})
	}

	return s.mutate(ctx, companyID, sessionID, nil, "extract shifts", func(sess *Session, st *State) error {
		if sess.Closed() {
			return closedError(sess)
		}
		if len(st.Jobs) == 0 {
			return reconciliationerrors.ErrNoJobsImported.WithDetails(map[string]string{"session_id": sessionID})
		}

		res, err := shiftextract.ExtractFile(filename, content)
		if err != nil {
			return mapExtractError(filename, err)
		}

		pending := make([]jobmatch.Job, 0, len(st.Jobs))
		for _, j := range st.Jobs {
			if !st.IsCommitted(j.ExternalID) {
				pending = append(pending, jobmatch.Job{ExternalID: j.ExternalID, Name: j.Name})
			}
		}
		result := s.matcher.Match(pending, res.SheetJobNames())

		proposed := make(map[string]jobmatch.JobNameMatch, len(result.Matches))
		for _, m := range result.Matches {
			proposed[m.JobID] = m
		}
		matches := make([]jobmatch.JobNameMatch, 0, len(st.Jobs))
		for _, j := range st.Jobs {
			if st.IsCommitted(j.ExternalID) {
				if mi := st.MatchIndex(j.ExternalID); mi >= 0 {
					matches = append(matches, st.Matches[mi])
				}
				continue
			}
			matches = append(matches, proposed[j.ExternalID])
		}

		ws, err := shiftagg.Aggregate(nil, nil, st.UncommittedJobIDs())
		if err != nil {
			return err
		}

		st.RawRows = res.Rows
		st.Warnings = res.Warnings
		st.Matches = matches
		st.UnmatchedNames = result.UnmatchedSheetNames
		st.WorkingSet = ws
		sess.DroppedRows = res.DroppedRows
		sess.SourceFilename = filename
		sess.Status = StatusReadyForReview

		s.logger.Info("extract shifts success",
			zap.String("request_id", rid),
			zap.String("session_id", sessionID),
			zap.Int("rows", len(res.Rows)),
			zap.Int("dropped_rows", res.DroppedRows),
			zap.Int("unmatched_sheet_names", len(result.UnmatchedSheetNames)),
		)
		return nil
	})
}

func (s *service) ConfirmMatches(ctx context.Context, companyID, sessionID string, req ConfirmMatchesRequest) (SessionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("confirm matches requested",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.Int("overrides", len(req.Matches)),
		zap.Bool("accept_proposals", req.AcceptProposals),
	)

	return s.mutate(ctx, companyID, sessionID, req.ExpectedVersion, "confirm matches", func(sess *Session, st *State) error {
		if sess.Closed() {
			return closedError(sess)
		}
		if sess.Status != StatusReadyForReview {
			return reconciliationerrors.ErrNotReadyForReview.WithDetails(map[string]string{"session_id": sessionID, "status": sess.Status})
		}

		overrides, err := validateOverrides(*st, req.Matches)
		if err != nil {
			return err
		}

		matches := append([]jobmatch.JobNameMatch(nil), st.Matches...)
		for _, o := range overrides {
			mi := -1
			for i := range matches {
				if matches[i].JobID == o.JobID {
					mi = i
					break
				}
			}
			if mi < 0 {
				j, _ := st.Job(o.JobID)
				matches = append(matches, jobmatch.JobNameMatch{JobID: j.ExternalID, JobName: j.Name})
				mi = len(matches) - 1
			}
			m := &matches[mi]
			m.Confirmed = true
			m.SheetJobName = o.SheetJobName
			m.Score = 0
			if o.SheetJobName != nil {
				m.Score = s.scorer.Score(m.JobName, *o.SheetJobName)
			}
		}

		if req.AcceptProposals {
			for i := range matches {
				if !matches[i].Confirmed && matches[i].SheetJobName != nil && !st.IsCommitted(matches[i].JobID) {
					matches[i].Confirmed = true
				}
			}
		}

		mapping, err := jobmatch.FromConfirmed(matches)
		if err != nil {
			var conflict *jobmatch.ConflictError
			if errors.As(err, &conflict) {
				return reconciliationerrors.ErrSheetNameConflict.WithDetails(map[string]any{
					"sheet_job_name": conflict.SheetJobName,
					"job_ids":        []string{conflict.ExistingJobID, conflict.JobID},
				})
			}
			return err
		}

		// A proposal loses its name once another job confirmed it.
		for i := range matches {
			m := &matches[i]
			if m.Confirmed || m.SheetJobName == nil {
				continue
			}
			if owner, ok := mapping.JobFor(*m.SheetJobName); ok && owner != m.JobID {
				m.SheetJobName = nil
			}
		}

		bySheet := make(map[string]string)
		for name, jobID := range mapping.JobsBySheet() {
			if !st.IsCommitted(jobID) {
				bySheet[name] = jobID
			}
		}
		ws, err := shiftagg.Aggregate(st.RawRows, bySheet, st.UncommittedJobIDs())
		if err != nil {
			return err
		}

		st.Matches = matches
		st.UnmatchedNames = unclaimedNames(st.SheetJobNames(), matches)
		st.WorkingSet = ws

		s.logger.Info("confirm matches success",
			zap.String("request_id", rid),
			zap.String("session_id", sessionID),
			zap.Int("confirmed", len(bySheet)),
			zap.Int("rows", len(ws)),
		)
		return nil
	})
}

func (s *service) EditWorkingSet(ctx context.Context, companyID, sessionID string, req EditWorkingSetRequest) (SessionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("edit working set requested",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.Int("ops", len(req.Ops)),
	)
	expected := req.ExpectedVersion

	return s.mutate(ctx, companyID, sessionID, &expected, "edit working set", func(sess *Session, st *State) error {
		if sess.Closed() {
			return closedError(sess)
		}
		if sess.Status != StatusReadyForReview {
			return reconciliationerrors.ErrNotReadyForReview.WithDetails(map[string]string{"session_id": sessionID, "status": sess.Status})
		}

		rows, touched, err := applyEdits(*st, req.Ops)
		if err != nil {
			return err
		}
		st.WorkingSet = s.enrich(ctx, companyID, rows, touched)

		s.logger.Info("edit working set success",
			zap.String("request_id", rid),
			zap.String("session_id", sessionID),
			zap.Int("rows", len(rows)),
		)
		return nil
	})
}

func (s *service) Commit(ctx context.Context, companyID, actorID, sessionID string, req CommitRequest) (CommitResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("commit reconciliation requested",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.Strings("job_ids", req.JobIDs),
		zap.Strings("job_names", req.JobNames),
		zap.Bool("auto_approve", req.AutoApprove),
	)
	if err := validateIDs(companyID, sessionID); err != nil {
		return CommitResponse{}, err
	}
	if len(req.JobIDs) == 0 && len(req.JobNames) == 0 {
		return CommitResponse{}, reconciliationerrors.ErrNoJobsSelected
	}

	unlock, err := s.locker.Lock(ctx, GetLockKey(sessionID))
	if err != nil {
		return CommitResponse{}, err
	}
	defer unlock()

	sess, st, err := s.load(ctx, companyID, sessionID)
	if err != nil {
		return CommitResponse{}, err
	}
	if sess.Closed() {
		return CommitResponse{}, closedError(sess)
	}
	if sess.Status != StatusReadyForReview {
		return CommitResponse{}, reconciliationerrors.ErrNotReadyForReview.WithDetails(map[string]string{"session_id": sessionID, "status": sess.Status})
	}
	if !hasCrewRows(st.WorkingSet) {
		return CommitResponse{}, reconciliationerrors.ErrEmptyWorkingSet.WithDetails(map[string]string{"session_id": sessionID})
	}

	selected, err := selectJobs(st, req)
	if err != nil {
		return CommitResponse{}, err
	}

	var toResolve []string
	for _, jobID := range selected {
		for _, r := range st.RowsForJob(jobID) {
			if r.EmployeeID() == "" {
				toResolve = append(toResolve, r.RowID())
			}
		}
	}
	st.WorkingSet = s.enrich(ctx, companyID, st.WorkingSet, toResolve)

	status := crewshift.StatusPendingApproval
	if req.AutoApprove {
		status = crewshift.StatusApproved
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("commit reconciliation begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return CommitResponse{}, err
	}
	defer tx.Rollback()

	qJobs := s.jobs.WithTx(tx)
	qShifts := s.shifts.WithTx(tx)
	var qOutbox kafka.OutboxRepository
	if req.AutoApprove {
		qOutbox = s.outbox.WithTx(tx)
	}

	committed := make([]CommittedJob, 0, len(selected))
	for _, jobID := range selected {
		sj, _ := st.Job(jobID)
		canonical := &job.Job{
			ID:                     uuid.New(),
			CompanyID:              sess.CompanyID,
			ExternalID:             sj.ExternalID,
			Name:                   sj.Name,
			Branch:                 firstNonEmpty(sj.Branch, sess.Branch),
			CrewLeader:             sj.CrewLeader,
			Estimator:              sj.Estimator,
			EstimatedHours:         sj.EstimatedHours,
			EstimateEstimatedHours: sj.EstimateEstimatedHours,
			CrewLeaderPlannedHours: sj.CrewLeaderPlannedHours,
			LastSessionID:          &sess.ID,
		}
		if err := qJobs.Upsert(ctx, canonical); err != nil {
			s.logger.Error("commit reconciliation upsert job failed", zap.String("job_id", jobID), zap.Error(err))
			return CommitResponse{}, err
		}

		rows := st.RowsForJob(jobID)
		records := make([]crewshift.CrewShift, 0, len(rows))
		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			rec := crewshift.FromAggregated(sess.CompanyID, sess.ID, r, status)
			if req.AutoApprove {
				approver, at := actorID, now
				rec.ApprovedBy = &approver
				rec.ApprovedAt = &at
			}
			records = append(records, rec)
			ids = append(ids, rec.ID.String())
		}
		if err := qShifts.CreateBatch(ctx, records); err != nil {
			s.logger.Error("commit reconciliation insert shifts failed", zap.String("job_id", jobID), zap.Error(err))
			return CommitResponse{}, err
		}

		if req.AutoApprove {
			evt, err := crewshift.ApprovedOutboxEvent(rid, companyID, jobID, ids, actorID, true, now)
			if err != nil {
				return CommitResponse{}, err
			}
			if err := qOutbox.Create(ctx, evt); err != nil {
				s.logger.Error("commit reconciliation outbox failed", zap.String("job_id", jobID), zap.Error(err))
				return CommitResponse{}, err
			}
		}

		committed = append(committed, CommittedJob{JobID: jobID, ShiftIDs: ids, Status: status})
	}

	st.WorkingSet = withoutJobs(st.WorkingSet, selected)
	st.Committed = append(st.Committed, selected...)
	if len(st.UncommittedJobIDs()) == 0 {
		sess.Status = StatusCommitted
		sess.CommittedAt = &now
	}
	if err := sess.EncodeState(st); err != nil {
		return CommitResponse{}, err
	}
	if err := s.repo.WithTx(tx).Save(ctx, sess); err != nil {
		s.logger.Warn("commit reconciliation save failed", zap.String("request_id", rid), zap.Error(err))
		return CommitResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit reconciliation commit failed", zap.String("request_id", rid), zap.Error(err))
		return CommitResponse{}, err
	}

	s.logger.Info("commit reconciliation success",
		zap.String("request_id", rid),
		zap.String("session_id", sessionID),
		zap.Strings("job_ids", selected),
		zap.String("status", sess.Status),
	)
	return CommitResponse{Session: mapToResponse(sess, st), Committed: committed}, nil
}

func (s *service) Abandon(ctx context.Context, companyID, sessionID string) (SessionResponse, error) {
	return s.mutate(ctx, companyID, sessionID, nil, "abandon", func(sess *Session, st *State) error {
		switch sess.Status {
		case StatusAbandoned:
			return errUnchanged
		case StatusCommitted:
			return closedError(sess)
		}
		sess.Status = StatusAbandoned
		return nil
	})
}

func (s *service) ExportWorkingSet(ctx context.Context, companyID, sessionID string) (Export, error) {
	if err := validateIDs(companyID, sessionID); err != nil {
		return Export{}, err
	}
	sess, st, err := s.load(ctx, companyID, sessionID)
	if err != nil {
		return Export{}, err
	}
	content, err := renderWorkingSet(st)
	if err != nil {
		s.logger.Error("export working set failed", zap.String("session_id", sessionID), zap.Error(err))
		return Export{}, err
	}
	return Export{Filename: exportFilename(sess), Content: content}, nil
}

// mutate loads the session under its lock, applies fn and saves the
// result with a version check.
func (s *service) mutate(ctx context.Context, companyID, sessionID string, expectedVersion *int64, op string, fn func(sess *Session, st *State) error) (SessionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	if err := validateIDs(companyID, sessionID); err != nil {
		return SessionResponse{}, err
	}

	unlock, err := s.locker.Lock(ctx, GetLockKey(sessionID))
	if err != nil {
		s.logger.Warn(op+" lock failed", zap.String("request_id", rid), zap.String("session_id", sessionID), zap.Error(err))
		return SessionResponse{}, err
	}
	defer unlock()

	sess, st, err := s.load(ctx, companyID, sessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	if expectedVersion != nil && *expectedVersion != sess.Version {
		return SessionResponse{}, apperror.ErrStaleState.WithDetails(map[string]any{
			"session_id":       sessionID,
			"expected_version": *expectedVersion,
			"version":          sess.Version,
		})
	}

	if err := fn(sess, &st); err != nil {
		if errors.Is(err, errUnchanged) {
			return mapToResponse(sess, st), nil
		}
		s.logger.Warn(op+" rejected", zap.String("request_id", rid), zap.String("session_id", sessionID), zap.Error(err))
		return SessionResponse{}, err
	}

	if err := sess.EncodeState(st); err != nil {
		return SessionResponse{}, err
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		s.logger.Warn(op+" save failed", zap.String("request_id", rid), zap.String("session_id", sessionID), zap.Error(err))
		return SessionResponse{}, err
	}
	return mapToResponse(sess, st), nil
}

func (s *service) load(ctx context.Context, companyID, sessionID string) (*Session, State, error) {
	sess, err := s.repo.FindByID(ctx, companyID, sessionID)
	if err != nil {
		return nil, State{}, err
	}
	st, err := sess.DecodeState()
	if err != nil {
		s.logger.Error("decode session state failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, State{}, err
	}
	return sess, st, nil
}

// enrich attaches employee ids to the listed rows from the crew directory.
// Lookup failures leave the rows as typed.
func (s *service) enrich(ctx context.Context, companyID string, rows []shiftagg.AggregatedShift, rowIDs []string) []shiftagg.AggregatedShift {
	if s.directory == nil || len(rowIDs) == 0 {
		return rows
	}
	want := make(map[string]bool, len(rowIDs))
	for _, id := range rowIDs {
		want[id] = true
	}

	out := append([]shiftagg.AggregatedShift(nil), rows...)
	for i, r := range out {
		if !want[r.RowID()] || r.IsPlaceholder() {
			continue
		}
		match, err := s.directory.Resolve(ctx, companyID, r.CrewMember())
		if err != nil {
			s.logger.Warn("crew directory lookup failed", zap.String("crew_member", r.CrewMember()), zap.Error(err))
			return out
		}
		if !match.Found {
			continue
		}
		f := r.Fields()
		f.EmployeeID = match.EmployeeID
		if row, err := shiftagg.NewAggregatedShift(f); err == nil {
			out[i] = row
		}
	}
	return out
}

func validateIDs(companyID, sessionID string) error {
	if _, err := tenant.ParseCompanyID(companyID); err != nil {
		return reconciliationerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return reconciliationerrors.ErrInvalidSessionID.WithDetails(map[string]string{"session_id": sessionID})
	}
	return nil
}

func closedError(sess *Session) error {
	return reconciliationerrors.ErrSessionClosed.WithDetails(map[string]string{
		"session_id": sess.ID.String(),
		"status":     sess.Status,
	})
}

// validateImportedJobs checks every job before any is applied. A job id
// repeated in one delivery keeps its last occurrence.
func validateImportedJobs(req ImportJobsRequest) ([]events.ImportedJob, error) {
	out := make([]events.ImportedJob, 0, len(req.Jobs))
	pos := make(map[string]int, len(req.Jobs))
	for i, j := range req.Jobs {
		j.ExternalID = strings.TrimSpace(j.ExternalID)
		j.Name = strings.TrimSpace(j.Name)
		invalid := func(field, reason string) error {
			return reconciliationerrors.ErrInvalidJob.WithDetails(map[string]any{
				"index":       i,
				"external_id": j.ExternalID,
				"field":       field,
				"reason":      reason,
			})
		}
		if j.ExternalID == "" {
			return nil, invalid("external_id", "required")
		}
		if j.Name == "" {
			return nil, invalid("name", "required")
		}
		for field, v := range map[string]*decimal.Decimal{
			"estimated_hours":           j.EstimatedHours,
			"estimate_estimated_hours":  j.EstimateEstimatedHours,
			"crew_leader_planned_hours": j.CrewLeaderPlannedHours,
		} {
			if v != nil && v.IsNegative() {
				return nil, invalid(field, "must not be negative")
			}
		}

		if p, ok := pos[j.ExternalID]; ok {
			out[p] = j
			continue
		}
		pos[j.ExternalID] = len(out)
		out = append(out, j)
	}
	return out, nil
}

func validateOverrides(st State, overrides []MatchOverride) ([]MatchOverride, error) {
	sheetNames := make(map[string]bool)
	for _, n := range st.SheetJobNames() {
		sheetNames[n] = true
	}

	seen := make(map[string]bool, len(overrides))
	out := make([]MatchOverride, 0, len(overrides))
	for i, o := range overrides {
		jobID := strings.TrimSpace(o.JobID)
		details := map[string]any{"index": i, "job_id": jobID}
		if seen[jobID] {
			return nil, reconciliationerrors.ErrDuplicateJobInRequest.WithDetails(details)
		}
		seen[jobID] = true
		if _, ok := st.Job(jobID); !ok {
			return nil, reconciliationerrors.ErrUnknownJob.WithDetails(details)
		}
		if st.IsCommitted(jobID) {
			return nil, reconciliationerrors.ErrJobAlreadyCommitted.WithDetails(details)
		}

		var name *string
		if o.SheetJobName != nil {
			n := strings.TrimSpace(*o.SheetJobName)
			if !sheetNames[n] {
				details["sheet_job_name"] = *o.SheetJobName
				return nil, reconciliationerrors.ErrUnknownSheetName.WithDetails(details)
			}
			name = &n
		}
		out = append(out, MatchOverride{JobID: jobID, SheetJobName: name})
	}
	return out, nil
}

// selectJobs resolves job ids and job names to distinct uncommitted jobs
// that have crew rows.
func selectJobs(st State, req CommitRequest) ([]string, error) {
	var selected []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			selected = append(selected, id)
		}
	}

	for _, id := range req.JobIDs {
		id = strings.TrimSpace(id)
		if _, ok := st.Job(id); !ok {
			return nil, reconciliationerrors.ErrUnknownJob.WithDetails(map[string]string{"job_id": id})
		}
		add(id)
	}
	for _, name := range req.JobNames {
		key := shiftagg.MemberKey(name)
		var hits []string
		for _, j := range st.Jobs {
			if shiftagg.MemberKey(j.Name) == key {
				hits = append(hits, j.ExternalID)
			}
		}
		switch len(hits) {
		case 0:
			return nil, reconciliationerrors.ErrUnknownJob.WithDetails(map[string]string{"job_name": name})
		case 1:
			add(hits[0])
		default:
			return nil, reconciliationerrors.ErrAmbiguousJobName.WithDetails(map[string]any{"job_name": name, "job_ids": hits})
		}
	}

	for _, id := range selected {
		if st.IsCommitted(id) {
			return nil, reconciliationerrors.ErrJobAlreadyCommitted.WithDetails(map[string]string{"job_id": id})
		}
		if len(st.RowsForJob(id)) == 0 {
			return nil, reconciliationerrors.ErrJobHasNoRows.WithDetails(map[string]string{"job_id": id})
		}
	}
	return selected, nil
}

// unclaimedNames lists sheet names no match proposes or confirms.
func unclaimedNames(names []string, matches []jobmatch.JobNameMatch) []string {
	claimed := make(map[string]bool, len(matches))
	for _, m := range matches {
		if m.SheetJobName != nil {
			claimed[*m.SheetJobName] = true
		}
	}
	out := make([]string, 0)
	for _, n := range names {
		if !claimed[n] {
			out = append(out, n)
		}
	}
	return out
}

func mapExtractError(filename string, err error) error {
	var noHeader *shiftextract.NoHeaderError
	if errors.As(err, &noHeader) {
		return reconciliationerrors.ErrNoShiftHeader.WithDetails(map[string]any{"filename": filename, "sheets": noHeader.Sheets})
	}
	return reconciliationerrors.ErrUnsupportedWorksheet.WithDetails(map[string]string{"filename": filename, "reason": err.Error()})
}

func jobIndex(jobs []SessionJob, id string) int {
	for i, j := range jobs {
		if j.ExternalID == id {
			return i
		}
	}
	return -1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
