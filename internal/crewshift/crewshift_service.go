package crewshift

import (
	"context"
	"database/sql"
	"time"

	crewshifterrors "go-crewperf/internal/crewshift/errors"
	"go-crewperf/internal/messaging/kafka"
	"go-crewperf/internal/shared/contextutil"
	"go-crewperf/internal/shiftagg"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Approve(ctx context.Context, companyID, actorID string, req ApproveRequest) (TransitionResponse, error)
	Reject(ctx context.Context, companyID, actorID string, req RejectRequest) (TransitionResponse, error)
	MarkSynced(ctx context.Context, companyID string, req SyncRequest) (TransitionResponse, error)
	ListByJob(ctx context.Context, companyID, jobID string) ([]CrewShiftResponse, error)
	ListPayable(ctx context.Context, companyID, jobID string) ([]PayableShift, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outboxRepo kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("crewshift.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("crewshift.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: l,
	}
}

func (s *service) Approve(ctx context.Context, companyID, actorID string, req ApproveRequest) (TransitionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	jobIDs := distinct(req.JobIDs)
	s.logger.Debug("approve crew shifts requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.Strings("job_ids", jobIDs),
	)
	if _, err := uuid.Parse(companyID); err != nil {
		return TransitionResponse{}, crewshifterrors.ErrInvalidCompanyID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve crew shifts begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return TransitionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	shifts, err := qtx.FindByJobIDs(ctx, companyID, jobIDs)
	if err != nil {
		s.logger.Error("approve crew shifts load failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	seen := make(map[string]bool, len(shifts))
	var pending []string
	for _, sh := range shifts {
		seen[sh.JobID] = true
		if sh.Status == StatusPendingApproval {
			pending = append(pending, sh.ID.String())
		}
	}
	for _, jobID := range jobIDs {
		if !seen[jobID] {
			s.logger.Warn("approve crew shifts job without shifts", zap.String("job_id", jobID))
			return TransitionResponse{}, crewshifterrors.ErrJobHasNoShifts.WithDetails(map[string]string{"job_id": jobID})
		}
	}

	now := s.now()
	updated, err := qtx.ApplyTransition(ctx, companyID, pending, Transition{
		From:  []string{StatusPendingApproval},
		To:    StatusApproved,
		Actor: actorID,
		At:    now,
	})
	if err != nil {
		s.logger.Error("approve crew shifts update failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	if err := s.queueEvents(ctx, tx, updated, func(jobID string, ids []string) (kafka.OutboxEvent, error) {
		return ApprovedOutboxEvent(rid, companyID, jobID, ids, actorID, false, now)
	}); err != nil {
		return TransitionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve crew shifts commit failed", zap.String("request_id", rid), zap.Error(err))
		return TransitionResponse{}, err
	}

	s.logger.Info("approve crew shifts success",
		zap.String("request_id", rid),
		zap.Int("approved", len(updated)),
		zap.Int("unchanged", len(shifts)-len(updated)),
	)
	return buildTransitionResponse(shifts, updated), nil
}

func (s *service) Reject(ctx context.Context, companyID, actorID string, req RejectRequest) (TransitionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("reject crew shifts requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.Int("refs", len(req.Refs)),
	)
	if _, err := uuid.Parse(companyID); err != nil {
		return TransitionResponse{}, crewshifterrors.ErrInvalidCompanyID
	}
	for i, ref := range req.Refs {
		if ref.ShiftID == "" && (ref.JobID == "" || ref.CrewMember == "") {
			return TransitionResponse{}, crewshifterrors.ErrInvalidShiftRef.WithDetails(map[string]any{"index": i})
		}
		if ref.ShiftID != "" {
			if _, err := uuid.Parse(ref.ShiftID); err != nil {
				return TransitionResponse{}, crewshifterrors.ErrInvalidShiftRef.WithDetails(map[string]any{"index": i, "shift_id": ref.ShiftID})
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject crew shifts begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return TransitionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	targets, err := s.resolveRefs(ctx, qtx, companyID, req.Refs)
	if err != nil {
		return TransitionResponse{}, err
	}

	var ids []string
	for _, sh := range targets {
		if sh.Status == StatusSynced {
			s.logger.Warn("reject crew shifts synced row", zap.String("shift_id", sh.ID.String()))
			return TransitionResponse{}, crewshifterrors.ErrShiftAlreadySynced.WithDetails(map[string]string{
				"shift_id":    sh.ID.String(),
				"job_id":      sh.JobID,
				"crew_member": sh.CrewMember,
			})
		}
		if sh.Status != StatusRejected {
			ids = append(ids, sh.ID.String())
		}
	}

	now := s.now()
	updated, err := qtx.ApplyTransition(ctx, companyID, ids, Transition{
		From:   []string{StatusPendingApproval, StatusApproved},
		To:     StatusRejected,
		Actor:  actorID,
		Reason: req.Reason,
		At:     now,
	})
	if err != nil {
		s.logger.Error("reject crew shifts update failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	if err := s.queueEvents(ctx, tx, updated, func(jobID string, ids []string) (kafka.OutboxEvent, error) {
		return rejectedOutboxEvent(rid, companyID, jobID, ids, actorID, req.Reason, now)
	}); err != nil {
		return TransitionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject crew shifts commit failed", zap.String("request_id", rid), zap.Error(err))
		return TransitionResponse{}, err
	}

	s.logger.Info("reject crew shifts success",
		zap.String("request_id", rid),
		zap.Int("rejected", len(updated)),
	)
	return buildTransitionResponse(targets, updated), nil
}

// resolveRefs loads every referenced row. A ref that matches nothing fails
// the whole request.
func (s *service) resolveRefs(ctx context.Context, qtx Repository, companyID string, refs []ShiftRef) ([]CrewShift, error) {
	var shiftIDs, jobIDs []string
	for _, ref := range refs {
		if ref.ShiftID != "" {
			shiftIDs = append(shiftIDs, ref.ShiftID)
		} else {
			jobIDs = append(jobIDs, ref.JobID)
		}
	}

	byID, err := qtx.FindByIDs(ctx, companyID, distinct(shiftIDs))
	if err != nil {
		return nil, err
	}
	byJob, err := qtx.FindByJobIDs(ctx, companyID, distinct(jobIDs))
	if err != nil {
		return nil, err
	}

	index := make(map[string]CrewShift, len(byID))
	for _, sh := range byID {
		index[sh.ID.String()] = sh
	}

	picked := make(map[string]bool)
	var out []CrewShift
	add := func(sh CrewShift) {
		if !picked[sh.ID.String()] {
			picked[sh.ID.String()] = true
			out = append(out, sh)
		}
	}

	for _, ref := range refs {
		if ref.ShiftID != "" {
			sh, ok := index[ref.ShiftID]
			if !ok {
				return nil, crewshifterrors.ErrShiftNotFound.WithDetails(map[string]string{"shift_id": ref.ShiftID})
			}
			add(sh)
			continue
		}

		key := shiftagg.MemberKey(ref.CrewMember)
		found := false
		for _, sh := range byJob {
			if sh.JobID == ref.JobID && shiftagg.MemberKey(sh.CrewMember) == key {
				add(sh)
				found = true
			}
		}
		if !found {
			return nil, crewshifterrors.ErrShiftNotFound.WithDetails(map[string]string{
				"job_id":      ref.JobID,
				"crew_member": ref.CrewMember,
			})
		}
	}
	return out, nil
}

func (s *service) MarkSynced(ctx context.Context, companyID string, req SyncRequest) (TransitionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	ids := distinct(req.ShiftIDs)
	s.logger.Debug("mark crew shifts synced requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.Int("shifts", len(ids)),
	)
	if _, err := uuid.Parse(companyID); err != nil {
		return TransitionResponse{}, crewshifterrors.ErrInvalidCompanyID
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return TransitionResponse{}, crewshifterrors.ErrShiftNotFound.WithDetails(map[string]string{"shift_id": id})
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("mark crew shifts synced begin tx failed", zap.Error(err))
		return TransitionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	shifts, err := qtx.FindByIDs(ctx, companyID, ids)
	if err != nil {
		return TransitionResponse{}, err
	}

	found := make(map[string]CrewShift, len(shifts))
	for _, sh := range shifts {
		found[sh.ID.String()] = sh
	}
	var approved []string
	for _, id := range ids {
		sh, ok := found[id]
		if !ok {
			return TransitionResponse{}, crewshifterrors.ErrShiftNotFound.WithDetails(map[string]string{"shift_id": id})
		}
		switch sh.Status {
		case StatusApproved:
			approved = append(approved, id)
		case StatusSynced:
		default:
			return TransitionResponse{}, crewshifterrors.ErrShiftNotApproved.WithDetails(map[string]string{
				"shift_id": id,
				"status":   sh.Status,
			})
		}
	}

	updated, err := qtx.ApplyTransition(ctx, companyID, approved, Transition{
		From: []string{StatusApproved},
		To:   StatusSynced,
		At:   s.now(),
	})
	if err != nil {
		s.logger.Error("mark crew shifts synced update failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("mark crew shifts synced commit failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	s.logger.Info("mark crew shifts synced success",
		zap.String("request_id", rid),
		zap.Int("synced", len(updated)),
	)
	return buildTransitionResponse(shifts, updated), nil
}

func (s *service) ListByJob(ctx context.Context, companyID, jobID string) ([]CrewShiftResponse, error) {
	s.logger.Debug("list crew shifts by job", zap.String("company_id", companyID), zap.String("job_id", jobID))
	shifts, err := s.repo.FindByJobIDs(ctx, companyID, []string{jobID}, StatusApproved, StatusSynced)
	if err != nil {
		s.logger.Error("list crew shifts by job failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(shifts), nil
}

func (s *service) ListPayable(ctx context.Context, companyID, jobID string) ([]PayableShift, error) {
	shifts, err := s.repo.FindByJobIDs(ctx, companyID, []string{jobID}, StatusApproved, StatusSynced)
	if err != nil {
		return nil, err
	}

	out := make([]PayableShift, 0, len(shifts))
	for _, sh := range shifts {
		p, err := Payable(sh)
		if err != nil {
			// the query filters on status; a miss here means the row moved
			// between read and check.
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *service) queueEvents(
	ctx context.Context,
	tx *sql.Tx,
	updated []CrewShift,
	build func(jobID string, ids []string) (kafka.OutboxEvent, error),
) error {
	if s.outbox == nil || len(updated) == 0 {
		return nil
	}

	outboxRepo := s.outbox.WithTx(tx)
	jobs, byJob := idsByJob(updated)
	for _, jobID := range jobs {
		event, err := build(jobID, byJob[jobID])
		if err != nil {
			s.logger.Error("build crew shift event failed", zap.String("job_id", jobID), zap.Error(err))
			return err
		}
		if err := outboxRepo.Create(ctx, event); err != nil {
			s.logger.Error("crew shift outbox persist failed",
				zap.String("job_id", jobID),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func buildTransitionResponse(considered, updated []CrewShift) TransitionResponse {
	changed := make(map[string]bool, len(updated))
	for _, sh := range updated {
		changed[sh.ID.String()] = true
	}
	resp := TransitionResponse{
		Changed:   mapToListResponse(updated),
		Unchanged: []string{},
	}
	for _, sh := range considered {
		if !changed[sh.ID.String()] {
			resp.Unchanged = append(resp.Unchanged, sh.ID.String())
		}
	}
	return resp
}

func mapToResponse(sh CrewShift) CrewShiftResponse {
	resp := CrewShiftResponse{
		ID:           sh.ID.String(),
		SessionID:    sh.SessionID.String(),
		RowID:        sh.RowID,
		JobID:        sh.JobID,
		CrewMember:   sh.CrewMember,
		ShiftCount:   sh.ShiftCount,
		RegularHours: sh.RegularHours.InexactFloat64(),
		OTHours:      sh.OTHours.InexactFloat64(),
		OT2Hours:     sh.OT2Hours.InexactFloat64(),
		QCHours:      sh.QCHours.InexactFloat64(),
		TotalHours:   sh.TotalHours.InexactFloat64(),
		HasQC:        sh.HasQC(),
		Tags:         sh.TagList(),
		Status:       sh.Status,
		ApprovedAt:   sh.ApprovedAt,
		RejectedAt:   sh.RejectedAt,
		SyncedAt:     sh.SyncedAt,
	}
	if sh.EmployeeID != nil {
		resp.EmployeeID = sh.EmployeeID.String()
	}
	if sh.ApprovedBy != nil {
		resp.ApprovedBy = *sh.ApprovedBy
	}
	if sh.RejectedBy != nil {
		resp.RejectedBy = *sh.RejectedBy
	}
	if sh.RejectReason != nil {
		resp.RejectReason = *sh.RejectReason
	}
	return resp
}

func mapToListResponse(shifts []CrewShift) []CrewShiftResponse {
	out := make([]CrewShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		out = append(out, mapToResponse(sh))
	}
	return out
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
