package performance

import (
	"context"

	"go-crewperf/internal/crewshift"
	"go-crewperf/internal/job"
	performanceerrors "go-crewperf/internal/performance/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ShiftSource is the part of the approval workflow the calculator reads.
// It only hands out payable shifts.
type ShiftSource interface {
	ListPayable(ctx context.Context, companyID, jobID string) ([]crewshift.PayableShift, error)
}

type Service interface {
	GetPerformance(ctx context.Context, companyID, jobID string) (PerformanceResponse, error)
}

type service struct {
	jobs   job.Repository
	shifts ShiftSource
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(jobs job.Repository, shifts ShiftSource, logger ...*zap.Logger) Service {
	l := zap.L().Named("performance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("performance.service")
	}
	return &service{jobs: jobs, shifts: shifts, sf: &singleflight.Group{}, logger: l}
}

// GetPerformance recomputes from the current payable shifts on every call.
// Identical concurrent requests share one computation; nothing is cached.
func (s *service) GetPerformance(ctx context.Context, companyID, jobID string) (PerformanceResponse, error) {
	if jobID == "" {
		return PerformanceResponse{}, performanceerrors.ErrJobIDRequired
	}

	key := companyID + ":" + jobID
	// The flight is shared, so one caller cancelling must not fail the rest.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := s.sf.Do(key, func() (interface{}, error) {
		j, err := s.jobs.FindByExternalID(flightCtx, companyID, jobID)
		if err != nil {
			return nil, err
		}

		payable, err := s.shifts.ListPayable(flightCtx, companyID, jobID)
		if err != nil {
			return nil, err
		}

		result := Calculate(Input{
			JobEstimatedHours:      j.EstimatedHours,
			EstimateEstimatedHours: j.EstimateEstimatedHours,
			CrewLeaderPlannedHours: j.CrewLeaderPlannedHours,
			Shifts:                 payable,
		})
		return mapToResponse(j.ExternalID, j.Name, len(payable), result), nil
	})
	if err != nil {
		s.logger.Warn("get performance failed",
			zap.String("company_id", companyID),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return PerformanceResponse{}, err
	}

	resp := v.(PerformanceResponse)
	s.logger.Debug("get performance computed",
		zap.String("job_id", jobID),
		zap.Bool("shared", shared),
		zap.Bool("overrun", resp.Overrun),
	)
	return resp, nil
}
