package crewshifterrors

import (
	"go-crewperf/internal/shared/apperror"
	"net/http"
)

var (
	ErrShiftNotFound = apperror.New(
		apperror.CodeNotFound,
		"crew shift not found",
		http.StatusNotFound,
	)
	ErrJobHasNoShifts = apperror.New(
		apperror.CodeNotFound,
		"job has no committed crew shifts",
		http.StatusNotFound,
	)
	ErrInvalidShiftRef = apperror.New(
		apperror.CodeInvalidInput,
		"shift reference needs shift_id or job_id with crew_member",
		http.StatusBadRequest,
	)
	ErrShiftAlreadySynced = apperror.New(
		apperror.CodeInvalidState,
		"crew shift was already consumed by payroll and cannot be rejected",
		http.StatusBadRequest,
	)
	ErrShiftNotApproved = apperror.New(
		apperror.CodeInvalidState,
		"only approved crew shifts can be marked synced",
		http.StatusBadRequest,
	)
	ErrDuplicateShift = apperror.New(
		apperror.CodeConsistency,
		"crew shift row was already committed for this session",
		http.StatusConflict,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
)
