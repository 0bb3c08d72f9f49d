package reconciliationerrors

import (
	"go-crewperf/internal/shared/apperror"
	"net/http"
)

var (
	ErrSessionNotFound = apperror.New(
		apperror.CodeNotFound,
		"reconciliation session not found",
		http.StatusNotFound,
	)
	ErrInvalidSessionID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid reconciliation session id",
		http.StatusBadRequest,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"period_end must not be before period_start",
		http.StatusBadRequest,
	)
	ErrSessionClosed = apperror.New(
		apperror.CodeInvalidState,
		"reconciliation session is committed or abandoned",
		http.StatusBadRequest,
	)
	ErrNotReadyForReview = apperror.New(
		apperror.CodeInvalidState,
		"worksheet has not been extracted for this session",
		http.StatusBadRequest,
	)
	ErrInvalidJob = apperror.New(
		apperror.CodeInvalidInput,
		"imported job is invalid",
		http.StatusBadRequest,
	)
	ErrNoJobsImported = apperror.New(
		apperror.CodeInvalidState,
		"no jobs have been imported into this session",
		http.StatusBadRequest,
	)
	ErrImportTimeout = apperror.New(
		apperror.CodeStaleState,
		"jobs were not imported in time, retry later",
		http.StatusConflict,
	)
	ErrUnsupportedWorksheet = apperror.New(
		apperror.CodeInvalidInput,
		"worksheet must be an xlsx or csv file with at least one sheet",
		http.StatusBadRequest,
	)
	ErrNoShiftHeader = apperror.New(
		apperror.CodeInvalidInput,
		"no shift header row found in the worksheet",
		http.StatusBadRequest,
	)
	ErrWorksheetTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"worksheet exceeds the upload size limit",
		http.StatusRequestEntityTooLarge,
	)
	ErrUnknownJob = apperror.New(
		apperror.CodeNotFound,
		"job is not part of this session",
		http.StatusNotFound,
	)
	ErrUnknownSheetName = apperror.New(
		apperror.CodeInvalidInput,
		"sheet job name does not appear in the extracted worksheet",
		http.StatusBadRequest,
	)
	ErrJobAlreadyCommitted = apperror.New(
		apperror.CodeInvalidState,
		"job was already committed from this session",
		http.StatusBadRequest,
	)
	ErrDuplicateJobInRequest = apperror.New(
		apperror.CodeInvalidInput,
		"job appears more than once in the request",
		http.StatusBadRequest,
	)
	ErrSheetNameConflict = apperror.New(
		apperror.CodeConsistency,
		"sheet job name is mapped to more than one job",
		http.StatusConflict,
	)
	ErrInvalidEdit = apperror.New(
		apperror.CodeInvalidInput,
		"working set edit is invalid",
		http.StatusBadRequest,
	)
	ErrRowNotFound = apperror.New(
		apperror.CodeNotFound,
		"working set row not found",
		http.StatusNotFound,
	)
	ErrEmptyWorkingSet = apperror.New(
		apperror.CodeConsistency,
		"working set has no crew rows to commit",
		http.StatusConflict,
	)
	ErrJobHasNoRows = apperror.New(
		apperror.CodeConsistency,
		"selected job has no crew rows in the working set",
		http.StatusConflict,
	)
	ErrNoJobsSelected = apperror.New(
		apperror.CodeInvalidInput,
		"select jobs by job_ids or job_names",
		http.StatusBadRequest,
	)
	ErrAmbiguousJobName = apperror.New(
		apperror.CodeInvalidInput,
		"job name matches more than one job in this session",
		http.StatusBadRequest,
	)
	ErrSessionBusy = apperror.New(
		apperror.CodeStaleState,
		"reconciliation session is being modified, retry",
		http.StatusConflict,
	)
)
