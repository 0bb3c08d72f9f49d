package joberrors

import (
	"go-crewperf/internal/shared/apperror"
	"net/http"
)

var (
	ErrJobNotFound = apperror.New(
		apperror.CodeNotFound,
		"Job not found",
		http.StatusNotFound,
	)
	ErrJobExternalIDRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Job external id is required",
		http.StatusBadRequest,
	)
)
