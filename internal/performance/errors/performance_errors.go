package performanceerrors

import (
	"go-crewperf/internal/shared/apperror"
	"net/http"
)

var (
	ErrJobIDRequired = apperror.New(
		apperror.CodeInvalidInput,
		"job id is required",
		http.StatusBadRequest,
	)
)
