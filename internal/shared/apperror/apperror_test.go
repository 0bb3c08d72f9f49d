package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-crewperf/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

var errSample = apperror.New(apperror.CodeConsistency, "sheet job name already mapped", http.StatusConflict)

func TestAppError_WithDetailsKeepsIdentity(t *testing.T) {
	detailed := errSample.WithDetails(map[string]string{"sheet_job_name": "Oak"})

	assert.True(t, errors.Is(detailed, errSample))
	assert.Nil(t, errSample.Details)
	assert.Equal(t, map[string]string{"sheet_job_name": "Oak"}, detailed.Details)

	wrapped := fmt.Errorf("confirm: %w", detailed)
	assert.True(t, errors.Is(wrapped, errSample))
}

func TestToHTTP(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		got := apperror.ToHTTP(errSample.WithDetails("row 3"))
		assert.Equal(t, http.StatusConflict, got.Status)
		assert.Equal(t, apperror.CodeConsistency, got.Code)
		assert.Equal(t, "row 3", got.Details)
	})

	t.Run("unknown error hides message", func(t *testing.T) {
		got := apperror.ToHTTP(errors.New("pq: connection reset"))
		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, apperror.CodeInternalError, got.Code)
		assert.NotContains(t, got.Message, "pq")
	})
}

func TestMapValidationError(t *testing.T) {
	apperror.Init()
	type payload struct {
		JobIDs []string `json:"job_ids" validate:"required"`
	}

	err := validator.New().Struct(payload{})
	mapped := apperror.MapValidationError(err)

	var appErr *apperror.AppError
	assert.True(t, errors.As(mapped, &appErr))
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
	assert.Contains(t, appErr.Message, "is required")
}
