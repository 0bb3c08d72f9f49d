package reconciliation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	reconciliationerrors "go-crewperf/internal/reconciliation/errors"
	"go-crewperf/internal/shared/apperror"
	"go-crewperf/internal/shared/contextutil"
	"go-crewperf/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// multipartOverhead leaves room for boundaries and headers around the file.
	multipartOverhead = 1 << 20
)

type Handler struct {
	service        Service
	uploadMaxBytes int64
	logger         *zap.Logger
}

func NewHandler(service Service, uploadMaxBytes int64, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("reconciliation.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("reconciliation.handler")
	}
	if uploadMaxBytes <= 0 {
		uploadMaxBytes = 10 << 20
	}
	return &Handler{service: service, uploadMaxBytes: uploadMaxBytes, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	log := contextutil.GetLogger(c.Request.Context(), h.logger)
	log.Warn("reconciliation request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("session_id", c.Param("id")),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) bindError(c *gin.Context, op string, err error) {
	h.logger.Warn("http "+op+" validation failed", zap.Error(err))
	mapped := apperror.ToHTTP(apperror.MapValidationError(err))
	response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", mapped.Message, mapped.Details)
}

func (h *Handler) Begin(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("actor_id")

	var req BeginRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.bindError(c, "begin reconciliation", err)
		return
	}

	resp, err := h.service.Begin(c.Request.Context(), companyID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

// Get returns the snapshot. With ?wait=15s it first waits for the
// asynchronous job import.
func (h *Handler) Get(c *gin.Context) {
	companyID := c.GetString("company_id")
	sessionID := c.Param("id")

	var (
		resp SessionResponse
		err  error
	)
	if raw := c.Query("wait"); raw != "" {
		wait, perr := time.ParseDuration(raw)
		if perr != nil || wait < 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", "wait must be a duration such as 15s")
			return
		}
		resp, err = h.service.WaitForJobs(c.Request.Context(), companyID, sessionID, wait)
	} else {
		resp, err = h.service.Get(c.Request.Context(), companyID, sessionID)
	}
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ImportJobs(c *gin.Context) {
	companyID := c.GetString("company_id")

	var req ImportJobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "import jobs", err)
		return
	}

	resp, err := h.service.ImportJobs(c.Request.Context(), companyID, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ExtractShifts(c *gin.Context) {
	companyID := c.GetString("company_id")
	sessionID := c.Param("id")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadMaxBytes+multipartOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeServiceError(c, reconciliationerrors.ErrWorksheetTooLarge.WithDetails(map[string]any{"max_bytes": h.uploadMaxBytes}))
			return
		}
		h.bindError(c, "extract shifts", err)
		return
	}
	if fileHeader.Size > h.uploadMaxBytes {
		h.writeServiceError(c, reconciliationerrors.ErrWorksheetTooLarge.WithDetails(map[string]any{
			"filename":  fileHeader.Filename,
			"max_bytes": h.uploadMaxBytes,
		}))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.bindError(c, "extract shifts", err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.uploadMaxBytes+1))
	if err != nil {
		h.bindError(c, "extract shifts", err)
		return
	}

	resp, err := h.service.ExtractShifts(c.Request.Context(), companyID, sessionID, fileHeader.Filename, content)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ConfirmMatches(c *gin.Context) {
	companyID := c.GetString("company_id")

	var req ConfirmMatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "confirm matches", err)
		return
	}

	resp, err := h.service.ConfirmMatches(c.Request.Context(), companyID, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) EditWorkingSet(c *gin.Context) {
	companyID := c.GetString("company_id")

	var req EditWorkingSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "edit working set", err)
		return
	}

	resp, err := h.service.EditWorkingSet(c.Request.Context(), companyID, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Commit(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("actor_id")

	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "commit reconciliation", err)
		return
	}

	resp, err := h.service.Commit(c.Request.Context(), companyID, actorID, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Abandon(c *gin.Context) {
	companyID := c.GetString("company_id")

	resp, err := h.service.Abandon(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ExportWorkingSet(c *gin.Context) {
	companyID := c.GetString("company_id")

	export, err := h.service.ExportWorkingSet(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, xlsxContentType, export.Content)
}
