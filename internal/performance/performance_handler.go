package performance

import (
	"net/http"

	"go-crewperf/internal/shared/apperror"
	"go-crewperf/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("performance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("performance.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) GetPerformance(c *gin.Context) {
	companyID := c.GetString("company_id")
	jobID := c.Param("id")

	resp, err := h.service.GetPerformance(c.Request.Context(), companyID, jobID)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		h.logger.Warn("performance request failed",
			zap.String("job_id", jobID),
			zap.Int("status", httpErr.Status),
			zap.String("code", httpErr.Code),
		)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
