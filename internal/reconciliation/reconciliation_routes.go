package reconciliation

import (
	"time"

	"go-crewperf/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RouteOptions tunes the guards in front of the session endpoints.
type RouteOptions struct {
	UploadRatePerSec float64
	UploadBurst      int
	IdempotencyTTL   time.Duration
}

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client, opts RouteOptions, logger *zap.Logger) {
	idempotent := middleware.Idempotency(rdb, opts.IdempotencyTTL, logger)

	sessions := r.Group("/reconciliations")
	{
		sessions.POST("", handler.Begin)
		sessions.GET("/:id", handler.Get)
		sessions.POST("/:id/jobs", idempotent, handler.ImportJobs)
		sessions.POST("/:id/worksheet", middleware.RateLimitByActor(rate.Limit(opts.UploadRatePerSec), opts.UploadBurst), handler.ExtractShifts)
		sessions.POST("/:id/matches", handler.ConfirmMatches)
		sessions.PATCH("/:id/working-set", handler.EditWorkingSet)
		sessions.GET("/:id/working-set/export", handler.ExportWorkingSet)
		sessions.POST("/:id/commit", idempotent, handler.Commit)
		sessions.POST("/:id/abandon", handler.Abandon)
	}
}
