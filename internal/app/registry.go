package app

import (
	"database/sql"

	"go-crewperf/internal/config"
	"go-crewperf/internal/crew"
	"go-crewperf/internal/crewshift"
	"go-crewperf/internal/job"
	"go-crewperf/internal/messaging/kafka"
	"go-crewperf/internal/middleware"
	"go-crewperf/internal/performance"
	"go-crewperf/internal/reconciliation"
	"go-crewperf/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	// --- Repositories ---
	counterRepo := counter.NewRepository(gormDB)
	crewRepo := crew.NewRepository(gormDB)
	crewShiftRepo := crewshift.NewRepository(gormDB)
	jobRepo := job.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	reconciliationRepo := reconciliation.NewRepository(gormDB)

	// --- Services ---
	directory := crew.NewDirectory(crewRepo, rdb, cfg.Pipeline.DirectoryMatchCutoff, logger)
	crewShiftService := crewshift.NewService(db, crewShiftRepo, outboxRepo, logger)
	performanceService := performance.NewService(jobRepo, crewShiftService, logger)

	var locker reconciliation.Locker
	if rdb != nil {
		locker = reconciliation.NewRedisLocker(rdb, cfg.Pipeline.SessionLockTTL(), cfg.Pipeline.SessionLockWait(), logger)
	} else {
		locker = reconciliation.NewLocalLocker(cfg.Pipeline.SessionLockWait())
	}
	reconciliationService := reconciliation.NewService(
		db,
		reconciliationRepo,
		counterRepo,
		jobRepo,
		crewShiftRepo,
		outboxRepo,
		locker,
		directory,
		reconciliationOptions(cfg.Pipeline),
		logger,
	)

	// --- Handlers ---
	crewShiftHandler := crewshift.NewHandler(crewShiftService, logger)
	performanceHandler := performance.NewHandler(performanceService, logger)
	reconciliationHandler := reconciliation.NewHandler(reconciliationService, cfg.Pipeline.UploadMaxBytes, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(20, 40))
	{
		crewshift.RegisterRoutes(api, crewShiftHandler)
		performance.RegisterRoutes(api, performanceHandler)
		reconciliation.RegisterRoutes(api, reconciliationHandler, rdb, reconciliation.RouteOptions{
			UploadRatePerSec: cfg.HTTP.UploadRatePerSec,
			UploadBurst:      cfg.HTTP.UploadBurst,
			IdempotencyTTL:   cfg.HTTP.IdempotencyTTL(),
		}, logger)
	}
}

func reconciliationOptions(p config.PipelineConfig) reconciliation.Options {
	return reconciliation.Options{
		MatchThreshold:      p.MatchThreshold,
		MatchCandidateLimit: p.MatchCandidateLimit,
		BranchSuffixes:      p.BranchSuffixes,
		ImportPollInitial:   p.ImportPollInitial(),
		ImportWaitMax:       p.ImportWaitMax(),
		UploadMaxBytes:      p.UploadMaxBytes,
	}
}
