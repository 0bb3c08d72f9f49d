package app

import (
	"go-crewperf/internal/config"
	"go-crewperf/internal/middleware"
	"go-crewperf/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BuildApp connects the stores and registers every module on router. The
// returned cleanup closes them.
func BuildApp(router *gin.Engine, cfg config.Config) (func(), error) {
	logger := zap.L()

	// 1. Setup Infrastructure
	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, 5)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	} else {
		logger.Warn("REDIS_ADDR not set, session locks and idempotency are process local")
	}

	router.Use(
		middleware.RequestID(),
		middleware.ActorContext(),
		middleware.ContextLogger(logger),
	)

	// 2. Register Modules & Routes
	registerModules(router, cfg, sqlDB, gormDB, rdb, logger)

	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = sqlDB.Close()
	}
	return cleanup, nil
}
