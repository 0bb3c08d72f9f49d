package main

import (
	"time"

	"go-crewperf/internal/app"
	"go-crewperf/internal/bootstrap"
	"go-crewperf/internal/config"
	"go-crewperf/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config failed", zap.Error(err))
	}

	apperror.Init()
	r := gin.New()
	r.Use(gin.Recovery())

	// build dependency + routes
	cleanup, err := app.BuildApp(r, cfg)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}
	defer cleanup()

	bootstrap.StartHTTPServer(
		r,
		bootstrap.ServerConfig{
			Port:            cfg.Port,
			ReadTimeout:     time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
			WriteTimeout:    time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
			IdleTimeout:     time.Duration(cfg.HTTP.IdleTimeoutSec) * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		bootstrap.NewStdoutAuditLogger(logger),
	)
}
