package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go-crewperf/internal/config"
	"go-crewperf/internal/crew"
	"go-crewperf/internal/crewshift"
	"go-crewperf/internal/events"
	"go-crewperf/internal/job"
	"go-crewperf/internal/messaging/kafka"
	"go-crewperf/internal/messaging/kafka/consumer"
	"go-crewperf/internal/reconciliation"
	"go-crewperf/internal/shared/connection"
	"go-crewperf/internal/shared/counter"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const consumerGroup = "go-crewperf"

func RunConsumer(cfg config.Config) error {
	logger := zap.L().Named("app.consumer")

	if err := cfg.Require("KAFKA_BROKER", cfg.KafkaBroker); err != nil {
		return err
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, 5)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	crewShiftRepo := crewshift.NewRepository(gormDB)
	crewShiftService := crewshift.NewService(sqlDB, crewShiftRepo, outboxRepo, logger)

	var locker reconciliation.Locker
	if rdb != nil {
		locker = reconciliation.NewRedisLocker(rdb, cfg.Pipeline.SessionLockTTL(), cfg.Pipeline.SessionLockWait(), logger)
	} else {
		locker = reconciliation.NewLocalLocker(cfg.Pipeline.SessionLockWait())
	}
	reconciliationService := reconciliation.NewService(
		sqlDB,
		reconciliation.NewRepository(gormDB),
		counter.NewRepository(gormDB),
		job.NewRepository(gormDB),
		crewShiftRepo,
		outboxRepo,
		locker,
		crew.NewDirectory(crew.NewRepository(gormDB), rdb, cfg.Pipeline.DirectoryMatchCutoff, logger),
		reconciliationOptions(cfg.Pipeline),
		logger,
	)

	jobsReader := newReader(cfg.KafkaBroker, events.JobsImportedTopic)
	defer jobsReader.Close()
	consumedReader := newReader(cfg.KafkaBroker, events.CrewShiftConsumedTopic)
	defer consumedReader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		consumer.ConsumeJobsImported(ctx, jobsReader, reconciliationService, logger)
	}()
	go func() {
		defer wg.Done()
		consumer.ConsumeCrewShiftConsumed(ctx, consumedReader, crewShiftService, logger)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()
	wg.Wait()

	return nil
}

func newReader(broker, topic string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          topic,
		GroupID:        consumerGroup + "." + topic,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
}
