package consumer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-crewperf/internal/shared/apperror"
	"go-crewperf/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	retryBackoff    = 200 * time.Millisecond
	maxRetryBackoff = 30 * time.Second
)

// MessageReader is the part of *kafkago.Reader the consumers need.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type handleFunc func(ctx context.Context, msg kafkago.Message) error

// errMalformed marks a message that can never be handled.
var errMalformed = errors.New("malformed message")

// run fetches until ctx is done. A message is committed once handled or
// once it failed for good. Transient failures are retried on the same
// message, so a later commit never moves the group offset past a message
// that was not handled. On shutdown mid-retry the message stays
// uncommitted and is redelivered.
func run(ctx context.Context, reader MessageReader, log *zap.Logger, name string, handle handleFunc) {
	log.Info(name + " consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info(name + " consumer stopped")
				return
			}
			log.Error("fetch "+name+" message failed", zap.Error(err))
			continue
		}

		rid := headerValue(msg, "request_id")
		msgCtx := contextutil.WithRequestID(ctx, rid)

		err = handleWithRetry(msgCtx, log.With(zap.String("consumer", name), zap.String("request_id", rid)), msg, handle)
		switch {
		case err == nil:
		case isPermanent(err):
			log.Warn(name+" message skipped",
				zap.String("request_id", rid),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		default:
			log.Info(name+" consumer stopped, message left uncommitted",
				zap.String("request_id", rid),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit "+name+" message failed", zap.Error(err))
		}
	}
}

// handleWithRetry returns nil, a permanent error, or ctx's error.
func handleWithRetry(ctx context.Context, log *zap.Logger, msg kafkago.Message, handle handleFunc) error {
	delay := retryBackoff
	for attempt := 1; ; attempt++ {
		err := handle(ctx, msg)
		if err == nil || isPermanent(err) {
			return err
		}
		log.Warn("message handling failed, retrying",
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if delay *= 2; delay > maxRetryBackoff {
			delay = maxRetryBackoff
		}
	}
}

// isPermanent reports whether retrying cannot help: malformed payloads and
// client errors. Stale state and busy sessions are worth another try.
func isPermanent(err error) bool {
	if errors.Is(err, errMalformed) {
		return true
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	if appErr.Code == apperror.CodeStaleState {
		return false
	}
	return appErr.HTTPStatus >= http.StatusBadRequest && appErr.HTTPStatus < http.StatusInternalServerError
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
