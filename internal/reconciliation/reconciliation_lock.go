package reconciliation

import (
	"context"
	"sync"
	"time"

	reconciliationerrors "go-crewperf/internal/reconciliation/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	LockKeyPrefix   = "reconciliation:lock:"
	lockRetryPeriod = 50 * time.Millisecond
)

// unlockScript deletes the lock only while it still holds our token, so
// an expired lock re-acquired by someone else is left alone.
const unlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

func GetLockKey(sessionID string) string {
	return LockKeyPrefix + sessionID
}

// Locker serializes writers of one session. Lock blocks up to the
// configured wait and then fails with ErrSessionBusy.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type redisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration, logger ...*zap.Logger) Locker {
	l := zap.L().Named("reconciliation.lock")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("reconciliation.lock")
	}
	return &redisLocker{rdb: rdb, ttl: ttl, wait: wait, logger: l}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.logger.Error("acquire session lock failed", zap.String("key", key), zap.Error(err))
			return nil, err
		}
		if ok {
			return func() {
				if err := l.rdb.Eval(context.Background(), unlockScript, []string{key}, token).Err(); err != nil {
					l.logger.Warn("release session lock failed", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, reconciliationerrors.ErrSessionBusy.WithDetails(map[string]string{"lock": key})
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryPeriod):
		}
	}
}

// localLocker is used when no Redis is configured; it only serializes
// writers inside this process.
type localLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait time.Duration
}

func NewLocalLocker(wait time.Duration) Locker {
	return &localLocker{held: make(map[string]chan struct{}), wait: wait}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	for {
		l.mu.Lock()
		done, busy := l.held[key]
		if !busy {
			done = make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					close(done)
					l.mu.Unlock()
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-done:
		case <-timer.C:
			return nil, reconciliationerrors.ErrSessionBusy.WithDetails(map[string]string{"lock": key})
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
