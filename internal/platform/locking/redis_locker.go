// Package locking guards idempotency keys against concurrent in-flight requests.
package locking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/middleware"
)

const keyPrefix = "idem-lock:"

// RedisLocker takes short-lived Redis locks per idempotency key.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

var _ portssvc.RequestLocker = (*RedisLocker)(nil)

// NewRedisLocker returns a locker whose locks expire after ttl unless released.
func NewRedisLocker(rdb redislock.RedisClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, keyPrefix+key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperrors.NewConflictError("a request with this idempotency key is already in progress")
	}
	if err != nil {
		return nil, apperrors.NewInfrastructureError("failed to obtain request lock", err)
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	return func() {
		// the request context may already be cancelled
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn("Failed to release request lock", slog.String("key", key), slog.String("error", err.Error()))
		}
	}, nil
}
