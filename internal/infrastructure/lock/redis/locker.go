package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
	"github.com/JoeShih716/go-blackjack-server/pkg/redis"
)

const keyLock = "lock:%s"

var _ ports.Locker = (*Locker)(nil)

// Locker 以 Redis SETNX 實作跨行程的 key 鎖。
// 鎖帶有 TTL，持有者崩潰後會自動過期。
type Locker struct {
	rds        *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
	maxWait    time.Duration
	logger     *slog.Logger
}

// Option 調整 Locker 參數
type Option func(*Locker)

// WithTTL 鎖的自動過期時間
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) { l.ttl = ttl }
}

// WithRetryDelay 取鎖失敗後的重試間隔
func WithRetryDelay(d time.Duration) Option {
	return func(l *Locker) { l.retryDelay = d }
}

// WithMaxWait 最長等待時間，超過回傳 ports.ErrLockTimeout
func WithMaxWait(d time.Duration) Option {
	return func(l *Locker) { l.maxWait = d }
}

func NewLocker(client *redis.Client, logger *slog.Logger, opts ...Option) *Locker {
	l := &Locker{
		rds:        client,
		ttl:        5 * time.Second,
		retryDelay: 20 * time.Millisecond,
		maxWait:    3 * time.Second,
		logger:     logger.With("component", "redis_locker"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf(keyLock, key)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	for {
		ok, err := l.rds.AcquireLock(ctx, lockKey, token, l.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ports.ErrLockTimeout
			}
			return nil, fmt.Errorf("acquire lock %s: %w", lockKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ports.ErrLockTimeout
		case <-time.After(l.retryDelay):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 呼叫端的 ctx 可能已結束，釋放時另給時限
			rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
			defer rcancel()
			ok, err := l.rds.ReleaseLock(rctx, lockKey, token)
			if err != nil {
				l.logger.Warn("Release lock failed", "key", lockKey, "error", err)
			} else if !ok {
				l.logger.Warn("Lock expired before release", "key", lockKey)
			}
		})
	}, nil
}
