package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
)

// retryInterval is how long Lock waits between SET NX attempts.
const retryInterval = 50 * time.Millisecond

// RedisLocker is a Locker shared by every instance talking to the same Redis.
// The TTL bounds how long a crashed holder can block a session.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.SugaredLogger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, log: log}
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err == nil && ok {
			break
		}
		if err != nil && ctx.Err() == nil {
			l.log.Debugw("Lock attempt failed, retrying", "key", lockKey, "error", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: session %q is busy: %v", app_errors.ErrConflict, key, ctx.Err())
		}
	}

	return func() {
		// The holder's context may already be gone; the release must still run.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := luaUnlock.Run(ctx, l.rdb, []string{lockKey}, token).Err(); err != nil {
			l.log.Warnw("Failed to release session lock", "key", lockKey, "error", err)
		}
	}, nil
}
