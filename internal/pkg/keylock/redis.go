package keylock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisLockPrefix = "artx/lock/"

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every API instance using the same Redis.
// A held key expires after ttl so a crashed holder cannot block forever.
type Redis struct {
	Client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL -> %w", err)
	}
	rdb := redis.NewClient(opt)
	if _, err = rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("rdb.Ping -> %w", err)
	}

	return &Redis{
		Client: rdb,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
	}, nil
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := redisLockPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.Client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("r.Client.SetNX -> %w", err)
		}
		if ok {
			break
		}

		select {
		case <-time.After(r.retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := unlockScript.Run(context.Background(), r.Client, []string{k}, token).Err(); err != nil {
				zap.L().Warn("failed to release lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}
