package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker guards the destination table so only one cycle runs at a time.
// TryLock never blocks.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// LocalLock serializes cycles inside one process.
type LocalLock struct {
	mu sync.Mutex
}

func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

func (l *LocalLock) TryLock(context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

func (l *LocalLock) Unlock(context.Context) error {
	l.mu.Unlock()
	return nil
}

const DefaultLockKey = "catalogsync:cycle"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock serializes cycles across processes sharing one Redis.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = DefaultLockKey
	}
	return &RedisLock{client: client, key: key, ttl: ttl}
}

func (l *RedisLock) TryLock(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire redis lock: %w", err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
	return true, nil
}

// Unlock only deletes the key while it still holds this holder's token, so
// an expired lock taken over by another process is left alone.
func (l *RedisLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release redis lock: %w", err)
	}
	return nil
}

// ChainLock acquires every lock in order and releases them in reverse.
type ChainLock []Locker

func (c ChainLock) TryLock(ctx context.Context) (bool, error) {
	for i, l := range c {
		ok, err := l.TryLock(ctx)
		if err != nil || !ok {
			for j := i - 1; j >= 0; j-- {
				_ = c[j].Unlock(ctx)
			}
			return false, err
		}
	}
	return true, nil
}

func (c ChainLock) Unlock(ctx context.Context) error {
	var firstErr error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Unlock(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
