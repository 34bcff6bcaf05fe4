package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrPassInProgress indicates another reconciliation pass currently holds
// the lock; the new trigger is dropped rather than overlapped
var ErrPassInProgress = errors.New("reconciliation pass already in progress")

// PassLock serializes reconciliation passes so overlapping cron triggers
// cannot double-invoice
type PassLock interface {
	// Acquire returns a release function, or ErrPassInProgress when held
	Acquire(ctx context.Context) (func(), error)
}

// LocalLock is a single-process pass lock
type LocalLock struct {
	running atomic.Bool
}

// NewLocalLock creates a LocalLock
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// Acquire takes the lock if no pass is running
func (l *LocalLock) Acquire(ctx context.Context) (func(), error) {
	if !l.running.CompareAndSwap(false, true) {
		return nil, ErrPassInProgress
	}
	return func() { l.running.Store(false) }, nil
}

// releaseScript deletes the lock key only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a distributed pass lock for multi-replica deployments,
// backed by SET NX with a TTL. The TTL bounds how long a crashed holder
// can block subsequent passes.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLock creates a RedisLock on the given key
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = "dues:reconciler:lock"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLock{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Acquire takes the distributed lock if no holder exists
func (l *RedisLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire pass lock: %w", err)
	}
	if !ok {
		return nil, ErrPassInProgress
	}

	release := func() {
		// Best effort; the TTL cleans up if this fails
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err()
	}
	return release, nil
}
