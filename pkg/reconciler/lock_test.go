package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLock(t *testing.T) {
	lock := NewLocalLock()

	release, err := lock.Acquire(context.Background())
	require.NoError(t, err)

	_, err = lock.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPassInProgress)

	release()

	release, err = lock.Acquire(context.Background())
	require.NoError(t, err)
	release()
}

func TestRedisLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	t.Run("acquire and release", func(t *testing.T) {
		lock := NewRedisLock(client, "test:lock", time.Minute)

		release, err := lock.Acquire(context.Background())
		require.NoError(t, err)
		assert.True(t, mr.Exists("test:lock"))

		_, err = lock.Acquire(context.Background())
		assert.ErrorIs(t, err, ErrPassInProgress)

		release()
		assert.False(t, mr.Exists("test:lock"))

		release, err = lock.Acquire(context.Background())
		require.NoError(t, err)
		release()
	})

	t.Run("release only deletes its own token", func(t *testing.T) {
		lock := NewRedisLock(client, "test:lock2", time.Minute)

		release, err := lock.Acquire(context.Background())
		require.NoError(t, err)

		// Another holder replaced the key, for example after a TTL expiry
		mr.Set("test:lock2", "someone-else")
		release()
		assert.True(t, mr.Exists("test:lock2"))
		mr.Del("test:lock2")
	})

	t.Run("ttl expiry frees a crashed holder", func(t *testing.T) {
		lock := NewRedisLock(client, "test:lock3", time.Minute)

		_, err := lock.Acquire(context.Background())
		require.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		release, err := lock.Acquire(context.Background())
		require.NoError(t, err)
		release()
	})

	t.Run("defaults applied for empty key and ttl", func(t *testing.T) {
		lock := NewRedisLock(client, "", 0)
		assert.Equal(t, "dues:reconciler:lock", lock.key)
		assert.Equal(t, 10*time.Minute, lock.ttl)
	})
}
