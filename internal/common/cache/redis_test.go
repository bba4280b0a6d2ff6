package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestJobLock(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	t.Run("加锁与互斥", func(t *testing.T) {
		a := NewJobLock(client, "pay_roi", "instance-a")
		b := NewJobLock(client, "pay_roi", "instance-b")

		ok, err := a.TryLock(ctx, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = b.TryLock(ctx, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, a.Unlock(ctx))

		ok, err = b.TryLock(ctx, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, b.Unlock(ctx))
	})

	t.Run("只能释放自己的锁", func(t *testing.T) {
		a := NewJobLock(client, "audit", "instance-a")
		b := NewJobLock(client, "audit", "instance-b")

		ok, err := a.TryLock(ctx, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		// b 持有不同 token，释放不掉 a 的锁
		require.NoError(t, b.Unlock(ctx))
		ok, err = b.TryLock(ctx, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, a.Unlock(ctx))
	})

	t.Run("过期后可重新抢占", func(t *testing.T) {
		a := NewJobLock(client, "sweep", "instance-a")
		b := NewJobLock(client, "sweep", "instance-b")

		ok, err := a.TryLock(ctx, time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		mr.FastForward(2 * time.Second)

		ok, err = b.TryLock(ctx, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestSetGetDelete(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	// 包级函数走全局客户端
	rdb = client
	t.Cleanup(func() { rdb = nil })

	type payload struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	require.NoError(t, Set(ctx, "cfg:roi", payload{Name: "neo", Value: 3.0}, time.Minute))

	var got payload
	require.NoError(t, Get(ctx, "cfg:roi", &got))
	assert.Equal(t, "neo", got.Name)
	assert.Equal(t, 3.0, got.Value)

	require.NoError(t, Delete(ctx, "cfg:roi"))
	err := Get(ctx, "cfg:roi", &got)
	assert.ErrorIs(t, err, redis.Nil)
}
