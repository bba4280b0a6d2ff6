package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noBackoff(int) time.Duration { return 0 }

func TestPolicyDo(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")
	errFatal := errors.New("fatal")

	t.Run("失败后重试直到成功", func(t *testing.T) {
		p := &Policy{MaxAttempts: 3, Backoff: noBackoff}
		calls := 0
		err := p.Do(ctx, func() error {
			calls++
			if calls < 3 {
				return errBoom
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("超出次数返回最后一次错误", func(t *testing.T) {
		p := &Policy{MaxAttempts: 2, Backoff: noBackoff}
		calls := 0
		err := p.Do(ctx, func() error {
			calls++
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 2, calls)
	})

	t.Run("不可重试错误立即返回", func(t *testing.T) {
		p := &Policy{
			MaxAttempts: 5,
			Backoff:     noBackoff,
			Retryable:   func(err error) bool { return !errors.Is(err, errFatal) },
		}
		calls := 0
		err := p.Do(ctx, func() error {
			calls++
			return errFatal
		})
		assert.ErrorIs(t, err, errFatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("取消后不再尝试", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		p := &Policy{MaxAttempts: 3, Backoff: noBackoff}
		calls := 0
		err := p.Do(cctx, func() error {
			calls++
			return errBoom
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, calls)
	})

	t.Run("指数退避序列", func(t *testing.T) {
		backoff := ExponentialBackoff(500 * time.Millisecond)
		assert.Equal(t, 500*time.Millisecond, backoff(1))
		assert.Equal(t, time.Second, backoff(2))
		assert.Equal(t, 2*time.Second, backoff(3))
	})
}
