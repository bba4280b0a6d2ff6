// Package retry 提供统一的重试策略
package retry

import (
	"context"
	"time"
)

// Policy 重试策略
// 链上客户端和存款核验共用同一策略，不在调用点散落退避逻辑。
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(err error) bool
}

// Default 默认策略：3 次尝试，指数退避，所有错误可重试
func Default() *Policy {
	return &Policy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(500 * time.Millisecond),
		Retryable:   func(error) bool { return true },
	}
}

// ExponentialBackoff 指数退避：base, 2*base, 4*base...
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
		}
		return d
	}
}

// Do 按策略执行 fn，直到成功、不可重试或超出次数
// ctx 取消时立即返回 ctx 错误，不再继续尝试。
func (p *Policy) Do(ctx context.Context, fn func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = fn(); err == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		wait := time.Duration(0)
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return err
}
