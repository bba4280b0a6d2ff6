// Package cache 提供 Redis 缓存功能
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yunhetech/crypto-invest-backend/internal/common/config"
)

var (
	rdb     *redis.Client
	initErr error
	once    sync.Once
)

// Init 初始化 Redis 连接
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.Addr(),
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			initErr = fmt.Errorf("failed to connect redis: %w", err)
			rdb = nil
		}
	})

	return rdb, initErr
}

// GetClient 获取 Redis 客户端
func GetClient() *redis.Client {
	return rdb
}

// Close 关闭 Redis 连接
func Close() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}

// Set 设置缓存
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return rdb.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存
func Get(ctx context.Context, key string, dest interface{}) error {
	data, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除缓存
func Delete(ctx context.Context, keys ...string) error {
	return rdb.Del(ctx, keys...).Err()
}

// CacheKey 常用缓存键前缀
const (
	KeyPrefixJobLock = "lock:job:"
)

// JobLock 定时任务分布式锁
// 多实例部署时保证同一任务同一时刻只有一个实例在跑。
type JobLock struct {
	client *redis.Client
	key    string
	token  string
}

// NewJobLock 创建任务锁
func NewJobLock(client *redis.Client, jobName, token string) *JobLock {
	return &JobLock{
		client: client,
		key:    KeyPrefixJobLock + jobName,
		token:  token,
	}
}

// TryLock 尝试加锁，已被占用时返回 false
func (l *JobLock) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, ttl).Result()
}

// Unlock 释放锁，仅释放自己持有的锁
func (l *JobLock) Unlock(ctx context.Context) error {
	const script = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`
	return l.client.Eval(ctx, script, []string{l.key}, l.token).Err()
}
