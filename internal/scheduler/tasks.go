package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yunhetech/crypto-invest-backend/internal/common/cache"
	apperrors "github.com/yunhetech/crypto-invest-backend/internal/common/errors"
	"github.com/yunhetech/crypto-invest-backend/internal/common/logger"
	"github.com/yunhetech/crypto-invest-backend/internal/service/audit"
	"github.com/yunhetech/crypto-invest-backend/internal/service/payout"
)

// TaskHandler 后台账务任务
// 多实例部署时用 Redis 任务锁保证同一任务同一时刻只有一个实例在跑；
// 拿不到锁直接跳过本轮。
type TaskHandler struct {
	roiSvc     *payout.RoiService
	expireSvc  *payout.ExpirationService
	auditSvc   *audit.AuditService
	redisCli   *redis.Client
	instanceID string
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	roiSvc *payout.RoiService,
	expireSvc *payout.ExpirationService,
	auditSvc *audit.AuditService,
	redisCli *redis.Client,
) *TaskHandler {
	return &TaskHandler{
		roiSvc:     roiSvc,
		expireSvc:  expireSvc,
		auditSvc:   auditSvc,
		redisCli:   redisCli,
		instanceID: uuid.NewString(),
	}
}

// withJobLock 在分布式锁内执行任务
func (h *TaskHandler) withJobLock(ctx context.Context, job string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if h.redisCli == nil {
		// 单实例部署可以不接 Redis
		return fn(ctx)
	}

	lock := cache.NewJobLock(h.redisCli, job, h.instanceID)
	acquired, err := lock.TryLock(ctx, ttl)
	if err != nil {
		return apperrors.ErrCacheError.WithError(err)
	}
	if !acquired {
		logger.GetLogger().Named("scheduler").Debug("任务锁被占用，跳过本轮",
			zap.String("job", job))
		return nil
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			logger.GetLogger().Named("scheduler").Warn("释放任务锁失败",
				zap.String("job", job),
				zap.Error(err))
		}
	}()

	return fn(ctx)
}

// PayRoi 发放到期的月度收益
func (h *TaskHandler) PayRoi(ctx context.Context) error {
	return h.withJobLock(ctx, "roi_payout", 10*time.Minute, func(ctx context.Context) error {
		_, err := h.roiSvc.Tick(ctx)
		return err
	})
}

// SweepExpirations 清扫到期套餐与订阅
func (h *TaskHandler) SweepExpirations(ctx context.Context) error {
	return h.withJobLock(ctx, "expiration_sweep", 10*time.Minute, func(ctx context.Context) error {
		_, err := h.expireSvc.Sweep(ctx)
		return err
	})
}

// AuditCommissions 佣金总额对账
func (h *TaskHandler) AuditCommissions(ctx context.Context) error {
	return h.withJobLock(ctx, "commission_audit", 10*time.Minute, func(ctx context.Context) error {
		_, err := h.auditSvc.Run(ctx)
		return err
	})
}
