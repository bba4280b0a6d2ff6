// Package payout 周期性收益发放与到期清扫
package payout

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/yunhetech/crypto-invest-backend/internal/common/errors"
	"github.com/yunhetech/crypto-invest-backend/internal/common/logger"
	"github.com/yunhetech/crypto-invest-backend/internal/common/metrics"
	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/pkg/notify"
)

// RoiService 月度收益发放
// 每轮选出到期套餐逐个处理，每个套餐一个事务。running 标志挡住
// 同实例的重叠轮次；真正的发放上限以 roi_paid_count 条件更新为准，
// 即使两轮交错也不会出现第 13 期。
type RoiService struct {
	packageRepo *repository.PackageRepository
	botRepo     *repository.BotRepository
	configRepo  *repository.SystemConfigRepository
	sender      notify.Sender
	db          *gorm.DB
	batchSize   int
	running     atomic.Bool
}

// NewRoiService 创建收益发放服务
func NewRoiService(
	packageRepo *repository.PackageRepository,
	botRepo *repository.BotRepository,
	configRepo *repository.SystemConfigRepository,
	sender notify.Sender,
	db *gorm.DB,
	batchSize int,
) *RoiService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &RoiService{
		packageRepo: packageRepo,
		botRepo:     botRepo,
		configRepo:  configRepo,
		sender:      sender,
		db:          db,
		batchSize:   batchSize,
	}
}

// TickResult 一轮发放结果
type TickResult struct {
	Paid    int `json:"paid"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Tick 执行一轮收益发放
// 上一轮未结束时直接返回空结果。
func (s *RoiService) Tick(ctx context.Context) (*TickResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return &TickResult{}, nil
	}
	defer s.running.Store(false)

	log := logger.GetLogger().Named("roi")
	start := time.Now()
	now := time.Now()

	pkgs, err := s.packageRepo.GetDueForRoi(ctx, now, s.batchSize)
	if err != nil {
		return nil, err
	}

	result := &TickResult{}
	for _, pkg := range pkgs {
		paid, skipped, err := s.payOne(ctx, pkg, now)
		switch {
		case err != nil:
			log.Error("收益发放失败",
				zap.Int64("package_id", pkg.ID),
				zap.Error(err))
			result.Failed++
		case skipped:
			result.Skipped++
		case paid:
			result.Paid++
		default:
			// 乐观条件未命中，另一个写入方抢先推进了该套餐
			log.Warn("收益发放条件未命中，跳过",
				zap.Int64("package_id", pkg.ID),
				zap.Error(apperrors.ErrConcurrencyConflict))
			result.Skipped++
		}
	}

	metrics.Get().ObserveJob("roi_payout", time.Since(start))
	if len(pkgs) > 0 {
		log.Info("收益发放轮次完成",
			zap.Int("due", len(pkgs)),
			zap.Int("paid", result.Paid),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed))
	}

	return result, nil
}

// payOne 发放一个套餐的一期收益
// 无同档位生效 Bot 时跳过不报错，套餐保持到期状态，下一轮重试。
func (s *RoiService) payOne(ctx context.Context, pkg *models.Package, now time.Time) (paid, skipped bool, err error) {
	// 费率每轮实时读取，运营调整后下一期即生效
	percent, err := s.configRepo.GetFloat(ctx, models.ConfigGroupRoi,
		fmt.Sprintf("percent_%s", pkg.Tier), pkg.RoiPercent)
	if err != nil {
		return false, false, err
	}
	payout := utils.Round2(pkg.Amount * percent / 100)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		hasBot, err := s.botRepo.HasActiveByUserAndTier(tx, pkg.UserID, pkg.Tier, now)
		if err != nil {
			return err
		}
		if !hasBot {
			skipped = true
			return nil
		}

		nextDue := now.Add(time.Duration(pkg.RoiIntervalHour) * time.Hour)
		advanced, err := s.packageRepo.AdvanceRoi(tx, pkg, payout, nextDue)
		if err != nil {
			return err
		}
		if !advanced {
			return nil
		}

		txn := &models.Transaction{
			UserID:    &pkg.UserID,
			PackageID: &pkg.ID,
			Type:      models.TransactionTypeRoiPayment,
			Amount:    payout,
			Status:    models.TransactionStatusCompleted,
			Network:   pkg.Network,
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		earning := &models.Earning{
			UserID:        pkg.UserID,
			SourceUserID:  pkg.UserID,
			PackageID:     pkg.ID,
			TransactionID: txn.ID,
			Kind:          models.EarningKindRoi,
			Level:         0,
			Amount:        payout,
			Status:        models.EarningStatusPaidOffchain,
		}
		if err := tx.Create(earning).Error; err != nil {
			return err
		}

		paid = true
		return nil
	})
	if err != nil || !paid {
		return paid, skipped, err
	}

	metrics.Get().RecordRoiPayout(payout)
	s.sender.Send(ctx, pkg.UserID, notify.TemplateRoiPaid, map[string]interface{}{
		"package_id":  pkg.ID,
		"amount":      payout,
		"installment": pkg.RoiPaidCount + 1,
	})
	return paid, skipped, nil
}
