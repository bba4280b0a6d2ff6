package payout

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/common/logger"
	"github.com/yunhetech/crypto-invest-backend/internal/common/metrics"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/pkg/notify"
)

// ExpirationService 到期清扫
// 套餐清扫：到期 ACTIVE 套餐转 EXPIRED 并返还本金；
// 订阅清扫：到期 Bot 转 EXPIRED，无资金动作。两个子清扫只作用于
// ACTIVE 行，天然幂等。
type ExpirationService struct {
	packageRepo *repository.PackageRepository
	botRepo     *repository.BotRepository
	sender      notify.Sender
	db          *gorm.DB
	batchSize   int
}

// NewExpirationService 创建到期清扫服务
func NewExpirationService(
	packageRepo *repository.PackageRepository,
	botRepo *repository.BotRepository,
	sender notify.Sender,
	db *gorm.DB,
	batchSize int,
) *ExpirationService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExpirationService{
		packageRepo: packageRepo,
		botRepo:     botRepo,
		sender:      sender,
		db:          db,
		batchSize:   batchSize,
	}
}

// SweepResult 清扫结果
type SweepResult struct {
	PackagesExpired int `json:"packages_expired"`
	BotsExpired     int `json:"bots_expired"`
}

// Sweep 执行一轮到期清扫
func (s *ExpirationService) Sweep(ctx context.Context) (*SweepResult, error) {
	log := logger.GetLogger().Named("sweep")
	start := time.Now()
	now := time.Now()
	result := &SweepResult{}

	pkgs, err := s.packageRepo.GetExpiredActive(ctx, now, s.batchSize)
	if err != nil {
		return nil, err
	}
	for _, pkg := range pkgs {
		expired, err := s.expirePackage(ctx, pkg)
		if err != nil {
			log.Error("套餐到期处理失败",
				zap.Int64("package_id", pkg.ID),
				zap.Error(err))
			continue
		}
		if expired {
			result.PackagesExpired++
			s.sender.Send(ctx, pkg.UserID, notify.TemplateCapitalReturn, map[string]interface{}{
				"package_id": pkg.ID,
				"amount":     pkg.Amount,
			})
		}
	}

	botCount, err := s.botRepo.MarkExpiredBefore(ctx, now)
	if err != nil {
		log.Error("订阅到期清扫失败", zap.Error(err))
	} else {
		result.BotsExpired = int(botCount)
	}

	m := metrics.Get()
	m.RecordSweep("package", result.PackagesExpired)
	m.RecordSweep("bot", result.BotsExpired)
	m.ObserveJob("expiration_sweep", time.Since(start))

	if result.PackagesExpired > 0 || result.BotsExpired > 0 {
		log.Info("到期清扫完成",
			zap.Int("packages", result.PackagesExpired),
			zap.Int("bots", result.BotsExpired))
	}

	return result, nil
}

// expirePackage 单个套餐的到期翻转与本金返还
// 条件更新只让一个并发清扫者翻转成功，本金返还流水只会生成一条。
func (s *ExpirationService) expirePackage(ctx context.Context, pkg *models.Package) (bool, error) {
	var flipped bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.packageRepo.MarkExpired(tx, pkg.ID)
		if err != nil {
			return err
		}
		if !ok {
			// 另一个清扫者已处理
			return nil
		}

		txn := &models.Transaction{
			UserID:    &pkg.UserID,
			PackageID: &pkg.ID,
			Type:      models.TransactionTypeCapitalReturn,
			Amount:    pkg.Amount,
			Status:    models.TransactionStatusCompleted,
			Network:   pkg.Network,
			Remark:    "套餐到期本金返还",
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		flipped = true
		return nil
	})
	return flipped, err
}
