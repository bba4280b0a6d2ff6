// Package distribution 分佣与结算服务
package distribution

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/yunhetech/crypto-invest-backend/internal/common/errors"
	"github.com/yunhetech/crypto-invest-backend/internal/common/logger"
	"github.com/yunhetech/crypto-invest-backend/internal/common/metrics"
	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/internal/service/referral"
	"github.com/yunhetech/crypto-invest-backend/pkg/notify"
)

// DistributeService 分佣引擎
// 套餐激活后按 1-6 级计算并落账佣金。幂等键为套餐 ID：
// 只要该套餐已有任意佣金收益或流失记录，重复调用即为空操作。
type DistributeService struct {
	userRepo    *repository.UserRepository
	packageRepo *repository.PackageRepository
	earningRepo *repository.EarningRepository
	lostRepo    *repository.LostCommissionRepository
	uplineSvc   *referral.UplineService
	sender      notify.Sender
	db          *gorm.DB
}

// NewDistributeService 创建分佣引擎
func NewDistributeService(
	userRepo *repository.UserRepository,
	packageRepo *repository.PackageRepository,
	earningRepo *repository.EarningRepository,
	lostRepo *repository.LostCommissionRepository,
	uplineSvc *referral.UplineService,
	sender notify.Sender,
	db *gorm.DB,
) *DistributeService {
	return &DistributeService{
		userRepo:    userRepo,
		packageRepo: packageRepo,
		earningRepo: earningRepo,
		lostRepo:    lostRepo,
		uplineSvc:   uplineSvc,
		sender:      sender,
		db:          db,
	}
}

// DistributeResult 分佣结果
type DistributeResult struct {
	Paid int `json:"paid"` // 实发层级数
	Lost int `json:"lost"` // 流失层级数
}

// Distribute 对一个已激活套餐执行六级分佣
// 每个层级是独立子事务，单级失败记日志后继续，不影响其他层级；
// 总额不变式由审计任务兜底核查，不在本调用内校验。
func (s *DistributeService) Distribute(ctx context.Context, packageID int64) (*DistributeResult, error) {
	log := logger.GetLogger().Named("distribute")

	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, apperrors.ErrPackageNotFound
	}
	if pkg.Status != models.PackageStatusActive {
		return nil, apperrors.ErrPackageStatusError
	}

	// 幂等检查：已有佣金或流失记录说明分佣已执行过
	hasEarning, err := s.earningRepo.ExistsCommissionByPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	hasLost, err := s.lostRepo.ExistsByPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if hasEarning || hasLost {
		log.Info("套餐已分佣，跳过",
			zap.Int64("package_id", packageID))
		return &DistributeResult{}, nil
	}

	investor, err := s.userRepo.GetByID(ctx, pkg.UserID)
	if err != nil {
		return nil, err
	}
	if investor == nil {
		return nil, apperrors.ErrUserNotFound
	}

	upline, err := s.uplineSvc.ResolveUpline(ctx, investor)
	if err != nil {
		return nil, err
	}

	result := &DistributeResult{}
	now := time.Now()
	m := metrics.Get()

	for level := 1; level <= referral.MaxLevel; level++ {
		amount := utils.Round2(pkg.Amount * referral.RateForLevel(level))

		var recipient *models.User
		if level <= len(upline) {
			recipient = upline[level-1]
		}

		// 每级独立子事务，单级失败不阻断其他层级
		paid := false
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if recipient == nil {
				return s.recordLost(tx, pkg, nil, level, amount, models.LostReasonNoRecipient)
			}

			eligible, err := referral.EligibleForCommission(tx, recipient, now)
			if err != nil {
				return err
			}
			if !eligible {
				return s.recordLost(tx, pkg, &recipient.ID, level, amount, models.LostReasonNoBot)
			}

			if err := s.recordEarning(tx, pkg, investor, recipient, level, amount); err != nil {
				return err
			}
			paid = true
			return nil
		})
		if err != nil {
			log.Error("分佣层级写入失败",
				zap.Int64("package_id", packageID),
				zap.Int("level", level),
				zap.Error(err))
			continue
		}

		if paid {
			result.Paid++
			m.RecordDistribution("paid", amount)
			s.sender.Send(ctx, recipient.ID, notify.TemplateCommissionPaid, map[string]interface{}{
				"package_id": packageID,
				"level":      level,
				"amount":     amount,
			})
		} else {
			result.Lost++
			m.RecordDistribution("lost", amount)
		}
	}

	log.Info("分佣完成",
		zap.Int64("package_id", packageID),
		zap.Float64("principal", pkg.Amount),
		zap.Int("paid", result.Paid),
		zap.Int("lost", result.Lost))

	return result, nil
}

// recordEarning 写入某级佣金收益和配套流水
func (s *DistributeService) recordEarning(tx *gorm.DB, pkg *models.Package, investor, recipient *models.User, level int, amount float64) error {
	kind := models.EarningKindLevelIncome
	txnType := models.TransactionTypeLevelIncome
	if level == 1 {
		kind = models.EarningKindDirectReferral
		txnType = models.TransactionTypeReferralBonus
	}

	txn := &models.Transaction{
		UserID:    &recipient.ID,
		PackageID: &pkg.ID,
		Type:      txnType,
		Amount:    amount,
		Status:    models.TransactionStatusCompleted,
		Network:   pkg.Network,
	}
	if err := tx.Create(txn).Error; err != nil {
		return err
	}

	earning := &models.Earning{
		UserID:        recipient.ID,
		SourceUserID:  investor.ID,
		PackageID:     pkg.ID,
		TransactionID: txn.ID,
		Kind:          kind,
		Level:         level,
		Amount:        amount,
		Status:        models.EarningStatusPaid,
	}
	return tx.Create(earning).Error
}

// recordLost 写入某级流失佣金
func (s *DistributeService) recordLost(tx *gorm.DB, pkg *models.Package, userID *int64, level int, amount float64, reason string) error {
	return tx.Create(&models.LostCommission{
		PackageID: pkg.ID,
		UserID:    userID,
		Level:     level,
		Amount:    amount,
		Reason:    reason,
	}).Error
}
