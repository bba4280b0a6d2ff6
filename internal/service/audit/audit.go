// Package audit 佣金总额对账
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/yunhetech/crypto-invest-backend/internal/common/errors"
	"github.com/yunhetech/crypto-invest-backend/internal/common/logger"
	"github.com/yunhetech/crypto-invest-backend/internal/common/metrics"
	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/internal/service/referral"
)

// AuditService 分佣对账
// 核查不变式：每个已分佣套餐的「非失败佣金 + 流失佣金」等于
// 理论佣金池（逐级按本金取整后求和）。不平时记关键告警并补记
// 一条 settlement_failed 流失行，把缺口显式落账，不回滚已提交数据。
type AuditService struct {
	earningRepo *repository.EarningRepository
	lostRepo    *repository.LostCommissionRepository
	packageRepo *repository.PackageRepository
	batchSize   int
}

// NewAuditService 创建对账服务
func NewAuditService(
	earningRepo *repository.EarningRepository,
	lostRepo *repository.LostCommissionRepository,
	packageRepo *repository.PackageRepository,
	batchSize int,
) *AuditService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &AuditService{
		earningRepo: earningRepo,
		lostRepo:    lostRepo,
		packageRepo: packageRepo,
		batchSize:   batchSize,
	}
}

// AuditResult 对账结果
type AuditResult struct {
	Checked   int `json:"checked"`
	Mismatch  int `json:"mismatch"`
	Corrected int `json:"corrected"`
}

// Run 对最近分佣过的套餐执行一轮对账
func (s *AuditService) Run(ctx context.Context) (*AuditResult, error) {
	log := logger.GetLogger().Named("audit")
	start := time.Now()

	ids, err := s.earningRepo.ListDistributedPackageIDs(ctx, s.batchSize)
	if err != nil {
		return nil, err
	}

	// 整池流失的套餐没有收益行，从流失表并入，防止漏查
	lostIDs, err := s.lostRepo.ListDistributedPackageIDs(ctx, s.batchSize)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range lostIDs {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}

	result := &AuditResult{}
	for _, id := range ids {
		result.Checked++
		mismatch, corrected, err := s.CheckPackage(ctx, id)
		if err != nil {
			log.Error("套餐对账失败", zap.Int64("package_id", id), zap.Error(err))
			continue
		}
		if mismatch {
			result.Mismatch++
		}
		if corrected {
			result.Corrected++
		}
	}

	metrics.Get().ObserveJob("commission_audit", time.Since(start))
	if result.Mismatch > 0 {
		log.Warn("对账发现不平套餐",
			zap.Int("checked", result.Checked),
			zap.Int("mismatch", result.Mismatch),
			zap.Int("corrected", result.Corrected))
	}

	return result, nil
}

// CheckPackage 核查单个套餐的总额不变式
// 理论池按逐级取整求和计算，和落账口径一致，避免浮点误差误报。
func (s *AuditService) CheckPackage(ctx context.Context, packageID int64) (mismatch, corrected bool, err error) {
	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		return false, false, err
	}
	if pkg == nil {
		return false, false, nil
	}

	var expected float64
	for level := 1; level <= referral.MaxLevel; level++ {
		expected += utils.Round2(pkg.Amount * referral.RateForLevel(level))
	}
	expected = utils.Round2(expected)

	earned, err := s.earningRepo.SumCommissionByPackage(ctx, packageID)
	if err != nil {
		return false, false, err
	}
	lost, err := s.lostRepo.SumByPackage(ctx, packageID)
	if err != nil {
		return false, false, err
	}
	actual := utils.Round2(earned + lost)

	if utils.AmountsEqual(actual, expected) {
		return false, false, nil
	}

	metrics.Get().RecordInvariantViolation()
	logger.GetLogger().Named("audit").Error("佣金总额不平",
		zap.Int64("package_id", packageID),
		zap.Float64("expected", expected),
		zap.Float64("actual", actual),
		zap.Error(apperrors.ErrInvariantViolation))

	// 缺口补记为流失，让账面重新闭合；多出来的只告警，留给人工
	gap := utils.Round2(expected - actual)
	if gap <= 0 {
		return true, false, nil
	}
	err = s.lostRepo.Create(ctx, &models.LostCommission{
		PackageID: packageID,
		Level:     0,
		Amount:    gap,
		Reason:    models.LostReasonSettlementFailed,
	})
	if err != nil {
		return true, false, err
	}
	return true, true, nil
}
