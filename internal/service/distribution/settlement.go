package distribution

import (
	"context"

	"go.uber.org/zap"

	"github.com/yunhetech/crypto-invest-backend/internal/common/config"
	"github.com/yunhetech/crypto-invest-backend/internal/common/logger"
	"github.com/yunhetech/crypto-invest-backend/internal/common/metrics"
	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/pkg/chain"
)

// SettleService 结算器
// 把 PAID 状态的佣金收益推进到终态：链下模式直接记账结清，
// 链上模式逐笔转账。单笔失败不阻断同批其他行，终态行不会被二次处理。
type SettleService struct {
	earningRepo *repository.EarningRepository
	txnRepo     *repository.TransactionRepository
	lostRepo    *repository.LostCommissionRepository
	userRepo    *repository.UserRepository
	configRepo  *repository.SystemConfigRepository
	chainClient chain.Client
	chainCfg    *config.ChainConfig
}

// NewSettleService 创建结算器
func NewSettleService(
	earningRepo *repository.EarningRepository,
	txnRepo *repository.TransactionRepository,
	lostRepo *repository.LostCommissionRepository,
	userRepo *repository.UserRepository,
	configRepo *repository.SystemConfigRepository,
	chainClient chain.Client,
	chainCfg *config.ChainConfig,
) *SettleService {
	return &SettleService{
		earningRepo: earningRepo,
		txnRepo:     txnRepo,
		lostRepo:    lostRepo,
		userRepo:    userRepo,
		configRepo:  configRepo,
		chainClient: chainClient,
		chainCfg:    chainCfg,
	}
}

// SettleResult 结算结果
type SettleResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// SettlePackage 结算套餐下全部待结算佣金
// 是否走链上由运营配置实时决定，配置缺省回落到静态配置。
func (s *SettleService) SettlePackage(ctx context.Context, packageID int64, network string) (*SettleResult, error) {
	log := logger.GetLogger().Named("settle")

	earnings, err := s.earningRepo.GetUnsettledByPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	onchain, err := s.configRepo.GetBool(ctx, models.ConfigGroupChain, "distribution_enabled", s.chainCfg.DistributionEnabled)
	if err != nil {
		return nil, err
	}

	result := &SettleResult{}
	m := metrics.Get()

	for _, earning := range earnings {
		if onchain {
			if s.settleOnchain(ctx, earning, network, log) {
				result.Success++
				m.RecordSettlement("onchain")
			} else {
				result.Failed++
				m.RecordSettlement("failed")
			}
			continue
		}

		// 链下记账模式：不动链上资金，收益直接结清
		if err := s.earningRepo.UpdateStatus(ctx, earning.ID, models.EarningStatusPaidOffchain); err != nil {
			log.Error("链下结清失败",
				zap.Int64("earning_id", earning.ID),
				zap.Error(err))
			result.Failed++
			m.RecordSettlement("failed")
			continue
		}
		result.Success++
		m.RecordSettlement("offchain")
	}

	if err := s.collectShortfall(ctx, packageID, network, log); err != nil {
		log.Error("流失佣金回收失败",
			zap.Int64("package_id", packageID),
			zap.Error(err))
	}

	log.Info("套餐结算完成",
		zap.Int64("package_id", packageID),
		zap.Bool("onchain", onchain),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed))

	return result, nil
}

// settleOnchain 单笔链上结算
// 失败只标记本行 FAILED，不在本轮内重试，留给人工或后续对账处理。
func (s *SettleService) settleOnchain(ctx context.Context, earning *models.Earning, network string, log *zap.Logger) bool {
	user, err := s.userRepo.GetByID(ctx, earning.UserID)
	if err != nil || user == nil || user.WalletAddress == "" {
		s.markFailed(ctx, earning, "收款人钱包地址缺失", log)
		return false
	}

	transferCtx, cancel := context.WithTimeout(ctx, s.chainCfg.TransferTimeoutDuration())
	defer cancel()

	transfer, err := s.chainClient.SendFunds(transferCtx, user.WalletAddress, earning.Amount, network)
	if err != nil {
		log.Warn("链上转账失败",
			zap.Int64("earning_id", earning.ID),
			zap.String("destination", user.WalletAddress),
			zap.Float64("amount", earning.Amount),
			zap.Error(err))
		s.markFailed(ctx, earning, err.Error(), log)
		return false
	}

	if err := s.txnRepo.SetHashCompleted(ctx, earning.TransactionID, transfer.TxHash); err != nil {
		log.Error("回填交易哈希失败",
			zap.Int64("transaction_id", earning.TransactionID),
			zap.Error(err))
		return false
	}
	if err := s.earningRepo.UpdateStatus(ctx, earning.ID, models.EarningStatusPaidOnchain); err != nil {
		log.Error("更新收益状态失败",
			zap.Int64("earning_id", earning.ID),
			zap.Error(err))
		return false
	}
	return true
}

func (s *SettleService) markFailed(ctx context.Context, earning *models.Earning, remark string, log *zap.Logger) {
	if err := s.earningRepo.UpdateStatus(ctx, earning.ID, models.EarningStatusFailed); err != nil {
		log.Error("标记收益失败态出错", zap.Int64("earning_id", earning.ID), zap.Error(err))
	}
	if err := s.txnRepo.MarkFailed(ctx, earning.TransactionID, remark); err != nil {
		log.Error("标记流水失败态出错", zap.Int64("transaction_id", earning.TransactionID), zap.Error(err))
	}
}

// collectShortfall 结算后核算缺口并生成平台回收流水
// 预期池 = 全部佣金收益行（含失败） + 无 Bot 资格的流失行；
// 已结清不足预期的差额归平台，一张套餐只生成一条回收流水。
func (s *SettleService) collectShortfall(ctx context.Context, packageID int64, network string, log *zap.Logger) error {
	exists, err := s.txnRepo.ExistsByPackageAndType(ctx, packageID, models.TransactionTypePlatformCollect)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	allCommission, err := s.earningRepo.SumTotalCommissionByPackage(ctx, packageID)
	if err != nil {
		return err
	}
	lostSum, err := s.lostRepo.SumByPackageAndReasons(ctx, packageID,
		[]string{models.LostReasonNoBot})
	if err != nil {
		return err
	}
	settled, err := s.earningRepo.SumSettledCommissionByPackage(ctx, packageID)
	if err != nil {
		return err
	}

	shortfall := utils.Round2(allCommission + lostSum - settled)
	if shortfall <= 0 {
		return nil
	}

	txn := &models.Transaction{
		PackageID: &packageID,
		Type:      models.TransactionTypePlatformCollect,
		Amount:    shortfall,
		Status:    models.TransactionStatusPending,
		Network:   network,
		Remark:    "回收流失佣金",
	}

	// 配置了平台钱包则立刻链上归集，否则挂起等待人工处理
	if s.chainCfg.PlatformWallet != "" {
		transferCtx, cancel := context.WithTimeout(ctx, s.chainCfg.TransferTimeoutDuration())
		defer cancel()

		transfer, err := s.chainClient.SendFunds(transferCtx, s.chainCfg.PlatformWallet, shortfall, network)
		if err == nil {
			txn.Status = models.TransactionStatusCompleted
			txn.TxHash = &transfer.TxHash
		} else {
			log.Warn("平台归集转账失败，流水挂起",
				zap.Int64("package_id", packageID),
				zap.Error(err))
		}
	}

	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return err
	}

	log.Info("生成流失佣金回收流水",
		zap.Int64("package_id", packageID),
		zap.Float64("amount", shortfall),
		zap.String("status", txn.Status))

	return nil
}
