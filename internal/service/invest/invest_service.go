package invest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yunhetech/crypto-invest-backend/internal/common/config"
	apperrors "github.com/yunhetech/crypto-invest-backend/internal/common/errors"
	"github.com/yunhetech/crypto-invest-backend/internal/common/logger"
	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/internal/service/distribution"
	"github.com/yunhetech/crypto-invest-backend/pkg/chain"
)

// InvestService 投资购买流程
// 套餐创建后处于 PENDING，存款核验通过才激活；激活动作触发分佣
// 与结算，二者失败不回滚激活（账务由对账任务兜底）。
type InvestService struct {
	userRepo      *repository.UserRepository
	packageRepo   *repository.PackageRepository
	botRepo       *repository.BotRepository
	distributeSvc *distribution.DistributeService
	settleSvc     *distribution.SettleService
	chainClient   chain.Client
	chainCfg      *config.ChainConfig
}

// NewInvestService 创建投资服务
func NewInvestService(
	userRepo *repository.UserRepository,
	packageRepo *repository.PackageRepository,
	botRepo *repository.BotRepository,
	distributeSvc *distribution.DistributeService,
	settleSvc *distribution.SettleService,
	chainClient chain.Client,
	chainCfg *config.ChainConfig,
) *InvestService {
	return &InvestService{
		userRepo:      userRepo,
		packageRepo:   packageRepo,
		botRepo:       botRepo,
		distributeSvc: distributeSvc,
		settleSvc:     settleSvc,
		chainClient:   chainClient,
		chainCfg:      chainCfg,
	}
}

// CreatePackageRequest 创建套餐请求
type CreatePackageRequest struct {
	UserID  int64   `json:"user_id"`
	Amount  float64 `json:"amount" binding:"required"`
	Network string  `json:"network" binding:"required"`
}

// CreatePackage 创建待核验套餐
func (s *InvestService) CreatePackage(ctx context.Context, req *CreatePackageRequest) (*models.Package, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.ErrUserDisabled
	}

	if !utils.HasTwoDecimalsAtMost(req.Amount) {
		return nil, apperrors.ErrAmountPrecision
	}
	if !utils.SupportedNetwork(req.Network) {
		return nil, apperrors.ErrNetworkUnsupported
	}

	tier := TierForAmount(req.Amount)
	if tier == nil {
		return nil, apperrors.ErrPackageAmountInvalid
	}

	pkg := &models.Package{
		UserID:     req.UserID,
		Amount:     req.Amount,
		Tier:       tier.Name,
		RoiPercent: tier.RoiPercent,
		Status:     models.PackageStatusPending,
		Network:    req.Network,
	}
	if err := s.packageRepo.Create(ctx, pkg); err != nil {
		return nil, err
	}

	logger.GetLogger().Named("invest").Info("套餐已创建",
		zap.Int64("package_id", pkg.ID),
		zap.Int64("user_id", req.UserID),
		zap.String("tier", tier.Name),
		zap.Float64("amount", req.Amount))

	return pkg, nil
}

// ConfirmDeposit 存款确认
// 核验链上入账后把套餐 PENDING -> ACTIVE，随即触发分佣与结算。
// 重复确认同一套餐是空操作。
func (s *InvestService) ConfirmDeposit(ctx context.Context, packageID int64, txHash string) (*models.Package, error) {
	log := logger.GetLogger().Named("invest")

	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, apperrors.ErrPackageNotFound
	}
	if pkg.Status == models.PackageStatusActive {
		return pkg, nil
	}
	if pkg.Status != models.PackageStatusPending {
		return nil, apperrors.ErrPackageStatusError
	}

	if err := s.verifyDeposit(ctx, txHash, pkg.Network, pkg.Amount); err != nil {
		return nil, err
	}

	now := time.Now()
	expiry := now.AddDate(0, models.PackageTermMonths, 0)
	nextRoi := now.Add(time.Duration(pkg.RoiIntervalHour) * time.Hour)

	activated, err := s.packageRepo.Activate(ctx, packageID, txHash, now, expiry, nextRoi)
	if err != nil {
		return nil, err
	}
	if !activated {
		// 并发确认，另一方已处理
		return s.packageRepo.GetByID(ctx, packageID)
	}

	// 激活即分佣；分佣结算失败只记日志，不影响套餐状态
	if _, err := s.distributeSvc.Distribute(ctx, packageID); err != nil {
		log.Error("套餐分佣失败",
			zap.Int64("package_id", packageID),
			zap.Error(err))
	} else if _, err := s.settleSvc.SettlePackage(ctx, packageID, pkg.Network); err != nil {
		log.Error("套餐结算失败",
			zap.Int64("package_id", packageID),
			zap.Error(err))
	}

	return s.packageRepo.GetByID(ctx, packageID)
}

// verifyDeposit 核验入账交易：地址、金额、确认数
func (s *InvestService) verifyDeposit(ctx context.Context, txHash, network string, expectedAmount float64) error {
	info, err := s.chainClient.VerifyDeposit(ctx, txHash, network)
	if err != nil {
		return apperrors.ErrDepositNotVerified.WithError(err)
	}
	if s.chainCfg.DepositAddress != "" && info.To != s.chainCfg.DepositAddress {
		return apperrors.ErrDepositNotVerified.WithMessage("入账地址与平台收款地址不符")
	}
	if !utils.AmountsEqual(info.Amount, expectedAmount) {
		return apperrors.ErrDepositNotVerified.WithMessage("入账金额与订单金额不符")
	}
	return nil
}

// RejectPackage 人工拒绝待核验套餐
func (s *InvestService) RejectPackage(ctx context.Context, packageID int64) error {
	ok, err := s.packageRepo.Reject(ctx, packageID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrPackageStatusError
	}
	return nil
}

// CreateBotRequest 创建订阅请求
type CreateBotRequest struct {
	UserID  int64   `json:"user_id"`
	Tier    string  `json:"tier" binding:"required"`
	Amount  float64 `json:"amount" binding:"required"`
	Network string  `json:"network" binding:"required"`
}

// CreateBot 创建待核验订阅
func (s *InvestService) CreateBot(ctx context.Context, req *CreateBotRequest) (*models.Bot, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.ErrUserDisabled
	}
	if TierByName(req.Tier) == nil {
		return nil, apperrors.ErrBotStatusError.WithMessage("无效的订阅档位")
	}
	if !utils.SupportedNetwork(req.Network) {
		return nil, apperrors.ErrNetworkUnsupported
	}

	bot := &models.Bot{
		UserID:  req.UserID,
		Tier:    req.Tier,
		Amount:  req.Amount,
		Status:  models.BotStatusPending,
		Network: req.Network,
	}
	if err := s.botRepo.Create(ctx, bot); err != nil {
		return nil, err
	}
	return bot, nil
}

// ConfirmBotDeposit 订阅存款确认并激活
func (s *InvestService) ConfirmBotDeposit(ctx context.Context, botID int64, txHash string) (*models.Bot, error) {
	bot, err := s.botRepo.GetByID(ctx, botID)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, apperrors.ErrBotNotFound
	}
	if bot.Status == models.BotStatusActive {
		return bot, nil
	}
	if bot.Status != models.BotStatusPending {
		return nil, apperrors.ErrBotStatusError
	}

	if err := s.verifyDeposit(ctx, txHash, bot.Network, bot.Amount); err != nil {
		return nil, err
	}

	now := time.Now()
	expiry := now.AddDate(0, models.PackageTermMonths, 0)
	if _, err := s.botRepo.Activate(ctx, botID, now, expiry); err != nil {
		return nil, err
	}
	return s.botRepo.GetByID(ctx, botID)
}
