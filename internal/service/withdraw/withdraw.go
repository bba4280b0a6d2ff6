// Package withdraw 提现资格、手续费与审核流转
package withdraw

import (
	"context"
	"errors"
	"time"

	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/yunhetech/crypto-invest-backend/internal/common/config"
	"github.com/yunhetech/crypto-invest-backend/internal/common/crypto"
	apperrors "github.com/yunhetech/crypto-invest-backend/internal/common/errors"
	"github.com/yunhetech/crypto-invest-backend/internal/common/logger"
	"github.com/yunhetech/crypto-invest-backend/internal/common/metrics"
	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/pkg/chain"
	"github.com/yunhetech/crypto-invest-backend/pkg/notify"
)

// WithdrawService 提现服务
// 可提余额按类别从账本聚合推导，不落独立余额字段。
// 手续费在申请时一次性计算并拆分，fee + amount 恒等于申请额。
type WithdrawService struct {
	userRepo       *repository.UserRepository
	earningRepo    *repository.EarningRepository
	txnRepo        *repository.TransactionRepository
	withdrawalRepo *repository.WithdrawalRepository
	configRepo     *repository.SystemConfigRepository
	cipher         *crypto.Cipher
	chainClient    chain.Client
	sender         notify.Sender
	withdrawCfg    *config.WithdrawConfig
	chainCfg       *config.ChainConfig
}

// NewWithdrawService 创建提现服务
func NewWithdrawService(
	userRepo *repository.UserRepository,
	earningRepo *repository.EarningRepository,
	txnRepo *repository.TransactionRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	configRepo *repository.SystemConfigRepository,
	cipher *crypto.Cipher,
	chainClient chain.Client,
	sender notify.Sender,
	withdrawCfg *config.WithdrawConfig,
	chainCfg *config.ChainConfig,
) *WithdrawService {
	return &WithdrawService{
		userRepo:       userRepo,
		earningRepo:    earningRepo,
		txnRepo:        txnRepo,
		withdrawalRepo: withdrawalRepo,
		configRepo:     configRepo,
		cipher:         cipher,
		chainClient:    chainClient,
		sender:         sender,
		withdrawCfg:    withdrawCfg,
		chainCfg:       chainCfg,
	}
}

// Available 各类别可提余额
type Available struct {
	Roi     float64 `json:"roi"`
	Capital float64 `json:"capital"`
	Full    float64 `json:"full"`
}

// ComputeAvailable 推导用户各类别可提余额
// 收益侧 = 非失败收益总额（ROI + 佣金）；本金侧 = 已返还本金总额。
// 未被拒绝的历史申请按申请额占用余额，其中 FULL_AMOUNT 申请先吃本金、
// 再吃收益。
func (s *WithdrawService) ComputeAvailable(ctx context.Context, userID int64) (*Available, error) {
	earned, err := s.earningRepo.SumEarnedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	capitalReturned, err := s.txnRepo.SumCapitalReturnByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	roiRequested, err := s.withdrawalRepo.SumActiveRequestedByUserAndTypes(ctx, userID,
		[]string{models.WithdrawalTypeRoiOnly})
	if err != nil {
		return nil, err
	}
	capRequested, err := s.withdrawalRepo.SumActiveRequestedByUserAndTypes(ctx, userID,
		[]string{models.WithdrawalTypeCapital})
	if err != nil {
		return nil, err
	}
	fullRequested, err := s.withdrawalRepo.SumActiveRequestedByUserAndTypes(ctx, userID,
		[]string{models.WithdrawalTypeFullAmount})
	if err != nil {
		return nil, err
	}

	capitalLeft := capitalReturned - capRequested
	fullFromCapital := fullRequested
	if fullFromCapital > capitalLeft {
		fullFromCapital = capitalLeft
	}
	if fullFromCapital < 0 {
		fullFromCapital = 0
	}
	fullFromRoi := fullRequested - fullFromCapital

	roiAvail := utils.Round2(earned - roiRequested - fullFromRoi)
	capAvail := utils.Round2(capitalLeft - fullFromCapital)
	if roiAvail < 0 {
		roiAvail = 0
	}
	if capAvail < 0 {
		capAvail = 0
	}

	return &Available{
		Roi:     roiAvail,
		Capital: capAvail,
		Full:    utils.Round2(roiAvail + capAvail),
	}, nil
}

// availableFor 指定类别的可提额度
func (a *Available) availableFor(withdrawType string) float64 {
	switch withdrawType {
	case models.WithdrawalTypeRoiOnly:
		return a.Roi
	case models.WithdrawalTypeCapital:
		return a.Capital
	case models.WithdrawalTypeFullAmount:
		return a.Full
	default:
		return 0
	}
}

// ApplyRequest 提现申请
type ApplyRequest struct {
	UserID   int64   `json:"user_id"`
	Type     string  `json:"type" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Address  string  `json:"address" binding:"required"`
	Network  string  `json:"network" binding:"required"`
	TotpCode string  `json:"totp_code"`
}

// Apply 提交提现申请
// 校验全部通过后才落库，任何校验失败都不产生账务变更。
func (s *WithdrawService) Apply(ctx context.Context, req *ApplyRequest) (*models.Withdrawal, error) {
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

	if err := s.validate(ctx, user, req); err != nil {
		return nil, err
	}

	feeRate, err := s.configRepo.GetFloat(ctx, models.ConfigGroupWithdraw, "fee_rate", s.withdrawCfg.FeeRate)
	if err != nil {
		return nil, err
	}

	// 手续费只取整一次，净额用减法补齐，保证拆分后合计恒等于申请额
	fee := utils.Round2(req.Amount * feeRate)
	net := utils.Round2(req.Amount - fee)

	encrypted, err := s.cipher.Encrypt(req.Address)
	if err != nil {
		return nil, err
	}

	withdrawal := &models.Withdrawal{
		WithdrawalNo:     utils.GenerateOrderNo("WD"),
		UserID:           req.UserID,
		Type:             req.Type,
		RequestedAmount:  req.Amount,
		Fee:              fee,
		Amount:           net,
		AddressEncrypted: encrypted,
		Network:          req.Network,
		Status:           models.WithdrawalStatusPending,
	}
	if err := s.withdrawalRepo.Create(ctx, withdrawal); err != nil {
		return nil, err
	}

	metrics.Get().RecordWithdrawal(models.WithdrawalStatusPending)
	logger.GetLogger().Named("withdraw").Info("提现申请已创建",
		zap.String("withdrawal_no", withdrawal.WithdrawalNo),
		zap.Int64("user_id", req.UserID),
		zap.String("type", req.Type),
		zap.Float64("requested", req.Amount),
		zap.Float64("fee", fee),
		zap.Float64("net", net))

	// 小额申请自动过审，大额留给人工
	autoLimit, err := s.configRepo.GetFloat(ctx, models.ConfigGroupWithdraw, "auto_approve_limit", s.withdrawCfg.AutoApproveLimit)
	if err == nil && autoLimit > 0 && req.Amount <= autoLimit {
		if _, err := s.Approve(ctx, withdrawal.ID); err != nil {
			logger.GetLogger().Named("withdraw").Warn("自动过审失败",
				zap.Int64("withdrawal_id", withdrawal.ID),
				zap.Error(err))
		} else {
			withdrawal.Status = models.WithdrawalStatusApproved
		}
	}

	return withdrawal, nil
}

// validate 申请校验：额度边界、精度、地址、网络、冷却期、余额、动态验证码
func (s *WithdrawService) validate(ctx context.Context, user *models.User, req *ApplyRequest) error {
	switch req.Type {
	case models.WithdrawalTypeRoiOnly, models.WithdrawalTypeCapital, models.WithdrawalTypeFullAmount:
	default:
		return apperrors.ErrWithdrawTypeError
	}

	if !utils.HasTwoDecimalsAtMost(req.Amount) {
		return apperrors.ErrAmountPrecision
	}

	minAmount, err := s.configRepo.GetFloat(ctx, models.ConfigGroupWithdraw, "min_amount", s.withdrawCfg.MinAmount)
	if err != nil {
		return err
	}
	maxAmount, err := s.configRepo.GetFloat(ctx, models.ConfigGroupWithdraw, "max_amount", s.withdrawCfg.MaxAmount)
	if err != nil {
		return err
	}
	if req.Amount < minAmount {
		return apperrors.ErrAmountTooSmall
	}
	if maxAmount > 0 && req.Amount > maxAmount {
		return apperrors.ErrAmountTooLarge
	}

	if !utils.SupportedNetwork(req.Network) {
		return apperrors.ErrNetworkUnsupported
	}
	if !utils.ValidateAddress(req.Address, req.Network) {
		return apperrors.ErrAddressInvalid
	}

	// 上一笔还在待审核时不允许再次申请
	pending, err := s.withdrawalRepo.CountPendingByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return apperrors.ErrWithdrawPendingExists
	}

	// 冷却期按上一笔未被拒绝申请的提交时间起算
	cooldown, err := s.configRepo.GetFloat(ctx, models.ConfigGroupWithdraw, "cooldown_minutes",
		float64(s.withdrawCfg.CooldownMinutes))
	if err != nil {
		return err
	}
	if cooldown > 0 {
		last, err := s.withdrawalRepo.LastActiveCreatedAt(ctx, user.ID)
		if err != nil {
			return err
		}
		if last != nil {
			next := last.Add(time.Duration(cooldown) * time.Minute)
			if time.Now().Before(next) {
				return apperrors.ErrWithdrawCooldown.WithMessagef(
					"提现冷却期未结束，%s 后可再次申请", next.Format("2006-01-02 15:04"))
			}
		}
	}

	avail, err := s.ComputeAvailable(ctx, user.ID)
	if err != nil {
		return err
	}
	if limit := avail.availableFor(req.Type); req.Amount > limit {
		return apperrors.ErrBalanceInsufficient.WithMessagef("可提现余额不足，当前可提 %.2f", limit)
	}

	// 绑定了动态口令的账号必须提供验证码
	if user.TotpSecret != nil && *user.TotpSecret != "" {
		if req.TotpCode == "" {
			return apperrors.ErrTotpRequired
		}
		if !totp.Validate(req.TotpCode, *user.TotpSecret) {
			return apperrors.ErrTotpInvalid
		}
	}

	return nil
}

// Approve 审核通过
func (s *WithdrawService) Approve(ctx context.Context, id int64) (*models.Withdrawal, error) {
	ok, err := s.withdrawalRepo.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrWithdrawProcessed
	}

	metrics.Get().RecordWithdrawal(models.WithdrawalStatusApproved)
	return s.withdrawalRepo.GetByID(ctx, id)
}

// Reject 审核拒绝
func (s *WithdrawService) Reject(ctx context.Context, id int64, reason string) (*models.Withdrawal, error) {
	ok, err := s.withdrawalRepo.Reject(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrWithdrawProcessed
	}

	w, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.Get().RecordWithdrawal(models.WithdrawalStatusRejected)
	s.sender.Send(ctx, w.UserID, notify.TemplateWithdrawResult, map[string]interface{}{
		"withdrawal_no": w.WithdrawalNo,
		"status":        w.Status,
		"reason":        reason,
	})
	return w, nil
}

// Complete 对已批准的申请执行链上打款
// 打款金额为净额，成功后回填哈希并生成提现流水。
func (s *WithdrawService) Complete(ctx context.Context, id int64) (*models.Withdrawal, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WithdrawalStatusApproved {
		return nil, apperrors.ErrWithdrawProcessed
	}

	address, err := s.cipher.Decrypt(w.AddressEncrypted)
	if err != nil {
		return nil, err
	}

	transferCtx, cancel := context.WithTimeout(ctx, s.chainCfg.TransferTimeoutDuration())
	defer cancel()

	transfer, err := s.chainClient.SendFunds(transferCtx, address, w.Amount, w.Network)
	if err != nil {
		logger.GetLogger().Named("withdraw").Error("提现打款失败",
			zap.String("withdrawal_no", w.WithdrawalNo),
			zap.Error(err))
		switch {
		case errors.Is(err, chain.ErrTransferTimeout):
			return nil, apperrors.ErrChainTimeout.WithError(err)
		case errors.Is(err, chain.ErrInvalidAddress):
			return nil, apperrors.ErrChainInvalidAddress.WithError(err)
		default:
			return nil, apperrors.ErrChainTransferFailed.WithError(err)
		}
	}

	ok, err := s.withdrawalRepo.Complete(ctx, id, transfer.TxHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrWithdrawProcessed
	}

	txn := &models.Transaction{
		UserID:  &w.UserID,
		Type:    models.TransactionTypeWithdrawal,
		Amount:  w.Amount,
		Status:  models.TransactionStatusCompleted,
		TxHash:  &transfer.TxHash,
		Network: w.Network,
		Remark:  w.WithdrawalNo,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		logger.GetLogger().Named("withdraw").Error("提现流水写入失败",
			zap.String("withdrawal_no", w.WithdrawalNo),
			zap.Error(err))
	}

	metrics.Get().RecordWithdrawal(models.WithdrawalStatusCompleted)
	s.sender.Send(ctx, w.UserID, notify.TemplateWithdrawResult, map[string]interface{}{
		"withdrawal_no": w.WithdrawalNo,
		"status":        models.WithdrawalStatusCompleted,
		"tx_hash":       transfer.TxHash,
	})

	return s.withdrawalRepo.GetByID(ctx, id)
}

// List 查询提现记录
func (s *WithdrawService) List(ctx context.Context, userID int64, status string, page *utils.Pagination) ([]*models.Withdrawal, int64, error) {
	page.Normalize()
	return s.withdrawalRepo.List(ctx, userID, status, page.GetOffset(), page.PageSize)
}
