package invest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yunhetech/crypto-invest-backend/internal/common/config"
	apperrors "github.com/yunhetech/crypto-invest-backend/internal/common/errors"
	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/internal/service/distribution"
	"github.com/yunhetech/crypto-invest-backend/internal/service/referral"
	"github.com/yunhetech/crypto-invest-backend/pkg/chain"
	"github.com/yunhetech/crypto-invest-backend/pkg/notify"
)

const testDepositAddr = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// setupInvestDB 创建投资流程测试数据库
func setupInvestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Package{},
		&models.Bot{},
		&models.Earning{},
		&models.Transaction{},
		&models.LostCommission{},
		&models.SystemConfig{},
	)
	require.NoError(t, err)
	return db
}

// newInvestService 组装投资服务（含完整的分佣结算链路）
func newInvestService(db *gorm.DB, client *chain.MockClient) *InvestService {
	userRepo := repository.NewUserRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	lostRepo := repository.NewLostCommissionRepository(db)
	chainCfg := &config.ChainConfig{DepositAddress: testDepositAddr}

	distributeSvc := distribution.NewDistributeService(
		userRepo, packageRepo, earningRepo, lostRepo,
		referral.NewUplineService(userRepo), notify.NopSender{}, db)
	settleSvc := distribution.NewSettleService(
		earningRepo,
		repository.NewTransactionRepository(db),
		lostRepo,
		userRepo,
		repository.NewSystemConfigRepository(db),
		client,
		chainCfg,
	)

	return NewInvestService(
		userRepo,
		packageRepo,
		repository.NewBotRepository(db),
		distributeSvc,
		settleSvc,
		client,
		chainCfg,
	)
}

// seedInvestUser 创建测试用户
func seedInvestUser(t *testing.T, db *gorm.DB, code string, referrerCode *string) *models.User {
	user := &models.User{
		Email:        code + "@test.io",
		ReferralCode: code,
		ReferrerCode: referrerCode,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// presetDeposit 在 Mock 链上预置一笔入账
func presetDeposit(client *chain.MockClient, txHash string, amount float64) {
	client.Deposits[txHash] = &chain.DepositInfo{
		TxHash:        txHash,
		To:            testDepositAddr,
		Amount:        amount,
		Network:       models.NetworkBEP20,
		Confirmations: 20,
	}
}

func TestCreatePackage(t *testing.T) {
	db := setupInvestDB(t)
	client := chain.NewMockClient()
	svc := newInvestService(db, client)
	ctx := context.Background()

	u := seedInvestUser(t, db, "CP1", nil)

	t.Run("金额落入档位", func(t *testing.T) {
		pkg, err := svc.CreatePackage(ctx, &CreatePackageRequest{
			UserID:  u.ID,
			Amount:  5000,
			Network: models.NetworkBEP20,
		})
		require.NoError(t, err)
		assert.Equal(t, models.PackageStatusPending, pkg.Status)
		assert.Equal(t, "sol", pkg.Tier)
		assert.Equal(t, 3.5, pkg.RoiPercent)
	})

	t.Run("金额不入任何档位", func(t *testing.T) {
		_, err := svc.CreatePackage(ctx, &CreatePackageRequest{
			UserID:  u.ID,
			Amount:  50,
			Network: models.NetworkBEP20,
		})
		assert.ErrorIs(t, err, apperrors.ErrPackageAmountInvalid)
	})

	t.Run("金额精度超限", func(t *testing.T) {
		_, err := svc.CreatePackage(ctx, &CreatePackageRequest{
			UserID:  u.ID,
			Amount:  1000.555,
			Network: models.NetworkBEP20,
		})
		assert.ErrorIs(t, err, apperrors.ErrAmountPrecision)
	})
}

func TestConfirmDeposit(t *testing.T) {
	db := setupInvestDB(t)
	client := chain.NewMockClient()
	svc := newInvestService(db, client)
	ctx := context.Background()

	// 一级上线持有资格，确认存款后应吃到直推佣金
	now := time.Now()
	l1 := seedInvestUser(t, db, "CDL1", nil)
	require.NoError(t, db.Create(&models.Package{
		UserID: l1.ID, Amount: 1000, Tier: "neo", RoiPercent: 3.0,
		Status: models.PackageStatusActive, Network: models.NetworkBEP20,
		ExpiryDate: utils.TimePtr(now.Add(30 * 24 * time.Hour)),
	}).Error)
	require.NoError(t, db.Create(&models.Bot{
		UserID: l1.ID, Tier: "neo", Status: models.BotStatusActive,
		ExpiryDate: utils.TimePtr(now.Add(30 * 24 * time.Hour)),
	}).Error)

	investor := seedInvestUser(t, db, "CDINV", &l1.ReferralCode)
	pkg, err := svc.CreatePackage(ctx, &CreatePackageRequest{
		UserID:  investor.ID,
		Amount:  1000,
		Network: models.NetworkBEP20,
	})
	require.NoError(t, err)

	presetDeposit(client, "0xdeposit1", 1000)

	activated, err := svc.ConfirmDeposit(ctx, pkg.ID, "0xdeposit1")
	require.NoError(t, err)

	t.Run("套餐激活并排期", func(t *testing.T) {
		assert.Equal(t, models.PackageStatusActive, activated.Status)
		require.NotNil(t, activated.DepositTxHash)
		assert.Equal(t, "0xdeposit1", *activated.DepositTxHash)
		require.NotNil(t, activated.ExpiryDate)
		require.NotNil(t, activated.NextRoiDate)
		assert.True(t, activated.NextRoiDate.Before(*activated.ExpiryDate))
	})

	t.Run("激活即触发分佣", func(t *testing.T) {
		var earning models.Earning
		require.NoError(t, db.Where("package_id = ? AND level = 1", pkg.ID).First(&earning).Error)
		assert.Equal(t, l1.ID, earning.UserID)
		assert.Equal(t, 20.00, earning.Amount)
		// 链下模式下结算器顺手把佣金结清
		assert.Equal(t, models.EarningStatusPaidOffchain, earning.Status)
	})

	t.Run("重复确认是空操作", func(t *testing.T) {
		again, err := svc.ConfirmDeposit(ctx, pkg.ID, "0xdeposit1")
		require.NoError(t, err)
		assert.Equal(t, models.PackageStatusActive, again.Status)

		var count int64
		db.Model(&models.Earning{}).Where("package_id = ?", pkg.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func TestConfirmDeposit_VerifyFailures(t *testing.T) {
	db := setupInvestDB(t)
	client := chain.NewMockClient()
	svc := newInvestService(db, client)
	ctx := context.Background()

	u := seedInvestUser(t, db, "CDV1", nil)
	pkg, err := svc.CreatePackage(ctx, &CreatePackageRequest{
		UserID:  u.ID,
		Amount:  1000,
		Network: models.NetworkBEP20,
	})
	require.NoError(t, err)

	t.Run("链上查不到交易", func(t *testing.T) {
		_, err := svc.ConfirmDeposit(ctx, pkg.ID, "0xnosuch")
		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperrors.ErrDepositNotVerified.Code, appErr.Code)
	})

	t.Run("金额不符", func(t *testing.T) {
		presetDeposit(client, "0xwrongamt", 800)
		_, err := svc.ConfirmDeposit(ctx, pkg.ID, "0xwrongamt")
		require.Error(t, err)
	})

	t.Run("收款地址不符", func(t *testing.T) {
		client.Deposits["0xwrongaddr"] = &chain.DepositInfo{
			TxHash: "0xwrongaddr",
			To:     "0xffffffffffffffffffffffffffffffffffffffff",
			Amount: 1000,
		}
		_, err := svc.ConfirmDeposit(ctx, pkg.ID, "0xwrongaddr")
		require.Error(t, err)
	})

	t.Run("核验失败套餐保持待处理", func(t *testing.T) {
		var current models.Package
		require.NoError(t, db.First(&current, pkg.ID).Error)
		assert.Equal(t, models.PackageStatusPending, current.Status)
	})
}

func TestRejectPackage(t *testing.T) {
	db := setupInvestDB(t)
	client := chain.NewMockClient()
	svc := newInvestService(db, client)
	ctx := context.Background()

	u := seedInvestUser(t, db, "RJ1", nil)
	pkg, err := svc.CreatePackage(ctx, &CreatePackageRequest{
		UserID:  u.ID,
		Amount:  1000,
		Network: models.NetworkBEP20,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RejectPackage(ctx, pkg.ID))

	var current models.Package
	require.NoError(t, db.First(&current, pkg.ID).Error)
	assert.Equal(t, models.PackageStatusRejected, current.Status)

	// 已拒绝的套餐不能再确认
	presetDeposit(client, "0xlate", 1000)
	_, err = svc.ConfirmDeposit(ctx, pkg.ID, "0xlate")
	assert.ErrorIs(t, err, apperrors.ErrPackageStatusError)
}

func TestBotFlow(t *testing.T) {
	db := setupInvestDB(t)
	client := chain.NewMockClient()
	svc := newInvestService(db, client)
	ctx := context.Background()

	u := seedInvestUser(t, db, "BOT1", nil)

	bot, err := svc.CreateBot(ctx, &CreateBotRequest{
		UserID:  u.ID,
		Tier:    "neo",
		Amount:  200,
		Network: models.NetworkBEP20,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BotStatusPending, bot.Status)

	t.Run("无效档位被拒", func(t *testing.T) {
		_, err := svc.CreateBot(ctx, &CreateBotRequest{
			UserID:  u.ID,
			Tier:    "doge",
			Amount:  200,
			Network: models.NetworkBEP20,
		})
		assert.Error(t, err)
	})

	t.Run("确认存款后激活一年", func(t *testing.T) {
		presetDeposit(client, "0xbotdep", 200)
		activated, err := svc.ConfirmBotDeposit(ctx, bot.ID, "0xbotdep")
		require.NoError(t, err)
		assert.Equal(t, models.BotStatusActive, activated.Status)
		require.NotNil(t, activated.ExpiryDate)
		require.NotNil(t, activated.ActivatedAt)
		assert.InDelta(t, 365*24.0,
			activated.ExpiryDate.Sub(*activated.ActivatedAt).Hours(), 48)
	})
}
