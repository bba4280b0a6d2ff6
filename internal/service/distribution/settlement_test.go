package distribution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/common/config"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/pkg/chain"
)

const (
	testWalletA        = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testWalletB        = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testPlatformWallet = "0xcccccccccccccccccccccccccccccccccccccccc"
)

// newSettleService 组装结算器
func newSettleService(db *gorm.DB, client chain.Client, chainCfg *config.ChainConfig) *SettleService {
	return NewSettleService(
		repository.NewEarningRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewLostCommissionRepository(db),
		repository.NewUserRepository(db),
		repository.NewSystemConfigRepository(db),
		client,
		chainCfg,
	)
}

// seedCommission 为套餐写入一条待结算佣金及配套流水
func seedCommission(t *testing.T, db *gorm.DB, pkg *models.Package, userID int64, level int, amount float64) *models.Earning {
	txn := &models.Transaction{
		UserID:    &userID,
		PackageID: &pkg.ID,
		Type:      models.TransactionTypeLevelIncome,
		Amount:    amount,
		Status:    models.TransactionStatusCompleted,
		Network:   pkg.Network,
	}
	require.NoError(t, db.Create(txn).Error)

	earning := &models.Earning{
		UserID:        userID,
		SourceUserID:  pkg.UserID,
		PackageID:     pkg.ID,
		TransactionID: txn.ID,
		Kind:          models.EarningKindLevelIncome,
		Level:         level,
		Amount:        amount,
		Status:        models.EarningStatusPaid,
	}
	require.NoError(t, db.Create(earning).Error)
	return earning
}

// createWalletUser 创建绑定了钱包地址的用户
func createWalletUser(t *testing.T, db *gorm.DB, code, wallet string) *models.User {
	user := &models.User{
		Email:         code + "@test.io",
		ReferralCode:  code,
		WalletAddress: wallet,
		Network:       models.NetworkBEP20,
		Status:        models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestSettlePackage_Offchain(t *testing.T) {
	db := setupDistributionDB(t)
	client := chain.NewMockClient()
	svc := newSettleService(db, client, &config.ChainConfig{DistributionEnabled: false})
	ctx := context.Background()

	u := createWalletUser(t, db, "SOFF1", testWalletA)
	investor := createWalletUser(t, db, "SOFFINV", "")
	pkg := newActivePackage(t, db, investor.ID, 1000)
	earning := seedCommission(t, db, pkg, u.ID, 2, 7.50)

	result, err := svc.SettlePackage(ctx, pkg.ID, models.NetworkBEP20)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Zero(t, result.Failed)

	t.Run("收益转为链下结清", func(t *testing.T) {
		var settled models.Earning
		require.NoError(t, db.First(&settled, earning.ID).Error)
		assert.Equal(t, models.EarningStatusPaidOffchain, settled.Status)
	})

	t.Run("链下模式不触发转账", func(t *testing.T) {
		assert.Empty(t, client.Transfers())
	})

	t.Run("无缺口不生成回收流水", func(t *testing.T) {
		var count int64
		db.Model(&models.Transaction{}).
			Where("package_id = ? AND type = ?", pkg.ID, models.TransactionTypePlatformCollect).
			Count(&count)
		assert.Zero(t, count)
	})
}

func TestSettlePackage_Onchain(t *testing.T) {
	db := setupDistributionDB(t)
	client := chain.NewMockClient()
	svc := newSettleService(db, client, &config.ChainConfig{DistributionEnabled: true})
	ctx := context.Background()

	u := createWalletUser(t, db, "SON1", testWalletA)
	investor := createWalletUser(t, db, "SONINV", "")
	pkg := newActivePackage(t, db, investor.ID, 1000)
	earning := seedCommission(t, db, pkg, u.ID, 1, 20.00)

	result, err := svc.SettlePackage(ctx, pkg.ID, models.NetworkBEP20)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)

	t.Run("收益转为链上结清", func(t *testing.T) {
		var settled models.Earning
		require.NoError(t, db.First(&settled, earning.ID).Error)
		assert.Equal(t, models.EarningStatusPaidOnchain, settled.Status)
	})

	t.Run("流水回填交易哈希", func(t *testing.T) {
		var txn models.Transaction
		require.NoError(t, db.First(&txn, earning.TransactionID).Error)
		assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
		require.NotNil(t, txn.TxHash)
		assert.NotEmpty(t, *txn.TxHash)
	})

	t.Run("转账金额与收款地址正确", func(t *testing.T) {
		transfers := client.Transfers()
		require.Len(t, transfers, 1)
		assert.Equal(t, testWalletA, transfers[0].Destination)
		assert.Equal(t, 20.00, transfers[0].Amount)
	})
}

func TestSettlePackage_OnchainFailure(t *testing.T) {
	db := setupDistributionDB(t)
	client := chain.NewMockClient()
	client.FailDestinations[testWalletB] = true
	svc := newSettleService(db, client, &config.ChainConfig{DistributionEnabled: true})
	ctx := context.Background()

	ok := createWalletUser(t, db, "SFOK", testWalletA)
	bad := createWalletUser(t, db, "SFBAD", testWalletB)
	investor := createWalletUser(t, db, "SFINV", "")
	pkg := newActivePackage(t, db, investor.ID, 1000)
	okEarning := seedCommission(t, db, pkg, ok.ID, 1, 20.00)
	badEarning := seedCommission(t, db, pkg, bad.ID, 2, 7.50)

	result, err := svc.SettlePackage(ctx, pkg.ID, models.NetworkBEP20)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)

	t.Run("单笔失败不阻断同批其他行", func(t *testing.T) {
		var settled models.Earning
		require.NoError(t, db.First(&settled, okEarning.ID).Error)
		assert.Equal(t, models.EarningStatusPaidOnchain, settled.Status)
	})

	t.Run("失败行收益与流水都进失败态", func(t *testing.T) {
		var failed models.Earning
		require.NoError(t, db.First(&failed, badEarning.ID).Error)
		assert.Equal(t, models.EarningStatusFailed, failed.Status)

		var txn models.Transaction
		require.NoError(t, db.First(&txn, badEarning.TransactionID).Error)
		assert.Equal(t, models.TransactionStatusFailed, txn.Status)
	})

	t.Run("缺口生成平台回收流水", func(t *testing.T) {
		var collect models.Transaction
		require.NoError(t, db.Where("package_id = ? AND type = ?",
			pkg.ID, models.TransactionTypePlatformCollect).First(&collect).Error)
		// 失败的 7.50 归平台，未配置平台钱包则挂起
		assert.Equal(t, 7.50, collect.Amount)
		assert.Equal(t, models.TransactionStatusPending, collect.Status)
	})

	t.Run("重复结算不追加回收流水", func(t *testing.T) {
		_, err := svc.SettlePackage(ctx, pkg.ID, models.NetworkBEP20)
		require.NoError(t, err)

		var count int64
		db.Model(&models.Transaction{}).
			Where("package_id = ? AND type = ?", pkg.ID, models.TransactionTypePlatformCollect).
			Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func TestSettlePackage_ShortfallToPlatformWallet(t *testing.T) {
	db := setupDistributionDB(t)
	client := chain.NewMockClient()
	svc := newSettleService(db, client, &config.ChainConfig{
		DistributionEnabled: false,
		PlatformWallet:      testPlatformWallet,
	})
	ctx := context.Background()

	investor := createWalletUser(t, db, "SPINV", "")
	pkg := newActivePackage(t, db, investor.ID, 1000)

	// 无 Bot 资格的流失佣金构成缺口
	uid := investor.ID
	require.NoError(t, db.Create(&models.LostCommission{
		PackageID: pkg.ID,
		UserID:    &uid,
		Level:     1,
		Amount:    20.00,
		Reason:    models.LostReasonNoBot,
	}).Error)
	// 无上线的流失不计入缺口
	require.NoError(t, db.Create(&models.LostCommission{
		PackageID: pkg.ID,
		Level:     6,
		Amount:    1.00,
		Reason:    models.LostReasonNoRecipient,
	}).Error)

	_, err := svc.SettlePackage(ctx, pkg.ID, models.NetworkBEP20)
	require.NoError(t, err)

	var collect models.Transaction
	require.NoError(t, db.Where("package_id = ? AND type = ?",
		pkg.ID, models.TransactionTypePlatformCollect).First(&collect).Error)
	assert.Equal(t, 20.00, collect.Amount)
	assert.Equal(t, models.TransactionStatusCompleted, collect.Status)
	require.NotNil(t, collect.TxHash)

	transfers := client.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, testPlatformWallet, transfers[0].Destination)
	assert.Equal(t, 20.00, transfers[0].Amount)
}
