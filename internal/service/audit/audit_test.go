package audit

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
)

// setupAuditDB 创建对账测试数据库
func setupAuditDB(t *testing.T) *gorm.DB {
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
		&models.Earning{},
		&models.Transaction{},
		&models.LostCommission{},
	)
	require.NoError(t, err)
	return db
}

// newAuditService 组装对账服务
func newAuditService(db *gorm.DB) *AuditService {
	return NewAuditService(
		repository.NewEarningRepository(db),
		repository.NewLostCommissionRepository(db),
		repository.NewPackageRepository(db),
		10,
	)
}

// seedAuditPackage 创建一个已激活套餐
func seedAuditPackage(t *testing.T, db *gorm.DB, amount float64) *models.Package {
	user := &models.User{
		Email:        fmt.Sprintf("audit%f@test.io", amount),
		ReferralCode: fmt.Sprintf("AUD%.0f", amount),
		Status:       models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)

	pkg := &models.Package{
		UserID:     user.ID,
		Amount:     amount,
		Tier:       "neo",
		RoiPercent: 3.0,
		Status:     models.PackageStatusActive,
		Network:    models.NetworkBEP20,
	}
	require.NoError(t, db.Create(pkg).Error)
	return pkg
}

// seedAuditEarning 写入一条佣金收益
func seedAuditEarning(t *testing.T, db *gorm.DB, pkg *models.Package, level int, amount float64, status string) {
	require.NoError(t, db.Create(&models.Earning{
		UserID:        pkg.UserID,
		SourceUserID:  pkg.UserID,
		PackageID:     pkg.ID,
		TransactionID: 1,
		Kind:          models.EarningKindLevelIncome,
		Level:         level,
		Amount:        amount,
		Status:        status,
	}).Error)
}

// seedAuditLost 写入一条流失佣金
func seedAuditLost(t *testing.T, db *gorm.DB, pkg *models.Package, level int, amount float64) {
	require.NoError(t, db.Create(&models.LostCommission{
		PackageID: pkg.ID,
		Level:     level,
		Amount:    amount,
		Reason:    models.LostReasonNoRecipient,
	}).Error)
}

func TestCheckPackage_Balanced(t *testing.T) {
	db := setupAuditDB(t)
	svc := newAuditService(db)
	ctx := context.Background()

	// 1000 的佣金池：20 + 7.5 + 5 + 2.5 + 1.5 + 1 = 37.5
	pkg := seedAuditPackage(t, db, 1000)
	seedAuditEarning(t, db, pkg, 1, 20.00, models.EarningStatusPaidOffchain)
	seedAuditEarning(t, db, pkg, 2, 7.50, models.EarningStatusPaid)
	seedAuditLost(t, db, pkg, 3, 5.00)
	seedAuditLost(t, db, pkg, 4, 2.50)
	seedAuditLost(t, db, pkg, 5, 1.50)
	seedAuditLost(t, db, pkg, 6, 1.00)

	mismatch, corrected, err := svc.CheckPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.False(t, mismatch)
	assert.False(t, corrected)
}

func TestCheckPackage_GapCorrected(t *testing.T) {
	db := setupAuditDB(t)
	svc := newAuditService(db)
	ctx := context.Background()

	// 缺第 3-6 级的落账，形成 10.00 缺口
	pkg := seedAuditPackage(t, db, 1000)
	seedAuditEarning(t, db, pkg, 1, 20.00, models.EarningStatusPaidOffchain)
	seedAuditEarning(t, db, pkg, 2, 7.50, models.EarningStatusPaid)

	mismatch, corrected, err := svc.CheckPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.True(t, mismatch)
	assert.True(t, corrected)

	var fill models.LostCommission
	require.NoError(t, db.Where("package_id = ? AND reason = ?",
		pkg.ID, models.LostReasonSettlementFailed).First(&fill).Error)
	assert.Equal(t, 10.00, fill.Amount)
	assert.Zero(t, fill.Level)

	t.Run("补记后账面闭合", func(t *testing.T) {
		mismatch, corrected, err := svc.CheckPackage(ctx, pkg.ID)
		require.NoError(t, err)
		assert.False(t, mismatch)
		assert.False(t, corrected)
	})
}

func TestCheckPackage_FailedSettlement(t *testing.T) {
	db := setupAuditDB(t)
	svc := newAuditService(db)
	ctx := context.Background()

	// 结算失败的收益不算实发，其金额应被补记为流失
	pkg := seedAuditPackage(t, db, 1000)
	seedAuditEarning(t, db, pkg, 1, 20.00, models.EarningStatusFailed)
	seedAuditEarning(t, db, pkg, 2, 7.50, models.EarningStatusPaidOffchain)
	seedAuditLost(t, db, pkg, 3, 5.00)
	seedAuditLost(t, db, pkg, 4, 2.50)
	seedAuditLost(t, db, pkg, 5, 1.50)
	seedAuditLost(t, db, pkg, 6, 1.00)

	mismatch, corrected, err := svc.CheckPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.True(t, mismatch)
	assert.True(t, corrected)

	var fill models.LostCommission
	require.NoError(t, db.Where("package_id = ? AND reason = ?",
		pkg.ID, models.LostReasonSettlementFailed).First(&fill).Error)
	assert.Equal(t, 20.00, fill.Amount)
}

func TestAuditRun(t *testing.T) {
	db := setupAuditDB(t)
	svc := newAuditService(db)
	ctx := context.Background()

	balanced := seedAuditPackage(t, db, 1000)
	seedAuditEarning(t, db, balanced, 1, 20.00, models.EarningStatusPaidOffchain)
	seedAuditLost(t, db, balanced, 2, 7.50)
	seedAuditLost(t, db, balanced, 3, 5.00)
	seedAuditLost(t, db, balanced, 4, 2.50)
	seedAuditLost(t, db, balanced, 5, 1.50)
	seedAuditLost(t, db, balanced, 6, 1.00)

	short := seedAuditPackage(t, db, 2000)
	seedAuditEarning(t, db, short, 1, 40.00, models.EarningStatusPaidOffchain)

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Mismatch)
	assert.Equal(t, 1, result.Corrected)
}

func TestAuditRun_LostOnlyPackage(t *testing.T) {
	db := setupAuditDB(t)
	svc := newAuditService(db)
	ctx := context.Background()

	// 整池流失：没有任何收益行，只能从流失表发现
	balanced := seedAuditPackage(t, db, 1000)
	seedAuditLost(t, db, balanced, 1, 20.00)
	seedAuditLost(t, db, balanced, 2, 7.50)
	seedAuditLost(t, db, balanced, 3, 5.00)
	seedAuditLost(t, db, balanced, 4, 2.50)
	seedAuditLost(t, db, balanced, 5, 1.50)
	seedAuditLost(t, db, balanced, 6, 1.00)

	// 整池流失但少记了两级，留下缺口
	short := seedAuditPackage(t, db, 2000)
	seedAuditLost(t, db, short, 1, 40.00)
	seedAuditLost(t, db, short, 2, 15.00)

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Mismatch)
	assert.Equal(t, 1, result.Corrected)

	// 缺口 75 - 55 = 20 被补记
	var fill models.LostCommission
	require.NoError(t, db.Where("package_id = ? AND reason = ?",
		short.ID, models.LostReasonSettlementFailed).First(&fill).Error)
	assert.Equal(t, 20.00, fill.Amount)
}
