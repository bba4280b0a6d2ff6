package referral

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

// setupReferralDB 创建推荐关系测试数据库
func setupReferralDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Package{}, &models.Bot{})
	require.NoError(t, err)
	return db
}

// createReferralUser 创建带推荐码的测试用户
func createReferralUser(t *testing.T, db *gorm.DB, email, code string, referrerCode *string) *models.User {
	user := &models.User{
		Email:        email,
		ReferralCode: code,
		ReferrerCode: referrerCode,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestResolveUpline(t *testing.T) {
	db := setupReferralDB(t)
	svc := NewUplineService(repository.NewUserRepository(db))
	ctx := context.Background()

	t.Run("完整六级链", func(t *testing.T) {
		// l7 -> l6 -> ... -> l1 -> investor
		var prev *models.User
		codes := make([]string, 0, 7)
		for i := 7; i >= 1; i-- {
			var refCode *string
			if prev != nil {
				refCode = &prev.ReferralCode
			}
			prev = createReferralUser(t, db, fmt.Sprintf("chain%d@test.io", i), fmt.Sprintf("CHAIN%d", i), refCode)
			codes = append(codes, prev.ReferralCode)
		}
		investor := createReferralUser(t, db, "chain-investor@test.io", "CHAININV", &prev.ReferralCode)

		upline, err := svc.ResolveUpline(ctx, investor)
		require.NoError(t, err)
		// 七级上线只取前六级
		require.Len(t, upline, MaxLevel)
		assert.Equal(t, "CHAIN1", upline[0].ReferralCode)
		assert.Equal(t, "CHAIN6", upline[5].ReferralCode)
	})

	t.Run("无推荐人返回空链", func(t *testing.T) {
		investor := createReferralUser(t, db, "orphan@test.io", "ORPHAN", nil)

		upline, err := svc.ResolveUpline(ctx, investor)
		require.NoError(t, err)
		assert.Empty(t, upline)
	})

	t.Run("悬空推荐码截断链条", func(t *testing.T) {
		dangling := "NOSUCHCODE"
		mid := createReferralUser(t, db, "mid@test.io", "MID1", &dangling)
		investor := createReferralUser(t, db, "dang-investor@test.io", "DANGINV", &mid.ReferralCode)

		upline, err := svc.ResolveUpline(ctx, investor)
		require.NoError(t, err)
		// 悬空处截断，不跳级续查
		require.Len(t, upline, 1)
		assert.Equal(t, mid.ID, upline[0].ID)
	})

	t.Run("推荐环不会死循环", func(t *testing.T) {
		// a 的推荐人是 b，b 的推荐人是 a
		codeB := "CYCB"
		a := createReferralUser(t, db, "cyca@test.io", "CYCA", &codeB)
		createReferralUser(t, db, "cycb@test.io", codeB, &a.ReferralCode)
		investor := createReferralUser(t, db, "cyc-investor@test.io", "CYCINV", &a.ReferralCode)

		upline, err := svc.ResolveUpline(ctx, investor)
		require.NoError(t, err)
		// a、b 各出现一次后在回到 a 处截断
		assert.Len(t, upline, 2)
	})
}
