package referral

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

// grantPackage 给用户挂一个生效套餐
func grantPackage(t *testing.T, db *gorm.DB, userID int64, status string, expiry time.Time) {
	require.NoError(t, db.Create(&models.Package{
		UserID:     userID,
		Amount:     1000,
		Tier:       "neo",
		RoiPercent: 3.0,
		Status:     status,
		Network:    models.NetworkBEP20,
		ExpiryDate: utils.TimePtr(expiry),
	}).Error)
}

// grantBot 给用户挂一个 Bot 订阅
func grantBot(t *testing.T, db *gorm.DB, userID int64, status string, expiry time.Time) {
	require.NoError(t, db.Create(&models.Bot{
		UserID:     userID,
		Tier:       "neo",
		Status:     status,
		ExpiryDate: utils.TimePtr(expiry),
	}).Error)
}

func TestEligibleForCommission(t *testing.T) {
	db := setupReferralDB(t)
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	t.Run("套餐和订阅齐备则有资格", func(t *testing.T) {
		u := createReferralUser(t, db, "elig@test.io", "ELIG1", nil)
		grantPackage(t, db, u.ID, models.PackageStatusActive, future)
		grantBot(t, db, u.ID, models.BotStatusActive, future)

		ok, err := EligibleForCommission(db, u, now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("只有套餐没有订阅无资格", func(t *testing.T) {
		u := createReferralUser(t, db, "pkgonly@test.io", "ELIG2", nil)
		grantPackage(t, db, u.ID, models.PackageStatusActive, future)

		ok, err := EligibleForCommission(db, u, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("只有订阅没有套餐无资格", func(t *testing.T) {
		u := createReferralUser(t, db, "botonly@test.io", "ELIG3", nil)
		grantBot(t, db, u.ID, models.BotStatusActive, future)

		ok, err := EligibleForCommission(db, u, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("订阅已过期无资格", func(t *testing.T) {
		u := createReferralUser(t, db, "expbot@test.io", "ELIG4", nil)
		grantPackage(t, db, u.ID, models.PackageStatusActive, future)
		grantBot(t, db, u.ID, models.BotStatusActive, past)

		ok, err := EligibleForCommission(db, u, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("套餐状态非生效无资格", func(t *testing.T) {
		u := createReferralUser(t, db, "exppkg@test.io", "ELIG5", nil)
		grantPackage(t, db, u.ID, models.PackageStatusExpired, future)
		grantBot(t, db, u.ID, models.BotStatusActive, future)

		ok, err := EligibleForCommission(db, u, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("禁用账号无资格", func(t *testing.T) {
		u := createReferralUser(t, db, "disabled@test.io", "ELIG6", nil)
		u.Status = models.UserStatusDisabled
		require.NoError(t, db.Save(u).Error)
		grantPackage(t, db, u.ID, models.PackageStatusActive, future)
		grantBot(t, db, u.ID, models.BotStatusActive, future)

		ok, err := EligibleForCommission(db, u, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
