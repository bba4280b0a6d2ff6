package referral

import (
	"time"

	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

// EligibleForCommission 上线是否具备拿佣资格：
// 账号正常，且名下同时存在未到期的生效套餐和未到期的生效 Bot 订阅。
// 两个条件放在同一条查询里判定，避免两次读取之间状态翻转。
// 资格在分佣事务内实时判定，Bot 当天过期当天就失去资格。
func EligibleForCommission(tx *gorm.DB, user *models.User, now time.Time) (bool, error) {
	if user.Status != models.UserStatusActive {
		return false, nil
	}

	var count int64
	err := tx.Model(&models.Bot{}).
		Where("user_id = ? AND status = ? AND expiry_date > ?",
			user.ID, models.BotStatusActive, now).
		Where("EXISTS (SELECT 1 FROM packages WHERE packages.user_id = bots.user_id AND packages.status = ? AND packages.expiry_date > ?)",
			models.PackageStatusActive, now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
