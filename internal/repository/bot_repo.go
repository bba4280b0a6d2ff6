package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

// BotRepository 订阅仓储
type BotRepository struct {
	db *gorm.DB
}

// NewBotRepository 创建订阅仓储
func NewBotRepository(db *gorm.DB) *BotRepository {
	return &BotRepository{db: db}
}

// Create 创建订阅
func (r *BotRepository) Create(ctx context.Context, bot *models.Bot) error {
	return r.db.WithContext(ctx).Create(bot).Error
}

// GetByID 根据 ID 获取订阅，不存在时返回 nil
func (r *BotRepository) GetByID(ctx context.Context, id int64) (*models.Bot, error) {
	var bot models.Bot
	err := r.db.WithContext(ctx).First(&bot, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

// GetByUserID 获取用户的订阅列表
func (r *BotRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Bot, error) {
	var bots []*models.Bot
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&bots).Error
	return bots, err
}

// Activate 条件更新 PENDING -> ACTIVE
func (r *BotRepository) Activate(ctx context.Context, id int64, activatedAt, expiryAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Bot{}).
		Where("id = ? AND status = ?", id, models.BotStatusPending).
		Updates(map[string]interface{}{
			"status":       models.BotStatusActive,
			"activated_at": activatedAt,
			"expiry_date":  expiryAt,
		})
	return result.RowsAffected > 0, result.Error
}

// HasActiveByUserAndTier 用户是否持有指定档位的生效订阅
// ROI 发放前校验，档位必须与套餐一致。
func (r *BotRepository) HasActiveByUserAndTier(tx *gorm.DB, userID int64, tier string, now time.Time) (bool, error) {
	var count int64
	err := tx.Model(&models.Bot{}).
		Where("user_id = ? AND tier = ? AND status = ?", userID, tier, models.BotStatusActive).
		Where("expiry_date IS NOT NULL AND expiry_date > ?", now).
		Count(&count).Error
	return count > 0, err
}

// MarkExpiredBefore 批量将到期订阅置为 EXPIRED
// 只作用于 ACTIVE 行，重复执行天然幂等。
func (r *BotRepository) MarkExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Bot{}).
		Where("status = ?", models.BotStatusActive).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", now).
		Update("status", models.BotStatusExpired)
	return result.RowsAffected, result.Error
}
