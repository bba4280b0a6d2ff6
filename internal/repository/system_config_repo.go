package repository

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

// SystemConfigRepository 系统配置仓储
// 配置每次实时读库，运营改库后下一次业务操作立即生效。
type SystemConfigRepository struct {
	db *gorm.DB
}

// NewSystemConfigRepository 创建系统配置仓储
func NewSystemConfigRepository(db *gorm.DB) *SystemConfigRepository {
	return &SystemConfigRepository{db: db}
}

// Get 根据分组和键获取配置，不存在时返回 nil
func (r *SystemConfigRepository) Get(ctx context.Context, group, key string) (*models.SystemConfig, error) {
	var config models.SystemConfig
	err := r.db.WithContext(ctx).
		Where("\"group\" = ? AND \"key\" = ?", group, key).
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// GetFloat 获取数值配置，不存在或解析失败时返回默认值
func (r *SystemConfigRepository) GetFloat(ctx context.Context, group, key string, defaultValue float64) (float64, error) {
	config, err := r.Get(ctx, group, key)
	if err != nil {
		return defaultValue, err
	}
	if config == nil {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(config.Value, 64)
	if err != nil {
		return defaultValue, nil
	}
	return v, nil
}

// GetBool 获取布尔配置，不存在或解析失败时返回默认值
func (r *SystemConfigRepository) GetBool(ctx context.Context, group, key string, defaultValue bool) (bool, error) {
	config, err := r.Get(ctx, group, key)
	if err != nil {
		return defaultValue, err
	}
	if config == nil {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(config.Value)
	if err != nil {
		return defaultValue, nil
	}
	return v, nil
}

// Set 写入或更新配置
func (r *SystemConfigRepository) Set(ctx context.Context, config *models.SystemConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
		}).
		Create(config).Error
}

// GetByGroup 获取分组下全部配置
func (r *SystemConfigRepository) GetByGroup(ctx context.Context, group string) ([]*models.SystemConfig, error) {
	var configs []*models.SystemConfig
	err := r.db.WithContext(ctx).
		Where("\"group\" = ?", group).
		Order("\"key\" ASC").
		Find(&configs).Error
	return configs, err
}
