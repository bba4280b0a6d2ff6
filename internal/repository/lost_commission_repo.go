package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

// LostCommissionRepository 流失佣金仓储
type LostCommissionRepository struct {
	db *gorm.DB
}

// NewLostCommissionRepository 创建流失佣金仓储
func NewLostCommissionRepository(db *gorm.DB) *LostCommissionRepository {
	return &LostCommissionRepository{db: db}
}

// Create 记录一笔流失佣金
func (r *LostCommissionRepository) Create(ctx context.Context, lost *models.LostCommission) error {
	return r.db.WithContext(ctx).Create(lost).Error
}

// ExistsByPackage 套餐是否已有流失记录（与收益记录一起构成分佣幂等依据）
func (r *LostCommissionRepository) ExistsByPackage(ctx context.Context, packageID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LostCommission{}).
		Where("package_id = ?", packageID).
		Count(&count).Error
	return count > 0, err
}

// SumByPackage 统计套餐的流失佣金总额
func (r *LostCommissionRepository) SumByPackage(ctx context.Context, packageID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.LostCommission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("package_id = ?", packageID).
		Scan(&sum).Error
	return sum, err
}

// SumByPackageAndReasons 按原因统计套餐的流失佣金
func (r *LostCommissionRepository) SumByPackageAndReasons(ctx context.Context, packageID int64, reasons []string) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.LostCommission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("package_id = ? AND reason IN ?", packageID, reasons).
		Scan(&sum).Error
	return sum, err
}

// ListDistributedPackageIDs 获取有流失记录的套餐 ID（审计用）
// 整池流失的套餐不会出现在收益表里，对账需要单独并入。
func (r *LostCommissionRepository) ListDistributedPackageIDs(ctx context.Context, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.LostCommission{}).
		Distinct("package_id").
		Order("package_id DESC").
		Limit(limit).
		Pluck("package_id", &ids).Error
	return ids, err
}

// GetByPackage 获取套餐的流失记录
func (r *LostCommissionRepository) GetByPackage(ctx context.Context, packageID int64) ([]*models.LostCommission, error) {
	var records []*models.LostCommission
	err := r.db.WithContext(ctx).
		Where("package_id = ?", packageID).
		Order("level ASC").
		Find(&records).Error
	return records, err
}
