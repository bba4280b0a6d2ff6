package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

// EarningRepository 收益仓储
type EarningRepository struct {
	db *gorm.DB
}

// NewEarningRepository 创建收益仓储
func NewEarningRepository(db *gorm.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

// Create 创建收益记录
func (r *EarningRepository) Create(ctx context.Context, earning *models.Earning) error {
	return r.db.WithContext(ctx).Create(earning).Error
}

// GetByID 根据 ID 获取收益记录
func (r *EarningRepository) GetByID(ctx context.Context, id int64) (*models.Earning, error) {
	var earning models.Earning
	err := r.db.WithContext(ctx).First(&earning, id).Error
	if err != nil {
		return nil, err
	}
	return &earning, nil
}

// ExistsCommissionByPackage 套餐是否已有佣金记录（幂等检查）
// 只看佣金类收益，不含 ROI 记录。
func (r *EarningRepository) ExistsCommissionByPackage(ctx context.Context, packageID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Earning{}).
		Where("package_id = ? AND kind IN ?", packageID,
			[]string{models.EarningKindDirectReferral, models.EarningKindLevelIncome}).
		Count(&count).Error
	return count > 0, err
}

// GetUnsettledByPackage 获取套餐下待结算的佣金收益
// PAID 为非终态，结算器按此拉取；终态行不会被重复处理。
func (r *EarningRepository) GetUnsettledByPackage(ctx context.Context, packageID int64) ([]*models.Earning, error) {
	var earnings []*models.Earning
	err := r.db.WithContext(ctx).
		Where("package_id = ? AND status = ?", packageID, models.EarningStatusPaid).
		Where("kind IN ?", []string{models.EarningKindDirectReferral, models.EarningKindLevelIncome}).
		Order("level ASC").
		Find(&earnings).Error
	return earnings, err
}

// GetCommissionsByPackage 获取套餐下全部佣金收益
func (r *EarningRepository) GetCommissionsByPackage(ctx context.Context, packageID int64) ([]*models.Earning, error) {
	var earnings []*models.Earning
	err := r.db.WithContext(ctx).
		Where("package_id = ? AND kind IN ?", packageID,
			[]string{models.EarningKindDirectReferral, models.EarningKindLevelIncome}).
		Order("level ASC").
		Find(&earnings).Error
	return earnings, err
}

// UpdateStatus 更新收益状态
func (r *EarningRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Earning{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SumCommissionByPackage 统计套餐下未失败的佣金总额
func (r *EarningRepository) SumCommissionByPackage(ctx context.Context, packageID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Earning{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("package_id = ? AND status <> ?", packageID, models.EarningStatusFailed).
		Where("kind IN ?", []string{models.EarningKindDirectReferral, models.EarningKindLevelIncome}).
		Scan(&sum).Error
	return sum, err
}

// SumTotalCommissionByPackage 统计套餐下全部佣金行总额（含失败行）
func (r *EarningRepository) SumTotalCommissionByPackage(ctx context.Context, packageID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Earning{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("package_id = ? AND kind IN ?", packageID,
			[]string{models.EarningKindDirectReferral, models.EarningKindLevelIncome}).
		Scan(&sum).Error
	return sum, err
}

// SumSettledCommissionByPackage 统计套餐下已结清的佣金总额
func (r *EarningRepository) SumSettledCommissionByPackage(ctx context.Context, packageID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Earning{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("package_id = ? AND status IN ?", packageID,
			[]string{models.EarningStatusPaidOffchain, models.EarningStatusPaidOnchain}).
		Where("kind IN ?", []string{models.EarningKindDirectReferral, models.EarningKindLevelIncome}).
		Scan(&sum).Error
	return sum, err
}

// SumEarnedByUser 统计用户全部未失败收益（ROI + 佣金）
func (r *EarningRepository) SumEarnedByUser(ctx context.Context, userID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Earning{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND status <> ?", userID, models.EarningStatusFailed).
		Scan(&sum).Error
	return sum, err
}

// GetByUserID 获取用户的收益列表
func (r *EarningRepository) GetByUserID(ctx context.Context, userID int64, offset, limit int) ([]*models.Earning, int64, error) {
	var earnings []*models.Earning
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Earning{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&earnings).Error; err != nil {
		return nil, 0, err
	}

	return earnings, total, nil
}

// ListDistributedPackageIDs 获取已执行过分佣的套餐 ID（审计用）
func (r *EarningRepository) ListDistributedPackageIDs(ctx context.Context, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.Earning{}).
		Distinct("package_id").
		Where("kind IN ?", []string{models.EarningKindDirectReferral, models.EarningKindLevelIncome}).
		Order("package_id DESC").
		Limit(limit).
		Pluck("package_id", &ids).Error
	return ids, err
}
