package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

// PackageRepository 投资套餐仓储
type PackageRepository struct {
	db *gorm.DB
}

// NewPackageRepository 创建套餐仓储
func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// Create 创建套餐
func (r *PackageRepository) Create(ctx context.Context, pkg *models.Package) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

// GetByID 根据 ID 获取套餐，不存在时返回 nil
func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*models.Package, error) {
	var pkg models.Package
	err := r.db.WithContext(ctx).First(&pkg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetByUserID 获取用户的套餐列表
func (r *PackageRepository) GetByUserID(ctx context.Context, userID int64, offset, limit int) ([]*models.Package, int64, error) {
	var pkgs []*models.Package
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Package{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&pkgs).Error; err != nil {
		return nil, 0, err
	}

	return pkgs, total, nil
}

// Activate 存款核验通过后激活套餐
// 条件更新 PENDING -> ACTIVE，返回是否真正生效，避免重复确认。
func (r *PackageRepository) Activate(ctx context.Context, id int64, txHash string, investedAt, expiryAt, nextRoiAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Package{}).
		Where("id = ? AND status = ?", id, models.PackageStatusPending).
		Updates(map[string]interface{}{
			"status":          models.PackageStatusActive,
			"deposit_tx_hash": txHash,
			"investment_date": investedAt,
			"expiry_date":     expiryAt,
			"next_roi_date":   nextRoiAt,
		})
	return result.RowsAffected > 0, result.Error
}

// Reject 拒绝套餐
func (r *PackageRepository) Reject(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Package{}).
		Where("id = ? AND status = ?", id, models.PackageStatusPending).
		Update("status", models.PackageStatusRejected)
	return result.RowsAffected > 0, result.Error
}

// GetDueForRoi 获取到期应发收益的套餐
func (r *PackageRepository) GetDueForRoi(ctx context.Context, now time.Time, limit int) ([]*models.Package, error) {
	var pkgs []*models.Package
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PackageStatusActive).
		Where("next_roi_date IS NOT NULL AND next_roi_date <= ?", now).
		Where("expiry_date IS NOT NULL AND expiry_date > ?", now).
		Where("roi_paid_count < ?", models.MaxRoiInstallments).
		Order("next_roi_date ASC").
		Limit(limit).
		Find(&pkgs).Error
	return pkgs, err
}

// AdvanceRoi 推进一期收益
// 乐观条件：status 仍为 ACTIVE、期数未达上限且与读取时一致，防止并发双发。
func (r *PackageRepository) AdvanceRoi(tx *gorm.DB, pkg *models.Package, payout float64, nextDue time.Time) (bool, error) {
	result := tx.Model(&models.Package{}).
		Where("id = ? AND status = ? AND roi_paid_count = ? AND roi_paid_count < ?",
			pkg.ID, models.PackageStatusActive, pkg.RoiPaidCount, models.MaxRoiInstallments).
		Updates(map[string]interface{}{
			"next_roi_date":  nextDue,
			"roi_paid_count": gorm.Expr("roi_paid_count + 1"),
			"total_roi_paid": gorm.Expr("total_roi_paid + ?", payout),
		})
	return result.RowsAffected > 0, result.Error
}

// GetExpiredActive 获取已过期但仍为 ACTIVE 的套餐
func (r *PackageRepository) GetExpiredActive(ctx context.Context, now time.Time, limit int) ([]*models.Package, error) {
	var pkgs []*models.Package
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PackageStatusActive).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", now).
		Limit(limit).
		Find(&pkgs).Error
	return pkgs, err
}

// MarkExpired 条件更新 ACTIVE -> EXPIRED
// 只有真正翻转状态的那次调用返回 true，本金返还以此为准。
func (r *PackageRepository) MarkExpired(tx *gorm.DB, id int64) (bool, error) {
	result := tx.Model(&models.Package{}).
		Where("id = ? AND status = ?", id, models.PackageStatusActive).
		Update("status", models.PackageStatusExpired)
	return result.RowsAffected > 0, result.Error
}

// SumExpiredPrincipalByUser 统计用户已到期套餐的本金总额
func (r *PackageRepository) SumExpiredPrincipalByUser(ctx context.Context, userID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Package{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND status = ?", userID, models.PackageStatusExpired).
		Scan(&sum).Error
	return sum, err
}

// CountActiveByUser 统计用户生效中的套餐数
func (r *PackageRepository) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Package{}).
		Where("user_id = ? AND status = ?", userID, models.PackageStatusActive).
		Count(&count).Error
	return count, err
}
