package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

// WithdrawalRepository 提现仓储
type WithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建提现仓储
func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create 创建提现申请
func (r *WithdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) error {
	return r.db.WithContext(ctx).Create(w).Error
}

// GetByID 根据 ID 获取提现记录
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByNo 根据提现单号获取记录
func (r *WithdrawalRepository) GetByNo(ctx context.Context, no string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).Where("withdrawal_no = ?", no).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CountPendingByUser 统计用户待审核提现数量
func (r *WithdrawalRepository) CountPendingByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("user_id = ? AND status = ?", userID, models.WithdrawalStatusPending).
		Count(&count).Error
	return count, err
}

// LastActiveCreatedAt 用户最近一次未被拒绝申请的提交时间
// 没有记录时返回 nil，冷却期计算用。
func (r *WithdrawalRepository) LastActiveCreatedAt(ctx context.Context, userID int64) (*time.Time, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, models.WithdrawalStatusRejected).
		Order("created_at DESC").
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w.CreatedAt, nil
}

// SumActiveRequestedByUser 统计用户未被拒绝的提现申请额
// 待审核、已批准、已完成的申请额都占用余额。
func (r *WithdrawalRepository) SumActiveRequestedByUser(ctx context.Context, userID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Select("COALESCE(SUM(requested_amount), 0)").
		Where("user_id = ? AND status <> ?", userID, models.WithdrawalStatusRejected).
		Scan(&sum).Error
	return sum, err
}

// SumActiveRequestedByUserAndTypes 按类别统计用户未被拒绝的提现申请额
func (r *WithdrawalRepository) SumActiveRequestedByUserAndTypes(ctx context.Context, userID int64, types []string) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Select("COALESCE(SUM(requested_amount), 0)").
		Where("user_id = ? AND status <> ? AND type IN ?",
			userID, models.WithdrawalStatusRejected, types).
		Scan(&sum).Error
	return sum, err
}

// Approve 审核通过（条件更新，重复审核返回 false）
func (r *WithdrawalRepository) Approve(ctx context.Context, id int64) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, models.WithdrawalStatusPending).
		Updates(map[string]interface{}{
			"status":       models.WithdrawalStatusApproved,
			"processed_at": now,
		})
	return result.RowsAffected > 0, result.Error
}

// Reject 审核拒绝（条件更新，重复审核返回 false）
func (r *WithdrawalRepository) Reject(ctx context.Context, id int64, reason string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, models.WithdrawalStatusPending).
		Updates(map[string]interface{}{
			"status":        models.WithdrawalStatusRejected,
			"reject_reason": reason,
			"processed_at":  now,
		})
	return result.RowsAffected > 0, result.Error
}

// Complete 打款完成，回填链上哈希（仅限已批准状态）
func (r *WithdrawalRepository) Complete(ctx context.Context, id int64, txHash string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, models.WithdrawalStatusApproved).
		Updates(map[string]interface{}{
			"status":  models.WithdrawalStatusCompleted,
			"tx_hash": txHash,
		})
	return result.RowsAffected > 0, result.Error
}

// List 按条件分页查询提现记录
func (r *WithdrawalRepository) List(ctx context.Context, userID int64, status string, offset, limit int) ([]*models.Withdrawal, int64, error) {
	var list []*models.Withdrawal
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}
