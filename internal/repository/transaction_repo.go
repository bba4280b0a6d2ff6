package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

// TransactionRepository 资金流水仓储
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建资金流水仓储
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create 创建流水
func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// GetByID 根据 ID 获取流水
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).First(&txn, id).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// SetHashCompleted 结算成功，写入链上哈希并置为完成
func (r *TransactionRepository) SetHashCompleted(ctx context.Context, id int64, txHash string) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tx_hash": txHash,
			"status":  models.TransactionStatusCompleted,
		}).Error
}

// MarkFailed 结算失败
func (r *TransactionRepository) MarkFailed(ctx context.Context, id int64, remark string) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": models.TransactionStatusFailed,
			"remark": remark,
		}).Error
}

// ExistsByPackageAndType 套餐下是否已有指定类型的流水（幂等检查）
func (r *TransactionRepository) ExistsByPackageAndType(ctx context.Context, packageID int64, txnType string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("package_id = ? AND type = ?", packageID, txnType).
		Count(&count).Error
	return count > 0, err
}

// SumCapitalReturnByUser 统计用户已返还的本金总额
func (r *TransactionRepository) SumCapitalReturnByUser(ctx context.Context, userID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND status <> ?",
			userID, models.TransactionTypeCapitalReturn, models.TransactionStatusFailed).
		Scan(&sum).Error
	return sum, err
}

// GetByUserID 获取用户的流水列表
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID int64, txnType string, offset, limit int) ([]*models.Transaction, int64, error) {
	var txns []*models.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if txnType != "" {
		query = query.Where("type = ?", txnType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}
