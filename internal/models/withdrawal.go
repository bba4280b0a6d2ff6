package models

import (
	"time"
)

// Withdrawal 提现记录
// amount 为扣除手续费后的净额（实际打款额），requested_amount 为用户申请额。
// 目标地址加密存储。
type Withdrawal struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	WithdrawalNo     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"withdrawal_no"`
	UserID           int64      `gorm:"index;not null" json:"user_id"`
	Type             string     `gorm:"type:varchar(20);not null" json:"type"`
	RequestedAmount  float64    `gorm:"type:decimal(15,2);not null" json:"requested_amount"`
	Fee              float64    `gorm:"type:decimal(15,2);not null" json:"fee"`
	Amount           float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	AddressEncrypted string     `gorm:"type:text;not null" json:"-"`
	Network          string     `gorm:"type:varchar(20);not null" json:"network"`
	Status           string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	TxHash           *string    `gorm:"type:varchar(128)" json:"tx_hash,omitempty"`
	RejectReason     *string    `gorm:"type:varchar(255)" json:"reject_reason,omitempty"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Withdrawal) TableName() string {
	return "withdrawals"
}

// WithdrawalType 提现类别
const (
	WithdrawalTypeRoiOnly    = "ROI_ONLY"    // 仅收益（ROI + 佣金）
	WithdrawalTypeCapital    = "CAPITAL"     // 仅到期本金
	WithdrawalTypeFullAmount = "FULL_AMOUNT" // 收益 + 本金
)

// WithdrawalStatus 提现状态
const (
	WithdrawalStatusPending   = "PENDING"
	WithdrawalStatusApproved  = "APPROVED"
	WithdrawalStatusRejected  = "REJECTED"
	WithdrawalStatusCompleted = "COMPLETED"
)
