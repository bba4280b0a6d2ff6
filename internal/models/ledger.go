package models

import (
	"time"
)

// Earning 收益记录
// 分佣引擎按层级写入，结算器负责把 PAID 状态推进到链上或链下终态，
// 结清后仅 status 可变，金额等字段不可变。
type Earning struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	SourceUserID  int64     `gorm:"not null" json:"source_user_id"`
	PackageID     int64     `gorm:"index;not null" json:"package_id"`
	TransactionID int64     `gorm:"index;not null" json:"transaction_id"`
	Kind          string    `gorm:"type:varchar(20);not null" json:"kind"`
	Level         int       `gorm:"not null;default:0" json:"level"`
	Amount        float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status        string    `gorm:"type:varchar(20);not null;default:'PAID';index" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}

// TableName 表名
func (Earning) TableName() string {
	return "earnings"
}

// EarningKind 收益类别
const (
	EarningKindDirectReferral = "direct_referral" // 一级直推佣金
	EarningKindLevelIncome    = "level_income"    // 2-6 级层级佣金
	EarningKindRoi            = "roi"             // 套餐月度收益
)

// EarningStatus 收益状态
const (
	EarningStatusPaid         = "PAID"          // 已入账，待结算
	EarningStatusPaidOffchain = "PAID_OFFCHAIN" // 链下结清
	EarningStatusPaidOnchain  = "PAID_ONCHAIN"  // 链上结清
	EarningStatusFailed       = "FAILED"        // 结算失败
)

// Transaction 资金流水
// 每笔收益、ROI 发放、本金返还都有一条配套流水，链上结算后回填哈希。
// user_id 为空表示平台侧流水（如回收流失佣金）。
type Transaction struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64    `gorm:"index" json:"user_id,omitempty"`
	PackageID *int64    `gorm:"index" json:"package_id,omitempty"`
	Type      string    `gorm:"type:varchar(30);not null;index" json:"type"`
	Amount    float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status    string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	TxHash    *string   `gorm:"type:varchar(128)" json:"tx_hash,omitempty"`
	Network   string    `gorm:"type:varchar(20);not null;default:''" json:"network"`
	Remark    string    `gorm:"type:varchar(255);not null;default:''" json:"remark"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionType 流水类型
const (
	TransactionTypeRoiPayment      = "ROI_PAYMENT"      // 月度收益发放
	TransactionTypeReferralBonus   = "REFERRAL_BONUS"   // 直推佣金
	TransactionTypeLevelIncome     = "LEVEL_INCOME"     // 层级佣金
	TransactionTypeCapitalReturn   = "CAPITAL_RETURN"   // 到期本金返还
	TransactionTypePlatformCollect = "PLATFORM_COLLECT" // 平台回收流失佣金
	TransactionTypeWithdrawal      = "WITHDRAWAL"       // 提现打款
)

// TransactionStatus 流水状态
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

// LostCommission 流失佣金
// 某级上线不存在或无生效 Bot 时，该级佣金归平台，写入后不可修改，
// 用于对账「理论佣金总额 = 实发 + 流失」。
type LostCommission struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PackageID int64     `gorm:"index;not null" json:"package_id"`
	UserID    *int64    `gorm:"index" json:"user_id,omitempty"`
	Level     int       `gorm:"not null" json:"level"`
	Amount    float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Reason    string    `gorm:"type:varchar(30);not null;default:'no_bot'" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (LostCommission) TableName() string {
	return "lost_commissions"
}

// LostReason 佣金流失原因
const (
	LostReasonNoBot            = "no_bot"            // 上线无生效订阅
	LostReasonNoRecipient      = "no_recipient"      // 该级无上线
	LostReasonSettlementFailed = "settlement_failed" // 链上结算失败后由审计补记
)
