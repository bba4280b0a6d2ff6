package models

import (
	"time"
)

// Package 投资套餐
// 用户充值后创建，存款核验通过后转为 ACTIVE；此后由 ROI 调度器推进
// next_roi_date / roi_paid_count，由到期清扫任务转为 EXPIRED 并返还本金。
type Package struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64      `gorm:"index;not null" json:"user_id"`
	Amount          float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Tier            string     `gorm:"type:varchar(20);not null" json:"tier"`
	RoiPercent      float64    `gorm:"type:decimal(5,2);not null" json:"roi_percent"`
	RoiIntervalHour int        `gorm:"not null;default:720" json:"roi_interval_hour"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Network         string     `gorm:"type:varchar(20);not null" json:"network"`
	DepositTxHash   *string    `gorm:"type:varchar(128)" json:"deposit_tx_hash,omitempty"`
	InvestmentDate  *time.Time `json:"investment_date,omitempty"`
	ExpiryDate      *time.Time `gorm:"index" json:"expiry_date,omitempty"`
	NextRoiDate     *time.Time `gorm:"index" json:"next_roi_date,omitempty"`
	RoiPaidCount    int        `gorm:"not null;default:0" json:"roi_paid_count"`
	TotalRoiPaid    float64    `gorm:"type:decimal(15,2);not null;default:0" json:"total_roi_paid"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Package) TableName() string {
	return "packages"
}

// PackageStatus 套餐状态
const (
	PackageStatusPending  = "PENDING"  // 待核验存款
	PackageStatusActive   = "ACTIVE"   // 生效中
	PackageStatusExpired  = "EXPIRED"  // 已到期
	PackageStatusRejected = "REJECTED" // 已拒绝
)

// MaxRoiInstallments 每个套餐最多发放的月度收益期数
const MaxRoiInstallments = 12

// PackageTermMonths 套餐期限（月）
const PackageTermMonths = 12

// Bot 订阅（收佣资格）
// 上级用户必须持有生效中且未到期的 Bot 才能收取下级购买产生的佣金，
// 资格在分佣瞬间判定，之后 Bot 过期不回溯已发佣金。
type Bot struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64      `gorm:"index;not null" json:"user_id"`
	Tier        string     `gorm:"type:varchar(20);not null" json:"tier"`
	Amount      float64    `gorm:"type:decimal(15,2);not null;default:0" json:"amount"`
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Network     string     `gorm:"type:varchar(20);not null;default:''" json:"network"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	ExpiryDate  *time.Time `gorm:"index" json:"expiry_date,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Bot) TableName() string {
	return "bots"
}

// BotStatus 订阅状态
const (
	BotStatusPending  = "PENDING"
	BotStatusActive   = "ACTIVE"
	BotStatusExpired  = "EXPIRED"
	BotStatusRejected = "REJECTED"
)
