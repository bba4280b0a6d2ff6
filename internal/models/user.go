// Package models 定义数据模型
package models

import (
	"time"
)

// User 用户模型
// 推荐码在注册时生成且不可变更，referrer_code 记录注册时填写的推荐人推荐码，
// 不是外键，需要按推荐码反查上级用户。
type User struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Nickname      string    `gorm:"type:varchar(50);not null;default:''" json:"nickname"`
	ReferralCode  string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	ReferrerCode  *string   `gorm:"type:varchar(20);index" json:"referrer_code,omitempty"`
	WalletAddress string    `gorm:"type:varchar(128);not null;default:''" json:"wallet_address"`
	Network       string    `gorm:"type:varchar(20);not null;default:'bep20'" json:"network"`
	TotpSecret    *string   `gorm:"type:varchar(64)" json:"-"`
	Status        int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// Network 支持的链网络
const (
	NetworkBEP20 = "bep20" // BSC
	NetworkERC20 = "erc20" // Ethereum
	NetworkTRC20 = "trc20" // Tron
)
