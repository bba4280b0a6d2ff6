package models

import (
	"time"
)

// SystemConfig 系统配置
// 费率、提现上下限等运营可调参数存库，业务逻辑每次操作实时读取，不做进程内缓存。
type SystemConfig struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Group       string    `gorm:"type:varchar(50);not null;column:group;uniqueIndex:idx_config_group_key" json:"group"`
	Key         string    `gorm:"type:varchar(100);not null;column:key;uniqueIndex:idx_config_group_key" json:"key"`
	Value       string    `gorm:"type:text;not null;column:value" json:"value"`
	Type        string    `gorm:"type:varchar(20);not null;default:'string';column:type" json:"type"`
	Description *string   `gorm:"type:varchar(255);column:description" json:"description,omitempty"`
	IsPublic    bool      `gorm:"not null;default:false;column:is_public" json:"is_public"`
	CreatedAt   time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

// TableName 表名
func (SystemConfig) TableName() string {
	return "system_configs"
}

// ConfigValueType 配置值类型
const (
	ConfigTypeString  = "string"
	ConfigTypeNumber  = "number"
	ConfigTypeBoolean = "boolean"
)

// ConfigGroup 配置分组
const (
	ConfigGroupRoi      = "roi"      // 月度收益
	ConfigGroupWithdraw = "withdraw" // 提现
	ConfigGroupChain    = "chain"    // 链上结算
)

// MigrationRecord 迁移执行记录
// 记录内容哈希用于发现已执行迁移被改动（漂移），重复执行时按名称跳过。
type MigrationRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Hash      string    `gorm:"type:varchar(64);not null" json:"hash"`
	Status    string    `gorm:"type:varchar(20);not null;default:'applied'" json:"status"`
	AppliedAt time.Time `gorm:"autoCreateTime" json:"applied_at"`
}

// TableName 表名
func (MigrationRecord) TableName() string {
	return "migration_records"
}

// MigrationStatus 迁移状态
const (
	MigrationStatusApplied = "applied"
	MigrationStatusFailed  = "failed"
	MigrationStatusDrifted = "drifted"
)
