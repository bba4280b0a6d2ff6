// Package database 提供数据库连接和管理功能
package database

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yunhetech/crypto-invest-backend/internal/common/config"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
)

var (
	db      *gorm.DB
	initErr error
	once    sync.Once
)

// Init 初始化数据库连接
// 使用 sync.Once 保证单次初始化，后续调用返回同一实例。
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	once.Do(func() {
		db, initErr = open(cfg)
	})
	return db, initErr
}

// open 建立连接并配置连接池
func open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Duration(cfg.SlowThreshold) * time.Millisecond,
			LogLevel:                  getLogLevel(cfg.LogMode),
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	return db
}

// Close 关闭数据库连接
func Close() error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// getLogLevel 获取日志级别
func getLogLevel(logMode bool) logger.LogLevel {
	if logMode {
		return logger.Info
	}
	return logger.Silent
}

// Migration 一条结构迁移
type Migration struct {
	Name string
	Run  func(tx *gorm.DB) error
	// Content 用于计算内容哈希，检测已执行迁移被改动
	Content string
}

// Migrations 全部迁移，按序执行
func Migrations() []Migration {
	return []Migration{
		{
			Name:    "001_create_ledger_tables",
			Content: "users packages bots earnings transactions lost_commissions withdrawals system_configs",
			Run: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.User{},
					&models.Package{},
					&models.Bot{},
					&models.Earning{},
					&models.Transaction{},
					&models.LostCommission{},
					&models.Withdrawal{},
					&models.SystemConfig{},
				)
			},
		},
	}
}

// Migrate 执行未执行过的迁移，并写入执行记录
// 按名称判重保证重复执行幂等；已执行记录的哈希与当前内容不符时标记漂移并报错。
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&models.MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to migrate record table: %w", err)
	}

	for _, m := range Migrations() {
		hash := contentHash(m.Content)

		var record models.MigrationRecord
		err := conn.Where("name = ?", m.Name).First(&record).Error
		if err == nil {
			if record.Hash != hash {
				conn.Model(&record).Update("status", models.MigrationStatusDrifted)
				return fmt.Errorf("migration %s drifted: recorded hash %s, current %s", m.Name, record.Hash, hash)
			}
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := m.Run(conn); err != nil {
			conn.Create(&models.MigrationRecord{
				Name:   m.Name,
				Hash:   hash,
				Status: models.MigrationStatusFailed,
			})
			return fmt.Errorf("migration %s failed: %w", m.Name, err)
		}

		if err := conn.Create(&models.MigrationRecord{
			Name:   m.Name,
			Hash:   hash,
			Status: models.MigrationStatusApplied,
		}).Error; err != nil {
			return err
		}
	}

	return nil
}

// contentHash 迁移内容哈希
func contentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}
