// Package notify 提供站内通知发送抽象
package notify

import (
	"context"

	"go.uber.org/zap"
)

// 通知模板
const (
	TemplateCommissionPaid = "commission_paid" // 佣金到账
	TemplateRoiPaid        = "roi_paid"        // 月度收益到账
	TemplateCapitalReturn  = "capital_return"  // 本金返还
	TemplateWithdrawResult = "withdraw_result" // 提现审核结果
)

// Sender 通知发送器
// 发送即忘：失败由实现方自行记录，绝不影响调用方的账务事务。
type Sender interface {
	Send(ctx context.Context, userID int64, template string, data map[string]interface{})
}

// LogSender 仅写日志的发送器，生产前的占位实现
type LogSender struct {
	log *zap.Logger
}

// NewLogSender 创建日志发送器
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("notify")}
}

// Send 记录通知内容
func (s *LogSender) Send(ctx context.Context, userID int64, template string, data map[string]interface{}) {
	s.log.Info("发送通知",
		zap.Int64("user_id", userID),
		zap.String("template", template),
		zap.Any("data", data))
}

// NopSender 空实现，测试用
type NopSender struct{}

// Send 什么都不做
func (NopSender) Send(ctx context.Context, userID int64, template string, data map[string]interface{}) {
}
