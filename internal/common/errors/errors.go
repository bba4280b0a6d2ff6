// Package errors 定义业务错误码和错误处理
package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithMessagef 格式化错误消息
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown       = New(1000, "未知错误")
	ErrInvalidParams = New(1001, "参数错误")
	ErrNotFound      = New(1002, "资源不存在")
	ErrAlreadyExists = New(1003, "资源已存在")
	ErrDatabaseError = New(1004, "数据库错误")
	ErrCacheError    = New(1005, "缓存错误")
	ErrInternalError = New(1006, "内部错误")
)

// 用户错误码 (2000-2499)
var (
	ErrUserNotFound        = New(2000, "用户不存在")
	ErrReferralCodeInvalid = New(2001, "推荐码无效")
	ErrUserDisabled        = New(2002, "账号已禁用")
)

// 套餐/订阅错误码 (2500-2999)
var (
	ErrPackageNotFound      = New(2500, "投资套餐不存在")
	ErrPackageStatusError   = New(2501, "套餐状态异常")
	ErrPackageAmountInvalid = New(2502, "投资金额不在任何套餐区间内")
	ErrBotNotFound          = New(2503, "订阅不存在")
	ErrBotStatusError       = New(2504, "订阅状态异常")
	ErrDepositNotVerified   = New(2505, "存款核验未通过")
)

// 校验错误码 (3000-3099)
// 提交内容不合法，不产生任何账务写入
var (
	ErrAmountTooSmall     = New(3000, "提现金额低于最低限额")
	ErrAmountTooLarge     = New(3001, "提现金额超过单笔上限")
	ErrAmountPrecision    = New(3002, "金额最多保留两位小数")
	ErrAddressInvalid     = New(3003, "提现地址格式不正确")
	ErrNetworkUnsupported = New(3004, "不支持的链网络")
	ErrWithdrawTypeError  = New(3005, "无效的提现类别")
)

// 资格错误码 (3100-3199)
// 条件不满足，不产生任何账务写入
var (
	ErrBalanceInsufficient   = New(3100, "可提现余额不足")
	ErrTotpRequired          = New(3101, "需要动态验证码")
	ErrTotpInvalid           = New(3102, "动态验证码错误")
	ErrWithdrawProcessed     = New(3103, "该提现申请已处理")
	ErrWithdrawPendingExists = New(3104, "已有待审核的提现申请")
	ErrWithdrawCooldown      = New(3105, "提现冷却期未结束")
)

// 并发冲突错误码 (3200-3299)
// 乐观条件未命中，另一写入方已抢先处理
var (
	ErrConcurrencyConflict = New(3200, "数据已被其他操作修改，请重试")
)

// 结算错误码 (3300-3399)
// 记录在对应行的状态上，不跨行扩散
var (
	ErrChainTransferFailed = New(3300, "链上转账失败")
	ErrChainTimeout        = New(3301, "链上操作超时")
	ErrChainInvalidAddress = New(3302, "链上地址无效")
)

// 不变量错误码 (3400-3499)
// 严重告警，需要运营介入
var (
	ErrInvariantViolation = New(3400, "佣金总额对账不平")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
