// Package utils 提供通用工具函数
package utils

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Round2 金额保留两位小数
// 所有账务金额只在落库前做一次取整，保证 fee + net == amount。
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// HasTwoDecimalsAtMost 校验金额最多两位小数
func HasTwoDecimalsAtMost(amount float64) bool {
	scaled := amount * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

// AmountsEqual 金额比较，容差一分钱
func AmountsEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

// GenerateReferralCode 生成 8 位推荐码
// 去掉易混淆字符，注册时生成后不再变更。
func GenerateReferralCode() string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	raw := uuid.New()
	code := make([]byte, 8)
	for i := range code {
		code[i] = charset[int(raw[i])%len(charset)]
	}
	return string(code)
}

// GenerateOrderNo 生成业务单号
// 格式: 前缀 + 年月日时分秒 + uuid 片段
func GenerateOrderNo(prefix string) string {
	return fmt.Sprintf("%s%s%s",
		prefix,
		time.Now().Format("20060102150405"),
		strings.ToUpper(uuid.NewString()[:8]),
	)
}

var (
	evmAddressRe  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	tronAddressRe = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
)

// ValidateAddress 按网络校验钱包地址格式
func ValidateAddress(address, network string) bool {
	switch strings.ToLower(network) {
	case "bep20", "erc20":
		return evmAddressRe.MatchString(address)
	case "trc20":
		return tronAddressRe.MatchString(address)
	default:
		return false
	}
}

// SupportedNetwork 判断网络是否受支持
func SupportedNetwork(network string) bool {
	switch strings.ToLower(network) {
	case "bep20", "erc20", "trc20":
		return true
	default:
		return false
	}
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr 返回 int64 指针
func Int64Ptr(i int64) *int64 {
	return &i
}

// TimePtr 返回时间指针
func TimePtr(t time.Time) *time.Time {
	return &t
}

// SafeString 安全获取字符串指针的值
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Pagination 分页参数
type Pagination struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Normalize 规范化分页参数
func (p *Pagination) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// GetOffset 获取偏移量
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}
