package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 12.35, Round2(12.346))
	assert.Equal(t, 12.34, Round2(12.344))
	assert.Equal(t, 0.0, Round2(0.004))
	assert.Equal(t, 100.0, Round2(100))

	// 手续费拆分后两边相加必须还原原金额
	amount := 100.0
	fee := Round2(amount * 0.10)
	net := amount - fee
	assert.Equal(t, amount, fee+net)
}

func TestHasTwoDecimalsAtMost(t *testing.T) {
	assert.True(t, HasTwoDecimalsAtMost(100))
	assert.True(t, HasTwoDecimalsAtMost(100.5))
	assert.True(t, HasTwoDecimalsAtMost(100.55))
	assert.False(t, HasTwoDecimalsAtMost(100.555))
	assert.False(t, HasTwoDecimalsAtMost(0.001))
}

func TestAmountsEqual(t *testing.T) {
	assert.True(t, AmountsEqual(100.00, 100.001))
	assert.True(t, AmountsEqual(0.1+0.2, 0.3))
	assert.False(t, AmountsEqual(100.00, 100.01))
	assert.False(t, AmountsEqual(100.00, 99.98))
}

func TestGenerateReferralCode(t *testing.T) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateReferralCode()
		assert.Len(t, code, 8)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(charset, c), "非法字符: %c", c)
		}
		seen[code] = true
	}
	// 随机生成不应高频碰撞
	assert.Greater(t, len(seen), 95)
}

func TestGenerateOrderNo(t *testing.T) {
	no := GenerateOrderNo("WD")
	assert.True(t, strings.HasPrefix(no, "WD"))
	assert.Len(t, no, 2+14+8)
	assert.NotEqual(t, no, GenerateOrderNo("WD"))
}

func TestValidateAddress(t *testing.T) {
	evm := "0x1234567890abcdef1234567890abcdef12345678"
	tron := "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8"

	assert.True(t, ValidateAddress(evm, "bep20"))
	assert.True(t, ValidateAddress(evm, "erc20"))
	assert.True(t, ValidateAddress(evm, "BEP20"))
	assert.False(t, ValidateAddress(evm, "trc20"))

	assert.True(t, ValidateAddress(tron, "trc20"))
	assert.False(t, ValidateAddress(tron, "bep20"))

	assert.False(t, ValidateAddress("0x12345", "bep20"))
	assert.False(t, ValidateAddress(evm+"ff", "bep20"))
	assert.False(t, ValidateAddress(evm, "btc"))
}

func TestSupportedNetwork(t *testing.T) {
	assert.True(t, SupportedNetwork("bep20"))
	assert.True(t, SupportedNetwork("ERC20"))
	assert.True(t, SupportedNetwork("trc20"))
	assert.False(t, SupportedNetwork("btc"))
	assert.False(t, SupportedNetwork(""))
}

func TestPagination(t *testing.T) {
	p := &Pagination{}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.GetOffset())

	p = &Pagination{Page: 3, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 200, p.GetOffset())
}
