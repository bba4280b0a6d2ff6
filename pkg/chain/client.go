// Package chain 提供链上转账客户端封装
package chain

import (
	"context"
	"errors"
)

// 链上操作错误
var (
	ErrInvalidAddress  = errors.New("目标地址格式错误")
	ErrInvalidAmount   = errors.New("转账金额必须为正数")
	ErrTransferFailed  = errors.New("链上转账失败")
	ErrTransferTimeout = errors.New("链上转账超时")
	ErrDepositNotFound = errors.New("未找到对应的入账交易")
)

// TransferResult 转账结果
type TransferResult struct {
	TxHash  string `json:"tx_hash"`
	Network string `json:"network"`
}

// DepositInfo 入账交易信息
type DepositInfo struct {
	TxHash        string  `json:"tx_hash"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Amount        float64 `json:"amount"`
	Network       string  `json:"network"`
	Confirmations int     `json:"confirmations"`
}

// Client 链上客户端
// SendFunds 发起转账并返回交易哈希；VerifyDeposit 核验用户申报的充值哈希。
// 调用方需要设置超时，超时视为本轮失败，不在同一轮内重试。
type Client interface {
	SendFunds(ctx context.Context, destination string, amount float64, network string) (*TransferResult, error)
	VerifyDeposit(ctx context.Context, txHash, network string) (*DepositInfo, error)
}
