package chain

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient 测试与链下模式用的内存客户端
// 默认所有转账成功并返回可预测的哈希，可注入失败规则。
type MockClient struct {
	mu        sync.Mutex
	seq       int
	transfers []MockTransfer

	// FailDestinations 命中的目标地址转账失败
	FailDestinations map[string]bool
	// Deposits 预置的充值记录，按哈希查询
	Deposits map[string]*DepositInfo
}

// MockTransfer 已记录的转账
type MockTransfer struct {
	Destination string
	Amount      float64
	Network     string
	TxHash      string
}

var _ Client = (*MockClient)(nil)

// NewMockClient 创建内存客户端
func NewMockClient() *MockClient {
	return &MockClient{
		FailDestinations: make(map[string]bool),
		Deposits:         make(map[string]*DepositInfo),
	}
}

// SendFunds 记录转账并返回模拟哈希
func (c *MockClient) SendFunds(ctx context.Context, destination string, amount float64, network string) (*TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validDestination(destination, network) {
		return nil, ErrInvalidAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailDestinations[destination] {
		return nil, ErrTransferFailed
	}

	c.seq++
	hash := fmt.Sprintf("0xmock%08d%d", c.seq, time.Now().UnixNano()%1000)
	c.transfers = append(c.transfers, MockTransfer{
		Destination: destination,
		Amount:      amount,
		Network:     network,
		TxHash:      hash,
	})
	return &TransferResult{TxHash: hash, Network: network}, nil
}

// VerifyDeposit 查询预置的充值记录
func (c *MockClient) VerifyDeposit(ctx context.Context, txHash, network string) (*DepositInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.Deposits[txHash]
	if !ok {
		return nil, ErrDepositNotFound
	}
	return info, nil
}

// Transfers 返回已记录的转账
func (c *MockClient) Transfers() []MockTransfer {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]MockTransfer, len(c.transfers))
	copy(out, c.transfers)
	return out
}
