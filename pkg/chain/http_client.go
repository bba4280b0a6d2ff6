package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/yunhetech/crypto-invest-backend/internal/common/retry"
)

// Config 链上客户端配置
type Config struct {
	BaseURL          string        // 托管网关地址
	APIKey           string        // 网关密钥
	TransferTimeout  time.Duration // 单笔转账超时
	MaxRetries       int           // 转账重试次数（仅对网络类错误）
	MinConfirmations int           // 入账核验要求的确认数
}

// HTTPClient 通过托管网关完成链上转账的客户端
type HTTPClient struct {
	config *Config
	client *http.Client
	policy *retry.Policy
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient 创建链上客户端
func NewHTTPClient(config *Config) *HTTPClient {
	if config.TransferTimeout <= 0 {
		config.TransferTimeout = 15 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.MinConfirmations <= 0 {
		config.MinConfirmations = 12
	}

	return &HTTPClient{
		config: config,
		client: &http.Client{Timeout: config.TransferTimeout},
		policy: &retry.Policy{
			MaxAttempts: config.MaxRetries,
			Backoff:     retry.ExponentialBackoff(500 * time.Millisecond),
			Retryable: func(err error) bool {
				// 业务拒绝不重试，只重试网络层失败
				switch err {
				case ErrInvalidAddress, ErrInvalidAmount, ErrTransferFailed, ErrDepositNotFound:
					return false
				}
				return true
			},
		},
	}
}

var (
	evmAddressPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	tronAddressPattern = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
)

// validDestination 按网络校验目标地址格式
func validDestination(address, network string) bool {
	switch network {
	case "bep20", "erc20":
		return evmAddressPattern.MatchString(address)
	case "trc20":
		return tronAddressPattern.MatchString(address)
	default:
		return false
	}
}

type transferRequest struct {
	Destination string  `json:"destination"`
	Amount      float64 `json:"amount"`
	Network     string  `json:"network"`
}

type transferResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"tx_hash"`
	Message string `json:"message"`
}

// SendFunds 发起链上转账
// 地址或金额非法直接拒绝，不发网络请求；网关业务拒绝不重试。
func (c *HTTPClient) SendFunds(ctx context.Context, destination string, amount float64, network string) (*TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validDestination(destination, network) {
		return nil, ErrInvalidAddress
	}

	var result *TransferResult
	err := c.policy.Do(ctx, func() error {
		resp, err := c.post(ctx, "/v1/transfers", &transferRequest{
			Destination: destination,
			Amount:      amount,
			Network:     network,
		})
		if err != nil {
			return err
		}

		var body transferResponse
		if err := json.Unmarshal(resp, &body); err != nil {
			return fmt.Errorf("解析转账响应失败: %w", err)
		}
		if !body.Success {
			return ErrTransferFailed
		}

		result = &TransferResult{TxHash: body.TxHash, Network: network}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTransferTimeout
		}
		return nil, err
	}

	return result, nil
}

type depositResponse struct {
	Found         bool    `json:"found"`
	TxHash        string  `json:"tx_hash"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Amount        float64 `json:"amount"`
	Confirmations int     `json:"confirmations"`
}

// VerifyDeposit 核验充值交易
func (c *HTTPClient) VerifyDeposit(ctx context.Context, txHash, network string) (*DepositInfo, error) {
	var info *DepositInfo
	err := c.policy.Do(ctx, func() error {
		resp, err := c.post(ctx, "/v1/deposits/verify", map[string]string{
			"tx_hash": txHash,
			"network": network,
		})
		if err != nil {
			return err
		}

		var body depositResponse
		if err := json.Unmarshal(resp, &body); err != nil {
			return fmt.Errorf("解析核验响应失败: %w", err)
		}
		if !body.Found {
			return ErrDepositNotFound
		}

		info = &DepositInfo{
			TxHash:        body.TxHash,
			From:          body.From,
			To:            body.To,
			Amount:        body.Amount,
			Network:       network,
			Confirmations: body.Confirmations,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if info.Confirmations < c.config.MinConfirmations {
		return nil, ErrDepositNotFound
	}
	return info, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("网关返回状态码 %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
