// Package user 用户账号服务
package user

import (
	"context"

	"github.com/pquerna/otp/totp"

	apperrors "github.com/yunhetech/crypto-invest-backend/internal/common/errors"
	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
)

// UserService 用户账号服务
type UserService struct {
	userRepo *repository.UserRepository
	issuer   string
}

// NewUserService 创建用户账号服务
func NewUserService(userRepo *repository.UserRepository, issuer string) *UserService {
	if issuer == "" {
		issuer = "crypto-invest"
	}
	return &UserService{userRepo: userRepo, issuer: issuer}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Nickname     string `json:"nickname"`
	ReferrerCode string `json:"referrer_code"`
}

// Register 注册新用户
// 推荐码注册时生成且终身不变；填写的推荐人推荐码必须真实存在，
// 留空表示无推荐人。
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrAlreadyExists.WithMessage("邮箱已注册")
	}

	var referrerCode *string
	if req.ReferrerCode != "" {
		referrer, err := s.userRepo.GetByReferralCode(ctx, req.ReferrerCode)
		if err != nil {
			return nil, err
		}
		if referrer == nil {
			return nil, apperrors.ErrReferralCodeInvalid
		}
		referrerCode = &req.ReferrerCode
	}

	code, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        req.Email,
		Nickname:     req.Nickname,
		ReferralCode: code,
		ReferrerCode: referrerCode,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// uniqueReferralCode 生成未占用的推荐码
func (s *UserService) uniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		code := utils.GenerateReferralCode()
		exists, err := s.userRepo.ExistsByReferralCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperrors.ErrInternalError.WithMessage("推荐码生成失败")
}

// BindWallet 绑定收款钱包
func (s *UserService) BindWallet(ctx context.Context, userID int64, address, network string) error {
	if !utils.SupportedNetwork(network) {
		return apperrors.ErrNetworkUnsupported
	}
	if !utils.ValidateAddress(address, network) {
		return apperrors.ErrAddressInvalid
	}
	return s.userRepo.UpdateWallet(ctx, userID, address, network)
}

// EnrollTotp 生成动态口令密钥
// 返回密钥与扫码 URL，用户用验证器扫码后调用 ConfirmTotp 确认绑定。
func (s *UserService) EnrollTotp(ctx context.Context, userID int64) (secret, url string, err error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", apperrors.ErrUserNotFound
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// ConfirmTotp 用一次验证码确认绑定动态口令
func (s *UserService) ConfirmTotp(ctx context.Context, userID int64, secret, code string) error {
	if !totp.Validate(code, secret) {
		return apperrors.ErrTotpInvalid
	}
	return s.userRepo.UpdateTotpSecret(ctx, userID, &secret)
}

// GetByID 查询用户
func (s *UserService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}
