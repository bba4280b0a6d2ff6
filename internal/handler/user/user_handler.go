// Package user 提供用户账号相关的 HTTP Handler
package user

import (
	"github.com/gin-gonic/gin"

	"github.com/yunhetech/crypto-invest-backend/internal/common/handler"
	"github.com/yunhetech/crypto-invest-backend/internal/common/response"
	userService "github.com/yunhetech/crypto-invest-backend/internal/service/user"
)

// Handler 用户处理器
type Handler struct {
	userService *userService.UserService
}

// NewHandler 创建用户处理器
func NewHandler(userSvc *userService.UserService) *Handler {
	return &Handler{userService: userSvc}
}

// Register 注册
// @Summary 注册新用户
// @Tags 用户
// @Accept json
// @Produce json
// @Router /api/v1/users/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req userService.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	handler.MustSucceed(c, err, user)
}

// GetProfile 查询当前用户
// @Summary 查询当前用户资料
// @Tags 用户
// @Produce json
// @Router /api/v1/users/me [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	handler.MustSucceed(c, err, user)
}

// BindWalletRequest 绑定钱包请求
type BindWalletRequest struct {
	Address string `json:"address" binding:"required"`
	Network string `json:"network" binding:"required"`
}

// BindWallet 绑定收款钱包
// @Summary 绑定收款钱包
// @Tags 用户
// @Accept json
// @Produce json
// @Router /api/v1/users/wallet [post]
func (h *Handler) BindWallet(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req BindWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.userService.BindWallet(c.Request.Context(), userID, req.Address, req.Network)
	handler.MustSucceed(c, err, nil)
}

// EnrollTotp 生成动态口令密钥
// @Summary 生成动态口令密钥
// @Tags 用户
// @Produce json
// @Router /api/v1/users/totp/enroll [post]
func (h *Handler) EnrollTotp(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	secret, url, err := h.userService.EnrollTotp(c.Request.Context(), userID)
	handler.MustSucceed(c, err, gin.H{"secret": secret, "url": url})
}

// ConfirmTotpRequest 确认动态口令请求
type ConfirmTotpRequest struct {
	Secret string `json:"secret" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// ConfirmTotp 确认绑定动态口令
// @Summary 确认绑定动态口令
// @Tags 用户
// @Accept json
// @Produce json
// @Router /api/v1/users/totp/confirm [post]
func (h *Handler) ConfirmTotp(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req ConfirmTotpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.userService.ConfirmTotp(c.Request.Context(), userID, req.Secret, req.Code)
	handler.MustSucceed(c, err, nil)
}
