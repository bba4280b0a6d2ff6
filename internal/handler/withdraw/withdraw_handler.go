// Package withdraw 提供提现相关的 HTTP Handler
package withdraw

import (
	"github.com/gin-gonic/gin"

	"github.com/yunhetech/crypto-invest-backend/internal/common/handler"
	"github.com/yunhetech/crypto-invest-backend/internal/common/response"
	withdrawService "github.com/yunhetech/crypto-invest-backend/internal/service/withdraw"
)

// Handler 提现处理器
type Handler struct {
	withdrawService *withdrawService.WithdrawService
}

// NewHandler 创建提现处理器
func NewHandler(withdrawSvc *withdrawService.WithdrawService) *Handler {
	return &Handler{withdrawService: withdrawSvc}
}

// GetAvailable 查询可提余额
// @Summary 查询各类别可提余额
// @Tags 提现
// @Produce json
// @Router /api/v1/withdrawals/available [get]
func (h *Handler) GetAvailable(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	avail, err := h.withdrawService.ComputeAvailable(c.Request.Context(), userID)
	handler.MustSucceed(c, err, avail)
}

// ApplyRequest 提现申请请求
type ApplyRequest struct {
	Type     string  `json:"type" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Address  string  `json:"address" binding:"required"`
	Network  string  `json:"network" binding:"required"`
	TotpCode string  `json:"totp_code"`
}

// Apply 提交提现申请
// @Summary 提交提现申请
// @Tags 提现
// @Accept json
// @Produce json
// @Router /api/v1/withdrawals [post]
func (h *Handler) Apply(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	w, err := h.withdrawService.Apply(c.Request.Context(), &withdrawService.ApplyRequest{
		UserID:   userID,
		Type:     req.Type,
		Amount:   req.Amount,
		Address:  req.Address,
		Network:  req.Network,
		TotpCode: req.TotpCode,
	})
	handler.MustSucceed(c, err, w)
}

// List 查询我的提现记录
// @Summary 查询我的提现记录
// @Tags 提现
// @Produce json
// @Router /api/v1/withdrawals [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	status := c.Query("status")
	p := handler.BindPagination(c)
	list, total, err := h.withdrawService.List(c.Request.Context(), userID, status, &p)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}
