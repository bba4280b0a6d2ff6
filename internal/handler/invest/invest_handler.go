// Package invest 提供投资套餐与订阅相关的 HTTP Handler
package invest

import (
	"github.com/gin-gonic/gin"

	"github.com/yunhetech/crypto-invest-backend/internal/common/handler"
	"github.com/yunhetech/crypto-invest-backend/internal/common/response"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	investService "github.com/yunhetech/crypto-invest-backend/internal/service/invest"
)

// Handler 投资处理器
type Handler struct {
	investService *investService.InvestService
	packageRepo   *repository.PackageRepository
	botRepo       *repository.BotRepository
}

// NewHandler 创建投资处理器
func NewHandler(
	investSvc *investService.InvestService,
	packageRepo *repository.PackageRepository,
	botRepo *repository.BotRepository,
) *Handler {
	return &Handler{
		investService: investSvc,
		packageRepo:   packageRepo,
		botRepo:       botRepo,
	}
}

// ListTiers 查询档位表
// @Summary 查询套餐档位表
// @Tags 投资
// @Produce json
// @Router /api/v1/tiers [get]
func (h *Handler) ListTiers(c *gin.Context) {
	response.Success(c, investService.Tiers())
}

// CreatePackageRequest 创建套餐请求
type CreatePackageRequest struct {
	Amount  float64 `json:"amount" binding:"required"`
	Network string  `json:"network" binding:"required"`
}

// CreatePackage 创建套餐
// @Summary 创建投资套餐
// @Tags 投资
// @Accept json
// @Produce json
// @Router /api/v1/packages [post]
func (h *Handler) CreatePackage(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	pkg, err := h.investService.CreatePackage(c.Request.Context(), &investService.CreatePackageRequest{
		UserID:  userID,
		Amount:  req.Amount,
		Network: req.Network,
	})
	handler.MustSucceed(c, err, pkg)
}

// ConfirmDepositRequest 存款确认请求
type ConfirmDepositRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

// ConfirmDeposit 存款确认
// @Summary 套餐存款确认
// @Tags 投资
// @Accept json
// @Produce json
// @Router /api/v1/packages/{id}/deposit [post]
func (h *Handler) ConfirmDeposit(c *gin.Context) {
	if _, ok := handler.RequireUserID(c); !ok {
		return
	}
	packageID, ok := handler.ParseID(c, "套餐")
	if !ok {
		return
	}

	var req ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	pkg, err := h.investService.ConfirmDeposit(c.Request.Context(), packageID, req.TxHash)
	handler.MustSucceed(c, err, pkg)
}

// ListPackages 查询我的套餐
// @Summary 查询我的套餐
// @Tags 投资
// @Produce json
// @Router /api/v1/packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	pkgs, total, err := h.packageRepo.GetByUserID(c.Request.Context(), userID, p.GetOffset(), p.PageSize)
	handler.MustSucceedPage(c, err, pkgs, total, p.Page, p.PageSize)
}

// CreateBotRequest 创建订阅请求
type CreateBotRequest struct {
	Tier    string  `json:"tier" binding:"required"`
	Amount  float64 `json:"amount" binding:"required"`
	Network string  `json:"network" binding:"required"`
}

// CreateBot 创建订阅
// @Summary 创建 Bot 订阅
// @Tags 投资
// @Accept json
// @Produce json
// @Router /api/v1/bots [post]
func (h *Handler) CreateBot(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req CreateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	bot, err := h.investService.CreateBot(c.Request.Context(), &investService.CreateBotRequest{
		UserID:  userID,
		Tier:    req.Tier,
		Amount:  req.Amount,
		Network: req.Network,
	})
	handler.MustSucceed(c, err, bot)
}

// ConfirmBotDeposit 订阅存款确认
// @Summary 订阅存款确认
// @Tags 投资
// @Accept json
// @Produce json
// @Router /api/v1/bots/{id}/deposit [post]
func (h *Handler) ConfirmBotDeposit(c *gin.Context) {
	if _, ok := handler.RequireUserID(c); !ok {
		return
	}
	botID, ok := handler.ParseID(c, "订阅")
	if !ok {
		return
	}

	var req ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	bot, err := h.investService.ConfirmBotDeposit(c.Request.Context(), botID, req.TxHash)
	handler.MustSucceed(c, err, bot)
}

// ListBots 查询我的订阅
// @Summary 查询我的订阅
// @Tags 投资
// @Produce json
// @Router /api/v1/bots [get]
func (h *Handler) ListBots(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	bots, err := h.botRepo.GetByUserID(c.Request.Context(), userID)
	handler.MustSucceed(c, err, bots)
}
