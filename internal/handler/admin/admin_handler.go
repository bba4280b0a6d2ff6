// Package admin 提供后台管理相关的 HTTP Handler
package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yunhetech/crypto-invest-backend/internal/common/handler"
	"github.com/yunhetech/crypto-invest-backend/internal/common/response"
	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/internal/service/audit"
	"github.com/yunhetech/crypto-invest-backend/internal/service/invest"
	withdrawService "github.com/yunhetech/crypto-invest-backend/internal/service/withdraw"
)

// Handler 后台管理处理器
type Handler struct {
	withdrawService *withdrawService.WithdrawService
	investService   *invest.InvestService
	auditService    *audit.AuditService
	withdrawalRepo  *repository.WithdrawalRepository
	configRepo      *repository.SystemConfigRepository
}

// NewHandler 创建后台管理处理器
func NewHandler(
	withdrawSvc *withdrawService.WithdrawService,
	investSvc *invest.InvestService,
	auditSvc *audit.AuditService,
	withdrawalRepo *repository.WithdrawalRepository,
	configRepo *repository.SystemConfigRepository,
) *Handler {
	return &Handler{
		withdrawService: withdrawSvc,
		investService:   investSvc,
		auditService:    auditSvc,
		withdrawalRepo:  withdrawalRepo,
		configRepo:      configRepo,
	}
}

// ListWithdrawals 查询提现申请列表
// @Summary 查询提现申请列表
// @Tags 后台管理
// @Produce json
// @Router /api/v1/admin/withdrawals [get]
func (h *Handler) ListWithdrawals(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	var userID int64
	if idStr := c.Query("user_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			response.BadRequest(c, "无效的用户ID")
			return
		}
		userID = id
	}
	status := c.Query("status")
	p := handler.BindPagination(c)
	list, total, err := h.withdrawalRepo.List(c.Request.Context(), userID, status, p.GetOffset(), p.PageSize)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// ApproveWithdrawal 审批通过提现申请
// @Summary 审批通过提现申请
// @Tags 后台管理
// @Produce json
// @Router /api/v1/admin/withdrawals/{id}/approve [post]
func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	id, ok := handler.ParseID(c, "提现申请")
	if !ok {
		return
	}

	w, err := h.withdrawService.Approve(c.Request.Context(), id)
	handler.MustSucceed(c, err, w)
}

// RejectWithdrawalRequest 驳回提现请求
type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectWithdrawal 驳回提现申请
// @Summary 驳回提现申请
// @Tags 后台管理
// @Accept json
// @Produce json
// @Router /api/v1/admin/withdrawals/{id}/reject [post]
func (h *Handler) RejectWithdrawal(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	id, ok := handler.ParseID(c, "提现申请")
	if !ok {
		return
	}

	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	w, err := h.withdrawService.Reject(c.Request.Context(), id, req.Reason)
	handler.MustSucceed(c, err, w)
}

// CompleteWithdrawal 执行已审批的提现打款
// @Summary 执行已审批的提现打款
// @Tags 后台管理
// @Produce json
// @Router /api/v1/admin/withdrawals/{id}/complete [post]
func (h *Handler) CompleteWithdrawal(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	id, ok := handler.ParseID(c, "提现申请")
	if !ok {
		return
	}

	w, err := h.withdrawService.Complete(c.Request.Context(), id)
	handler.MustSucceed(c, err, w)
}

// RejectPackage 驳回待确认的套餐订单
// @Summary 驳回待确认的套餐订单
// @Tags 后台管理
// @Produce json
// @Router /api/v1/admin/packages/{id}/reject [post]
func (h *Handler) RejectPackage(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	id, ok := handler.ParseID(c, "套餐")
	if !ok {
		return
	}

	err := h.investService.RejectPackage(c.Request.Context(), id)
	handler.MustSucceed(c, err, nil)
}

// RunAudit 手动触发分佣对账
// @Summary 手动触发分佣对账
// @Tags 后台管理
// @Produce json
// @Router /api/v1/admin/audit [post]
func (h *Handler) RunAudit(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	result, err := h.auditService.Run(c.Request.Context())
	handler.MustSucceed(c, err, result)
}

// SetConfigRequest 系统配置写入请求
type SetConfigRequest struct {
	Group       string `json:"group" binding:"required"`
	Key         string `json:"key" binding:"required"`
	Value       string `json:"value" binding:"required"`
	Description string `json:"description"`
}

// SetConfig 写入系统配置
// @Summary 写入系统配置
// @Tags 后台管理
// @Accept json
// @Produce json
// @Router /api/v1/admin/configs [post]
func (h *Handler) SetConfig(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	var req SetConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	cfg := &models.SystemConfig{
		Group:       req.Group,
		Key:         req.Key,
		Value:       req.Value,
		Description: &req.Description,
	}
	err := h.configRepo.Set(c.Request.Context(), cfg)
	handler.MustSucceed(c, err, cfg)
}

// ListConfigs 按分组查询系统配置
// @Summary 按分组查询系统配置
// @Tags 后台管理
// @Produce json
// @Router /api/v1/admin/configs [get]
func (h *Handler) ListConfigs(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	group := c.Query("group")
	if group == "" {
		response.BadRequest(c, "缺少 group 参数")
		return
	}

	list, err := h.configRepo.GetByGroup(c.Request.Context(), group)
	handler.MustSucceed(c, err, list)
}
