// Package ledger 提供收益与流水查询的 HTTP Handler
package ledger

import (
	"github.com/gin-gonic/gin"

	"github.com/yunhetech/crypto-invest-backend/internal/common/handler"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
)

// Handler 账本查询处理器
type Handler struct {
	earningRepo *repository.EarningRepository
	txnRepo     *repository.TransactionRepository
}

// NewHandler 创建账本查询处理器
func NewHandler(
	earningRepo *repository.EarningRepository,
	txnRepo *repository.TransactionRepository,
) *Handler {
	return &Handler{
		earningRepo: earningRepo,
		txnRepo:     txnRepo,
	}
}

// ListEarnings 查询我的收益
// @Summary 查询我的收益记录
// @Tags 账本
// @Produce json
// @Router /api/v1/earnings [get]
func (h *Handler) ListEarnings(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	earnings, total, err := h.earningRepo.GetByUserID(c.Request.Context(), userID, p.GetOffset(), p.PageSize)
	handler.MustSucceedPage(c, err, earnings, total, p.Page, p.PageSize)
}

// ListTransactions 查询我的流水
// @Summary 查询我的资金流水
// @Tags 账本
// @Produce json
// @Router /api/v1/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	txnType := c.Query("type")
	p := handler.BindPagination(c)
	txns, total, err := h.txnRepo.GetByUserID(c.Request.Context(), userID, txnType, p.GetOffset(), p.PageSize)
	handler.MustSucceedPage(c, err, txns, total, p.Page, p.PageSize)
}
