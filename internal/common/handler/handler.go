// Package handler 提供 API Handler 的通用辅助函数
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yunhetech/crypto-invest-backend/internal/common/response"
	"github.com/yunhetech/crypto-invest-backend/internal/common/utils"
	"github.com/yunhetech/crypto-invest-backend/internal/middleware"
)

// HandleError 处理错误并发送响应
// err 为 nil 返回 false；否则发送错误响应并返回 true，调用方应 return。
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	response.Error(c, err)
	return true
}

// MustSucceed 有错误则返回错误响应，否则返回成功响应
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 分页版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// RequireUserID 获取当前用户 ID，未登录时返回 401
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return userID, true
}

// RequireAdminID 获取当前运营 ID，未登录时返回 401
func RequireAdminID(c *gin.Context) (int64, bool) {
	adminID := middleware.GetAdminID(c)
	if adminID == 0 {
		response.Unauthorized(c, "需要运营权限")
		return 0, false
	}
	return adminID, true
}

// ParseID 解析路径参数 "id" 为 int64
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// BindPagination 绑定并规范化分页参数
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	p.Normalize()
	return p
}
