package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yunhetech/crypto-invest-backend/internal/common/response"
)

// Identity 身份中间件
// 认证由外层网关完成，核心服务只信任网关注入的身份头。
// X-User-Id 存在即视为已登录用户，X-Admin-Id 为运营身份。
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader("X-User-Id"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				c.Set(ContextKeyUserID, id)
			}
		}
		if v := c.GetHeader("X-Admin-Id"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				c.Set(ContextKeyAdminID, id)
			}
		}
		c.Next()
	}
}

// RequireUser 要求已登录用户
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin 要求运营身份
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetAdminID(c) == 0 {
			response.Unauthorized(c, "需要运营权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 获取当前用户 ID，未登录返回 0
func GetUserID(c *gin.Context) int64 {
	if v, exists := c.Get(ContextKeyUserID); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// GetAdminID 获取当前运营 ID，未登录返回 0
func GetAdminID(c *gin.Context) int64 {
	if v, exists := c.Get(ContextKeyAdminID); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
