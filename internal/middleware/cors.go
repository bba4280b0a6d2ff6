package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yunhetech/crypto-invest-backend/internal/common/config"
)

// CORS 跨域中间件
func CORS(cfg *config.CORSConfig) gin.HandlerFunc {
	allowOrigins := cfg.AllowedOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	allowMethods := cfg.AllowedMethods
	if len(allowMethods) == 0 {
		allowMethods = []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}
	}
	allowHeaders := cfg.AllowedHeaders
	if len(allowHeaders) == 0 {
		allowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	}

	allowAll := len(allowOrigins) == 1 && allowOrigins[0] == "*"
	originSet := make(map[string]struct{}, len(allowOrigins))
	for _, origin := range allowOrigins {
		originSet[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		var allowOrigin string
		if allowAll {
			if cfg.AllowCredentials {
				allowOrigin = origin
			} else {
				allowOrigin = "*"
			}
		} else if _, ok := originSet[origin]; ok {
			allowOrigin = origin
		}

		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", strings.Join(allowMethods, ", "))
			c.Header("Access-Control-Allow-Headers", strings.Join(allowHeaders, ", "))
			if cfg.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			if cfg.MaxAge > 0 {
				c.Header("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
