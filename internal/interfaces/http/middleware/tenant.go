// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"upllyft-worksheet-api/internal/domain/repository"
	"upllyft-worksheet-api/pkg/logger"
)

// TenantContextKey 租户上下文 Key 类型
type TenantContextKey string

const (
	// TenantIDKey 租户 ID 上下文 Key
	TenantIDKey TenantContextKey = "tenant_id"
	// UserIDKey 用户 ID 上下文 Key
	UserIDKey TenantContextKey = "user_id"
)

// TenantConfig 租户中间件配置
type TenantConfig struct {
	// HeaderName 从 Header 中获取租户 ID 的字段名
	HeaderName string
	// DefaultTenantID 默认租户 ID（仅开发环境）
	DefaultTenantID string
}

// Tenant 多租户上下文中间件
// 保证请求 context 携带租户标识，Repository 层据此设置 PostgreSQL RLS
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Tenant-ID"
	}

	return func(c *gin.Context) {
		// Auth 中间件解析 JWT 后优先生效
		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = c.GetHeader(cfg.HeaderName)
		}
		if tenantID == "" && cfg.DefaultTenantID != "" {
			tenantID = cfg.DefaultTenantID
		}

		if tenantID != "" {
			c.Set("tenant_id", tenantID)

			ctx := context.WithValue(c.Request.Context(), TenantIDKey, tenantID)
			ctx = repository.WithTenant(ctx, tenantID)
			ctx = logger.WithContext(ctx, logger.TenantIDKey, tenantID)

			if userID := c.GetString("user_id"); userID != "" {
				ctx = context.WithValue(ctx, UserIDKey, userID)
				ctx = logger.WithContext(ctx, logger.UserIDKey, userID)
			}

			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// GetTenantID 从 context 中获取租户 ID
func GetTenantID(ctx context.Context) string {
	if v := ctx.Value(TenantIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetUserID 从 context 中获取用户 ID
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(UserIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetTenantIDFromGin 从 Gin Context 获取租户 ID
func GetTenantIDFromGin(c *gin.Context) string {
	return c.GetString("tenant_id")
}

// GetUserIDFromGin 从 Gin Context 获取用户 ID
func GetUserIDFromGin(c *gin.Context) string {
	return c.GetString("user_id")
}

// GetVerifiedFromGin 当前用户是否为认证贡献者
func GetVerifiedFromGin(c *gin.Context) bool {
	return c.GetBool("verified")
}
