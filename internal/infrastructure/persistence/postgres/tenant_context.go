// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"fmt"
)

// TenantContext 通过 set_config 写入 RLS 策略引用的租户变量
type TenantContext struct {
	client *Client
}

// NewTenantContext 创建租户上下文管理器
func NewTenantContext(client *Client) *TenantContext {
	return &TenantContext{client: client}
}

// SetTenant 将 app.current_tenant_id 设置为当前租户
// 第三个参数为 TRUE 表示作用域限定在当前事务内，事务结束自动还原
func (tc *TenantContext) SetTenant(ctx context.Context, tenantID string) error {
	db := getDB(ctx, tc.client.db)
	if err := db.Exec("SELECT set_config('app.current_tenant_id', ?, TRUE)", tenantID).Error; err != nil {
		return fmt.Errorf("failed to set tenant context: %w", err)
	}
	return nil
}
