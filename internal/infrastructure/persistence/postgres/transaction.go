// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"

	"gorm.io/gorm"

	"upllyft-worksheet-api/internal/domain/repository"
)

// TxManager 事务管理器
type TxManager struct {
	client    *Client
	tenantCtx *TenantContext
}

// NewTxManager 创建事务管理器
func NewTxManager(client *Client) *TxManager {
	return &TxManager{client: client, tenantCtx: NewTenantContext(client)}
}

// WithTransaction 在事务中执行操作
// 事务句柄写入 context，仓储通过 getDB 取出，嵌套调用复用外层事务；
// context 携带租户标识时在事务起点设置 RLS 租户上下文
func (tm *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}

	return tm.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, repository.TxKey{}, tx)
		if tenantID := repository.TenantID(ctx); tenantID != "" {
			if err := tm.tenantCtx.SetTenant(txCtx, tenantID); err != nil {
				return err
			}
		}
		return fn(txCtx)
	})
}

// getDB 取当前事务句柄，不在事务中时回落到根连接
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
