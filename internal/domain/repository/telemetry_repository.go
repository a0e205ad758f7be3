// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"upllyft-worksheet-api/internal/domain/entity"
)

// FlagRepository 举报仓储接口
type FlagRepository interface {
	// Create 创建举报
	Create(ctx context.Context, flag *entity.WorksheetFlag) error

	// GetByID 根据 ID 获取举报
	GetByID(ctx context.Context, id string) (*entity.WorksheetFlag, error)

	// CountPending 统计工作表的待处理举报数
	CountPending(ctx context.Context, worksheetID string) (int64, error)

	// ListPending 查询工作表的全部待处理举报
	ListPending(ctx context.Context, worksheetID string) ([]*entity.WorksheetFlag, error)

	// Resolve 更新单条举报的处理结果
	Resolve(ctx context.Context, id string, status entity.FlagStatus, resolvedBy string) error

	// ResolvePendingByWorksheet 批量处理工作表的全部待处理举报
	ResolvePendingByWorksheet(ctx context.Context, worksheetID string, status entity.FlagStatus, resolvedBy string) error
}

// ReviewRepository 评价仓储接口
type ReviewRepository interface {
	// Create 创建评价
	Create(ctx context.Context, review *entity.WorksheetReview) error

	// ListByWorksheet 查询工作表评价
	ListByWorksheet(ctx context.Context, worksheetID string, pagination Pagination) (*PagedResult[*entity.WorksheetReview], error)
}

// CompletionRepository 完成记录仓储接口
type CompletionRepository interface {
	// Create 创建完成记录
	Create(ctx context.Context, completion *entity.WorksheetCompletion) error

	// ListRecentByChild 查询儿童最近的完成记录，按完成时间倒序，可按领域过滤
	ListRecentByChild(ctx context.Context, childID string, domain string, limit int) ([]*entity.WorksheetCompletion, error)

	// CompletedWorksheetIDs 查询儿童已完成的工作表 ID 集合
	CompletedWorksheetIDs(ctx context.Context, childID string) ([]string, error)
}
