// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"upllyft-worksheet-api/internal/domain/entity"
)

// JobFilter 任务过滤条件
type JobFilter struct {
	JobType entity.JobType
	Status  entity.JobStatus
}

// JobRepository 资产任务仓储接口
type JobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.AssetJob) error

	// GetByID 根据 ID 获取任务
	GetByID(ctx context.Context, id string) (*entity.AssetJob, error)

	// Update 更新任务
	Update(ctx context.Context, job *entity.AssetJob) error

	// UpdateStatus 更新任务状态
	UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error

	// UpdateProgress 更新任务进度（0-100）
	UpdateProgress(ctx context.Context, id string, progress int) error

	// GetByIdempotencyKey 根据幂等键获取任务
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.AssetJob, error)

	// GetLatestByWorksheet 查询工作表最近一次任务
	GetLatestByWorksheet(ctx context.Context, worksheetID string) (*entity.AssetJob, error)

	// ListByWorksheet 查询工作表任务历史
	ListByWorksheet(ctx context.Context, worksheetID string, filter *JobFilter, pagination Pagination) (*PagedResult[*entity.AssetJob], error)
}
