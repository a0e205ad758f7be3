// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"upllyft-worksheet-api/internal/domain/entity"
)

// WorksheetFilter 工作表过滤条件
type WorksheetFilter struct {
	Type       entity.WorksheetType
	SubType    string
	Status     entity.WorksheetStatus
	Difficulty entity.Difficulty
	ChildID    *string
	CaseID     *string
	CreatedBy  *string
	IsPublic   *bool
}

// CandidateFilter 推荐候选查询条件：公开且已发布，且至少命中一个条件标签
type CandidateFilter struct {
	ConditionTags []string
	ExcludeIDs    []string
	Limit         int
}

// WorksheetRepository 工作表仓储接口
type WorksheetRepository interface {
	// Create 创建工作表
	Create(ctx context.Context, ws *entity.Worksheet) error

	// GetByID 根据 ID 获取工作表
	GetByID(ctx context.Context, id string) (*entity.Worksheet, error)

	// Update 更新工作表
	Update(ctx context.Context, ws *entity.Worksheet) error

	// UpdateStatus 更新状态，带当前状态前置校验，返回是否命中
	UpdateStatus(ctx context.Context, id string, from, to entity.WorksheetStatus) (bool, error)

	// UpdateAssets 写入资产 URL 并更新状态
	UpdateAssets(ctx context.Context, id, pdfURL, previewURL string, status entity.WorksheetStatus) error

	// SetPublic 设置公开标志
	SetPublic(ctx context.Context, id string, isPublic bool) error

	// List 条件分页查询
	List(ctx context.Context, filter *WorksheetFilter, pagination Pagination) (*PagedResult[*entity.Worksheet], error)

	// ListByRoot 查询同一谱系根下的全部版本，按版本号升序
	ListByRoot(ctx context.Context, rootID string) ([]*entity.Worksheet, error)

	// MaxVersionInLineage 查询谱系内最大版本号
	MaxVersionInLineage(ctx context.Context, rootID string) (int, error)

	// ListCandidates 推荐候选查询
	ListCandidates(ctx context.Context, filter *CandidateFilter) ([]*entity.Worksheet, error)

	// IncrementCloneCount 克隆计数自增
	IncrementCloneCount(ctx context.Context, id string) error

	// AddReviewStats 累加评分聚合计数
	AddReviewStats(ctx context.Context, id string, rating int) error
}

// IllustrationRepository 插图仓储接口
type IllustrationRepository interface {
	// CreateBatch 批量创建插图记录
	CreateBatch(ctx context.Context, items []*entity.Illustration) error

	// GetByID 根据 ID 获取插图
	GetByID(ctx context.Context, id string) (*entity.Illustration, error)

	// Update 更新插图
	Update(ctx context.Context, ill *entity.Illustration) error

	// ListByWorksheet 查询工作表全部插图，按位置升序
	ListByWorksheet(ctx context.Context, worksheetID string) ([]*entity.Illustration, error)

	// DeleteByWorksheet 删除工作表全部插图（流水线重跑前清场）
	DeleteByWorksheet(ctx context.Context, worksheetID string) error
}
