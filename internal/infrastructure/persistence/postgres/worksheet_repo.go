// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
)

// WorksheetRepository 工作表仓储实现
type WorksheetRepository struct {
	client *Client
}

// NewWorksheetRepository 创建工作表仓储
func NewWorksheetRepository(client *Client) *WorksheetRepository {
	return &WorksheetRepository{client: client}
}

// Create 创建工作表
func (r *WorksheetRepository) Create(ctx context.Context, ws *entity.Worksheet) error {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(ws).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create worksheet: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取工作表
func (r *WorksheetRepository) GetByID(ctx context.Context, id string) (*entity.Worksheet, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var ws entity.Worksheet
	if err := db.First(&ws, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get worksheet: %w", err)
	}
	return &ws, nil
}

// Update 更新工作表
func (r *WorksheetRepository) Update(ctx context.Context, ws *entity.Worksheet) error {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(ws).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update worksheet: %w", err)
	}
	return nil
}

// UpdateStatus 条件更新状态，from 不匹配时不产生写入
func (r *WorksheetRepository) UpdateStatus(ctx context.Context, id string, from, to entity.WorksheetStatus) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.UpdateStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.Worksheet{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		span.RecordError(result.Error)
		return false, fmt.Errorf("failed to update worksheet status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateAssets 写入资产 URL 并更新状态
func (r *WorksheetRepository) UpdateAssets(ctx context.Context, id, pdfURL, previewURL string, status entity.WorksheetStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.UpdateAssets")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Worksheet{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pdf_url":     pdfURL,
			"preview_url": previewURL,
			"status":      status,
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update worksheet assets: %w", err)
	}
	return nil
}

// SetPublic 设置公开标志
func (r *WorksheetRepository) SetPublic(ctx context.Context, id string, isPublic bool) error {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.SetPublic")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Worksheet{}).
		Where("id = ?", id).
		Update("is_public", isPublic).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set worksheet public flag: %w", err)
	}
	return nil
}

// List 条件分页查询
func (r *WorksheetRepository) List(ctx context.Context, filter *repository.WorksheetFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Worksheet], error) {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Worksheet{})

	// 应用过滤条件
	if filter != nil {
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if filter.SubType != "" {
			query = query.Where("sub_type = ?", filter.SubType)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Difficulty != "" {
			query = query.Where("difficulty = ?", filter.Difficulty)
		}
		if filter.ChildID != nil {
			query = query.Where("child_id = ?", *filter.ChildID)
		}
		if filter.CaseID != nil {
			query = query.Where("case_id = ?", *filter.CaseID)
		}
		if filter.CreatedBy != nil {
			query = query.Where("created_by = ?", *filter.CreatedBy)
		}
		if filter.IsPublic != nil {
			query = query.Where("is_public = ?", *filter.IsPublic)
		}
	}

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count worksheets: %w", err)
	}

	// 获取列表
	var items []*entity.Worksheet
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}

	return repository.NewPagedResult(items, total, pagination), nil
}

// ListByRoot 查询同一谱系根下的全部版本，按版本号升序
func (r *WorksheetRepository) ListByRoot(ctx context.Context, rootID string) ([]*entity.Worksheet, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.ListByRoot")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var items []*entity.Worksheet
	if err := db.Where("root_id = ?", rootID).
		Order("version ASC").
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list lineage worksheets: %w", err)
	}
	return items, nil
}

// MaxVersionInLineage 查询谱系内最大版本号
func (r *WorksheetRepository) MaxVersionInLineage(ctx context.Context, rootID string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.MaxVersionInLineage")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var maxVersion int
	err := db.Model(&entity.Worksheet{}).
		Where("root_id = ?", rootID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get max lineage version: %w", err)
	}
	return maxVersion, nil
}

// ListCandidates 推荐候选查询：公开且已发布，至少命中一个条件标签
func (r *WorksheetRepository) ListCandidates(ctx context.Context, filter *repository.CandidateFilter) ([]*entity.Worksheet, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.ListCandidates")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Worksheet{}).
		Where("is_public = ? AND status = ?", true, entity.StatusPublished)

	if len(filter.ConditionTags) > 0 {
		// condition_tags 为 jsonb 数组，展开后与请求标签求交
		query = query.Where(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(condition_tags) AS tag WHERE tag IN ?)",
			filter.ConditionTags,
		)
	}
	if len(filter.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filter.ExcludeIDs)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var items []*entity.Worksheet
	if err := query.Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list candidate worksheets: %w", err)
	}
	return items, nil
}

// IncrementCloneCount 克隆计数自增
func (r *WorksheetRepository) IncrementCloneCount(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.IncrementCloneCount")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Worksheet{}).
		Where("id = ?", id).
		Update("clone_count", gorm.Expr("clone_count + 1")).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to increment clone count: %w", err)
	}
	return nil
}

// AddReviewStats 累加评分聚合计数
func (r *WorksheetRepository) AddReviewStats(ctx context.Context, id string, rating int) error {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.AddReviewStats")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Worksheet{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating_sum":   gorm.Expr("rating_sum + ?", rating),
			"review_count": gorm.Expr("review_count + 1"),
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to add review stats: %w", err)
	}
	return nil
}
