// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
)

// FlagRepository 举报仓储实现
type FlagRepository struct {
	client *Client
}

// NewFlagRepository 创建举报仓储
func NewFlagRepository(client *Client) *FlagRepository {
	return &FlagRepository{client: client}
}

// Create 创建举报
func (r *FlagRepository) Create(ctx context.Context, flag *entity.WorksheetFlag) error {
	ctx, span := tracer.Start(ctx, "postgres.FlagRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(flag).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create flag: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取举报
func (r *FlagRepository) GetByID(ctx context.Context, id string) (*entity.WorksheetFlag, error) {
	ctx, span := tracer.Start(ctx, "postgres.FlagRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var flag entity.WorksheetFlag
	if err := db.First(&flag, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get flag: %w", err)
	}
	return &flag, nil
}

// CountPending 统计工作表的待处理举报数
func (r *FlagRepository) CountPending(ctx context.Context, worksheetID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.FlagRepository.CountPending")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	err := db.Model(&entity.WorksheetFlag{}).
		Where("worksheet_id = ? AND status = ?", worksheetID, entity.FlagPending).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count pending flags: %w", err)
	}
	return count, nil
}

// ListPending 查询工作表的全部待处理举报
func (r *FlagRepository) ListPending(ctx context.Context, worksheetID string) ([]*entity.WorksheetFlag, error) {
	ctx, span := tracer.Start(ctx, "postgres.FlagRepository.ListPending")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var flags []*entity.WorksheetFlag
	err := db.Where("worksheet_id = ? AND status = ?", worksheetID, entity.FlagPending).
		Order("created_at ASC").
		Find(&flags).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list pending flags: %w", err)
	}
	return flags, nil
}

// Resolve 更新单条举报的处理结果
func (r *FlagRepository) Resolve(ctx context.Context, id string, status entity.FlagStatus, resolvedBy string) error {
	ctx, span := tracer.Start(ctx, "postgres.FlagRepository.Resolve")
	defer span.End()

	db := getDB(ctx, r.client.db)
	now := time.Now()
	err := db.Model(&entity.WorksheetFlag{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_by": resolvedBy,
			"resolved_at": now,
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to resolve flag: %w", err)
	}
	return nil
}

// ResolvePendingByWorksheet 批量处理工作表的全部待处理举报
func (r *FlagRepository) ResolvePendingByWorksheet(ctx context.Context, worksheetID string, status entity.FlagStatus, resolvedBy string) error {
	ctx, span := tracer.Start(ctx, "postgres.FlagRepository.ResolvePendingByWorksheet")
	defer span.End()

	db := getDB(ctx, r.client.db)
	now := time.Now()
	err := db.Model(&entity.WorksheetFlag{}).
		Where("worksheet_id = ? AND status = ?", worksheetID, entity.FlagPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_by": resolvedBy,
			"resolved_at": now,
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to bulk resolve flags: %w", err)
	}
	return nil
}

// ReviewRepository 评价仓储实现
type ReviewRepository struct {
	client *Client
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(client *Client) *ReviewRepository {
	return &ReviewRepository{client: client}
}

// Create 创建评价
func (r *ReviewRepository) Create(ctx context.Context, review *entity.WorksheetReview) error {
	ctx, span := tracer.Start(ctx, "postgres.ReviewRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(review).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// ListByWorksheet 查询工作表评价
func (r *ReviewRepository) ListByWorksheet(ctx context.Context, worksheetID string, pagination repository.Pagination) (*repository.PagedResult[*entity.WorksheetReview], error) {
	ctx, span := tracer.Start(ctx, "postgres.ReviewRepository.ListByWorksheet")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.WorksheetReview{}).Where("worksheet_id = ?", worksheetID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []*entity.WorksheetReview
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&reviews).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return repository.NewPagedResult(reviews, total, pagination), nil
}

// CompletionRepository 完成记录仓储实现
type CompletionRepository struct {
	client *Client
}

// NewCompletionRepository 创建完成记录仓储
func NewCompletionRepository(client *Client) *CompletionRepository {
	return &CompletionRepository{client: client}
}

// Create 创建完成记录
func (r *CompletionRepository) Create(ctx context.Context, completion *entity.WorksheetCompletion) error {
	ctx, span := tracer.Start(ctx, "postgres.CompletionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(completion).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create completion: %w", err)
	}
	return nil
}

// ListRecentByChild 查询儿童最近的完成记录，按完成时间倒序
func (r *CompletionRepository) ListRecentByChild(ctx context.Context, childID string, domain string, limit int) ([]*entity.WorksheetCompletion, error) {
	ctx, span := tracer.Start(ctx, "postgres.CompletionRepository.ListRecentByChild")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Where("child_id = ?", childID)
	if domain != "" {
		query = query.Where(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(domains) AS d WHERE d = ?)",
			domain,
		)
	}

	var items []*entity.WorksheetCompletion
	if err := query.Order("completed_at DESC").
		Limit(limit).
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	return items, nil
}

// CompletedWorksheetIDs 查询儿童已完成的工作表 ID 集合
func (r *CompletionRepository) CompletedWorksheetIDs(ctx context.Context, childID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.CompletionRepository.CompletedWorksheetIDs")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var ids []string
	err := db.Model(&entity.WorksheetCompletion{}).
		Where("child_id = ?", childID).
		Distinct().
		Pluck("worksheet_id", &ids).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list completed worksheet ids: %w", err)
	}
	return ids, nil
}
