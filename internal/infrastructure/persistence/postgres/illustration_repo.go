// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"upllyft-worksheet-api/internal/domain/entity"
)

// IllustrationRepository 插图仓储实现
type IllustrationRepository struct {
	client *Client
}

// NewIllustrationRepository 创建插图仓储
func NewIllustrationRepository(client *Client) *IllustrationRepository {
	return &IllustrationRepository{client: client}
}

// CreateBatch 批量创建插图记录
func (r *IllustrationRepository) CreateBatch(ctx context.Context, items []*entity.Illustration) error {
	ctx, span := tracer.Start(ctx, "postgres.IllustrationRepository.CreateBatch")
	defer span.End()

	if len(items) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	if err := db.Create(&items).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create illustrations: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取插图
func (r *IllustrationRepository) GetByID(ctx context.Context, id string) (*entity.Illustration, error) {
	ctx, span := tracer.Start(ctx, "postgres.IllustrationRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var ill entity.Illustration
	if err := db.First(&ill, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get illustration: %w", err)
	}
	return &ill, nil
}

// Update 更新插图
func (r *IllustrationRepository) Update(ctx context.Context, ill *entity.Illustration) error {
	ctx, span := tracer.Start(ctx, "postgres.IllustrationRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(ill).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update illustration: %w", err)
	}
	return nil
}

// ListByWorksheet 查询工作表全部插图，按位置升序
func (r *IllustrationRepository) ListByWorksheet(ctx context.Context, worksheetID string) ([]*entity.Illustration, error) {
	ctx, span := tracer.Start(ctx, "postgres.IllustrationRepository.ListByWorksheet")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var items []*entity.Illustration
	if err := db.Where("worksheet_id = ?", worksheetID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list illustrations: %w", err)
	}
	return items, nil
}

// DeleteByWorksheet 删除工作表全部插图
func (r *IllustrationRepository) DeleteByWorksheet(ctx context.Context, worksheetID string) error {
	ctx, span := tracer.Start(ctx, "postgres.IllustrationRepository.DeleteByWorksheet")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Illustration{}, "worksheet_id = ?", worksheetID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete illustrations: %w", err)
	}
	return nil
}
