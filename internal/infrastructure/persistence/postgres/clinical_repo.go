// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"upllyft-worksheet-api/internal/domain/entity"
)

// ClinicalRepository 临床数据只读仓储实现
type ClinicalRepository struct {
	client *Client
}

// NewClinicalRepository 创建临床数据仓储
func NewClinicalRepository(client *Client) *ClinicalRepository {
	return &ClinicalRepository{client: client}
}

// GetChild 获取儿童档案
func (r *ClinicalRepository) GetChild(ctx context.Context, id string) (*entity.Child, error) {
	ctx, span := tracer.Start(ctx, "postgres.ClinicalRepository.GetChild")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var child entity.Child
	if err := db.First(&child, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return &child, nil
}

// GetCase 获取个案记录
func (r *ClinicalRepository) GetCase(ctx context.Context, id string) (*entity.CaseFile, error) {
	ctx, span := tracer.Start(ctx, "postgres.ClinicalRepository.GetCase")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var cf entity.CaseFile
	if err := db.First(&cf, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &cf, nil
}

// GetScreening 获取筛查记录
func (r *ClinicalRepository) GetScreening(ctx context.Context, id string) (*entity.Screening, error) {
	ctx, span := tracer.Start(ctx, "postgres.ClinicalRepository.GetScreening")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var s entity.Screening
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get screening: %w", err)
	}
	return &s, nil
}

// GetLatestCompletedScreening 获取儿童最近一次已完成筛查
func (r *ClinicalRepository) GetLatestCompletedScreening(ctx context.Context, childID string) (*entity.Screening, error) {
	ctx, span := tracer.Start(ctx, "postgres.ClinicalRepository.GetLatestCompletedScreening")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var s entity.Screening
	err := db.Where("child_id = ? AND completed = ?", childID, true).
		Order("completed_at DESC").
		First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get latest screening: %w", err)
	}
	return &s, nil
}

// GetActiveGoals 获取个案的活跃 IEP 目标，可按目标 ID 过滤
func (r *ClinicalRepository) GetActiveGoals(ctx context.Context, caseID string, goalIDs []string) ([]*entity.IEPGoal, error) {
	ctx, span := tracer.Start(ctx, "postgres.ClinicalRepository.GetActiveGoals")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Where("case_id = ? AND status = ?", caseID, entity.GoalActive)
	if len(goalIDs) > 0 {
		query = query.Where("id IN ?", goalIDs)
	}

	var goals []*entity.IEPGoal
	if err := query.Order("created_at ASC").Find(&goals).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get active goals: %w", err)
	}
	return goals, nil
}

// GetActiveGoalsByChild 获取儿童全部活跃 IEP 目标
func (r *ClinicalRepository) GetActiveGoalsByChild(ctx context.Context, childID string) ([]*entity.IEPGoal, error) {
	ctx, span := tracer.Start(ctx, "postgres.ClinicalRepository.GetActiveGoalsByChild")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var goals []*entity.IEPGoal
	err := db.Joins("JOIN case_files ON case_files.id = iep_goals.case_id").
		Where("case_files.child_id = ? AND iep_goals.status = ?", childID, entity.GoalActive).
		Find(&goals).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get goals by child: %w", err)
	}
	return goals, nil
}

// GetSessions 获取个案的指定会话记录
func (r *ClinicalRepository) GetSessions(ctx context.Context, caseID string, sessionIDs []string) ([]*entity.SessionNote, error) {
	ctx, span := tracer.Start(ctx, "postgres.ClinicalRepository.GetSessions")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Where("case_id = ?", caseID)
	if len(sessionIDs) > 0 {
		query = query.Where("id IN ?", sessionIDs)
	}

	var sessions []*entity.SessionNote
	if err := query.Order("session_date DESC").Find(&sessions).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	return sessions, nil
}
