// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"upllyft-worksheet-api/internal/domain/entity"
)

// ClinicalRepository 临床数据只读仓储
// 这些表归档案/筛查/会话子系统所有，本服务只读取
type ClinicalRepository interface {
	// GetChild 获取儿童档案
	GetChild(ctx context.Context, id string) (*entity.Child, error)

	// GetCase 获取个案记录
	GetCase(ctx context.Context, id string) (*entity.CaseFile, error)

	// GetScreening 获取筛查记录
	GetScreening(ctx context.Context, id string) (*entity.Screening, error)

	// GetLatestCompletedScreening 获取儿童最近一次已完成筛查
	GetLatestCompletedScreening(ctx context.Context, childID string) (*entity.Screening, error)

	// GetActiveGoals 获取个案的活跃 IEP 目标，可按目标 ID 过滤
	GetActiveGoals(ctx context.Context, caseID string, goalIDs []string) ([]*entity.IEPGoal, error)

	// GetActiveGoalsByChild 获取儿童全部活跃 IEP 目标
	GetActiveGoalsByChild(ctx context.Context, childID string) ([]*entity.IEPGoal, error)

	// GetSessions 获取个案的指定会话记录
	GetSessions(ctx context.Context, caseID string, sessionIDs []string) ([]*entity.SessionNote, error)
}
