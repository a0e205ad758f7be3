// Package entity 定义领域实体
package entity

import "time"

// FlagStatus 举报处理状态
type FlagStatus string

const (
	FlagPending   FlagStatus = "PENDING"
	FlagDismissed FlagStatus = "DISMISSED"
	FlagActioned  FlagStatus = "ACTIONED"
)

// FlagAutoModerationThreshold 待处理举报达到该数量时自动转入 FLAGGED
// 沿用产品既定阈值，是否按部署可配待产品确认
const FlagAutoModerationThreshold = 3

// WorksheetFlag 社区举报
type WorksheetFlag struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    string     `json:"tenant_id" gorm:"type:uuid;index;not null"`
	WorksheetID string     `json:"worksheet_id" gorm:"type:uuid;index;not null"`
	ReporterID  string     `json:"reporter_id" gorm:"type:uuid;not null"`
	Reason      string     `json:"reason" gorm:"type:text;not null"`
	Status      FlagStatus `json:"status" gorm:"type:varchar(16);index;not null;default:'PENDING'"`
	ResolvedBy  *string    `json:"resolved_by,omitempty" gorm:"type:uuid"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (WorksheetFlag) TableName() string {
	return "worksheet_flags"
}

// WorksheetReview 用户评价，评分 1-5
type WorksheetReview struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    string    `json:"tenant_id" gorm:"type:uuid;index;not null"`
	WorksheetID string    `json:"worksheet_id" gorm:"type:uuid;index;not null"`
	ReviewerID  string    `json:"reviewer_id" gorm:"type:uuid;not null"`
	Rating      int       `json:"rating" gorm:"not null"`
	Comment     string    `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (WorksheetReview) TableName() string {
	return "worksheet_reviews"
}

// CompletionQuality 完成质量信号
type CompletionQuality string

const (
	QualityTooEasy   CompletionQuality = "TOO_EASY"
	QualityJustRight CompletionQuality = "JUST_RIGHT"
	QualityTooHard   CompletionQuality = "TOO_HARD"
)

// WorksheetCompletion 完成记录，难度自适应的遥测来源
type WorksheetCompletion struct {
	ID          string            `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    string            `json:"tenant_id" gorm:"type:uuid;index;not null"`
	WorksheetID string            `json:"worksheet_id" gorm:"type:uuid;index;not null"`
	ChildID     string            `json:"child_id" gorm:"type:uuid;index;not null"`
	Quality     CompletionQuality `json:"quality,omitempty" gorm:"type:varchar(16)"`
	Rating      *int              `json:"rating,omitempty"`
	Difficulty  Difficulty        `json:"difficulty" gorm:"type:varchar(16);not null"`
	Domains     []string          `json:"domains,omitempty" gorm:"type:jsonb;serializer:json"`
	CompletedAt time.Time         `json:"completed_at" gorm:"index;not null"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

func (WorksheetCompletion) TableName() string {
	return "worksheet_completions"
}
