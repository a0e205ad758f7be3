// Package entity 定义领域实体
package entity

import "time"

// IllustrationStatus 插图生成状态
type IllustrationStatus string

const (
	IllustrationCompleted IllustrationStatus = "COMPLETED"
	IllustrationFailed    IllustrationStatus = "FAILED"
)

// Illustration 工作表插图，每次资产流水线按内容节点批量创建
// 单图失败记录为 FAILED 且 ImageURL 为空，不中断批次
type Illustration struct {
	ID          string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    string `json:"tenant_id" gorm:"type:uuid;index;not null"`
	WorksheetID string `json:"worksheet_id" gorm:"type:uuid;index;not null"`
	NodeID      string `json:"node_id" gorm:"type:varchar(64);not null"`
	// SourcePrompt 未加风格包装的原始节点提示词，重生成时以它为基底重新组装
	SourcePrompt string             `json:"source_prompt" gorm:"type:text;not null"`
	Prompt       string             `json:"prompt" gorm:"type:text;not null"`
	AltText      string             `json:"alt_text" gorm:"type:varchar(255)"`
	Position     int                `json:"position" gorm:"not null"`
	Status       IllustrationStatus `json:"status" gorm:"type:varchar(16);not null"`
	ImageURL     string             `json:"image_url" gorm:"type:text"`
	CreatedAt    time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Illustration) TableName() string {
	return "worksheet_illustrations"
}
