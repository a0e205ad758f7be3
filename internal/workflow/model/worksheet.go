// Package model 定义工作流层的输入输出模型
package model

import "upllyft-worksheet-api/internal/domain/entity"

// ClinicalBrief 提示词中使用的临床上下文摘要
type ClinicalBrief struct {
	// ChildAgeMonths 为 0 时表示未知年龄
	ChildAgeMonths int
	ConditionTags  []string
	Interests      []string
	// GoalLines 每条为一行 IEP 目标描述（含领域与进度）
	GoalLines []string
	// SessionLines 每条为一行近期干预会话摘要
	SessionLines []string
	// ScreeningLines 每条为一行筛查领域得分描述
	ScreeningLines []string
}

// GenerateInput 工作表内容生成链输入
type GenerateInput struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int

	Variant       entity.ContentVariant
	WorksheetType entity.WorksheetType
	SubType       string
	Difficulty    entity.Difficulty
	Duration      entity.Duration
	TargetDomains []string
	Clinical      ClinicalBrief

	// CustomInstructions 来自 MANUAL 数据源的自由文本
	CustomInstructions string
}

// SectionRegenInput 单小节重生成链输入
type SectionRegenInput struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int

	Variant       entity.ContentVariant
	WorksheetType entity.WorksheetType
	SubType       string
	Difficulty    entity.Difficulty
	TargetDomains []string
	Clinical      ClinicalBrief

	// SectionJSON 为待替换小节的当前 JSON
	SectionJSON string
	// WorksheetJSON 为整张工作表的当前 JSON，用于保持上下文一致
	WorksheetJSON string
	// Guidance 调用方提供的修改指引，可为空
	Guidance string
}

// RecommendJustifyInput 推荐说明生成链输入
type RecommendJustifyInput struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int

	Clinical ClinicalBrief
	// CandidateLines 每条为一行候选工作表摘要（标题、类型、难度、匹配领域）
	CandidateLines []string
}
