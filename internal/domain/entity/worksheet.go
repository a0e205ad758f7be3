// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// WorksheetType 工作表大类
type WorksheetType string

const (
	WorksheetTypeActivity       WorksheetType = "ACTIVITY"
	WorksheetTypeVisualSupport  WorksheetType = "VISUAL_SUPPORT"
	WorksheetTypeStructuredPlan WorksheetType = "STRUCTURED_PLAN"
)

// 子类型常量，(type, subType) 共同决定 6 种内容 schema 之一
const (
	// ACTIVITY 子类型
	SubTypeFineMotor          = "fine_motor"
	SubTypeGrossMotor         = "gross_motor"
	SubTypeSpeechArticulation = "speech_articulation"
	SubTypeLanguageBuilding   = "language_building"
	SubTypeSocialSkills       = "social_skills"
	SubTypeCognitive          = "cognitive"
	SubTypeSensoryRegulation  = "sensory_regulation"

	// VISUAL_SUPPORT 子类型
	SubTypeVisualSchedule     = "visual_schedule"
	SubTypeSocialStory        = "social_story"
	SubTypeEmotionThermometer = "emotion_thermometer"

	// STRUCTURED_PLAN 子类型
	SubTypeWeeklyPlan   = "weekly_plan"
	SubTypeDailyRoutine = "daily_routine"
)

// DefaultSubType 返回类型的兜底子类型，未识别的子类型按此选择提示词
func DefaultSubType(t WorksheetType) string {
	switch t {
	case WorksheetTypeVisualSupport:
		return SubTypeVisualSchedule
	case WorksheetTypeStructuredPlan:
		return SubTypeWeeklyPlan
	default:
		return SubTypeFineMotor
	}
}

// KnownSubTypes (type, subType) 合法组合表
var KnownSubTypes = map[WorksheetType][]string{
	WorksheetTypeActivity: {
		SubTypeFineMotor, SubTypeGrossMotor, SubTypeSpeechArticulation,
		SubTypeLanguageBuilding, SubTypeSocialSkills, SubTypeCognitive,
		SubTypeSensoryRegulation,
	},
	WorksheetTypeVisualSupport: {
		SubTypeVisualSchedule, SubTypeSocialStory, SubTypeEmotionThermometer,
	},
	WorksheetTypeStructuredPlan: {
		SubTypeWeeklyPlan, SubTypeDailyRoutine,
	},
}

// IsKnownSubType 判断 (type, subType) 是否为合法组合
func IsKnownSubType(t WorksheetType, subType string) bool {
	for _, s := range KnownSubTypes[t] {
		if s == subType {
			return true
		}
	}
	return false
}

// WorksheetStatus 工作表生命周期状态
type WorksheetStatus string

const (
	StatusDraft      WorksheetStatus = "DRAFT"
	StatusGenerating WorksheetStatus = "GENERATING"
	StatusPublished  WorksheetStatus = "PUBLISHED"
	StatusFlagged    WorksheetStatus = "FLAGGED"
	StatusArchived   WorksheetStatus = "ARCHIVED"
)

// Difficulty 难度等级，三级有序枚举
type Difficulty string

const (
	DifficultyFoundational  Difficulty = "FOUNDATIONAL"
	DifficultyDeveloping    Difficulty = "DEVELOPING"
	DifficultyStrengthening Difficulty = "STRENGTHENING"
)

// difficultyOrder 难度排序，用于步进与夹取
var difficultyOrder = []Difficulty{
	DifficultyFoundational,
	DifficultyDeveloping,
	DifficultyStrengthening,
}

// Rank 返回难度在有序枚举中的下标，未知难度按最低档处理
func (d Difficulty) Rank() int {
	for i, v := range difficultyOrder {
		if v == d {
			return i
		}
	}
	return 0
}

// Step 按 delta 步进难度并夹取到枚举边界
func (d Difficulty) Step(delta int) Difficulty {
	idx := d.Rank() + delta
	if idx < 0 {
		idx = 0
	}
	if idx > len(difficultyOrder)-1 {
		idx = len(difficultyOrder) - 1
	}
	return difficultyOrder[idx]
}

// DataSource 生成数据来源
type DataSource string

const (
	DataSourceManual         DataSource = "MANUAL"
	DataSourceScreening      DataSource = "SCREENING"
	DataSourceUploadedReport DataSource = "UPLOADED_REPORT"
	DataSourceIEPGoals       DataSource = "IEP_GOALS"
	DataSourceSessionNotes   DataSource = "SESSION_NOTES"
)

// ColorMode 插图配色模式
type ColorMode string

const (
	ColorModeFullColor ColorMode = "full_color"
	ColorModeGrayscale ColorMode = "grayscale"
	ColorModeLineArt   ColorMode = "line_art"
)

// Duration 活动时长枚举
type Duration string

const (
	DurationShort    Duration = "short"
	DurationMedium   Duration = "medium"
	DurationLong     Duration = "long"
	DurationExtended Duration = "extended"
)

// Worksheet 工作表，系统的核心产物
//
// 版本与克隆互斥：ParentVersionID 表示同一文档谱系内的修订，
// ClonedFromID 表示跨谱系的独立副本，二者不会同时设置。
// RootID 为冗余存储的谱系根，创建时写入，使谱系查询 O(1)。
type Worksheet struct {
	ID       string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID string        `json:"tenant_id" gorm:"type:uuid;index;not null"`
	Title    string        `json:"title" gorm:"type:varchar(255);not null"`
	Type     WorksheetType `json:"type" gorm:"type:varchar(32);index;not null"`
	SubType  string        `json:"sub_type" gorm:"type:varchar(48);not null"`

	Content json.RawMessage `json:"content" gorm:"type:jsonb;not null"`

	Status     WorksheetStatus `json:"status" gorm:"type:varchar(16);index;not null;default:'DRAFT'"`
	Difficulty Difficulty      `json:"difficulty" gorm:"type:varchar(16);not null"`

	TargetDomains []string `json:"target_domains" gorm:"type:jsonb;serializer:json"`
	ConditionTags []string `json:"condition_tags" gorm:"type:jsonb;serializer:json"`
	Interests     []string `json:"interests,omitempty" gorm:"type:jsonb;serializer:json"`

	ColorMode  ColorMode  `json:"color_mode" gorm:"type:varchar(16);not null;default:'full_color'"`
	Duration   Duration   `json:"duration,omitempty" gorm:"type:varchar(16)"`
	Setting    string     `json:"setting,omitempty" gorm:"type:varchar(64)"`
	DataSource DataSource `json:"data_source" gorm:"type:varchar(24);not null"`

	// 年龄适用区间（月龄）
	AgeRangeMin int `json:"age_range_min" gorm:"not null;default:0"`
	AgeRangeMax int `json:"age_range_max" gorm:"not null;default:0"`

	// 临床关联，均归其他子系统所有
	ChildID     *string  `json:"child_id,omitempty" gorm:"type:uuid;index"`
	CaseID      *string  `json:"case_id,omitempty" gorm:"type:uuid;index"`
	ScreeningID *string  `json:"screening_id,omitempty" gorm:"type:uuid"`
	GoalIDs     []string `json:"goal_ids,omitempty" gorm:"type:jsonb;serializer:json"`
	SessionIDs  []string `json:"session_ids,omitempty" gorm:"type:jsonb;serializer:json"`

	// 版本谱系
	Version         int     `json:"version" gorm:"not null;default:1"`
	ParentVersionID *string `json:"parent_version_id,omitempty" gorm:"type:uuid;index"`
	RootID          string  `json:"root_id" gorm:"type:uuid;index;not null"`
	ClonedFromID    *string `json:"cloned_from_id,omitempty" gorm:"type:uuid"`

	IsPublic            bool `json:"is_public" gorm:"index;not null;default:false"`
	VerifiedContributor bool `json:"verified_contributor" gorm:"not null;default:false"`

	// 聚合计数
	RatingSum   int `json:"-" gorm:"not null;default:0"`
	ReviewCount int `json:"review_count" gorm:"not null;default:0"`
	CloneCount  int `json:"clone_count" gorm:"not null;default:0"`

	PDFURL     string `json:"pdf_url,omitempty" gorm:"type:text"`
	PreviewURL string `json:"preview_url,omitempty" gorm:"type:text"`

	CreatedBy string    `json:"created_by" gorm:"type:uuid;index;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Worksheet) TableName() string {
	return "worksheets"
}

// AverageRating 平均评分，无评价时为 0
func (w *Worksheet) AverageRating() float64 {
	if w.ReviewCount == 0 {
		return 0
	}
	return float64(w.RatingSum) / float64(w.ReviewCount)
}

// IsDownloadable PDF 是否就绪可下载
func (w *Worksheet) IsDownloadable() bool {
	return (w.Status == StatusPublished || w.Status == StatusFlagged) && w.PDFURL != ""
}

// AgeFits 判断月龄是否落在适用区间内，区间未设置时返回 false
func (w *Worksheet) AgeFits(ageMonths int) bool {
	if w.AgeRangeMin == 0 && w.AgeRangeMax == 0 {
		return false
	}
	return ageMonths >= w.AgeRangeMin && ageMonths <= w.AgeRangeMax
}
