// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"fmt"
)

// SentenceType 社交故事句型，来自 Carol Gray 句型分类
type SentenceType string

const (
	SentenceDescriptive SentenceType = "descriptive"
	SentencePerspective SentenceType = "perspective"
	SentenceAffirmative SentenceType = "affirmative"
	SentenceDirective   SentenceType = "directive"
	SentenceCooperative SentenceType = "cooperative"
)

// validSentenceTypes 合法句型集合
var validSentenceTypes = map[SentenceType]bool{
	SentenceDescriptive: true,
	SentencePerspective: true,
	SentenceAffirmative: true,
	SentenceDirective:   true,
	SentenceCooperative: true,
}

// DayPeriod 日常作息时段
type DayPeriod string

const (
	PeriodMorning   DayPeriod = "morning"
	PeriodAfternoon DayPeriod = "afternoon"
	PeriodEvening   DayPeriod = "evening"
)

// EmotionLevelCount 情绪温度计固定层级数
const EmotionLevelCount = 5

// ContentVariant 按 (type, subType) 区分的内容树变体
type ContentVariant string

const (
	VariantActivity           ContentVariant = "activity"
	VariantVisualSchedule     ContentVariant = "visual_schedule"
	VariantSocialStory        ContentVariant = "social_story"
	VariantEmotionThermometer ContentVariant = "emotion_thermometer"
	VariantWeeklyPlan         ContentVariant = "weekly_plan"
	VariantDailyRoutine       ContentVariant = "daily_routine"
)

// VariantFor 由 (type, subType) 选择内容 schema 变体
// 已知类型下的未知子类型回落到该类型的默认变体
func VariantFor(t WorksheetType, subType string) (ContentVariant, error) {
	switch t {
	case WorksheetTypeActivity:
		return VariantActivity, nil
	case WorksheetTypeVisualSupport:
		switch subType {
		case SubTypeSocialStory:
			return VariantSocialStory, nil
		case SubTypeEmotionThermometer:
			return VariantEmotionThermometer, nil
		default:
			return VariantVisualSchedule, nil
		}
	case WorksheetTypeStructuredPlan:
		if subType == SubTypeDailyRoutine {
			return VariantDailyRoutine, nil
		}
		return VariantWeeklyPlan, nil
	default:
		return "", fmt.Errorf("unknown worksheet type: %s", t)
	}
}

// ActivityContent ACTIVITY 类型内容：有序小节，每节含有序活动
type ActivityContent struct {
	Title        string            `json:"title"`
	Introduction string            `json:"introduction,omitempty"`
	Sections     []ActivitySection `json:"sections"`
}

type ActivitySection struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Activities  []ActivityItem `json:"activities"`
}

type ActivityItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Instructions string   `json:"instructions"`
	Materials    []string `json:"materials,omitempty"`
	Rationale    string   `json:"rationale,omitempty"`
	EasierAdapt  string   `json:"easier_adaptation,omitempty"`
	HarderAdapt  string   `json:"harder_adaptation,omitempty"`
	ImagePrompt  string   `json:"image_prompt,omitempty"`
}

// VisualScheduleContent visual_schedule 变体：有序步骤
type VisualScheduleContent struct {
	Title string         `json:"title"`
	Steps []ScheduleStep `json:"steps"`
}

type ScheduleStep struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	ImagePrompt string `json:"image_prompt,omitempty"`
}

// SocialStoryContent social_story 变体：带句型标签的有序页面
type SocialStoryContent struct {
	Title string      `json:"title"`
	Pages []StoryPage `json:"pages"`
}

type StoryPage struct {
	ID           string       `json:"id"`
	Text         string       `json:"text"`
	SentenceType SentenceType `json:"sentence_type"`
	ImagePrompt  string       `json:"image_prompt,omitempty"`
}

// EmotionThermometerContent emotion_thermometer 变体：恰好 5 个强度层级
type EmotionThermometerContent struct {
	Title  string         `json:"title"`
	Levels []EmotionLevel `json:"levels"`
}

type EmotionLevel struct {
	ID          string   `json:"id"`
	Level       int      `json:"level"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Strategies  []string `json:"strategies,omitempty"`
	ImagePrompt string   `json:"image_prompt,omitempty"`
}

// WeeklyPlanContent weekly_plan 变体：7 个日桶，各含活动
type WeeklyPlanContent struct {
	Title string    `json:"title"`
	Days  []PlanDay `json:"days"`
}

type PlanDay struct {
	Day        string         `json:"day"`
	Theme      string         `json:"theme,omitempty"`
	Activities []PlanActivity `json:"activities"`
}

type PlanActivity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Duration    string `json:"duration,omitempty"`
	ImagePrompt string `json:"image_prompt,omitempty"`
}

// DailyRoutineContent daily_routine 变体：有序时间块 + 感官休息选项
type DailyRoutineContent struct {
	Title         string        `json:"title"`
	TimeBlocks    []TimeBlock   `json:"time_blocks"`
	SensoryBreaks []SensoryItem `json:"sensory_breaks,omitempty"`
}

type TimeBlock struct {
	ID                string    `json:"id"`
	Period            DayPeriod `json:"period"`
	TimeLabel         string    `json:"time_label,omitempty"`
	Activity          string    `json:"activity"`
	TransitionWarning string    `json:"transition_warning,omitempty"`
	ImagePrompt       string    `json:"image_prompt,omitempty"`
}

type SensoryItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ValidateContent 按变体对内容树做结构校验
// 每个变体的必备集合（sections/steps/pages/levels/days/time_blocks）
// 为空即拒绝，调用方应在落库前调用
func ValidateContent(variant ContentVariant, raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("content is empty")
	}

	switch variant {
	case VariantActivity:
		var c ActivityContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("activity content: %w", err)
		}
		if len(c.Sections) == 0 {
			return fmt.Errorf("activity content: sections must be non-empty")
		}
		for i, s := range c.Sections {
			if len(s.Activities) == 0 {
				return fmt.Errorf("activity content: section %d (%s) has no activities", i, s.Title)
			}
		}
		return nil

	case VariantVisualSchedule:
		var c VisualScheduleContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("visual schedule content: %w", err)
		}
		if len(c.Steps) == 0 {
			return fmt.Errorf("visual schedule content: steps must be non-empty")
		}
		return nil

	case VariantSocialStory:
		var c SocialStoryContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("social story content: %w", err)
		}
		if len(c.Pages) == 0 {
			return fmt.Errorf("social story content: pages must be non-empty")
		}
		for i, p := range c.Pages {
			if !validSentenceTypes[p.SentenceType] {
				return fmt.Errorf("social story content: page %d has invalid sentence_type %q", i, p.SentenceType)
			}
		}
		return nil

	case VariantEmotionThermometer:
		var c EmotionThermometerContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("emotion thermometer content: %w", err)
		}
		if len(c.Levels) != EmotionLevelCount {
			return fmt.Errorf("emotion thermometer content: expected exactly %d levels, got %d", EmotionLevelCount, len(c.Levels))
		}
		return nil

	case VariantWeeklyPlan:
		var c WeeklyPlanContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("weekly plan content: %w", err)
		}
		// 1 到 7 天均合法：家庭计划常只排到校周 5 天，不强制补满整周
		if len(c.Days) == 0 {
			return fmt.Errorf("weekly plan content: days must be non-empty")
		}
		if len(c.Days) > 7 {
			return fmt.Errorf("weekly plan content: at most 7 days, got %d", len(c.Days))
		}
		for i, d := range c.Days {
			if len(d.Activities) == 0 {
				return fmt.Errorf("weekly plan content: day %d (%s) has no activities", i, d.Day)
			}
		}
		return nil

	case VariantDailyRoutine:
		var c DailyRoutineContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("daily routine content: %w", err)
		}
		if len(c.TimeBlocks) == 0 {
			return fmt.Errorf("daily routine content: time_blocks must be non-empty")
		}
		return nil

	default:
		return fmt.Errorf("unknown content variant: %s", variant)
	}
}
