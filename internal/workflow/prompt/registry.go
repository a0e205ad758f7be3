package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"upllyft-worksheet-api/internal/domain/entity"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptActivityV1           PromptID = "worksheet_activity_v1"
	PromptVisualScheduleV1     PromptID = "worksheet_visual_schedule_v1"
	PromptSocialStoryV1        PromptID = "worksheet_social_story_v1"
	PromptEmotionThermometerV1 PromptID = "worksheet_emotion_thermometer_v1"
	PromptWeeklyPlanV1         PromptID = "worksheet_weekly_plan_v1"
	PromptDailyRoutineV1       PromptID = "worksheet_daily_routine_v1"
	PromptSectionRegenV1       PromptID = "section_regen_v1"
	PromptRecommendJustifyV1   PromptID = "recommend_justify_v1"
	PromptReportExtractV1      PromptID = "report_extract_v1"
)

// PromptForVariant 按内容变体选择生成提示词
func PromptForVariant(v entity.ContentVariant) (PromptID, error) {
	switch v {
	case entity.VariantActivity:
		return PromptActivityV1, nil
	case entity.VariantVisualSchedule:
		return PromptVisualScheduleV1, nil
	case entity.VariantSocialStory:
		return PromptSocialStoryV1, nil
	case entity.VariantEmotionThermometer:
		return PromptEmotionThermometerV1, nil
	case entity.VariantWeeklyPlan:
		return PromptWeeklyPlanV1, nil
	case entity.VariantDailyRoutine:
		return PromptDailyRoutineV1, nil
	default:
		return "", fmt.Errorf("no prompt for content variant: %s", v)
	}
}

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

// RawTexts 返回模板原文（system, user），供不经 Eino 的调用方使用（如视觉报告解析）
func (r *Registry) RawTexts(id PromptID) (string, string, error) {
	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return "", "", err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return "", "", err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptActivityV1, PromptVisualScheduleV1, PromptSocialStoryV1,
		PromptEmotionThermometerV1, PromptWeeklyPlanV1, PromptDailyRoutineV1,
		PromptSectionRegenV1, PromptRecommendJustifyV1, PromptReportExtractV1:
		base := "templates/" + string(id)
		return base + ".system.txt", base + ".user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
