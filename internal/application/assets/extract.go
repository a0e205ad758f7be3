// Package assets 资产流水线：插图、文档渲染与对象存储上传
package assets

import (
	"encoding/json"
	"fmt"

	"upllyft-worksheet-api/internal/domain/entity"
)

// 各类型的插图数量上限（外部图像服务限流约束）
const (
	activityImageCap = 5
	defaultImageCap  = 8
)

// ImageTask 一次插图请求：内容节点、原始提示词与展示标签
type ImageTask struct {
	NodeID string
	Prompt string
	Label  string
}

// ExtractImageTasks 按内容变体抽取待插图节点，保持内容树内顺序
// 规则：ACTIVITY 取每个活动；VISUAL_SUPPORT 取步骤/页面/层级；
// STRUCTURED_PLAN 的周计划取每日首个活动、日常作息取时间块
func ExtractImageTasks(variant entity.ContentVariant, raw json.RawMessage) ([]ImageTask, error) {
	var tasks []ImageTask

	switch variant {
	case entity.VariantActivity:
		var c entity.ActivityContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		for _, s := range c.Sections {
			for _, a := range s.Activities {
				tasks = append(tasks, ImageTask{
					NodeID: a.ID,
					Prompt: firstNonEmpty(a.ImagePrompt, a.Name),
					Label:  a.Name,
				})
			}
		}
		return capTasks(tasks, activityImageCap), nil

	case entity.VariantVisualSchedule:
		var c entity.VisualScheduleContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		for _, s := range c.Steps {
			tasks = append(tasks, ImageTask{
				NodeID: s.ID,
				Prompt: firstNonEmpty(s.ImagePrompt, s.Label),
				Label:  s.Label,
			})
		}
		return capTasks(tasks, defaultImageCap), nil

	case entity.VariantSocialStory:
		var c entity.SocialStoryContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		for _, p := range c.Pages {
			tasks = append(tasks, ImageTask{
				NodeID: p.ID,
				Prompt: firstNonEmpty(p.ImagePrompt, p.Text),
				Label:  p.Text,
			})
		}
		return capTasks(tasks, defaultImageCap), nil

	case entity.VariantEmotionThermometer:
		var c entity.EmotionThermometerContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		for _, l := range c.Levels {
			tasks = append(tasks, ImageTask{
				NodeID: l.ID,
				Prompt: firstNonEmpty(l.ImagePrompt, l.Label),
				Label:  l.Label,
			})
		}
		return capTasks(tasks, defaultImageCap), nil

	case entity.VariantWeeklyPlan:
		var c entity.WeeklyPlanContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		// 每日只取首个活动，控制整表插图开销
		for _, d := range c.Days {
			if len(d.Activities) == 0 {
				continue
			}
			a := d.Activities[0]
			tasks = append(tasks, ImageTask{
				NodeID: a.ID,
				Prompt: firstNonEmpty(a.ImagePrompt, a.Name),
				Label:  a.Name,
			})
		}
		return capTasks(tasks, defaultImageCap), nil

	case entity.VariantDailyRoutine:
		var c entity.DailyRoutineContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		for _, b := range c.TimeBlocks {
			tasks = append(tasks, ImageTask{
				NodeID: b.ID,
				Prompt: firstNonEmpty(b.ImagePrompt, b.Activity),
				Label:  b.Activity,
			})
		}
		return capTasks(tasks, defaultImageCap), nil

	default:
		return nil, fmt.Errorf("unknown content variant: %s", variant)
	}
}

func capTasks(tasks []ImageTask, limit int) []ImageTask {
	if len(tasks) > limit {
		return tasks[:limit]
	}
	return tasks
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
