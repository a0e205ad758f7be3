package entity

import (
	"encoding/json"
	"fmt"
)

// CollectNodeIDs 按变体收集内容树中全部可寻址节点 id，按出现顺序返回
func CollectNodeIDs(variant ContentVariant, raw json.RawMessage) ([]string, error) {
	switch variant {
	case VariantActivity:
		var c ActivityContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		var ids []string
		for _, s := range c.Sections {
			ids = append(ids, s.ID)
			for _, a := range s.Activities {
				ids = append(ids, a.ID)
			}
		}
		return ids, nil

	case VariantVisualSchedule:
		var c VisualScheduleContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		var ids []string
		for _, s := range c.Steps {
			ids = append(ids, s.ID)
		}
		return ids, nil

	case VariantSocialStory:
		var c SocialStoryContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		var ids []string
		for _, p := range c.Pages {
			ids = append(ids, p.ID)
		}
		return ids, nil

	case VariantEmotionThermometer:
		var c EmotionThermometerContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		var ids []string
		for _, l := range c.Levels {
			ids = append(ids, l.ID)
		}
		return ids, nil

	case VariantWeeklyPlan:
		var c WeeklyPlanContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		var ids []string
		for _, d := range c.Days {
			// 日桶以星期名寻址
			ids = append(ids, d.Day)
			for _, a := range d.Activities {
				ids = append(ids, a.ID)
			}
		}
		return ids, nil

	case VariantDailyRoutine:
		var c DailyRoutineContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		var ids []string
		for _, b := range c.TimeBlocks {
			ids = append(ids, b.ID)
		}
		return ids, nil

	default:
		return nil, fmt.Errorf("unknown content variant: %s", variant)
	}
}

// ExtractNode 取出指定节点的 JSON，供重生成提示词使用
func ExtractNode(variant ContentVariant, raw json.RawMessage, nodeID string) (json.RawMessage, error) {
	node, _, err := locateNode(variant, raw, nodeID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(node)
}

// ReplaceNode 用 replacement 替换指定节点，返回替换后的内容树
// replacement 必须与原节点同构（结构校验由调用方在替换后兜底）
func ReplaceNode(variant ContentVariant, raw json.RawMessage, nodeID string, replacement json.RawMessage) (json.RawMessage, error) {
	_, replace, err := locateNode(variant, raw, nodeID)
	if err != nil {
		return nil, err
	}
	return replace(replacement)
}

// locateNode 在内容树中定位节点，返回节点值与替换函数
// 用 map 形态遍历以保持各变体共用一套寻址逻辑
func locateNode(variant ContentVariant, raw json.RawMessage, nodeID string) (any, func(json.RawMessage) (json.RawMessage, error), error) {
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, nil, err
	}

	topKey, nestedKey, idField := nodeAddressing(variant)
	if topKey == "" {
		return nil, nil, fmt.Errorf("unknown content variant: %s", variant)
	}

	items, _ := tree[topKey].([]any)
	for i, it := range items {
		node, _ := it.(map[string]any)
		if node == nil {
			continue
		}
		if id, _ := node[idField].(string); id == nodeID {
			idx := i
			return node, func(replacement json.RawMessage) (json.RawMessage, error) {
				var repl map[string]any
				if err := json.Unmarshal(replacement, &repl); err != nil {
					return nil, err
				}
				items[idx] = repl
				return json.Marshal(tree)
			}, nil
		}
		if nestedKey == "" {
			continue
		}
		children, _ := node[nestedKey].([]any)
		for j, ch := range children {
			child, _ := ch.(map[string]any)
			if child == nil {
				continue
			}
			if id, _ := child["id"].(string); id == nodeID {
				idx := j
				return child, func(replacement json.RawMessage) (json.RawMessage, error) {
					var repl map[string]any
					if err := json.Unmarshal(replacement, &repl); err != nil {
						return nil, err
					}
					children[idx] = repl
					return json.Marshal(tree)
				}, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("node %s not found in %s content", nodeID, variant)
}

// nodeAddressing 每个变体的集合键与 id 字段
func nodeAddressing(variant ContentVariant) (topKey, nestedKey, idField string) {
	switch variant {
	case VariantActivity:
		return "sections", "activities", "id"
	case VariantVisualSchedule:
		return "steps", "", "id"
	case VariantSocialStory:
		return "pages", "", "id"
	case VariantEmotionThermometer:
		return "levels", "", "id"
	case VariantWeeklyPlan:
		return "days", "activities", "day"
	case VariantDailyRoutine:
		return "time_blocks", "", "id"
	default:
		return "", "", ""
	}
}
