package chain

import "upllyft-worksheet-api/internal/domain/entity"

// contentJSONSchema 返回各内容变体的 response_format schema。
// 说明：schema 以“最小可用”为目标，避免过度约束导致模型输出失败；
// 结构校验最终由 entity.ValidateContent 兜底。
func contentJSONSchema(variant entity.ContentVariant) map[string]any {
	switch variant {
	case entity.VariantActivity:
		return activityJSONSchema()
	case entity.VariantVisualSchedule:
		return visualScheduleJSONSchema()
	case entity.VariantSocialStory:
		return socialStoryJSONSchema()
	case entity.VariantEmotionThermometer:
		return emotionThermometerJSONSchema()
	case entity.VariantWeeklyPlan:
		return weeklyPlanJSONSchema()
	case entity.VariantDailyRoutine:
		return dailyRoutineJSONSchema()
	default:
		return nil
	}
}

func stringProp() map[string]any { return map[string]any{"type": "string"} }

func stringArrayProp() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func activityJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "sections"},
		"properties": map[string]any{
			"title":        stringProp(),
			"introduction": stringProp(),
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"id", "title", "activities"},
					"properties": map[string]any{
						"id":          stringProp(),
						"title":       stringProp(),
						"description": stringProp(),
						"activities": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":                 "object",
								"additionalProperties": false,
								"required":             []any{"id", "name", "instructions"},
								"properties": map[string]any{
									"id":                stringProp(),
									"name":              stringProp(),
									"instructions":      stringProp(),
									"materials":         stringArrayProp(),
									"rationale":         stringProp(),
									"easier_adaptation": stringProp(),
									"harder_adaptation": stringProp(),
									"image_prompt":      stringProp(),
								},
							},
						},
					},
				},
			},
		},
	}
}

func visualScheduleJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "steps"},
		"properties": map[string]any{
			"title": stringProp(),
			"steps": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"id", "label"},
					"properties": map[string]any{
						"id":           stringProp(),
						"label":        stringProp(),
						"description":  stringProp(),
						"image_prompt": stringProp(),
					},
				},
			},
		},
	}
}

func socialStoryJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "pages"},
		"properties": map[string]any{
			"title": stringProp(),
			"pages": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"id", "text", "sentence_type"},
					"properties": map[string]any{
						"id":   stringProp(),
						"text": stringProp(),
						"sentence_type": map[string]any{
							"type": "string",
							"enum": []any{"descriptive", "perspective", "affirmative", "directive", "cooperative"},
						},
						"image_prompt": stringProp(),
					},
				},
			},
		},
	}
}

func emotionThermometerJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "levels"},
		"properties": map[string]any{
			"title": stringProp(),
			"levels": map[string]any{
				"type":     "array",
				"minItems": entity.EmotionLevelCount,
				"maxItems": entity.EmotionLevelCount,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"id", "level", "label"},
					"properties": map[string]any{
						"id":           stringProp(),
						"level":        map[string]any{"type": "integer"},
						"label":        stringProp(),
						"description":  stringProp(),
						"strategies":   stringArrayProp(),
						"image_prompt": stringProp(),
					},
				},
			},
		},
	}
}

func weeklyPlanJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "days"},
		"properties": map[string]any{
			"title": stringProp(),
			"days": map[string]any{
				"type":     "array",
				"maxItems": 7,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"day", "activities"},
					"properties": map[string]any{
						"day":   stringProp(),
						"theme": stringProp(),
						"activities": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":                 "object",
								"additionalProperties": false,
								"required":             []any{"id", "name"},
								"properties": map[string]any{
									"id":           stringProp(),
									"name":         stringProp(),
									"description":  stringProp(),
									"duration":     stringProp(),
									"image_prompt": stringProp(),
								},
							},
						},
					},
				},
			},
		},
	}
}

func dailyRoutineJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "time_blocks"},
		"properties": map[string]any{
			"title": stringProp(),
			"time_blocks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"id", "period", "activity"},
					"properties": map[string]any{
						"id": stringProp(),
						"period": map[string]any{
							"type": "string",
							"enum": []any{"morning", "afternoon", "evening"},
						},
						"time_label":         stringProp(),
						"activity":           stringProp(),
						"transition_warning": stringProp(),
						"image_prompt":       stringProp(),
					},
				},
			},
			"sensory_breaks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"name"},
					"properties": map[string]any{
						"name":        stringProp(),
						"description": stringProp(),
					},
				},
			},
		},
	}
}

// justificationsJSONSchema 推荐说明链的输出 schema
func justificationsJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"justifications"},
		"properties": map[string]any{
			"justifications": stringArrayProp(),
		},
	}
}
