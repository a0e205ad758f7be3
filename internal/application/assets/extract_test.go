package assets

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upllyft-worksheet-api/internal/domain/entity"
)

func TestExtractImageTasksActivity(t *testing.T) {
	raw := json.RawMessage(`{
		"title": "Fine Motor Fun",
		"sections": [
			{"id": "sec-1", "title": "Warm up", "activities": [
				{"id": "act-1", "name": "Bead threading", "image_prompt": "a child threading beads"},
				{"id": "act-2", "name": "Coin drop"}
			]},
			{"id": "sec-2", "title": "Main", "activities": [
				{"id": "act-3", "name": "Scissor practice"}
			]}
		]
	}`)

	tasks, err := ExtractImageTasks(entity.VariantActivity, raw)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	// 顺序跟随内容树，提示词缺省回落到活动名
	assert.Equal(t, "act-1", tasks[0].NodeID)
	assert.Equal(t, "a child threading beads", tasks[0].Prompt)
	assert.Equal(t, "Bead threading", tasks[0].Label)
	assert.Equal(t, "Coin drop", tasks[1].Prompt)
	assert.Equal(t, "act-3", tasks[2].NodeID)
}

func TestExtractImageTasksActivityCap(t *testing.T) {
	var acts string
	for i := 0; i < 7; i++ {
		if i > 0 {
			acts += ","
		}
		acts += fmt.Sprintf(`{"id": "act-%d", "name": "Activity %d"}`, i, i)
	}
	raw := json.RawMessage(`{"sections": [{"id": "sec-1", "activities": [` + acts + `]}]}`)

	tasks, err := ExtractImageTasks(entity.VariantActivity, raw)
	require.NoError(t, err)
	assert.Len(t, tasks, activityImageCap)
	assert.Equal(t, "act-0", tasks[0].NodeID)
}

func TestExtractImageTasksVisualSchedule(t *testing.T) {
	raw := json.RawMessage(`{
		"title": "Morning Routine",
		"steps": [
			{"id": "step-1", "label": "Wake up", "image_prompt": "a child waking up"},
			{"id": "step-2", "label": "Brush teeth"}
		]
	}`)

	tasks, err := ExtractImageTasks(entity.VariantVisualSchedule, raw)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a child waking up", tasks[0].Prompt)
	assert.Equal(t, "Brush teeth", tasks[1].Prompt)
}

func TestExtractImageTasksSocialStory(t *testing.T) {
	raw := json.RawMessage(`{
		"pages": [
			{"id": "page-1", "text": "Sometimes the fire alarm rings.", "sentence_type": "descriptive"},
			{"id": "page-2", "text": "I can cover my ears.", "sentence_type": "directive", "image_prompt": "a child covering their ears"}
		]
	}`)

	tasks, err := ExtractImageTasks(entity.VariantSocialStory, raw)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Sometimes the fire alarm rings.", tasks[0].Prompt)
	assert.Equal(t, "a child covering their ears", tasks[1].Prompt)
}

func TestExtractImageTasksEmotionThermometer(t *testing.T) {
	raw := json.RawMessage(`{
		"levels": [
			{"id": "lvl-1", "level": 1, "label": "Calm"},
			{"id": "lvl-2", "level": 2, "label": "Okay"},
			{"id": "lvl-3", "level": 3, "label": "Worried"},
			{"id": "lvl-4", "level": 4, "label": "Upset"},
			{"id": "lvl-5", "level": 5, "label": "Overwhelmed"}
		]
	}`)

	tasks, err := ExtractImageTasks(entity.VariantEmotionThermometer, raw)
	require.NoError(t, err)
	require.Len(t, tasks, 5)
	assert.Equal(t, "Calm", tasks[0].Prompt)
	assert.Equal(t, "lvl-5", tasks[4].NodeID)
}

func TestExtractImageTasksWeeklyPlanFirstActivityPerDay(t *testing.T) {
	raw := json.RawMessage(`{
		"days": [
			{"day": "monday", "activities": [
				{"id": "a1", "name": "Playdough"},
				{"id": "a2", "name": "Story time"}
			]},
			{"day": "tuesday", "activities": []},
			{"day": "wednesday", "activities": [
				{"id": "a3", "name": "Obstacle course", "image_prompt": "a child crawling through a tunnel"}
			]}
		]
	}`)

	tasks, err := ExtractImageTasks(entity.VariantWeeklyPlan, raw)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a1", tasks[0].NodeID)
	assert.Equal(t, "a3", tasks[1].NodeID)
	assert.Equal(t, "a child crawling through a tunnel", tasks[1].Prompt)
}

func TestExtractImageTasksDailyRoutine(t *testing.T) {
	raw := json.RawMessage(`{
		"time_blocks": [
			{"id": "tb-1", "period": "morning", "activity": "Breakfast"},
			{"id": "tb-2", "period": "afternoon", "activity": "Nap time", "image_prompt": "a child sleeping"}
		]
	}`)

	tasks, err := ExtractImageTasks(entity.VariantDailyRoutine, raw)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Breakfast", tasks[0].Prompt)
	assert.Equal(t, "a child sleeping", tasks[1].Prompt)
}

func TestExtractImageTasksDefaultCap(t *testing.T) {
	var steps string
	for i := 0; i < 12; i++ {
		if i > 0 {
			steps += ","
		}
		steps += fmt.Sprintf(`{"id": "step-%d", "label": "Step %d"}`, i, i)
	}
	raw := json.RawMessage(`{"steps": [` + steps + `]}`)

	tasks, err := ExtractImageTasks(entity.VariantVisualSchedule, raw)
	require.NoError(t, err)
	assert.Len(t, tasks, defaultImageCap)
}

func TestExtractImageTasksErrors(t *testing.T) {
	_, err := ExtractImageTasks(entity.ContentVariant("bogus"), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content variant")

	_, err = ExtractImageTasks(entity.VariantActivity, json.RawMessage(`not json`))
	require.Error(t, err)
}
