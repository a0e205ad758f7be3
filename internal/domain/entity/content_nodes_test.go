package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectNodeIDs(t *testing.T) {
	tests := []struct {
		name    string
		variant ContentVariant
		raw     json.RawMessage
		want    []string
	}{
		{
			name:    "activity collects sections and nested activities in order",
			variant: VariantActivity,
			raw:     validActivityJSON(),
			want:    []string{"sec-1", "act-1", "act-2"},
		},
		{
			name:    "visual schedule collects steps",
			variant: VariantVisualSchedule,
			raw:     json.RawMessage(`{"steps":[{"id":"st-1"},{"id":"st-2"}]}`),
			want:    []string{"st-1", "st-2"},
		},
		{
			name:    "weekly plan addresses days by weekday name",
			variant: VariantWeeklyPlan,
			raw:     json.RawMessage(`{"days":[{"day":"monday","activities":[{"id":"a1"},{"id":"a2"}]},{"day":"tuesday","activities":[{"id":"a3"}]}]}`),
			want:    []string{"monday", "a1", "a2", "tuesday", "a3"},
		},
		{
			name:    "daily routine collects time blocks",
			variant: VariantDailyRoutine,
			raw:     json.RawMessage(`{"time_blocks":[{"id":"tb-1"},{"id":"tb-2"}]}`),
			want:    []string{"tb-1", "tb-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CollectNodeIDs(tt.variant, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown variant", func(t *testing.T) {
		_, err := CollectNodeIDs("poster", json.RawMessage(`{}`))
		require.Error(t, err)
	})
}

func TestExtractNode(t *testing.T) {
	raw := validActivityJSON()

	t.Run("top-level section", func(t *testing.T) {
		node, err := ExtractNode(VariantActivity, raw, "sec-1")
		require.NoError(t, err)

		var sec map[string]any
		require.NoError(t, json.Unmarshal(node, &sec))
		assert.Equal(t, "Pincer Grasp", sec["title"])
	})

	t.Run("nested activity", func(t *testing.T) {
		node, err := ExtractNode(VariantActivity, raw, "act-2")
		require.NoError(t, err)

		var act map[string]any
		require.NoError(t, json.Unmarshal(node, &act))
		assert.Equal(t, "Coin drop", act["name"])
	})

	t.Run("weekly day bucket by name", func(t *testing.T) {
		weekly := json.RawMessage(`{"days":[{"day":"monday","theme":"Motor","activities":[{"id":"a1","name":"Hop"}]}]}`)
		node, err := ExtractNode(VariantWeeklyPlan, weekly, "monday")
		require.NoError(t, err)

		var day map[string]any
		require.NoError(t, json.Unmarshal(node, &day))
		assert.Equal(t, "Motor", day["theme"])
	})

	t.Run("missing node", func(t *testing.T) {
		_, err := ExtractNode(VariantActivity, raw, "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestReplaceNode(t *testing.T) {
	t.Run("replaces nested activity and keeps siblings", func(t *testing.T) {
		raw := validActivityJSON()
		replacement := json.RawMessage(`{"id":"act-2","name":"Button sorting","instructions":"Sort buttons by size."}`)

		updated, err := ReplaceNode(VariantActivity, raw, "act-2", replacement)
		require.NoError(t, err)

		var c ActivityContent
		require.NoError(t, json.Unmarshal(updated, &c))
		require.Len(t, c.Sections, 1)
		require.Len(t, c.Sections[0].Activities, 2)
		assert.Equal(t, "Bead threading", c.Sections[0].Activities[0].Name)
		assert.Equal(t, "Button sorting", c.Sections[0].Activities[1].Name)

		// 替换后仍通过结构校验
		require.NoError(t, ValidateContent(VariantActivity, updated))
	})

	t.Run("replaces top-level step", func(t *testing.T) {
		raw := json.RawMessage(`{"title":"Morning","steps":[{"id":"st-1","label":"Wake up"},{"id":"st-2","label":"Brush teeth"}]}`)
		replacement := json.RawMessage(`{"id":"st-2","label":"Get dressed"}`)

		updated, err := ReplaceNode(VariantVisualSchedule, raw, "st-2", replacement)
		require.NoError(t, err)

		var c VisualScheduleContent
		require.NoError(t, json.Unmarshal(updated, &c))
		require.Len(t, c.Steps, 2)
		assert.Equal(t, "Get dressed", c.Steps[1].Label)
	})

	t.Run("missing node", func(t *testing.T) {
		_, err := ReplaceNode(VariantVisualSchedule, json.RawMessage(`{"steps":[{"id":"st-1"}]}`), "st-9", json.RawMessage(`{"id":"st-9"}`))
		require.Error(t, err)
	})

	t.Run("replacement must be a json object", func(t *testing.T) {
		raw := json.RawMessage(`{"steps":[{"id":"st-1","label":"x"}]}`)
		_, err := ReplaceNode(VariantVisualSchedule, raw, "st-1", json.RawMessage(`"just a string"`))
		require.Error(t, err)
	})
}
