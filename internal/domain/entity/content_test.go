package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantFor(t *testing.T) {
	tests := []struct {
		name    string
		wsType  WorksheetType
		subType string
		want    ContentVariant
		wantErr bool
	}{
		{name: "activity any subtype", wsType: WorksheetTypeActivity, subType: SubTypeFineMotor, want: VariantActivity},
		{name: "visual support schedule", wsType: WorksheetTypeVisualSupport, subType: SubTypeVisualSchedule, want: VariantVisualSchedule},
		{name: "visual support social story", wsType: WorksheetTypeVisualSupport, subType: SubTypeSocialStory, want: VariantSocialStory},
		{name: "visual support thermometer", wsType: WorksheetTypeVisualSupport, subType: SubTypeEmotionThermometer, want: VariantEmotionThermometer},
		{name: "visual support unknown subtype falls back to schedule", wsType: WorksheetTypeVisualSupport, subType: "whatever", want: VariantVisualSchedule},
		{name: "structured plan weekly", wsType: WorksheetTypeStructuredPlan, subType: SubTypeWeeklyPlan, want: VariantWeeklyPlan},
		{name: "structured plan daily routine", wsType: WorksheetTypeStructuredPlan, subType: SubTypeDailyRoutine, want: VariantDailyRoutine},
		{name: "structured plan unknown subtype falls back to weekly", wsType: WorksheetTypeStructuredPlan, subType: "monthly", want: VariantWeeklyPlan},
		{name: "unknown type", wsType: "PUZZLE", subType: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VariantFor(tt.wsType, tt.subType)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func validActivityJSON() json.RawMessage {
	c := ActivityContent{
		Title:        "Fine Motor Fun",
		Introduction: "Warm up those fingers.",
		Sections: []ActivitySection{
			{
				ID:    "sec-1",
				Title: "Pincer Grasp",
				Activities: []ActivityItem{
					{ID: "act-1", Name: "Bead threading", Instructions: "Thread 5 beads onto the string.", Materials: []string{"beads", "string"}},
					{ID: "act-2", Name: "Coin drop", Instructions: "Drop coins into the slot one at a time."},
				},
			},
		},
	}
	raw, _ := json.Marshal(c)
	return raw
}

func thermometerJSON(levels int) json.RawMessage {
	c := EmotionThermometerContent{Title: "My Feelings"}
	labels := []string{"Calm", "Okay", "Wobbly", "Upset", "Exploding"}
	for i := 0; i < levels; i++ {
		label := "Level"
		if i < len(labels) {
			label = labels[i]
		}
		c.Levels = append(c.Levels, EmotionLevel{ID: "lvl-" + label, Level: i + 1, Label: label})
	}
	raw, _ := json.Marshal(c)
	return raw
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		variant ContentVariant
		raw     json.RawMessage
		wantErr string
	}{
		{name: "empty content", variant: VariantActivity, raw: nil, wantErr: "empty"},
		{name: "valid activity", variant: VariantActivity, raw: validActivityJSON()},
		{name: "activity without sections", variant: VariantActivity, raw: json.RawMessage(`{"title":"t","sections":[]}`), wantErr: "sections must be non-empty"},
		{
			name:    "activity section without activities",
			variant: VariantActivity,
			raw:     json.RawMessage(`{"title":"t","sections":[{"id":"s1","title":"Empty","activities":[]}]}`),
			wantErr: "has no activities",
		},
		{
			name:    "valid visual schedule",
			variant: VariantVisualSchedule,
			raw:     json.RawMessage(`{"title":"Morning","steps":[{"id":"st-1","label":"Wake up"}]}`),
		},
		{name: "visual schedule without steps", variant: VariantVisualSchedule, raw: json.RawMessage(`{"title":"t","steps":[]}`), wantErr: "steps must be non-empty"},
		{
			name:    "valid social story",
			variant: VariantSocialStory,
			raw:     json.RawMessage(`{"title":"Going to school","pages":[{"id":"p1","text":"I go to school.","sentence_type":"descriptive"}]}`),
		},
		{name: "social story without pages", variant: VariantSocialStory, raw: json.RawMessage(`{"title":"t","pages":[]}`), wantErr: "pages must be non-empty"},
		{
			name:    "social story with invalid sentence type",
			variant: VariantSocialStory,
			raw:     json.RawMessage(`{"title":"t","pages":[{"id":"p1","text":"x","sentence_type":"interrogative"}]}`),
			wantErr: "invalid sentence_type",
		},
		{name: "valid thermometer", variant: VariantEmotionThermometer, raw: thermometerJSON(5)},
		{name: "thermometer with four levels", variant: VariantEmotionThermometer, raw: thermometerJSON(4), wantErr: "exactly 5 levels"},
		{name: "thermometer with six levels", variant: VariantEmotionThermometer, raw: thermometerJSON(6), wantErr: "exactly 5 levels"},
		{
			name:    "valid weekly plan",
			variant: VariantWeeklyPlan,
			raw:     json.RawMessage(`{"title":"Week","days":[{"day":"monday","activities":[{"id":"a1","name":"Drawing"}]}]}`),
		},
		{
			name:    "weekly plan covering school week only",
			variant: VariantWeeklyPlan,
			raw: json.RawMessage(`{"title":"School Week","days":[
				{"day":"monday","activities":[{"id":"a"}]},{"day":"tuesday","activities":[{"id":"a"}]},
				{"day":"wednesday","activities":[{"id":"a"}]},{"day":"thursday","activities":[{"id":"a"}]},
				{"day":"friday","activities":[{"id":"a"}]}]}`),
		},
		{name: "weekly plan without days", variant: VariantWeeklyPlan, raw: json.RawMessage(`{"title":"t","days":[]}`), wantErr: "days must be non-empty"},
		{
			name:    "weekly plan with eight days",
			variant: VariantWeeklyPlan,
			raw: json.RawMessage(`{"title":"t","days":[
				{"day":"d1","activities":[{"id":"a"}]},{"day":"d2","activities":[{"id":"a"}]},
				{"day":"d3","activities":[{"id":"a"}]},{"day":"d4","activities":[{"id":"a"}]},
				{"day":"d5","activities":[{"id":"a"}]},{"day":"d6","activities":[{"id":"a"}]},
				{"day":"d7","activities":[{"id":"a"}]},{"day":"d8","activities":[{"id":"a"}]}]}`),
			wantErr: "at most 7 days",
		},
		{
			name:    "weekly plan day without activities",
			variant: VariantWeeklyPlan,
			raw:     json.RawMessage(`{"title":"t","days":[{"day":"monday","activities":[]}]}`),
			wantErr: "has no activities",
		},
		{
			name:    "valid daily routine",
			variant: VariantDailyRoutine,
			raw:     json.RawMessage(`{"title":"My Day","time_blocks":[{"id":"tb-1","period":"morning","activity":"Breakfast"}]}`),
		},
		{name: "daily routine without blocks", variant: VariantDailyRoutine, raw: json.RawMessage(`{"title":"t","time_blocks":[]}`), wantErr: "time_blocks must be non-empty"},
		{name: "unknown variant", variant: "poster", raw: json.RawMessage(`{}`), wantErr: "unknown content variant"},
		{name: "malformed json", variant: VariantActivity, raw: json.RawMessage(`{"sections":`), wantErr: "activity content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(tt.variant, tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
