package worksheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upllyft-worksheet-api/internal/domain/entity"
)

const validScheduleJSON = `{"title":"Morning Routine","steps":[{"id":"st-1","label":"Wake up"},{"id":"st-2","label":"Get dressed"}]}`

func TestParseContent(t *testing.T) {
	tests := []struct {
		name      string
		variant   entity.ContentVariant
		raw       string
		wantTitle string
		wantErr   bool
	}{
		{
			name:      "plain json",
			variant:   entity.VariantVisualSchedule,
			raw:       validScheduleJSON,
			wantTitle: "Morning Routine",
		},
		{
			name:      "json wrapped in code fence",
			variant:   entity.VariantVisualSchedule,
			raw:       "```json\n" + validScheduleJSON + "\n```",
			wantTitle: "Morning Routine",
		},
		{
			name:      "json with model chatter around it",
			variant:   entity.VariantVisualSchedule,
			raw:       "Here is the worksheet you asked for:\n" + validScheduleJSON + "\nLet me know if you need changes.",
			wantTitle: "Morning Routine",
		},
		{
			name:    "empty output",
			variant: entity.VariantVisualSchedule,
			raw:     "",
			wantErr: true,
		},
		{
			name:    "not json at all",
			variant: entity.VariantVisualSchedule,
			raw:     "I could not generate the worksheet.",
			wantErr: true,
		},
		{
			name:    "valid json failing structural validation",
			variant: entity.VariantVisualSchedule,
			raw:     `{"title":"Empty","steps":[]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, title, err := parseContent(tt.variant, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, title)
			require.NoError(t, entity.ValidateContent(tt.variant, content))
		})
	}
}

func TestBuildCustomInstructions(t *testing.T) {
	params := &GenerateParams{
		Setting:             "clinic",
		Difficulty:          entity.DifficultyFoundational,
		Duration:            entity.DurationShort,
		SpecialInstructions: "  avoid food-based materials  ",
	}

	out := buildCustomInstructions(params)
	assert.Contains(t, out, "Setting where the worksheet will be used: clinic")
	assert.Contains(t, out, "FOUNDATIONAL")
	assert.Contains(t, out, "about 10 minutes")
	assert.Contains(t, out, "avoid food-based materials")

	// 全部为空时不产生附加块
	assert.Empty(t, buildCustomInstructions(&GenerateParams{}))
}

func TestAgePhrase(t *testing.T) {
	tests := []struct {
		months int
		want   string
	}{
		{months: 0, want: ""},
		{months: -3, want: ""},
		{months: 8, want: "8 months"},
		{months: 24, want: "2 years"},
		{months: 30, want: "2 years 6 months"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AgePhrase(tt.months))
	}
}

func TestGenerationContextBrief(t *testing.T) {
	gc := &GenerationContext{
		ChildAgeMonths: 42,
		Conditions:     []string{"autism_spectrum"},
		Interests:      []string{"trains"},
		Notes:          "responds well to visual timers",
		FlaggedDomains: []DomainFinding{
			{Domain: entity.DomainLanguage, Score: 22, Cutoff: 30},
		},
		GoalTexts: []GoalContext{
			{Domain: entity.DomainFineMotor, GoalText: "Cut along a line", Progress: 25},
		},
		SessionNotes: []SessionContext{
			{Summary: "Practiced scissors", DateLabel: "2026-08-20", Progress: []string{"held scissors correctly"}},
		},
	}

	brief := gc.Brief()
	assert.Equal(t, 42, brief.ChildAgeMonths)
	require.Len(t, brief.GoalLines, 1)
	assert.Contains(t, brief.GoalLines[0], "[fine_motor] Cut along a line")
	assert.Contains(t, brief.GoalLines[0], "progress 25%")
	require.Len(t, brief.SessionLines, 2)
	assert.Contains(t, brief.SessionLines[0], "2026-08-20: Practiced scissors")
	assert.Contains(t, brief.SessionLines[1], "Developmental notes")
	require.Len(t, brief.ScreeningLines, 1)
	assert.Contains(t, brief.ScreeningLines[0], "language scored 22.0")
}
