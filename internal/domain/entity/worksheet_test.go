package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDifficultyStep(t *testing.T) {
	tests := []struct {
		name  string
		from  Difficulty
		delta int
		want  Difficulty
	}{
		{name: "step up", from: DifficultyFoundational, delta: 1, want: DifficultyDeveloping},
		{name: "step down", from: DifficultyStrengthening, delta: -1, want: DifficultyDeveloping},
		{name: "no step", from: DifficultyDeveloping, delta: 0, want: DifficultyDeveloping},
		{name: "clamped at top", from: DifficultyStrengthening, delta: 1, want: DifficultyStrengthening},
		{name: "clamped at bottom", from: DifficultyFoundational, delta: -1, want: DifficultyFoundational},
		{name: "unknown difficulty treated as lowest", from: "EXPERT", delta: 1, want: DifficultyDeveloping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.Step(tt.delta))
		})
	}
}

func TestDifficultyRank(t *testing.T) {
	assert.Equal(t, 0, DifficultyFoundational.Rank())
	assert.Equal(t, 1, DifficultyDeveloping.Rank())
	assert.Equal(t, 2, DifficultyStrengthening.Rank())
	assert.Equal(t, 0, Difficulty("").Rank())
}

func TestWorksheetAverageRating(t *testing.T) {
	ws := &Worksheet{}
	assert.Zero(t, ws.AverageRating())

	ws.RatingSum = 9
	ws.ReviewCount = 2
	assert.InDelta(t, 4.5, ws.AverageRating(), 0.001)
}

func TestWorksheetIsDownloadable(t *testing.T) {
	tests := []struct {
		name   string
		status WorksheetStatus
		pdfURL string
		want   bool
	}{
		{name: "published with pdf", status: StatusPublished, pdfURL: "https://cdn/x.pdf", want: true},
		{name: "flagged keeps pdf accessible", status: StatusFlagged, pdfURL: "https://cdn/x.pdf", want: true},
		{name: "published without pdf", status: StatusPublished, want: false},
		{name: "generating", status: StatusGenerating, pdfURL: "https://cdn/x.pdf", want: false},
		{name: "archived", status: StatusArchived, pdfURL: "https://cdn/x.pdf", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := &Worksheet{Status: tt.status, PDFURL: tt.pdfURL}
			assert.Equal(t, tt.want, ws.IsDownloadable())
		})
	}
}

func TestWorksheetAgeFits(t *testing.T) {
	ws := &Worksheet{AgeRangeMin: 36, AgeRangeMax: 60}
	assert.True(t, ws.AgeFits(36))
	assert.True(t, ws.AgeFits(48))
	assert.True(t, ws.AgeFits(60))
	assert.False(t, ws.AgeFits(35))
	assert.False(t, ws.AgeFits(61))

	unset := &Worksheet{}
	assert.False(t, unset.AgeFits(48))
}

func TestDefaultSubType(t *testing.T) {
	assert.Equal(t, SubTypeFineMotor, DefaultSubType(WorksheetTypeActivity))
	assert.Equal(t, SubTypeVisualSchedule, DefaultSubType(WorksheetTypeVisualSupport))
	assert.Equal(t, SubTypeWeeklyPlan, DefaultSubType(WorksheetTypeStructuredPlan))
}
