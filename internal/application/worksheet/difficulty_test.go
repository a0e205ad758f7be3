package worksheet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upllyft-worksheet-api/internal/domain/entity"
	apperrors "upllyft-worksheet-api/pkg/errors"
)

func intPtr(v int) *int { return &v }

func completionAt(age time.Duration, difficulty entity.Difficulty, quality entity.CompletionQuality, rating *int) *entity.WorksheetCompletion {
	return &entity.WorksheetCompletion{
		WorksheetID: "ws-1",
		ChildID:     "child-1",
		Difficulty:  difficulty,
		Quality:     quality,
		Rating:      rating,
		CompletedAt: time.Now().Add(-age),
	}
}

func newTestAdvisor(completions ...*entity.WorksheetCompletion) *DifficultyAdvisor {
	clinical := newFakeClinicalRepo()
	clinical.children["child-1"] = &entity.Child{ID: "child-1", BirthDate: ageInMonths(48)}

	compRepo := &fakeCompletionRepo{}
	for _, c := range completions {
		_ = compRepo.Create(context.Background(), c)
	}
	return NewDifficultyAdvisor(compRepo, clinical)
}

func TestSuggestNoHistory(t *testing.T) {
	a := newTestAdvisor()
	s, err := a.Suggest(context.Background(), "child-1", "")
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyFoundational, s.Suggested)
	assert.Zero(t, s.Completions)
	assert.Contains(t, s.Basis, "foundational")
}

func TestSuggestSignals(t *testing.T) {
	tests := []struct {
		name        string
		completions []*entity.WorksheetCompletion
		want        entity.Difficulty
		basis       string
	}{
		{
			name: "too easy dominant steps up",
			completions: []*entity.WorksheetCompletion{
				completionAt(1*time.Hour, entity.DifficultyFoundational, entity.QualityTooEasy, nil),
				completionAt(2*time.Hour, entity.DifficultyFoundational, entity.QualityTooEasy, nil),
				completionAt(3*time.Hour, entity.DifficultyFoundational, entity.QualityJustRight, nil),
			},
			want:  entity.DifficultyDeveloping,
			basis: "too easy",
		},
		{
			name: "low average rating steps up",
			completions: []*entity.WorksheetCompletion{
				completionAt(1*time.Hour, entity.DifficultyDeveloping, "", intPtr(1)),
				completionAt(2*time.Hour, entity.DifficultyDeveloping, "", intPtr(2)),
			},
			want:  entity.DifficultyStrengthening,
			basis: "insufficient challenge",
		},
		{
			name: "too hard dominant steps down",
			completions: []*entity.WorksheetCompletion{
				completionAt(1*time.Hour, entity.DifficultyStrengthening, entity.QualityTooHard, nil),
				completionAt(2*time.Hour, entity.DifficultyStrengthening, entity.QualityTooHard, nil),
				completionAt(3*time.Hour, entity.DifficultyStrengthening, entity.QualityTooEasy, nil),
			},
			want:  entity.DifficultyDeveloping,
			basis: "too hard",
		},
		{
			name: "high average rating steps down",
			completions: []*entity.WorksheetCompletion{
				completionAt(1*time.Hour, entity.DifficultyDeveloping, "", intPtr(5)),
				completionAt(2*time.Hour, entity.DifficultyDeveloping, "", intPtr(5)),
			},
			want:  entity.DifficultyFoundational,
			basis: "excessive challenge",
		},
		{
			name: "just right dominant keeps level",
			completions: []*entity.WorksheetCompletion{
				completionAt(1*time.Hour, entity.DifficultyDeveloping, entity.QualityJustRight, intPtr(3)),
				completionAt(2*time.Hour, entity.DifficultyDeveloping, entity.QualityJustRight, intPtr(3)),
				completionAt(3*time.Hour, entity.DifficultyDeveloping, entity.QualityTooEasy, nil),
			},
			want:  entity.DifficultyDeveloping,
			basis: "just right",
		},
		{
			name: "no signal defaults to step up",
			completions: []*entity.WorksheetCompletion{
				completionAt(1*time.Hour, entity.DifficultyFoundational, "", nil),
			},
			want:  entity.DifficultyDeveloping,
			basis: "no dominant signal",
		},
		{
			name: "step up clamps at strengthening",
			completions: []*entity.WorksheetCompletion{
				completionAt(1*time.Hour, entity.DifficultyStrengthening, entity.QualityTooEasy, nil),
				completionAt(2*time.Hour, entity.DifficultyStrengthening, entity.QualityTooEasy, nil),
			},
			want:  entity.DifficultyStrengthening,
			basis: "too easy",
		},
		{
			name: "step down clamps at foundational",
			completions: []*entity.WorksheetCompletion{
				completionAt(1*time.Hour, entity.DifficultyFoundational, entity.QualityTooHard, nil),
				completionAt(2*time.Hour, entity.DifficultyFoundational, entity.QualityTooHard, nil),
			},
			want:  entity.DifficultyFoundational,
			basis: "too hard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdvisor(tt.completions...)
			s, err := a.Suggest(context.Background(), "child-1", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Suggested)
			assert.Contains(t, s.Basis, tt.basis)
			assert.Equal(t, len(tt.completions), s.Completions)
		})
	}
}

func TestSuggestCurrentFromLatestCompletion(t *testing.T) {
	a := newTestAdvisor(
		completionAt(1*time.Hour, entity.DifficultyStrengthening, entity.QualityJustRight, nil),
		completionAt(48*time.Hour, entity.DifficultyFoundational, entity.QualityJustRight, nil),
	)
	s, err := a.Suggest(context.Background(), "child-1", "")
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyStrengthening, s.Current)
}

func TestSuggestDomainFilter(t *testing.T) {
	easy := completionAt(1*time.Hour, entity.DifficultyFoundational, entity.QualityTooEasy, nil)
	easy.Domains = []string{entity.DomainFineMotor}
	hard := completionAt(2*time.Hour, entity.DifficultyStrengthening, entity.QualityTooHard, nil)
	hard.Domains = []string{entity.DomainLanguage}

	a := newTestAdvisor(easy, hard)
	s, err := a.Suggest(context.Background(), "child-1", entity.DomainLanguage)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Completions)
	assert.Equal(t, entity.DifficultyDeveloping, s.Suggested)
}

func TestSuggestUnknownChild(t *testing.T) {
	a := newTestAdvisor()
	_, err := a.Suggest(context.Background(), "child-missing", "")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrChildNotFound.Code, apperrors.AsAppError(err).Code)
}
