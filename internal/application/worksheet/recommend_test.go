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

func TestScoreWorksheet(t *testing.T) {
	profile := &childProfile{
		ageMonths:  48,
		conditions: []string{"autism_spectrum", "speech_delay"},
		domains:    map[string]bool{entity.DomainLanguage: true, entity.DomainFineMotor: true},
	}

	tests := []struct {
		name string
		ws   *entity.Worksheet
		want int
	}{
		{
			name: "full match",
			ws: &entity.Worksheet{
				TargetDomains:       []string{entity.DomainLanguage, entity.DomainFineMotor},
				AgeRangeMin:         36,
				AgeRangeMax:         60,
				ConditionTags:       []string{"autism_spectrum"},
				RatingSum:           50,
				ReviewCount:         10, // 平均 5.0 → 评分满额 15，人气 10/20 → 5
				VerifiedContributor: true,
			},
			// 30*2 + 20 + 15 + 15 + 5 + 5
			want: 120,
		},
		{
			name: "age neutral when range unset",
			ws:   &entity.Worksheet{},
			want: scoreAgeNeutral,
		},
		{
			name: "single domain and condition",
			ws: &entity.Worksheet{
				TargetDomains: []string{entity.DomainLanguage, entity.DomainGrossMotor},
				ConditionTags: []string{"speech_delay", "cerebral_palsy"},
			},
			// 30 + 10 + 15
			want: 55,
		},
		{
			name: "popularity capped at ceiling",
			ws: &entity.Worksheet{
				RatingSum:   300,
				ReviewCount: 100, // 平均 3.0 → 9 分，人气封顶 10
			},
			// 10 + 9 + 10
			want: 29,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreWorksheet(tt.ws, profile))
		})
	}
}

func newTestRecommender(wsRepo *fakeWorksheetRepo, compRepo *fakeCompletionRepo, clinical *fakeClinicalRepo) *Recommender {
	// 无缓存、无 LLM 说明链：走启发式与模板文案
	return NewRecommender(wsRepo, compRepo, clinical, nil, nil, 0)
}

func TestRecommendForChild(t *testing.T) {
	clinical := newFakeClinicalRepo()
	clinical.children["child-1"] = &entity.Child{
		ID:         "child-1",
		BirthDate:  ageInMonths(48),
		Conditions: []string{"autism_spectrum"},
	}
	clinical.screenings["scr-1"] = &entity.Screening{
		ID: "scr-1", ChildID: "child-1", Completed: true,
		DomainScores: []entity.DomainScore{{Domain: "communication", Score: 20, Cutoff: 30, Flagged: true}},
	}

	wsRepo := newFakeWorksheetRepo()
	strong := wsRepo.put(&entity.Worksheet{
		Title: "Speech Sounds", Status: entity.StatusPublished, IsPublic: true,
		TargetDomains: []string{entity.DomainLanguage},
		ConditionTags: []string{"autism_spectrum"},
		AgeRangeMin:   36, AgeRangeMax: 60,
	})
	weak := wsRepo.put(&entity.Worksheet{
		Title: "Ball Games", Status: entity.StatusPublished, IsPublic: true,
		TargetDomains: []string{entity.DomainGrossMotor},
	})
	done := wsRepo.put(&entity.Worksheet{
		Title: "Finished Already", Status: entity.StatusPublished, IsPublic: true,
		TargetDomains: []string{entity.DomainLanguage},
	})
	wsRepo.candidates = []*entity.Worksheet{strong, weak, done}

	compRepo := &fakeCompletionRepo{}
	require.NoError(t, compRepo.Create(context.Background(), &entity.WorksheetCompletion{
		WorksheetID: done.ID, ChildID: "child-1", CompletedAt: time.Now(),
	}))

	r := newTestRecommender(wsRepo, compRepo, clinical)
	recs, err := r.RecommendForChild(context.Background(), "tenant-1", "child-1", 10)
	require.NoError(t, err)

	// 已完成的表被排除，剩余按分数降序
	require.Len(t, recs, 2)
	assert.Equal(t, strong.ID, recs[0].Worksheet.ID)
	assert.Equal(t, weak.ID, recs[1].Worksheet.ID)
	assert.Greater(t, recs[0].Score, recs[1].Score)

	// 模板文案兜底
	assert.Contains(t, recs[0].Justification, entity.DomainLanguage)
	assert.NotEmpty(t, recs[1].Justification)
}

func TestRecommendForChildLimit(t *testing.T) {
	clinical := newFakeClinicalRepo()
	clinical.children["child-1"] = &entity.Child{ID: "child-1", BirthDate: ageInMonths(40)}

	wsRepo := newFakeWorksheetRepo()
	for i := 0; i < 8; i++ {
		ws := wsRepo.put(&entity.Worksheet{Status: entity.StatusPublished, IsPublic: true})
		wsRepo.candidates = append(wsRepo.candidates, ws)
	}

	r := newTestRecommender(wsRepo, &fakeCompletionRepo{}, clinical)

	recs, err := r.RecommendForChild(context.Background(), "tenant-1", "child-1", 3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	// limit<=0 回落默认条数
	recs, err = r.RecommendForChild(context.Background(), "tenant-1", "child-1", 0)
	require.NoError(t, err)
	assert.Len(t, recs, defaultRecommendLimit)
}

func TestRecommendForChildEmptyPool(t *testing.T) {
	clinical := newFakeClinicalRepo()
	clinical.children["child-1"] = &entity.Child{ID: "child-1", BirthDate: ageInMonths(40)}

	r := newTestRecommender(newFakeWorksheetRepo(), &fakeCompletionRepo{}, clinical)
	recs, err := r.RecommendForChild(context.Background(), "tenant-1", "child-1", 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecommendForChildUnknownChild(t *testing.T) {
	r := newTestRecommender(newFakeWorksheetRepo(), &fakeCompletionRepo{}, newFakeClinicalRepo())
	_, err := r.RecommendForChild(context.Background(), "tenant-1", "child-missing", 5)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrChildNotFound.Code, apperrors.AsAppError(err).Code)
}
