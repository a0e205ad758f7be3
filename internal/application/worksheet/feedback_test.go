package worksheet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	apperrors "upllyft-worksheet-api/pkg/errors"
)

func newTestFeedback(wsRepo *fakeWorksheetRepo, reviewRepo *fakeReviewRepo, compRepo *fakeCompletionRepo) *Feedback {
	return NewFeedback(wsRepo, reviewRepo, compRepo, &fakeTx{}, nil)
}

func TestSubmitReview(t *testing.T) {
	wsRepo := newFakeWorksheetRepo()
	ws := wsRepo.put(&entity.Worksheet{Status: entity.StatusPublished})
	reviewRepo := &fakeReviewRepo{}
	f := newTestFeedback(wsRepo, reviewRepo, &fakeCompletionRepo{})

	for _, rating := range []int{4, 5} {
		_, err := f.SubmitReview(context.Background(), &entity.WorksheetReview{
			WorksheetID: ws.ID,
			ReviewerID:  "user-1",
			Rating:      rating,
		})
		require.NoError(t, err)
	}

	// 聚合计数随评价累加
	assert.Equal(t, 9, ws.RatingSum)
	assert.Equal(t, 2, ws.ReviewCount)
	assert.InDelta(t, 4.5, ws.AverageRating(), 0.001)

	page, err := f.ListReviews(context.Background(), ws.ID, repository.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)
}

func TestSubmitReviewValidation(t *testing.T) {
	wsRepo := newFakeWorksheetRepo()
	ws := wsRepo.put(&entity.Worksheet{Status: entity.StatusPublished})
	f := newTestFeedback(wsRepo, &fakeReviewRepo{}, &fakeCompletionRepo{})

	tests := []struct {
		name     string
		review   *entity.WorksheetReview
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "rating below range",
			review:   &entity.WorksheetReview{WorksheetID: ws.ID, Rating: 0},
			wantCode: apperrors.ErrInvalidParam.Code,
		},
		{
			name:     "rating above range",
			review:   &entity.WorksheetReview{WorksheetID: ws.ID, Rating: 6},
			wantCode: apperrors.ErrInvalidParam.Code,
		},
		{
			name:     "unknown worksheet",
			review:   &entity.WorksheetReview{WorksheetID: "missing", Rating: 3},
			wantCode: apperrors.ErrWorksheetNotFound.Code,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.SubmitReview(context.Background(), tt.review)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.AsAppError(err).Code)
		})
	}
}

func TestRecordCompletionDefaultsFromWorksheet(t *testing.T) {
	wsRepo := newFakeWorksheetRepo()
	ws := wsRepo.put(&entity.Worksheet{
		Status:        entity.StatusPublished,
		Difficulty:    entity.DifficultyDeveloping,
		TargetDomains: []string{entity.DomainFineMotor, entity.DomainCognitive},
	})
	compRepo := &fakeCompletionRepo{}
	f := newTestFeedback(wsRepo, &fakeReviewRepo{}, compRepo)

	got, err := f.RecordCompletion(context.Background(), &entity.WorksheetCompletion{
		WorksheetID: ws.ID,
		ChildID:     "child-1",
		Quality:     entity.QualityJustRight,
	})
	require.NoError(t, err)

	// 难度、领域与完成时间取工作表快照兜底
	assert.Equal(t, entity.DifficultyDeveloping, got.Difficulty)
	assert.Equal(t, ws.TargetDomains, got.Domains)
	assert.WithinDuration(t, time.Now(), got.CompletedAt, time.Minute)
	assert.NotEmpty(t, got.ID)

	recent, err := compRepo.ListRecentByChild(context.Background(), "child-1", "", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestRecordCompletionKeepsExplicitValues(t *testing.T) {
	wsRepo := newFakeWorksheetRepo()
	ws := wsRepo.put(&entity.Worksheet{
		Status:        entity.StatusPublished,
		Difficulty:    entity.DifficultyFoundational,
		TargetDomains: []string{entity.DomainLanguage},
	})
	f := newTestFeedback(wsRepo, &fakeReviewRepo{}, &fakeCompletionRepo{})

	completedAt := time.Now().Add(-2 * time.Hour)
	got, err := f.RecordCompletion(context.Background(), &entity.WorksheetCompletion{
		WorksheetID: ws.ID,
		ChildID:     "child-1",
		Difficulty:  entity.DifficultyStrengthening,
		Domains:     []string{entity.DomainSocial},
		CompletedAt: completedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyStrengthening, got.Difficulty)
	assert.Equal(t, []string{entity.DomainSocial}, got.Domains)
	assert.Equal(t, completedAt, got.CompletedAt)
}

func TestRecordCompletionUnknownWorksheet(t *testing.T) {
	f := newTestFeedback(newFakeWorksheetRepo(), &fakeReviewRepo{}, &fakeCompletionRepo{})
	_, err := f.RecordCompletion(context.Background(), &entity.WorksheetCompletion{WorksheetID: "missing"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrWorksheetNotFound.Code, apperrors.AsAppError(err).Code)
}
