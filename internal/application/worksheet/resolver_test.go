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

// fakeClinicalRepo 内存临床数据仓储，按 ID 查表
type fakeClinicalRepo struct {
	children   map[string]*entity.Child
	cases      map[string]*entity.CaseFile
	screenings map[string]*entity.Screening
	goals      map[string][]*entity.IEPGoal
	sessions   map[string][]*entity.SessionNote
}

func newFakeClinicalRepo() *fakeClinicalRepo {
	return &fakeClinicalRepo{
		children:   make(map[string]*entity.Child),
		cases:      make(map[string]*entity.CaseFile),
		screenings: make(map[string]*entity.Screening),
		goals:      make(map[string][]*entity.IEPGoal),
		sessions:   make(map[string][]*entity.SessionNote),
	}
}

func (f *fakeClinicalRepo) GetChild(_ context.Context, id string) (*entity.Child, error) {
	return f.children[id], nil
}

func (f *fakeClinicalRepo) GetCase(_ context.Context, id string) (*entity.CaseFile, error) {
	return f.cases[id], nil
}

func (f *fakeClinicalRepo) GetScreening(_ context.Context, id string) (*entity.Screening, error) {
	return f.screenings[id], nil
}

func (f *fakeClinicalRepo) GetLatestCompletedScreening(_ context.Context, childID string) (*entity.Screening, error) {
	for _, s := range f.screenings {
		if s.ChildID == childID && s.Completed {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeClinicalRepo) GetActiveGoals(_ context.Context, caseID string, goalIDs []string) ([]*entity.IEPGoal, error) {
	all := f.goals[caseID]
	if len(goalIDs) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(goalIDs))
	for _, id := range goalIDs {
		want[id] = true
	}
	var out []*entity.IEPGoal
	for _, g := range all {
		if want[g.ID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeClinicalRepo) GetActiveGoalsByChild(_ context.Context, childID string) ([]*entity.IEPGoal, error) {
	var out []*entity.IEPGoal
	for caseID, cf := range f.cases {
		if cf.ChildID == childID {
			out = append(out, f.goals[caseID]...)
		}
	}
	return out, nil
}

func (f *fakeClinicalRepo) GetSessions(_ context.Context, caseID string, sessionIDs []string) ([]*entity.SessionNote, error) {
	all := f.sessions[caseID]
	if len(sessionIDs) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	var out []*entity.SessionNote
	for _, s := range all {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func ageInMonths(months int) time.Time {
	return time.Now().AddDate(0, -months, -1)
}

func TestResolveManual(t *testing.T) {
	r := NewResolver(newFakeClinicalRepo())

	gc, err := r.Resolve(context.Background(), &ResolveInput{
		DataSource:       entity.DataSourceManual,
		ManualAgeMonths:  42,
		ManualConditions: []string{"autism_spectrum"},
		ManualNotes:      "prefers quiet settings",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.DataSourceManual, gc.DataSource)
	assert.Equal(t, 42, gc.ChildAgeMonths)
	assert.Equal(t, []string{"autism_spectrum"}, gc.Conditions)
	assert.Equal(t, "prefers quiet settings", gc.Notes)
	assert.Empty(t, gc.SuggestedDomains)
}

func TestResolveScreening(t *testing.T) {
	repo := newFakeClinicalRepo()
	repo.children["child-1"] = &entity.Child{
		ID:         "child-1",
		BirthDate:  ageInMonths(40),
		Conditions: []string{"speech_delay"},
		Interests:  []string{"dinosaurs"},
	}
	repo.screenings["scr-1"] = &entity.Screening{
		ID:        "scr-1",
		ChildID:   "child-1",
		Completed: true,
		DomainScores: []entity.DomainScore{
			{Domain: "Communication", Score: 22, Cutoff: 30, Flagged: true},
			{Domain: "Gross Motor", Score: 55, Cutoff: 30, Flagged: false},
			{Domain: "mystery_scale", Score: 10, Cutoff: 30, Flagged: true},
		},
	}

	r := NewResolver(repo)
	gc, err := r.Resolve(context.Background(), &ResolveInput{
		DataSource:  entity.DataSourceScreening,
		ScreeningID: "scr-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 40, gc.ChildAgeMonths)
	assert.Equal(t, []string{"dinosaurs"}, gc.Interests)
	// 只有 flagged 且可归一的领域进入结果，未知量表标签被跳过
	require.Len(t, gc.FlaggedDomains, 1)
	assert.Equal(t, entity.DomainLanguage, gc.FlaggedDomains[0].Domain)
	assert.Equal(t, []string{entity.DomainLanguage}, gc.SuggestedDomains)
}

func TestResolveScreeningNotCompleted(t *testing.T) {
	repo := newFakeClinicalRepo()
	repo.screenings["scr-1"] = &entity.Screening{ID: "scr-1", ChildID: "child-1", Completed: false}

	r := NewResolver(repo)
	_, err := r.Resolve(context.Background(), &ResolveInput{
		DataSource:  entity.DataSourceScreening,
		ScreeningID: "scr-1",
	})
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrScreeningNotFound.Code, appErr.Code)
}

func TestResolveUploadedReport(t *testing.T) {
	repo := newFakeClinicalRepo()
	repo.cases["case-1"] = &entity.CaseFile{ID: "case-1", ChildID: "child-1", Conditions: []string{"adhd"}}

	r := NewResolver(repo)
	gc, err := r.Resolve(context.Background(), &ResolveInput{
		DataSource: entity.DataSourceUploadedReport,
		CaseID:     "case-1",
		ReportFindings: &ReportFindings{
			AgeMonths:  50,
			Conditions: []string{"adhd", "sensory_processing"},
			DomainNotes: map[string][]string{
				"fine motor": {"struggles with pencil grip"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 50, gc.ChildAgeMonths)
	// 案例条件合并且去重
	assert.ElementsMatch(t, []string{"adhd", "sensory_processing"}, gc.Conditions)
	assert.Equal(t, []string{entity.DomainFineMotor}, gc.SuggestedDomains)
}

func TestResolveUploadedReportWithoutFindings(t *testing.T) {
	r := NewResolver(newFakeClinicalRepo())
	_, err := r.Resolve(context.Background(), &ResolveInput{
		DataSource: entity.DataSourceUploadedReport,
	})
	require.Error(t, err)
}

func TestResolveIEPGoals(t *testing.T) {
	repo := newFakeClinicalRepo()
	repo.children["child-1"] = &entity.Child{ID: "child-1", BirthDate: ageInMonths(48), Conditions: []string{"autism_spectrum"}}
	repo.cases["case-1"] = &entity.CaseFile{ID: "case-1", ChildID: "child-1", Conditions: []string{"autism_spectrum", "speech_delay"}}
	repo.goals["case-1"] = []*entity.IEPGoal{
		{ID: "goal-1", CaseID: "case-1", Domain: "communication", GoalText: "Use 3-word sentences", Progress: 40},
		{ID: "goal-2", CaseID: "case-1", Domain: "fine motor", GoalText: "Cut along a line", Progress: 10},
	}

	r := NewResolver(repo)
	gc, err := r.Resolve(context.Background(), &ResolveInput{
		DataSource: entity.DataSourceIEPGoals,
		CaseID:     "case-1",
		GoalIDs:    []string{"goal-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 48, gc.ChildAgeMonths)
	assert.ElementsMatch(t, []string{"autism_spectrum", "speech_delay"}, gc.Conditions)
	require.Len(t, gc.GoalTexts, 1)
	assert.Equal(t, entity.DomainLanguage, gc.GoalTexts[0].Domain)
	assert.Equal(t, "Use 3-word sentences", gc.GoalTexts[0].GoalText)
	assert.Equal(t, []string{entity.DomainLanguage}, gc.SuggestedDomains)
}

func TestResolveIEPGoalsEmpty(t *testing.T) {
	repo := newFakeClinicalRepo()
	repo.cases["case-1"] = &entity.CaseFile{ID: "case-1", ChildID: "child-1"}

	r := NewResolver(repo)
	_, err := r.Resolve(context.Background(), &ResolveInput{
		DataSource: entity.DataSourceIEPGoals,
		CaseID:     "case-1",
	})
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrGoalsNotFound.Code, appErr.Code)
}

func TestResolveSessionNotes(t *testing.T) {
	repo := newFakeClinicalRepo()
	repo.children["child-1"] = &entity.Child{ID: "child-1", BirthDate: ageInMonths(36)}
	repo.cases["case-1"] = &entity.CaseFile{ID: "case-1", ChildID: "child-1"}
	repo.sessions["case-1"] = []*entity.SessionNote{
		{
			ID:          "sess-1",
			CaseID:      "case-1",
			Summary:     "Worked on turn taking during board games",
			SessionDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
			GoalProgress: []entity.GoalProgressNote{
				{GoalID: "goal-1", Domain: "social", Progress: "initiated turns twice"},
			},
		},
	}

	r := NewResolver(repo)
	gc, err := r.Resolve(context.Background(), &ResolveInput{
		DataSource: entity.DataSourceSessionNotes,
		CaseID:     "case-1",
		SessionIDs: []string{"sess-1"},
	})
	require.NoError(t, err)

	require.Len(t, gc.SessionNotes, 1)
	assert.Equal(t, "2026-08-20", gc.SessionNotes[0].DateLabel)
	assert.Equal(t, []string{"initiated turns twice"}, gc.SessionNotes[0].Progress)
	assert.Equal(t, []string{entity.DomainSocial}, gc.SuggestedDomains)
}

func TestResolveSessionNotesMissingCase(t *testing.T) {
	r := NewResolver(newFakeClinicalRepo())
	_, err := r.Resolve(context.Background(), &ResolveInput{
		DataSource: entity.DataSourceSessionNotes,
		CaseID:     "case-missing",
	})
	require.Error(t, err)
}

func TestResolveUnknownDataSource(t *testing.T) {
	r := NewResolver(newFakeClinicalRepo())
	_, err := r.Resolve(context.Background(), &ResolveInput{DataSource: "TAROT_CARDS"})
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.ErrInvalidDataSource.Code, appErr.Code)
}
