package worksheet

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upllyft-worksheet-api/internal/domain/entity"
	apperrors "upllyft-worksheet-api/pkg/errors"
)

func newTestVersions() (*Versions, *fakeWorksheetRepo, *fakeIllustrationRepo) {
	wsRepo := newFakeWorksheetRepo()
	illRepo := newFakeIllustrationRepo()
	return NewVersions(wsRepo, illRepo, fakeTx{}), wsRepo, illRepo
}

func publishedWorksheet(createdBy string) *entity.Worksheet {
	return &entity.Worksheet{
		TenantID:      "tenant-1",
		Title:         "Scissor Skills",
		Type:          entity.WorksheetTypeActivity,
		SubType:       entity.SubTypeFineMotor,
		Content:       json.RawMessage(`{"title":"Scissor Skills","sections":[{"id":"s1","activities":[{"id":"a1","name":"Snip"}]}]}`),
		Status:        entity.StatusPublished,
		Difficulty:    entity.DifficultyDeveloping,
		TargetDomains: []string{entity.DomainFineMotor},
		Version:       1,
		CreatedBy:     createdBy,
		PDFURL:        "https://cdn/x.pdf",
	}
}

func TestCreateVersion(t *testing.T) {
	v, wsRepo, illRepo := newTestVersions()
	src := wsRepo.put(publishedWorksheet("user-1"))
	require.NoError(t, illRepo.CreateBatch(context.Background(), []*entity.Illustration{
		{WorksheetID: src.ID, NodeID: "a1", Prompt: "child using scissors", Position: 0},
	}))

	next, err := v.CreateVersion(context.Background(), src.ID, "user-1")
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, next.ID)
	assert.Equal(t, entity.StatusDraft, next.Status)
	assert.Equal(t, 2, next.Version)
	require.NotNil(t, next.ParentVersionID)
	assert.Equal(t, src.ID, *next.ParentVersionID)
	assert.Equal(t, src.RootID, next.RootID)
	assert.Nil(t, next.ClonedFromID)
	assert.False(t, next.IsPublic)
	// 聚合计数与资产不继承
	assert.Zero(t, next.ReviewCount)
	assert.Empty(t, next.PDFURL)

	// 插图随版本复制
	copies, err := illRepo.ListByWorksheet(context.Background(), next.ID)
	require.NoError(t, err)
	require.Len(t, copies, 1)
	assert.Equal(t, "a1", copies[0].NodeID)
}

func TestCreateVersionCreatorOnly(t *testing.T) {
	v, wsRepo, _ := newTestVersions()
	src := wsRepo.put(publishedWorksheet("user-1"))

	_, err := v.CreateVersion(context.Background(), src.ID, "user-2")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrLineageForbidden.Code, apperrors.AsAppError(err).Code)
}

func TestCreateVersionNumbersFromLineageMax(t *testing.T) {
	v, wsRepo, _ := newTestVersions()
	src := wsRepo.put(publishedWorksheet("user-1"))

	v2, err := v.CreateVersion(context.Background(), src.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	// 从 v1 再开分支也拿谱系最大号加一
	v3, err := v.CreateVersion(context.Background(), src.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, v3.Version)
}

func TestClone(t *testing.T) {
	v, wsRepo, illRepo := newTestVersions()
	src := wsRepo.put(publishedWorksheet("user-1"))
	src.IsPublic = true
	src.VerifiedContributor = true
	require.NoError(t, illRepo.CreateBatch(context.Background(), []*entity.Illustration{
		{WorksheetID: src.ID, NodeID: "a1", Prompt: "child using scissors"},
	}))

	clone, err := v.Clone(context.Background(), src.ID, "user-2", "tenant-2")
	require.NoError(t, err)

	assert.Equal(t, "tenant-2", clone.TenantID)
	assert.Equal(t, "user-2", clone.CreatedBy)
	assert.Equal(t, entity.StatusPublished, clone.Status)
	assert.Equal(t, 1, clone.Version)
	assert.Nil(t, clone.ParentVersionID)
	assert.Equal(t, clone.ID, clone.RootID)
	require.NotNil(t, clone.ClonedFromID)
	assert.Equal(t, src.ID, *clone.ClonedFromID)
	assert.False(t, clone.IsPublic)
	assert.False(t, clone.VerifiedContributor)
	assert.Equal(t, 1, src.CloneCount)

	copies, err := illRepo.ListByWorksheet(context.Background(), clone.ID)
	require.NoError(t, err)
	assert.Len(t, copies, 1)
}

func TestCloneRequiresPublicPublished(t *testing.T) {
	v, wsRepo, _ := newTestVersions()

	private := wsRepo.put(publishedWorksheet("user-1")) // IsPublic false
	_, err := v.Clone(context.Background(), private.ID, "user-2", "tenant-2")
	require.Error(t, err)

	draft := wsRepo.put(&entity.Worksheet{Status: entity.StatusDraft, IsPublic: true, CreatedBy: "user-1"})
	_, err = v.Clone(context.Background(), draft.ID, "user-2", "tenant-2")
	require.Error(t, err)
}

func TestHistory(t *testing.T) {
	v, wsRepo, _ := newTestVersions()
	src := wsRepo.put(publishedWorksheet("user-1"))

	_, err := v.CreateVersion(context.Background(), src.ID, "user-1")
	require.NoError(t, err)
	_, err = v.CreateVersion(context.Background(), src.ID, "user-1")
	require.NoError(t, err)

	history, err := v.History(context.Background(), src.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, 3, history[2].Version)
}

func TestResolveRootWalksLegacyParentChain(t *testing.T) {
	v, wsRepo, _ := newTestVersions()

	// 存量数据：root_id 缺失，只有父链
	root := wsRepo.put(&entity.Worksheet{Status: entity.StatusPublished, CreatedBy: "user-1", Version: 1})
	root.RootID = ""
	child := wsRepo.put(&entity.Worksheet{Status: entity.StatusDraft, CreatedBy: "user-1", Version: 2, ParentVersionID: &root.ID})
	child.RootID = ""

	got, err := v.resolveRoot(context.Background(), child)
	require.NoError(t, err)
	assert.Equal(t, root.ID, got)
}

func TestResolveRootMissingParentDegradesToSelf(t *testing.T) {
	v, wsRepo, _ := newTestVersions()

	missing := "00000000-0000-0000-0000-000000000000"
	orphan := wsRepo.put(&entity.Worksheet{Status: entity.StatusDraft, CreatedBy: "user-1", ParentVersionID: &missing})
	orphan.RootID = ""

	got, err := v.resolveRoot(context.Background(), orphan)
	require.NoError(t, err)
	assert.Equal(t, orphan.ID, got)
}
