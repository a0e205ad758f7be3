package worksheet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upllyft-worksheet-api/internal/domain/entity"
)

func TestBuildWorksheetSubTypeDefaults(t *testing.T) {
	tests := []struct {
		name    string
		wsType  entity.WorksheetType
		subType string
		want    string
	}{
		{
			name:    "empty sub type falls back to the type default",
			wsType:  entity.WorksheetTypeActivity,
			subType: "",
			want:    entity.SubTypeFineMotor,
		},
		{
			name:    "unknown sub type falls back to the type default",
			wsType:  entity.WorksheetTypeVisualSupport,
			subType: "flipbook",
			want:    entity.SubTypeVisualSchedule,
		},
		{
			name:    "sub type of another type is not accepted",
			wsType:  entity.WorksheetTypeActivity,
			subType: entity.SubTypeSocialStory,
			want:    entity.SubTypeFineMotor,
		},
		{
			name:    "valid sub type is kept",
			wsType:  entity.WorksheetTypeVisualSupport,
			subType: entity.SubTypeSocialStory,
			want:    entity.SubTypeSocialStory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &GenerateRequest{
				TenantID: "tenant-1",
				Params: GenerateParams{
					Type:    tt.wsType,
					SubType: tt.subType,
				},
			}
			gc := &GenerationContext{DataSource: entity.DataSourceManual}
			generated := &GeneratedContent{
				Title:   "Generated title",
				Content: json.RawMessage(`{}`),
			}

			ws := (&Service{}).buildWorksheet(req, gc, generated)
			require.NotNil(t, ws)
			assert.Equal(t, tt.want, ws.SubType)
			assert.True(t, entity.IsKnownSubType(ws.Type, ws.SubType))
		})
	}
}

func TestBuildWorksheetDefaults(t *testing.T) {
	req := &GenerateRequest{
		TenantID:   "tenant-1",
		CreatedBy:  "user-1",
		IsVerified: true,
		Params: GenerateParams{
			Type: entity.WorksheetTypeActivity,
		},
		Source: ResolveInput{
			DataSource: entity.DataSourceScreening,
			ChildID:    "child-1",
		},
	}
	gc := &GenerationContext{
		DataSource:       entity.DataSourceScreening,
		SuggestedDomains: []string{entity.DomainFineMotor},
	}
	generated := &GeneratedContent{
		Title:   "Threading Beads",
		Content: json.RawMessage(`{}`),
	}

	ws := (&Service{}).buildWorksheet(req, gc, generated)
	require.NotNil(t, ws)
	assert.Equal(t, "Threading Beads", ws.Title)
	assert.Equal(t, entity.ColorModeFullColor, ws.ColorMode)
	assert.Equal(t, entity.StatusDraft, ws.Status)
	assert.Equal(t, []string{entity.DomainFineMotor}, ws.TargetDomains)
	assert.Equal(t, 1, ws.Version)
	assert.Equal(t, ws.ID, ws.RootID)
	assert.True(t, ws.VerifiedContributor)
	require.NotNil(t, ws.ChildID)
	assert.Equal(t, "child-1", *ws.ChildID)
}
