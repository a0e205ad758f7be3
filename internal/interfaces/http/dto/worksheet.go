// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"time"

	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
	"upllyft-worksheet-api/internal/domain/entity"
)

// GenerateWorksheetRequest 工作表生成请求
type GenerateWorksheetRequest struct {
	Title string `json:"title,omitempty"`

	Type       string `json:"type" binding:"required"`
	SubType    string `json:"sub_type,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Duration   string `json:"duration,omitempty"`
	ColorMode  string `json:"color_mode,omitempty"`

	TargetDomains       []string `json:"target_domains,omitempty"`
	Interests           []string `json:"interests,omitempty"`
	Setting             string   `json:"setting,omitempty"`
	SpecialInstructions string   `json:"special_instructions,omitempty"`

	AgeRangeMin int `json:"age_range_min,omitempty"`
	AgeRangeMax int `json:"age_range_max,omitempty"`

	DataSource  string   `json:"data_source" binding:"required"`
	ChildID     string   `json:"child_id,omitempty"`
	CaseID      string   `json:"case_id,omitempty"`
	ScreeningID string   `json:"screening_id,omitempty"`
	GoalIDs     []string `json:"goal_ids,omitempty"`
	SessionIDs  []string `json:"session_ids,omitempty"`

	ManualAgeMonths  int      `json:"manual_age_months,omitempty"`
	ManualConditions []string `json:"manual_conditions,omitempty"`
	ManualNotes      string   `json:"manual_notes,omitempty"`

	// ReportFindings UPLOADED_REPORT 来源时携带 /v1/reports/parse 的产物
	ReportFindings *ReportFindingsPayload `json:"report_findings,omitempty"`

	ConditionTags []string `json:"condition_tags,omitempty"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ToGenerateRequest 转换为应用层请求
func (r *GenerateWorksheetRequest) ToGenerateRequest(tenantID, userID string) *appworksheet.GenerateRequest {
	return &appworksheet.GenerateRequest{
		TenantID:  tenantID,
		CreatedBy: userID,
		Title:     r.Title,
		Params: appworksheet.GenerateParams{
			Type:                entity.WorksheetType(r.Type),
			SubType:             r.SubType,
			Difficulty:          entity.Difficulty(r.Difficulty),
			Duration:            entity.Duration(r.Duration),
			ColorMode:           entity.ColorMode(r.ColorMode),
			TargetDomains:       r.TargetDomains,
			Interests:           r.Interests,
			Setting:             r.Setting,
			SpecialInstructions: r.SpecialInstructions,
			AgeRangeMin:         r.AgeRangeMin,
			AgeRangeMax:         r.AgeRangeMax,
			Provider:            r.Provider,
			Model:               r.Model,
		},
		Source: appworksheet.ResolveInput{
			DataSource:       entity.DataSource(r.DataSource),
			ChildID:          r.ChildID,
			CaseID:           r.CaseID,
			ScreeningID:      r.ScreeningID,
			GoalIDs:          r.GoalIDs,
			SessionIDs:       r.SessionIDs,
			ManualAgeMonths:  r.ManualAgeMonths,
			ManualConditions: r.ManualConditions,
			ManualNotes:      r.ManualNotes,
			ReportFindings:   r.ReportFindings.ToFindings(),
		},
		ConditionTags:  r.ConditionTags,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// WorksheetResponse 工作表响应
type WorksheetResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	SubType string `json:"sub_type"`

	Content json.RawMessage `json:"content,omitempty"`

	Status     string `json:"status"`
	Difficulty string `json:"difficulty"`

	TargetDomains []string `json:"target_domains,omitempty"`
	ConditionTags []string `json:"condition_tags,omitempty"`
	Interests     []string `json:"interests,omitempty"`

	ColorMode  string `json:"color_mode"`
	Duration   string `json:"duration,omitempty"`
	Setting    string `json:"setting,omitempty"`
	DataSource string `json:"data_source"`

	AgeRangeMin int `json:"age_range_min"`
	AgeRangeMax int `json:"age_range_max"`

	ChildID *string `json:"child_id,omitempty"`
	CaseID  *string `json:"case_id,omitempty"`

	Version         int     `json:"version"`
	ParentVersionID *string `json:"parent_version_id,omitempty"`
	RootID          string  `json:"root_id"`
	ClonedFromID    *string `json:"cloned_from_id,omitempty"`

	IsPublic            bool `json:"is_public"`
	VerifiedContributor bool `json:"verified_contributor"`

	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
	CloneCount    int     `json:"clone_count"`

	PDFURL     string `json:"pdf_url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToWorksheetResponse 转换实体为响应
func ToWorksheetResponse(ws *entity.Worksheet) *WorksheetResponse {
	if ws == nil {
		return nil
	}
	return &WorksheetResponse{
		ID:                  ws.ID,
		Title:               ws.Title,
		Type:                string(ws.Type),
		SubType:             ws.SubType,
		Content:             ws.Content,
		Status:              string(ws.Status),
		Difficulty:          string(ws.Difficulty),
		TargetDomains:       ws.TargetDomains,
		ConditionTags:       ws.ConditionTags,
		Interests:           ws.Interests,
		ColorMode:           string(ws.ColorMode),
		Duration:            string(ws.Duration),
		Setting:             ws.Setting,
		DataSource:          string(ws.DataSource),
		AgeRangeMin:         ws.AgeRangeMin,
		AgeRangeMax:         ws.AgeRangeMax,
		ChildID:             ws.ChildID,
		CaseID:              ws.CaseID,
		Version:             ws.Version,
		ParentVersionID:     ws.ParentVersionID,
		RootID:              ws.RootID,
		ClonedFromID:        ws.ClonedFromID,
		IsPublic:            ws.IsPublic,
		VerifiedContributor: ws.VerifiedContributor,
		AverageRating:       ws.AverageRating(),
		ReviewCount:         ws.ReviewCount,
		CloneCount:          ws.CloneCount,
		PDFURL:              ws.PDFURL,
		PreviewURL:          ws.PreviewURL,
		CreatedBy:           ws.CreatedBy,
		CreatedAt:           ws.CreatedAt,
		UpdatedAt:           ws.UpdatedAt,
	}
}

// ToWorksheetSummaries 列表响应不携带内容树，避免分页载荷膨胀
func ToWorksheetSummaries(items []*entity.Worksheet) []*WorksheetResponse {
	out := make([]*WorksheetResponse, 0, len(items))
	for _, ws := range items {
		resp := ToWorksheetResponse(ws)
		resp.Content = nil
		out = append(out, resp)
	}
	return out
}

// GenerateWorksheetResponse 生成响应：工作表 + 流水线任务
type GenerateWorksheetResponse struct {
	Worksheet *WorksheetResponse `json:"worksheet"`
	JobID     string             `json:"job_id"`
}

// WorksheetStatusResponse 状态轮询响应
type WorksheetStatusResponse struct {
	Status     string       `json:"status"`
	PDFURL     string       `json:"pdf_url,omitempty"`
	PreviewURL string       `json:"preview_url,omitempty"`
	Job        *JobResponse `json:"job,omitempty"`
}

// RegenerateSectionRequest 小节重生成请求
type RegenerateSectionRequest struct {
	Guidance string `json:"guidance,omitempty"`
}

// RegenerateImageRequest 插图重生成请求
type RegenerateImageRequest struct {
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

// RegenerateResponse 重生成受理响应
type RegenerateResponse struct {
	JobID string `json:"job_id"`
}

// VersionHistoryResponse 谱系版本历史
type VersionHistoryResponse struct {
	Versions []*WorksheetResponse `json:"versions"`
}

// PublishResponse 公开状态变更响应
type PublishResponse struct {
	ID       string `json:"id"`
	IsPublic bool   `json:"is_public"`
}
