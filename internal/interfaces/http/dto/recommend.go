// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
)

// RecommendationItem 单条推荐
type RecommendationItem struct {
	Worksheet     *WorksheetResponse `json:"worksheet"`
	Score         int                `json:"score"`
	Justification string             `json:"justification"`
}

// RecommendationListResponse 推荐列表响应
type RecommendationListResponse struct {
	ChildID         string                `json:"child_id"`
	Recommendations []*RecommendationItem `json:"recommendations"`
}

// ToRecommendationListResponse 转换推荐结果
func ToRecommendationListResponse(childID string, recs []*appworksheet.Recommendation) *RecommendationListResponse {
	items := make([]*RecommendationItem, 0, len(recs))
	for _, rec := range recs {
		ws := ToWorksheetResponse(rec.Worksheet)
		ws.Content = nil
		items = append(items, &RecommendationItem{
			Worksheet:     ws,
			Score:         rec.Score,
			Justification: rec.Justification,
		})
	}
	return &RecommendationListResponse{ChildID: childID, Recommendations: items}
}

// DifficultySuggestionResponse 难度建议响应
type DifficultySuggestionResponse struct {
	ChildID     string `json:"child_id"`
	Suggested   string `json:"suggested"`
	Current     string `json:"current,omitempty"`
	Completions int    `json:"completions"`
	Basis       string `json:"basis"`
}

// ToDifficultySuggestionResponse 转换难度建议
func ToDifficultySuggestionResponse(childID string, s *appworksheet.DifficultySuggestion) *DifficultySuggestionResponse {
	return &DifficultySuggestionResponse{
		ChildID:     childID,
		Suggested:   string(s.Suggested),
		Current:     string(s.Current),
		Completions: s.Completions,
		Basis:       s.Basis,
	}
}
