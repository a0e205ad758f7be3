// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"upllyft-worksheet-api/internal/domain/entity"
)

// SubmitReviewRequest 评价提交请求
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment,omitempty"`
}

// ReviewResponse 评价响应
type ReviewResponse struct {
	ID          string    `json:"id"`
	WorksheetID string    `json:"worksheet_id"`
	ReviewerID  string    `json:"reviewer_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToReviewResponse 转换评价实体为响应
func ToReviewResponse(review *entity.WorksheetReview) *ReviewResponse {
	if review == nil {
		return nil
	}
	return &ReviewResponse{
		ID:          review.ID,
		WorksheetID: review.WorksheetID,
		ReviewerID:  review.ReviewerID,
		Rating:      review.Rating,
		Comment:     review.Comment,
		CreatedAt:   review.CreatedAt,
	}
}

// ToReviewListResponse 批量转换评价
func ToReviewListResponse(items []*entity.WorksheetReview) []*ReviewResponse {
	out := make([]*ReviewResponse, 0, len(items))
	for _, review := range items {
		out = append(out, ToReviewResponse(review))
	}
	return out
}

// SubmitFlagRequest 举报提交请求
type SubmitFlagRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FlagResponse 举报响应
type FlagResponse struct {
	ID          string    `json:"id"`
	WorksheetID string    `json:"worksheet_id"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToFlagResponse 转换举报实体为响应
func ToFlagResponse(flag *entity.WorksheetFlag) *FlagResponse {
	if flag == nil {
		return nil
	}
	return &FlagResponse{
		ID:          flag.ID,
		WorksheetID: flag.WorksheetID,
		Status:      string(flag.Status),
		Reason:      flag.Reason,
		CreatedAt:   flag.CreatedAt,
	}
}

// ResolveFlagRequest 举报裁决请求，action 取 DISMISSED / ACTIONED
type ResolveFlagRequest struct {
	Action string `json:"action" binding:"required"`
}

// ResolveFlagResponse 举报裁决响应
type ResolveFlagResponse struct {
	ID       string `json:"id"`
	Resolved bool   `json:"resolved"`
	Action   string `json:"action"`
}

// RecordCompletionRequest 完成记录提交请求
type RecordCompletionRequest struct {
	ChildID string   `json:"child_id" binding:"required"`
	Quality string   `json:"quality,omitempty"`
	Rating  *int     `json:"rating,omitempty"`
	Domains []string `json:"domains,omitempty"`
}

// CompletionResponse 完成记录响应
type CompletionResponse struct {
	ID          string    `json:"id"`
	WorksheetID string    `json:"worksheet_id"`
	ChildID     string    `json:"child_id"`
	Difficulty  string    `json:"difficulty"`
	CompletedAt time.Time `json:"completed_at"`
}

// ToCompletionResponse 转换完成记录实体为响应
func ToCompletionResponse(completion *entity.WorksheetCompletion) *CompletionResponse {
	if completion == nil {
		return nil
	}
	return &CompletionResponse{
		ID:          completion.ID,
		WorksheetID: completion.WorksheetID,
		ChildID:     completion.ChildID,
		Difficulty:  string(completion.Difficulty),
		CompletedAt: completion.CompletedAt,
	}
}
