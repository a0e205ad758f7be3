// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"time"

	"upllyft-worksheet-api/internal/domain/entity"
)

// JobResponse 资产任务响应
type JobResponse struct {
	ID          string `json:"id"`
	WorksheetID string `json:"worksheet_id"`
	JobType     string `json:"job_type"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`

	ImagesTotal  int    `json:"images_total"`
	ImagesFailed int    `json:"images_failed"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMs   int    `json:"duration_ms,omitempty"`
	RetryCount   int    `json:"retry_count"`

	OutputResult json.RawMessage `json:"output_result,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ToJobResponse 转换任务实体为响应
func ToJobResponse(job *entity.AssetJob) *JobResponse {
	if job == nil {
		return nil
	}
	return &JobResponse{
		ID:           job.ID,
		WorksheetID:  job.WorksheetID,
		JobType:      string(job.JobType),
		Status:       string(job.Status),
		Progress:     job.Progress,
		ImagesTotal:  job.ImagesTotal,
		ImagesFailed: job.ImagesFailed,
		ErrorMessage: job.ErrorMessage,
		DurationMs:   job.DurationMs,
		RetryCount:   job.RetryCount,
		OutputResult: job.OutputResult,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
}
