// Package handler 提供 HTTP 请求处理器
package handler

import (
	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
	"upllyft-worksheet-api/internal/interfaces/http/dto"

	"github.com/gin-gonic/gin"
)

// JobHandler 资产任务查询
type JobHandler struct {
	service *appworksheet.Service
}

// NewJobHandler 创建任务处理器
func NewJobHandler(service *appworksheet.Service) *JobHandler {
	return &JobHandler{service: service}
}

// GetJob 获取任务详情
// @Summary 任务状态查询
// @Description 查询资产流水线/重生成任务的状态与进度
// @Tags Jobs
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.service.GetJob(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		respondError(c, err, "failed to get job")
		return
	}
	dto.Success(c, dto.ToJobResponse(job))
}
