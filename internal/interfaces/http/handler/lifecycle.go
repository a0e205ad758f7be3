// Package handler 提供 HTTP 请求处理器
package handler

import (
	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/interfaces/http/dto"
	"upllyft-worksheet-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// LifecycleHandler 发布、归档与举报裁决
type LifecycleHandler struct {
	lifecycle *appworksheet.Lifecycle
}

// NewLifecycleHandler 创建生命周期处理器
func NewLifecycleHandler(lifecycle *appworksheet.Lifecycle) *LifecycleHandler {
	return &LifecycleHandler{lifecycle: lifecycle}
}

// Publish 设为公开
// @Summary 公开工作表
// @Description 仅 PUBLISHED 状态可以设置公开标志
// @Tags Lifecycle
// @Produce json
// @Param wid path string true "工作表 ID"
// @Success 200 {object} dto.Response[dto.PublishResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/publish [post]
func (h *LifecycleHandler) Publish(c *gin.Context) {
	h.setPublic(c, true)
}

// Unpublish 取消公开
// @Summary 取消公开
// @Tags Lifecycle
// @Produce json
// @Param wid path string true "工作表 ID"
// @Success 200 {object} dto.Response[dto.PublishResponse]
// @Router /v1/worksheets/{wid}/unpublish [post]
func (h *LifecycleHandler) Unpublish(c *gin.Context) {
	h.setPublic(c, false)
}

func (h *LifecycleHandler) setPublic(c *gin.Context, isPublic bool) {
	ws, err := h.lifecycle.SetPublic(c.Request.Context(), dto.BindWorksheetID(c), isPublic)
	if err != nil {
		respondError(c, err, "failed to update publish state")
		return
	}
	dto.Success(c, &dto.PublishResponse{ID: ws.ID, IsPublic: ws.IsPublic})
}

// Archive 归档工作表
// @Summary 归档工作表
// @Description 任意非 ARCHIVED 状态可归档，归档为终态
// @Tags Lifecycle
// @Param wid path string true "工作表 ID"
// @Success 204
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid} [delete]
func (h *LifecycleHandler) Archive(c *gin.Context) {
	if err := h.lifecycle.Archive(c.Request.Context(), dto.BindWorksheetID(c)); err != nil {
		respondError(c, err, "failed to archive worksheet")
		return
	}
	dto.NoContent(c)
}

// SubmitFlag 提交举报
// @Summary 举报工作表
// @Description 待处理举报达到阈值时自动转 FLAGGED
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param wid path string true "工作表 ID"
// @Param body body dto.SubmitFlagRequest true "举报请求"
// @Success 201 {object} dto.Response[dto.FlagResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/flags [post]
func (h *LifecycleHandler) SubmitFlag(c *gin.Context) {
	var req dto.SubmitFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	flag, err := h.lifecycle.SubmitFlag(c.Request.Context(), &entity.WorksheetFlag{
		TenantID:    middleware.GetTenantIDFromGin(c),
		WorksheetID: dto.BindWorksheetID(c),
		ReporterID:  middleware.GetUserIDFromGin(c),
		Reason:      req.Reason,
	})
	if err != nil {
		respondError(c, err, "failed to submit flag")
		return
	}
	dto.Created(c, dto.ToFlagResponse(flag))
}

// ResolveFlag 裁决举报
// @Summary 裁决举报
// @Description DISMISSED 驳回；ACTIONED 归档工作表并批量关闭其余待处理举报
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param fid path string true "举报 ID"
// @Param body body dto.ResolveFlagRequest true "裁决请求"
// @Success 200 {object} dto.Response[dto.ResolveFlagResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/flags/{fid}/resolve [post]
func (h *LifecycleHandler) ResolveFlag(c *gin.Context) {
	var req dto.ResolveFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	flagID := dto.BindFlagID(c)
	action := entity.FlagStatus(req.Action)

	err := h.lifecycle.ResolveFlag(c.Request.Context(), flagID, action, middleware.GetUserIDFromGin(c))
	if err != nil {
		respondError(c, err, "failed to resolve flag")
		return
	}
	dto.Success(c, &dto.ResolveFlagResponse{
		ID:       flagID,
		Resolved: true,
		Action:   string(action),
	})
}
