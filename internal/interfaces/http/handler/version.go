// Package handler 提供 HTTP 请求处理器
package handler

import (
	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
	"upllyft-worksheet-api/internal/interfaces/http/dto"
	"upllyft-worksheet-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// VersionHandler 版本谱系与跨租户克隆
type VersionHandler struct {
	versions *appworksheet.Versions
}

// NewVersionHandler 创建版本处理器
func NewVersionHandler(versions *appworksheet.Versions) *VersionHandler {
	return &VersionHandler{versions: versions}
}

// CreateVersion 创建新版本
// @Summary 创建新版本
// @Description 仅创建者可在同一谱系内追加 DRAFT 新版本
// @Tags Versions
// @Produce json
// @Param wid path string true "工作表 ID"
// @Success 201 {object} dto.Response[dto.WorksheetResponse]
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/versions [post]
func (h *VersionHandler) CreateVersion(c *gin.Context) {
	userID := middleware.GetUserIDFromGin(c)

	next, err := h.versions.CreateVersion(c.Request.Context(), dto.BindWorksheetID(c), userID)
	if err != nil {
		respondError(c, err, "failed to create version")
		return
	}
	dto.Created(c, dto.ToWorksheetResponse(next))
}

// History 查询谱系版本历史
// @Summary 版本历史
// @Description 同一谱系根下的全部版本，按版本号升序
// @Tags Versions
// @Produce json
// @Param wid path string true "工作表 ID"
// @Success 200 {object} dto.Response[dto.VersionHistoryResponse]
// @Router /v1/worksheets/{wid}/versions [get]
func (h *VersionHandler) History(c *gin.Context) {
	versions, err := h.versions.History(c.Request.Context(), dto.BindWorksheetID(c))
	if err != nil {
		respondError(c, err, "failed to load version history")
		return
	}
	dto.Success(c, &dto.VersionHistoryResponse{
		Versions: dto.ToWorksheetSummaries(versions),
	})
}

// Clone 克隆公开工作表
// @Summary 克隆公开工作表
// @Description 公开且 PUBLISHED 的工作表克隆为当前租户的独立副本
// @Tags Versions
// @Produce json
// @Param wid path string true "工作表 ID"
// @Success 201 {object} dto.Response[dto.WorksheetResponse]
// @Failure 403 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/clone [post]
func (h *VersionHandler) Clone(c *gin.Context) {
	tenantID := middleware.GetTenantIDFromGin(c)
	userID := middleware.GetUserIDFromGin(c)

	clone, err := h.versions.Clone(c.Request.Context(), dto.BindWorksheetID(c), userID, tenantID)
	if err != nil {
		respondError(c, err, "failed to clone worksheet")
		return
	}
	dto.Created(c, dto.ToWorksheetResponse(clone))
}
