// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"
	"strconv"

	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
	"upllyft-worksheet-api/internal/config"
	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	"upllyft-worksheet-api/internal/interfaces/http/dto"
	"upllyft-worksheet-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// WorksheetHandler 工作表生成、查询与重生成
type WorksheetHandler struct {
	cfg     *config.Config
	service *appworksheet.Service
}

// NewWorksheetHandler 创建工作表处理器
func NewWorksheetHandler(cfg *config.Config, service *appworksheet.Service) *WorksheetHandler {
	return &WorksheetHandler{cfg: cfg, service: service}
}

// Generate 生成工作表
// @Summary 生成工作表
// @Description 同步生成内容树并落库，资产流水线异步执行
// @Tags Worksheets
// @Accept json
// @Produce json
// @Param body body dto.GenerateWorksheetRequest true "生成请求"
// @Success 201 {object} dto.Response[dto.GenerateWorksheetResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /v1/worksheets/generate [post]
func (h *WorksheetHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantIDFromGin(c)
	userID := middleware.GetUserIDFromGin(c)

	var req dto.GenerateWorksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	genReq := req.ToGenerateRequest(tenantID, userID)
	genReq.IsVerified = middleware.GetVerifiedFromGin(c)

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	genReq.Params.Provider = provider
	genReq.Params.Model = model

	if req.IdempotencyKey == "" {
		genReq.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	result, err := h.service.Generate(ctx, genReq)
	if err != nil {
		respondError(c, err, "failed to generate worksheet")
		return
	}

	dto.Created(c, &dto.GenerateWorksheetResponse{
		Worksheet: dto.ToWorksheetResponse(result.Worksheet),
		JobID:     result.Job.ID,
	})
}

// Get 获取工作表详情
// @Summary 获取工作表详情
// @Tags Worksheets
// @Produce json
// @Param wid path string true "工作表 ID"
// @Success 200 {object} dto.Response[dto.WorksheetResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid} [get]
func (h *WorksheetHandler) Get(c *gin.Context) {
	ws, err := h.service.Get(c.Request.Context(), dto.BindWorksheetID(c))
	if err != nil {
		respondError(c, err, "failed to get worksheet")
		return
	}
	dto.Success(c, dto.ToWorksheetResponse(ws))
}

// List 条件分页查询工作表
// @Summary 工作表列表
// @Tags Worksheets
// @Produce json
// @Success 200 {object} dto.Response[[]dto.WorksheetResponse]
// @Router /v1/worksheets [get]
func (h *WorksheetHandler) List(c *gin.Context) {
	pageReq := dto.BindPage(c)

	filter := &repository.WorksheetFilter{
		Type:       entity.WorksheetType(c.Query("type")),
		SubType:    c.Query("sub_type"),
		Status:     entity.WorksheetStatus(c.Query("status")),
		Difficulty: entity.Difficulty(c.Query("difficulty")),
	}
	if childID := c.Query("child_id"); childID != "" {
		filter.ChildID = &childID
	}
	if caseID := c.Query("case_id"); caseID != "" {
		filter.CaseID = &caseID
	}
	if isPublic := c.Query("is_public"); isPublic != "" {
		v := isPublic == "true"
		filter.IsPublic = &v
	}

	result, err := h.service.List(c.Request.Context(), filter, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to list worksheets")
		return
	}

	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToWorksheetSummaries(result.Items), meta)
}

// GetStatus 轮询生成状态
// @Summary 工作表状态
// @Description 状态 + 资产地址 + 最近一次流水线任务进度
// @Tags Worksheets
// @Produce json
// @Param wid path string true "工作表 ID"
// @Success 200 {object} dto.Response[dto.WorksheetStatusResponse]
// @Router /v1/worksheets/{wid}/status [get]
func (h *WorksheetHandler) GetStatus(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), dto.BindWorksheetID(c))
	if err != nil {
		respondError(c, err, "failed to get worksheet status")
		return
	}
	dto.Success(c, &dto.WorksheetStatusResponse{
		Status:     string(status.Status),
		PDFURL:     status.PDFURL,
		PreviewURL: status.PreviewURL,
		Job:        dto.ToJobResponse(status.Job),
	})
}

// Download 下载 PDF
// @Summary 下载工作表 PDF
// @Description 就绪时 302 跳转到对象存储；GENERATING 中返回 202 与 Retry-After
// @Tags Worksheets
// @Param wid path string true "工作表 ID"
// @Success 302
// @Success 202 {object} dto.Response[dto.WorksheetStatusResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/download [get]
func (h *WorksheetHandler) Download(c *gin.Context) {
	result, err := h.service.Download(c.Request.Context(), dto.BindWorksheetID(c))
	if err != nil {
		respondError(c, err, "failed to download worksheet")
		return
	}

	if !result.Ready {
		c.Header("Retry-After", strconv.Itoa(5))
		dto.Accepted(c, &dto.WorksheetStatusResponse{Status: string(entity.StatusGenerating)})
		return
	}
	c.Redirect(http.StatusFound, result.PDFURL)
}

// RegenerateSection 重生成单个小节
// @Summary 小节重生成
// @Description 投递 section_regen 任务，异步重写并重渲染
// @Tags Worksheets
// @Accept json
// @Produce json
// @Param wid path string true "工作表 ID"
// @Param sid path string true "小节 ID"
// @Success 202 {object} dto.Response[dto.RegenerateResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/sections/{sid}/regenerate [post]
func (h *WorksheetHandler) RegenerateSection(c *gin.Context) {
	var req dto.RegenerateSectionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	job, err := h.service.RegenerateSection(c.Request.Context(), dto.BindWorksheetID(c), dto.BindSectionID(c), req.Guidance)
	if err != nil {
		respondError(c, err, "failed to submit section regeneration")
		return
	}
	dto.Accepted(c, &dto.RegenerateResponse{JobID: job.ID})
}

// RegenerateImage 重生成单张插图
// @Summary 插图重生成
// @Tags Worksheets
// @Accept json
// @Produce json
// @Param wid path string true "工作表 ID"
// @Param iid path string true "插图 ID"
// @Success 202 {object} dto.Response[dto.RegenerateResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/images/{iid}/regenerate [post]
func (h *WorksheetHandler) RegenerateImage(c *gin.Context) {
	var req dto.RegenerateImageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	job, err := h.service.RegenerateImage(c.Request.Context(), dto.BindWorksheetID(c), dto.BindIllustrationID(c), req.CustomPrompt)
	if err != nil {
		respondError(c, err, "failed to submit image regeneration")
		return
	}
	dto.Accepted(c, &dto.RegenerateResponse{JobID: job.ID})
}
