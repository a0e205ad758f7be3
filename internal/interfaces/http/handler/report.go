// Package handler 提供 HTTP 请求处理器
package handler

import (
	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
	"upllyft-worksheet-api/internal/interfaces/http/dto"

	"github.com/gin-gonic/gin"
)

// ReportHandler 评估报告视觉解析
type ReportHandler struct {
	parser *appworksheet.ReportParser
}

// NewReportHandler 创建报告处理器
func NewReportHandler(parser *appworksheet.ReportParser) *ReportHandler {
	return &ReportHandler{parser: parser}
}

// Parse 解析评估报告
// @Summary 解析评估报告
// @Description 视觉模型逐页抽取结构化临床发现，产物可回填到生成请求
// @Tags Reports
// @Accept json
// @Produce json
// @Param body body dto.ParseReportRequest true "解析请求"
// @Success 200 {object} dto.Response[dto.ReportFindingsPayload]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /v1/reports/parse [post]
func (h *ReportHandler) Parse(c *gin.Context) {
	var req dto.ParseReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	fileType := appworksheet.ReportFileType(req.FileType)
	if fileType != appworksheet.ReportFileImage && fileType != appworksheet.ReportFileDocument {
		dto.BadRequest(c, "file_type must be image or document")
		return
	}

	findings, err := h.parser.Parse(c.Request.Context(), req.ReportURL, fileType)
	if err != nil {
		respondError(c, err, "failed to parse report")
		return
	}
	dto.Success(c, dto.FromFindings(findings))
}
